package entity

import "errors"

var (
	// ErrMissingDirectory — ожидаемая папка сплита или класса не найдена
	ErrMissingDirectory = errors.New("missing directory")

	// ErrUnknownClass — в сплите есть папка, не описанная в ClassSet
	ErrUnknownClass = errors.New("unknown class folder")

	// ErrDecode — файл не удалось прочитать как изображение
	ErrDecode = errors.New("failed to decode image")

	// ErrWeightsMismatch — файл весов не совпадает с архитектурой
	ErrWeightsMismatch = errors.New("weights do not match architecture")

	// ErrLengthMismatch — размеры параллельных массивов не совпадают
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrInvalidConfig — некорректная конфигурация
	ErrInvalidConfig = errors.New("invalid config")
)
