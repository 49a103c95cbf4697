package port

import (
	"context"

	"xray-diagnoser/internal/domain/entity"
)

// Classifier функция инференса, полученная из модели с весами
type Classifier interface {
	// Predict возвращает вероятность положительного класса для каждого снимка
	Predict(ctx context.Context, images *entity.ImageSet) ([]float32, error)

	Close() error
}

// ClassifierLoader загружает веса и проверяет их совместимость с архитектурой
type ClassifierLoader interface {
	Load(ctx context.Context, model entity.ModelSpec) (Classifier, error)
}
