package port

import (
	"context"

	"xray-diagnoser/internal/domain/entity"
)

// DistributionReporter считает снимки по классам в сплитах
type DistributionReporter interface {
	Report(ctx context.Context, root string, splits []string) (*entity.DistributionReport, error)
}

// DatasetLoader материализует сплит в память
type DatasetLoader interface {
	Load(ctx context.Context, splitDir string, dim int) (*entity.ImageSet, error)
}

// BatchSource бесконечная последовательность батчей, перезапускаемая по эпохам
type BatchSource interface {
	// Next возвращает следующий батч; после конца эпохи начинается новая
	Next(ctx context.Context) (*entity.ImageSet, error)

	// StepsPerEpoch число батчей в одной эпохе
	StepsPerEpoch() int
}
