package port

import (
	"context"

	"xray-diagnoser/internal/domain/entity"
)

// EpochRequest входные данные одной эпохи обучения
type EpochRequest struct {
	Epoch        int
	LearningRate float64
	WeightsIn    string // текущие веса
	WeightsOut   string // куда записать веса после эпохи
	Train        BatchSource
	Validation   BatchSource
}

// Trainer внешний фреймворк, которому принадлежит цикл обучения
type Trainer interface {
	TrainEpoch(ctx context.Context, req EpochRequest) (entity.EpochStats, error)
}
