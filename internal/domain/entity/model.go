package entity

import (
	"fmt"
	"time"
)

// WeightsHandle ссылка на файл обученных весов
type WeightsHandle struct {
	Path string
}

// ModelSpec модель: архитектура и явный набор весов.
type ModelSpec struct {
	Name         string // короткое имя: pneumonia, covid19
	Title        string // заголовок отчёта
	Architecture Architecture
	Weights      WeightsHandle
}

// Validate проверяет, что модель готова к загрузке.
func (m ModelSpec) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: model name is required", ErrInvalidConfig)
	}
	if m.Weights.Path == "" {
		return fmt.Errorf("%w: model %s has no weights path", ErrInvalidConfig, m.Name)
	}
	if len(m.Architecture.Layers) == 0 {
		return fmt.Errorf("%w: model %s has no layers", ErrInvalidConfig, m.Name)
	}
	return nil
}

// EvaluationReport итог оценки одной модели.
type EvaluationReport struct {
	RunID        string
	Model        string
	Title        string
	Distribution *DistributionReport
	Samples      int
	Confusion    ConfusionMatrix
	Metrics      Metrics
	TestLoss     float64
	HeatmapPath  string
	Training     *History
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration длительность прогона.
func (r *EvaluationReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
