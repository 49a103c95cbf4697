package entity

import (
	"fmt"
	"math"
)

// MonitorValLoss единственная поддерживаемая отслеживаемая метрика
const MonitorValLoss = "val_loss"

// TrainingPolicy явная конфигурация дообучения:
// сохранение лучших весов, снижение LR на плато и ранняя остановка.
type TrainingPolicy struct {
	// CheckpointPath лучшие веса; рядом на время обучения лежит <path>.last
	CheckpointPath  string  `yaml:"checkpoint_path"`
	Monitor         string  `yaml:"monitor"`
	Epochs          int     `yaml:"epochs"`
	LearningRate    float64 `yaml:"learning_rate"`
	ReduceFactor    float64 `yaml:"reduce_factor"`
	ReducePatience  int     `yaml:"reduce_patience"`
	ReduceMinDelta  float64 `yaml:"reduce_min_delta"`
	MinLearningRate float64 `yaml:"min_learning_rate"`
	EarlyStopping   bool    `yaml:"early_stopping"`
	StopPatience    int     `yaml:"stop_patience"`
	StopMinDelta    float64 `yaml:"stop_min_delta"`
}

// DefaultTrainingPolicy значения колбэков исходной модели.
func DefaultTrainingPolicy(checkpoint string) TrainingPolicy {
	return TrainingPolicy{
		CheckpointPath:  checkpoint,
		Monitor:         MonitorValLoss,
		Epochs:          10,
		LearningRate:    0.001,
		ReduceFactor:    0.3,
		ReducePatience:  2,
		ReduceMinDelta:  1e-4,
		MinLearningRate: 0,
		EarlyStopping:   true,
		StopPatience:    1,
		StopMinDelta:    0.1,
	}
}

// Validate проверяет политику обучения.
func (p TrainingPolicy) Validate() error {
	switch {
	case p.CheckpointPath == "":
		return fmt.Errorf("%w: checkpoint path is required", ErrInvalidConfig)
	case p.Monitor != MonitorValLoss:
		return fmt.Errorf("%w: unsupported monitor %q", ErrInvalidConfig, p.Monitor)
	case p.Epochs <= 0:
		return fmt.Errorf("%w: epochs must be positive", ErrInvalidConfig)
	case p.LearningRate <= 0:
		return fmt.Errorf("%w: learning rate must be positive", ErrInvalidConfig)
	case p.ReduceFactor <= 0 || p.ReduceFactor >= 1:
		return fmt.Errorf("%w: reduce factor must be in (0,1)", ErrInvalidConfig)
	case p.ReducePatience < 0 || p.StopPatience < 0:
		return fmt.Errorf("%w: patience must not be negative", ErrInvalidConfig)
	}
	return nil
}

// EpochStats итог одной эпохи обучения.
type EpochStats struct {
	Epoch        int     `json:"epoch"`
	Loss         float64 `json:"loss"`
	Accuracy     float64 `json:"accuracy"`
	ValLoss      float64 `json:"val_loss"`
	ValAccuracy  float64 `json:"val_accuracy"`
	LearningRate float64 `json:"learning_rate"`
}

// EpochDecision что сделать после эпохи.
type EpochDecision struct {
	SaveCheckpoint bool
	ReduceLR       bool
	LearningRate   float64 // LR для следующей эпохи
	Stop           bool
}

// plateau отслеживает улучшение минимизируемой величины.
type plateau struct {
	best     float64
	minDelta float64
	wait     int
}

func newPlateau(minDelta float64) plateau {
	return plateau{best: math.Inf(1), minDelta: minDelta}
}

// observe возвращает true, если значение улучшило лучшее более чем на minDelta.
func (p *plateau) observe(v float64) bool {
	if v < p.best-p.minDelta {
		p.best = v
		p.wait = 0
		return true
	}
	p.wait++
	return false
}

// TrainingMonitor конечный автомат трёх политик обучения.
type TrainingMonitor struct {
	policy     TrainingPolicy
	checkpoint plateau
	reduce     plateau
	stop       plateau
	lr         float64
}

// NewTrainingMonitor создаёт монитор с начальным LR из политики.
func NewTrainingMonitor(policy TrainingPolicy) *TrainingMonitor {
	return &TrainingMonitor{
		policy:     policy,
		checkpoint: newPlateau(0),
		reduce:     newPlateau(policy.ReduceMinDelta),
		stop:       newPlateau(policy.StopMinDelta),
		lr:         policy.LearningRate,
	}
}

// LearningRate текущий LR.
func (m *TrainingMonitor) LearningRate() float64 {
	return m.lr
}

// Best лучшее значение отслеживаемой метрики.
func (m *TrainingMonitor) Best() float64 {
	return m.checkpoint.best
}

// Observe принимает итог эпохи и решает, что делать дальше.
func (m *TrainingMonitor) Observe(stats EpochStats) EpochDecision {
	v := stats.ValLoss
	if math.IsNaN(v) {
		v = math.Inf(1)
	}

	var d EpochDecision
	d.SaveCheckpoint = m.checkpoint.observe(v)

	// LR и остановка срабатывают только на эпохах без улучшения
	if !m.reduce.observe(v) && m.reduce.wait >= m.policy.ReducePatience && m.lr > m.policy.MinLearningRate {
		m.lr = math.Max(m.lr*m.policy.ReduceFactor, m.policy.MinLearningRate)
		m.reduce.wait = 0
		d.ReduceLR = true
	}
	d.LearningRate = m.lr

	if !m.stop.observe(v) && m.policy.EarlyStopping && m.stop.wait >= m.policy.StopPatience {
		d.Stop = true
	}
	return d
}

// History журнал обучения.
type History struct {
	Epochs       []EpochStats
	BestEpoch    int
	BestValLoss  float64
	StoppedEarly bool
}

// FinalAccuracy точность на обучении после последней эпохи, в процентах.
func (h *History) FinalAccuracy() (float64, bool) {
	if h == nil || len(h.Epochs) == 0 {
		return 0, false
	}
	return h.Epochs[len(h.Epochs)-1].Accuracy * 100, true
}

// ValLosses ряд val_loss по эпохам.
func (h *History) ValLosses() []float64 {
	out := make([]float64, 0, len(h.Epochs))
	for _, e := range h.Epochs {
		out = append(out, e.ValLoss)
	}
	return out
}
