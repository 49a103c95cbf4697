package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrainingPolicy_Validate(t *testing.T) {
	p := DefaultTrainingPolicy("best.onnx")
	require.NoError(t, p.Validate())

	bad := p
	bad.CheckpointPath = ""
	require.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = p
	bad.Monitor = "val_acc"
	require.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = p
	bad.ReduceFactor = 1.5
	require.ErrorIs(t, bad.Validate(), ErrInvalidConfig)
}

func TestTrainingMonitor_CheckpointOnImprovement(t *testing.T) {
	p := DefaultTrainingPolicy("best.onnx")
	p.EarlyStopping = false
	m := NewTrainingMonitor(p)

	require.True(t, m.Observe(EpochStats{Epoch: 1, ValLoss: 0.9}).SaveCheckpoint)
	require.True(t, m.Observe(EpochStats{Epoch: 2, ValLoss: 0.8}).SaveCheckpoint)
	require.False(t, m.Observe(EpochStats{Epoch: 3, ValLoss: 0.85}).SaveCheckpoint)
	require.Equal(t, 0.8, m.Best())
}

func TestTrainingMonitor_ReduceOnPlateau(t *testing.T) {
	p := DefaultTrainingPolicy("best.onnx")
	p.EarlyStopping = false
	m := NewTrainingMonitor(p)

	d := m.Observe(EpochStats{ValLoss: 0.5})
	require.False(t, d.ReduceLR)
	d = m.Observe(EpochStats{ValLoss: 0.6})
	require.False(t, d.ReduceLR)
	d = m.Observe(EpochStats{ValLoss: 0.6})
	require.True(t, d.ReduceLR)
	require.InDelta(t, 0.0003, d.LearningRate, 1e-12)

	// счётчик терпения сбрасывается после снижения
	d = m.Observe(EpochStats{ValLoss: 0.7})
	require.False(t, d.ReduceLR)
	require.InDelta(t, 0.0003, m.LearningRate(), 1e-12)
}

func TestTrainingMonitor_EarlyStop(t *testing.T) {
	m := NewTrainingMonitor(DefaultTrainingPolicy("best.onnx"))

	require.False(t, m.Observe(EpochStats{ValLoss: 1.0}).Stop)
	require.False(t, m.Observe(EpochStats{ValLoss: 0.8}).Stop)
	// улучшение меньше StopMinDelta считается плато
	d := m.Observe(EpochStats{ValLoss: 0.75})
	require.True(t, d.Stop)
	require.True(t, d.SaveCheckpoint)
}

func TestTrainingMonitor_ZeroPatienceActsOnlyWithoutImprovement(t *testing.T) {
	p := DefaultTrainingPolicy("best.onnx")
	p.ReducePatience = 0
	p.StopPatience = 0
	m := NewTrainingMonitor(p)

	d := m.Observe(EpochStats{ValLoss: 1.0})
	require.True(t, d.SaveCheckpoint)
	require.False(t, d.ReduceLR)
	require.False(t, d.Stop)
	require.InDelta(t, 0.001, d.LearningRate, 1e-12)

	d = m.Observe(EpochStats{ValLoss: 1.0})
	require.True(t, d.ReduceLR)
	require.True(t, d.Stop)
}

func TestHistory_FinalAccuracy(t *testing.T) {
	var h *History
	_, ok := h.FinalAccuracy()
	require.False(t, ok)

	h = &History{Epochs: []EpochStats{{Accuracy: 0.5, ValLoss: 1}, {Accuracy: 0.875, ValLoss: 0.5}}}
	acc, ok := h.FinalAccuracy()
	require.True(t, ok)
	require.InDelta(t, 87.5, acc, 1e-9)
	require.Equal(t, []float64{1, 0.5}, h.ValLosses())
}
