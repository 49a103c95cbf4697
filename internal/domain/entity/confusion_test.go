package entity

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfusionMatrix_KnownCase(t *testing.T) {
	actual := []Label{0, 0, 1, 1}
	predicted := []Label{0, 1, 1, 1}

	cm, err := NewConfusionMatrix(actual, predicted)
	require.NoError(t, err)
	require.Equal(t, ConfusionMatrix{TN: 1, FP: 1, FN: 0, TP: 2}, cm)

	m := cm.Metrics()
	require.True(t, m.Accuracy.Defined)
	require.InDelta(t, 75.0, m.Accuracy.Value, 1e-9)
	require.InDelta(t, 66.6667, m.Precision.Value, 1e-3)
	require.InDelta(t, 100.0, m.Recall.Value, 1e-9)
	require.InDelta(t, 50.0, m.Specificity.Value, 1e-9)
	require.InDelta(t, 80.0, m.F1.Value, 1e-9)
}

func TestConfusionMatrix_SumEqualsSetSize(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 50; n++ {
		actual := make([]Label, n)
		predicted := make([]Label, n)
		for i := 0; i < n; i++ {
			actual[i] = Label(rng.Intn(2))
			predicted[i] = Label(rng.Intn(2))
		}
		cm, err := NewConfusionMatrix(actual, predicted)
		require.NoError(t, err)
		require.Equal(t, n, cm.Total())
	}
}

func TestConfusionMatrix_NoPredictedPositives(t *testing.T) {
	cm, err := NewConfusionMatrix([]Label{0, 1, 1}, []Label{0, 0, 0})
	require.NoError(t, err)

	m := cm.Metrics()
	require.False(t, m.Precision.Defined)
	require.False(t, m.F1.Defined)
	require.True(t, m.Recall.Defined)
	require.Equal(t, 0.0, m.Recall.Value)
	require.Equal(t, "undefined (zero denominator)", m.Precision.String())
}

func TestConfusionMatrix_Empty(t *testing.T) {
	cm, err := NewConfusionMatrix(nil, nil)
	require.NoError(t, err)
	m := cm.Metrics()
	for _, nm := range m.Named() {
		require.False(t, nm.Metric.Defined, nm.Name)
	}
}

func TestConfusionMatrix_Errors(t *testing.T) {
	_, err := NewConfusionMatrix([]Label{0, 1}, []Label{0})
	require.ErrorIs(t, err, ErrLengthMismatch)

	_, err = NewConfusionMatrix([]Label{0, 2}, []Label{0, 1})
	require.Error(t, err)
}

func TestPredictLabel_Threshold(t *testing.T) {
	require.Equal(t, LabelNormal, PredictLabel(0.1))
	require.Equal(t, LabelNormal, PredictLabel(0.5))
	require.Equal(t, LabelPositive, PredictLabel(0.51))
	require.Equal(t, []Label{0, 1}, PredictLabels([]float32{0.2, 0.9}))
}

func TestMetricString(t *testing.T) {
	require.Equal(t, "75.00%", Metric{Value: 75, Defined: true}.String())
}

func TestBinaryCrossEntropy(t *testing.T) {
	loss, err := BinaryCrossEntropy([]Label{1, 0}, []float32{0.5, 0.5})
	require.NoError(t, err)
	require.InDelta(t, math.Ln2, loss, 1e-6)

	loss, err = BinaryCrossEntropy([]Label{1}, []float32{1})
	require.NoError(t, err)
	require.Less(t, loss, 1e-5)

	_, err = BinaryCrossEntropy([]Label{1}, nil)
	require.ErrorIs(t, err, ErrLengthMismatch)
}
