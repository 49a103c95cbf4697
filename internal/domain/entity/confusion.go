package entity

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// DecisionThreshold порог вероятности положительного класса.
// Значение ровно 0.5 округляется к нормальному классу.
const DecisionThreshold = 0.5

// PredictLabel превращает вероятность в метку.
func PredictLabel(p float32) Label {
	if p > DecisionThreshold {
		return LabelPositive
	}
	return LabelNormal
}

// PredictLabels применяет PredictLabel к каждой вероятности.
func PredictLabels(probs []float32) []Label {
	out := make([]Label, len(probs))
	for i, p := range probs {
		out[i] = PredictLabel(p)
	}
	return out
}

// ConfusionMatrix таблица 2×2: строки — истинный класс, столбцы — предсказанный.
type ConfusionMatrix struct {
	TN int // истинно отрицательные
	FP int // ложно положительные
	FN int // ложно отрицательные
	TP int // истинно положительные
}

// NewConfusionMatrix сравнивает истинные и предсказанные метки.
func NewConfusionMatrix(actual, predicted []Label) (ConfusionMatrix, error) {
	var cm ConfusionMatrix
	if len(actual) != len(predicted) {
		return cm, fmt.Errorf("%w: %d labels, %d predictions", ErrLengthMismatch, len(actual), len(predicted))
	}
	for i := range actual {
		a, p := actual[i], predicted[i]
		if !a.Valid() || !p.Valid() {
			return ConfusionMatrix{}, fmt.Errorf("non-binary label at %d: actual=%d predicted=%d", i, a, p)
		}
		switch {
		case a == LabelNormal && p == LabelNormal:
			cm.TN++
		case a == LabelNormal && p == LabelPositive:
			cm.FP++
		case a == LabelPositive && p == LabelNormal:
			cm.FN++
		default:
			cm.TP++
		}
	}
	return cm, nil
}

// Total сумма всех ячеек, равна размеру набора.
func (m ConfusionMatrix) Total() int {
	return m.TN + m.FP + m.FN + m.TP
}

// Cells возвращает ячейки в порядке TN, FP, FN, TP.
func (m ConfusionMatrix) Cells() [4]int {
	return [4]int{m.TN, m.FP, m.FN, m.TP}
}

// Rows возвращает матрицу построчно: [[TN FP] [FN TP]].
func (m ConfusionMatrix) Rows() [2][2]int {
	return [2][2]int{{m.TN, m.FP}, {m.FN, m.TP}}
}

// CellNames подписи ячеек в порядке Cells.
var CellNames = [4]string{"True Neg", "False Pos", "False Neg", "True Pos"}

// Metric значение в процентах; Defined=false при нулевом знаменателе.
type Metric struct {
	Value   float64
	Defined bool
}

func ratio(num, den int) Metric {
	if den == 0 {
		return Metric{}
	}
	return Metric{Value: float64(num) / float64(den) * 100, Defined: true}
}

func (m Metric) String() string {
	if !m.Defined {
		return "undefined (zero denominator)"
	}
	return fmt.Sprintf("%.2f%%", m.Value)
}

// Metrics производные метрики матрицы ошибок.
type Metrics struct {
	Accuracy    Metric
	Precision   Metric
	Recall      Metric
	Specificity Metric
	F1          Metric
}

// Metrics вычисляет метрики, не делая деления на ноль.
func (m ConfusionMatrix) Metrics() Metrics {
	out := Metrics{
		Accuracy:    ratio(m.TP+m.TN, m.Total()),
		Precision:   ratio(m.TP, m.TP+m.FP),
		Recall:      ratio(m.TP, m.TP+m.FN),
		Specificity: ratio(m.TN, m.TN+m.FP),
	}
	p, r := out.Precision, out.Recall
	if p.Defined && r.Defined && p.Value+r.Value > 0 {
		out.F1 = Metric{Value: 2 * p.Value * r.Value / (p.Value + r.Value), Defined: true}
	}
	return out
}

// Named возвращает метрики парами имя/значение в порядке отчёта.
func (m Metrics) Named() []NamedMetric {
	return []NamedMetric{
		{Name: "accuracy", Title: "Accuracy", Metric: m.Accuracy},
		{Name: "precision", Title: "Precision", Metric: m.Precision},
		{Name: "recall", Title: "Recall", Metric: m.Recall},
		{Name: "specificity", Title: "Specificity", Metric: m.Specificity},
		{Name: "f1", Title: "F1-score", Metric: m.F1},
	}
}

// NamedMetric метрика с машинным и человеческим именем.
type NamedMetric struct {
	Name   string
	Title  string
	Metric Metric
}

const bceEpsilon = 1e-7

// BinaryCrossEntropy средняя бинарная кросс-энтропия вероятностей.
// Вероятности обрезаются до [eps, 1-eps], как в Keras.
func BinaryCrossEntropy(actual []Label, probs []float32) (float64, error) {
	if len(actual) != len(probs) {
		return 0, fmt.Errorf("%w: %d labels, %d probabilities", ErrLengthMismatch, len(actual), len(probs))
	}
	if len(actual) == 0 {
		return math.NaN(), nil
	}
	losses := make([]float64, len(probs))
	for i, p := range probs {
		q := math.Min(math.Max(float64(p), bceEpsilon), 1-bceEpsilon)
		y := float64(actual[i])
		losses[i] = -(y*math.Log(q) + (1-y)*math.Log(1-q))
	}
	return stat.Mean(losses, nil), nil
}
