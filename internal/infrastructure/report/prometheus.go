package report

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"xray-diagnoser/internal/domain/entity"
	"xray-diagnoser/internal/domain/port"
)

// PrometheusExporter пишет метрики оценки в textfile для node_exporter
type PrometheusExporter struct {
	path      string
	registry  *prometheus.Registry
	metrics   *prometheus.GaugeVec
	confusion *prometheus.GaugeVec
	loss      *prometheus.GaugeVec
	samples   *prometheus.GaugeVec
}

// NewPrometheusExporter создаёт экспортер с собственным реестром.
func NewPrometheusExporter(path string) *PrometheusExporter {
	e := &PrometheusExporter{
		path:     path,
		registry: prometheus.NewRegistry(),
		metrics: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "xray",
			Name:      "eval_metric_percent",
			Help:      "Evaluation metric of the last run, percent.",
		}, []string{"model", "metric"}),
		confusion: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "xray",
			Name:      "eval_confusion_count",
			Help:      "Confusion matrix cell count of the last run.",
		}, []string{"model", "cell"}),
		loss: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "xray",
			Name:      "eval_loss",
			Help:      "Binary cross-entropy on the test split.",
		}, []string{"model"}),
		samples: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "xray",
			Name:      "eval_samples",
			Help:      "Number of evaluated images.",
		}, []string{"model"}),
	}
	e.registry.MustRegister(e.metrics, e.confusion, e.loss, e.samples)
	return e
}

var cellLabels = [4]string{"tn", "fp", "fn", "tp"}

// Export обновляет гейджи модели и перезаписывает textfile.
// Неопределённые метрики не публикуются.
func (e *PrometheusExporter) Export(r *entity.EvaluationReport) error {
	for _, m := range r.Metrics.Named() {
		if !m.Metric.Defined {
			e.metrics.DeleteLabelValues(r.Model, m.Name)
			continue
		}
		e.metrics.WithLabelValues(r.Model, m.Name).Set(m.Metric.Value)
	}
	for i, c := range r.Confusion.Cells() {
		e.confusion.WithLabelValues(r.Model, cellLabels[i]).Set(float64(c))
	}
	e.loss.WithLabelValues(r.Model).Set(r.TestLoss)
	e.samples.WithLabelValues(r.Model).Set(float64(r.Samples))

	if err := prometheus.WriteToTextfile(e.path, e.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Gatherer реестр экспортера.
func (e *PrometheusExporter) Gatherer() prometheus.Gatherer {
	return e.registry
}

var _ port.MetricsExporter = (*PrometheusExporter)(nil)
