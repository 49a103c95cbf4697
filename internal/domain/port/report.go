package port

import (
	"context"

	"xray-diagnoser/internal/domain/entity"
)

// HeatmapRenderer рисует матрицу ошибок в файл изображения
type HeatmapRenderer interface {
	// Render перезаписывает файл по path
	Render(path string, cm entity.ConfusionMatrix) error
}

// ReportWriter печатает текстовый отчёт
type ReportWriter interface {
	WriteDistribution(report *entity.DistributionReport) error
	WriteEvaluation(report *entity.EvaluationReport) error
	WriteTraining(model string, history *entity.History) error
}

// ReportRepository хранилище отчётов за прогон
type ReportRepository interface {
	// Save сохраняет отчёт, заменяя предыдущий для той же модели
	Save(ctx context.Context, report *entity.EvaluationReport) error

	// Get возвращает последний отчёт модели
	Get(ctx context.Context, model string) (*entity.EvaluationReport, error)

	// List возвращает отчёты в порядке сохранения
	List(ctx context.Context) ([]*entity.EvaluationReport, error)
}

// MetricsExporter публикует метрики оценки
type MetricsExporter interface {
	Export(report *entity.EvaluationReport) error
}

// ReportNotifier отправляет отчёт во внешний канал
type ReportNotifier interface {
	Notify(ctx context.Context, report *entity.EvaluationReport) error
}
