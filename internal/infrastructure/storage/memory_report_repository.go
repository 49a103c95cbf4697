package storage

import (
	"context"
	"fmt"
	"sync"

	"xray-diagnoser/internal/domain/entity"
	"xray-diagnoser/internal/domain/port"
)

// MemoryReportRepository in-memory хранилище отчётов за один запуск
type MemoryReportRepository struct {
	mu      sync.RWMutex
	reports map[string]*entity.EvaluationReport
	order   []string
}

// NewMemoryReportRepository создаёт новое in-memory хранилище
func NewMemoryReportRepository() *MemoryReportRepository {
	return &MemoryReportRepository{
		reports: make(map[string]*entity.EvaluationReport),
	}
}

// Save сохраняет отчёт модели, заменяя предыдущий
func (r *MemoryReportRepository) Save(ctx context.Context, report *entity.EvaluationReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reports[report.Model]; !exists {
		r.order = append(r.order, report.Model)
	}
	r.reports[report.Model] = report

	return nil
}

// Get возвращает последний отчёт модели
func (r *MemoryReportRepository) Get(ctx context.Context, model string) (*entity.EvaluationReport, error) {
	r.mu.RLock()
	report, exists := r.reports[model]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("report for model %q not found", model)
	}
	return report, nil
}

// List возвращает отчёты в порядке первого сохранения
func (r *MemoryReportRepository) List(ctx context.Context) ([]*entity.EvaluationReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.EvaluationReport, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.reports[name])
	}
	return out, nil
}

// Проверка реализации интерфейса
var _ port.ReportRepository = (*MemoryReportRepository)(nil)
