package dataset

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"xray-diagnoser/internal/domain/entity"
	"xray-diagnoser/internal/domain/port"
)

// Enumerator считает снимки по классам в каждом сплите
type Enumerator struct {
	classes entity.ClassSet
}

// NewEnumerator создаёт счётчик для заданного набора классов.
func NewEnumerator(classes entity.ClassSet) *Enumerator {
	return &Enumerator{classes: classes}
}

// Report проходит по сплитам root и возвращает распределение классов.
// Отсутствующая папка сплита или класса — ошибка, а не нулевой счётчик.
func (e *Enumerator) Report(ctx context.Context, root string, splits []string) (*entity.DistributionReport, error) {
	report := &entity.DistributionReport{Root: root, Splits: make([]entity.SplitCount, 0, len(splits))}

	for _, split := range splits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		count := entity.SplitCount{Split: split}
		for _, c := range e.classes.Ordered() {
			files, err := listImages(filepath.Join(root, split, c.Folder))
			if err != nil {
				return nil, err
			}
			if c.Label == entity.LabelPositive {
				count.Positive = len(files)
			} else {
				count.Normal = len(files)
			}
		}

		log.Debug().
			Str("root", root).
			Str("split", split).
			Int("normal", count.Normal).
			Int("positive", count.Positive).
			Msg("split counted")
		report.Splits = append(report.Splits, count)
	}

	return report, nil
}

var _ port.DistributionReporter = (*Enumerator)(nil)
