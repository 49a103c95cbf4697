package dataset

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"xray-diagnoser/internal/domain/entity"
	"xray-diagnoser/internal/domain/port"
)

// Rescale множитель нормализации байтовой яркости в [0,1]
const Rescale = 1.0 / 255

// Loader загружает сплит целиком в память
type Loader struct {
	decoder port.ImageDecoder
	classes entity.ClassSet
}

// NewLoader создаёт загрузчик поверх декодера изображений.
func NewLoader(decoder port.ImageDecoder, classes entity.ClassSet) *Loader {
	return &Loader{decoder: decoder, classes: classes}
}

// Load читает все снимки сплита: серый канал, ресайз dim×dim,
// три одинаковых канала, деление на 255. Порядок детерминирован:
// классы по возрастанию метки, файлы по имени.
// Первый нечитаемый файл прерывает загрузку.
func (l *Loader) Load(ctx context.Context, splitDir string, dim int) (*entity.ImageSet, error) {
	samples, err := listSamples(splitDir, l.classes)
	if err != nil {
		return nil, err
	}

	set := entity.NewImageSet(dim, len(samples))
	for _, s := range samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		gray, err := l.decoder.DecodeGray(s.path, dim)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", s.path, err)
		}
		pixels, err := entity.GrayToTensor(gray, dim, Rescale)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", s.path, err)
		}
		if err := set.Append(s.path, pixels, s.label); err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("dir", splitDir).
		Int("images", set.Len()).
		Int("positive", set.Positives()).
		Int("dim", dim).
		Msg("dataset loaded")

	return set, nil
}

var _ port.DatasetLoader = (*Loader)(nil)
