package dataset

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog/log"

	"xray-diagnoser/internal/domain/entity"
	"xray-diagnoser/internal/domain/port"
)

// GeneratorOptions параметры генератора батчей
type GeneratorOptions struct {
	Dim       int
	BatchSize int
	Shuffle   bool
	Rescale   float32
	Augment   Augmenter
	Seed      int64
}

// TrainingGeneratorOptions генератор для обучения: зум 0.3 и вертикальное отражение.
func TrainingGeneratorOptions(dim, batchSize int, seed int64) GeneratorOptions {
	return GeneratorOptions{
		Dim:       dim,
		BatchSize: batchSize,
		Shuffle:   true,
		Rescale:   Rescale,
		Augment:   Augmenter{ZoomRange: 0.3, VerticalFlip: true},
		Seed:      seed,
	}
}

// PlainGeneratorOptions генератор для валидации и теста: только нормализация.
func PlainGeneratorOptions(dim, batchSize int, seed int64) GeneratorOptions {
	return GeneratorOptions{
		Dim:       dim,
		BatchSize: batchSize,
		Shuffle:   true,
		Rescale:   Rescale,
		Seed:      seed,
	}
}

// Generator ленивый бесконечный поток батчей из папки сплита
type Generator struct {
	decoder port.ImageDecoder
	samples []sample
	opts    GeneratorOptions
	rng     *rand.Rand
	order   []int
	pos     int
	epoch   int
}

// NewGenerator сканирует сплит и готовит первую эпоху.
func NewGenerator(splitDir string, classes entity.ClassSet, decoder port.ImageDecoder, opts GeneratorOptions) (*Generator, error) {
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive", entity.ErrInvalidConfig)
	}
	if opts.Dim <= 0 {
		return nil, fmt.Errorf("%w: dim must be positive", entity.ErrInvalidConfig)
	}

	samples, err := listSamples(splitDir, classes)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no images in %s", splitDir)
	}

	g := &Generator{
		decoder: decoder,
		samples: samples,
		opts:    opts,
	}
	g.Reset()

	log.Debug().
		Str("dir", splitDir).
		Int("samples", len(samples)).
		Int("batch", opts.BatchSize).
		Bool("augment", opts.Augment.Enabled()).
		Msg("generator ready")

	return g, nil
}

// Samples число снимков в сплите.
func (g *Generator) Samples() int {
	return len(g.samples)
}

// StepsPerEpoch число батчей в эпохе; последний может быть неполным.
func (g *Generator) StepsPerEpoch() int {
	return (len(g.samples) + g.opts.BatchSize - 1) / g.opts.BatchSize
}

// Epoch номер текущей эпохи, начиная с нуля.
func (g *Generator) Epoch() int {
	return g.epoch
}

// Reset возвращает генератор в начальное состояние с исходным seed.
func (g *Generator) Reset() {
	g.rng = rand.New(rand.NewSource(g.opts.Seed))
	g.order = make([]int, len(g.samples))
	for i := range g.order {
		g.order[i] = i
	}
	g.epoch = 0
	g.startEpoch()
}

func (g *Generator) startEpoch() {
	g.pos = 0
	if g.opts.Shuffle {
		g.rng.Shuffle(len(g.order), func(i, j int) {
			g.order[i], g.order[j] = g.order[j], g.order[i]
		})
	}
}

// Next возвращает следующий батч. После последнего батча эпохи
// порядок перемешивается заново и начинается следующая эпоха.
func (g *Generator) Next(ctx context.Context) (*entity.ImageSet, error) {
	if g.pos >= len(g.order) {
		g.epoch++
		g.startEpoch()
	}

	end := g.pos + g.opts.BatchSize
	if end > len(g.order) {
		end = len(g.order)
	}

	batch := entity.NewImageSet(g.opts.Dim, end-g.pos)
	for _, idx := range g.order[g.pos:end] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s := g.samples[idx]

		gray, err := g.decoder.DecodeGray(s.path, g.opts.Dim)
		if err != nil {
			return nil, fmt.Errorf("batch %s: %w", s.path, err)
		}
		if g.opts.Augment.Enabled() {
			gray = g.opts.Augment.Apply(g.rng, gray, g.opts.Dim)
		}
		pixels, err := entity.GrayToTensor(gray, g.opts.Dim, g.opts.Rescale)
		if err != nil {
			return nil, err
		}
		if err := batch.Append(s.path, pixels, s.label); err != nil {
			return nil, err
		}
	}
	g.pos = end

	if batch.Len() == 0 {
		return nil, errors.New("empty batch")
	}
	return batch, nil
}

var _ port.BatchSource = (*Generator)(nil)
