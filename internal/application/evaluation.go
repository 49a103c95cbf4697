package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"xray-diagnoser/internal/domain/entity"
	"xray-diagnoser/internal/domain/port"
)

// EvaluationJob что и на каких данных оценивать.
type EvaluationJob struct {
	Model       entity.ModelSpec
	DatasetRoot string
	Splits      []string // сплиты для отчёта о распределении
	TestSplit   string
	HeatmapBase string // путь без расширения, добавляется .jpg
	Training    *TrainingJob
}

// Validate проверяет задание до начала работы.
func (j EvaluationJob) Validate() error {
	if err := j.Model.Validate(); err != nil {
		return err
	}
	if j.DatasetRoot == "" || j.TestSplit == "" {
		return fmt.Errorf("%w: dataset root and test split are required", entity.ErrInvalidConfig)
	}
	if j.HeatmapBase == "" {
		return fmt.Errorf("%w: heatmap path is required", entity.ErrInvalidConfig)
	}
	return nil
}

// EvaluationService линейный прогон: загрузка, инференс, метрики, отчёт.
type EvaluationService struct {
	enumerator port.DistributionReporter
	loader     port.DatasetLoader
	models     port.ClassifierLoader
	heatmap    port.HeatmapRenderer
	writer     port.ReportWriter
	reports    port.ReportRepository
	training   *TrainingService
	exporter   port.MetricsExporter
	notifier   port.ReportNotifier
}

// NewEvaluationService создаёт сервис оценки; exporter и notifier могут быть nil.
func NewEvaluationService(
	enumerator port.DistributionReporter,
	loader port.DatasetLoader,
	models port.ClassifierLoader,
	heatmap port.HeatmapRenderer,
	writer port.ReportWriter,
	reports port.ReportRepository,
	training *TrainingService,
	exporter port.MetricsExporter,
	notifier port.ReportNotifier,
) *EvaluationService {
	return &EvaluationService{
		enumerator: enumerator,
		loader:     loader,
		models:     models,
		heatmap:    heatmap,
		writer:     writer,
		reports:    reports,
		training:   training,
		exporter:   exporter,
		notifier:   notifier,
	}
}

// Distribution печатает распределение классов по сплитам.
func (s *EvaluationService) Distribution(ctx context.Context, root string, splits []string) (*entity.DistributionReport, error) {
	report, err := s.enumerator.Report(ctx, root, splits)
	if err != nil {
		return nil, err
	}
	if err := s.writer.WriteDistribution(report); err != nil {
		return nil, err
	}
	return report, nil
}

// Evaluate оценивает модель на тестовом сплите и, если задано, дообучает её.
func (s *EvaluationService) Evaluate(ctx context.Context, job EvaluationJob) (*entity.EvaluationReport, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	report := &entity.EvaluationReport{
		RunID:     uuid.NewString(),
		Model:     job.Model.Name,
		Title:     job.Model.Title,
		StartedAt: time.Now(),
	}
	logger := log.With().Str("run", report.RunID).Str("model", job.Model.Name).Logger()
	logger.Info().Str("root", job.DatasetRoot).Msg("evaluation started")

	// Распределение и загрузка теста независимы.
	var testSet *entity.ImageSet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if len(job.Splits) == 0 {
			return nil
		}
		dist, err := s.enumerator.Report(gctx, job.DatasetRoot, job.Splits)
		if err != nil {
			return fmt.Errorf("distribution: %w", err)
		}
		report.Distribution = dist
		return nil
	})
	g.Go(func() error {
		set, err := s.loader.Load(gctx, filepath.Join(job.DatasetRoot, job.TestSplit), job.Model.Architecture.InputDim)
		if err != nil {
			return fmt.Errorf("load test split: %w", err)
		}
		testSet = set
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if report.Distribution != nil {
		if err := s.writer.WriteDistribution(report.Distribution); err != nil {
			return nil, err
		}
	}

	probs, err := s.predict(ctx, job.Model, testSet)
	if err != nil {
		return nil, err
	}

	cm, err := entity.NewConfusionMatrix(testSet.Labels, entity.PredictLabels(probs))
	if err != nil {
		return nil, err
	}
	loss, err := entity.BinaryCrossEntropy(testSet.Labels, probs)
	if err != nil {
		return nil, err
	}
	report.Samples = testSet.Len()
	report.Confusion = cm
	report.Metrics = cm.Metrics()
	report.TestLoss = loss

	report.HeatmapPath = job.HeatmapBase + ".jpg"
	if err := s.heatmap.Render(report.HeatmapPath, cm); err != nil {
		return nil, fmt.Errorf("render heatmap: %w", err)
	}
	if err := s.writer.WriteEvaluation(report); err != nil {
		return nil, err
	}

	if job.Training != nil {
		if s.training == nil {
			return nil, errors.New("training is requested but no trainer is configured")
		}
		history, err := s.training.Train(ctx, *job.Training)
		if err != nil {
			return nil, fmt.Errorf("training: %w", err)
		}
		report.Training = history
		if err := s.writer.WriteTraining(job.Model.Title, history); err != nil {
			return nil, err
		}
	}

	report.FinishedAt = time.Now()
	if err := s.reports.Save(ctx, report); err != nil {
		return nil, err
	}

	if s.exporter != nil {
		if err := s.exporter.Export(report); err != nil {
			logger.Error().Err(err).Msg("metrics export failed")
		}
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, report); err != nil {
			logger.Error().Err(err).Msg("telegram notification failed")
		}
	}

	logger.Info().
		Int("samples", report.Samples).
		Str("accuracy", report.Metrics.Accuracy.String()).
		Dur("took", report.Duration()).
		Msg("evaluation finished")

	return report, nil
}

func (s *EvaluationService) predict(ctx context.Context, model entity.ModelSpec, set *entity.ImageSet) ([]float32, error) {
	clf, err := s.models.Load(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", model.Name, err)
	}
	defer func() {
		if err := clf.Close(); err != nil {
			log.Warn().Err(err).Str("model", model.Name).Msg("close classifier")
		}
	}()

	probs, err := clf.Predict(ctx, set)
	if err != nil {
		return nil, err
	}
	if len(probs) != set.Len() {
		return nil, fmt.Errorf("%w: %d predictions for %d images", entity.ErrLengthMismatch, len(probs), set.Len())
	}
	return probs, nil
}
