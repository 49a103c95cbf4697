package container

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"xray-diagnoser/config"
	telegram "xray-diagnoser/internal/api"
	app "xray-diagnoser/internal/application"
	"xray-diagnoser/internal/domain/port"
	"xray-diagnoser/internal/infrastructure/dataset"
	"xray-diagnoser/internal/infrastructure/onnx"
	"xray-diagnoser/internal/infrastructure/report"
	"xray-diagnoser/internal/infrastructure/storage"
	"xray-diagnoser/internal/infrastructure/trainer"
	"xray-diagnoser/internal/infrastructure/vision"
)

type Container struct {
	Config            *config.Config
	Decoder           port.ImageDecoder
	Reports           port.ReportRepository
	Writer            *report.TextWriter
	TrainingService   *app.TrainingService
	EvaluationService *app.EvaluationService

	runtime *onnx.Runtime
}

// New собирает сервисы приложения из конфигурации; отчёты печатаются в out.
func New(cfg *config.Config, out io.Writer) (*Container, error) {
	decoder := newDecoder(cfg.Decoder)
	reports := storage.NewMemoryReportRepository()
	writer := report.NewTextWriter(out)
	runtime := onnx.NewRuntime(cfg.OnnxLibrary)

	var trainingService *app.TrainingService
	if len(cfg.TrainerCommand) > 0 {
		tr, err := trainer.NewExecTrainer(cfg.TrainerCommand)
		if err != nil {
			return nil, err
		}
		trainingService = app.NewTrainingService(tr)
	}

	var exporter port.MetricsExporter
	if cfg.MetricsTextfile != "" {
		exporter = report.NewPrometheusExporter(cfg.MetricsTextfile)
	}

	var notifier port.ReportNotifier
	if cfg.TelegramToken != "" {
		n, err := telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		notifier = n
	}

	evaluationService := app.NewEvaluationService(
		dataset.NewEnumerator(cfg.Classes),
		dataset.NewLoader(decoder, cfg.Classes),
		onnx.NewLoader(runtime),
		vision.NewHeatmapRenderer(),
		writer,
		reports,
		trainingService,
		exporter,
		notifier,
	)

	return &Container{
		Config:            cfg,
		Decoder:           decoder,
		Reports:           reports,
		Writer:            writer,
		TrainingService:   trainingService,
		EvaluationService: evaluationService,
		runtime:           runtime,
	}, nil
}

func newDecoder(kind string) port.ImageDecoder {
	if kind == config.DecoderGoCV {
		return vision.NewGoCVDecoder()
	}
	return vision.NewImageDecoder()
}

// EvaluationJob собирает задание оценки модели по имени.
// withTraining добавляет дообучение, даже если оно выключено в конфигурации.
func (c *Container) EvaluationJob(name string, withTraining bool) (app.EvaluationJob, error) {
	m, err := c.Config.Model(name)
	if err != nil {
		return app.EvaluationJob{}, err
	}
	spec, err := c.Config.Spec(m)
	if err != nil {
		return app.EvaluationJob{}, err
	}

	job := app.EvaluationJob{
		Model:       spec,
		DatasetRoot: m.DatasetRoot,
		Splits:      m.Splits,
		TestSplit:   m.TestSplit,
		HeatmapBase: m.Heatmap,
	}

	if m.Training.Enabled || withTraining {
		tj, err := c.TrainingJob(m)
		if err != nil {
			return app.EvaluationJob{}, err
		}
		job.Training = &tj
	}
	return job, nil
}

// TrainingJob готовит генераторы обучения и валидации для модели.
func (c *Container) TrainingJob(m config.ModelConfig) (app.TrainingJob, error) {
	if c.TrainingService == nil {
		return app.TrainingJob{}, errors.New("trainer_command is not configured")
	}
	spec, err := c.Config.Spec(m)
	if err != nil {
		return app.TrainingJob{}, err
	}

	dim, batch, seed := c.Config.ImageDim, c.Config.BatchSize, c.Config.Seed
	train, err := dataset.NewGenerator(filepath.Join(m.DatasetRoot, m.TrainSplit), c.Config.Classes, c.Decoder,
		dataset.TrainingGeneratorOptions(dim, batch, seed))
	if err != nil {
		return app.TrainingJob{}, fmt.Errorf("training generator: %w", err)
	}
	val, err := dataset.NewGenerator(filepath.Join(m.DatasetRoot, m.ValidationSplitOrTest()), c.Config.Classes, c.Decoder,
		dataset.PlainGeneratorOptions(dim, batch, seed))
	if err != nil {
		return app.TrainingJob{}, fmt.Errorf("validation generator: %w", err)
	}

	log.Info().
		Str("model", m.Name).
		Int("train_samples", train.Samples()).
		Int("val_samples", val.Samples()).
		Msg("training data ready")

	return app.TrainingJob{
		Model:      spec,
		Policy:     m.Training.TrainingPolicy,
		Train:      train,
		Validation: val,
	}, nil
}

// Close освобождает окружение onnxruntime.
func (c *Container) Close() error {
	return c.runtime.Close()
}
