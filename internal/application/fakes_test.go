package app

import (
	"context"
	"errors"
	"os"
	"sync"

	"xray-diagnoser/internal/domain/entity"
	"xray-diagnoser/internal/domain/port"
)

type fakeEnumerator struct {
	report *entity.DistributionReport
	err    error
}

func (f *fakeEnumerator) Report(ctx context.Context, root string, splits []string) (*entity.DistributionReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type fakeLoader struct {
	set *entity.ImageSet
	err error
	dir string
}

func (f *fakeLoader) Load(ctx context.Context, splitDir string, dim int) (*entity.ImageSet, error) {
	f.dir = splitDir
	if f.err != nil {
		return nil, f.err
	}
	return f.set, nil
}

type fakeClassifier struct {
	probs  []float32
	closed bool
}

func (f *fakeClassifier) Predict(ctx context.Context, images *entity.ImageSet) ([]float32, error) {
	return f.probs, nil
}

func (f *fakeClassifier) Close() error {
	f.closed = true
	return nil
}

type fakeModels struct {
	clf *fakeClassifier
	err error
}

func (f *fakeModels) Load(ctx context.Context, model entity.ModelSpec) (port.Classifier, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.clf, nil
}

type fakeHeatmap struct {
	path string
	cm   entity.ConfusionMatrix
}

func (f *fakeHeatmap) Render(path string, cm entity.ConfusionMatrix) error {
	f.path, f.cm = path, cm
	return nil
}

type fakeWriter struct {
	mu           sync.Mutex
	distribution int
	evaluation   int
	training     int
}

func (f *fakeWriter) WriteDistribution(*entity.DistributionReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.distribution++
	return nil
}

func (f *fakeWriter) WriteEvaluation(*entity.EvaluationReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evaluation++
	return nil
}

func (f *fakeWriter) WriteTraining(string, *entity.History) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.training++
	return nil
}

type fakeExporter struct {
	exported []*entity.EvaluationReport
}

func (f *fakeExporter) Export(r *entity.EvaluationReport) error {
	f.exported = append(f.exported, r)
	return nil
}

type fakeNotifier struct {
	err      error
	notified int
}

func (f *fakeNotifier) Notify(ctx context.Context, r *entity.EvaluationReport) error {
	f.notified++
	return f.err
}

// fakeTrainer отдаёт заранее заданные val_loss и пишет файл весов.
type fakeTrainer struct {
	valLosses []float64
	requests  []port.EpochRequest
	err       error
}

func (f *fakeTrainer) TrainEpoch(ctx context.Context, req port.EpochRequest) (entity.EpochStats, error) {
	if f.err != nil {
		return entity.EpochStats{}, f.err
	}
	f.requests = append(f.requests, req)
	i := len(f.requests) - 1
	if i >= len(f.valLosses) {
		return entity.EpochStats{}, errors.New("unexpected epoch")
	}
	if err := os.WriteFile(req.WeightsOut, []byte{byte(req.Epoch)}, 0o644); err != nil {
		return entity.EpochStats{}, err
	}
	return entity.EpochStats{
		Epoch:        req.Epoch,
		Loss:         f.valLosses[i] + 0.1,
		Accuracy:     0.5 + float64(i)/100,
		ValLoss:      f.valLosses[i],
		LearningRate: req.LearningRate,
	}, nil
}

type fakeSource struct{}

func (fakeSource) Next(ctx context.Context) (*entity.ImageSet, error) {
	return entity.NewImageSet(32, 0), nil
}

func (fakeSource) StepsPerEpoch() int { return 1 }
