package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/rs/zerolog/log"

	"xray-diagnoser/internal/domain/entity"
	"xray-diagnoser/internal/domain/port"
)

// TrainingJob дообучение модели с явной политикой.
type TrainingJob struct {
	Model      entity.ModelSpec
	Policy     entity.TrainingPolicy
	Train      port.BatchSource
	Validation port.BatchSource
}

// TrainingService оркестрирует эпохи; сам цикл обучения во внешнем фреймворке.
type TrainingService struct {
	trainer port.Trainer
}

// NewTrainingService создаёт сервис поверх внешнего тренера.
func NewTrainingService(trainer port.Trainer) *TrainingService {
	return &TrainingService{trainer: trainer}
}

// Train гоняет эпохи, сохраняет лучшие веса по val_loss,
// снижает LR на плато и останавливается раньше по политике.
func (s *TrainingService) Train(ctx context.Context, job TrainingJob) (*entity.History, error) {
	if err := job.Policy.Validate(); err != nil {
		return nil, err
	}
	if job.Train == nil || job.Validation == nil {
		return nil, fmt.Errorf("%w: training and validation sources are required", entity.ErrInvalidConfig)
	}

	monitor := entity.NewTrainingMonitor(job.Policy)
	history := &entity.History{}
	weights := job.Model.Weights.Path
	// веса последней эпохи живут только на время обучения
	last := job.Policy.CheckpointPath + ".last"
	defer removeScratch(last)

	for epoch := 1; epoch <= job.Policy.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stats, err := s.trainer.TrainEpoch(ctx, port.EpochRequest{
			Epoch:        epoch,
			LearningRate: monitor.LearningRate(),
			WeightsIn:    weights,
			WeightsOut:   last,
			Train:        job.Train,
			Validation:   job.Validation,
		})
		if err != nil {
			return nil, fmt.Errorf("epoch %d: %w", epoch, err)
		}
		history.Epochs = append(history.Epochs, stats)
		weights = last

		decision := monitor.Observe(stats)
		ev := log.Info().
			Str("model", job.Model.Name).
			Int("epoch", epoch).
			Float64("loss", stats.Loss).
			Float64("accuracy", stats.Accuracy).
			Float64("val_loss", stats.ValLoss).
			Float64("lr", stats.LearningRate)

		if decision.SaveCheckpoint {
			if err := copyFile(last, job.Policy.CheckpointPath); err != nil {
				return nil, fmt.Errorf("checkpoint: %w", err)
			}
			history.BestEpoch = epoch
			history.BestValLoss = stats.ValLoss
			ev = ev.Bool("checkpoint", true)
		}
		if decision.ReduceLR {
			ev = ev.Float64("next_lr", decision.LearningRate)
		}
		ev.Msg("epoch finished")

		if decision.Stop {
			history.StoppedEarly = epoch < job.Policy.Epochs
			log.Info().Str("model", job.Model.Name).Int("epoch", epoch).Msg("early stopping")
			break
		}
	}

	return history, nil
}

func removeScratch(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("path", path).Msg("remove last-epoch weights")
	}
}

// copyFile перезаписывает dst содержимым src.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
