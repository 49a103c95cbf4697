package trainer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"xray-diagnoser/internal/domain/entity"
	"xray-diagnoser/internal/domain/port"
)

// ExecTrainer запускает внешний фреймворк обучения отдельным процессом на каждую эпоху.
// Батчи передаются в stdin кадрами (см. WriteFrame), итог эпохи — одна JSON-строка в stdout.
type ExecTrainer struct {
	Command []string
}

// NewExecTrainer создаёт тренер поверх команды command[0] с аргументами command[1:].
func NewExecTrainer(command []string) (*ExecTrainer, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, fmt.Errorf("%w: trainer command is empty", entity.ErrInvalidConfig)
	}
	return &ExecTrainer{Command: command}, nil
}

// TrainEpoch передаёт одну эпоху обучения и валидации во внешний процесс.
func (t *ExecTrainer) TrainEpoch(ctx context.Context, req port.EpochRequest) (entity.EpochStats, error) {
	args := append([]string{}, t.Command[1:]...)
	args = append(args,
		"--epoch", strconv.Itoa(req.Epoch),
		"--lr", strconv.FormatFloat(req.LearningRate, 'g', -1, 64),
		"--weights-in", req.WeightsIn,
		"--weights-out", req.WeightsOut,
	)

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(cctx, t.Command[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return entity.EpochStats{}, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return entity.EpochStats{}, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return entity.EpochStats{}, fmt.Errorf("start trainer: %w", err)
	}

	var stats entity.EpochStats
	g, gctx := errgroup.WithContext(cctx)
	g.Go(func() error {
		defer stdin.Close()
		return streamEpoch(gctx, stdin, req)
	})
	g.Go(func() error {
		var err error
		stats, err = readStats(stdout)
		if err != nil {
			// процесс больше не читается: убиваем, чтобы разблокировать запись
			cancel()
		}
		return err
	})

	streamErr := g.Wait()
	waitErr := cmd.Wait()
	if waitErr != nil {
		return entity.EpochStats{}, fmt.Errorf("trainer exited: %w: %s", waitErr, strings.TrimSpace(stderr.String()))
	}
	if streamErr != nil {
		return entity.EpochStats{}, fmt.Errorf("trainer epoch %d: %w", req.Epoch, streamErr)
	}

	stats.Epoch = req.Epoch
	stats.LearningRate = req.LearningRate
	log.Debug().
		Int("epoch", stats.Epoch).
		Float64("loss", stats.Loss).
		Float64("val_loss", stats.ValLoss).
		Msg("trainer epoch finished")
	return stats, nil
}

// streamEpoch пишет все батчи обучения, затем валидации, затем кадр конца.
func streamEpoch(ctx context.Context, w io.WriteCloser, req port.EpochRequest) error {
	bw := bufio.NewWriter(w)
	sources := []struct {
		kind FrameKind
		src  port.BatchSource
	}{{FrameTrain, req.Train}, {FrameValidation, req.Validation}}

	for _, s := range sources {
		if s.src == nil {
			continue
		}
		for step := 0; step < s.src.StepsPerEpoch(); step++ {
			batch, err := s.src.Next(ctx)
			if err != nil {
				return err
			}
			if err := WriteFrame(bw, s.kind, batch); err != nil {
				return fmt.Errorf("write frame: %w", err)
			}
		}
	}
	if err := WriteEnd(bw); err != nil {
		return err
	}
	return bw.Flush()
}

// readStats ищет JSON-строку итога эпохи. Прогресс-бар фреймворка
// перерисовывается через '\r' и может быть сколь угодно длинным, поэтому
// строки читаются без ограничения длины и режутся ещё и по '\r'.
func readStats(r io.Reader) (entity.EpochStats, error) {
	var stats entity.EpochStats
	br := bufio.NewReader(r)
	found := false
	for {
		line, readErr := br.ReadString('\n')
		for _, part := range strings.Split(line, "\r") {
			part = strings.TrimSpace(part)
			if !strings.HasPrefix(part, "{") {
				continue
			}
			if err := json.Unmarshal([]byte(part), &stats); err != nil {
				return stats, fmt.Errorf("parse trainer stats: %w", err)
			}
			found = true
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return stats, readErr
		}
	}
	if !found {
		return stats, errors.New("trainer produced no stats")
	}
	return stats, nil
}

var _ port.Trainer = (*ExecTrainer)(nil)
