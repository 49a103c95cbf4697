package trainer

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"xray-diagnoser/internal/domain/entity"
	"xray-diagnoser/internal/domain/port"
)

// sliceSource отдаёт заранее подготовленные батчи по кругу
type sliceSource struct {
	batches []*entity.ImageSet
	pos     int
}

func (s *sliceSource) Next(ctx context.Context) (*entity.ImageSet, error) {
	b := s.batches[s.pos%len(s.batches)]
	s.pos++
	return b, nil
}

func (s *sliceSource) StepsPerEpoch() int {
	return len(s.batches)
}

func makeBatch(t *testing.T, labels ...entity.Label) *entity.ImageSet {
	t.Helper()
	b := entity.NewImageSet(2, len(labels))
	for i, l := range labels {
		px := make([]float32, b.ImageSize())
		px[0] = float32(i) / 10
		require.NoError(t, b.Append("", px, l))
	}
	return b
}

// TestHelperProcess играет роль внешнего фреймворка обучения.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("XRAY_TRAINER_HELPER") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	fs := flag.NewFlagSet("helper", flag.ContinueOnError)
	epoch := fs.Int("epoch", 0, "")
	lr := fs.Float64("lr", 0, "")
	_ = fs.String("weights-in", "", "")
	out := fs.String("weights-out", "", "")
	mode := fs.String("mode", "ok", "")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if *mode == "fail" {
		fmt.Fprintln(os.Stderr, "framework exploded")
		os.Exit(3)
	}

	r := bufio.NewReader(os.Stdin)
	var train, val, positives int
	for {
		f, err := ReadFrame(r)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(4)
		}
		if f.Kind == FrameEnd {
			break
		}
		if f.Kind == FrameTrain {
			train += f.Batch.Len()
			positives += f.Batch.Positives()
		} else {
			val += f.Batch.Len()
		}
	}
	if err := os.WriteFile(*out, []byte("weights"), 0o644); err != nil {
		os.Exit(5)
	}

	fmt.Println("Epoch progress 100%")
	_ = json.NewEncoder(os.Stdout).Encode(map[string]float64{
		"loss":         *lr,
		"accuracy":     float64(positives) / float64(train),
		"val_loss":     float64(val),
		"val_accuracy": float64(*epoch),
	})
}

func helperCommand(mode string) []string {
	return []string{os.Args[0], "-test.run=TestHelperProcess", "--", "--mode", mode}
}

func TestExecTrainer_TrainEpoch(t *testing.T) {
	defer goleak.VerifyNone(t)
	t.Setenv("XRAY_TRAINER_HELPER", "1")

	tr, err := NewExecTrainer(helperCommand("ok"))
	require.NoError(t, err)

	out := t.TempDir() + "/epoch.onnx"
	stats, err := tr.TrainEpoch(context.Background(), port.EpochRequest{
		Epoch:        3,
		LearningRate: 0.001,
		WeightsIn:    "in.onnx",
		WeightsOut:   out,
		Train:        &sliceSource{batches: []*entity.ImageSet{makeBatch(t, 0, 1), makeBatch(t, 1, 1)}},
		Validation:   &sliceSource{batches: []*entity.ImageSet{makeBatch(t, 0, 1, 0)}},
	})
	require.NoError(t, err)
	require.Equal(t, 3, stats.Epoch)
	require.InDelta(t, 0.001, stats.Loss, 1e-12)
	require.InDelta(t, 0.75, stats.Accuracy, 1e-12)
	require.InDelta(t, 3.0, stats.ValLoss, 1e-12)
	require.Equal(t, 0.001, stats.LearningRate)
	require.FileExists(t, out)
}

func TestExecTrainer_ProcessFailure(t *testing.T) {
	t.Setenv("XRAY_TRAINER_HELPER", "1")

	tr, err := NewExecTrainer(helperCommand("fail"))
	require.NoError(t, err)

	_, err = tr.TrainEpoch(context.Background(), port.EpochRequest{
		Epoch:      1,
		WeightsOut: t.TempDir() + "/x.onnx",
		Train:      &sliceSource{batches: []*entity.ImageSet{makeBatch(t, 0)}},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "framework exploded")
}

func TestNewExecTrainer_EmptyCommand(t *testing.T) {
	_, err := NewExecTrainer(nil)
	require.ErrorIs(t, err, entity.ErrInvalidConfig)
}

func TestReadStats_LongProgressLine(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 2000; i++ {
		fmt.Fprintf(&b, "\r%4d/2000 [=====>........................] - ETA: 12s - loss: 0.6931", i)
	}
	b.WriteString("\n")
	b.WriteString(`{"loss":0.4,"accuracy":0.8,"val_loss":0.5,"val_accuracy":0.75}` + "\n")
	require.Greater(t, b.Len(), 64*1024)

	stats, err := readStats(strings.NewReader(b.String()))
	require.NoError(t, err)
	require.InDelta(t, 0.4, stats.Loss, 1e-12)
	require.InDelta(t, 0.5, stats.ValLoss, 1e-12)
}

func TestReadStats_StatsAfterCarriageReturn(t *testing.T) {
	in := "\r1/1 [==============================] - 1s\r" +
		`{"loss":0.3,"accuracy":0.9,"val_loss":0.2,"val_accuracy":0.95}`

	stats, err := readStats(strings.NewReader(in))
	require.NoError(t, err)
	require.InDelta(t, 0.2, stats.ValLoss, 1e-12)
}

func TestReadStats_NoStats(t *testing.T) {
	_, err := readStats(strings.NewReader("epoch 1/1\n"))
	require.Error(t, err)
}
