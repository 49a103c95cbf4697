package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"xray-diagnoser/internal/domain/entity"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, []string{"pneumonia", "covid19"}, cfg.ModelNames())
	require.Equal(t, 150, cfg.ImageDim)
	require.Equal(t, int64(232), cfg.Seed)

	covid, err := cfg.Model("covid19")
	require.NoError(t, err)
	require.Equal(t, 11, covid.Training.Epochs)
	require.Equal(t, "test", covid.ValidationSplitOrTest())
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xray.yaml")
	yamlData := `
image_dim: 64
batch_size: 8
models:
  - name: covid19
    title: COVID
    dataset_root: covid
    splits: [train, test]
    test_split: test
    train_split: train
    weights: covid.onnx
    heatmap: covidCM
    training:
      enabled: true
      checkpoint_path: covid_best.onnx
      monitor: val_loss
      epochs: 3
      learning_rate: 0.0005
      reduce_factor: 0.3
      reduce_patience: 2
      stop_patience: 1
      stop_min_delta: 0.1
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o644))

	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "12345")
	t.Setenv("XRAY_DATA_DIR", "/data")
	t.Setenv("XRAY_TRAINER_COMMAND", "python3 train_epoch.py")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 64, cfg.ImageDim)
	require.Equal(t, 8, cfg.BatchSize)
	require.Equal(t, "token", cfg.TelegramToken)
	require.Equal(t, int64(12345), cfg.TelegramChatID)
	require.Equal(t, []string{"python3", "train_epoch.py"}, cfg.TrainerCommand)
	require.Len(t, cfg.Models, 1)

	m := cfg.Models[0]
	require.Equal(t, filepath.Join("/data", "covid"), m.DatasetRoot)
	require.True(t, m.Training.Enabled)
	require.Equal(t, 3, m.Training.Epochs)
	require.Equal(t, 0.0005, m.Training.LearningRate)

	spec, err := cfg.Spec(m)
	require.NoError(t, err)
	require.Equal(t, 64, spec.Architecture.InputDim)
	require.Equal(t, "covid.onnx", spec.Weights.Path)
}

func TestLoad_BadChatID(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "abc")
	_, err := Load("")
	require.ErrorIs(t, err, entity.ErrInvalidConfig)
}

func TestValidate_Errors(t *testing.T) {
	cfg := Default()
	cfg.Decoder = "magick"
	require.ErrorIs(t, cfg.Validate(), entity.ErrInvalidConfig)

	cfg = Default()
	cfg.Models = append(cfg.Models, cfg.Models[0])
	require.ErrorIs(t, cfg.Validate(), entity.ErrInvalidConfig)

	cfg = Default()
	cfg.Models[0].Training.Enabled = true
	cfg.Models[0].Training.Epochs = 0
	require.ErrorIs(t, cfg.Validate(), entity.ErrInvalidConfig)

	cfg = Default()
	_, err := cfg.Model("tb")
	require.Error(t, err)
}
