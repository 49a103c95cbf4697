package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"xray-diagnoser/internal/domain/entity"
)

// Config настройки прогона оценки
type Config struct {
	TelegramToken   string          `yaml:"-"`
	TelegramChatID  int64           `yaml:"telegram_chat_id"`
	LogLevel        string          `yaml:"log_level"`
	MetricsTextfile string          `yaml:"metrics_textfile"`
	OnnxLibrary     string          `yaml:"onnx_library"`
	Decoder         string          `yaml:"decoder"` // go или gocv
	ImageDim        int             `yaml:"image_dim"`
	BatchSize       int             `yaml:"batch_size"`
	Seed            int64           `yaml:"seed"`
	Classes         entity.ClassSet `yaml:"classes"`
	TrainerCommand  []string        `yaml:"trainer_command"`
	Models          []ModelConfig   `yaml:"models"`
}

// ModelConfig модель и её датасет
type ModelConfig struct {
	Name            string         `yaml:"name"`
	Title           string         `yaml:"title"`
	DatasetRoot     string         `yaml:"dataset_root"`
	Splits          []string       `yaml:"splits"`
	TestSplit       string         `yaml:"test_split"`
	TrainSplit      string         `yaml:"train_split"`
	ValidationSplit string         `yaml:"validation_split"`
	Weights         string         `yaml:"weights"`
	Heatmap         string         `yaml:"heatmap"` // без расширения
	Training        TrainingConfig `yaml:"training"`
}

// TrainingConfig политика дообучения модели
type TrainingConfig struct {
	Enabled               bool `yaml:"enabled"`
	entity.TrainingPolicy `yaml:",inline"`
}

const (
	DecoderGo   = "go"
	DecoderGoCV = "gocv"
)

// Default конфигурация двух моделей исходного ноутбука.
func Default() *Config {
	covidPolicy := entity.DefaultTrainingPolicy("covid19_neural_network_weights_jordan_v2.onnx")
	covidPolicy.Epochs = 11

	return &Config{
		LogLevel:  "info",
		Decoder:   DecoderGo,
		ImageDim:  150,
		BatchSize: 32,
		Seed:      232,
		Classes:   entity.DefaultClasses(),
		Models: []ModelConfig{
			{
				Name:            "pneumonia",
				Title:           "TRAINED NON-COVID19 PNEUMONIA VS NORMAL LUNG TEST REPORT [LOADED MODEL/WEIGHTS]",
				DatasetRoot:     "xray_dataset",
				Splits:          []string{"train", "val", "test"},
				TestSplit:       "test",
				TrainSplit:      "train",
				ValidationSplit: "val",
				Weights:         "best_weights_kaggle_user_pneumonia2_0.onnx",
				Heatmap:         "pneumoniaCM",
				Training: TrainingConfig{
					TrainingPolicy: entity.DefaultTrainingPolicy("best_weights_kaggle_user_pneumonia2_1.onnx"),
				},
			},
			{
				Name:        "covid19",
				Title:       "TRAINED COVID19 PNEUMONIA VS NORMAL LUNG TEST REPORT",
				DatasetRoot: "xray_dataset_covid19",
				Splits:      []string{"train", "test"},
				TestSplit:   "test",
				TrainSplit:  "train",
				Weights:     "covid19_neural_network_weights_jordan.onnx",
				Heatmap:     "covid19PneumoniaCM",
				Training:    TrainingConfig{TrainingPolicy: covidPolicy},
			},
		},
	}
}

// Load собирает конфигурацию: значения по умолчанию, YAML-файл (если path не пуст),
// .env и переменные окружения.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: TELEGRAM_CHAT_ID: %v", entity.ErrInvalidConfig, err)
		}
		c.TelegramChatID = id
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("METRICS_TEXTFILE"); v != "" {
		c.MetricsTextfile = v
	}
	if v := os.Getenv("ONNXRUNTIME_LIB"); v != "" {
		c.OnnxLibrary = v
	}
	if v := os.Getenv("XRAY_TRAINER_COMMAND"); v != "" {
		c.TrainerCommand = strings.Fields(v)
	}
	if base := os.Getenv("XRAY_DATA_DIR"); base != "" {
		for i := range c.Models {
			m := &c.Models[i]
			if !filepath.IsAbs(m.DatasetRoot) {
				m.DatasetRoot = filepath.Join(base, m.DatasetRoot)
			}
		}
	}
	return nil
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	if c.ImageDim <= 0 || c.BatchSize <= 0 {
		return fmt.Errorf("%w: image_dim and batch_size must be positive", entity.ErrInvalidConfig)
	}
	if c.Decoder != DecoderGo && c.Decoder != DecoderGoCV {
		return fmt.Errorf("%w: unknown decoder %q", entity.ErrInvalidConfig, c.Decoder)
	}
	if err := c.Classes.Validate(); err != nil {
		return err
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("%w: no models configured", entity.ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		if m.Name == "" || seen[m.Name] {
			return fmt.Errorf("%w: model name %q is empty or duplicated", entity.ErrInvalidConfig, m.Name)
		}
		seen[m.Name] = true
		if m.DatasetRoot == "" || m.TestSplit == "" || m.Weights == "" || m.Heatmap == "" {
			return fmt.Errorf("%w: model %s needs dataset_root, test_split, weights and heatmap", entity.ErrInvalidConfig, m.Name)
		}
		if m.Training.Enabled {
			if err := m.Training.Validate(); err != nil {
				return fmt.Errorf("model %s: %w", m.Name, err)
			}
			if m.TrainSplit == "" {
				return fmt.Errorf("%w: model %s has training enabled without train_split", entity.ErrInvalidConfig, m.Name)
			}
		}
	}
	return nil
}

// Model возвращает настройки модели по имени.
func (c *Config) Model(name string) (ModelConfig, error) {
	for _, m := range c.Models {
		if m.Name == name {
			return m, nil
		}
	}
	return ModelConfig{}, fmt.Errorf("unknown model %q", name)
}

// ModelNames имена моделей в порядке конфигурации.
func (c *Config) ModelNames() []string {
	out := make([]string, 0, len(c.Models))
	for _, m := range c.Models {
		out = append(out, m.Name)
	}
	return out
}

// Spec строит описание модели с архитектурой под ImageDim.
func (c *Config) Spec(m ModelConfig) (entity.ModelSpec, error) {
	arch, err := entity.DefineArchitecture(c.ImageDim)
	if err != nil {
		return entity.ModelSpec{}, err
	}
	return entity.ModelSpec{
		Name:         m.Name,
		Title:        m.Title,
		Architecture: arch,
		Weights:      entity.WeightsHandle{Path: m.Weights},
	}, nil
}

// ValidationSplitOrTest сплит для валидации: val, если задан, иначе тестовый.
func (m ModelConfig) ValidationSplitOrTest() string {
	if m.ValidationSplit != "" {
		return m.ValidationSplit
	}
	return m.TestSplit
}
