package onnx

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"

	"xray-diagnoser/internal/domain/entity"
	"xray-diagnoser/internal/domain/port"
)

// Classifier сессия onnxruntime с одним снимком на запуск
type Classifier struct {
	model        string
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	dim          int
}

// Loader открывает экспортированные веса модели
type Loader struct {
	runtime *Runtime
}

// NewLoader создаёт загрузчик поверх окружения onnxruntime.
func NewLoader(runtime *Runtime) *Loader {
	return &Loader{runtime: runtime}
}

// Load проверяет сигнатуру графа и создаёт сессию инференса.
func (l *Loader) Load(ctx context.Context, model entity.ModelSpec) (port.Classifier, error) {
	_ = ctx
	if err := model.Validate(); err != nil {
		return nil, err
	}
	path := model.Weights.Path
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("weights %s: %w", path, err)
	}
	if err := l.runtime.ensure(); err != nil {
		return nil, err
	}

	inInfo, outInfo, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", entity.ErrWeightsMismatch, path, err)
	}
	inputs := toSignatures(inInfo)
	outputs := toSignatures(outInfo)
	if err := checkSignature(inputs, outputs, model.Architecture); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dim := model.Architecture.InputDim
	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(dim), int64(dim), entity.Channels))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(model.Architecture.OutputUnits())))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(path,
		[]string{inputs[0].Name}, []string{outputs[0].Name},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	log.Info().
		Str("model", model.Name).
		Str("weights", path).
		Str("input", inputs[0].Name).
		Str("output", outputs[0].Name).
		Msg("weights loaded")

	return &Classifier{
		model:        model.Name,
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		dim:          dim,
	}, nil
}

func toSignatures(infos []ort.InputOutputInfo) []tensorSignature {
	out := make([]tensorSignature, 0, len(infos))
	for _, info := range infos {
		out = append(out, tensorSignature{Name: info.Name, Dims: []int64(info.Dimensions)})
	}
	return out
}

// Predict прогоняет каждый снимок набора и возвращает вероятности.
func (c *Classifier) Predict(ctx context.Context, images *entity.ImageSet) ([]float32, error) {
	if images.Dim != c.dim {
		return nil, fmt.Errorf("%w: images are %dx%d, model expects %dx%d",
			entity.ErrWeightsMismatch, images.Dim, images.Dim, c.dim, c.dim)
	}

	probs := make([]float32, images.Len())
	for i := range probs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		copy(c.inputTensor.GetData(), images.Image(i))
		if err := c.session.Run(); err != nil {
			return nil, fmt.Errorf("inference failed on %s: %w", images.Paths[i], err)
		}
		probs[i] = c.outputTensor.GetData()[0]
	}

	log.Debug().Str("model", c.model).Int("images", len(probs)).Msg("inference done")
	return probs, nil
}

// Close освобождает тензоры и сессию.
func (c *Classifier) Close() error {
	var errs []error
	if c.session != nil {
		errs = append(errs, c.session.Destroy())
	}
	if c.inputTensor != nil {
		errs = append(errs, c.inputTensor.Destroy())
	}
	if c.outputTensor != nil {
		errs = append(errs, c.outputTensor.Destroy())
	}
	return errors.Join(errs...)
}

var (
	_ port.Classifier       = (*Classifier)(nil)
	_ port.ClassifierLoader = (*Loader)(nil)
)
