package onnx

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"
)

// Runtime окружение onnxruntime; инициализируется при первой загрузке модели,
// чтобы команды без инференса не требовали разделяемую библиотеку.
type Runtime struct {
	libPath string
	once    sync.Once
	err     error
	started bool
}

// NewRuntime создаёт окружение; пустой libPath оставляет путь по умолчанию.
func NewRuntime(libPath string) *Runtime {
	return &Runtime{libPath: libPath}
}

func (r *Runtime) ensure() error {
	r.once.Do(func() {
		if r.libPath != "" {
			ort.SetSharedLibraryPath(r.libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			r.err = fmt.Errorf("failed to initialize ONNX environment: %w", err)
			return
		}
		r.started = true
		log.Debug().Str("lib", r.libPath).Msg("onnxruntime initialized")
	})
	return r.err
}

// Close освобождает окружение, если оно было создано.
func (r *Runtime) Close() error {
	if !r.started {
		return nil
	}
	return ort.DestroyEnvironment()
}
