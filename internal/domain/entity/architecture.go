package entity

import "fmt"

// LayerKind тип слоя сети
type LayerKind string

const (
	LayerConv2D          LayerKind = "conv2d"
	LayerSeparableConv2D LayerKind = "separable_conv2d"
	LayerBatchNorm       LayerKind = "batch_norm"
	LayerMaxPool         LayerKind = "max_pool"
	LayerDropout         LayerKind = "dropout"
	LayerFlatten         LayerKind = "flatten"
	LayerDense           LayerKind = "dense"
)

// Layer декларативное описание одного слоя
type Layer struct {
	Kind       LayerKind
	Filters    int     // conv: число фильтров
	Kernel     int     // conv: сторона ядра
	Units      int     // dense: число нейронов
	Pool       int     // max_pool: сторона окна
	Rate       float64 // dropout: доля
	Activation string  // relu / sigmoid / ""
}

// Shape форма выхода слоя без размерности батча
type Shape []int

// Size число элементов.
func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Architecture фиксированная сверточная сеть, выдающая одну вероятность.
type Architecture struct {
	InputDim int
	Channels int
	Layers   []Layer
}

// minInputDim минимальная сторона входа, переживающая пять пулингов 2×2
const minInputDim = 32

const (
	kernelSize = 3
	poolSize   = 2
)

// DefineArchitecture строит описание сети для входа dim×dim×3.
// Функция чистая: одинаковый dim даёт одинаковую структуру.
func DefineArchitecture(dim int) (Architecture, error) {
	if dim < minInputDim {
		return Architecture{}, fmt.Errorf("%w: input dim %d is below %d", ErrInvalidConfig, dim, minInputDim)
	}

	layers := make([]Layer, 0, 29)

	// Первый блок — обычная свёртка без нормализации.
	layers = append(layers,
		Layer{Kind: LayerConv2D, Filters: 16, Kernel: kernelSize, Activation: "relu"},
		Layer{Kind: LayerConv2D, Filters: 16, Kernel: kernelSize, Activation: "relu"},
		Layer{Kind: LayerMaxPool, Pool: poolSize},
	)

	// Блоки 2–5 — depthwise-separable свёртки.
	for _, filters := range []int{32, 64, 128, 256} {
		layers = append(layers,
			Layer{Kind: LayerSeparableConv2D, Filters: filters, Kernel: kernelSize, Activation: "relu"},
			Layer{Kind: LayerSeparableConv2D, Filters: filters, Kernel: kernelSize, Activation: "relu"},
			Layer{Kind: LayerBatchNorm},
			Layer{Kind: LayerMaxPool, Pool: poolSize},
		)
		if filters >= 128 {
			layers = append(layers, Layer{Kind: LayerDropout, Rate: 0.2})
		}
	}

	layers = append(layers, Layer{Kind: LayerFlatten})
	for _, fc := range []struct {
		units int
		rate  float64
	}{{512, 0.7}, {128, 0.5}, {64, 0.3}} {
		layers = append(layers,
			Layer{Kind: LayerDense, Units: fc.units, Activation: "relu"},
			Layer{Kind: LayerDropout, Rate: fc.rate},
		)
	}
	layers = append(layers, Layer{Kind: LayerDense, Units: 1, Activation: "sigmoid"})

	return Architecture{InputDim: dim, Channels: Channels, Layers: layers}, nil
}

// InputShape форма входа без размерности батча.
func (a Architecture) InputShape() Shape {
	return Shape{a.InputDim, a.InputDim, a.Channels}
}

// OutputUnits число выходов последнего слоя.
func (a Architecture) OutputUnits() int {
	if len(a.Layers) == 0 {
		return 0
	}
	return a.Layers[len(a.Layers)-1].Units
}

// Shapes вычисляет форму выхода каждого слоя.
func (a Architecture) Shapes() ([]Shape, error) {
	out := make([]Shape, 0, len(a.Layers))
	cur := a.InputShape()
	for i, l := range a.Layers {
		next, err := l.outputShape(cur)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, l.Kind, err)
		}
		out = append(out, next)
		cur = next
	}
	return out, nil
}

// Params считает обучаемые параметры каждого слоя и их сумму.
func (a Architecture) Params() ([]int, int, error) {
	shapes, err := a.Shapes()
	if err != nil {
		return nil, 0, err
	}
	per := make([]int, len(a.Layers))
	total := 0
	in := a.InputShape()
	for i, l := range a.Layers {
		per[i] = l.params(in)
		total += per[i]
		in = shapes[i]
	}
	return per, total, nil
}

func (l Layer) outputShape(in Shape) (Shape, error) {
	switch l.Kind {
	case LayerConv2D, LayerSeparableConv2D:
		if len(in) != 3 {
			return nil, fmt.Errorf("expects 3D input, got %v", in)
		}
		// padding=same сохраняет пространственный размер
		return Shape{in[0], in[1], l.Filters}, nil
	case LayerMaxPool:
		if len(in) != 3 {
			return nil, fmt.Errorf("expects 3D input, got %v", in)
		}
		h, w := in[0]/l.Pool, in[1]/l.Pool
		if h == 0 || w == 0 {
			return nil, fmt.Errorf("input %v is too small to pool", in)
		}
		return Shape{h, w, in[2]}, nil
	case LayerBatchNorm, LayerDropout:
		return append(Shape(nil), in...), nil
	case LayerFlatten:
		return Shape{in.Size()}, nil
	case LayerDense:
		if len(in) != 1 {
			return nil, fmt.Errorf("expects flat input, got %v", in)
		}
		return Shape{l.Units}, nil
	default:
		return nil, fmt.Errorf("unknown layer kind %q", l.Kind)
	}
}

func (l Layer) params(in Shape) int {
	switch l.Kind {
	case LayerConv2D:
		return l.Kernel*l.Kernel*in[2]*l.Filters + l.Filters
	case LayerSeparableConv2D:
		// depthwise + pointwise + bias
		return l.Kernel*l.Kernel*in[2] + in[2]*l.Filters + l.Filters
	case LayerBatchNorm:
		// gamma и beta; скользящие среднее и дисперсия не обучаются
		return 2 * in[len(in)-1]
	case LayerDense:
		return in[0]*l.Units + l.Units
	default:
		return 0
	}
}
