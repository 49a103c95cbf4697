package onnx

import (
	"fmt"

	"xray-diagnoser/internal/domain/entity"
)

// tensorSignature имя и размерности входа или выхода графа
type tensorSignature struct {
	Name string
	Dims []int64
}

// checkSignature сверяет граф модели с архитектурой: вход [N, dim, dim, 3], выход [N, 1].
// Размерность батча может быть динамической (-1).
func checkSignature(inputs, outputs []tensorSignature, arch entity.Architecture) error {
	if len(inputs) != 1 {
		return fmt.Errorf("%w: model has %d inputs, want 1", entity.ErrWeightsMismatch, len(inputs))
	}
	if len(outputs) != 1 {
		return fmt.Errorf("%w: model has %d outputs, want 1", entity.ErrWeightsMismatch, len(outputs))
	}

	want := arch.InputShape()
	in := inputs[0]
	if len(in.Dims) != len(want)+1 {
		return fmt.Errorf("%w: input %q has shape %v, want [N %d %d %d]",
			entity.ErrWeightsMismatch, in.Name, in.Dims, want[0], want[1], want[2])
	}
	if !batchDim(in.Dims[0]) {
		return fmt.Errorf("%w: input %q batch dimension is %d", entity.ErrWeightsMismatch, in.Name, in.Dims[0])
	}
	for i, d := range want {
		if in.Dims[i+1] != int64(d) {
			return fmt.Errorf("%w: input %q has shape %v, want [N %d %d %d]",
				entity.ErrWeightsMismatch, in.Name, in.Dims, want[0], want[1], want[2])
		}
	}

	out := outputs[0]
	units := int64(arch.OutputUnits())
	if len(out.Dims) != 2 || !batchDim(out.Dims[0]) || out.Dims[1] != units {
		return fmt.Errorf("%w: output %q has shape %v, want [N %d]", entity.ErrWeightsMismatch, out.Name, out.Dims, units)
	}
	return nil
}

func batchDim(d int64) bool {
	return d == -1 || d == 1
}
