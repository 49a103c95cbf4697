package dataset

import (
	"math/rand"
)

// Augmenter случайные преобразования серого снимка
type Augmenter struct {
	ZoomRange    float64 // масштаб по каждой оси из [1-ZoomRange, 1+ZoomRange]
	VerticalFlip bool    // отражение по вертикали с вероятностью 0.5
}

// Enabled true, если хотя бы одно преобразование включено.
func (a Augmenter) Enabled() bool {
	return a.ZoomRange > 0 || a.VerticalFlip
}

// Apply возвращает преобразованную копию плоскости dim×dim.
// Зум берёт ближайший пиксель, за краем повторяется крайний.
func (a Augmenter) Apply(rng *rand.Rand, gray []uint8, dim int) []uint8 {
	zx, zy := 1.0, 1.0
	if a.ZoomRange > 0 {
		lo := 1 - a.ZoomRange
		zx = lo + rng.Float64()*2*a.ZoomRange
		zy = lo + rng.Float64()*2*a.ZoomRange
	}
	flip := a.VerticalFlip && rng.Intn(2) == 1

	out := make([]uint8, len(gray))
	c := float64(dim-1) / 2
	for y := 0; y < dim; y++ {
		sy := clamp(int(c+(float64(y)-c)*zy+0.5), dim)
		if flip {
			sy = dim - 1 - sy
		}
		for x := 0; x < dim; x++ {
			sx := clamp(int(c+(float64(x)-c)*zx+0.5), dim)
			out[y*dim+x] = gray[sy*dim+sx]
		}
	}
	return out
}

func clamp(v, dim int) int {
	if v < 0 {
		return 0
	}
	if v >= dim {
		return dim - 1
	}
	return v
}
