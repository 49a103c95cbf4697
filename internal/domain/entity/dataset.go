package entity

import "fmt"

// Channels число каналов входного тензора (серый снимок, повторённый трижды)
const Channels = 3

// ImageSet упорядоченный набор снимков с метками.
// Пиксели хранятся одним буфером в раскладке NHWC.
type ImageSet struct {
	Dim    int       // сторона квадратного изображения
	Pixels []float32 // Dim*Dim*Channels значений на снимок, в диапазоне [0,1]
	Labels []Label   // метка на каждый снимок
	Paths  []string  // исходный файл на каждый снимок
}

// NewImageSet создаёт пустой набор с заданной стороной изображения.
func NewImageSet(dim, capacity int) *ImageSet {
	return &ImageSet{
		Dim:    dim,
		Pixels: make([]float32, 0, capacity*dim*dim*Channels),
		Labels: make([]Label, 0, capacity),
		Paths:  make([]string, 0, capacity),
	}
}

// ImageSize число значений на один снимок.
func (s *ImageSet) ImageSize() int {
	return s.Dim * s.Dim * Channels
}

// Len возвращает количество снимков.
func (s *ImageSet) Len() int {
	return len(s.Labels)
}

// Append добавляет нормализованный снимок.
func (s *ImageSet) Append(path string, pixels []float32, label Label) error {
	if len(pixels) != s.ImageSize() {
		return fmt.Errorf("%w: %s has %d values, want %d", ErrLengthMismatch, path, len(pixels), s.ImageSize())
	}
	if !label.Valid() {
		return fmt.Errorf("%s: invalid label %d", path, label)
	}
	s.Pixels = append(s.Pixels, pixels...)
	s.Labels = append(s.Labels, label)
	s.Paths = append(s.Paths, path)
	return nil
}

// Image возвращает срез пикселей i-го снимка (без копирования).
func (s *ImageSet) Image(i int) []float32 {
	size := s.ImageSize()
	return s.Pixels[i*size : (i+1)*size]
}

// Validate проверяет инварианты набора.
func (s *ImageSet) Validate() error {
	if s.Dim <= 0 {
		return fmt.Errorf("%w: dim %d", ErrInvalidConfig, s.Dim)
	}
	if len(s.Paths) != len(s.Labels) {
		return fmt.Errorf("%w: %d paths, %d labels", ErrLengthMismatch, len(s.Paths), len(s.Labels))
	}
	if len(s.Pixels) != len(s.Labels)*s.ImageSize() {
		return fmt.Errorf("%w: %d pixel values for %d images", ErrLengthMismatch, len(s.Pixels), len(s.Labels))
	}
	for i, v := range s.Pixels {
		if v < 0 || v > 1 {
			return fmt.Errorf("value %f at %d is outside [0,1]", v, i)
		}
	}
	return nil
}

// Positives считает снимки с положительной меткой.
func (s *ImageSet) Positives() int {
	n := 0
	for _, l := range s.Labels {
		if l == LabelPositive {
			n++
		}
	}
	return n
}

// GrayToTensor повторяет серый канал в три канала и умножает на scale.
// Ожидается gray длиной dim*dim.
func GrayToTensor(gray []uint8, dim int, scale float32) ([]float32, error) {
	if len(gray) != dim*dim {
		return nil, fmt.Errorf("%w: gray plane has %d pixels, want %d", ErrLengthMismatch, len(gray), dim*dim)
	}
	out := make([]float32, dim*dim*Channels)
	for i, p := range gray {
		v := float32(p) * scale
		out[i*Channels] = v
		out[i*Channels+1] = v
		out[i*Channels+2] = v
	}
	return out, nil
}
