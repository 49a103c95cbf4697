package vision

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"xray-diagnoser/internal/domain/entity"
	"xray-diagnoser/internal/domain/port"
)

// Interpolation метод ресайза. При уменьшении nfnt расширяет ядро на коэффициент
// масштаба (сглаживание), поэтому результат не совпадает попиксельно с
// INTER_LINEAR из OpenCV (GoCVDecoder).
const Interpolation = resize.Bilinear

// ImageDecoder декодер на чистом Go: jpeg, png, bmp, tiff.
type ImageDecoder struct{}

// NewImageDecoder создаёт декодер без зависимостей от OpenCV.
func NewImageDecoder() *ImageDecoder {
	return &ImageDecoder{}
}

// DecodeGray читает файл, переводит в оттенки серого и сжимает до dim×dim билинейно.
func (d *ImageDecoder) DecodeGray(path string, dim int) ([]uint8, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrDecode, path, err)
	}

	return GrayPlane(img, dim), nil
}

// GrayPlane переводит изображение в серый и возвращает плоскость dim×dim.
func GrayPlane(img image.Image, dim int) []uint8 {
	gray := toGray(img)
	resized := resize.Resize(uint(dim), uint(dim), gray, Interpolation)

	// nfnt возвращает *image.Gray для серого входа, но полагаться на это не стоит
	out, ok := resized.(*image.Gray)
	if !ok {
		out = toGray(resized)
	}

	plane := make([]uint8, dim*dim)
	for y := 0; y < dim; y++ {
		off := out.PixOffset(out.Rect.Min.X, out.Rect.Min.Y+y)
		copy(plane[y*dim:(y+1)*dim], out.Pix[off:off+dim])
	}
	return plane
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	// draw переводит цвет через color.GrayModel
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}

var _ port.ImageDecoder = (*ImageDecoder)(nil)
