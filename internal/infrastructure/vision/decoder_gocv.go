//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"xray-diagnoser/internal/domain/entity"
	"xray-diagnoser/internal/domain/port"
)

// GoCVDecoder декодер на OpenCV: то же чтение, что cv2.imread(path, 0).
type GoCVDecoder struct {
	Interpolation gocv.InterpolationFlags
}

// NewGoCVDecoder создаёт декодер с билинейной интерполяцией (по умолчанию в OpenCV).
func NewGoCVDecoder() *GoCVDecoder {
	return &GoCVDecoder{Interpolation: gocv.InterpolationLinear}
}

// DecodeGray читает файл в оттенках серого и сжимает до dim×dim.
func (d *GoCVDecoder) DecodeGray(path string, dim int) ([]uint8, error) {
	mat := gocv.IMRead(path, gocv.IMReadGrayScale)
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("%w: %s", entity.ErrDecode, path)
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(mat, &resized, image.Pt(dim, dim), 0, 0, d.Interpolation)

	if resized.Channels() != 1 || resized.Cols() != dim || resized.Rows() != dim {
		return nil, errors.New("unexpected mat layout after resize")
	}

	// ToBytes копирует данные, мат можно закрывать
	return resized.ToBytes(), nil
}

var _ port.ImageDecoder = (*GoCVDecoder)(nil)
