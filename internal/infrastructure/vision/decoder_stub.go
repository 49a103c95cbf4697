//go:build !gocv
// +build !gocv

package vision

import (
	"errors"

	"xray-diagnoser/internal/domain/port"
)

// GoCVDecoder заглушка декодера (сборка без OpenCV).
type GoCVDecoder struct{}

// NewGoCVDecoder создаёт декодер-заглушку.
func NewGoCVDecoder() *GoCVDecoder {
	return &GoCVDecoder{}
}

// DecodeGray возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDecoder) DecodeGray(path string, dim int) ([]uint8, error) {
	_ = path
	_ = dim
	return nil, errors.New("gocv build tag is not enabled")
}

var _ port.ImageDecoder = (*GoCVDecoder)(nil)
