package trainer

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"xray-diagnoser/internal/domain/entity"
)

// FrameKind тип кадра в потоке батчей
type FrameKind byte

const (
	FrameTrain      FrameKind = 'T'
	FrameValidation FrameKind = 'V'
	FrameEnd        FrameKind = 'E'
)

// Frame батч, прочитанный из потока
type Frame struct {
	Kind  FrameKind
	Batch *entity.ImageSet
}

// WriteFrame пишет батч: тип, uint32 count, uint32 dim, пиксели float32, метки uint8.
// Порядок байт little endian.
func WriteFrame(w io.Writer, kind FrameKind, batch *entity.ImageSet) error {
	header := make([]byte, 9)
	header[0] = byte(kind)
	binary.LittleEndian.PutUint32(header[1:5], uint32(batch.Len()))
	binary.LittleEndian.PutUint32(header[5:9], uint32(batch.Dim))
	if _, err := w.Write(header); err != nil {
		return err
	}

	buf := make([]byte, 4*len(batch.Pixels))
	for i, v := range batch.Pixels {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	if _, err := w.Write(buf); err != nil {
		return err
	}

	labels := make([]byte, batch.Len())
	for i, l := range batch.Labels {
		labels[i] = byte(l)
	}
	_, err := w.Write(labels)
	return err
}

// WriteEnd завершает поток.
func WriteEnd(w io.Writer) error {
	_, err := w.Write([]byte{byte(FrameEnd)})
	return err
}

// ReadFrame читает следующий кадр; для FrameEnd батч пустой.
func ReadFrame(r *bufio.Reader) (Frame, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return Frame{}, err
	}
	switch FrameKind(kind) {
	case FrameEnd:
		return Frame{Kind: FrameEnd}, nil
	case FrameTrain, FrameValidation:
	default:
		return Frame{}, fmt.Errorf("unknown frame kind %q", kind)
	}

	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return Frame{}, fmt.Errorf("frame header: %w", err)
	}
	count := int(binary.LittleEndian.Uint32(header[0:4]))
	dim := int(binary.LittleEndian.Uint32(header[4:8]))

	batch := entity.NewImageSet(dim, count)
	raw := make([]byte, 4*batch.ImageSize())
	pixels := make([][]float32, count)
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(r, raw); err != nil {
			return Frame{}, fmt.Errorf("frame pixels: %w", err)
		}
		px := make([]float32, batch.ImageSize())
		for j := range px {
			px[j] = math.Float32frombits(binary.LittleEndian.Uint32(raw[j*4:]))
		}
		pixels[i] = px
	}

	labels := make([]byte, count)
	if _, err := io.ReadFull(r, labels); err != nil {
		return Frame{}, fmt.Errorf("frame labels: %w", err)
	}
	for i := 0; i < count; i++ {
		if err := batch.Append("", pixels[i], entity.Label(labels[i])); err != nil {
			return Frame{}, err
		}
	}

	return Frame{Kind: FrameKind(kind), Batch: batch}, nil
}
