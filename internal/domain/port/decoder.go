package port

// ImageDecoder читает файл как одноканальное изображение заданного размера
type ImageDecoder interface {
	// DecodeGray возвращает dim*dim байт яркости после ресайза
	DecodeGray(path string, dim int) ([]uint8, error)
}
