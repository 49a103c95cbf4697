package vision

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"xray-diagnoser/internal/domain/entity"
	"xray-diagnoser/internal/domain/port"
)

// HeatmapRenderer рисует матрицу ошибок 2×2 в JPEG
type HeatmapRenderer struct {
	CellSize int
	Margin   int
	Quality  int
}

// NewHeatmapRenderer создаёт рендерер с размерами по умолчанию.
func NewHeatmapRenderer() *HeatmapRenderer {
	return &HeatmapRenderer{CellSize: 220, Margin: 90, Quality: 90}
}

var (
	axisPredicted = [2]string{"Predicted Normal", "Predicted Positive"}
	axisActual    = [2]string{"Normal", "Positive"}
)

// Render рисует тепловую карту и перезаписывает файл path.
func (r *HeatmapRenderer) Render(path string, cm entity.ConfusionMatrix) error {
	img := r.Draw(cm)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create heatmap: %w", err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: r.Quality}); err != nil {
		f.Close()
		return fmt.Errorf("encode heatmap: %w", err)
	}
	return f.Close()
}

// Draw возвращает изображение тепловой карты.
// Каждая ячейка подписана: название, количество, доля от общего числа.
func (r *HeatmapRenderer) Draw(cm entity.ConfusionMatrix) *image.RGBA {
	side := 2*r.CellSize + 2*r.Margin
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	cells := cm.Cells()
	maxCount := 0
	for _, c := range cells {
		if c > maxCount {
			maxCount = c
		}
	}
	total := cm.Total()

	for i, count := range cells {
		row, col := i/2, i%2
		x0 := r.Margin + col*r.CellSize
		y0 := r.Margin + row*r.CellSize
		rect := image.Rect(x0, y0, x0+r.CellSize, y0+r.CellSize)

		shade := cellShade(count, maxCount)
		draw.Draw(img, rect.Inset(1), image.NewUniform(shade), image.Point{}, draw.Src)

		ink := color.Gray{Y: 0}
		if shade.Y < 128 {
			ink = color.Gray{Y: 255}
		}
		lines := []string{
			entity.CellNames[i],
			fmt.Sprintf("%d", count),
			formatShare(count, total),
		}
		cy := y0 + r.CellSize/2 - 20
		for j, line := range lines {
			drawCentered(img, line, x0+r.CellSize/2, cy+j*20, ink)
		}
	}

	black := color.Gray{Y: 0}
	for i := 0; i < 2; i++ {
		cx := r.Margin + i*r.CellSize + r.CellSize/2
		drawCentered(img, axisPredicted[i], cx, r.Margin+2*r.CellSize+30, black)
		cy := r.Margin + i*r.CellSize + r.CellSize/2
		drawCentered(img, axisActual[i], r.Margin/2, cy, black)
	}
	drawCentered(img, "Confusion matrix", side/2, r.Margin/2, black)

	return img
}

// cellShade оттенок серого: больше значение — темнее ячейка.
func cellShade(count, maxCount int) color.Gray {
	if maxCount == 0 {
		return color.Gray{Y: 240}
	}
	return color.Gray{Y: uint8(240 - 200*count/maxCount)}
}

func formatShare(count, total int) string {
	if total == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", float64(count)/float64(total)*100)
}

func drawCentered(img draw.Image, text string, cx, cy int, c color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(c), Face: face}
	width := d.MeasureString(text).Round()
	d.Dot = fixed.P(cx-width/2, cy+face.Ascent/2)
	d.DrawString(text)
}

var _ port.HeatmapRenderer = (*HeatmapRenderer)(nil)
