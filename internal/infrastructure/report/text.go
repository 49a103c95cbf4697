package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"

	"xray-diagnoser/internal/domain/entity"
	"xray-diagnoser/internal/domain/port"
)

// TextWriter печатает отчёты в фиксированном текстовом формате
type TextWriter struct {
	w io.Writer
}

// NewTextWriter создаёт writer поверх w (обычно os.Stdout).
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

// WriteDistribution печатает распределение классов по сплитам.
func (t *TextWriter) WriteDistribution(report *entity.DistributionReport) error {
	var b strings.Builder
	for _, s := range report.Splits {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}

// WriteEvaluation печатает матрицу ошибок и метрики.
func (t *TextWriter) WriteEvaluation(r *entity.EvaluationReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n\n####### %s\n", r.Title)
	fmt.Fprintf(&b, "run %s, %d test images\n", r.RunID, r.Samples)

	b.WriteString("\nCONFUSION MATRIX FORMAT ------------------\n\n")
	b.WriteString("[true negatives  false positives]\n")
	b.WriteString("[false negatives true positives]\n\n")

	b.WriteString("CONFUSION MATRIX -----------\n")
	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"actual \\ predicted", "normal", "positive"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	rows := r.Confusion.Rows()
	table.Append([]string{"normal", strconv.Itoa(rows[0][0]), strconv.Itoa(rows[0][1])})
	table.Append([]string{"positive", strconv.Itoa(rows[1][0]), strconv.Itoa(rows[1][1])})
	table.Render()

	b.WriteString("\nTEST METRICS ------------\n")
	for _, m := range r.Metrics.Named() {
		fmt.Fprintf(&b, "%s: %s\n", m.Title, m.Metric)
	}
	fmt.Fprintf(&b, "Loss: %.4f\n", r.TestLoss)
	if r.HeatmapPath != "" {
		fmt.Fprintf(&b, "Heatmap: %s\n", r.HeatmapPath)
	}

	_, err := io.WriteString(t.w, b.String())
	return err
}

// WriteTraining печатает итог дообучения и кривую val_loss.
func (t *TextWriter) WriteTraining(model string, h *entity.History) error {
	var b strings.Builder
	b.WriteString("\nTRAIN METRIC ---------------\n")
	acc, ok := h.FinalAccuracy()
	if !ok {
		fmt.Fprintf(&b, "%s Train acc: no epochs completed\n", model)
		_, err := io.WriteString(t.w, b.String())
		return err
	}
	fmt.Fprintf(&b, "%s Train acc:%.2f\n", model, acc)
	fmt.Fprintf(&b, "best epoch %d, val_loss %.4f", h.BestEpoch, h.BestValLoss)
	if h.StoppedEarly {
		b.WriteString(", stopped early")
	}
	b.WriteByte('\n')

	if losses := h.ValLosses(); len(losses) > 1 {
		b.WriteString(asciigraph.Plot(losses, asciigraph.Height(8), asciigraph.Caption("val_loss by epoch")))
		b.WriteByte('\n')
	}

	_, err := io.WriteString(t.w, b.String())
	return err
}

// WriteArchitecture печатает слои сети с формами выходов и числом параметров.
func WriteArchitecture(w io.Writer, arch entity.Architecture) error {
	shapes, err := arch.Shapes()
	if err != nil {
		return err
	}
	params, total, err := arch.Params()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "layer", "config", "output", "params"})
	for i, l := range arch.Layers {
		table.Append([]string{
			strconv.Itoa(i + 1),
			string(l.Kind),
			layerConfig(l),
			formatShape(shapes[i]),
			strconv.Itoa(params[i]),
		})
	}
	table.SetFooter([]string{"", "", "", "total", strconv.Itoa(total)})
	table.Render()
	return nil
}

func layerConfig(l entity.Layer) string {
	switch l.Kind {
	case entity.LayerConv2D, entity.LayerSeparableConv2D:
		return fmt.Sprintf("%d filters %dx%d %s", l.Filters, l.Kernel, l.Kernel, l.Activation)
	case entity.LayerMaxPool:
		return fmt.Sprintf("%dx%d", l.Pool, l.Pool)
	case entity.LayerDropout:
		return fmt.Sprintf("rate %.1f", l.Rate)
	case entity.LayerDense:
		return fmt.Sprintf("%d units %s", l.Units, l.Activation)
	default:
		return ""
	}
}

func formatShape(s entity.Shape) string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

var _ port.ReportWriter = (*TextWriter)(nil)
