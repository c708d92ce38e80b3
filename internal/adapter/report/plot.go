package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/couchcryptid/cal-flagging-metrics/internal/domain"
	"github.com/jung-kurt/gofpdf"
)

// HistogramBins is the number of bins across 0-100% flagged.
const HistogramBins = 50

type rgb struct{ r, g, b int }

var (
	colorMean   = rgb{31, 119, 180}
	colorMedian = rgb{255, 127, 14}
	colorPoint  = rgb{44, 160, 44}
	colorRef    = rgb{214, 39, 40}
	colorAxis   = rgb{0, 0, 0}
)

// Page geometry in mm, A4 landscape with three panels per page.
const (
	pageMarginX  = 15.0
	pageTop      = 30.0
	panelWidth   = 78.0
	panelHeight  = 120.0
	panelSpacing = 17.0
)

// PlotRenderer draws the diagnostic plots into a single PDF.
type PlotRenderer struct {
	path   string
	logger *slog.Logger
}

func NewPlotRenderer(path string, logger *slog.Logger) *PlotRenderer {
	return &PlotRenderer{path: path, logger: logger}
}

func (r *PlotRenderer) Emit(ctx context.Context, sum domain.PopulationSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := BuildPlotsPDF(sum)
	if err != nil {
		return fmt.Errorf("render plots: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write plots: %w", err)
	}
	r.logger.Info("diagnostic plots written", "path", r.path, "observations", sum.Observations())
	return nil
}

// BuildPlotsPDF renders three pages: histograms of mean and median flagged
// percentage, median vs fraction of stations above threshold, and median vs
// count of stations below threshold. Classes without data in an observation
// are left out of that observation's points.
func BuildPlotsPDF(sum domain.PopulationSummary) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 8)

	histogramPage(pdf, sum)
	fractionPage(pdf, sum)
	passCountPage(pdf, sum)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pageTitle(pdf *gofpdf.Fpdf, title string, sum domain.PopulationSummary) {
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 12)
	pdf.Text(pageMarginX, 15, title)
	pdf.SetFont("Arial", "", 8)
	pdf.Text(pageMarginX, 21, fmt.Sprintf("%d observations, flag threshold %g%%, generated %s",
		sum.Observations(), sum.Policy.FlagThreshold, sum.GeneratedAt.Format("2006-01-02 15:04 MST")))
}

func panelX(i int) float64 {
	return pageMarginX + float64(i)*(panelWidth+panelSpacing)
}

func histogramPage(pdf *gofpdf.Fpdf, sum domain.PopulationSummary) {
	pageTitle(pdf, "Flagged data fractions by station class", sum)

	for i, c := range domain.Classes() {
		means, medians := classSeries(sum, c)
		meanCounts := Histogram(means, HistogramBins, 0, 100)
		medianCounts := Histogram(medians, HistogramBins, 0, 100)

		ymax := 1.0
		for b := range meanCounts {
			ymax = math.Max(ymax, float64(max(meanCounts[b], medianCounts[b])))
		}

		ch := newChart(pdf, panelX(i), pageTop, panelWidth, panelHeight, [2]float64{0, 100}, [2]float64{0, niceCeil(ymax)})
		ch.frame(titleCase(c)+" stations flagged data fractions", "flagged %", "observations")
		ch.histogram(meanCounts, colorMean)
		ch.histogram(medianCounts, colorMedian)
		if i == len(domain.Classes())-1 {
			ch.legend([]string{"Mean", "Median"}, []rgb{colorMean, colorMedian})
		}
	}
}

func fractionPage(pdf *gofpdf.Fpdf, sum domain.PopulationSummary) {
	pageTitle(pdf, "Median flagged fraction vs fraction of stations above threshold", sum)

	for i, c := range domain.Classes() {
		var xs, ys []float64
		for _, v := range sum.Verdicts {
			s := v.Metrics.PerClass[c]
			med, ok1 := s.Median.Get()
			frac, ok2 := s.FractionAbove().Get()
			if ok1 && ok2 {
				xs = append(xs, med)
				ys = append(ys, frac)
			}
		}

		ch := newChart(pdf, panelX(i), pageTop, panelWidth, panelHeight, [2]float64{0, 100}, [2]float64{0, 1})
		ch.frame(titleCase(c)+" stations", "median flagged %", "fraction above threshold")
		ch.scatter(xs, ys, colorPoint)
		ch.vline(sum.Policy.FlagThreshold, colorRef)
	}
}

func passCountPage(pdf *gofpdf.Fpdf, sum domain.PopulationSummary) {
	pageTitle(pdf, "Median flagged fraction vs stations below threshold", sum)

	for i, c := range domain.Classes() {
		minPass := float64(sum.Policy.MinPass(c))
		ymax := minPass
		var xs, ys []float64
		for _, v := range sum.Verdicts {
			s := v.Metrics.PerClass[c]
			med, ok1 := s.Median.Get()
			below, ok2 := s.Below.Get()
			if ok1 && ok2 {
				xs = append(xs, med)
				ys = append(ys, float64(below))
				ymax = math.Max(ymax, float64(below))
			}
		}

		ch := newChart(pdf, panelX(i), pageTop, panelWidth, panelHeight, [2]float64{0, 100}, [2]float64{0, niceCeil(math.Max(ymax, 1) * 1.1)})
		ch.frame(titleCase(c)+" stations", "median flagged %", "stations below threshold")
		ch.scatter(xs, ys, colorPoint)
		ch.vline(sum.Policy.FlagThreshold, colorRef)
		ch.hline(minPass, colorRef)
	}
}

// classSeries collects the defined means and medians of class c.
func classSeries(sum domain.PopulationSummary, c domain.StationClass) (means, medians []float64) {
	for _, v := range sum.Verdicts {
		s := v.Metrics.PerClass[c]
		if m, ok := s.Mean.Get(); ok {
			means = append(means, m)
		}
		if m, ok := s.Median.Get(); ok {
			medians = append(medians, m)
		}
	}
	return means, medians
}

// Histogram counts values into bins equal-width bins over [lo, hi]. The last
// bin is closed so hi itself is counted; values outside the range and NaN are
// dropped.
func Histogram(values []float64, bins int, lo, hi float64) []int {
	counts := make([]int, bins)
	if bins <= 0 || hi <= lo {
		return counts
	}
	width := (hi - lo) / float64(bins)
	for _, v := range values {
		if math.IsNaN(v) || v < lo || v > hi {
			continue
		}
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}
	return counts
}

// niceCeil rounds v up to 1, 2 or 5 times a power of ten.
func niceCeil(v float64) float64 {
	if v <= 0 {
		return 1
	}
	exp := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 5, 10} {
		if m*exp >= v {
			return m * exp
		}
	}
	return 10 * exp
}

func titleCase(c domain.StationClass) string {
	s := c.String()
	if s == "international" {
		return "Intl"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// chart maps data coordinates onto a rectangle of the current page.
type chart struct {
	pdf        *gofpdf.Fpdf
	x, y, w, h float64
	xr, yr     [2]float64
}

func newChart(pdf *gofpdf.Fpdf, x, y, w, h float64, xr, yr [2]float64) chart {
	return chart{pdf: pdf, x: x, y: y, w: w, h: h, xr: xr, yr: yr}
}

func (c chart) px(v float64) float64 {
	return c.x + (v-c.xr[0])/(c.xr[1]-c.xr[0])*c.w
}

func (c chart) py(v float64) float64 {
	return c.y + c.h - (v-c.yr[0])/(c.yr[1]-c.yr[0])*c.h
}

func (c chart) frame(title, xlabel, ylabel string) {
	pdf := c.pdf
	setDraw(pdf, colorAxis)
	pdf.SetLineWidth(0.2)
	pdf.Rect(c.x, c.y, c.w, c.h, "D")

	pdf.SetFont("Arial", "B", 9)
	pdf.Text(c.x, c.y-3, title)
	pdf.SetFont("Arial", "", 7)

	const ticks = 5
	for i := 0; i <= ticks; i++ {
		xv := c.xr[0] + float64(i)*(c.xr[1]-c.xr[0])/ticks
		tx := c.px(xv)
		pdf.Line(tx, c.y+c.h, tx, c.y+c.h+1.5)
		lbl := formatTick(xv)
		pdf.Text(tx-pdf.GetStringWidth(lbl)/2, c.y+c.h+4.5, lbl)

		yv := c.yr[0] + float64(i)*(c.yr[1]-c.yr[0])/ticks
		ty := c.py(yv)
		pdf.Line(c.x-1.5, ty, c.x, ty)
		lbl = formatTick(yv)
		pdf.Text(c.x-2-pdf.GetStringWidth(lbl), ty+1, lbl)
	}

	pdf.Text(c.x+c.w/2-pdf.GetStringWidth(xlabel)/2, c.y+c.h+9, xlabel)

	lx, ly := c.x-9, c.y+c.h/2+pdf.GetStringWidth(ylabel)/2
	pdf.TransformBegin()
	pdf.TransformRotate(90, lx, ly)
	pdf.Text(lx, ly, ylabel)
	pdf.TransformEnd()
}

// histogram draws counts as outlined bars spanning the x range.
func (c chart) histogram(counts []int, col rgb) {
	if len(counts) == 0 {
		return
	}
	setDraw(c.pdf, col)
	c.pdf.SetLineWidth(0.3)
	width := (c.xr[1] - c.xr[0]) / float64(len(counts))
	for i, n := range counts {
		if n == 0 {
			continue
		}
		x0 := c.px(c.xr[0] + float64(i)*width)
		x1 := c.px(c.xr[0] + float64(i+1)*width)
		top := c.py(float64(n))
		c.pdf.Rect(x0, top, x1-x0, c.y+c.h-top, "D")
	}
}

func (c chart) scatter(xs, ys []float64, col rgb) {
	c.pdf.SetFillColor(col.r, col.g, col.b)
	for i := range xs {
		c.pdf.Circle(c.px(xs[i]), c.py(ys[i]), 0.6, "F")
	}
}

func (c chart) vline(x float64, col rgb) {
	if x < c.xr[0] || x > c.xr[1] {
		return
	}
	c.dashed(col, func() { c.pdf.Line(c.px(x), c.y, c.px(x), c.y+c.h) })
}

func (c chart) hline(y float64, col rgb) {
	if y < c.yr[0] || y > c.yr[1] {
		return
	}
	c.dashed(col, func() { c.pdf.Line(c.x, c.py(y), c.x+c.w, c.py(y)) })
}

func (c chart) dashed(col rgb, draw func()) {
	setDraw(c.pdf, col)
	c.pdf.SetLineWidth(0.3)
	c.pdf.SetDashPattern([]float64{1.5, 1}, 0)
	draw()
	c.pdf.SetDashPattern([]float64{}, 0)
}

func (c chart) legend(labels []string, cols []rgb) {
	x := c.x + c.w - 22
	y := c.y + 4
	for i, l := range labels {
		setDraw(c.pdf, cols[i])
		c.pdf.SetLineWidth(0.6)
		c.pdf.Line(x, y+float64(i)*4, x+5, y+float64(i)*4)
		c.pdf.Text(x+6, y+float64(i)*4+1, l)
	}
}

func setDraw(pdf *gofpdf.Fpdf, col rgb) {
	pdf.SetDrawColor(col.r, col.g, col.b)
}

func formatTick(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.1f", v)
}
