package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"time"

	"chartcraft/domain/grid"
	"chartcraft/domain/visual"
	"chartcraft/internal/errors"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	xdraw "golang.org/x/image/draw"
)

// Upload limits for canvas images. Images with a side over MaxRasterSide
// are scaled down; images over MaxRasterPixels are refused before decoding.
const (
	MaxRasterSide   = 4096
	MaxRasterPixels = MaxRasterSide * MaxRasterSide
	MaxUploadBytes  = 8 << 20
)

// RasterFilename is the download name of a chart image taken at now.
func RasterFilename(now time.Time) string {
	return fmt.Sprintf("chart-%d.png", now.UnixMilli())
}

// Rasterizer draws 2D charts to PNG on the server, for downloads and the
// CLI.
type Rasterizer struct {
	Width  int
	Height int
}

// NewRasterizer creates a rasterizer producing width x height images
func NewRasterizer(width, height int) *Rasterizer {
	return &Rasterizer{Width: width, Height: height}
}

// RenderPNG draws the dataset as kind and writes a white-backed PNG to w.
// go-chart has no grouped bars or polar axes: multi-series bars are
// stacked, radar draws as lines and polarArea as a pie.
func (r *Rasterizer) RenderPNG(w io.Writer, kind visual.Kind, ds grid.Dataset) error {
	if len(ds.Labels) == 0 || len(ds.Series) == 0 {
		return errors.InvalidInput("chart has no labelled data to draw")
	}
	if allZero(ds) {
		return errors.InvalidInput("chart has only zero values")
	}

	title := ChartTitleText(kind.Slug)
	var buf bytes.Buffer
	var err error
	switch kind.Slug {
	case "pie", "polarArea":
		err = r.pieChart(title, ds).Render(chart.PNG, &buf)
	case "doughnut":
		err = r.donutChart(title, ds).Render(chart.PNG, &buf)
	case "line", "radar":
		ch := r.lineChart(title, ds)
		err = ch.Render(chart.PNG, &buf)
	default:
		if len(ds.Series) == 1 {
			err = r.barChart(title, ds).Render(chart.PNG, &buf)
		} else {
			err = r.stackedBarChart(title, ds).Render(chart.PNG, &buf)
		}
	}
	if err != nil {
		return errors.RenderFailed("chart raster failed", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		return errors.Wrap(err, "failed to decode chart raster")
	}
	return EncodePNG(w, FlattenOnWhite(img))
}

func (r *Rasterizer) pieChart(title string, ds grid.Dataset) chart.PieChart {
	return chart.PieChart{
		Title:  title,
		Width:  r.Width,
		Height: r.Height,
		Values: sliceValues(ds),
	}
}

func (r *Rasterizer) donutChart(title string, ds grid.Dataset) chart.DonutChart {
	return chart.DonutChart{
		Title:  title,
		Width:  r.Width,
		Height: r.Height,
		Values: sliceValues(ds),
	}
}

// sliceValues takes the first series, one palette colour per slice.
// Negative slices cannot be drawn and are dropped.
func sliceValues(ds grid.Dataset) []chart.Value {
	values := make([]chart.Value, 0, len(ds.Labels))
	for j, v := range ds.Series[0].Values {
		if v <= 0 {
			continue
		}
		c := visual.PaletteColor(j)
		values = append(values, chart.Value{
			Label: ds.Labels[j],
			Value: v,
			Style: chart.Style{FillColor: paletteFill(c), StrokeColor: paletteStroke(c)},
		})
	}
	return values
}

func (r *Rasterizer) barChart(title string, ds grid.Dataset) chart.BarChart {
	lo, hi := valueRange(ds)
	bars := make([]chart.Value, len(ds.Labels))
	for j, label := range ds.Labels {
		c := visual.PaletteColor(0)
		if len(ds.Series) == 1 && ds.Series[0].Name == "" {
			c = visual.PaletteColor(j)
		}
		bars[j] = chart.Value{
			Label: label,
			Value: ds.Series[0].Values[j],
			Style: chart.Style{FillColor: paletteFill(c), StrokeColor: paletteStroke(c), StrokeWidth: 1},
		}
	}
	return chart.BarChart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		BarWidth:   barWidth(r.Width, len(bars)),
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Bars:       bars,
	}
}

// stackedBarChart stacks the series of each label into one bar. Negative
// values cannot be stacked and count as zero.
func (r *Rasterizer) stackedBarChart(title string, ds grid.Dataset) chart.StackedBarChart {
	bars := make([]chart.StackedBar, len(ds.Labels))
	for j, label := range ds.Labels {
		values := make([]chart.Value, len(ds.Series))
		for i, s := range ds.Series {
			c := visual.PaletteColor(i)
			values[i] = chart.Value{
				Label: s.Name,
				Value: math.Max(0, s.Values[j]),
				Style: chart.Style{FillColor: paletteFill(c), StrokeColor: paletteStroke(c), StrokeWidth: 1},
			}
		}
		bars[j] = chart.StackedBar{Name: label, Values: values}
	}
	return chart.StackedBarChart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		BarSpacing: 20,
		Bars:       bars,
	}
}

func (r *Rasterizer) lineChart(title string, ds grid.Dataset) *chart.Chart {
	xs := make([]float64, len(ds.Labels))
	ticks := make([]chart.Tick, len(ds.Labels))
	for j, label := range ds.Labels {
		xs[j] = float64(j)
		ticks[j] = chart.Tick{Value: float64(j), Label: label}
	}
	lo, hi := valueRange(ds)

	series := make([]chart.Series, 0, len(ds.Series))
	for i, s := range ds.Series {
		c := visual.PaletteColor(i)
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("Series %d", i+1)
		}
		sx, sy := xs, s.Values
		// go-chart needs two x values to build a range
		if len(sx) == 1 {
			sx = []float64{0, 1}
			sy = []float64{s.Values[0], s.Values[0]}
		}
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: sx,
			YValues: sy,
			Style: chart.Style{
				StrokeColor: paletteStroke(c),
				StrokeWidth: 2,
				DotColor:    paletteStroke(c),
				DotWidth:    3,
			},
		})
	}

	ch := &chart.Chart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 12}},
		XAxis:      chart.XAxis{Ticks: ticks, Range: &chart.ContinuousRange{Min: 0, Max: math.Max(1, float64(len(xs)-1))}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(ch)}
	return ch
}

// valueRange spans every value and always includes zero, matching
// beginAtZero in the browser charts.
func valueRange(ds grid.Dataset) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, s := range ds.Series {
		for _, v := range s.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

func allZero(ds grid.Dataset) bool {
	for _, s := range ds.Series {
		for _, v := range s.Values {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

func barWidth(width, bars int) int {
	if bars == 0 {
		return 40
	}
	w := width / (2 * bars)
	if w > 80 {
		w = 80
	}
	if w < 8 {
		w = 8
	}
	return w
}

func paletteStroke(c visual.Color) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: 255}
}

func paletteFill(c visual.Color) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: 128}
}

// FlattenOnWhite composites img over an opaque white backdrop, so no pixel
// of the result is transparent. Images larger than MaxRasterSide are
// scaled down first.
func FlattenOnWhite(img image.Image) *image.RGBA {
	src := img
	b := img.Bounds()
	if b.Dx() > MaxRasterSide || b.Dy() > MaxRasterSide {
		scale := math.Min(float64(MaxRasterSide)/float64(b.Dx()), float64(MaxRasterSide)/float64(b.Dy()))
		w := int(math.Max(1, math.Round(float64(b.Dx())*scale)))
		h := int(math.Max(1, math.Round(float64(b.Dy())*scale)))
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, xdraw.Src, nil)
		src = scaled
		b = scaled.Bounds()
	}

	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Over)
	return dst
}

// FlattenPNG decodes a PNG (typically a browser canvas export), flattens it
// onto white and writes it back out. The header is checked against
// MaxRasterPixels before the pixels are decoded.
func FlattenPNG(w io.Writer, r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to read upload"))
	}
	if len(data) > MaxUploadBytes {
		return errors.InvalidInput(fmt.Sprintf("upload exceeds %d bytes", MaxUploadBytes))
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "upload is not a PNG image"))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxRasterPixels {
		return errors.InvalidInput(fmt.Sprintf("image is %dx%d, limit is %d pixels", cfg.Width, cfg.Height, MaxRasterPixels))
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "upload is not a PNG image"))
	}
	return EncodePNG(w, FlattenOnWhite(img))
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return errors.Wrap(err, "failed to encode PNG")
	}
	return nil
}
