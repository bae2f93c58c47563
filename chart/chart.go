// SPDX-License-Identifier: MIT

// Package chart draws convergence charts of a poweriter.Result with
// gonum.org/v1/plot: the residual trajectory on a log scale and the
// eigenvalue approximations on a linear one.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/katalvlaran/powiter/poweriter"
)

var (
	// ErrEmptyTrajectory is returned when no iteration was accepted.
	ErrEmptyTrajectory = errors.New("chart: empty trajectory")
	// ErrUnknownSeries is returned by ParseSeries for an unsupported name.
	ErrUnknownSeries = errors.New("chart: unknown series")
	// ErrUnknownFormat is returned for an image format plot cannot write.
	ErrUnknownFormat = errors.New("chart: unknown image format")
)

// Series selects the trajectory column to draw.
type Series string

const (
	SeriesResidual   Series = "residual"
	SeriesEigenvalue Series = "eigenvalue"
)

// ParseSeries maps "residual" and "eigenvalue" to a Series.
func ParseSeries(s string) (Series, error) {
	switch Series(s) {
	case SeriesResidual, SeriesEigenvalue:
		return Series(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSeries, s)
	}
}

// Defaults.
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
	DefaultFormat = "png"
)

// formats lists the encodings plot.WriterTo understands.
var formats = []string{"eps", "jpg", "jpeg", "pdf", "png", "svg", "tex", "tif", "tiff"}

// FormatFromPath returns the image format implied by the file extension of
// path, or DefaultFormat when there is none.
func FormatFromPath(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 || i == len(path)-1 || strings.ContainsRune(path[i:], '/') {
		return DefaultFormat
	}

	return strings.ToLower(path[i+1:])
}

// Options controls the rendering. Zero fields take the defaults.
type Options struct {
	Title  string
	Width  vg.Length
	Height vg.Length
	Format string
	// Tolerance, when positive, is drawn as a dashed line on residual charts.
	Tolerance float64
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	o.Format = strings.ToLower(o.Format)

	return o
}

// Write renders series s of res into w.
func Write(w io.Writer, res *poweriter.Result, s Series, opts Options) error {
	opts = opts.withDefaults()
	if !validFormat(opts.Format) {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
	if res == nil || len(res.Trajectory) == 0 {
		return ErrEmptyTrajectory
	}

	var (
		p   *plot.Plot
		err error
	)
	switch s {
	case SeriesResidual:
		p, err = residualPlot(res, opts)
	case SeriesEigenvalue:
		p, err = eigenvaluePlot(res, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSeries, s)
	}
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(opts.Width, opts.Height, opts.Format)
	if err != nil {
		return fmt.Errorf("chart: render: %w", err)
	}
	if _, err = wt.WriteTo(w); err != nil {
		return fmt.Errorf("chart: write: %w", err)
	}

	return nil
}

func validFormat(f string) bool {
	for _, known := range formats {
		if f == known {
			return true
		}
	}

	return false
}

// residualPlot draws |A·q − λ·q| per iteration on a log axis. Exact zeros
// cannot be placed on it; they are drawn at one decade below the smallest
// positive residual.
func residualPlot(res *poweriter.Result, opts Options) (*plot.Plot, error) {
	vals := res.Residuals()
	floor := logFloor(vals)

	pts := make(plotter.XYs, len(vals))
	for i, v := range vals {
		pts[i].X = float64(i + 1)
		pts[i].Y = math.Max(v, floor)
	}

	p := newPlot(opts.Title, "residual")
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("chart: residual series: %w", err)
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	points.Color = line.Color
	p.Add(plotter.NewGrid(), line, points)
	p.Legend.Add("residual", line)

	if opts.Tolerance > 0 {
		tol := plotter.XYs{{X: 1, Y: opts.Tolerance}, {X: float64(max(len(vals), 2)), Y: opts.Tolerance}}
		tl, err := plotter.NewLine(tol)
		if err != nil {
			return nil, fmt.Errorf("chart: tolerance line: %w", err)
		}
		tl.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		tl.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
		p.Add(tl)
		p.Legend.Add("tolerance", tl)
	}

	return p, nil
}

// eigenvaluePlot draws the successive Rayleigh estimates.
func eigenvaluePlot(res *poweriter.Result, opts Options) (*plot.Plot, error) {
	vals := res.Eigenvalues()
	pts := make(plotter.XYs, len(vals))
	for i, v := range vals {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
	}

	p := newPlot(opts.Title, "eigenvalue estimate")
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("chart: eigenvalue series: %w", err)
	}
	line.Color = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	points.Color = line.Color
	p.Add(plotter.NewGrid(), line, points)
	p.Legend.Add("eigenvalue", line)

	return p, nil
}

func newPlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = ylabel
	p.Legend.Top = true

	return p
}

// logFloor returns a positive value below every positive entry of vals.
func logFloor(vals []float64) float64 {
	lowest := math.Inf(1)
	for _, v := range vals {
		if v > 0 && v < lowest {
			lowest = v
		}
	}
	if math.IsInf(lowest, 1) {
		return 1e-16
	}

	return lowest / 10
}
