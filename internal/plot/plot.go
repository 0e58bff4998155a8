// Package plot renders waveform traces as watercolor-style PNG images.
package plot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/MeKo-Tech/reefcraft/internal/trace"
	"github.com/aquilax/go-perlin"
	"github.com/disintegration/gift"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
	"golang.org/x/image/vector"
)

// Options controls the rendered image.
type Options struct {
	Width       int
	Height      int
	Margin      int
	StrokeWidth float64
	// Blur is the Gaussian sigma applied to the wash under the curve. 0 disables it.
	Blur float32
	// Paper enables the Perlin-grained paper background; otherwise it is flat.
	Paper bool
	// Seed drives the paper grain only, never the waveform.
	Seed int64
	// Tolerance is the Douglas-Peucker threshold in pixels applied to the
	// projected curve before drawing. 0 draws every sample.
	Tolerance float64

	Background color.NRGBA
	Stroke     color.NRGBA
	Wash       color.NRGBA
	Axis       color.NRGBA
}

// DefaultOptions returns a 1024x256 plot on grained paper.
func DefaultOptions() Options {
	return Options{
		Width:       1024,
		Height:      256,
		Margin:      12,
		StrokeWidth: 2,
		Blur:        3,
		Paper:       true,
		Seed:        1337,
		Tolerance:   0.25,
		Background:  color.NRGBA{R: 244, G: 240, B: 232, A: 255},
		Stroke:      color.NRGBA{R: 34, G: 66, B: 112, A: 255},
		Wash:        color.NRGBA{R: 105, G: 160, B: 210, A: 110},
		Axis:        color.NRGBA{R: 190, G: 186, B: 178, A: 255},
	}
}

// Render draws samples left to right over their time span, with values in
// [-1, 1] mapped to the plot height.
func Render(samples []trace.Sample, opts Options) (*image.NRGBA, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("image size must be positive, got %dx%d", opts.Width, opts.Height)
	}
	if opts.Margin < 0 || 2*opts.Margin >= opts.Width || 2*opts.Margin >= opts.Height {
		return nil, fmt.Errorf("margin %d does not fit a %dx%d image", opts.Margin, opts.Width, opts.Height)
	}
	if len(samples) < 2 {
		return nil, errors.New("need at least two samples to plot")
	}
	if opts.StrokeWidth <= 0 {
		opts.StrokeWidth = 1
	}
	if opts.Tolerance < 0 {
		return nil, fmt.Errorf("tolerance must not be negative, got %v", opts.Tolerance)
	}

	m := newMapper(samples, opts)
	path := simplifyPath(m.project(samples), opts.Tolerance)
	b := image.Rect(0, 0, opts.Width, opts.Height)

	dst := image.NewNRGBA(b)
	if opts.Paper {
		paintPaper(dst, opts.Background, opts.Seed)
	} else {
		draw.Draw(dst, b, image.NewUniform(opts.Background), image.Point{}, draw.Src)
	}

	baseline := int(math.Round(m.y(0)))
	draw.Draw(dst, image.Rect(opts.Margin, baseline, opts.Width-opts.Margin, baseline+1),
		image.NewUniform(opts.Axis), image.Point{}, draw.Over)

	wash := renderWash(path, m.y(0), b, opts.Wash)
	if opts.Blur > 0 {
		g := gift.New(gift.GaussianBlur(opts.Blur))
		blurred := image.NewNRGBA(g.Bounds(wash.Bounds()))
		g.Draw(blurred, wash)
		wash = blurred
	}
	draw.Draw(dst, b, wash, image.Point{}, draw.Over)

	strokePolyline(dst, path, opts.StrokeWidth, opts.Stroke)
	return dst, nil
}

// mapper converts trace coordinates to pixel coordinates.
type mapper struct {
	t0, t1 float64
	left   float64
	width  float64
	mid    float64
	half   float64
}

func newMapper(samples []trace.Sample, opts Options) mapper {
	t0, t1 := float64(samples[0].T), float64(samples[0].T)
	for _, s := range samples[1:] {
		t0 = math.Min(t0, float64(s.T))
		t1 = math.Max(t1, float64(s.T))
	}
	if t1 == t0 {
		t1 = t0 + 1
	}
	return mapper{
		t0:    t0,
		t1:    t1,
		left:  float64(opts.Margin),
		width: float64(opts.Width - 2*opts.Margin),
		mid:   float64(opts.Height) / 2,
		half:  float64(opts.Height)/2 - float64(opts.Margin),
	}
}

func (m mapper) x(t float32) float64 {
	return m.left + (float64(t)-m.t0)/(m.t1-m.t0)*m.width
}

func (m mapper) y(v float32) float64 {
	f := float64(v)
	if math.IsNaN(f) {
		f = 0
	}
	f = math.Max(-1, math.Min(1, f))
	return m.mid - f*m.half
}

// project maps samples to a pixel-space line string.
func (m mapper) project(samples []trace.Sample) orb.LineString {
	ls := make(orb.LineString, len(samples))
	for i, s := range samples {
		ls[i] = orb.Point{m.x(s.T), m.y(s.V)}
	}
	return ls
}

// simplifyPath drops points that deviate less than tol pixels from the
// simplified curve. Dense traces collapse to roughly one point per pixel column.
func simplifyPath(ls orb.LineString, tol float64) orb.LineString {
	if tol <= 0 || len(ls) < 3 {
		return ls
	}
	if out, ok := simplify.DouglasPeucker(tol).Simplify(ls).(orb.LineString); ok && len(out) >= 2 {
		return out
	}
	return ls
}

// renderWash fills the area between the curve and the baseline at y = base.
func renderWash(path orb.LineString, base float64, b image.Rectangle, c color.NRGBA) *image.NRGBA {
	layer := image.NewNRGBA(b)
	ras := vector.NewRasterizer(b.Dx(), b.Dy())

	ras.MoveTo(float32(path[0].X()), float32(base))
	for _, p := range path {
		ras.LineTo(float32(p.X()), float32(p.Y()))
	}
	ras.LineTo(float32(path[len(path)-1].X()), float32(base))
	ras.ClosePath()

	ras.Draw(layer, b, image.NewUniform(c), image.Point{})
	return layer
}

// strokePolyline draws the path as one quad per segment.
func strokePolyline(dst *image.NRGBA, path orb.LineString, width float64, c color.NRGBA) {
	b := dst.Bounds()
	ras := vector.NewRasterizer(b.Dx(), b.Dy())
	r := width / 2

	for i := 0; i < len(path)-1; i++ {
		x0, y0 := path[i].X(), path[i].Y()
		x1, y1 := path[i+1].X(), path[i+1].Y()

		dx, dy := x1-x0, y1-y0
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		// Extend each segment by r along its direction so joints overlap.
		ux, uy := dx/l*r, dy/l*r
		nx, ny := -uy, ux

		ras.MoveTo(float32(x0-ux+nx), float32(y0-uy+ny))
		ras.LineTo(float32(x1+ux+nx), float32(y1+uy+ny))
		ras.LineTo(float32(x1+ux-nx), float32(y1+uy-ny))
		ras.LineTo(float32(x0-ux-nx), float32(y0-uy-ny))
		ras.ClosePath()
	}

	ras.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// paintPaper fills dst with base tinted by low-frequency Perlin grain.
func paintPaper(dst *image.NRGBA, base color.NRGBA, seed int64) {
	p := perlin.NewPerlin(2.0, 2.0, 3, seed)
	b := dst.Bounds()
	const scale = 48.0
	const strength = 14.0

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			n := p.Noise2D(float64(x)/scale, float64(y)/scale)
			d := n * strength
			dst.SetNRGBA(x, y, color.NRGBA{
				R: shade(base.R, d),
				G: shade(base.G, d),
				B: shade(base.B, d),
				A: 255,
			})
		}
	}
}

func shade(c uint8, d float64) uint8 {
	return uint8(math.Max(0, math.Min(255, float64(c)+d)))
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// WriteFile encodes img as PNG at path.
func WriteFile(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := WritePNG(file, img); err != nil {
		return err
	}
	return file.Close()
}
