package glassbrain

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/backmassage/brainbatch/internal/nifti"
)

// ErrRender marks failures inside the renderer.
var ErrRender = errors.New("render failed")

// RenderOptions controls one glass-brain image.
type RenderOptions struct {
	DisplayMode string  // One panel per letter: x, l, r (sagittal), y (coronal), z (axial).
	Colormap    string  // Key of Colormaps.
	VMin        float64 // Lower color limit.
	VMax        float64 // Upper color limit.
	Threshold   float64 // |v| <= Threshold is not colored.
	Title       string
	Colorbar    bool
	Scale       int // Pixels per voxel along the finest axis.
}

// Renderer draws a volume to w.
type Renderer interface {
	Render(w io.Writer, vol *nifti.Volume, opts RenderOptions) error
}

// PNGRenderer draws glass brains as PNG images.
type PNGRenderer struct{}

var (
	colorBackground = color.RGBA{255, 255, 255, 255}
	colorGlass      = color.RGBA{217, 217, 217, 255}
	colorText       = color.RGBA{0, 0, 0, 255}
)

const (
	margin       = 10
	panelGap     = 8
	titleHeight  = 22
	colorbarW    = 14
	colorbarText = 56
)

// Render implements Renderer.
func (PNGRenderer) Render(w io.Writer, vol *nifti.Volume, opts RenderOptions) error {
	img, err := Draw(vol, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("%w: encode png: %v", ErrRender, err)
	}
	return nil
}

// Draw renders the glass brain into an in-memory image.
func Draw(vol *nifti.Volume, opts RenderOptions) (*image.RGBA, error) {
	cmap, ok := Colormaps[opts.Colormap]
	if !ok {
		return nil, fmt.Errorf("%w: unknown colormap %q", ErrRender, opts.Colormap)
	}
	if vol == nil || len(vol.Data) == 0 {
		return nil, fmt.Errorf("%w: empty volume", ErrRender)
	}
	if opts.DisplayMode == "" {
		return nil, fmt.Errorf("%w: empty display mode", ErrRender)
	}
	scale := opts.Scale
	if scale < 1 {
		scale = 1
	}

	panels := make([]panel, 0, len(opts.DisplayMode))
	for _, r := range opts.DisplayMode {
		p, err := newPanel(vol, r, scale)
		if err != nil {
			return nil, err
		}
		panels = append(panels, p)
	}

	// Canvas layout: title band, a row of panels, optional colorbar.
	top := margin
	if opts.Title != "" {
		top += titleHeight
	}
	width, height := margin, 0
	for _, p := range panels {
		width += p.pw + panelGap
		height = max(height, p.ph)
	}
	barX := width
	width -= panelGap
	if opts.Colorbar {
		width = barX + colorbarW + colorbarText
	}
	width += margin
	if opts.Title != "" {
		width = max(width, 2*margin+font.MeasureString(basicfont.Face7x13, opts.Title).Ceil())
	}
	canvas := image.NewRGBA(image.Rect(0, 0, width, top+height+margin))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	if opts.Title != "" {
		drawText(canvas, margin, margin+basicfont.Face7x13.Ascent, opts.Title)
	}
	x := margin
	for _, p := range panels {
		p.draw(canvas, x, top+(height-p.ph)/2, cmap, opts)
		x += p.pw + panelGap
	}
	if opts.Colorbar {
		drawColorbar(canvas, barX, top, height, cmap, opts)
	}
	return canvas, nil
}

// panel is one projection: a w×h grid of signed max-|v| values plus a mask
// of cells whose ray crossed any non-zero voxel.
type panel struct {
	w, h   int
	val    []float64
	mask   []bool
	flipH  bool
	pw, ph int // Size on the canvas.
}

// newPanel projects vol for a display-mode letter. Axes are voxel axes:
// i left→right, j posterior→anterior, k inferior→superior.
func newPanel(vol *nifti.Volume, mode rune, scale int) (panel, error) {
	nx := vol.Dims[0]
	var axis, lo, hi int
	var flip bool
	switch mode {
	case 'x':
		axis, lo, hi = 0, 0, nx
	case 'l':
		axis, lo, hi, flip = 0, 0, (nx+1)/2, true
	case 'r':
		axis, lo, hi = 0, nx/2, nx
	case 'y':
		axis, lo, hi = 1, 0, vol.Dims[1]
	case 'z':
		axis, lo, hi = 2, 0, vol.Dims[2]
	default:
		return panel{}, fmt.Errorf("%w: unknown display mode %q", ErrRender, mode)
	}
	ua, va := otherAxes(axis)

	p := panel{w: vol.Dims[ua], h: vol.Dims[va], flipH: flip}
	p.val = make([]float64, p.w*p.h)
	p.mask = make([]bool, p.w*p.h)
	var c [3]int
	for c[2] = 0; c[2] < vol.Dims[2]; c[2]++ {
		for c[1] = 0; c[1] < vol.Dims[1]; c[1]++ {
			for c[0] = 0; c[0] < nx; c[0]++ {
				if c[axis] < lo || c[axis] >= hi {
					continue
				}
				v := vol.At(c[0], c[1], c[2])
				if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
					continue
				}
				cell := c[ua] + p.w*c[va]
				p.mask[cell] = true
				if math.Abs(v) > math.Abs(p.val[cell]) {
					p.val[cell] = v
				}
			}
		}
	}

	minSp := math.Min(vol.Spacing[0], math.Min(vol.Spacing[1], vol.Spacing[2]))
	if minSp <= 0 {
		minSp = 1
	}
	p.pw = max(1, int(math.Round(float64(p.w*scale)*spacing(vol, ua)/minSp)))
	p.ph = max(1, int(math.Round(float64(p.h*scale)*spacing(vol, va)/minSp)))
	return p, nil
}

func otherAxes(axis int) (u, v int) {
	switch axis {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	default:
		return 0, 1
	}
}

func spacing(vol *nifti.Volume, axis int) float64 {
	if s := vol.Spacing[axis]; s > 0 {
		return s
	}
	return 1
}

// draw paints the panel with its top-left corner at (x0, y0). Rows are
// flipped so the second axis points up.
func (p panel) draw(dst *image.RGBA, x0, y0 int, cmap Colormap, opts RenderOptions) {
	for py := 0; py < p.ph; py++ {
		v := p.h - 1 - py*p.h/p.ph
		for px := 0; px < p.pw; px++ {
			u := px * p.w / p.pw
			if p.flipH {
				u = p.w - 1 - u
			}
			cell := u + p.w*v
			switch {
			case math.Abs(p.val[cell]) > opts.Threshold:
				dst.SetRGBA(x0+px, y0+py, cmap(p.val[cell], opts.VMin, opts.VMax))
			case p.mask[cell]:
				dst.SetRGBA(x0+px, y0+py, colorGlass)
			}
		}
	}
}

func drawColorbar(dst *image.RGBA, x0, y0, h int, cmap Colormap, opts RenderOptions) {
	if h < 2 {
		return
	}
	for r := 0; r < h; r++ {
		v := opts.VMax - (opts.VMax-opts.VMin)*float64(r)/float64(h-1)
		c := cmap(v, opts.VMin, opts.VMax)
		if math.Abs(v) <= opts.Threshold {
			c = colorGlass
		}
		for dx := 0; dx < colorbarW; dx++ {
			dst.SetRGBA(x0+dx, y0+r, c)
		}
	}
	tx := x0 + colorbarW + 4
	asc := basicfont.Face7x13.Ascent
	drawText(dst, tx, y0+asc, formatLimit(opts.VMax))
	drawText(dst, tx, y0+h/2+asc/2, formatLimit((opts.VMax+opts.VMin)/2))
	drawText(dst, tx, y0+h-1, formatLimit(opts.VMin))
}

func formatLimit(v float64) string {
	s := fmt.Sprintf("%.3g", v)
	if s == "-0" {
		s = "0"
	}
	return strings.Replace(s, "e+0", "e", 1)
}

// drawText draws s with its baseline at y.
func drawText(dst draw.Image, x, y int, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(colorText),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
