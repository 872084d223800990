package glassbrain

import (
	"image/color"
	"math"
)

// Colormap maps a value in [vmin, vmax] to a color.
type Colormap func(v, vmin, vmax float64) color.RGBA

// Colormaps lists the supported colormaps by name.
var Colormaps = map[string]Colormap{
	"bwr": BWR,
}

// BWR is the blue-white-red diverging colormap: vmin is pure blue, the
// midpoint white, vmax pure red. With symmetric limits zero lands on white.
func BWR(v, vmin, vmax float64) color.RGBA {
	t := 0.5
	if vmax > vmin {
		t = (v - vmin) / (vmax - vmin)
	}
	t = math.Max(0, math.Min(1, t))
	if t < 0.5 {
		c := uint8(math.Round(510 * t))
		return color.RGBA{R: c, G: c, B: 255, A: 255}
	}
	c := uint8(math.Round(510 * (1 - t)))
	return color.RGBA{R: 255, G: c, B: c, A: 255}
}
