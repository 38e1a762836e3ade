package writer

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/models"
)

// reliefStops is a hypsometric ramp from lowland green through brown to snow, in HCL.
var reliefStops = []colorful.Color{
	colorful.Hcl(140, 0.45, 0.55).Clamped(),
	colorful.Hcl(100, 0.45, 0.75).Clamped(),
	colorful.Hcl(70, 0.40, 0.70).Clamped(),
	colorful.Hcl(50, 0.30, 0.50).Clamped(),
	colorful.Hcl(0, 0, 0.97).Clamped(),
}

// reliefColor maps t in [0, 1] onto the ramp.
func reliefColor(t float64) color.NRGBA {
	if t <= 0 {
		t = 0
	}
	if t >= 1 {
		t = 1
	}
	span := float64(len(reliefStops) - 1)
	i := int(t * span)
	if i >= len(reliefStops)-1 {
		i = len(reliefStops) - 2
	}
	c := reliefStops[i].BlendHcl(reliefStops[i+1], t*span-float64(i)).Clamped()
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// ReliefImage renders a color-relief preview scaled to the grid's own elevation range.
// No-data cells are transparent.
func ReliefImage(g *models.ElevationGrid) *image.NRGBA {
	m := g.Metadata
	img := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	lo, hi, ok := g.Range()
	if !ok {
		return img
	}
	scale := float64(hi - lo)
	for row := 0; row < m.Height; row++ {
		for col := 0; col < m.Width; col++ {
			v := g.At(col, row)
			if m.IsNoData(v) {
				continue
			}
			t := 0.0
			if scale > 0 {
				t = float64(v-lo) / scale
			}
			img.SetNRGBA(col, row, reliefColor(t))
		}
	}
	return img
}

// WriteReliefPNG encodes ReliefImage(g) as PNG.
func WriteReliefPNG(w io.Writer, g *models.ElevationGrid) error {
	if err := checkGrid(g); err != nil {
		return err
	}
	return png.Encode(w, ReliefImage(g))
}
