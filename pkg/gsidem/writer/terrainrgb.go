package writer

import (
	"io"
	"math"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/models"
)

// Terrain-RGB encoding: height = -10000 + (R*65536 + G*256 + B) * 0.1.
const (
	terrainBase     = -10000.0
	terrainInterval = 0.1
	terrainMaxCode  = 1<<24 - 1
)

// ElevationToRGB encodes a height in metres. Heights outside the encodable range are clamped.
func ElevationToRGB(h float32) (r, g, b uint8) {
	code := math.Round((float64(h) - terrainBase) / terrainInterval)
	switch {
	case math.IsNaN(code) || code < 0:
		code = 0
	case code > terrainMaxCode:
		code = terrainMaxCode
	}
	c := uint32(code)
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// RGBToElevation decodes a Terrain-RGB pixel.
func RGBToElevation(r, g, b uint8) float32 {
	code := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	return float32(terrainBase + float64(code)*terrainInterval)
}

// WriteTerrainRGB encodes g as a 3-band uint8 Terrain-RGB GeoTIFF. No-data cells become (0, 0, 0).
func WriteTerrainRGB(w io.Writer, g *models.ElevationGrid, opts Options) error {
	if err := checkGrid(g); err != nil {
		return err
	}
	pixels := make([]byte, 3*len(g.Values))
	for i, v := range g.Values {
		if g.Metadata.IsNoData(v) {
			continue
		}
		pixels[3*i], pixels[3*i+1], pixels[3*i+2] = ElevationToRGB(opts.clamp(v))
	}
	r := raster{
		width:       g.Metadata.Width,
		height:      g.Metadata.Height,
		samples:     3,
		bits:        8,
		format:      sampleFormatUint,
		photometric: photometricRGB,
		pixels:      pixels,
	}
	return encodeTIFF(w, r, g.Metadata, false, opts)
}
