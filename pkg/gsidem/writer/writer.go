// Package writer serializes elevation grids as GeoTIFF rasters and PNG previews.
//
// The GeoTIFF encoder is pure Go. Building with -tags gdal adds WriteGDAL, which produces the same
// raster through the GDAL library.
package writer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/models"
)

// ErrNoGDAL is returned when GDAL output is requested from a binary built without the gdal tag.
var ErrNoGDAL = errors.New("gdal output requested but the binary was built without -tags gdal")

// gdalWriter is set by the gdal build.
var gdalWriter func(path string, g *models.ElevationGrid, opts Options) error

// GDALAvailable reports whether WriteFile can route GeoTIFF output through GDAL.
func GDALAvailable() bool {
	return gdalWriter != nil
}

// Format selects the raster encoding.
type Format int

const (
	// FormatGeoTIFF is a single-band Float32 GeoTIFF.
	FormatGeoTIFF Format = iota
	// FormatTerrainRGB is a 3-band uint8 Terrain-RGB GeoTIFF.
	FormatTerrainRGB
)

func (f Format) String() string {
	if f == FormatTerrainRGB {
		return "terrain-rgb"
	}
	return "geotiff"
}

// ParseFormat parses "geotiff" or "terrain-rgb".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "geotiff", "tif", "tiff":
		return FormatGeoTIFF, nil
	case "terrain-rgb", "terrainrgb", "rgb":
		return FormatTerrainRGB, nil
	}
	return FormatGeoTIFF, fmt.Errorf("unknown output format %q (expected geotiff or terrain-rgb)", s)
}

// Suffix returns the file name suffix used for f.
func (f Format) Suffix() string {
	if f == FormatTerrainRGB {
		return "_terrain_rgb.tif"
	}
	return ".tif"
}

// Options configures raster output.
type Options struct {
	// Compress enables Deflate compression of the image strip.
	Compress bool
	// MinElevation and MaxElevation clamp heights before Terrain-RGB encoding when set.
	MinElevation *float32
	MaxElevation *float32
	// UseGDAL routes Float32 GeoTIFF output through GDAL. See GDALAvailable.
	UseGDAL bool
	// Logger receives CRS fallback warnings. Nil discards them.
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) clamp(v float32) float32 {
	if o.MinElevation != nil && v < *o.MinElevation {
		return *o.MinElevation
	}
	if o.MaxElevation != nil && v > *o.MaxElevation {
		return *o.MaxElevation
	}
	return v
}

// Write encodes g in the given format.
func Write(w io.Writer, g *models.ElevationGrid, format Format, opts Options) error {
	kind, _, citation := ClassifyCRS(g.Metadata.CRS)
	switch kind {
	case CRSUnknown:
		opts.logger().Warn("writing raster without a coordinate reference system")
	case CRSCitation:
		opts.logger().Warn("CRS is not an EPSG code, writing it as a citation", zap.String("crs", citation))
	}
	if format == FormatTerrainRGB {
		return WriteTerrainRGB(w, g, opts)
	}
	return WriteGeoTIFF(w, g, opts)
}

// WriteFile creates path and encodes g into it.
func WriteFile(path string, g *models.ElevationGrid, format Format, opts Options) error {
	if opts.UseGDAL && format == FormatGeoTIFF {
		if gdalWriter == nil {
			return ErrNoGDAL
		}
		return gdalWriter(path, g, opts)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, g, format, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteReliefFile creates path and writes the PNG preview of g into it.
func WriteReliefFile(path string, g *models.ElevationGrid) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteReliefPNG(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
