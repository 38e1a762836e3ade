// Package gsidem converts GSI DEM XML documents, zip archives and directories into rasters.
package gsidem

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/output"
	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/parser"
	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/writer"
)

// Options configures a batch conversion.
type Options struct {
	// OutputDir receives every file the batch writes. It is created if missing.
	OutputDir string
	// Workers bounds the number of documents processed at once. Zero means GOMAXPROCS.
	Workers int
	// Format selects Float32 GeoTIFF or Terrain-RGB output.
	Format writer.Format
	// Compress enables Deflate compression of raster strips.
	Compress bool
	// Merge mosaics all parsed tiles into one raster named after the input.
	Merge bool
	// WriteTiles writes one raster per document.
	// If nil, defaults to true unless Merge is set.
	WriteTiles *bool
	// Sidecar selects the metadata file written next to each raster.
	Sidecar output.SidecarFormat
	// Preview writes a color-relief PNG next to each raster.
	Preview bool
	// ReportPath, when set, receives an XLSX report of the batch.
	ReportPath string
	// Dialect and CornerAxisOrder are passed to the parser.
	Dialect         parser.Dialect
	CornerAxisOrder parser.AxisOrder
	// MinElevation and MaxElevation clamp Terrain-RGB encoding.
	MinElevation *float32
	MaxElevation *float32
	// UseGDAL routes GeoTIFF output through GDAL (requires -tags gdal).
	UseGDAL bool
	// Logger receives progress and soft-degradation messages. Nil discards them.
	Logger *zap.Logger
}

// DefaultOptions returns default conversion options.
func DefaultOptions() Options {
	return Options{
		OutputDir: "output",
		Format:    writer.FormatGeoTIFF,
		Sidecar:   output.SidecarNone,
	}
}

// ShouldWriteTiles returns whether per-document rasters are written.
func (o Options) ShouldWriteTiles() bool {
	if o.WriteTiles != nil {
		return *o.WriteTiles
	}
	return !o.Merge
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) parserOptions(log *zap.Logger) parser.Options {
	return parser.Options{
		Dialect:         o.Dialect,
		CornerAxisOrder: o.CornerAxisOrder,
		Logger:          log,
	}
}

func (o Options) writerOptions(log *zap.Logger) writer.Options {
	return writer.Options{
		Compress:     o.Compress,
		MinElevation: o.MinElevation,
		MaxElevation: o.MaxElevation,
		UseGDAL:      o.UseGDAL,
		Logger:       log,
	}
}
