// Package models defines the data structures produced by DEM extraction.
package models

import "math"

// GridMetadata describes the geometry of a rectified elevation grid.
// Values are immutable once returned by the parser.
type GridMetadata struct {
	// Width is the number of grid columns.
	Width int `json:"width" msgpack:"width"`
	// Height is the number of grid rows.
	Height int `json:"height" msgpack:"height"`
	// XMin is the X (longitude/easting) of the outer edge of the top-left cell.
	XMin float64 `json:"x_min" msgpack:"x_min"`
	// YMax is the Y (latitude/northing) of the outer edge of the top-left cell.
	YMax float64 `json:"y_max" msgpack:"y_max"`
	// CellSizeX is the cell width. Always positive.
	CellSizeX float64 `json:"cell_size_x" msgpack:"cell_size_x"`
	// CellSizeY is the cell height. Always positive; row 0 is the northern edge.
	CellSizeY float64 `json:"cell_size_y" msgpack:"cell_size_y"`
	// NoDataValue is the sentinel marking void samples (nil if the document declares none).
	NoDataValue *float64 `json:"no_data_value,omitempty" msgpack:"no_data_value,omitempty"`
	// CRS is "EPSG:<code>" when an EPSG URN was found, otherwise a free-form citation (nil if unknown).
	CRS *string `json:"crs,omitempty" msgpack:"crs,omitempty"`
	// MeshCode is the tile identifier (nil if absent).
	MeshCode *string `json:"mesh_code,omitempty" msgpack:"mesh_code,omitempty"`
	// DemType is the free-text DEM type label of FG-GML documents (e.g. "5mメッシュ（標高）").
	DemType *string `json:"dem_type,omitempty" msgpack:"dem_type,omitempty"`
}

// Cells returns Width * Height.
func (m GridMetadata) Cells() int {
	return m.Width * m.Height
}

// XMax returns the eastern edge of the grid.
func (m GridMetadata) XMax() float64 {
	return m.XMin + float64(m.Width)*m.CellSizeX
}

// YMin returns the southern edge of the grid.
func (m GridMetadata) YMin() float64 {
	return m.YMax - float64(m.Height)*m.CellSizeY
}

// GeoTransform returns the affine grid-to-world transform in GDAL order.
// The Y pixel size is negative so that row 0 is at the top.
func (m GridMetadata) GeoTransform() [6]float64 {
	return [6]float64{m.XMin, m.CellSizeX, 0, m.YMax, 0, -m.CellSizeY}
}

// IsNoData reports whether v equals the no-data sentinel.
func (m GridMetadata) IsNoData(v float32) bool {
	if m.NoDataValue == nil {
		return false
	}
	return float64(v) == *m.NoDataValue || (math.IsNaN(*m.NoDataValue) && math.IsNaN(float64(v)))
}

// Name returns a stable base name for output files: the mesh code when known, otherwise fallback.
func (m GridMetadata) Name(fallback string) string {
	if m.MeshCode != nil && *m.MeshCode != "" {
		return *m.MeshCode
	}
	return fallback
}

// ElevationGrid owns a GridMetadata and the row-major samples it describes.
type ElevationGrid struct {
	Metadata GridMetadata `json:"metadata" msgpack:"metadata"`
	// Values holds Width*Height samples, row 0 first, west to east within a row.
	Values []float32 `json:"values" msgpack:"values"`
}

// At returns the sample at column c and row r.
// It will panic if c or r are out of bounds for the grid.
func (g *ElevationGrid) At(c, r int) float32 {
	return g.Values[r*g.Metadata.Width+c]
}

// Range returns the minimum and maximum sample ignoring no-data cells.
// ok is false when every cell is no-data.
func (g *ElevationGrid) Range() (lo, hi float32, ok bool) {
	lo, hi = float32(math.Inf(1)), float32(math.Inf(-1))
	for _, v := range g.Values {
		if g.Metadata.IsNoData(v) {
			continue
		}
		ok = true
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, ok
}
