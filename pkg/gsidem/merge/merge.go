// Package merge mosaics adjacent elevation tiles into one grid.
package merge

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/models"
)

// DefaultNoData fills cells no tile covers when the tiles declare no sentinel of their own.
const DefaultNoData = -9999.0

const (
	// cellTolerance is the relative cell size difference still treated as equal.
	cellTolerance = 1e-6
	// alignTolerance is the fraction of a cell a tile origin may sit off the mosaic lattice.
	alignTolerance = 1e-3
	// maxCells bounds the mosaic allocation.
	maxCells = 1 << 31
)

var (
	// ErrNoTiles is returned when Tiles is called without input.
	ErrNoTiles = errors.New("no tiles to merge")
	// ErrIncompatible is returned when tiles differ in cell size or CRS, or do not share a lattice.
	ErrIncompatible = errors.New("tiles cannot be merged")
)

// Tiles mosaics grids into one grid covering their union extent. All grids must share cell size and
// CRS. Uncovered cells hold the no-data sentinel; where tiles overlap the first valid sample wins.
func Tiles(grids []*models.ElevationGrid, log *zap.Logger) (*models.ElevationGrid, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(grids) == 0 {
		return nil, ErrNoTiles
	}

	first := grids[0].Metadata
	cx, cy := first.CellSizeX, first.CellSizeY
	xMin, yMax := first.XMin, first.YMax
	xMax, yMin := first.XMax(), first.YMin()
	for i, g := range grids[1:] {
		m := g.Metadata
		if !closeTo(m.CellSizeX, cx) || !closeTo(m.CellSizeY, cy) {
			return nil, fmt.Errorf("%w: tile %d has cell size %g x %g, expected %g x %g",
				ErrIncompatible, i+1, m.CellSizeX, m.CellSizeY, cx, cy)
		}
		if !sameString(m.CRS, first.CRS) {
			return nil, fmt.Errorf("%w: tile %d has CRS %s, expected %s",
				ErrIncompatible, i+1, describe(m.CRS), describe(first.CRS))
		}
		xMin = math.Min(xMin, m.XMin)
		yMax = math.Max(yMax, m.YMax)
		xMax = math.Max(xMax, m.XMax())
		yMin = math.Min(yMin, m.YMin())
	}

	width := int(math.Round((xMax - xMin) / cx))
	height := int(math.Round((yMax - yMin) / cy))
	if width <= 0 || height <= 0 || float64(width)*float64(height) > maxCells {
		return nil, fmt.Errorf("%w: mosaic of %d x %d cells", ErrIncompatible, width, height)
	}

	noData := DefaultNoData
	if first.NoDataValue != nil {
		noData = *first.NoDataValue
	}
	meta := models.GridMetadata{
		Width:       width,
		Height:      height,
		XMin:        xMin,
		YMax:        yMax,
		CellSizeX:   cx,
		CellSizeY:   cy,
		NoDataValue: &noData,
		CRS:         first.CRS,
		DemType:     commonDemType(grids),
	}
	values := make([]float32, width*height)
	filled := make([]bool, len(values))
	for i := range values {
		values[i] = float32(noData)
	}

	for i, g := range grids {
		col, err := latticeOffset(g.Metadata.XMin-xMin, cx)
		if err != nil {
			return nil, fmt.Errorf("%w: tile %d x origin: %v", ErrIncompatible, i, err)
		}
		row, err := latticeOffset(yMax-g.Metadata.YMax, cy)
		if err != nil {
			return nil, fmt.Errorf("%w: tile %d y origin: %v", ErrIncompatible, i, err)
		}
		log.Debug("placing tile",
			zap.Int("tile", i),
			zap.Stringp("mesh", g.Metadata.MeshCode),
			zap.Int("col", col),
			zap.Int("row", row))

		m := g.Metadata
		for r := 0; r < m.Height && row+r < height; r++ {
			for c := 0; c < m.Width && col+c < width; c++ {
				v := g.At(c, r)
				if m.IsNoData(v) {
					continue
				}
				dst := (row+r)*width + col + c
				if filled[dst] {
					continue
				}
				values[dst] = v
				filled[dst] = true
			}
		}
	}

	log.Info("merged tiles", zap.Int("tiles", len(grids)), zap.Int("width", width), zap.Int("height", height))
	return &models.ElevationGrid{Metadata: meta, Values: values}, nil
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) <= cellTolerance*math.Max(math.Abs(a), math.Abs(b))
}

// latticeOffset converts a distance into a whole number of cells.
func latticeOffset(distance, cell float64) (int, error) {
	steps := distance / cell
	n := math.Round(steps)
	if math.Abs(steps-n) > alignTolerance {
		return 0, fmt.Errorf("offset of %g cells is not on the grid lattice", steps)
	}
	return int(n), nil
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func describe(crs *string) string {
	if crs == nil {
		return "<none>"
	}
	return *crs
}

func commonDemType(grids []*models.ElevationGrid) *string {
	t := grids[0].Metadata.DemType
	for _, g := range grids[1:] {
		if !sameString(t, g.Metadata.DemType) {
			return nil
		}
	}
	return t
}
