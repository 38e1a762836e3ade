// Package parser converts JPGIS and GSI FGD DEM XML documents into elevation grids.
//
// Parsing is a single forward scan that records the text of a few leaf elements, followed by a
// normalization step that derives the grid geometry and a decoder for the elevation samples.
// Calls share no state and may run concurrently.
package parser

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/models"
)

// Dialect selects an extraction strategy.
type Dialect int

const (
	// DialectAuto probes the document.
	DialectAuto Dialect = iota
	// DialectJPGIS reads gml:RectifiedGrid with an origin position in (Y, X) order.
	DialectJPGIS
	// DialectFGD reads the GSI coverage layout with an envelope, start point and "type,value" tuples.
	DialectFGD
)

func (d Dialect) String() string {
	switch d {
	case DialectJPGIS:
		return "jpgis"
	case DialectFGD:
		return "fgd"
	default:
		return "auto"
	}
}

// ParseDialect parses "auto", "jpgis" or "fgd".
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return DialectAuto, nil
	case "jpgis":
		return DialectJPGIS, nil
	case "fgd":
		return DialectFGD, nil
	}
	return DialectAuto, fmt.Errorf("unknown dialect %q (expected auto, jpgis or fgd)", s)
}

// AxisOrder is the coordinate order of FGD envelope corners.
type AxisOrder int

const (
	// AxisOrderLatLon reads corners as "lat lon", the order GSI publishes.
	AxisOrderLatLon AxisOrder = iota
	// AxisOrderLonLat reads corners as "lon lat".
	AxisOrderLonLat
)

func (o AxisOrder) String() string {
	if o == AxisOrderLonLat {
		return "lon-lat"
	}
	return "lat-lon"
}

// ParseAxisOrder parses "lat-lon" or "lon-lat".
func ParseAxisOrder(s string) (AxisOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lat-lon", "latlon":
		return AxisOrderLatLon, nil
	case "lon-lat", "lonlat":
		return AxisOrderLonLat, nil
	}
	return AxisOrderLatLon, fmt.Errorf("unknown axis order %q (expected lat-lon or lon-lat)", s)
}

// Options configures a parse.
type Options struct {
	// Dialect forces an extraction strategy. The zero value probes the document.
	Dialect Dialect
	// CornerAxisOrder applies to FGD envelope corners only.
	CornerAxisOrder AxisOrder
	// Logger receives soft-degradation warnings. Nil discards them.
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Parse extracts, normalizes and decodes one complete DEM document.
func Parse(data []byte, opts Options) (*models.ElevationGrid, error) {
	dialect := opts.Dialect
	if dialect == DialectAuto {
		dialect = Detect(data)
	}
	log := opts.logger().With(zap.Stringer("dialect", dialect))
	opts.Logger = log

	var s strategy
	if dialect == DialectFGD {
		s = newFGDStrategy(log)
	} else {
		s = newJPGISStrategy(log)
	}
	acc, err := extract(data, s)
	if err != nil {
		return nil, err
	}

	meta, l, err := normalize(acc, opts)
	if err != nil {
		return nil, err
	}
	if acc.tuples == nil {
		return nil, structureError(FieldTupleList, "<tupleList> not found")
	}

	var values []float32
	if l.padded {
		values, err = decodeFGDTuples(*acc.tuples, meta.Width, meta.Height, l, float32(*meta.NoDataValue))
	} else {
		values, err = DecodeTuples(*acc.tuples)
		if err == nil {
			err = CheckCount(len(values), meta.Width, meta.Height)
		}
	}
	if err != nil {
		return nil, err
	}

	log.Debug("parsed grid",
		zap.Int("width", meta.Width),
		zap.Int("height", meta.Height),
		zap.Float64("x_min", meta.XMin),
		zap.Float64("y_max", meta.YMax))
	return &models.ElevationGrid{Metadata: meta, Values: values}, nil
}

// ParseReader reads r to the end and parses the result.
func ParseReader(r io.Reader, opts Options) (*models.ElevationGrid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return Parse(data, opts)
}
