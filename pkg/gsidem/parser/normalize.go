package parser

import (
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/models"
)

const (
	// maxGridBound caps each inclusive high bound so width*height cannot overflow.
	maxGridBound = math.MaxInt32 - 1

	// fgdNoData fills FGD cells that precede the start point or follow the last sample.
	fgdNoData = -9999.0

	// fgdSequenceOrder is the only scan order FGD DEM products use.
	fgdSequenceOrder = "+x-y"

	epsgURNPrefix = "urn:ogc:def:crs:epsg:"
)

// layout describes where decoded samples land in the grid.
type layout struct {
	// start is the row-major index of the first sample.
	start int
	// padded is true when cells outside the sample run are filled with no-data.
	padded bool
}

// normalize converts the raw accumulator into canonical metadata. A nil accumulator is a programming error.
func normalize(r *raw, opts Options) (models.GridMetadata, layout, error) {
	if r == nil {
		panic("parser: normalize called without an extracted accumulator")
	}
	if r.dialect == DialectFGD {
		return normalizeFGD(r, opts)
	}
	meta, err := normalizeJPGIS(r, opts.logger())
	return meta, layout{}, err
}

func normalizeJPGIS(r *raw, log *zap.Logger) (models.GridMetadata, error) {
	var meta models.GridMetadata

	width, height, err := gridSize(r, log)
	if err != nil {
		return meta, err
	}
	meta.Width, meta.Height = width, height

	if r.pos == nil {
		return meta, structureError(FieldOrigin, "<pos> not found in <origin>")
	}
	pair, err := parsePair(*r.pos, FieldOrigin)
	if err != nil {
		return meta, err
	}
	meta.YMax, meta.XMin = pair[0], pair[1]

	if len(r.offsetVectors) < 2 {
		return meta, structureError(FieldOffsetVectors, "expected two <offsetVector> elements, found %d", len(r.offsetVectors))
	}
	if len(r.offsetVectors) > 2 {
		log.Warn("ignoring extra offset vectors", zap.Int("count", len(r.offsetVectors)))
	}
	if meta.CellSizeX, err = vectorComponent(r.offsetVectors[0], 0, FieldCellSizeX); err != nil {
		return meta, err
	}
	if meta.CellSizeY, err = vectorComponent(r.offsetVectors[1], 1, FieldCellSizeY); err != nil {
		return meta, err
	}

	meta.CRS = jpgisCRS(r, log)
	meta.NoDataValue = noDataValue(r, log)
	meta.MeshCode = optionalText(r.mesh, "mesh code", log)
	return meta, nil
}

func normalizeFGD(r *raw, opts Options) (models.GridMetadata, layout, error) {
	var meta models.GridMetadata
	log := opts.logger()

	width, height, err := gridSize(r, log)
	if err != nil {
		return meta, layout{}, err
	}
	meta.Width, meta.Height = width, height

	if r.lowerCorner == nil || r.upperCorner == nil {
		return meta, layout{}, structureError(FieldEnvelope, "<lowerCorner> and <upperCorner> are required")
	}
	west, south, err := corner(*r.lowerCorner, opts.CornerAxisOrder)
	if err != nil {
		return meta, layout{}, err
	}
	east, north, err := corner(*r.upperCorner, opts.CornerAxisOrder)
	if err != nil {
		return meta, layout{}, err
	}
	if east <= west || north <= south {
		return meta, layout{}, fieldError(FieldEnvelope, nil,
			"upper corner (%g, %g) is not north-east of lower corner (%g, %g)", east, north, west, south)
	}
	meta.XMin, meta.YMax = west, north
	meta.CellSizeX = (east - west) / float64(width)
	meta.CellSizeY = (north - south) / float64(height)

	if r.sequenceOrder != nil && *r.sequenceOrder != fgdSequenceOrder {
		return meta, layout{}, structureError(FieldSequenceRule, "unsupported order %q, only %q is supported",
			*r.sequenceOrder, fgdSequenceOrder)
	}
	start, err := startIndex(r.startPoint, width, height)
	if err != nil {
		return meta, layout{}, err
	}

	if r.srsName != nil {
		meta.CRS = crsFromSRSName(*r.srsName)
	} else {
		log.Warn("coordinate reference system not found")
	}
	meta.NoDataValue = noDataValue(r, log)
	if meta.NoDataValue == nil {
		v := fgdNoData
		meta.NoDataValue = &v
	}
	meta.MeshCode = optionalText(r.mesh, "mesh code", log)
	meta.DemType = optionalText(r.demType, "dem type", log)
	return meta, layout{start: start, padded: true}, nil
}

// gridSize derives width and height from the inclusive high bounds.
func gridSize(r *raw, log *zap.Logger) (int, int, error) {
	if r.high == nil {
		return 0, 0, structureError(FieldGridDimensions, "<high> not found in <GridEnvelope>")
	}
	if r.low == nil {
		log.Warn("grid envelope has no <low>, assuming \"0 0\"")
	}
	parts := strings.Fields(*r.high)
	if len(parts) != 2 {
		return 0, 0, fieldError(FieldGridDimensions, nil, "expected two integers in <high>, found %q", *r.high)
	}
	var bounds [2]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, fieldError(FieldGridDimensions, err, "invalid bound %q", p)
		}
		if v < 0 || v > maxGridBound {
			return 0, 0, fieldError(FieldGridDimensions, nil, "bound %d out of range", v)
		}
		bounds[i] = v
	}
	width, height := bounds[0]+1, bounds[1]+1
	if width > math.MaxInt/height {
		return 0, 0, fieldError(FieldGridDimensions, nil, "%d x %d cells overflows", width, height)
	}
	return width, height, nil
}

func parseFinite(s string, field Field) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fieldError(field, err, "invalid number %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fieldError(field, nil, "value %q is not finite", s)
	}
	return v, nil
}

func parsePair(text string, field Field) ([2]float64, error) {
	var pair [2]float64
	parts := strings.Fields(text)
	if len(parts) != 2 {
		return pair, fieldError(field, nil, "expected two numbers, found %q", text)
	}
	for i, p := range parts {
		v, err := parseFinite(p, field)
		if err != nil {
			return pair, err
		}
		pair[i] = v
	}
	return pair, nil
}

// vectorComponent returns the absolute value of component index of an offset vector.
func vectorComponent(text string, index int, field Field) (float64, error) {
	parts := strings.Fields(text)
	if index >= len(parts) {
		return 0, fieldError(field, nil, "offset vector %q has no component %d", text, index)
	}
	values := make([]float64, len(parts))
	for i, p := range parts {
		v, err := parseFinite(p, field)
		if err != nil {
			return 0, err
		}
		values[i] = v
	}
	size := math.Abs(values[index])
	if size == 0 {
		return 0, fieldError(field, nil, "offset vector %q gives a zero cell size", text)
	}
	return size, nil
}

// corner parses an envelope corner into (x, y).
func corner(text string, order AxisOrder) (float64, float64, error) {
	pair, err := parsePair(text, FieldEnvelope)
	if err != nil {
		return 0, 0, err
	}
	if order == AxisOrderLonLat {
		return pair[0], pair[1], nil
	}
	return pair[1], pair[0], nil
}

// startIndex converts an FGD "x y" start point into a row-major index.
func startIndex(text *string, width, height int) (int, error) {
	if text == nil {
		return 0, nil
	}
	parts := strings.Fields(*text)
	if len(parts) != 2 {
		return 0, fieldError(FieldStartPoint, nil, "expected two integers, found %q", *text)
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fieldError(FieldStartPoint, err, "invalid column %q", parts[0])
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fieldError(FieldStartPoint, err, "invalid row %q", parts[1])
	}
	if x < 0 || x >= width || y < 0 || y >= height {
		return 0, fieldError(FieldStartPoint, nil, "(%d, %d) lies outside a %d x %d grid", x, y, width, height)
	}
	return y*width + x, nil
}

// EPSGFromURN extracts the numeric code of an OGC EPSG URN such as "urn:ogc:def:crs:EPSG::6668".
// The version segment before the code may be empty, present or omitted.
func EPSGFromURN(urn string) (int, bool) {
	urn = strings.TrimSpace(urn)
	if len(urn) < len(epsgURNPrefix) || !strings.EqualFold(urn[:len(epsgURNPrefix)], epsgURNPrefix) {
		return 0, false
	}
	rest := urn[len(epsgURNPrefix):]
	code, err := strconv.ParseUint(rest[strings.LastIndexByte(rest, ':')+1:], 10, 31)
	if err != nil || code == 0 {
		return 0, false
	}
	return int(code), true
}

func crsFromSRSName(srsName string) *string {
	if code, ok := EPSGFromURN(srsName); ok {
		return ptr("EPSG:" + strconv.Itoa(code))
	}
	return ptr(srsName)
}

// jpgisCRS prefers the SpatialReference system attribute and falls back to an envelope srsName.
func jpgisCRS(r *raw, log *zap.Logger) *string {
	if r.crsSystem != nil {
		if code, ok := EPSGFromURN(*r.crsSystem); ok {
			return ptr("EPSG:" + strconv.Itoa(code))
		}
		log.Warn("unrecognized spatial reference system", zap.String("system", *r.crsSystem))
	}
	if r.srsName != nil {
		return crsFromSRSName(*r.srsName)
	}
	log.Warn("coordinate reference system not found")
	return nil
}

func noDataValue(r *raw, log *zap.Logger) *float64 {
	if r.nilValue == nil {
		return nil
	}
	v, err := strconv.ParseFloat(*r.nilValue, 64)
	if err != nil || math.IsNaN(v) {
		log.Warn("ignoring unparsable no-data value", zap.String("text", *r.nilValue))
		return nil
	}
	return &v
}

func optionalText(text *string, name string, log *zap.Logger) *string {
	if text == nil || *text == "" {
		log.Warn(name + " not found")
		return nil
	}
	return ptr(*text)
}
