package writer

import (
	"strconv"
	"strings"
)

// CRSKind classifies a metadata CRS string for GeoKey encoding.
type CRSKind int

const (
	// CRSUnknown means the grid carries no CRS.
	CRSUnknown CRSKind = iota
	// CRSGeographic is an EPSG code in the 4000-4999 band.
	CRSGeographic
	// CRSProjected is any other EPSG code.
	CRSProjected
	// CRSCitation is free text that is not an "EPSG:<code>" string.
	CRSCitation
)

func (k CRSKind) String() string {
	switch k {
	case CRSGeographic:
		return "geographic"
	case CRSProjected:
		return "projected"
	case CRSCitation:
		return "citation"
	default:
		return "unknown"
	}
}

// GeoKey IDs and values from the GeoTIFF 1.1 key space.
const (
	keyGTModelType      = 1024
	keyGTRasterType     = 1025
	keyGTCitation       = 1026
	keyGeographicType   = 2048
	keyProjectedCSType  = 3072
	modelTypeProjected  = 1
	modelTypeGeographic = 2
	rasterPixelIsArea   = 1
	geoKeyDirectoryHead = 1
	geoKeyRevision      = 1
	geoKeyMinorRevision = 0
)

// ClassifyCRS applies the writer's EPSG range heuristic: codes 4000-4999 are geographic and every
// other numeric code is projected. Strings that are not "EPSG:<code>" become citations.
func ClassifyCRS(crs *string) (kind CRSKind, code uint16, citation string) {
	if crs == nil || strings.TrimSpace(*crs) == "" {
		return CRSUnknown, 0, ""
	}
	s := strings.TrimSpace(*crs)
	if len(s) > 5 && strings.EqualFold(s[:5], "EPSG:") {
		if v, err := strconv.ParseUint(s[5:], 10, 16); err == nil && v > 0 {
			if v >= 4000 && v < 5000 {
				return CRSGeographic, uint16(v), ""
			}
			return CRSProjected, uint16(v), ""
		}
	}
	return CRSCitation, 0, s
}

// geoKeyDirectory builds the GeoKeyDirectoryTag payload and, for citations, the GeoAsciiParams text.
// Keys are emitted in ascending ID order.
func geoKeyDirectory(kind CRSKind, code uint16, citation string) ([]uint16, string) {
	var keys [][4]uint16
	var ascii string

	switch kind {
	case CRSGeographic:
		keys = append(keys, [4]uint16{keyGTModelType, 0, 1, modelTypeGeographic})
	case CRSProjected:
		keys = append(keys, [4]uint16{keyGTModelType, 0, 1, modelTypeProjected})
	}
	keys = append(keys, [4]uint16{keyGTRasterType, 0, 1, rasterPixelIsArea})
	if kind == CRSCitation {
		ascii = citation + "|"
		keys = append(keys, [4]uint16{keyGTCitation, tagGeoAsciiParams, uint16(len(ascii)), 0})
	}
	switch kind {
	case CRSGeographic:
		keys = append(keys, [4]uint16{keyGeographicType, 0, 1, code})
	case CRSProjected:
		keys = append(keys, [4]uint16{keyProjectedCSType, 0, 1, code})
	}

	dir := []uint16{geoKeyDirectoryHead, geoKeyRevision, geoKeyMinorRevision, uint16(len(keys))}
	for _, k := range keys {
		dir = append(dir, k[:]...)
	}
	return dir, ascii
}
