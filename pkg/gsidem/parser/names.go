package parser

import (
	"encoding/xml"
	"strings"
)

// tag identifies a recognized element regardless of prefix or case.
type tag int

const (
	tagUnknown tag = iota
	tagDEM
	tagMesh
	tagType
	tagSpatialReferenceInfo
	tagSpatialReference
	tagRectifiedGrid
	tagGridDomain
	tagGrid
	tagLimits
	tagGridEnvelope
	tagLow
	tagHigh
	tagOrigin
	tagPoint
	tagPos
	tagOffsetVector
	tagCoverage
	tagBoundedBy
	tagEnvelope
	tagLowerCorner
	tagUpperCorner
	tagRangeSet
	tagDataBlock
	tagTupleList
	tagNilValues
	tagSequenceRule
	tagStartPoint
)

// tagNames maps lower-cased local names to tags. Several spellings map to the same tag.
var tagNames = map[string]tag{
	"dem":                  tagDEM,
	"mesh":                 tagMesh,
	"type":                 tagType,
	"spatialreferenceinfo": tagSpatialReferenceInfo,
	"spatialreference":     tagSpatialReference,
	"rectifiedgrid":        tagRectifiedGrid,
	"griddomain":           tagGridDomain,
	"grid":                 tagGrid,
	"limits":               tagLimits,
	"gridenvelope":         tagGridEnvelope,
	"low":                  tagLow,
	"high":                 tagHigh,
	"origin":               tagOrigin,
	"point":                tagPoint,
	"pos":                  tagPos,
	"offsetvector":         tagOffsetVector,
	"coverage":             tagCoverage,
	"boundedby":            tagBoundedBy,
	"envelope":             tagEnvelope,
	"lowercorner":          tagLowerCorner,
	"uppercorner":          tagUpperCorner,
	"rangeset":             tagRangeSet,
	"datablock":            tagDataBlock,
	"tuplelist":            tagTupleList,
	"nilvalues":            tagNilValues,
	"nilvalue":             tagNilValues,
	"nodatavalue":          tagNilValues,
	"sequencerule":         tagSequenceRule,
	"startpoint":           tagStartPoint,
}

// knownPrefixes are namespace prefixes accepted when a producer leaves them undeclared.
var knownPrefixes = map[string]bool{
	"":      true,
	"gml":   true,
	"swe":   true,
	"fgd":   true,
	"jps":   true,
	"jpgis": true,
}

// knownSpace accepts any declared namespace (resolved to its URI by the decoder) and the fixed set
// of undeclared prefixes. An undeclared unknown prefix leaves the element unrecognized.
func knownSpace(space string) bool {
	if strings.ContainsAny(space, ":/") {
		return true
	}
	return knownPrefixes[strings.ToLower(space)]
}

// lookupTag normalizes an element name and returns its tag.
func lookupTag(name xml.Name) tag {
	if !knownSpace(name.Space) {
		return tagUnknown
	}
	return lookupLocal(name.Local)
}

func lookupLocal(local string) tag {
	// producers that are not namespace aware sometimes leave "gml:pos" in the local part
	if i := strings.LastIndexByte(local, ':'); i >= 0 {
		local = local[i+1:]
	}
	return tagNames[strings.ToLower(local)]
}

func attrValue(se xml.StartElement, name string) (string, bool) {
	for _, attr := range se.Attr {
		if strings.EqualFold(attr.Name.Local, name) {
			return attr.Value, true
		}
	}
	return "", false
}
