package parser

import (
	"encoding/xml"

	"go.uber.org/zap"
)

// jpgisStrategy extracts the RectifiedGrid layout published in JPGIS DEM documents.
type jpgisStrategy struct {
	log *zap.Logger
	acc raw

	inDEM           bool
	inSpatialRef    bool
	inRectifiedGrid bool
	inLimits        bool
	inGridEnvelope  bool
	inOrigin        bool
	inPoint         bool
	inCoverage      bool
	inRangeSet      bool
	inDataBlock     bool
}

func newJPGISStrategy(log *zap.Logger) *jpgisStrategy {
	return &jpgisStrategy{log: log, acc: raw{dialect: DialectJPGIS}}
}

func (s *jpgisStrategy) result() *raw {
	return &s.acc
}

func (s *jpgisStrategy) start(decoder *xml.Decoder, se xml.StartElement, t tag) error {
	if t == tagDEM {
		s.inDEM = true
		return nil
	}
	// nilValues may sit anywhere in the document, every other element belongs to <DEM>.
	if !s.inDEM && t != tagNilValues {
		return nil
	}
	if ok, err := captureShared(decoder, se, t, &s.acc, s.log); ok {
		return err
	}

	switch {
	case t == tagSpatialReferenceInfo:
		s.inSpatialRef = true
	case t == tagSpatialReference && s.inSpatialRef:
		if v, ok := attrValue(se, "system"); ok && s.acc.crsSystem == nil {
			s.acc.crsSystem = ptr(v)
		}
	case t == tagEnvelope:
		if v, ok := attrValue(se, "srsName"); ok && s.acc.srsName == nil {
			s.acc.srsName = ptr(v)
		}

	case t == tagRectifiedGrid:
		s.inRectifiedGrid = true
	case t == tagLimits && s.inRectifiedGrid:
		s.inLimits = true
	case t == tagGridEnvelope && s.inLimits:
		s.inGridEnvelope = true
	case t == tagLow && s.inGridEnvelope:
		text, err := readText(decoder, se)
		if err != nil {
			return err
		}
		if err := checkLow(text); err != nil {
			return err
		}
		s.acc.low = ptr(text)
	case t == tagHigh && s.inGridEnvelope:
		return s.capture(decoder, se, &s.acc.high)
	case t == tagOrigin && s.inRectifiedGrid:
		s.inOrigin = true
	case t == tagPoint && s.inOrigin:
		s.inPoint = true
	case t == tagPos && s.inPoint:
		return s.capture(decoder, se, &s.acc.pos)
	case t == tagOffsetVector && s.inRectifiedGrid:
		text, err := readText(decoder, se)
		if err != nil {
			return err
		}
		s.acc.offsetVectors = append(s.acc.offsetVectors, text)

	case t == tagCoverage:
		s.inCoverage = true
	case t == tagRangeSet && s.inCoverage:
		s.inRangeSet = true
	case t == tagDataBlock && s.inRangeSet:
		s.inDataBlock = true
	case t == tagTupleList && s.inDataBlock:
		return s.capture(decoder, se, &s.acc.tuples)
	}
	return nil
}

func (s *jpgisStrategy) end(t tag) {
	switch t {
	case tagDEM:
		s.inDEM = false
	case tagSpatialReferenceInfo:
		s.inSpatialRef = false
	case tagRectifiedGrid:
		s.inRectifiedGrid = false
	case tagLimits:
		s.inLimits = false
	case tagGridEnvelope:
		s.inGridEnvelope = false
	case tagOrigin:
		s.inOrigin = false
	case tagPoint:
		s.inPoint = false
	case tagCoverage:
		s.inCoverage = false
	case tagRangeSet:
		s.inRangeSet = false
	case tagDataBlock:
		s.inDataBlock = false
	}
}

// capture stores the first occurrence of a leaf element's text.
func (s *jpgisStrategy) capture(decoder *xml.Decoder, se xml.StartElement, target **string) error {
	text, err := readText(decoder, se)
	if err != nil {
		return err
	}
	if *target == nil {
		*target = ptr(text)
	}
	return nil
}
