package parser

import (
	"encoding/xml"
	"strings"

	"go.uber.org/zap"
)

// fgdStrategy extracts the coverage layout of GSI Fundamental Geospatial Data DEM documents.
type fgdStrategy struct {
	log *zap.Logger
	acc raw

	inDEM          bool
	inCoverage     bool
	inBoundedBy    bool
	inEnvelope     bool
	inGridDomain   bool
	inGrid         bool
	inLimits       bool
	inGridEnvelope bool
	inRangeSet     bool
	inDataBlock    bool
}

func newFGDStrategy(log *zap.Logger) *fgdStrategy {
	return &fgdStrategy{log: log, acc: raw{dialect: DialectFGD}}
}

func (s *fgdStrategy) result() *raw {
	return &s.acc
}

func (s *fgdStrategy) start(decoder *xml.Decoder, se xml.StartElement, t tag) error {
	if t == tagDEM {
		s.inDEM = true
		return nil
	}
	if !s.inDEM {
		return nil
	}
	if ok, err := captureShared(decoder, se, t, &s.acc, s.log); ok {
		return err
	}

	switch {
	case t == tagType && !s.inCoverage:
		text, err := readText(decoder, se)
		if err != nil {
			return err
		}
		if s.acc.demType == nil {
			s.acc.demType = ptr(strings.TrimSpace(text))
		}

	case t == tagCoverage:
		s.inCoverage = true
	case t == tagBoundedBy && s.inCoverage:
		s.inBoundedBy = true
	case t == tagEnvelope && s.inBoundedBy:
		s.inEnvelope = true
		if v, ok := attrValue(se, "srsName"); ok && s.acc.srsName == nil {
			s.acc.srsName = ptr(v)
		}
	case t == tagLowerCorner && s.inEnvelope:
		return s.capture(decoder, se, &s.acc.lowerCorner)
	case t == tagUpperCorner && s.inEnvelope:
		return s.capture(decoder, se, &s.acc.upperCorner)

	case t == tagGridDomain && s.inCoverage:
		s.inGridDomain = true
	case t == tagGrid && s.inGridDomain:
		s.inGrid = true
	case t == tagLimits && s.inGrid:
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

	case t == tagRangeSet && s.inCoverage:
		s.inRangeSet = true
	case t == tagDataBlock && s.inRangeSet:
		s.inDataBlock = true
	case t == tagTupleList && s.inDataBlock:
		return s.capture(decoder, se, &s.acc.tuples)

	case t == tagSequenceRule && s.inCoverage:
		if v, ok := attrValue(se, "order"); ok && s.acc.sequenceOrder == nil {
			s.acc.sequenceOrder = ptr(strings.TrimSpace(v))
		}
	case t == tagStartPoint && s.inCoverage:
		return s.capture(decoder, se, &s.acc.startPoint)
	}
	return nil
}

func (s *fgdStrategy) end(t tag) {
	switch t {
	case tagDEM:
		s.inDEM = false
	case tagCoverage:
		s.inCoverage = false
	case tagBoundedBy:
		s.inBoundedBy = false
	case tagEnvelope:
		s.inEnvelope = false
	case tagGridDomain:
		s.inGridDomain = false
	case tagGrid:
		s.inGrid = false
	case tagLimits:
		s.inLimits = false
	case tagGridEnvelope:
		s.inGridEnvelope = false
	case tagRangeSet:
		s.inRangeSet = false
	case tagDataBlock:
		s.inDataBlock = false
	}
}

func (s *fgdStrategy) capture(decoder *xml.Decoder, se xml.StartElement, target **string) error {
	text, err := readText(decoder, se)
	if err != nil {
		return err
	}
	if *target == nil {
		*target = ptr(text)
	}
	return nil
}
