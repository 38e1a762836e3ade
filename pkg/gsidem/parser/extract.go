package parser

import (
	"encoding/xml"
	"io"
	"strings"

	"go.uber.org/zap"
)

// strategy reacts to the start and end of recognized elements for one document dialect.
type strategy interface {
	start(decoder *xml.Decoder, se xml.StartElement, t tag) error
	end(t tag)
	result() *raw
}

// extract streams the document once through s. Unrecognized elements only affect the decoder's own
// well-formedness checks.
func extract(data []byte, s strategy) (*raw, error) {
	decoder := newDecoder(data)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			if isEOF(err) {
				return nil, &ParseError{Kind: ErrMalformedXML, Msg: "document is truncated", Err: ErrUnexpectedEOF}
			}
			return nil, malformedError(err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if err := s.start(decoder, t, lookupTag(t.Name)); err != nil {
				return nil, err
			}
		case xml.EndElement:
			s.end(lookupTag(t.Name))
		}
	}
	return s.result(), nil
}

// checkLow enforces the zero-based grid origin.
func checkLow(text string) error {
	if strings.Join(strings.Fields(text), " ") != "0 0" {
		return structureError(FieldGridLow, "expected \"0 0\", found %q", text)
	}
	return nil
}

// captureShared handles elements both dialects record the same way. It reports whether se was consumed.
func captureShared(decoder *xml.Decoder, se xml.StartElement, t tag, acc *raw, log *zap.Logger) (bool, error) {
	var target **string
	switch t {
	case tagMesh:
		target = &acc.mesh
	case tagNilValues:
		target = &acc.nilValue
	default:
		return false, nil
	}
	text, err := readText(decoder, se)
	if err != nil {
		return true, err
	}
	if *target == nil {
		*target = ptr(strings.TrimSpace(text))
		log.Debug("captured element", zap.String("element", se.Name.Local), zap.String("text", **target))
	}
	return true, nil
}
