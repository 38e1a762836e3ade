package parser

import (
	"bytes"

	"github.com/muktihari/xmltokenizer"
)

// Detect reports which dialect a document uses by looking for the first element that only one
// dialect carries. Documents with neither marker are treated as JPGIS.
func Detect(data []byte) Dialect {
	tok := xmltokenizer.New(bytes.NewReader(data))
	for {
		token, err := tok.Token()
		if err != nil {
			return DialectJPGIS
		}
		if token.IsEndElement {
			continue
		}
		switch lookupLocal(string(token.Name.Local)) {
		case tagRectifiedGrid, tagOffsetVector, tagSpatialReferenceInfo:
			return DialectJPGIS
		case tagGridDomain, tagSequenceRule, tagStartPoint:
			return DialectFGD
		}
	}
}
