package parser

// raw holds the text captured during extraction, before any numeric interpretation.
// A nil pointer means the element was never seen.
type raw struct {
	dialect Dialect

	low  *string
	high *string

	// JPGIS RectifiedGrid
	pos           *string
	offsetVectors []string
	crsSystem     *string

	// FGD coverage
	lowerCorner   *string
	upperCorner   *string
	sequenceOrder *string
	startPoint    *string

	srsName  *string
	tuples   *string
	mesh     *string
	demType  *string
	nilValue *string
}

func ptr(s string) *string {
	return &s
}
