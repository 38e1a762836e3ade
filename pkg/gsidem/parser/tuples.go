package parser

import (
	"errors"
	"strconv"
	"strings"
)

// parseSample parses one elevation token as float32. Magnitudes beyond float32 saturate to
// +/-Inf and tiny ones round to zero instead of failing.
func parseSample(tok string) (float32, error) {
	v, err := strconv.ParseFloat(tok, 32)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, err
	}
	return float32(v), nil
}

// DecodeTuples splits a JPGIS tuple list on commas and whitespace and parses each token.
// A single bad token fails the whole decode.
func DecodeTuples(text string) ([]float32, error) {
	tokens := strings.Fields(strings.ReplaceAll(text, ",", " "))
	values := make([]float32, 0, len(tokens))
	for i, tok := range tokens {
		v, err := parseSample(tok)
		if err != nil {
			return nil, &TokenError{Token: tok, Index: i, Err: err}
		}
		values = append(values, v)
	}
	return values, nil
}

// CheckCount verifies that n samples fill a width x height grid.
func CheckCount(n, width, height int) error {
	if expected := width * height; n != expected {
		return &CountMismatchError{Expected: expected, Actual: n, Width: width, Height: height}
	}
	return nil
}

// decodeFGDTuples parses "label,value" records and lays them into a grid that starts at l.start.
// Cells outside the sample run hold noData.
func decodeFGDTuples(text string, width, height int, l layout, noData float32) ([]float32, error) {
	records := strings.Fields(text)
	cells := width * height
	if l.start+len(records) > cells {
		return nil, &CountMismatchError{Expected: cells - l.start, Actual: len(records), Width: width, Height: height}
	}

	values := make([]float32, cells)
	for i := range values {
		values[i] = noData
	}
	for i, rec := range records {
		tok := rec
		if j := strings.LastIndexByte(rec, ','); j >= 0 {
			tok = rec[j+1:]
		}
		v, err := parseSample(tok)
		if err != nil {
			return nil, &TokenError{Token: tok, Index: i, Err: err}
		}
		values[l.start+i] = v
	}
	return values, nil
}
