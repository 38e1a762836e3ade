package gsidem

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInputNotFound indicates the input path does not exist.
var ErrInputNotFound = errors.New("input not found")

// ErrUnsupportedInput indicates the input is neither an .xml file, a .zip archive nor a directory.
var ErrUnsupportedInput = errors.New("unsupported input type")

// ErrNoDocuments indicates the input contained no XML documents.
var ErrNoDocuments = errors.New("no xml documents found")

// Stage names the pipeline step in which a conversion failed.
type Stage string

const (
	StageRead  Stage = "read"
	StageParse Stage = "parse"
	StageMerge Stage = "merge"
	StageWrite Stage = "write"
)

// ConversionError represents a failure to convert one input.
type ConversionError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s failed for %q: %v", e.Stage, e.Path, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// NewConversionError creates a new ConversionError.
func NewConversionError(path string, stage Stage, err error) *ConversionError {
	return &ConversionError{
		Path:  path,
		Stage: stage,
		Err:   err,
	}
}
