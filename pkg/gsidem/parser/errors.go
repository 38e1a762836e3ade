package parser

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by Parse matches exactly one of these with errors.Is.
var (
	// ErrMalformedXML indicates the byte stream is not well-formed XML (or not valid UTF-8).
	ErrMalformedXML = errors.New("malformed xml")
	// ErrStructure indicates a required container or literal is missing or mismatched.
	ErrStructure = errors.New("xml structure error")
	// ErrField indicates a required value could not be derived from present text.
	ErrField = errors.New("field derivation error")
	// ErrIntegrity indicates a structurally complete but inconsistent result.
	ErrIntegrity = errors.New("data integrity error")
)

// ErrUnexpectedEOF is wrapped by errors raised when the document ends inside an element whose text
// was being collected.
var ErrUnexpectedEOF = errors.New("unexpected end of document")

// Field names a required piece of grid geometry.
type Field string

const (
	FieldGridDimensions Field = "grid dimensions"
	FieldGridLow        Field = "grid low"
	FieldOrigin         Field = "origin"
	FieldOffsetVectors  Field = "offset vectors"
	FieldCellSizeX      Field = "cell size x"
	FieldCellSizeY      Field = "cell size y"
	FieldEnvelope       Field = "envelope"
	FieldStartPoint     Field = "start point"
	FieldSequenceRule   Field = "sequence rule"
	FieldTupleList      Field = "elevation tuple list"
)

// ParseError is a fatal extraction or normalization failure.
type ParseError struct {
	// Kind is one of ErrMalformedXML, ErrStructure, ErrField or ErrIntegrity.
	Kind  error
	Field Field // empty when the failure is not tied to a field
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	s := e.Kind.Error()
	if e.Field != "" {
		s += ": " + string(e.Field)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func structureError(field Field, format string, args ...any) *ParseError {
	return &ParseError{Kind: ErrStructure, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func fieldError(field Field, err error, format string, args ...any) *ParseError {
	return &ParseError{Kind: ErrField, Field: field, Msg: fmt.Sprintf(format, args...), Err: err}
}

func malformedError(err error) *ParseError {
	return &ParseError{Kind: ErrMalformedXML, Err: err}
}

// CountMismatchError reports a sample count that disagrees with the grid dimensions.
type CountMismatchError struct {
	Expected int
	Actual   int
	Width    int
	Height   int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("%v: expected %d elevation values (width %d x height %d), found %d",
		ErrIntegrity, e.Expected, e.Width, e.Height, e.Actual)
}

func (e *CountMismatchError) Unwrap() error {
	return ErrIntegrity
}

// TokenError reports a tuple-list token that is not a number.
type TokenError struct {
	// Token is the offending text, verbatim.
	Token string
	// Index is the zero-based position of the token in the tuple list.
	Index int
	Err   error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%v: %s: failed to parse elevation value '%s' at position %d: %v",
		ErrField, FieldTupleList, e.Token, e.Index, e.Err)
}

func (e *TokenError) Unwrap() []error {
	return []error{ErrField, e.Err}
}
