package parser

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// readElementText collects the character data of the element just opened, including nested children,
// and consumes its end tag.
func readElementText(decoder *xml.Decoder) (string, error) {
	var text strings.Builder
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return text.String(), err
		}
		switch t := token.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return text.String(), nil
}

// readText is readElementText with errors mapped onto the parser taxonomy.
func readText(decoder *xml.Decoder, se xml.StartElement) (string, error) {
	text, err := readElementText(decoder)
	if err != nil {
		if isEOF(err) {
			return "", &ParseError{
				Kind: ErrMalformedXML,
				Msg:  "document ended inside <" + se.Name.Local + ">",
				Err:  ErrUnexpectedEOF,
			}
		}
		return "", malformedError(err)
	}
	if !utf8.ValidString(text) {
		return "", &ParseError{Kind: ErrMalformedXML, Msg: "text of <" + se.Name.Local + "> is not valid UTF-8"}
	}
	return text, nil
}

// isEOF reports whether err means the input ran out. encoding/xml reports EOF inside an open element
// as a SyntaxError rather than io.ErrUnexpectedEOF.
func isEOF(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var syntaxErr *xml.SyntaxError
	return errors.As(err, &syntaxErr) && strings.Contains(syntaxErr.Msg, "EOF")
}
