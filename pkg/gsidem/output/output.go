// Package output serializes grid metadata and batch results as JSON or MessagePack.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/models"
)

// ToJSON serializes v as JSON.
func ToJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// MetadataToJSON serializes grid metadata as JSON.
func MetadataToJSON(m *models.GridMetadata, pretty bool) ([]byte, error) {
	return ToJSON(m, pretty)
}

// SummaryToJSON serializes a batch summary as JSON.
func SummaryToJSON(s *models.Summary, pretty bool) ([]byte, error) {
	return ToJSON(s, pretty)
}

// ToMsgpack serializes v as MessagePack using the msgpack struct tags.
func ToMsgpack(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// FromMsgpack decodes MessagePack data into v.
func FromMsgpack(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

// SidecarFormat selects the metadata file written next to each raster.
type SidecarFormat string

const (
	SidecarNone    SidecarFormat = "none"
	SidecarJSON    SidecarFormat = "json"
	SidecarMsgpack SidecarFormat = "msgpack"
)

// ParseSidecarFormat parses "none", "json" or "msgpack".
func ParseSidecarFormat(s string) (SidecarFormat, error) {
	switch f := SidecarFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return SidecarNone, nil
	case SidecarNone, SidecarJSON, SidecarMsgpack:
		return f, nil
	}
	return SidecarNone, fmt.Errorf("unknown sidecar format %q (expected none, json or msgpack)", s)
}

// Ext returns the file extension of the sidecar, including the dot.
func (f SidecarFormat) Ext() string {
	switch f {
	case SidecarJSON:
		return ".json"
	case SidecarMsgpack:
		return ".msgpack"
	default:
		return ""
	}
}

// EncodeSidecar serializes m in format f.
func EncodeSidecar(m *models.GridMetadata, f SidecarFormat) ([]byte, error) {
	switch f {
	case SidecarJSON:
		return MetadataToJSON(m, true)
	case SidecarMsgpack:
		return ToMsgpack(m)
	}
	return nil, fmt.Errorf("no encoder for sidecar format %q", f)
}

// WriteSidecar writes the metadata of one raster to path.
func WriteSidecar(path string, m *models.GridMetadata, f SidecarFormat) error {
	data, err := EncodeSidecar(m, f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
