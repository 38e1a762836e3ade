package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/models"
)

func sampleMetadata() *models.GridMetadata {
	crs, mesh := "EPSG:6668", "53394611"
	noData := -9999.0
	return &models.GridMetadata{
		Width: 225, Height: 150,
		XMin: 139.0, YMax: 35.666666666666664,
		CellSizeX: 1.0 / 9000, CellSizeY: 1.0 / 13500,
		NoDataValue: &noData,
		CRS:         &crs,
		MeshCode:    &mesh,
	}
}

func TestToJSON(t *testing.T) {
	m := sampleMetadata()

	compact, err := MetadataToJSON(m, false)
	if err != nil {
		t.Fatalf("MetadataToJSON failed: %v", err)
	}
	if strings.Contains(string(compact), "\n") {
		t.Errorf("compact output contains newlines: %s", compact)
	}
	if strings.Contains(string(compact), "dem_type") {
		t.Errorf("unset dem_type must be omitted: %s", compact)
	}

	pretty, err := MetadataToJSON(m, true)
	if err != nil {
		t.Fatalf("MetadataToJSON failed: %v", err)
	}
	if !strings.Contains(string(pretty), "\n  \"width\": 225") {
		t.Errorf("pretty output not indented: %s", pretty)
	}

	var decoded map[string]any
	if err := json.Unmarshal(compact, &decoded); err != nil {
		t.Fatalf("json.Unmarshal failed: %v", err)
	}
	if decoded["crs"] != "EPSG:6668" || decoded["mesh_code"] != "53394611" {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestSidecar(t *testing.T) {
	m := sampleMetadata()
	dir := t.TempDir()

	for _, f := range []SidecarFormat{SidecarJSON, SidecarMsgpack} {
		path := filepath.Join(dir, "tile"+f.Ext())
		if err := WriteSidecar(path, m, f); err != nil {
			t.Fatalf("WriteSidecar(%s) failed: %v", f, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading sidecar: %v", err)
		}

		var got models.GridMetadata
		if f == SidecarJSON {
			err = json.Unmarshal(data, &got)
		} else {
			err = FromMsgpack(data, &got)
		}
		if err != nil {
			t.Fatalf("decoding %s sidecar: %v", f, err)
		}
		if diff := cmp.Diff(*m, got); diff != "" {
			t.Errorf("%s sidecar mismatch (-want +got):\n%s", f, diff)
		}
	}
}

func TestParseSidecarFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected SidecarFormat
		wantErr  bool
	}{
		{"", SidecarNone, false},
		{"none", SidecarNone, false},
		{"JSON", SidecarJSON, false},
		{"msgpack", SidecarMsgpack, false},
		{"yaml", SidecarNone, true},
	}

	for _, tt := range tests {
		result, err := ParseSidecarFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSidecarFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if result != tt.expected {
			t.Errorf("ParseSidecarFormat(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
	if _, err := EncodeSidecar(sampleMetadata(), SidecarNone); err == nil {
		t.Error("EncodeSidecar(none) should fail")
	}
}
