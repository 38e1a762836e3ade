package parser

import (
	"encoding/xml"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/models"
)

func xmlName(space, local string) xml.Name {
	return xml.Name{Space: space, Local: local}
}

func TestEncodeRoundTrip(t *testing.T) {
	noData := -9999.0
	tests := []struct {
		name string
		meta models.GridMetadata
	}{
		{"epsg", models.GridMetadata{
			Width: 3, Height: 2, XMin: 139.00125, YMax: 35.666666666666664,
			CellSizeX: 1.0 / 9000, CellSizeY: 1.0 / 13500,
			CRS: strPtr("EPSG:6668"), MeshCode: strPtr("53394611"), NoDataValue: &noData,
		}},
		{"citation", models.GridMetadata{
			Width: 1, Height: 4, XMin: -12.5, YMax: 0.1 + 0.2,
			CellSizeX: 5, CellSizeY: 0.3,
			CRS: strPtr("fguuid:jgd2011.bl"),
		}},
		{"bare", models.GridMetadata{
			Width: 2, Height: 1, XMin: 1e-7, YMax: 89.99999999999999,
			CellSizeX: 2.5e-5, CellSizeY: 2.5e-5,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]float32, tt.meta.Cells())
			for i := range values {
				values[i] = float32(i)*1.25 - 3
			}
			in := &models.ElevationGrid{Metadata: tt.meta, Values: values}

			data, err := EncodeJPGIS(in)
			if err != nil {
				t.Fatalf("EncodeJPGIS failed: %v", err)
			}
			out, err := Parse(data, Options{})
			if err != nil {
				t.Fatalf("Parse failed: %v\n%s", err, data)
			}
			if diff := cmp.Diff(in, out); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
