package writer

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zlib"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/models"
)

type tiffField struct {
	typ   uint16
	count uint32
	data  []byte
}

// readTIFF decodes the first IFD of a little-endian TIFF.
func readTIFF(t *testing.T, data []byte) map[uint16]tiffField {
	t.Helper()
	if string(data[:2]) != "II" || binary.LittleEndian.Uint16(data[2:]) != 42 {
		t.Fatalf("not a little-endian TIFF: % x", data[:4])
	}
	off := binary.LittleEndian.Uint32(data[4:])
	n := int(binary.LittleEndian.Uint16(data[off:]))
	sizes := map[uint16]uint32{typeASCII: 1, typeShort: 2, typeLong: 4, typeDouble: 8}

	fields := make(map[uint16]tiffField, n)
	var last uint16
	for i := 0; i < n; i++ {
		e := data[int(off)+2+12*i:]
		tag := binary.LittleEndian.Uint16(e)
		if tag <= last {
			t.Errorf("tag %d follows %d, entries must be sorted", tag, last)
		}
		last = tag
		typ := binary.LittleEndian.Uint16(e[2:])
		count := binary.LittleEndian.Uint32(e[4:])
		size := sizes[typ] * count
		value := e[8:12]
		if size > 4 {
			p := binary.LittleEndian.Uint32(value)
			value = data[p : p+size]
		} else {
			value = value[:size]
		}
		fields[tag] = tiffField{typ: typ, count: count, data: value}
	}
	return fields
}

func (f tiffField) shorts() []uint16 {
	out := make([]uint16, f.count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(f.data[2*i:])
	}
	return out
}

func (f tiffField) long() uint32 {
	return binary.LittleEndian.Uint32(f.data)
}

func (f tiffField) doubles() []float64 {
	out := make([]float64, f.count)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(f.data[8*i:]))
	}
	return out
}

func (f tiffField) ascii() string {
	return strings.TrimRight(string(f.data), "\x00")
}

// geoKeys returns key ID -> value for keys stored inline.
func geoKeys(f tiffField) map[uint16]uint16 {
	dir := f.shorts()
	keys := make(map[uint16]uint16)
	for i := 0; i < int(dir[3]); i++ {
		k := dir[4+4*i : 8+4*i]
		keys[k[0]] = k[3]
	}
	return keys
}

func strPtr(s string) *string { return &s }

func sampleGrid(crs *string) *models.ElevationGrid {
	noData := -9999.0
	return &models.ElevationGrid{
		Metadata: models.GridMetadata{
			Width: 3, Height: 2,
			XMin: 139.0, YMax: 36.0,
			CellSizeX: 0.001, CellSizeY: 0.0005,
			NoDataValue: &noData,
			CRS:         crs,
			MeshCode:    strPtr("53394611"),
		},
		Values: []float32{1, 2, 3, 4, -9999, 6.5},
	}
}

func stripBytes(t *testing.T, data []byte, fields map[uint16]tiffField) []byte {
	t.Helper()
	off := fields[tagStripOffsets].long()
	n := fields[tagStripByteCounts].long()
	strip := data[off : off+n]
	if fields[tagCompression].shorts()[0] == compressionDeflate {
		zr, err := zlib.NewReader(bytes.NewReader(strip))
		if err != nil {
			t.Fatalf("zlib.NewReader failed: %v", err)
		}
		defer zr.Close()
		if strip, err = io.ReadAll(zr); err != nil {
			t.Fatalf("inflating strip: %v", err)
		}
	}
	return strip
}

func TestWriteGeoTIFF(t *testing.T) {
	for _, compress := range []bool{false, true} {
		g := sampleGrid(strPtr("EPSG:4612"))
		var buf bytes.Buffer
		if err := WriteGeoTIFF(&buf, g, Options{Compress: compress}); err != nil {
			t.Fatalf("WriteGeoTIFF failed: %v", err)
		}
		data := buf.Bytes()
		fields := readTIFF(t, data)

		if w, h := fields[tagImageWidth].long(), fields[tagImageLength].long(); w != 3 || h != 2 {
			t.Errorf("size = %dx%d, expected 3x2", w, h)
		}
		if diff := cmp.Diff([]uint16{32}, fields[tagBitsPerSample].shorts()); diff != "" {
			t.Errorf("BitsPerSample mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]uint16{sampleFormatFloat}, fields[tagSampleFormat].shorts()); diff != "" {
			t.Errorf("SampleFormat mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]float64{0.001, 0.0005, 0}, fields[tagModelPixelScale].doubles()); diff != "" {
			t.Errorf("ModelPixelScale mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]float64{0, 0, 0, 139, 36, 0}, fields[tagModelTiepoint].doubles()); diff != "" {
			t.Errorf("ModelTiepoint mismatch (-want +got):\n%s", diff)
		}
		if got := fields[tagGDALNoData].ascii(); got != "-9999" {
			t.Errorf("GDAL_NODATA = %q, expected -9999", got)
		}
		if got := fields[tagGDALMetadata].ascii(); !strings.Contains(got, `<Item name="MESHCODE">53394611</Item>`) {
			t.Errorf("GDAL_METADATA = %q, expected a MESHCODE item", got)
		}

		strip := stripBytes(t, data, fields)
		values := make([]float32, len(strip)/4)
		for i := range values {
			values[i] = math.Float32frombits(binary.LittleEndian.Uint32(strip[4*i:]))
		}
		if diff := cmp.Diff(g.Values, values); diff != "" {
			t.Errorf("compress=%v pixel mismatch (-want +got):\n%s", compress, diff)
		}
	}
}

func TestWriteGeoTIFFGeoKeys(t *testing.T) {
	tests := []struct {
		name     string
		crs      *string
		expected map[uint16]uint16
		ascii    string
	}{
		{"geographic", strPtr("EPSG:4326"), map[uint16]uint16{
			keyGTModelType: modelTypeGeographic, keyGTRasterType: rasterPixelIsArea, keyGeographicType: 4326,
		}, ""},
		{"projected", strPtr("EPSG:6677"), map[uint16]uint16{
			keyGTModelType: modelTypeProjected, keyGTRasterType: rasterPixelIsArea, keyProjectedCSType: 6677,
		}, ""},
		{"citation", strPtr("fguuid:jgd2011.bl"), map[uint16]uint16{
			keyGTRasterType: rasterPixelIsArea, keyGTCitation: 0,
		}, "fguuid:jgd2011.bl|"},
		{"none", nil, map[uint16]uint16{keyGTRasterType: rasterPixelIsArea}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteGeoTIFF(&buf, sampleGrid(tt.crs), Options{}); err != nil {
				t.Fatalf("WriteGeoTIFF failed: %v", err)
			}
			fields := readTIFF(t, buf.Bytes())
			if diff := cmp.Diff(tt.expected, geoKeys(fields[tagGeoKeyDirectory])); diff != "" {
				t.Errorf("geo keys mismatch (-want +got):\n%s", diff)
			}
			ascii, ok := fields[tagGeoAsciiParams]
			if tt.ascii == "" && ok {
				t.Errorf("unexpected GeoAsciiParams %q", ascii.ascii())
			}
			if tt.ascii != "" && ascii.ascii() != tt.ascii {
				t.Errorf("GeoAsciiParams = %q, expected %q", ascii.ascii(), tt.ascii)
			}
		})
	}
}

func TestWriteGeoTIFFWithoutNoData(t *testing.T) {
	g := sampleGrid(nil)
	g.Metadata.NoDataValue = nil
	g.Metadata.MeshCode = nil

	var buf bytes.Buffer
	if err := WriteGeoTIFF(&buf, g, Options{}); err != nil {
		t.Fatalf("WriteGeoTIFF failed: %v", err)
	}
	fields := readTIFF(t, buf.Bytes())
	if _, ok := fields[tagGDALNoData]; ok {
		t.Error("GDAL_NODATA written for a grid without a no-data value")
	}
	if _, ok := fields[tagGDALMetadata]; ok {
		t.Error("GDAL_METADATA written for a grid without mesh code")
	}
}

func TestWriteGeoTIFFRejectsInconsistentGrid(t *testing.T) {
	g := sampleGrid(nil)
	g.Values = g.Values[:5]
	if err := WriteGeoTIFF(io.Discard, g, Options{}); err == nil {
		t.Error("expected an error for a short value slice")
	}
}

func TestClassifyCRS(t *testing.T) {
	tests := []struct {
		crs      *string
		kind     CRSKind
		code     uint16
		citation string
	}{
		{strPtr("EPSG:4326"), CRSGeographic, 4326, ""},
		{strPtr("epsg:4612"), CRSGeographic, 4612, ""},
		{strPtr("EPSG:4000"), CRSGeographic, 4000, ""},
		{strPtr("EPSG:4999"), CRSGeographic, 4999, ""},
		{strPtr("EPSG:5000"), CRSProjected, 5000, ""},
		{strPtr("EPSG:3999"), CRSProjected, 3999, ""},
		{strPtr("EPSG:6668"), CRSProjected, 6668, ""},
		{strPtr("EPSG:abc"), CRSCitation, 0, "EPSG:abc"},
		{strPtr("EPSG:70000"), CRSCitation, 0, "EPSG:70000"},
		{strPtr("fguuid:jgd2011.bl"), CRSCitation, 0, "fguuid:jgd2011.bl"},
		{strPtr(""), CRSUnknown, 0, ""},
		{nil, CRSUnknown, 0, ""},
	}

	for _, tt := range tests {
		kind, code, citation := ClassifyCRS(tt.crs)
		if kind != tt.kind || code != tt.code || citation != tt.citation {
			name := "<nil>"
			if tt.crs != nil {
				name = *tt.crs
			}
			t.Errorf("ClassifyCRS(%q) = %v, %d, %q, expected %v, %d, %q",
				name, kind, code, citation, tt.kind, tt.code, tt.citation)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		suffix   string
		wantErr  bool
	}{
		{"", FormatGeoTIFF, ".tif", false},
		{"GeoTIFF", FormatGeoTIFF, ".tif", false},
		{"terrain-rgb", FormatTerrainRGB, "_terrain_rgb.tif", false},
		{"png", FormatGeoTIFF, ".tif", true},
	}

	for _, tt := range tests {
		result, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if result != tt.expected || result.Suffix() != tt.suffix {
			t.Errorf("ParseFormat(%q) = %v (%s), expected %v (%s)",
				tt.input, result, result.Suffix(), tt.expected, tt.suffix)
		}
	}
}
