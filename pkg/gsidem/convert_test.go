package gsidem

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/models"
	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/output"
	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/parser"
)

func tileDoc(t *testing.T, xMin, yMax float64, mesh string) []byte {
	t.Helper()
	crs := "EPSG:6668"
	noData := -9999.0
	g := &models.ElevationGrid{
		Metadata: models.GridMetadata{
			Width: 2, Height: 2,
			XMin: xMin, YMax: yMax,
			CellSizeX: 0.5, CellSizeY: 0.5,
			NoDataValue: &noData,
			CRS:         &crs,
		},
		Values: []float32{1, 2, 3, 4},
	}
	if mesh != "" {
		g.Metadata.MeshCode = &mesh
	}
	data, err := parser.EncodeJPGIS(g)
	if err != nil {
		t.Fatalf("EncodeJPGIS failed: %v", err)
	}
	return data
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func writeZip(t *testing.T, path string, members map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, data := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func documentPaths(in *Inputs) []string {
	var paths []string
	for _, d := range in.Documents {
		paths = append(paths, d.Path)
	}
	return paths
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	doc := tileDoc(t, 139, 36, "a")
	writeFile(t, filepath.Join(dir, "b.xml"), doc)
	writeFile(t, filepath.Join(dir, "nested", "a.XML"), doc)
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("skip"))
	zipPath := filepath.Join(dir, "c.zip")
	writeZip(t, zipPath, map[string][]byte{
		"FG-GML-2.xml": doc,
		"FG-GML-1.xml": doc,
		"readme.txt":   []byte("skip"),
	})

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"xml", filepath.Join(dir, "b.xml"), []string{filepath.Join(dir, "b.xml")}},
		{"zip", zipPath, []string{zipPath + "!FG-GML-1.xml", zipPath + "!FG-GML-2.xml"}},
		{"directory", dir, []string{
			filepath.Join(dir, "b.xml"),
			zipPath + "!FG-GML-1.xml",
			zipPath + "!FG-GML-2.xml",
			filepath.Join(dir, "nested", "a.XML"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Discover(tt.input)
			if err != nil {
				t.Fatalf("Discover failed: %v", err)
			}
			defer in.Close()
			if diff := cmp.Diff(tt.expected, documentPaths(in)); diff != "" {
				t.Errorf("documents mismatch (-want +got):\n%s", diff)
			}
			for _, d := range in.Documents {
				data, err := d.Read()
				if err != nil {
					t.Errorf("Read(%s) failed: %v", d.Path, err)
				} else if string(data) != string(doc) {
					t.Errorf("Read(%s) returned different content", d.Path)
				}
			}
		})
	}
}

func TestDiscoverErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("x"))
	empty := filepath.Join(dir, "empty")
	if err := os.Mkdir(empty, 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		input string
		err   error
	}{
		{filepath.Join(dir, "missing.xml"), ErrInputNotFound},
		{filepath.Join(dir, "notes.txt"), ErrUnsupportedInput},
		{empty, ErrNoDocuments},
	}

	for _, tt := range tests {
		if _, err := Discover(tt.input); !errors.Is(err, tt.err) {
			t.Errorf("Discover(%s) error = %v, expected %v", tt.input, err, tt.err)
		}
	}
}

func TestConvertDirectory(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	writeFile(t, filepath.Join(in, "west.xml"), tileDoc(t, 139, 36, "5339"))
	writeFile(t, filepath.Join(in, "east.xml"), tileDoc(t, 140, 36, ""))
	writeFile(t, filepath.Join(in, "broken.xml"), []byte("<Dataset><DEM></DEM></Dataset>"))

	opts := DefaultOptions()
	opts.OutputDir = out
	opts.Workers = 2
	opts.Sidecar = output.SidecarJSON
	opts.Preview = true
	opts.ReportPath = filepath.Join(out, "report.xlsx")
	opts.Logger = zaptest.NewLogger(t)

	summary, err := Convert(context.Background(), in, opts)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(summary.Results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(summary.Results))
	}

	failed := summary.Failed()
	if len(failed) != 1 || !strings.HasSuffix(failed[0].Source, "broken.xml") {
		t.Fatalf("Expected broken.xml to fail, got %+v", failed)
	}
	if !strings.Contains(failed[0].Err, "parse failed") {
		t.Errorf("Unexpected failure message: %s", failed[0].Err)
	}

	for _, name := range []string{"5339.tif", "5339.json", "5339.png", "east.tif", "east.json", "east.png", "report.xlsx"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("Expected output %s: %v", name, err)
		}
	}
}

func TestConvertMerge(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "FG-GML-5339-DEM5A.zip")
	writeZip(t, zipPath, map[string][]byte{
		"west.xml": tileDoc(t, 139, 36, "533900"),
		"east.xml": tileDoc(t, 140, 36, "533901"),
	})
	out := filepath.Join(dir, "out")

	opts := DefaultOptions()
	opts.OutputDir = out
	opts.Merge = true

	summary, err := Convert(context.Background(), zipPath, opts)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	expected := filepath.Join(out, "FG-GML-5339-DEM5A.tif")
	if summary.Merged != expected {
		t.Errorf("Merged = %q, expected %q", summary.Merged, expected)
	}
	if _, err := os.Stat(expected); err != nil {
		t.Errorf("merged raster missing: %v", err)
	}
	for _, r := range summary.Results {
		if len(r.Outputs) != 0 {
			t.Errorf("%s: per-tile outputs written while merging: %v", r.Source, r.Outputs)
		}
	}
}

func TestConvertMergeIncompatible(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.xml"), tileDoc(t, 139, 36, "a"))
	writeFile(t, filepath.Join(dir, "b.xml"), tileDoc(t, 139.25, 36, "b"))

	opts := DefaultOptions()
	opts.OutputDir = filepath.Join(dir, "out")
	opts.Merge = true

	summary, err := Convert(context.Background(), dir, opts)
	var cerr *ConversionError
	if !errors.As(err, &cerr) || cerr.Stage != StageMerge {
		t.Fatalf("expected a merge ConversionError, got %v", err)
	}
	if summary == nil || summary.Merged != "" {
		t.Errorf("summary = %+v, expected results without a merged path", summary)
	}
}

func TestConvertDuplicateMeshCodes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "dem5a.xml"), tileDoc(t, 139, 36, "5339"))
	writeFile(t, filepath.Join(dir, "dem5b.xml"), tileDoc(t, 139, 36, "5339"))

	opts := DefaultOptions()
	opts.OutputDir = filepath.Join(dir, "out")
	opts.Workers = 1

	summary, err := Convert(context.Background(), dir, opts)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	seen := make(map[string]bool)
	for _, r := range summary.Results {
		for _, o := range r.Outputs {
			if seen[o] {
				t.Errorf("output %s written twice", o)
			}
			seen[o] = true
		}
	}
	if len(seen) != 2 {
		t.Errorf("Expected 2 distinct outputs, got %v", seen)
	}
}

func TestConvertCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.xml"), tileDoc(t, 139, 36, "a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := DefaultOptions()
	opts.OutputDir = filepath.Join(dir, "out")

	if _, err := Convert(ctx, dir, opts); !errors.Is(err, context.Canceled) {
		t.Errorf("Convert error = %v, expected context.Canceled", err)
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.xml"), tileDoc(t, 139, 36, "5339"))
	writeFile(t, filepath.Join(dir, "z.xml"), []byte("<Dataset>"))

	inspections, err := Inspect(dir, DefaultOptions())
	var cerr *ConversionError
	if !errors.As(err, &cerr) || cerr.Stage != StageParse {
		t.Errorf("expected a parse ConversionError, got %v", err)
	}
	if len(inspections) != 1 {
		t.Fatalf("Expected 1 inspection, got %d", len(inspections))
	}
	in := inspections[0]
	if in.Dialect != "jpgis" || in.ValidCells != 4 || *in.MinElevation != 1 || *in.MaxElevation != 4 {
		t.Errorf("Unexpected inspection: %+v", in)
	}
}

func TestShouldWriteTiles(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		merge    bool
		tiles    *bool
		expected bool
	}{
		{false, nil, true},
		{true, nil, false},
		{true, &yes, true},
		{false, &no, false},
	}

	for _, tt := range tests {
		opts := Options{Merge: tt.merge, WriteTiles: tt.tiles}
		if result := opts.ShouldWriteTiles(); result != tt.expected {
			t.Errorf("ShouldWriteTiles(merge=%v, tiles=%v) = %v, expected %v", tt.merge, tt.tiles, result, tt.expected)
		}
	}
}
