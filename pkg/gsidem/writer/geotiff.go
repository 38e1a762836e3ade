package writer

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/klauspost/compress/zlib"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/models"
)

// TIFF tags written by this package.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagPlanarConfig    = 284
	tagSampleFormat    = 339
	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922
	tagGeoKeyDirectory = 34735
	tagGeoAsciiParams  = 34737
	tagGDALMetadata    = 42112
	tagGDALNoData      = 42113
)

// TIFF field types.
const (
	typeASCII  = 2
	typeShort  = 3
	typeLong   = 4
	typeDouble = 12
)

const (
	compressionNone    = 1
	compressionDeflate = 8

	photometricBlackIsZero = 1
	photometricRGB         = 2

	sampleFormatUint  = 1
	sampleFormatFloat = 3
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func shortEntry(tag uint16, values ...uint16) ifdEntry {
	data := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(data[2*i:], v)
	}
	return ifdEntry{tag: tag, typ: typeShort, count: uint32(len(values)), data: data}
}

func longEntry(tag uint16, values ...uint32) ifdEntry {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], v)
	}
	return ifdEntry{tag: tag, typ: typeLong, count: uint32(len(values)), data: data}
}

func doubleEntry(tag uint16, values ...float64) ifdEntry {
	data := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(data[8*i:], math.Float64bits(v))
	}
	return ifdEntry{tag: tag, typ: typeDouble, count: uint32(len(values)), data: data}
}

func asciiEntry(tag uint16, s string) ifdEntry {
	data := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: typeASCII, count: uint32(len(data)), data: data}
}

// raster is an uncompressed single-strip image ready for encoding.
type raster struct {
	width, height int
	samples       int
	bits          uint16
	format        uint16
	photometric   uint16
	pixels        []byte
}

// WriteGeoTIFF encodes g as a single-band Float32 GeoTIFF.
func WriteGeoTIFF(w io.Writer, g *models.ElevationGrid, opts Options) error {
	if err := checkGrid(g); err != nil {
		return err
	}
	pixels := make([]byte, 4*len(g.Values))
	for i, v := range g.Values {
		binary.LittleEndian.PutUint32(pixels[4*i:], math.Float32bits(v))
	}
	r := raster{
		width:       g.Metadata.Width,
		height:      g.Metadata.Height,
		samples:     1,
		bits:        32,
		format:      sampleFormatFloat,
		photometric: photometricBlackIsZero,
		pixels:      pixels,
	}
	return encodeTIFF(w, r, g.Metadata, true, opts)
}

func checkGrid(g *models.ElevationGrid) error {
	m := g.Metadata
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("invalid grid size %dx%d", m.Width, m.Height)
	}
	if len(g.Values) != m.Cells() {
		return fmt.Errorf("grid has %d values for %dx%d cells", len(g.Values), m.Width, m.Height)
	}
	return nil
}

func encodeTIFF(w io.Writer, r raster, m models.GridMetadata, withNoData bool, opts Options) error {
	strip := r.pixels
	compression := uint16(compressionNone)
	if opts.Compress {
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.DefaultCompression)
		if err != nil {
			return err
		}
		if _, err := zw.Write(r.pixels); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		strip = buf.Bytes()
		compression = compressionDeflate
	}

	bits := make([]uint16, r.samples)
	formats := make([]uint16, r.samples)
	for i := range bits {
		bits[i] = r.bits
		formats[i] = r.format
	}

	kind, code, citation := ClassifyCRS(m.CRS)
	keys, ascii := geoKeyDirectory(kind, code, citation)

	entries := []ifdEntry{
		longEntry(tagImageWidth, uint32(r.width)),
		longEntry(tagImageLength, uint32(r.height)),
		shortEntry(tagBitsPerSample, bits...),
		shortEntry(tagCompression, compression),
		shortEntry(tagPhotometric, r.photometric),
		longEntry(tagStripOffsets, 0),
		shortEntry(tagSamplesPerPixel, uint16(r.samples)),
		longEntry(tagRowsPerStrip, uint32(r.height)),
		longEntry(tagStripByteCounts, uint32(len(strip))),
		shortEntry(tagPlanarConfig, 1),
		shortEntry(tagSampleFormat, formats...),
		doubleEntry(tagModelPixelScale, m.CellSizeX, m.CellSizeY, 0),
		doubleEntry(tagModelTiepoint, 0, 0, 0, m.XMin, m.YMax, 0),
		shortEntry(tagGeoKeyDirectory, keys...),
	}
	if ascii != "" {
		entries = append(entries, asciiEntry(tagGeoAsciiParams, ascii))
	}
	if md := gdalMetadata(m); md != "" {
		entries = append(entries, asciiEntry(tagGDALMetadata, md))
	}
	if withNoData && m.NoDataValue != nil {
		entries = append(entries, asciiEntry(tagGDALNoData, strconv.FormatFloat(*m.NoDataValue, 'g', -1, 64)))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	// header, IFD, out-of-line values, strip
	ifdSize := 2 + 12*len(entries) + 4
	offset := 8 + ifdSize
	var extra bytes.Buffer
	valueOffsets := make([]uint32, len(entries))
	for i, e := range entries {
		if len(e.data) <= 4 {
			continue
		}
		valueOffsets[i] = uint32(offset + extra.Len())
		extra.Write(e.data)
		if extra.Len()%2 == 1 {
			extra.WriteByte(0)
		}
	}
	stripOffset := offset + extra.Len()
	if uint64(stripOffset)+uint64(len(strip)) > math.MaxUint32 {
		return fmt.Errorf("raster of %d bytes exceeds the classic TIFF size limit", len(strip))
	}

	var out bytes.Buffer
	out.Grow(stripOffset + len(strip))
	out.WriteString("II")
	writeLE(&out, uint16(42), uint32(8), uint16(len(entries)))
	for i, e := range entries {
		writeLE(&out, e.tag, e.typ, e.count)
		var value [4]byte
		switch {
		case e.tag == tagStripOffsets:
			binary.LittleEndian.PutUint32(value[:], uint32(stripOffset))
		case len(e.data) <= 4:
			copy(value[:], e.data)
		default:
			binary.LittleEndian.PutUint32(value[:], valueOffsets[i])
		}
		out.Write(value[:])
	}
	writeLE(&out, uint32(0))
	out.Write(extra.Bytes())
	out.Write(strip)

	_, err := w.Write(out.Bytes())
	return err
}

func writeLE(buf *bytes.Buffer, values ...any) {
	for _, v := range values {
		// bytes.Buffer writes never fail
		_ = binary.Write(buf, binary.LittleEndian, v)
	}
}

// gdalMetadata renders the GDAL_METADATA XML for the mesh code and DEM type, or "" when neither is set.
func gdalMetadata(m models.GridMetadata) string {
	var items [][2]string
	if m.MeshCode != nil && *m.MeshCode != "" {
		items = append(items, [2]string{"MESHCODE", *m.MeshCode})
	}
	if m.DemType != nil && *m.DemType != "" {
		items = append(items, [2]string{"DEM_TYPE", *m.DemType})
	}
	if len(items) == 0 {
		return ""
	}
	var b bytes.Buffer
	b.WriteString("<GDALMetadata>\n")
	for _, item := range items {
		b.WriteString(`  <Item name="` + item[0] + `">`)
		_ = xml.EscapeText(&b, []byte(item[1]))
		b.WriteString("</Item>\n")
	}
	b.WriteString("</GDALMetadata>")
	return b.String()
}
