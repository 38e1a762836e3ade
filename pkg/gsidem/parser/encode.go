package parser

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/models"
)

const (
	jpgisNamespace = "http://fgd.gsi.go.jp/spec/2008/FGD_Dataset"
	gmlNamespace   = "http://www.opengis.net/gml/3.2"
)

// EncodeJPGIS renders a grid as a JPGIS RectifiedGrid document that Parse reads back with identical
// geometry. Values are written one row per line.
func EncodeJPGIS(g *models.ElevationGrid) ([]byte, error) {
	m := g.Metadata

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("Dataset")
	root.CreateAttr("xmlns", jpgisNamespace)
	root.CreateAttr("xmlns:gml", gmlNamespace)

	dem := root.CreateElement("DEM")
	if m.MeshCode != nil {
		dem.CreateElement("mesh").SetText(*m.MeshCode)
	}
	if m.CRS != nil {
		if code, ok := strings.CutPrefix(*m.CRS, "EPSG:"); ok {
			ref := dem.CreateElement("spatialReferenceInfo").CreateElement("SpatialReference")
			ref.CreateAttr("system", "urn:ogc:def:crs:EPSG::"+code)
		} else {
			env := dem.CreateElement("gml:boundedBy").CreateElement("gml:Envelope")
			env.CreateAttr("srsName", *m.CRS)
		}
	}
	if m.NoDataValue != nil {
		dem.CreateElement("gml:nilValues").SetText(formatFloat(*m.NoDataValue))
	}

	grid := dem.CreateElement("gml:RectifiedGrid")
	grid.CreateAttr("dimension", "2")
	env := grid.CreateElement("gml:limits").CreateElement("gml:GridEnvelope")
	env.CreateElement("gml:low").SetText("0 0")
	env.CreateElement("gml:high").SetText(strconv.Itoa(m.Width-1) + " " + strconv.Itoa(m.Height-1))
	grid.CreateElement("gml:origin").CreateElement("gml:Point").CreateElement("gml:pos").
		SetText(formatFloat(m.YMax) + " " + formatFloat(m.XMin))
	grid.CreateElement("gml:offsetVector").SetText(formatFloat(m.CellSizeX) + " 0")
	grid.CreateElement("gml:offsetVector").SetText("0 " + formatFloat(-m.CellSizeY))

	block := dem.CreateElement("gml:Coverage").CreateElement("gml:rangeSet").CreateElement("gml:DataBlock")
	block.CreateElement("gml:tupleList").SetText(formatRows(g))

	doc.Indent(2)
	return doc.WriteToBytes()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatRows(g *models.ElevationGrid) string {
	var b strings.Builder
	b.WriteByte('\n')
	width := g.Metadata.Width
	for i, v := range g.Values {
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
		if (i+1)%width == 0 {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
