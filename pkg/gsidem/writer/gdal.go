//go:build gdal

package writer

import (
	"fmt"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/models"
)

func init() {
	gdalWriter = WriteGDAL
}

// WriteGDAL writes g as a Float32 GeoTIFF through the GDAL GTiff driver.
func WriteGDAL(path string, g *models.ElevationGrid, opts Options) error {
	if err := checkGrid(g); err != nil {
		return err
	}
	m := g.Metadata

	driver, err := gdal.GetDriverByName("GTiff")
	if err != nil {
		return err
	}
	var createOpts []string
	if opts.Compress {
		createOpts = append(createOpts, "COMPRESS=DEFLATE")
	}
	ds := driver.Create(path, m.Width, m.Height, 1, gdal.Float32, createOpts)
	defer ds.Close()

	if err := ds.SetGeoTransform(m.GeoTransform()); err != nil {
		return fmt.Errorf("setting geotransform: %w", err)
	}

	kind, code, citation := ClassifyCRS(m.CRS)
	switch kind {
	case CRSGeographic, CRSProjected:
		srs := gdal.CreateSpatialReference("")
		defer srs.Destroy()
		if err := srs.FromEPSG(int(code)); err != nil {
			return fmt.Errorf("EPSG:%d: %w", code, err)
		}
		wkt, err := srs.ToWKT()
		if err != nil {
			return err
		}
		if err := ds.SetProjection(wkt); err != nil {
			return fmt.Errorf("setting projection: %w", err)
		}
	case CRSCitation:
		opts.logger().Warn("CRS is not an EPSG code, leaving projection unset", zap.String("crs", citation))
	}

	if m.MeshCode != nil {
		ds.SetMetadataItem("MESHCODE", *m.MeshCode, "")
	}
	if m.DemType != nil {
		ds.SetMetadataItem("DEM_TYPE", *m.DemType, "")
	}

	band := ds.RasterBand(1)
	if m.NoDataValue != nil {
		if err := band.SetNoDataValue(*m.NoDataValue); err != nil {
			return err
		}
	}
	return band.IO(gdal.Write, 0, 0, m.Width, m.Height, g.Values, m.Width, m.Height, 0, 0)
}
