// Package main provides the CLI entry point for gsidem.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem"
	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/output"
	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/parser"
	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/writer"
)

// errFailedInputs is returned when at least one document could not be converted.
var errFailedInputs = errors.New("some inputs failed to convert")

// convertFlags holds the flag values shared by the root and inspect commands.
type convertFlags struct {
	configPath      string
	outputDir       string
	workers         int
	format          string
	terrainRGB      bool
	compress        bool
	merge           bool
	tiles           bool
	tilesSet        bool
	sidecar         string
	report          string
	summaryJSON     string
	preview         bool
	dialect         string
	cornerAxisOrder string
	minElevation    float32
	minSet          bool
	maxElevation    float32
	maxSet          bool
	gdal            bool
	logLevel        string
	logFormat       string

	pretty     bool
	inspectOut string
}

var flags convertFlags

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gsidem [input.xml|input.zip|dir]",
		Short: "Convert GSI DEM XML to GeoTIFF",
		Long: `gsidem converts Japanese GSI digital elevation model documents (JPGIS / FG-GML)
into GeoTIFF or Terrain-RGB rasters. The input may be one XML file, a zip archive
or a directory searched recursively for both.`,
		Args:          cobra.ExactArgs(1),
		RunE:          runConvert,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "HCL config file")
	pf.StringVar(&flags.dialect, "dialect", "auto", "Document dialect: auto, jpgis, fgd")
	pf.StringVar(&flags.cornerAxisOrder, "corner-axis-order", "lat-lon", "Axis order of FG-GML envelope corners: lat-lon, lon-lat")
	pf.IntVarP(&flags.workers, "workers", "j", 0, "Documents processed in parallel (default: number of CPUs)")
	pf.StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "console", "Log format: console, json")

	f := rootCmd.Flags()
	f.StringVarP(&flags.outputDir, "output", "o", "output", "Output directory")
	f.StringVar(&flags.format, "format", "geotiff", "Raster format: geotiff, terrain-rgb")
	f.BoolVar(&flags.terrainRGB, "terrain-rgb", false, "Shorthand for --format terrain-rgb")
	f.BoolVar(&flags.compress, "compress", false, "Deflate-compress raster data")
	f.BoolVar(&flags.merge, "merge", false, "Merge all tiles into one raster named after the input")
	f.BoolVar(&flags.tiles, "tiles", false, "Also write per-tile rasters when merging")
	f.StringVar(&flags.sidecar, "sidecar", "none", "Metadata sidecar per raster: none, json, msgpack")
	f.StringVar(&flags.report, "report", "", "Write an XLSX report of the batch to this path")
	f.StringVar(&flags.summaryJSON, "summary-json", "", "Write the batch summary as JSON to this path")
	f.BoolVar(&flags.preview, "preview", false, "Write a color-relief PNG per raster")
	f.Float32Var(&flags.minElevation, "min-elevation", 0, "Clamp Terrain-RGB heights below this value")
	f.Float32Var(&flags.maxElevation, "max-elevation", 0, "Clamp Terrain-RGB heights above this value")
	f.BoolVar(&flags.gdal, "gdal", false, "Write GeoTIFF through GDAL (binary built with -tags gdal)")

	rootCmd.AddCommand(newInspectCmd())
	return rootCmd
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [input.xml|input.zip|dir]",
		Short: "Print the grid metadata of each document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	cmd.Flags().BoolVar(&flags.pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().StringVarP(&flags.inspectOut, "output", "o", "", "Output file path (default: stdout)")
	return cmd
}

// setup applies the config file and builds the logger and batch options.
func setup(cmd *cobra.Command) (gsidem.Options, *zap.Logger, error) {
	opts := gsidem.DefaultOptions()
	if flags.configPath != "" {
		cfg, err := loadConfig(flags.configPath)
		if err != nil {
			return opts, nil, err
		}
		cfg.apply(cmd.Flags(), &flags)
	}
	if cmd.Flags().Changed("tiles") {
		flags.tilesSet = true
	}
	if cmd.Flags().Changed("min-elevation") {
		flags.minSet = true
	}
	if cmd.Flags().Changed("max-elevation") {
		flags.maxSet = true
	}

	log, err := newLogger(flags.logLevel, flags.logFormat, zapcore.Lock(os.Stderr))
	if err != nil {
		return opts, nil, err
	}

	if opts.Dialect, err = parser.ParseDialect(flags.dialect); err != nil {
		return opts, nil, err
	}
	if opts.CornerAxisOrder, err = parser.ParseAxisOrder(flags.cornerAxisOrder); err != nil {
		return opts, nil, err
	}
	if opts.Format, err = writer.ParseFormat(flags.format); err != nil {
		return opts, nil, err
	}
	if flags.terrainRGB {
		opts.Format = writer.FormatTerrainRGB
	}
	if opts.Sidecar, err = output.ParseSidecarFormat(flags.sidecar); err != nil {
		return opts, nil, err
	}
	if flags.gdal && !writer.GDALAvailable() {
		return opts, nil, writer.ErrNoGDAL
	}

	opts.OutputDir = flags.outputDir
	opts.Workers = flags.workers
	opts.Compress = flags.compress
	opts.Merge = flags.merge
	if flags.tilesSet {
		tiles := flags.tiles
		opts.WriteTiles = &tiles
	}
	opts.ReportPath = flags.report
	opts.Preview = flags.preview
	if flags.minSet {
		v := flags.minElevation
		opts.MinElevation = &v
	}
	if flags.maxSet {
		v := flags.maxElevation
		opts.MaxElevation = &v
	}
	opts.UseGDAL = flags.gdal
	opts.Logger = log
	return opts, log, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	opts, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, err := gsidem.Convert(ctx, args[0], opts)
	if summary != nil {
		printSummary(cmd.OutOrStdout(), summary)
		if flags.summaryJSON != "" {
			if werr := writeSummaryJSON(flags.summaryJSON, summary); werr != nil {
				return werr
			}
		}
	}
	if err != nil {
		return err
	}
	if len(summary.Failed()) > 0 {
		return errFailedInputs
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	opts, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	inspections, inspectErr := gsidem.Inspect(args[0], opts)
	if inspectErr != nil && len(inspections) == 0 {
		return inspectErr
	}

	jsonData, err := output.ToJSON(inspections, flags.pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	if flags.inspectOut != "" {
		if err := os.WriteFile(flags.inspectOut, jsonData, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
	}
	return inspectErr
}
