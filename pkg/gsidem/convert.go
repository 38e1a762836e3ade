package gsidem

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/merge"
	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/models"
	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/output"
	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/parser"
	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/report"
	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/writer"
)

// converter holds the state shared by the workers of one batch.
type converter struct {
	opts Options
	log  *zap.Logger

	mu    sync.Mutex
	names map[string]bool
}

// Convert discovers the documents under input, converts them on a bounded worker pool and, when
// requested, merges them and writes a report. A failing document does not stop the batch; it is
// recorded in the summary. The returned error covers discovery, cancellation, merge and report failures.
func Convert(ctx context.Context, input string, opts Options) (*models.Summary, error) {
	log := opts.logger()
	in, err := Discover(input)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating output directory %s", opts.OutputDir)
	}

	c := &converter{opts: opts, log: log, names: make(map[string]bool)}
	n := len(in.Documents)
	results := make([]models.TileResult, n)
	grids := make([]*models.ElevationGrid, n)

	log.Info("converting documents", zap.String("input", input), zap.Int("documents", n), zap.Int("workers", opts.workers()))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i, doc := range in.Documents {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			grid, result := c.convert(doc)
			results[i] = result
			if opts.Merge {
				grids[i] = grid
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &models.Summary{Results: results}
	var batchErr error
	if opts.Merge {
		path, err := c.mergeAll(in.Name, grids)
		if err != nil {
			batchErr = multierr.Append(batchErr, err)
		}
		summary.Merged = path
	}
	if opts.ReportPath != "" {
		if err := report.Write(opts.ReportPath, summary); err != nil {
			batchErr = multierr.Append(batchErr, errors.Wrapf(err, "writing report %s", opts.ReportPath))
		}
	}

	log.Info("batch finished", zap.Int("documents", n), zap.Int("failed", len(summary.Failed())))
	return summary, batchErr
}

// convert reads, parses and writes one document. The grid is nil when parsing failed.
func (c *converter) convert(doc Document) (*models.ElevationGrid, models.TileResult) {
	log := c.log.With(zap.String("source", doc.Path))
	result := models.TileResult{Source: doc.Path}
	fail := func(stage Stage, err error) (*models.ElevationGrid, models.TileResult) {
		cerr := NewConversionError(doc.Path, stage, err)
		log.Error("conversion failed", zap.String("stage", string(stage)), zap.Error(err))
		result.Err = cerr.Error()
		return nil, result
	}

	data, err := doc.Read()
	if err != nil {
		return fail(StageRead, err)
	}
	grid, err := parser.Parse(data, c.opts.parserOptions(log))
	if err != nil {
		return fail(StageParse, err)
	}
	meta := grid.Metadata
	result.Metadata = &meta

	if c.opts.ShouldWriteTiles() {
		outputs, err := c.writeOutputs(c.claimName(meta.Name(doc.Stem), doc.Stem), grid, log)
		result.Outputs = outputs
		if err != nil {
			return fail(StageWrite, err)
		}
	}
	log.Info("converted document", zap.Int("width", meta.Width), zap.Int("height", meta.Height),
		zap.Strings("outputs", result.Outputs))
	return grid, result
}

// claimName reserves an output base name. Two documents with the same mesh code (for example the 5A
// and 5B products of one mesh) fall back to their own file stems.
func (c *converter) claimName(name, fallback string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.names[name] {
		name = name + "_" + fallback
	}
	c.names[name] = true
	return name
}

// writeOutputs writes the raster and optional sidecar and preview for one grid.
func (c *converter) writeOutputs(name string, grid *models.ElevationGrid, log *zap.Logger) ([]string, error) {
	var outputs []string
	rasterPath := filepath.Join(c.opts.OutputDir, name+c.opts.Format.Suffix())
	if err := writer.WriteFile(rasterPath, grid, c.opts.Format, c.opts.writerOptions(log)); err != nil {
		return outputs, errors.Wrapf(err, "writing %s", rasterPath)
	}
	outputs = append(outputs, rasterPath)

	if c.opts.Sidecar != output.SidecarNone && c.opts.Sidecar != "" {
		path := filepath.Join(c.opts.OutputDir, name+c.opts.Sidecar.Ext())
		if err := output.WriteSidecar(path, &grid.Metadata, c.opts.Sidecar); err != nil {
			return outputs, errors.Wrapf(err, "writing %s", path)
		}
		outputs = append(outputs, path)
	}
	if c.opts.Preview {
		path := filepath.Join(c.opts.OutputDir, name+".png")
		if err := writer.WriteReliefFile(path, grid); err != nil {
			return outputs, errors.Wrapf(err, "writing %s", path)
		}
		outputs = append(outputs, path)
	}
	return outputs, nil
}

// mergeAll mosaics the parsed grids and writes the result as <name><suffix>.
func (c *converter) mergeAll(name string, grids []*models.ElevationGrid) (string, error) {
	var parsed []*models.ElevationGrid
	for _, g := range grids {
		if g != nil {
			parsed = append(parsed, g)
		}
	}
	if len(parsed) == 0 {
		return "", NewConversionError(name, StageMerge, merge.ErrNoTiles)
	}

	merged, err := merge.Tiles(parsed, c.log)
	if err != nil {
		return "", NewConversionError(name, StageMerge, err)
	}
	path := filepath.Join(c.opts.OutputDir, name+c.opts.Format.Suffix())
	if err := writer.WriteFile(path, merged, c.opts.Format, c.opts.writerOptions(c.log)); err != nil {
		return "", NewConversionError(path, StageWrite, err)
	}
	c.log.Info("wrote merged raster", zap.String("path", path), zap.Int("tiles", len(parsed)))
	return path, nil
}

// Inspect parses every document under input without writing anything. Documents that fail to parse
// are reported through the combined error; the inspections of the others are still returned.
func Inspect(input string, opts Options) ([]models.Inspection, error) {
	in, err := Discover(input)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	log := opts.logger()
	var inspections []models.Inspection
	var errs error
	for _, doc := range in.Documents {
		data, err := doc.Read()
		if err != nil {
			errs = multierr.Append(errs, NewConversionError(doc.Path, StageRead, err))
			continue
		}
		dialect := opts.Dialect
		if dialect == parser.DialectAuto {
			dialect = parser.Detect(data)
		}
		popts := opts.parserOptions(log.With(zap.String("source", doc.Path)))
		popts.Dialect = dialect
		grid, err := parser.Parse(data, popts)
		if err != nil {
			errs = multierr.Append(errs, NewConversionError(doc.Path, StageParse, err))
			continue
		}
		inspections = append(inspections, models.Inspect(doc.Path, dialect.String(), grid))
	}
	return inspections, errs
}
