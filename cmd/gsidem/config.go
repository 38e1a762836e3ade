package main

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/pflag"
	"github.com/zclconf/go-cty/cty"
)

// fileConfig is the content of an HCL config file. Every attribute is optional; values may
// reference environment variables as env.NAME.
type fileConfig struct {
	OutputDir       *string  `hcl:"output_dir,optional"`
	Workers         *int     `hcl:"workers,optional"`
	Format          *string  `hcl:"format,optional"`
	Compress        *bool    `hcl:"compress,optional"`
	Merge           *bool    `hcl:"merge,optional"`
	Tiles           *bool    `hcl:"tiles,optional"`
	Sidecar         *string  `hcl:"sidecar,optional"`
	Report          *string  `hcl:"report,optional"`
	Preview         *bool    `hcl:"preview,optional"`
	Dialect         *string  `hcl:"dialect,optional"`
	CornerAxisOrder *string  `hcl:"corner_axis_order,optional"`
	MinElevation    *float64 `hcl:"min_elevation,optional"`
	MaxElevation    *float64 `hcl:"max_elevation,optional"`
	GDAL            *bool    `hcl:"gdal,optional"`
	LogLevel        *string  `hcl:"log_level,optional"`
	LogFormat       *string  `hcl:"log_format,optional"`
}

// loadConfig parses an HCL config file.
func loadConfig(path string) (*fileConfig, error) {
	p := hclparse.NewParser()
	file, diags := p.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}
	var cfg fileConfig
	diags = gohcl.DecodeBody(file.Body, envContext(os.Environ()), &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, diags)
	}
	return &cfg, nil
}

// envContext exposes environ as the object env.
func envContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" || !utf8.ValidString(v) {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}

// apply copies config values into the flag variables the user did not set explicitly.
func (c *fileConfig) apply(flags *pflag.FlagSet, f *convertFlags) {
	set := func(name string, ok bool, assign func()) {
		if ok && !flags.Changed(name) {
			assign()
		}
	}
	set("output", c.OutputDir != nil, func() { f.outputDir = *c.OutputDir })
	set("workers", c.Workers != nil, func() { f.workers = *c.Workers })
	set("format", c.Format != nil, func() { f.format = *c.Format })
	set("compress", c.Compress != nil, func() { f.compress = *c.Compress })
	set("merge", c.Merge != nil, func() { f.merge = *c.Merge })
	set("tiles", c.Tiles != nil, func() { f.tiles = *c.Tiles; f.tilesSet = true })
	set("sidecar", c.Sidecar != nil, func() { f.sidecar = *c.Sidecar })
	set("report", c.Report != nil, func() { f.report = *c.Report })
	set("preview", c.Preview != nil, func() { f.preview = *c.Preview })
	set("dialect", c.Dialect != nil, func() { f.dialect = *c.Dialect })
	set("corner-axis-order", c.CornerAxisOrder != nil, func() { f.cornerAxisOrder = *c.CornerAxisOrder })
	set("min-elevation", c.MinElevation != nil, func() { f.minElevation = float32(*c.MinElevation); f.minSet = true })
	set("max-elevation", c.MaxElevation != nil, func() { f.maxElevation = float32(*c.MaxElevation); f.maxSet = true })
	set("gdal", c.GDAL != nil, func() { f.gdal = *c.GDAL })
	set("log-level", c.LogLevel != nil, func() { f.logLevel = *c.LogLevel })
	set("log-format", c.LogFormat != nil, func() { f.logFormat = *c.LogFormat })
}
