package models

// TileResult records the outcome of converting one input document.
type TileResult struct {
	// Source is the input path; zip members are written as "archive.zip!member.xml".
	Source string `json:"source" msgpack:"source"`
	// Metadata is set when parsing succeeded.
	Metadata *GridMetadata `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
	// Outputs lists the files written for this input.
	Outputs []string `json:"outputs,omitempty" msgpack:"outputs,omitempty"`
	// Err is the failure message, empty on success.
	Err string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// OK reports whether the conversion succeeded.
func (r TileResult) OK() bool {
	return r.Err == ""
}

// Summary is the result of a batch run.
type Summary struct {
	// Results keeps the discovery order of the inputs.
	Results []TileResult `json:"results" msgpack:"results"`
	// Merged is the path of the mosaic, if one was written.
	Merged string `json:"merged,omitempty" msgpack:"merged,omitempty"`
}

// Failed returns the results that carry an error.
func (s Summary) Failed() []TileResult {
	var failed []TileResult
	for _, r := range s.Results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Inspection describes one parsed document without writing any raster.
type Inspection struct {
	// Source is the input path.
	Source string `json:"source" msgpack:"source"`
	// Dialect is "jpgis" or "fgd".
	Dialect string `json:"dialect" msgpack:"dialect"`
	// Metadata is the normalized grid geometry.
	Metadata GridMetadata `json:"metadata" msgpack:"metadata"`
	// MinElevation and MaxElevation ignore no-data cells; nil when every cell is no-data.
	MinElevation *float32 `json:"min_elevation,omitempty" msgpack:"min_elevation,omitempty"`
	MaxElevation *float32 `json:"max_elevation,omitempty" msgpack:"max_elevation,omitempty"`
	// ValidCells counts samples that are not no-data.
	ValidCells int `json:"valid_cells" msgpack:"valid_cells"`
}

// Inspect summarizes g.
func Inspect(source, dialect string, g *ElevationGrid) Inspection {
	in := Inspection{Source: source, Dialect: dialect, Metadata: g.Metadata}
	if lo, hi, ok := g.Range(); ok {
		in.MinElevation, in.MaxElevation = &lo, &hi
	}
	for _, v := range g.Values {
		if !g.Metadata.IsNoData(v) {
			in.ValidCells++
		}
	}
	return in
}
