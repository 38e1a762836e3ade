package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/models"
	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/output"
)

// printSummary prints one line per failed input followed by the totals.
func printSummary(w io.Writer, s *models.Summary) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	failed := s.Failed()
	for _, r := range failed {
		fmt.Fprintf(w, "%s %s\n", red("FAIL"), r.Err)
	}
	fmt.Fprintf(w, "%s %s converted, %s failed\n",
		bold("gsidem:"),
		green(len(s.Results)-len(failed)),
		red(len(failed)))
	if s.Merged != "" {
		fmt.Fprintf(w, "%s %s\n", bold("merged:"), s.Merged)
	}
}

// writeSummaryJSON writes s as indented JSON to path.
func writeSummaryJSON(path string, s *models.Summary) error {
	data, err := output.SummaryToJSON(s, true)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
