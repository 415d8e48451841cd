package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
)

// WriteSkipReport writes one skipped filename per line in a single write.
// An empty list still produces an (empty) report.
func WriteSkipReport(path string, skipped []string) error {
	var b strings.Builder
	for _, name := range skipped {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write skip report: %w", err)
	}
	return nil
}

// WriteSummary writes one CSV row per processed scan
func WriteSummary(path string, results []*Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary: %w", err)
	}
	defer f.Close()

	if results == nil {
		results = []*Result{}
	}
	if err := gocsv.MarshalFile(&results, f); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return f.Close()
}
