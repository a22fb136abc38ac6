package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wonny/dipscan/internal/analytics"
)

// WriteCSV writes a table with its header row
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = cellString(row[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Tables returns every table of a report in output order
func Tables(r *analytics.Report) []Table {
	return []Table{
		PricesTable(r.Prices),
		SummaryTable(r.Summary),
		EventsTable("Declines", r.Events.Declines),
		EventsTable("Rises", r.Events.Rises),
	}
}

// WriteCSVDir writes one CSV per table into dir and returns the paths
func WriteCSVDir(dir string, r *analytics.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	paths := make([]string, 0, 4)
	for _, t := range Tables(r) {
		path := filepath.Join(dir, strings.ToLower(t.Name)+".csv")
		if err := writeFile(path, func(w io.Writer) error { return WriteCSV(w, t) }); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
