// pkg/tabular/writer.go
package tabular

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/model"
)

// WriteFile writes a dataset as delimited text, delimiter chosen from
// the file extension. The write is a full rewrite: content goes to a
// temp file in the same directory and is renamed into place, so a
// failed run never leaves a half-written output. The header row is
// always written, even for zero data rows.
func WriteFile(path string, ds *model.Dataset) error {
	return writeAtomic(path, func(f *os.File) error {
		w := csv.NewWriter(f)
		w.Comma = DelimiterFor(path)

		if err := w.Write(ds.Headers); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		for _, rec := range ds.Records {
			row := make([]string, len(ds.Headers))
			for i, h := range ds.Headers {
				row[i] = rec.Get(h)
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("writing row %d: %w", rec.Row, err)
			}
		}
		w.Flush()
		return w.Error()
	})
}

// WriteJSON serializes any value as an indented JSON document, with
// the same atomic rewrite behavior as WriteFile. Used for the change
// log and the validation report.
func WriteJSON(path string, v interface{}) error {
	return writeAtomic(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

func writeAtomic(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming output into place: %w", err)
	}
	return nil
}
