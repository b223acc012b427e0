package tabular

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const retrySuffix = "_retry"

// RetryPath returns where the retry artifact for input belongs. When dir is
// empty the artifact sits next to the input. An input that already is a retry
// artifact maps onto itself so the new batch supersedes it.
func RetryPath(input, dir string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if !strings.HasSuffix(stem, retrySuffix) {
		stem += retrySuffix
	}
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, stem+ext)
}

// Write serializes the table to path atomically. The format follows the
// path's extension, falling back to the table's own format.
func (t *Table) Write(path string) error {
	format, err := FormatForPath(path)
	if err != nil {
		if t.Format == "" {
			return err
		}
		format = t.Format
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure table directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if err := encode(tmp, t, format); err != nil {
		cleanup()
		return fmt.Errorf("encode table: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close table: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace table: %w", err)
	}
	return nil
}

func encode(w io.Writer, t *Table, format Format) error {
	switch format {
	case FormatXLSX:
		return writeXLSX(w, t)
	default:
		return writeCSV(w, t)
	}
}
