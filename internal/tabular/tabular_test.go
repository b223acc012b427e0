package tabular_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"archivist/internal/services"
	"archivist/internal/tabular"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestReadCSVStripsBOMAndNormalizesHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	// The third header uses a combining accent.
	writeFile(t, path, "\ufeffResource ID(s), Title ,Cafe\u0301\n42,Test Reel,x\n\n43,,\n")

	table, err := tabular.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	if table.Format != tabular.FormatCSV {
		t.Fatalf("expected csv format, got %q", table.Format)
	}
	want := []string{"Resource ID(s)", "Title", "Caf\u00e9"}
	if len(table.Columns) != len(want) {
		t.Fatalf("columns = %q, want %q", table.Columns, want)
	}
	for i := range want {
		if table.Columns[i] != want[i] {
			t.Fatalf("column %d = %q, want %q", i, table.Columns[i], want[i])
		}
	}
	if table.Len() != 2 {
		t.Fatalf("expected blank line to be skipped, got %d records", table.Len())
	}
	first := table.Records[0]
	if first.Row != 1 || first.Value("Title") != "Test Reel" || first.Value("Resource ID(s)") != "42" {
		t.Fatalf("unexpected first record: row=%d values=%v", first.Row, first.Values())
	}
	if table.Records[1].Row != 2 {
		t.Fatalf("expected second record on data row 2, got %d", table.Records[1].Row)
	}
}

func TestReadCSVPadsShortRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.csv")
	writeFile(t, path, "a,b,c\n1\n")

	table, err := tabular.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	value, ok := table.Records[0].Get("c")
	if !ok || value != "" {
		t.Fatalf("expected padded empty column, got %q present=%v", value, ok)
	}
}

func TestReadFileRejectsUnusableInput(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.csv")
	writeFile(t, empty, "")

	tests := []struct {
		name string
		path string
	}{
		{name: "unsupported extension", path: filepath.Join(dir, "export.json")},
		{name: "missing file", path: filepath.Join(dir, "missing.csv")},
		{name: "no header", path: empty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tabular.ReadFile(tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, services.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSubsetWriteCSVPreservesSchemaAndOrder(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "batch.csv")
	writeFile(t, input, "ref,Title,Notes\n1,One,\n2,Two,\"has, comma\"\n3,Three,\n")

	table, err := tabular.ReadFile(input)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	retry := table.Subset([]tabular.Record{table.Records[2], table.Records[1]})
	out := tabular.RetryPath(input, "")
	if err := retry.Write(out); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read retry: %v", err)
	}
	want := "ref,Title,Notes\n3,Three,\n2,Two,\"has, comma\"\n"
	if string(data) != want {
		t.Fatalf("retry artifact = %q, want %q", data, want)
	}
	if len(table.Records) != 3 {
		t.Fatal("Subset must not modify the source table")
	}
}

func TestSubsetWriteKeepsSourceHeaderCells(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "batch.csv")
	writeFile(t, input, "Resource ID(s),,Title,Title\n1,x,One,Uno\n2,y,Two,Dos\n")

	table, err := tabular.ReadFile(input)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	if got := strings.Join(table.Columns, "|"); got != "Resource ID(s)|column_2|Title|Title (2)" {
		t.Fatalf("columns = %q", got)
	}

	out := tabular.RetryPath(input, "")
	if err := table.Subset([]tabular.Record{table.Records[1]}).Write(out); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read retry: %v", err)
	}
	want := "Resource ID(s),,Title,Title\n2,y,Two,Dos\n"
	if string(data) != want {
		t.Fatalf("retry artifact = %q, want %q", data, want)
	}

	reread, err := tabular.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile retry returned error: %v", err)
	}
	if reread.Records[0].Value("Title (2)") != "Dos" || reread.Records[0].Value("column_2") != "y" {
		t.Fatalf("reread record = %+v", reread.Records[0])
	}

	xlsx := filepath.Join(dir, "batch_retry.xlsx")
	if err := table.Subset(table.Records).Write(xlsx); err != nil {
		t.Fatalf("Write xlsx returned error: %v", err)
	}
	loaded, err := tabular.ReadFile(xlsx)
	if err != nil {
		t.Fatalf("ReadFile xlsx returned error: %v", err)
	}
	if got := strings.Join(loaded.Header, "|"); got != "Resource ID(s)||Title|Title" {
		t.Fatalf("xlsx header = %q", got)
	}
}

func TestXLSXWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	table := &tabular.Table{
		Format:  tabular.FormatXLSX,
		Sheet:   "Export",
		Columns: []string{"Resource ID(s)", "Title"},
		Records: []tabular.Record{
			tabular.NewRecord(1, map[string]string{"Resource ID(s)": "7", "Title": "Reel"}),
			tabular.NewRecord(2, map[string]string{"Resource ID(s)": "8"}),
		},
	}
	path := filepath.Join(dir, "export.xlsx")
	if err := table.Write(path); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	loaded, err := tabular.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	if loaded.Sheet != "Export" || loaded.Len() != 2 {
		t.Fatalf("unexpected table: sheet=%q len=%d", loaded.Sheet, loaded.Len())
	}
	if loaded.Records[0].Value("Title") != "Reel" || loaded.Records[1].Value("Resource ID(s)") != "8" {
		t.Fatalf("unexpected records: %v %v", loaded.Records[0].Values(), loaded.Records[1].Values())
	}
	if title, ok := loaded.Records[1].Get("Title"); !ok || title != "" {
		t.Fatalf("expected empty trailing cell, got %q present=%v", title, ok)
	}
}

func TestRetryPath(t *testing.T) {
	tests := []struct {
		input string
		dir   string
		want  string
	}{
		{input: "/data/batch.csv", want: "/data/batch_retry.csv"},
		{input: "/data/batch_retry.csv", want: "/data/batch_retry.csv"},
		{input: "/data/batch.xlsx", dir: "/retries", want: "/retries/batch_retry.xlsx"},
	}
	for _, tt := range tests {
		if got := tabular.RetryPath(tt.input, tt.dir); got != tt.want {
			t.Fatalf("RetryPath(%q, %q) = %q, want %q", tt.input, tt.dir, got, tt.want)
		}
	}
}
