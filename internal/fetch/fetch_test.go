package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"archivist/internal/fetch"
	"archivist/internal/services"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		ref  string
		want fetch.Kind
	}{
		{ref: "https://drive.google.com/file/d/1AbC-d_9/view?usp=sharing", want: fetch.KindDrive},
		{ref: "https://example.org/export.csv", want: fetch.KindHTTP},
		{ref: "s3://exports/batch.xlsx", want: fetch.KindS3},
		{ref: "~/exports/batch.csv", want: fetch.KindLocal},
	}
	for _, tt := range tests {
		if got := fetch.Classify(tt.ref); got != tt.want {
			t.Fatalf("Classify(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
	if id, ok := fetch.DriveFileID("https://drive.google.com/file/d/1AbC-d_9/view"); !ok || id != "1AbC-d_9" {
		t.Fatalf("DriveFileID = %q %v", id, ok)
	}
}

func TestFetchLocalPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.csv")
	if err := os.WriteFile(path, []byte("a\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := fetch.New(fetch.Options{}).Fetch(context.Background(), path)
	if err != nil || got != path {
		t.Fatalf("Fetch = %q, %v", got, err)
	}

	_, err = fetch.New(fetch.Options{}).Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing file, got %v", err)
	}
}

func TestFetchDriveLinkDownloadsToWorkDir(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "FILE123" || r.URL.Query().Get("export") != "download" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte("Resource ID(s),Title\n1,Reel\n"))
	}))
	defer server.Close()

	work := t.TempDir()
	fetcher := fetch.New(fetch.Options{WorkDir: work, DriveDownloadURL: server.URL + "/uc", Now: fixedNow})
	got, err := fetcher.Fetch(context.Background(), "https://drive.google.com/file/d/FILE123/view?usp=sharing")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if got != filepath.Join(work, "2024-03-05T14-30-00.csv") {
		t.Fatalf("unexpected path %q", got)
	}
	data, err := os.ReadFile(got)
	if err != nil || string(data) != "Resource ID(s),Title\n1,Reel\n" {
		t.Fatalf("unexpected content %q (%v)", data, err)
	}
}

func TestFetchHTTPUsesAttachmentName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="export.xlsx"`)
		_, _ = w.Write([]byte("xlsx"))
	}))
	defer server.Close()

	work := t.TempDir()
	got, err := fetch.New(fetch.Options{WorkDir: work, Now: fixedNow}).Fetch(context.Background(), server.URL+"/download")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if got != filepath.Join(work, "2024-03-05T14-30-00_export.xlsx") {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestFetchHTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := fetch.New(fetch.Options{WorkDir: t.TempDir()}).Fetch(context.Background(), server.URL+"/gone.csv")
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

type fakeS3 struct {
	bucket, key string
}

func (f *fakeS3) Get(_ context.Context, bucket, key, dest string) error {
	f.bucket, f.key = bucket, key
	return os.WriteFile(dest, []byte("a,b\n"), 0o644)
}

func TestFetchS3(t *testing.T) {
	work := t.TempDir()
	s3 := &fakeS3{}
	got, err := fetch.New(fetch.Options{WorkDir: work, S3: s3, Now: fixedNow}).Fetch(context.Background(), "s3://exports/2024/batch.csv")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if s3.bucket != "exports" || s3.key != "2024/batch.csv" {
		t.Fatalf("unexpected object %s/%s", s3.bucket, s3.key)
	}
	if got != filepath.Join(work, "2024-03-05T14-30-00_batch.csv") {
		t.Fatalf("unexpected path %q", got)
	}

	_, err = fetch.New(fetch.Options{WorkDir: work}).Fetch(context.Background(), "s3://exports/batch.csv")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration without s3 client, got %v", err)
	}
}

func TestParseS3(t *testing.T) {
	if _, _, err := fetch.ParseS3("s3://bucket"); err == nil {
		t.Fatal("expected error for missing key")
	}
	bucket, key, err := fetch.ParseS3("s3://bucket/a/b.csv")
	if err != nil || bucket != "bucket" || key != "a/b.csv" {
		t.Fatalf("ParseS3 = %q %q %v", bucket, key, err)
	}
}

func TestNewS3GetterRequiresEndpoint(t *testing.T) {
	if _, err := fetch.NewS3Getter("", "a", "b", true); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
	if _, err := fetch.NewS3Getter("https://minio.example.org:9000", "a", "b", false); err != nil {
		t.Fatalf("NewS3Getter returned error: %v", err)
	}
}
