package archiveorg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"archivist/internal/config"
	"archivist/internal/logging"
	"archivist/internal/metadata"
)

// HTTPDoer describes the HTTP client used by the uploader.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result summarises one item upload.
type Result struct {
	StatusCode int
	Files      int
	Bytes      int64
}

// Options configures an Uploader.
type Options struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	HTTPClient HTTPDoer
	Logger     *slog.Logger
}

// Uploader sends items to the archive.
type Uploader struct {
	endpoint  string
	accessKey string
	secretKey string
	client    HTTPDoer
	logger    *slog.Logger
}

// New constructs an Uploader.
func New(opts Options) *Uploader {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Uploader{
		endpoint:  strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/"),
		accessKey: strings.TrimSpace(opts.AccessKey),
		secretKey: strings.TrimSpace(opts.SecretKey),
		client:    client,
		logger:    logging.NewComponentLogger(opts.Logger, "archiveorg"),
	}
}

// NewFromConfig constructs an Uploader from the archive section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Uploader {
	timeout := time.Duration(cfg.Archive.TimeoutSeconds) * time.Second
	return New(Options{
		Endpoint:   cfg.Archive.Endpoint,
		AccessKey:  cfg.Archive.AccessKey,
		SecretKey:  cfg.Archive.SecretKey,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	})
}

// Upload PUTs every file into the item named identifier. It stops at the first
// non-2xx status and returns it with a nil error. Transport faults are
// returned as errors.
func (u *Uploader) Upload(ctx context.Context, identifier string, files []string, md *metadata.Target) (Result, error) {
	var result Result
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return result, errors.New("archive identifier is required")
	}
	if len(files) == 0 {
		return result, errors.New("no files to upload")
	}
	if u.endpoint == "" {
		return result, errors.New("archive endpoint is not configured")
	}

	headers := MetadataHeaders(md)
	logger := logging.WithContext(ctx, u.logger).With(logging.String(logging.FieldIdentifier, identifier))
	for _, path := range files {
		status, size, err := u.put(ctx, identifier, path, headers)
		result.StatusCode = status
		if err != nil {
			return result, err
		}
		if status < 200 || status >= 300 {
			logger.Warn("archive rejected file",
				logging.String("file", filepath.Base(path)),
				logging.Int("status", status),
			)
			return result, nil
		}
		result.Files++
		result.Bytes += size
		logger.Info("file uploaded",
			logging.String("file", filepath.Base(path)),
			logging.String("size", humanize.Bytes(uint64(size))),
		)
	}
	return result, nil
}

func (u *Uploader) put(ctx context.Context, identifier, path string, headers http.Header) (int, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return 0, 0, fmt.Errorf("stat %s: %w", path, err)
	}

	target := fmt.Sprintf("%s/%s/%s", u.endpoint, url.PathEscape(identifier), url.PathEscape(filepath.Base(path)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, file)
	if err != nil {
		return 0, 0, fmt.Errorf("build archive request: %w", err)
	}
	req.ContentLength = info.Size()
	for key, values := range headers {
		req.Header[key] = append([]string(nil), values...)
	}
	if u.accessKey != "" || u.secretKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("LOW %s:%s", u.accessKey, u.secretKey))
	}
	req.Header.Set("x-archive-auto-make-bucket", "1")
	req.Header.Set("x-archive-size-hint", fmt.Sprintf("%d", info.Size()))

	resp, err := u.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	return resp.StatusCode, info.Size(), nil
}

// MetadataHeaders encodes md as x-archive-meta headers. Array fields use the
// numbered form so element order is preserved.
func MetadataHeaders(md *metadata.Target) http.Header {
	headers := http.Header{}
	if md == nil {
		return headers
	}
	for _, key := range md.Keys() {
		name := headerName(key)
		values := md.Values(key)
		if !md.IsArray(key) && len(values) == 1 {
			headers[http.CanonicalHeaderKey("x-archive-meta-"+name)] = []string{encodeValue(values[0])}
			continue
		}
		for idx, value := range values {
			headers[http.CanonicalHeaderKey(fmt.Sprintf("x-archive-meta%02d-%s", idx, name))] = []string{encodeValue(value)}
		}
	}
	return headers
}

// headerName maps a field name onto the archive's header convention, where
// "--" stands for "_".
func headerName(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "_", "--")
}

// encodeValue wraps values that are not plain printable ASCII in the
// archive's uri() form.
func encodeValue(value string) string {
	for _, r := range value {
		if r < 0x20 || r > 0x7e {
			return "uri(" + url.PathEscape(value) + ")"
		}
	}
	return value
}

// DetailsURL returns the public page for identifier.
func DetailsURL(base, identifier string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = "https://archive.org/details"
	}
	return base + "/" + url.PathEscape(identifier)
}
