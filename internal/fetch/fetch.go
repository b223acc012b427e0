package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"archivist/internal/config"
	"archivist/internal/logging"
	"archivist/internal/services"
)

const (
	defaultDriveDownloadURL = "https://drive.google.com/uc"
	timestampLayout         = "2006-01-02T15-04-05"
)

var driveLinkPattern = regexp.MustCompile(`^https://drive\.google\.com/file/d/([A-Za-z0-9_-]+)(?:/.*)?$`)

// HTTPDoer describes the HTTP client used for downloads.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ObjectGetter downloads an object from an S3-compatible store into dest.
type ObjectGetter interface {
	Get(ctx context.Context, bucket, key, dest string) error
}

// Kind classifies an input reference.
type Kind string

const (
	KindLocal Kind = "local"
	KindDrive Kind = "drive"
	KindHTTP  Kind = "http"
	KindS3    Kind = "s3"
)

// Classify reports how ref will be fetched.
func Classify(ref string) Kind {
	ref = strings.TrimSpace(ref)
	switch {
	case driveLinkPattern.MatchString(ref):
		return KindDrive
	case strings.HasPrefix(ref, "s3://"):
		return KindS3
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return KindHTTP
	default:
		return KindLocal
	}
}

// DriveFileID extracts the file id from a Drive share link.
func DriveFileID(link string) (string, bool) {
	match := driveLinkPattern.FindStringSubmatch(strings.TrimSpace(link))
	if match == nil {
		return "", false
	}
	return match[1], true
}

// Options configures a Fetcher.
type Options struct {
	WorkDir          string
	HTTPClient       HTTPDoer
	S3               ObjectGetter
	DriveDownloadURL string
	Now              func() time.Time
	Logger           *slog.Logger
}

// Fetcher resolves input references to local files.
type Fetcher struct {
	workDir  string
	client   HTTPDoer
	s3       ObjectGetter
	driveURL string
	now      func() time.Time
	logger   *slog.Logger
}

// New constructs a Fetcher.
func New(opts Options) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	driveURL := strings.TrimSpace(opts.DriveDownloadURL)
	if driveURL == "" {
		driveURL = defaultDriveDownloadURL
	}
	return &Fetcher{
		workDir:  opts.WorkDir,
		client:   client,
		s3:       opts.S3,
		driveURL: driveURL,
		now:      now,
		logger:   logging.NewComponentLogger(opts.Logger, "fetch"),
	}
}

// NewFromConfig constructs a Fetcher from the fetch and paths sections. The S3
// getter is only built when an endpoint is configured.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Fetcher, error) {
	opts := Options{
		WorkDir:    cfg.Paths.WorkDir,
		HTTPClient: &http.Client{Timeout: time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second},
		Logger:     logger,
	}
	if strings.TrimSpace(cfg.Fetch.S3Endpoint) != "" {
		getter, err := NewS3Getter(cfg.Fetch.S3Endpoint, cfg.Fetch.S3AccessKey, cfg.Fetch.S3SecretKey, cfg.Fetch.S3UseSSL)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "fetch", "s3 client", "", err)
		}
		opts.S3 = getter
	}
	return New(opts), nil
}

// Fetch returns a local path for ref, downloading it first when it is remote.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", services.Wrap(services.ErrInvalidInput, "fetch", "input", "no input given", nil)
	}

	switch Classify(ref) {
	case KindDrive:
		id, _ := DriveFileID(ref)
		download := f.driveURL + "?export=download&id=" + url.QueryEscape(id)
		return f.download(ctx, download, "")
	case KindHTTP:
		return f.download(ctx, ref, path.Base(urlPath(ref)))
	case KindS3:
		return f.fetchS3(ctx, ref)
	default:
		local, err := config.ExpandPath(ref)
		if err != nil {
			return "", services.Wrap(services.ErrInvalidInput, "fetch", "expand path", ref, err)
		}
		info, err := os.Stat(local)
		if err != nil {
			return "", services.Wrap(services.ErrInvalidInput, "fetch", "stat", local, err)
		}
		if info.IsDir() {
			return "", services.Wrap(services.ErrInvalidInput, "fetch", "stat", local+" is a directory", nil)
		}
		return local, nil
	}
}

func (f *Fetcher) download(ctx context.Context, source, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", services.Wrap(services.ErrInvalidInput, "fetch", "build request", source, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrInvalidInput, "fetch", "download", source, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrInvalidInput, "fetch", "download", fmt.Sprintf("%s returned %d", source, resp.StatusCode), nil)
	}

	if disposition := attachmentName(resp.Header.Get("Content-Disposition")); disposition != "" {
		name = disposition
	}
	dest, err := f.destination(name)
	if err != nil {
		return "", err
	}
	size, err := writeFile(dest, resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrInvalidInput, "fetch", "save", dest, err)
	}
	f.logger.Info("input downloaded",
		logging.String("source", source),
		logging.String("path", dest),
		logging.String("size", humanize.Bytes(uint64(size))),
	)
	return dest, nil
}

func (f *Fetcher) fetchS3(ctx context.Context, ref string) (string, error) {
	if f.s3 == nil {
		return "", services.Wrap(services.ErrConfiguration, "fetch", "s3", "fetch.s3_endpoint is not configured", nil)
	}
	bucket, key, err := ParseS3(ref)
	if err != nil {
		return "", services.Wrap(services.ErrInvalidInput, "fetch", "s3", ref, err)
	}
	dest, err := f.destination(path.Base(key))
	if err != nil {
		return "", err
	}
	if err := f.s3.Get(ctx, bucket, key, dest); err != nil {
		_ = os.Remove(dest)
		return "", services.Wrap(services.ErrInvalidInput, "fetch", "s3 get", ref, err)
	}
	f.logger.Info("input downloaded", logging.String("source", ref), logging.String("path", dest))
	return dest, nil
}

// destination returns a timestamped path in the work directory. Names without
// an extension are saved as CSV.
func (f *Fetcher) destination(name string) (string, error) {
	dir := f.workDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "fetch", "work dir", dir, err)
	}
	if name = strings.TrimSpace(name); name != "" {
		name = filepath.Base(name)
	}
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if ext = strings.ToLower(ext); ext == "" || ext == "." {
		ext = ".csv"
	}
	stamp := f.now().Format(timestampLayout)
	if stem == "" {
		return filepath.Join(dir, stamp+ext), nil
	}
	return filepath.Join(dir, stamp+"_"+stem+ext), nil
}

// ParseS3 splits an s3://bucket/key reference.
func ParseS3(ref string) (string, string, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(ref), "s3://")
	if !ok {
		return "", "", errors.New("not an s3 reference")
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || strings.TrimSpace(key) == "" {
		return "", "", errors.New("s3 reference must be s3://bucket/key")
	}
	return bucket, key, nil
}

func urlPath(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return parsed.Path
}

func attachmentName(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func writeFile(dest string, body io.Reader) (int64, error) {
	file, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	size, err := io.Copy(file, body)
	if err != nil {
		file.Close()
		_ = os.Remove(dest)
		return 0, err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(dest)
		return 0, err
	}
	return size, nil
}
