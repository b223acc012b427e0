package locator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"archivist/internal/config"
	"archivist/internal/logging"
	"archivist/internal/services"
)

// DAM function names.
const (
	FunctionResourcePath     = "get_resource_path"
	FunctionAlternativeFiles = "get_alternative_files"
)

// Querier sends a signed query to the DAM and returns its raw text response.
type Querier interface {
	Query(ctx context.Context, function, params string) (string, error)
}

// QueryFunc adapts a function to the Querier interface.
type QueryFunc func(ctx context.Context, function, params string) (string, error)

// Query calls f.
func (f QueryFunc) Query(ctx context.Context, function, params string) (string, error) {
	return f(ctx, function, params)
}

// FileSet is the ordered list of local paths for one asset. Index 0 is the
// primary file.
type FileSet []string

// Primary returns the primary path.
func (f FileSet) Primary() string {
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// Alternates returns the alternate paths.
func (f FileSet) Alternates() []string {
	if len(f) < 2 {
		return nil
	}
	return f[1:]
}

// Locator resolves DAM asset ids to file sets.
type Locator struct {
	querier     Querier
	verifyFiles bool
	logger      *slog.Logger
}

// Option customises a Locator.
type Option func(*Locator)

// WithVerifyFiles makes Locate confirm that every resolved path is a readable
// local file.
func WithVerifyFiles(enabled bool) Option {
	return func(l *Locator) { l.verifyFiles = enabled }
}

// WithLogger sets the locator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locator) { l.logger = logger }
}

// New constructs a Locator over querier.
func New(querier Querier, opts ...Option) *Locator {
	l := &Locator{querier: querier}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.NewComponentLogger(l.logger, "locator")
	return l
}

// PrimaryParams builds the positional parameter string for the primary path.
func PrimaryParams(assetID, extension string) string {
	return fmt.Sprintf("param1=%s&param2=1&param3=&param4=&param5=%s", assetID, extension)
}

// AlternatesParams builds the positional parameter string for the descriptor query.
func AlternatesParams(assetID string) string {
	return fmt.Sprintf("param1=%s&param2=&param3=", assetID)
}

// AlternateParams builds the positional parameter string for one alternate path.
func AlternateParams(assetID string, alt Alternate) string {
	return fmt.Sprintf("param1=%s&param2=1&param3=&param4=&param5=%s&param6=&param7=&param8=%s", assetID, alt.Extension, alt.Ref)
}

// Locate resolves assetID to its FileSet. It never returns a partial set.
func (l *Locator) Locate(ctx context.Context, assetID string, media config.MediaType) (FileSet, error) {
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return nil, services.Wrap(services.ErrPrimaryNotFound, "locating", "primary", "record has no asset id", nil)
	}
	logger := logging.WithContext(ctx, l.logger).With(logging.String(logging.FieldAssetID, assetID))

	primary, err := l.path(ctx, PrimaryParams(assetID, media.Extension()))
	if err != nil {
		return nil, services.Wrap(services.ErrPrimaryNotFound, "locating", "primary", "asset "+assetID, err)
	}
	if primary == "" {
		return nil, services.Wrap(services.ErrPrimaryNotFound, "locating", "primary", "empty path for asset "+assetID, nil)
	}

	blob, err := l.querier.Query(ctx, FunctionAlternativeFiles, AlternatesParams(assetID))
	if err != nil {
		return nil, services.Wrap(services.ErrAlternateUnresolved, "locating", "alternates", "descriptor query for asset "+assetID, err)
	}
	alternates, err := ParseAlternates(blob)
	if err != nil {
		return nil, err
	}

	files := make(FileSet, 0, len(alternates)+1)
	files = append(files, primary)
	for _, alt := range alternates {
		path, err := l.path(ctx, AlternateParams(assetID, alt))
		if err != nil {
			return nil, services.Wrap(services.ErrAlternateUnresolved, "locating", "alternate", fmt.Sprintf("ref %s (%s)", alt.Ref, alt.Extension), err)
		}
		if path == "" {
			return nil, services.Wrap(services.ErrAlternateUnresolved, "locating", "alternate", fmt.Sprintf("empty path for ref %s (%s)", alt.Ref, alt.Extension), nil)
		}
		files = append(files, path)
	}

	if l.verifyFiles {
		if err := VerifyFiles(files); err != nil {
			return nil, err
		}
	}

	logger.Debug("asset located",
		logging.String("primary", primary),
		logging.Int("alternates", len(alternates)),
	)
	return files, nil
}

func (l *Locator) path(ctx context.Context, params string) (string, error) {
	response, err := l.querier.Query(ctx, FunctionResourcePath, params)
	if err != nil {
		return "", err
	}
	return normalizePath(response), nil
}

// normalizePath treats the DAM's boolean "false" answer as not found.
func normalizePath(response string) string {
	response = strings.TrimSpace(response)
	switch strings.ToLower(response) {
	case "false", "null":
		return ""
	}
	return response
}

// VerifyFiles confirms every path in files is a readable regular file.
func VerifyFiles(files FileSet) error {
	for idx, path := range files {
		marker := services.ErrAlternateUnresolved
		if idx == 0 {
			marker = services.ErrPrimaryNotFound
		}
		info, err := os.Stat(path)
		if err != nil {
			return services.Wrap(marker, "locating", "verify", path, err)
		}
		if !info.Mode().IsRegular() {
			return services.Wrap(marker, "locating", "verify", path+" is not a regular file", nil)
		}
		if err := unix.Access(path, unix.R_OK); err != nil {
			return services.Wrap(marker, "locating", "verify", path, err)
		}
	}
	return nil
}
