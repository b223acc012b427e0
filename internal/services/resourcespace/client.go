package resourcespace

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"archivist/internal/config"
	"archivist/internal/logging"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

// HTTPDoer describes the HTTP client used by the DAM client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a non-200 answer from the DAM.
type StatusError struct {
	Function string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("resourcespace %s returned status %d", e.Function, e.Code)
}

// Client sends signed queries to the DAM.
type Client struct {
	baseURL string
	user    string
	apiKey  string
	client  HTTPDoer
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Options configures a Client.
type Options struct {
	BaseURL           string
	User              string
	APIKey            string
	RequestsPerSecond float64
	Burst             int
	HTTPClient        HTTPDoer
	Logger            *slog.Logger
}

// New constructs a Client.
func New(opts Options) *Client {
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		user:    strings.TrimSpace(opts.User),
		apiKey:  strings.TrimSpace(opts.APIKey),
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logging.NewComponentLogger(opts.Logger, "resourcespace"),
	}
}

// NewFromConfig constructs a Client from the resourcespace section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Client {
	rs := cfg.ResourceSpace
	timeout := time.Duration(rs.TimeoutSeconds) * time.Second
	return New(Options{
		BaseURL:           rs.BaseURL,
		User:              rs.User,
		APIKey:            rs.APIKey,
		RequestsPerSecond: rs.RequestsPerSecond,
		Burst:             rs.Burst,
		HTTPClient:        &http.Client{Timeout: timeout},
		Logger:            logger,
	})
}

// Sign returns the hex SHA-256 of key followed by query.
func Sign(apiKey, query string) string {
	sum := sha256.Sum256([]byte(apiKey + query))
	return hex.EncodeToString(sum[:])
}

// BuildQuery returns the unsigned query string for function and params.
func (c *Client) BuildQuery(function, params string) string {
	query := fmt.Sprintf("user=%s&function=%s", url.QueryEscape(c.user), url.QueryEscape(function))
	if params = strings.TrimPrefix(strings.TrimSpace(params), "&"); params != "" {
		query += "&" + params
	}
	return query
}

// QueryURL returns the signed request URL.
func (c *Client) QueryURL(function, params string) string {
	query := c.BuildQuery(function, params)
	return fmt.Sprintf("%s/api/?%s&sign=%s", c.baseURL, query, Sign(c.apiKey, query))
}

// Query sends a signed query and returns the response text with backslashes
// and double quotes removed.
func (c *Client) Query(ctx context.Context, function, params string) (string, error) {
	if c.baseURL == "" {
		return "", errors.New("resourcespace base url is not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("resourcespace rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.QueryURL(function, params), nil)
	if err != nil {
		return "", fmt.Errorf("build resourcespace request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resourcespace %s: %w", function, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read resourcespace response: %w", err)
	}
	c.logger.Debug("resourcespace query",
		logging.String("function", function),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(start)),
	)
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Function: function, Code: resp.StatusCode}
	}
	return clean(string(body)), nil
}

func clean(body string) string {
	return strings.NewReplacer(`\`, "", `"`, "").Replace(body)
}
