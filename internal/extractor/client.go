package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"alltube/internal/config"
	"alltube/internal/metrics"
	"alltube/internal/runner"
)

// Request identifies one extraction: the page URL, the requested format
// selector and an optional video password. Request values are immutable.
type Request struct {
	URL      string
	Format   string
	Password string
}

// baseArgs are passed on every invocation. --ignore-errors keeps playlist
// dumps going past broken items; --restrict-filenames keeps extracted
// filenames shell- and archive-safe.
var baseArgs = []string{
	"--no-warnings",
	"--ignore-errors",
	"--flat-playlist",
	"--restrict-filenames",
	"--no-playlist",
}

// Client invokes the extraction tool.
type Client struct {
	path       string
	phantomDir string
}

// New creates a Client from the service configuration.
func New(cfg *config.Config) *Client {
	return &Client{
		path:       cfg.YtdlpPath,
		phantomDir: cfg.PhantomJSDir,
	}
}

// args assembles the invocation argument list for one mode.
func (c *Client) args(mode string, req Request) []string {
	args := make([]string, 0, len(baseArgs)+6)
	args = append(args, baseArgs...)
	args = append(args, mode)
	if req.URL != "" {
		args = append(args, req.URL)
	}
	if req.Format != "" {
		args = append(args, "-f", req.Format)
	}
	if req.Password != "" {
		args = append(args, "--video-password", req.Password)
	}
	return args
}

// env returns the environment override: the headless-browser helper
// directory prepended to PATH, when configured. The generic extractor
// backend looks the helper up on PATH.
func (c *Client) env() []string {
	if c.phantomDir == "" {
		return nil
	}
	return []string{"PATH=" + c.phantomDir + string(os.PathListSeparator) + os.Getenv("PATH")}
}

func (c *Client) run(ctx context.Context, mode string, metricMode string, req Request) (string, error) {
	start := time.Now()
	out, err := runner.Output(ctx, c.path, c.args(mode, req), c.env())
	metrics.ExtractionDuration.WithLabelValues(metricMode).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues(metricMode, "error").Inc()
		return "", classify(err)
	}
	metrics.ExtractionsTotal.WithLabelValues(metricMode, "success").Inc()
	return strings.TrimSpace(out), nil
}

// Info resolves full metadata for a request.
func (c *Client) Info(ctx context.Context, req Request) (*Metadata, error) {
	out, err := c.run(ctx, "--dump-single-json", "info", req)
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal([]byte(out), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &meta, nil
}

// URLs resolves the direct media URLs for a request, in order. Two URLs are
// returned when the requested format combines separate video and audio
// streams.
func (c *Client) URLs(ctx context.Context, req Request) ([]string, error) {
	out, err := c.run(ctx, "--get-url", "url", req)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(out, "\n")
	if lines[0] == "" {
		return nil, ErrEmptyResult
	}

	urls := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			urls = append(urls, line)
		}
	}
	return urls, nil
}

// Filename resolves the filename the tool would use for a request.
func (c *Client) Filename(ctx context.Context, req Request) (string, error) {
	return c.run(ctx, "--get-filename", "filename", req)
}

// UserAgent reports the user agent the extraction tool uses for its own
// requests. Media origins that validate the agent expect the same value on
// the follow-up fetch, so the transcoder and raw passthrough reuse it.
func (c *Client) UserAgent(ctx context.Context) (string, error) {
	return c.run(ctx, "--dump-user-agent", "useragent", Request{})
}

// Extractors lists the names of all supported extractor backends.
func (c *Client) Extractors(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, "--list-extractors", "extractors", Request{})
	if err != nil {
		return nil, err
	}

	var names []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}
