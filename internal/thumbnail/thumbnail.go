package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support

	"alltube/internal/logging"
)

// ErrNoThumbnail indicates the source metadata carries no thumbnail URL.
var ErrNoThumbnail = errors.New("no thumbnail available")

const (
	maxBytes     = 20 << 20 // refuse absurd origin responses
	jpegQuality  = 85
	fetchTimeout = 15 * time.Second
)

// Fetcher downloads and resizes remote thumbnails.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxSize   int
}

// New creates a Fetcher that fits thumbnails into a maxSize bounding box.
func New(userAgent string, maxSize int) *Fetcher {
	if maxSize <= 0 {
		maxSize = 480
	}
	return &Fetcher{
		client:    &http.Client{Timeout: fetchTimeout},
		userAgent: userAgent,
		maxSize:   maxSize,
	}
}

// Fetch downloads the thumbnail at url, fits it into the default bounding
// box and returns it encoded as JPEG.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.FetchSized(ctx, url, f.maxSize)
}

// FetchSized is Fetch with a caller-chosen bounding box. Sizes outside
// [16, 1024] fall back to the default.
func (f *Fetcher) FetchSized(ctx context.Context, url string, maxSize int) ([]byte, error) {
	if url == "" {
		return nil, ErrNoThumbnail
	}
	if maxSize < 16 || maxSize > 1024 {
		maxSize = f.maxSize
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("thumbnail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("thumbnail origin returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("reading thumbnail: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding thumbnail: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxSize || bounds.Dy() > maxSize {
		img = imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}

	logging.Debug("Thumbnail %s: %dx%d -> %d bytes", url, bounds.Dx(), bounds.Dy(), buf.Len())
	return buf.Bytes(), nil
}
