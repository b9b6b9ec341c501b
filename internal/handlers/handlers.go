package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"alltube/internal/archive"
	"alltube/internal/config"
	"alltube/internal/extractor"
	"alltube/internal/history"
	"alltube/internal/stream"
	"alltube/internal/streaming"
	"alltube/internal/thumbnail"
	"alltube/internal/video"
)

// Extractor is the extraction surface the handlers need. *extractor.Client
// satisfies it.
type Extractor interface {
	video.Extractor
	Extractors(ctx context.Context) ([]string, error)
}

// Streamer opens pipeline streams. *stream.Pipeline satisfies it.
type Streamer interface {
	Open(ctx context.Context, v *video.Video, kind stream.Kind, opts stream.Options, fwd http.Header) (*stream.Stream, error)
}

type Handlers struct {
	ext      Extractor
	pipeline Streamer
	archiver *archive.Archiver
	thumbs   *thumbnail.Fetcher
	history  *history.Store // nil when history is disabled
	cfg      *config.Config

	writerConfig streaming.TimeoutWriterConfig
	start        time.Time
}

func New(ext Extractor, pipeline Streamer, hist *history.Store, cfg *config.Config) *Handlers {
	return &Handlers{
		ext:          ext,
		pipeline:     pipeline,
		archiver:     archive.New(pipeline),
		thumbs:       thumbnail.New(cfg.UserAgent, 480),
		history:      hist,
		cfg:          cfg,
		writerConfig: streaming.DefaultTimeoutWriterConfig(),
		start:        time.Now(),
	}
}

// videoFromRequest builds a resolver from the url/format/password query
// parameters.
func (h *Handlers) videoFromRequest(r *http.Request) (*video.Video, bool) {
	q := r.URL.Query()
	pageURL := q.Get("url")
	if pageURL == "" {
		return nil, false
	}
	return video.New(h.ext, pageURL, q.Get("format"), q.Get("password")), true
}

// writeError maps the error taxonomy onto HTTP status codes.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	var convErr *stream.UnsupportedConversionError
	var timeErr *stream.InvalidTimeError
	var extErr *extractor.ExtractionError

	switch {
	case errors.Is(err, extractor.ErrPasswordRequired):
		writeJSONError(w, "this video is protected by a password", http.StatusUnauthorized)
	case errors.Is(err, extractor.ErrWrongPassword):
		writeJSONError(w, "wrong password", http.StatusForbidden)
	case errors.As(err, &timeErr):
		writeJSONError(w, timeErr.Error(), http.StatusBadRequest)
	case errors.As(err, &convErr):
		writeJSONError(w, convErr.Error(), http.StatusBadRequest)
	case errors.Is(err, stream.ErrRemuxStreams), errors.Is(err, stream.ErrNotRTMP):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, errConvertDisabled):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, errFormatNotAllowed):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, extractor.ErrEmptyResult):
		writeJSONError(w, "could not resolve any media URL", http.StatusBadGateway)
	case errors.Is(err, stream.ErrTranscoderUnavailable):
		writeJSONError(w, "transcoder unavailable", http.StatusServiceUnavailable)
	case errors.As(err, &extErr):
		writeJSONError(w, "extraction failed", http.StatusBadGateway)
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		writeJSONError(w, "internal error", http.StatusInternalServerError)
	}
}
