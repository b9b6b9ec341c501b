package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"alltube/internal/history"
	"alltube/internal/logging"
	"alltube/internal/metrics"
	"alltube/internal/stream"
	"alltube/internal/streaming"
	"alltube/internal/video"
)

// GetStream serves the media bytes for a page URL.
//
// Query parameters: url (required), format, password, audio=1 for
// audio-only conversion with optional from/to trim, customFormat and
// customBitrate for advanced conversion (when enabled). Without a
// conversion parameter the kind is chosen from the source: rtmp capture,
// HLS repackaging, remux for split streams, raw passthrough otherwise.
func (h *Handlers) GetStream(w http.ResponseWriter, r *http.Request) {
	v, ok := h.videoFromRequest(r)
	if !ok {
		writeJSONError(w, "missing url parameter", http.StatusBadRequest)
		return
	}

	kind, opts, err := h.selectKind(r, v)
	if err != nil {
		h.writeError(w, err)
		return
	}

	s, err := h.pipeline.Open(r.Context(), v, kind, opts, r.Header)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer s.Body.Close()

	filename, err := v.FilenameWithExt(r.Context(), s.Ext)
	if err != nil || filename == "" {
		filename = "download." + s.Ext
	}

	w.Header().Set("Content-Type", s.ContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Disposition", contentDisposition(filename))
	if s.Length >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(s.Length, 10))
	}
	w.WriteHeader(s.StatusCode)

	h.recordHistory(v, kind.String())

	metrics.StreamsInFlight.Inc()
	defer metrics.StreamsInFlight.Dec()

	n, err := streaming.StreamWithTimeout(r.Context(), w, s.Body, h.writerConfig)
	metrics.StreamBytesTotal.WithLabelValues(kind.String()).Add(float64(n))
	if err != nil && !errors.Is(err, streaming.ErrClientGone) && !errors.Is(err, streaming.ErrStreamCanceled) {
		logging.Error("Stream %s for %s failed after %d bytes: %v", kind, v.PageURL(), n, err)
	}
}

// selectKind maps conversion query parameters onto a stream kind.
func (h *Handlers) selectKind(r *http.Request, v *video.Video) (stream.Kind, stream.Options, error) {
	q := r.URL.Query()

	if q.Get("audio") != "" {
		opts := stream.Options{
			AudioBitrate: h.cfg.AudioBitrate,
			Format:       h.cfg.AudioFormat,
			From:         q.Get("from"),
			To:           q.Get("to"),
		}
		return stream.AudioConvert, opts, nil
	}

	if format := q.Get("customFormat"); format != "" {
		if !h.cfg.ConvertAdvanced {
			return 0, stream.Options{}, errConvertDisabled
		}
		if !h.formatAllowed(format) {
			return 0, stream.Options{}, errFormatNotAllowed
		}
		bitrate := h.cfg.AudioBitrate
		if b, err := strconv.Atoi(q.Get("customBitrate")); err == nil && b >= 8 && b <= 320 {
			bitrate = b
		}
		return stream.GenericConvert, stream.Options{AudioBitrate: bitrate, Format: format}, nil
	}

	kind, err := stream.DefaultKind(r.Context(), v)
	return kind, stream.Options{}, err
}

var (
	errConvertDisabled  = errors.New("advanced conversion is disabled")
	errFormatNotAllowed = errors.New("requested format is not allowed")
)

func (h *Handlers) formatAllowed(format string) bool {
	for _, f := range h.cfg.ConvertFormats {
		if f == format {
			return true
		}
	}
	return false
}

// recordHistory writes a history entry when the store is enabled. Failures
// are logged only; the stream must not fail because bookkeeping did.
func (h *Handlers) recordHistory(v *video.Video, kind string) {
	if h.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry := history.Entry{
		PageURL:   v.PageURL(),
		Title:     v.Title(ctx),
		Format:    v.Format(),
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.history.Add(ctx, entry); err != nil {
		logging.Warn("Failed to record history for %s: %v", v.PageURL(), err)
	}
}
