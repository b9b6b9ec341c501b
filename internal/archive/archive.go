package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"alltube/internal/logging"
	"alltube/internal/metrics"
	"alltube/internal/stream"
	"alltube/internal/video"
)

// ErrNoEntries indicates an archive was requested for an empty playlist.
var ErrNoEntries = errors.New("no entries to archive")

// Opener opens the byte stream for a single video. *stream.Pipeline
// satisfies it.
type Opener interface {
	Open(ctx context.Context, v *video.Video, kind stream.Kind, opts stream.Options, fwd http.Header) (*stream.Stream, error)
}

// Archiver builds streaming ZIP archives from playlist entries.
type Archiver struct {
	opener Opener
}

func New(opener Opener) *Archiver {
	return &Archiver{opener: opener}
}

// Options selects how archive entries are encoded.
type Options struct {
	// Convert transcodes every entry to audio instead of streaming it in
	// its default kind.
	Convert bool
	// Stream carries the conversion parameters when Convert is set.
	Stream stream.Options
}

// Stream opens a ZIP stream containing every video in order. Entries stream
// in their default kind, or are audio-converted when opts.Convert is set;
// conversion restrictions (segmented protocols, nested playlists) apply per
// entry. The first entry is opened before returning, so a playlist that
// cannot produce any bytes fails here rather than inside a half-written
// response. Failures on later entries are logged and skipped; the archive
// completes with the entries that worked.
//
// Closing the returned reader cancels all in-flight entry streams.
func (a *Archiver) Stream(ctx context.Context, videos []*video.Video, opts Options) (io.ReadCloser, error) {
	if len(videos) == 0 {
		return nil, ErrNoEntries
	}

	ctx, cancel := context.WithCancel(ctx)

	first, firstName, err := a.openEntry(ctx, videos[0], opts)
	if err != nil {
		cancel()
		metrics.ArchivesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("first archive entry: %w", err)
	}

	pr, pw := io.Pipe()
	go a.write(ctx, pw, videos, opts, first, firstName)

	metrics.ArchivesTotal.WithLabelValues("success").Inc()
	return &body{pr: pr, cancel: cancel}, nil
}

func (a *Archiver) write(ctx context.Context, pw *io.PipeWriter, videos []*video.Video, opts Options, first *stream.Stream, firstName string) {
	zw := zip.NewWriter(pw)
	names := make(map[string]int)

	if err := a.writeEntry(zw, first, uniqueName(names, firstName)); err != nil {
		zw.Close()
		pw.CloseWithError(err)
		return
	}

	for _, v := range videos[1:] {
		if ctx.Err() != nil {
			zw.Close()
			pw.CloseWithError(ctx.Err())
			return
		}

		s, name, err := a.openEntry(ctx, v, opts)
		if err != nil {
			logging.Warn("Skipping archive entry %s: %v", v.PageURL(), err)
			metrics.ArchiveEntriesTotal.WithLabelValues("skipped").Inc()
			continue
		}
		if err := a.writeEntry(zw, s, uniqueName(names, name)); err != nil {
			// A write failure here means the pipe reader is gone. Stop.
			zw.Close()
			pw.CloseWithError(err)
			return
		}
	}

	pw.CloseWithError(zw.Close())
}

// openEntry resolves the entry's stream and a filename for its ZIP header.
func (a *Archiver) openEntry(ctx context.Context, v *video.Video, opts Options) (*stream.Stream, string, error) {
	kind := stream.AudioConvert
	streamOpts := opts.Stream
	if !opts.Convert {
		var err error
		if kind, err = stream.DefaultKind(ctx, v); err != nil {
			return nil, "", err
		}
		streamOpts = stream.Options{}
	}

	s, err := a.opener.Open(ctx, v, kind, streamOpts, nil)
	if err != nil {
		return nil, "", err
	}

	name, err := v.FilenameWithExt(ctx, s.Ext)
	if err != nil || name == "" {
		name = fallbackName(v, s.Ext)
	}
	return s, name, nil
}

func (a *Archiver) writeEntry(zw *zip.Writer, s *stream.Stream, name string) error {
	defer s.Body.Close()

	// Store, not Deflate: media payloads are already compressed and
	// deflating them burns CPU for nothing.
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Store,
		Modified: time.Now(),
	})
	if err != nil {
		return err
	}

	n, err := io.Copy(w, s.Body)
	if err != nil {
		metrics.ArchiveEntriesTotal.WithLabelValues("skipped").Inc()
		return fmt.Errorf("archive entry %s after %d bytes: %w", name, n, err)
	}
	metrics.ArchiveEntriesTotal.WithLabelValues("written").Inc()
	return nil
}

// uniqueName suffixes duplicate entry names so the archive never contains
// two members with the same path.
func uniqueName(names map[string]int, name string) string {
	n := names[name]
	names[name] = n + 1
	if n == 0 {
		return name
	}

	ext := ""
	base := name
	if i := strings.LastIndex(name, "."); i > 0 {
		base, ext = name[:i], name[i:]
	}
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}

func fallbackName(v *video.Video, ext string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(v.PageURL())
	if ext != "" {
		name += "." + ext
	}
	return name
}

// body wraps the pipe reader so closing it also cancels entry streams.
type body struct {
	pr     *io.PipeReader
	cancel context.CancelFunc
}

func (b *body) Read(p []byte) (int, error) {
	return b.pr.Read(p)
}

func (b *body) Close() error {
	b.cancel()
	return b.pr.Close()
}
