package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"alltube/internal/config"
	"alltube/internal/extractor"
	"alltube/internal/logging"
	"alltube/internal/metrics"
	"alltube/internal/runner"
	"alltube/internal/video"
)

// Options carries kind-specific parameters.
type Options struct {
	// AudioBitrate is the target bitrate in kbit/s for conversions.
	AudioBitrate int
	// Format is the target container for conversions.
	Format string
	// From and To optionally trim audio conversion, format [[H:]M:]S.
	From string
	To   string
}

// Stream is the result of opening a pipeline: an incrementally produced byte
// stream plus what the caller needs to set response headers.
type Stream struct {
	Body        io.ReadCloser
	ContentType string
	Ext         string
	// Length is the origin-reported length for Raw streams, -1 when unknown.
	Length int64
	// StatusCode is the origin status for Raw streams (200 or 206), 200
	// otherwise.
	StatusCode int
}

// Pipeline builds output streams for resolved videos. The binary path and
// base arguments are read-only and shared across requests; everything else
// is per-invocation.
type Pipeline struct {
	ffmpegPath string
	userAgent  string
	client     *http.Client

	probeOnce sync.Once
	probeErr  error
}

// NewPipeline creates a Pipeline from the service configuration.
func NewPipeline(cfg *config.Config) *Pipeline {
	return &Pipeline{
		ffmpegPath: cfg.FFmpegPath,
		userAgent:  cfg.UserAgent,
		client: &http.Client{
			// No overall timeout: media transfers are unbounded. Dial and
			// header reads are bounded by the transport defaults.
			Timeout: 0,
		},
	}
}

var timePattern = regexp.MustCompile(`^(\d+:){0,2}\d+(\.\d+)?$`)

// validTime reports whether a trim value matches [[H:]M:]S.
func validTime(value string) bool {
	return timePattern.MatchString(value)
}

// Open produces the byte stream for v according to kind. Validation happens
// before any process is spawned; the transcoder binary is probed once per
// Pipeline before its first use.
func (p *Pipeline) Open(ctx context.Context, v *video.Video, kind Kind, opts Options, fwd http.Header) (*Stream, error) {
	s, err := p.open(ctx, v, kind, opts, fwd)
	if err != nil {
		metrics.StreamsTotal.WithLabelValues(kind.String(), "error").Inc()
		return nil, err
	}
	metrics.StreamsTotal.WithLabelValues(kind.String(), "success").Inc()
	return s, nil
}

func (p *Pipeline) open(ctx context.Context, v *video.Video, kind Kind, opts Options, fwd http.Header) (*Stream, error) {
	switch kind {
	case Raw:
		return p.openRaw(ctx, v, fwd)
	case AudioConvert:
		return p.openAudio(ctx, v, opts)
	case GenericConvert:
		return p.openConvert(ctx, v, opts)
	case Remux:
		return p.openRemux(ctx, v)
	case RTMP:
		return p.openRTMP(ctx, v)
	case M3U8:
		return p.openM3U8(ctx, v)
	default:
		return nil, fmt.Errorf("unknown stream kind %d", kind)
	}
}

// openRaw pulls the first media URL directly, forwarding Range so clients
// can seek, and passes the body through untouched.
func (p *Pipeline) openRaw(ctx context.Context, v *video.Video, fwd http.Header) (*Stream, error) {
	urls, err := v.URLs(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urls[0], nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	if fwd != nil {
		if r := fwd.Get("Range"); r != "" {
			req.Header.Set("Range", r)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("origin request failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("origin returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ext := "mp4"
	if meta, err := v.Metadata(ctx); err == nil && meta.Ext != "" {
		ext = meta.Ext
	}

	return &Stream{
		Body:        resp.Body,
		ContentType: contentType,
		Ext:         ext,
		Length:      resp.ContentLength,
		StatusCode:  resp.StatusCode,
	}, nil
}

func (p *Pipeline) openAudio(ctx context.Context, v *video.Video, opts Options) (*Stream, error) {
	// Trim validation happens first: no process may be spawned for a
	// request that was invalid on arrival.
	if opts.From != "" && !validTime(opts.From) {
		return nil, &InvalidTimeError{Value: opts.From}
	}
	if opts.To != "" && !validTime(opts.To) {
		return nil, &InvalidTimeError{Value: opts.To}
	}

	meta, err := v.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	if meta.IsPlaylist() {
		return nil, &UnsupportedConversionError{Reason: "playlist"}
	}
	if err := checkConvertibleProtocol(meta.Protocol); err != nil {
		return nil, err
	}

	urls, err := v.URLs(ctx)
	if err != nil {
		return nil, err
	}

	args := p.commonArgs()
	if opts.From != "" {
		args = append(args, "-ss", opts.From)
	}
	args = append(args, "-i", urls[0])
	if opts.To != "" {
		args = append(args, "-to", opts.To)
	}
	args = append(args,
		"-vn",
		"-b:a", strconv.Itoa(opts.AudioBitrate)+"k",
		"-f", opts.Format,
		"pipe:1",
	)

	return p.startTranscode(ctx, args, opts.Format)
}

func (p *Pipeline) openConvert(ctx context.Context, v *video.Video, opts Options) (*Stream, error) {
	meta, err := v.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkConvertibleProtocol(meta.Protocol); err != nil {
		return nil, err
	}

	urls, err := v.URLs(ctx)
	if err != nil {
		return nil, err
	}

	args := p.commonArgs()
	args = append(args,
		"-i", urls[0],
		"-b:a", strconv.Itoa(opts.AudioBitrate)+"k",
		"-f", opts.Format,
		"pipe:1",
	)

	return p.startTranscode(ctx, args, opts.Format)
}

func (p *Pipeline) openRemux(ctx context.Context, v *video.Video) (*Stream, error) {
	urls, err := v.URLs(ctx)
	if err != nil {
		return nil, err
	}
	if len(urls) < 2 {
		return nil, ErrRemuxStreams
	}

	args := p.commonArgs()
	args = append(args,
		"-i", urls[0],
		"-i", urls[1],
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c", "copy",
		"-f", "matroska",
		"pipe:1",
	)

	return p.startTranscode(ctx, args, "mkv")
}

func (p *Pipeline) openRTMP(ctx context.Context, v *video.Video) (*Stream, error) {
	meta, err := v.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	params, ok := meta.RTMP()
	if !ok {
		return nil, ErrNotRTMP
	}

	urls, err := v.URLs(ctx)
	if err != nil {
		return nil, err
	}

	args := p.commonArgs()
	args = appendRTMPArgs(args, params)
	args = append(args,
		"-i", urls[0],
		"-c", "copy",
		"-f", "flv",
		"pipe:1",
	)

	return p.startTranscode(ctx, args, "flv")
}

func (p *Pipeline) openM3U8(ctx context.Context, v *video.Video) (*Stream, error) {
	urls, err := v.URLs(ctx)
	if err != nil {
		return nil, err
	}

	// Copy codecs and rewrite the AAC bitstream framing; fragmented MP4
	// flags let the container be written without seeking back.
	args := p.commonArgs()
	args = append(args,
		"-i", urls[0],
		"-c:v", "copy",
		"-c:a", "copy",
		"-bsf:a", "aac_adtstoasc",
		"-movflags", "frag_keyframe+empty_moov",
		"-f", "mp4",
		"pipe:1",
	)

	return p.startTranscode(ctx, args, "mp4")
}

// commonArgs starts every transcoder invocation: quiet output plus the
// spoofed user agent for origins that check it.
func (p *Pipeline) commonArgs() []string {
	return []string{"-v", "error", "-user_agent", p.userAgent}
}

// appendRTMPArgs emits the rtmp connection parameters as input options.
func appendRTMPArgs(args []string, params extractor.RTMPParams) []string {
	if params.TCURL != "" {
		args = append(args, "-rtmp_tcurl", params.TCURL)
	}
	if params.PageURL != "" {
		args = append(args, "-rtmp_pageurl", params.PageURL)
	}
	if params.PlayerURL != "" {
		args = append(args, "-rtmp_swfurl", params.PlayerURL)
	}
	if params.FlashVersion != "" {
		args = append(args, "-rtmp_flashver", params.FlashVersion)
	}
	if params.PlayPath != "" {
		args = append(args, "-rtmp_playpath", params.PlayPath)
	}
	if params.App != "" {
		args = append(args, "-rtmp_app", params.App)
	}
	for _, conn := range params.Conn {
		args = append(args, "-rtmp_conn", conn)
	}
	return args
}

// checkConvertibleProtocol rejects segmented protocols that the conversion
// kinds cannot consume.
func checkConvertibleProtocol(protocol string) error {
	switch protocol {
	case "m3u8", "m3u8_native":
		return &UnsupportedConversionError{Reason: "M3U8"}
	case "http_dash_segments":
		return &UnsupportedConversionError{Reason: "DASH"}
	}
	return nil
}

// probe verifies once per Pipeline that the transcoder binary is invocable.
// The probe runs detached from the request context so one canceled request
// cannot cache a spurious failure for the process lifetime.
func (p *Pipeline) probe() error {
	p.probeOnce.Do(func() {
		probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if _, err := runner.Output(probeCtx, p.ffmpegPath, []string{"-version"}, nil); err != nil {
			p.probeErr = fmt.Errorf("%w: %v", ErrTranscoderUnavailable, err)
		}
	})
	return p.probeErr
}

// startTranscode probes the binary, spawns it and wraps its stdout.
func (p *Pipeline) startTranscode(ctx context.Context, args []string, ext string) (*Stream, error) {
	if err := p.probe(); err != nil {
		return nil, err
	}

	proc, err := runner.Start(ctx, p.ffmpegPath, args, nil)
	if err != nil {
		return nil, err
	}

	return &Stream{
		Body:        &processBody{reader: proc.Stdout(), proc: proc},
		ContentType: contentTypeForExt(ext),
		Ext:         ext,
		Length:      -1,
		StatusCode:  http.StatusOK,
	}, nil
}

// contentTypeForExt maps output containers to MIME types.
func contentTypeForExt(ext string) string {
	switch ext {
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/x-wav"
	case "flac":
		return "audio/flac"
	case "opus", "ogg":
		return "audio/ogg"
	case "avi":
		return "video/x-msvideo"
	case "flv":
		return "video/x-flv"
	case "mkv":
		return "video/x-matroska"
	case "mp4":
		return "video/mp4"
	case "webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}

// processBody streams a transcoder's stdout. When the process finishes with
// a non-zero status mid-stream, the failure is surfaced as a read error so
// the transport aborts instead of silently truncating.
type processBody struct {
	reader io.Reader
	proc   *runner.Process
	mu     sync.Mutex
	waited bool
	closed bool
}

func (b *processBody) Read(p []byte) (int, error) {
	n, err := b.reader.Read(p)
	if err == io.EOF {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !b.waited && !b.closed {
			b.waited = true
			if werr := b.proc.Wait(); werr != nil {
				logging.Error("Transcoder failed mid-stream: %v", werr)
				return n, fmt.Errorf("transcoder failed: %w", werr)
			}
		}
	}
	return n, err
}

// Close kills the process if it is still running and reaps it. Safe to call
// after the stream completed normally.
func (b *processBody) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if !b.waited {
		return b.proc.Close()
	}
	return nil
}
