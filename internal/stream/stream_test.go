package stream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"alltube/internal/config"
	"alltube/internal/extractor"
	"alltube/internal/video"
)

type fakeExtractor struct {
	meta *extractor.Metadata
	urls []string
	name string
}

func (f *fakeExtractor) Info(ctx context.Context, req extractor.Request) (*extractor.Metadata, error) {
	return f.meta, nil
}

func (f *fakeExtractor) URLs(ctx context.Context, req extractor.Request) ([]string, error) {
	return f.urls, nil
}

func (f *fakeExtractor) Filename(ctx context.Context, req extractor.Request) (string, error) {
	return f.name, nil
}

func newVideo(meta *extractor.Metadata, urls ...string) *video.Video {
	return video.New(&fakeExtractor{meta: meta, urls: urls}, "https://example.com/v", "best", "")
}

// testPipeline points the transcoder at a binary that must never run, so
// tests prove validation happens before any process is spawned.
func testPipeline() *Pipeline {
	cfg := config.Default()
	cfg.FFmpegPath = "/nonexistent/ffmpeg"
	return NewPipeline(cfg)
}

// fakeFFmpeg writes a shell script that answers -version and dumps its
// arguments, standing in for the transcoder.
func fakeFFmpeg(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidTime(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"30", true},
		{"1:23", true},
		{"00:01:23", true},
		{"1:23.5", true},
		{"123.250", true},
		{"abc", false},
		{"1:2:3:4", false},
		{"-5", false},
		{"1:xx", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := validTime(tt.value); got != tt.want {
			t.Errorf("validTime(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestAudioConvertRejectsInvalidTrim(t *testing.T) {
	p := testPipeline()
	v := newVideo(&extractor.Metadata{}, "https://cdn/a")

	_, err := p.Open(context.Background(), v, AudioConvert, Options{
		AudioBitrate: 128, Format: "mp3", From: "abc",
	}, nil)

	var timeErr *InvalidTimeError
	if !errors.As(err, &timeErr) {
		t.Fatalf("err = %v, want InvalidTimeError", err)
	}
	if timeErr.Value != "abc" {
		t.Errorf("Value = %q", timeErr.Value)
	}
}

func TestAudioConvertRejectsSegmentedProtocols(t *testing.T) {
	tests := []struct {
		protocol string
		reason   string
	}{
		{"m3u8", "M3U8"},
		{"m3u8_native", "M3U8"},
		{"http_dash_segments", "DASH"},
	}
	for _, tt := range tests {
		t.Run(tt.protocol, func(t *testing.T) {
			p := testPipeline()
			v := newVideo(&extractor.Metadata{Protocol: tt.protocol}, "https://cdn/a")

			_, err := p.Open(context.Background(), v, AudioConvert, Options{
				AudioBitrate: 128, Format: "mp3",
			}, nil)

			var convErr *UnsupportedConversionError
			if !errors.As(err, &convErr) {
				t.Fatalf("err = %v, want UnsupportedConversionError", err)
			}
			if convErr.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", convErr.Reason, tt.reason)
			}
		})
	}
}

func TestAudioConvertRejectsPlaylists(t *testing.T) {
	p := testPipeline()
	v := newVideo(&extractor.Metadata{Type: "playlist"}, "https://cdn/a")

	_, err := p.Open(context.Background(), v, AudioConvert, Options{
		AudioBitrate: 128, Format: "mp3",
	}, nil)

	var convErr *UnsupportedConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("err = %v, want UnsupportedConversionError", err)
	}
	if convErr.Reason != "playlist" {
		t.Errorf("Reason = %q, want playlist", convErr.Reason)
	}
}

func TestRemuxRequiresTwoStreams(t *testing.T) {
	p := testPipeline()
	v := newVideo(&extractor.Metadata{}, "https://cdn/only")

	_, err := p.Open(context.Background(), v, Remux, Options{}, nil)
	if !errors.Is(err, ErrRemuxStreams) {
		t.Fatalf("err = %v, want ErrRemuxStreams", err)
	}
}

func TestRTMPRequiresRTMPProtocol(t *testing.T) {
	p := testPipeline()
	v := newVideo(&extractor.Metadata{Protocol: "https"}, "https://cdn/a")

	_, err := p.Open(context.Background(), v, RTMP, Options{}, nil)
	if !errors.Is(err, ErrNotRTMP) {
		t.Fatalf("err = %v, want ErrNotRTMP", err)
	}
}

func TestProbeFailureReportsTranscoderUnavailable(t *testing.T) {
	p := testPipeline()
	v := newVideo(&extractor.Metadata{}, "https://cdn/a", "https://cdn/b")

	_, err := p.Open(context.Background(), v, Remux, Options{}, nil)
	if !errors.Is(err, ErrTranscoderUnavailable) {
		t.Fatalf("err = %v, want ErrTranscoderUnavailable", err)
	}

	// The probe result is cached for the pipeline's lifetime.
	_, err = p.Open(context.Background(), v, Remux, Options{}, nil)
	if !errors.Is(err, ErrTranscoderUnavailable) {
		t.Fatalf("second err = %v, want ErrTranscoderUnavailable", err)
	}
}

func TestAudioConvertArgs(t *testing.T) {
	path := fakeFFmpeg(t, `case "$1" in -version) echo ffmpeg;; *) echo "$@";; esac`)
	cfg := config.Default()
	cfg.FFmpegPath = path
	p := NewPipeline(cfg)

	v := newVideo(&extractor.Metadata{}, "https://cdn/a")
	s, err := p.Open(context.Background(), v, AudioConvert, Options{
		AudioBitrate: 192, Format: "mp3", From: "10", To: "1:30",
	}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Body.Close()

	out, err := io.ReadAll(s.Body)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	got := strings.TrimSpace(string(out))
	want := "-v error -user_agent " + cfg.UserAgent +
		" -ss 10 -i https://cdn/a -to 1:30 -vn -b:a 192k -f mp3 pipe:1"
	if got != want {
		t.Errorf("args = %q\nwant   %q", got, want)
	}
	if s.ContentType != "audio/mpeg" || s.Ext != "mp3" {
		t.Errorf("ContentType = %q, Ext = %q", s.ContentType, s.Ext)
	}
	if s.Length != -1 {
		t.Errorf("Length = %d, want -1", s.Length)
	}
}

func TestRemuxArgs(t *testing.T) {
	path := fakeFFmpeg(t, `case "$1" in -version) echo ffmpeg;; *) echo "$@";; esac`)
	cfg := config.Default()
	cfg.FFmpegPath = path
	p := NewPipeline(cfg)

	v := newVideo(&extractor.Metadata{}, "https://cdn/video", "https://cdn/audio")
	s, err := p.Open(context.Background(), v, Remux, Options{}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Body.Close()

	out, _ := io.ReadAll(s.Body)
	got := strings.TrimSpace(string(out))
	want := "-v error -user_agent " + cfg.UserAgent +
		" -i https://cdn/video -i https://cdn/audio" +
		" -map 0:v:0 -map 1:a:0 -c copy -f matroska pipe:1"
	if got != want {
		t.Errorf("args = %q\nwant   %q", got, want)
	}
	if s.Ext != "mkv" || s.ContentType != "video/x-matroska" {
		t.Errorf("Ext = %q, ContentType = %q", s.Ext, s.ContentType)
	}
}

func TestRTMPArgs(t *testing.T) {
	path := fakeFFmpeg(t, `case "$1" in -version) echo ffmpeg;; *) echo "$@";; esac`)
	cfg := config.Default()
	cfg.FFmpegPath = path
	p := NewPipeline(cfg)

	meta := &extractor.Metadata{
		Protocol:     "rtmp",
		TCURL:        "rtmp://host/app",
		PageURL:      "https://page",
		PlayerURL:    "https://player.swf",
		FlashVersion: "WIN 10",
		PlayPath:     "path",
		App:          "app",
		RTMPConn:     extractor.StringList{"B:1"},
	}
	v := newVideo(meta, "rtmp://host/app/stream")
	s, err := p.Open(context.Background(), v, RTMP, Options{}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Body.Close()

	out, _ := io.ReadAll(s.Body)
	got := strings.TrimSpace(string(out))
	want := "-v error -user_agent " + cfg.UserAgent +
		" -rtmp_tcurl rtmp://host/app -rtmp_pageurl https://page" +
		" -rtmp_swfurl https://player.swf -rtmp_flashver WIN 10" +
		" -rtmp_playpath path -rtmp_app app -rtmp_conn B:1" +
		" -i rtmp://host/app/stream -c copy -f flv pipe:1"
	if got != want {
		t.Errorf("args = %q\nwant   %q", got, want)
	}
	if s.Ext != "flv" {
		t.Errorf("Ext = %q, want flv", s.Ext)
	}
}

func TestM3U8Args(t *testing.T) {
	path := fakeFFmpeg(t, `case "$1" in -version) echo ffmpeg;; *) echo "$@";; esac`)
	cfg := config.Default()
	cfg.FFmpegPath = path
	p := NewPipeline(cfg)

	v := newVideo(&extractor.Metadata{Protocol: "m3u8"}, "https://cdn/index.m3u8")
	s, err := p.Open(context.Background(), v, M3U8, Options{}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Body.Close()

	out, _ := io.ReadAll(s.Body)
	got := strings.TrimSpace(string(out))
	want := "-v error -user_agent " + cfg.UserAgent +
		" -i https://cdn/index.m3u8 -c:v copy -c:a copy -bsf:a aac_adtstoasc" +
		" -movflags frag_keyframe+empty_moov -f mp4 pipe:1"
	if got != want {
		t.Errorf("args = %q\nwant   %q", got, want)
	}
	if s.ContentType != "video/mp4" {
		t.Errorf("ContentType = %q", s.ContentType)
	}
}

func TestTranscoderFailureSurfacesAsReadError(t *testing.T) {
	path := fakeFFmpeg(t, `case "$1" in -version) echo ffmpeg;; *) echo partial; echo "boom" >&2; exit 1;; esac`)
	cfg := config.Default()
	cfg.FFmpegPath = path
	p := NewPipeline(cfg)

	v := newVideo(&extractor.Metadata{}, "https://cdn/a")
	s, err := p.Open(context.Background(), v, GenericConvert, Options{
		AudioBitrate: 128, Format: "avi",
	}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Body.Close()

	_, err = io.ReadAll(s.Body)
	if err == nil {
		t.Fatal("expected a read error after the transcoder exits non-zero")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("err = %v, want transcoder stderr included", err)
	}
}

func TestRawPassthrough(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Firefox") {
			t.Errorf("User-Agent = %q, want configured agent", ua)
		}
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("media-bytes"))
	}))
	defer origin.Close()

	cfg := config.Default()
	cfg.FFmpegPath = "/nonexistent/ffmpeg" // raw streams never touch the transcoder
	p := NewPipeline(cfg)

	v := newVideo(&extractor.Metadata{Ext: "mp4"}, origin.URL)
	s, err := p.Open(context.Background(), v, Raw, Options{}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Body.Close()

	body, _ := io.ReadAll(s.Body)
	if string(body) != "media-bytes" {
		t.Errorf("body = %q", body)
	}
	if s.ContentType != "video/mp4" {
		t.Errorf("ContentType = %q", s.ContentType)
	}
	if s.Length != int64(len("media-bytes")) {
		t.Errorf("Length = %d", s.Length)
	}
	if s.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", s.StatusCode)
	}
}

func TestRawForwardsRange(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") != "bytes=3-6" {
			t.Errorf("Range = %q, want bytes=3-6", r.Header.Get("Range"))
		}
		w.Header().Set("Content-Range", "bytes 3-6/11")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte("ia-b"))
	}))
	defer origin.Close()

	p := testPipeline()
	v := newVideo(&extractor.Metadata{Ext: "webm"}, origin.URL)

	fwd := http.Header{}
	fwd.Set("Range", "bytes=3-6")
	s, err := p.Open(context.Background(), v, Raw, Options{}, fwd)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Body.Close()

	if s.StatusCode != http.StatusPartialContent {
		t.Errorf("StatusCode = %d, want 206", s.StatusCode)
	}
	if s.Ext != "webm" {
		t.Errorf("Ext = %q, want webm", s.Ext)
	}
}

func TestRawDisconnectClosesOriginConnection(t *testing.T) {
	originSawClose := make(chan error, 1)
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()

		w.Write([]byte("head"))
		w.(http.Flusher).Flush()

		// The origin-side request context closes when the fetching
		// client drops the connection.
		select {
		case <-r.Context().Done():
			originSawClose <- nil
		case <-time.After(5 * time.Second):
			originSawClose <- errors.New("origin never observed the disconnect")
		}
	}))
	defer origin.Close()

	p := testPipeline()
	v := newVideo(&extractor.Metadata{Ext: "mp4"}, origin.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := p.Open(ctx, v, Raw, Options{}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	buf := make([]byte, 4)
	if _, err := io.ReadFull(s.Body, buf); err != nil {
		t.Fatalf("reading stream head: %v", err)
	}

	cancel()
	s.Body.Close()

	if err := <-originSawClose; err != nil {
		t.Fatal(err)
	}
}

func TestRawOriginErrorStatus(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer origin.Close()

	p := testPipeline()
	v := newVideo(&extractor.Metadata{}, origin.URL)

	_, err := p.Open(context.Background(), v, Raw, Options{}, nil)
	if err == nil {
		t.Fatal("expected an error for a 4xx origin response")
	}
	if !strings.Contains(err.Error(), "410") {
		t.Errorf("err = %v, want origin status included", err)
	}
}

func TestDefaultKind(t *testing.T) {
	tests := []struct {
		name string
		meta *extractor.Metadata
		urls []string
		want Kind
	}{
		{"PlainHTTP", &extractor.Metadata{Protocol: "https"}, []string{"https://cdn/a"}, Raw},
		{"RTMPSource", &extractor.Metadata{Protocol: "rtmp"}, []string{"rtmp://h/a"}, RTMP},
		{"HLSSource", &extractor.Metadata{Protocol: "m3u8"}, []string{"https://cdn/i.m3u8"}, M3U8},
		{"HLSNative", &extractor.Metadata{Protocol: "m3u8_native"}, []string{"https://cdn/i.m3u8"}, M3U8},
		{"SplitStreams", &extractor.Metadata{Protocol: "https"}, []string{"https://cdn/v", "https://cdn/a"}, Remux},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newVideo(tt.meta, tt.urls...)
			got, err := DefaultKind(context.Background(), v)
			if err != nil {
				t.Fatalf("DefaultKind failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("DefaultKind = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Raw, "raw"}, {AudioConvert, "audio"}, {GenericConvert, "convert"},
		{Remux, "remux"}, {RTMP, "rtmp"}, {M3U8, "m3u8"}, {Kind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
