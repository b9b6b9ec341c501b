package streaming

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testConfig() TimeoutWriterConfig {
	return TimeoutWriterConfig{
		WriteTimeout: 2 * time.Second,
		IdleTimeout:  5 * time.Second,
		ChunkSize:    8,
	}
}

func TestStreamWithTimeoutCopiesAll(t *testing.T) {
	rec := httptest.NewRecorder()
	payload := strings.Repeat("abcdefgh", 100)

	n, err := StreamWithTimeout(context.Background(), rec, strings.NewReader(payload), testConfig())
	if err != nil {
		t.Fatalf("StreamWithTimeout failed: %v", err)
	}
	if n != int64(len(payload)) {
		t.Errorf("bytes written = %d, want %d", n, len(payload))
	}
	if rec.Body.String() != payload {
		t.Error("body does not match payload")
	}
}

func TestStreamWithTimeoutClientGone(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := StreamWithTimeout(ctx, rec, strings.NewReader("data"), testConfig())
	if !errors.Is(err, ErrClientGone) {
		t.Errorf("err = %v, want ErrClientGone", err)
	}
}

func TestWriteAfterClose(t *testing.T) {
	rec := httptest.NewRecorder()
	tw := NewTimeoutWriter(context.Background(), rec, testConfig())

	if err := tw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	if _, err := tw.Write([]byte("late")); !errors.Is(err, ErrStreamCanceled) {
		t.Errorf("Write after Close = %v, want ErrStreamCanceled", err)
	}
}

func TestChunkedWriteSplitsLargeBuffers(t *testing.T) {
	rec := httptest.NewRecorder()
	config := testConfig()
	config.ChunkSize = 4
	tw := NewTimeoutWriter(context.Background(), rec, config)
	defer tw.Close()

	payload := bytes.Repeat([]byte("x"), 50)
	n, err := tw.Write(payload)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(payload) {
		t.Errorf("n = %d, want %d", n, len(payload))
	}

	written, _ := tw.Stats()
	if written != int64(len(payload)) {
		t.Errorf("Stats bytes = %d, want %d", written, len(payload))
	}
}

func TestStatsTracksDuration(t *testing.T) {
	rec := httptest.NewRecorder()
	tw := NewTimeoutWriter(context.Background(), rec, testConfig())
	defer tw.Close()

	if _, err := tw.Write([]byte("abc")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	written, duration := tw.Stats()
	if written != 3 {
		t.Errorf("bytes = %d, want 3", written)
	}
	if duration < 0 {
		t.Errorf("duration = %v, want >= 0", duration)
	}
}

func TestDefaultTimeoutWriterConfig(t *testing.T) {
	config := DefaultTimeoutWriterConfig()
	if config.WriteTimeout <= 0 {
		t.Error("WriteTimeout should be positive")
	}
	if config.IdleTimeout <= 0 {
		t.Error("IdleTimeout should be positive")
	}
	if config.ChunkSize <= 0 {
		t.Error("ChunkSize should be positive")
	}
}
