package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrRemuxStreams indicates a remux was requested but the source did not
	// resolve to separate video and audio streams.
	ErrRemuxStreams = errors.New("remuxing requires two resolved streams (video and audio)")

	// ErrTranscoderUnavailable indicates the transcoder binary could not be
	// invoked. This is fatal for the process lifetime and is not retried.
	ErrTranscoderUnavailable = errors.New("transcoder unavailable")

	// ErrNotRTMP indicates an RTMP stream was requested for a source whose
	// protocol is not rtmp.
	ErrNotRTMP = errors.New("source protocol is not rtmp")
)

// UnsupportedConversionError indicates the source cannot be converted.
// Reason names the incompatibility (M3U8, DASH or playlist) so the caller
// can explain it instead of showing a generic conversion failure.
type UnsupportedConversionError struct {
	Reason string
}

func (e *UnsupportedConversionError) Error() string {
	return fmt.Sprintf("conversion not supported for this source: %s", e.Reason)
}

// InvalidTimeError indicates a trim time that does not match [[H:]M:]S.
type InvalidTimeError struct {
	Value string
}

func (e *InvalidTimeError) Error() string {
	return fmt.Sprintf("invalid time value %q, expected [[H:]M:]S", e.Value)
}
