package stream

import (
	"context"

	"alltube/internal/video"
)

// Kind selects how the output byte stream for a video is produced.
type Kind int

const (
	// Raw streams the first media URL's HTTP body through unmodified.
	Raw Kind = iota
	// AudioConvert transcodes to audio-only at the configured bitrate.
	AudioConvert
	// GenericConvert transcodes to a caller-chosen bitrate/container.
	GenericConvert
	// Remux maps separate video and audio streams into one container
	// without re-encoding.
	Remux
	// RTMP captures an rtmp source using its connection parameters.
	RTMP
	// M3U8 repackages an HLS source into a single progressive container.
	M3U8
)

func (k Kind) String() string {
	switch k {
	case Raw:
		return "raw"
	case AudioConvert:
		return "audio"
	case GenericConvert:
		return "convert"
	case Remux:
		return "remux"
	case RTMP:
		return "rtmp"
	case M3U8:
		return "m3u8"
	default:
		return "unknown"
	}
}

// DefaultKind picks the stream kind for a video when the caller requested no
// conversion: rtmp sources are captured, HLS sources are repackaged, sources
// resolving to separate video and audio streams are remuxed, and everything
// else is passed through raw.
func DefaultKind(ctx context.Context, v *video.Video) (Kind, error) {
	meta, err := v.Metadata(ctx)
	if err != nil {
		return Raw, err
	}

	switch meta.Protocol {
	case "rtmp":
		return RTMP, nil
	case "m3u8", "m3u8_native":
		return M3U8, nil
	}

	urls, err := v.URLs(ctx)
	if err != nil {
		return Raw, err
	}
	if len(urls) >= 2 {
		return Remux, nil
	}
	return Raw, nil
}
