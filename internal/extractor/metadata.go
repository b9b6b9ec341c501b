package extractor

import "encoding/json"

// Metadata is the partial record parsed from the tool's JSON dump. The tool
// emits wildly different field sets per extractor backend, so every field is
// optional; absent fields simply read as zero values.
type Metadata struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	ExtractorKey string  `json:"extractor_key"`
	Protocol     string  `json:"protocol"`
	Ext          string  `json:"ext"`
	URL          string  `json:"url"`
	WebpageURL   string  `json:"webpage_url"`
	Duration     float64 `json:"duration"`
	Thumbnail    string  `json:"thumbnail"`
	Type         string  `json:"_type"`

	// RTMP connection parameters, present only for rtmp sources.
	TCURL        string     `json:"tc_url"`
	PageURL      string     `json:"page_url"`
	PlayerURL    string     `json:"player_url"`
	FlashVersion string     `json:"flash_version"`
	PlayPath     string     `json:"play_path"`
	App          string     `json:"app"`
	RTMPConn     StringList `json:"rtmp_conn"`

	// Entries is present only for playlists (flat-playlist mode: each entry
	// is a thin descriptor, not full metadata).
	Entries []Entry `json:"entries"`
}

// Entry is a playlist item descriptor as emitted in flat-playlist mode.
type Entry struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
	IEKey string `json:"ie_key"`
}

// IsPlaylist reports whether the metadata describes a playlist rather than a
// single video.
func (m *Metadata) IsPlaylist() bool {
	return m.Type == "playlist" || len(m.Entries) > 0
}

// RTMPParams groups the connection parameters needed to pull an rtmp source.
type RTMPParams struct {
	TCURL        string
	PageURL      string
	PlayerURL    string
	FlashVersion string
	PlayPath     string
	App          string
	Conn         []string
}

// RTMP returns the rtmp connection parameters. The boolean is false when the
// source protocol is not rtmp.
func (m *Metadata) RTMP() (RTMPParams, bool) {
	if m.Protocol != "rtmp" {
		return RTMPParams{}, false
	}
	return RTMPParams{
		TCURL:        m.TCURL,
		PageURL:      m.PageURL,
		PlayerURL:    m.PlayerURL,
		FlashVersion: m.FlashVersion,
		PlayPath:     m.PlayPath,
		App:          m.App,
		Conn:         m.RTMPConn,
	}, true
}

// StringList accepts either a single JSON string or an array of strings.
// The tool emits rtmp_conn both ways depending on the backend.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = []string{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}
