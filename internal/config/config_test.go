package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.YtdlpPath != "yt-dlp" {
		t.Errorf("YtdlpPath = %q, want yt-dlp", cfg.YtdlpPath)
	}
	if cfg.FFmpegPath != "ffmpeg" {
		t.Errorf("FFmpegPath = %q, want ffmpeg", cfg.FFmpegPath)
	}
	if cfg.AudioBitrate != 128 {
		t.Errorf("AudioBitrate = %d, want 128", cfg.AudioBitrate)
	}
	if cfg.AudioFormat != "mp3" {
		t.Errorf("AudioFormat = %q, want mp3", cfg.AudioFormat)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"PortTooLow", func(c *Config) { c.Port = 0 }, ErrInvalidPort},
		{"PortTooHigh", func(c *Config) { c.Port = 70000 }, ErrInvalidPort},
		{"BitrateTooLow", func(c *Config) { c.AudioBitrate = 4 }, ErrInvalidBitrate},
		{"BitrateTooHigh", func(c *Config) { c.AudioBitrate = 512 }, ErrInvalidBitrate},
		{"NoExtractor", func(c *Config) { c.YtdlpPath = "" }, ErrNoExtractor},
		{"NoTranscoder", func(c *Config) { c.FFmpegPath = "" }, ErrNoTranscoder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := Validate(cfg); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
port = 9090
ytdlp_path = "/opt/bin/yt-dlp"
audio_bitrate = 192
convert_formats = ["mp3", "flac"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := loadFile(cfg, path); err != nil {
		t.Fatalf("loadFile failed: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.YtdlpPath != "/opt/bin/yt-dlp" {
		t.Errorf("YtdlpPath = %q", cfg.YtdlpPath)
	}
	if cfg.AudioBitrate != 192 {
		t.Errorf("AudioBitrate = %d, want 192", cfg.AudioBitrate)
	}
	if len(cfg.ConvertFormats) != 2 || cfg.ConvertFormats[1] != "flac" {
		t.Errorf("ConvertFormats = %v", cfg.ConvertFormats)
	}
	// Fields absent from the file keep their defaults.
	if cfg.FFmpegPath != "ffmpeg" {
		t.Errorf("FFmpegPath = %q, want default", cfg.FFmpegPath)
	}
}

func TestLoadFileMissingIsIgnored(t *testing.T) {
	cfg := Default()
	if err := loadFile(cfg, filepath.Join(t.TempDir(), "nope.toml")); err != nil {
		t.Errorf("missing file should not error: %v", err)
	}
}

func TestLoadFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("port = ["), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := loadFile(cfg, path); err == nil {
		t.Error("malformed file should error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("YTDLP_PATH", "/usr/local/bin/yt-dlp")
	t.Setenv("AUDIO_BITRATE", "256")
	t.Setenv("CONVERT_ADVANCED", "true")
	t.Setenv("CONVERT_FORMATS", "mp3,wav")
	t.Setenv("USER_AGENT", "test-agent")

	cfg := Default()
	applyEnv(cfg)

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.YtdlpPath != "/usr/local/bin/yt-dlp" {
		t.Errorf("YtdlpPath = %q", cfg.YtdlpPath)
	}
	if cfg.AudioBitrate != 256 {
		t.Errorf("AudioBitrate = %d, want 256", cfg.AudioBitrate)
	}
	if !cfg.ConvertAdvanced {
		t.Error("ConvertAdvanced should be true")
	}
	if len(cfg.ConvertFormats) != 2 {
		t.Errorf("ConvertFormats = %v", cfg.ConvertFormats)
	}
	if cfg.UserAgent != "test-agent" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
}

func TestApplyEnvInvalidValuesKept(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("AUDIO_BITRATE", "loud")

	cfg := Default()
	applyEnv(cfg)

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want default 8080", cfg.Port)
	}
	if cfg.AudioBitrate != 128 {
		t.Errorf("AudioBitrate = %d, want default 128", cfg.AudioBitrate)
	}
}

func TestEnvBool(t *testing.T) {
	truthy := []string{"1", "true", "TRUE", "yes", "on"}
	for _, v := range truthy {
		if !envBool(v) {
			t.Errorf("envBool(%q) = false, want true", v)
		}
	}
	falsy := []string{"0", "false", "off", "banana", ""}
	for _, v := range falsy {
		if envBool(v) {
			t.Errorf("envBool(%q) = true, want false", v)
		}
	}
}
