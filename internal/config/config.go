package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"alltube/internal/logging"
)

var (
	ErrInvalidPort    = errors.New("invalid port: must be between 1 and 65535")
	ErrInvalidBitrate = errors.New("invalid audio bitrate: must be between 8 and 320")
	ErrNoExtractor    = errors.New("extractor path must not be empty")
	ErrNoTranscoder   = errors.New("transcoder path must not be empty")
)

// Config holds all service configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port int `toml:"port"`

	// YtdlpPath is the extraction tool binary.
	YtdlpPath string `toml:"ytdlp_path"`

	// FFmpegPath is the transcoder binary.
	FFmpegPath string `toml:"ffmpeg_path"`

	// PhantomJSDir is prepended to PATH for extractor backends that need a
	// headless browser helper. Empty disables the override.
	PhantomJSDir string `toml:"phantomjs_dir"`

	// UserAgent is passed to the transcoder for origins that check it.
	UserAgent string `toml:"user_agent"`

	// AudioBitrate is the bitrate (kbit/s) for audio-only conversion.
	AudioBitrate int `toml:"audio_bitrate"`

	// AudioFormat is the container for audio-only conversion.
	AudioFormat string `toml:"audio_format"`

	// ConvertAdvanced enables caller-chosen bitrate/container conversion.
	ConvertAdvanced bool `toml:"convert_advanced"`

	// ConvertFormats are the containers allowed in advanced conversion.
	ConvertFormats []string `toml:"convert_formats"`

	// HistoryPath is the SQLite conversion-history database file.
	// Empty disables history.
	HistoryPath string `toml:"history_path"`

	// MetricsEnabled controls the /metrics endpoint.
	MetricsEnabled bool `toml:"metrics_enabled"`

	// LogHealthChecks controls request logging for health endpoints.
	LogHealthChecks bool `toml:"log_health_checks"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Port:            8080,
		YtdlpPath:       "yt-dlp",
		FFmpegPath:      "ffmpeg",
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64; rv:102.0) Gecko/20100101 Firefox/102.0",
		AudioBitrate:    128,
		AudioFormat:     "mp3",
		ConvertAdvanced: false,
		ConvertFormats:  []string{"mp3", "avi", "flv", "wav"},
		MetricsEnabled:  true,
		LogHealthChecks: true,
	}
}

// Load builds the configuration: defaults, merged with the TOML file named by
// CONVERT_CONFIG_FILE (if set and present), then overridden by environment
// variables. The resulting values are logged at boot.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONVERT_CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
		logging.Info("Loaded config file: %s", path)
	}

	applyEnv(cfg)

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  PORT:              %d", cfg.Port)
	logging.Info("  YTDLP_PATH:        %s", cfg.YtdlpPath)
	logging.Info("  FFMPEG_PATH:       %s", cfg.FFmpegPath)
	logging.Info("  PHANTOMJS_DIR:     %s", orNone(cfg.PhantomJSDir))
	logging.Info("  AUDIO_BITRATE:     %dk", cfg.AudioBitrate)
	logging.Info("  AUDIO_FORMAT:      %s", cfg.AudioFormat)
	logging.Info("  CONVERT_ADVANCED:  %v", cfg.ConvertAdvanced)
	logging.Info("  CONVERT_FORMATS:   %s", strings.Join(cfg.ConvertFormats, ","))
	logging.Info("  HISTORY_PATH:      %s", orNone(cfg.HistoryPath))
	logging.Info("  METRICS_ENABLED:   %v", cfg.MetricsEnabled)
	logging.Info("  LOG_LEVEL:         %s", logging.GetLevel())

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		} else {
			logging.Warn("Invalid PORT %q, keeping %d", v, cfg.Port)
		}
	}
	if v := os.Getenv("YTDLP_PATH"); v != "" {
		cfg.YtdlpPath = v
	}
	if v := os.Getenv("FFMPEG_PATH"); v != "" {
		cfg.FFmpegPath = v
	}
	if v := os.Getenv("PHANTOMJS_DIR"); v != "" {
		cfg.PhantomJSDir = v
	}
	if v := os.Getenv("USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("AUDIO_BITRATE"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil {
			cfg.AudioBitrate = rate
		} else {
			logging.Warn("Invalid AUDIO_BITRATE %q, keeping %d", v, cfg.AudioBitrate)
		}
	}
	if v := os.Getenv("AUDIO_FORMAT"); v != "" {
		cfg.AudioFormat = v
	}
	if v := os.Getenv("CONVERT_ADVANCED"); v != "" {
		cfg.ConvertAdvanced = envBool(v)
	}
	if v := os.Getenv("CONVERT_FORMATS"); v != "" {
		cfg.ConvertFormats = strings.Split(v, ",")
	}
	if v := os.Getenv("HISTORY_PATH"); v != "" {
		cfg.HistoryPath = v
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		cfg.MetricsEnabled = envBool(v)
	}
	if v := os.Getenv("LOG_HEALTH_CHECKS"); v != "" {
		cfg.LogHealthChecks = envBool(v)
	}
}

func envBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// Validate checks if the configuration is valid.
func Validate(cfg *Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return ErrInvalidPort
	}
	if cfg.AudioBitrate < 8 || cfg.AudioBitrate > 320 {
		return ErrInvalidBitrate
	}
	if cfg.YtdlpPath == "" {
		return ErrNoExtractor
	}
	if cfg.FFmpegPath == "" {
		return ErrNoTranscoder
	}
	return nil
}
