package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Render contains output encoding and batching settings.
type Render struct {
	BatchSize     int    `toml:"batch_size"`
	VideoCodec    string `toml:"video_codec"`
	AudioCodec    string `toml:"audio_codec"`
	TempAudioFile string `toml:"temp_audio_file"`
	RemoveTemp    bool   `toml:"remove_temp"`
	Preset        string `toml:"preset"`
	CRF           int    `toml:"crf"`
}

type Search struct {
	VideoExtensions []string `toml:"video_extensions"`
}

// Tools locates the external programs supercut drives.
type Tools struct {
	FFmpeg        string `toml:"ffmpeg"`
	FFprobe       string `toml:"ffprobe"`
	WhisperBin    string `toml:"whisper_bin"`
	WhisperModel  string `toml:"whisper_model"`
	LinguisticBin string `toml:"linguistic_bin"`
}

type Paths struct {
	CacheDir string `toml:"cache_dir"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Config struct {
	Render  Render  `toml:"render"`
	Search  Search  `toml:"search"`
	Tools   Tools   `toml:"tools"`
	Paths   Paths   `toml:"paths"`
	Logging Logging `toml:"logging"`
}

func Default() Config {
	return Config{
		Render: Render{
			BatchSize:     20,
			VideoCodec:    "libx264",
			AudioCodec:    "aac",
			TempAudioFile: "temp-audio.m4a",
			RemoveTemp:    true,
			Preset:        "veryfast",
			CRF:           18,
		},
		Search: Search{VideoExtensions: []string{"mp4", "avi", "mov", "mkv", "m4v"}},
		Tools: Tools{
			FFmpeg:       "ffmpeg",
			FFprobe:      "ffprobe",
			WhisperBin:   ".cache/bin/whisper.cpp",
			WhisperModel: ".cache/models/ggml-base.bin",
		},
		Paths:   Paths{CacheDir: ".cache"},
		Logging: Logging{Level: "info", Format: "console"},
	}
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "supercut", "config.toml"), nil
}

// Load reads the configuration at path, or the first of the per-user file
// and ./supercut.toml when path is empty. A missing file yields defaults.
// Environment overrides are applied through getenv when it is non-nil.
func Load(path string, getenv func(string) string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolvePath(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		f, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}
	if getenv != nil {
		if err := cfg.applyEnv(getenv); err != nil {
			return nil, "", false, err
		}
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func resolvePath(path string) (string, bool, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return path, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return path, true, nil
	}

	candidates := []string{}
	if p, err := DefaultConfigPath(); err == nil {
		candidates = append(candidates, p)
	}
	candidates = append(candidates, "supercut.toml")
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true, nil
		}
	}
	return candidates[0], false, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := map[string]*string{
		"SUPERCUT_FFMPEG":         &c.Tools.FFmpeg,
		"SUPERCUT_FFPROBE":        &c.Tools.FFprobe,
		"SUPERCUT_WHISPER_BIN":    &c.Tools.WhisperBin,
		"SUPERCUT_WHISPER_MODEL":  &c.Tools.WhisperModel,
		"SUPERCUT_LINGUISTIC_BIN": &c.Tools.LinguisticBin,
		"SUPERCUT_CACHE_DIR":      &c.Paths.CacheDir,
		"SUPERCUT_LOG_LEVEL":      &c.Logging.Level,
		"SUPERCUT_LOG_FORMAT":     &c.Logging.Format,
	}
	for k, dst := range str {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			*dst = v
		}
	}
	if v := strings.TrimSpace(getenv("SUPERCUT_BATCH_SIZE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SUPERCUT_BATCH_SIZE: %w", err)
		}
		c.Render.BatchSize = n
	}
	return nil
}

func (c *Config) normalize() {
	exts := c.Search.VideoExtensions[:0]
	for _, e := range c.Search.VideoExtensions {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			exts = append(exts, e)
		}
	}
	c.Search.VideoExtensions = exts
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

func (c *Config) Validate() error {
	if c.Render.BatchSize <= 0 {
		return fmt.Errorf("render.batch_size must be > 0")
	}
	if c.Render.CRF < 0 || c.Render.CRF > 51 {
		return fmt.Errorf("render.crf must be within 0..51")
	}
	if len(c.Search.VideoExtensions) == 0 {
		return fmt.Errorf("search.video_extensions must not be empty")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// CreateSample writes the sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
