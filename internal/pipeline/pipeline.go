package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/forPelevin/supercut/internal/config"
	"github.com/forPelevin/supercut/internal/domain/search"
	"github.com/forPelevin/supercut/internal/ports"
	"github.com/forPelevin/supercut/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/supercut/internal/ports/adapters/ling"
	"github.com/forPelevin/supercut/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/supercut/internal/render"
	"github.com/forPelevin/supercut/internal/transcriber"
	"github.com/forPelevin/supercut/internal/usecase"
	"github.com/google/uuid"
)

type Config struct {
	Inputs    []string
	Output    string
	Query     string
	Mode      search.Mode
	MaxClips  int
	Padding   time.Duration
	Sync      time.Duration
	Demo      bool
	Randomize bool
	// Transcribe runs whisper.cpp over the inputs before searching.
	Transcribe bool
	// BatchSize overrides Settings.Render.BatchSize when positive.
	BatchSize int

	// Settings carries tool paths and encoding defaults. Nil means
	// config.Default().
	Settings *config.Config
	Logger   *slog.Logger
	// Preview receives the demo listing; defaults to os.Stdout.
	Preview io.Writer
}

func (c Config) Validate() error {
	if len(c.Inputs) == 0 {
		return errors.New("at least one input is required")
	}
	for _, in := range c.Inputs {
		if _, err := os.Stat(in); err != nil {
			return fmt.Errorf("stat input: %w", err)
		}
	}
	if strings.TrimSpace(c.Query) == "" {
		return errors.New("search query is empty")
	}
	mode, err := search.ParseMode(string(c.Mode))
	if err != nil {
		return err
	}
	if !c.Demo && strings.TrimSpace(c.Output) == "" {
		return errors.New("output is empty")
	}
	if c.MaxClips < 0 {
		return fmt.Errorf("max clips must be >= 0")
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch size must be >= 0")
	}
	if c.Padding < 0 {
		return fmt.Errorf("padding must be >= 0")
	}
	settings := c.settings()
	if mode.Linguistic() && settings.Tools.LinguisticBin == "" {
		return fmt.Errorf("search type %q needs tools.linguistic_bin", mode)
	}
	if c.Transcribe && settings.Tools.WhisperModel == "" {
		return fmt.Errorf("whisper model path is required for --transcribe")
	}
	return settings.Validate()
}

func (c Config) settings() *config.Config {
	if c.Settings != nil {
		return c.Settings
	}
	def := config.Default()
	return &def
}

// Run wires the adapters and executes one supercut job.
func Run(ctx context.Context, cfg Config) (usecase.Result, error) {
	settings := cfg.settings()
	mode, err := search.ParseMode(string(cfg.Mode))
	if err != nil {
		return usecase.Result{}, err
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	runID := uuid.NewString()
	log = log.With("run_id", runID)

	preview := cfg.Preview
	if preview == nil {
		preview = os.Stdout
	}

	inputs := make([]string, 0, len(cfg.Inputs))
	for _, in := range cfg.Inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return usecase.Result{}, err
		}
		inputs = append(inputs, abs)
	}

	// adapters
	v := ffmpeg.New(settings.Tools.FFmpeg, settings.Tools.FFprobe).
		WithQuality(settings.Render.Preset, settings.Render.CRF)
	asr := whispercpp.New(settings.Tools.WhisperBin, settings.Tools.WhisperModel)

	baseCache := settings.Paths.CacheDir
	if baseCache == "" {
		baseCache = ".cache"
	}
	cacheDir := filepath.Join(baseCache, "runs", hash(strings.Join(inputs, "|")))
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return usecase.Result{}, err
	}
	log.Debug("cache", "dir", cacheDir)

	deps := usecase.Deps{
		Transcriber: transcriber.New(asr, v, cacheDir, log),
		Logger:      log,
		Preview:     preview,
	}
	if bin := settings.Tools.LinguisticBin; bin != "" {
		deps.Linguist = ling.New(bin)
	}

	if !cfg.Demo {
		output, err := filepath.Abs(cfg.Output)
		if err != nil {
			return usecase.Result{}, err
		}
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return usecase.Result{}, fmt.Errorf("create output dir: %w", err)
		}
		workDir := buildWorkDir(filepath.Join(baseCache, "work"), output, runID, time.Now().UTC())
		if err := os.MkdirAll(workDir, 0o755); err != nil {
			return usecase.Result{}, err
		}
		defer os.RemoveAll(workDir)

		batchSize := settings.Render.BatchSize
		if cfg.BatchSize > 0 {
			batchSize = cfg.BatchSize
		}
		deps.Renderer = render.New(v, render.Options{
			Output:    output,
			WorkDir:   workDir,
			BatchSize: batchSize,
			Encode: ports.EncodeOptions{
				VideoCodec:    settings.Render.VideoCodec,
				AudioCodec:    settings.Render.AudioCodec,
				TempAudioFile: tempAudioPath(workDir, settings.Render.TempAudioFile),
				RemoveTemp:    settings.Render.RemoveTemp,
			},
			Logger: log,
		})
	}

	uc := usecase.New(deps)
	res, err := uc.Run(ctx, usecase.Input{
		Inputs:     inputs,
		Query:      cfg.Query,
		Mode:       mode,
		MaxClips:   cfg.MaxClips,
		Padding:    cfg.Padding,
		Sync:       cfg.Sync,
		Demo:       cfg.Demo,
		Randomize:  cfg.Randomize,
		Transcribe: cfg.Transcribe,
		Extensions: settings.Search.VideoExtensions,
	})
	if err != nil {
		return res, err
	}

	if cfg.Demo {
		log.Info("preview done", "clips", len(res.Composition))
		return res, nil
	}
	log.Info("supercut written",
		"output", res.Report.Output,
		"clips", len(res.Composition),
		"skipped_batches", len(res.Report.Failed()),
	)
	return res, nil
}

// tempAudioPath places a relative temp audio name inside the work dir so
// concurrent runs never share it.
func tempAudioPath(workDir, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(workDir, name)
}

func buildWorkDir(root, output, runID string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
	name = normalizePathSegment(name)
	if name == "" {
		name = "supercut"
	}
	ts := now.UTC().Format("20060102-150405Z")
	suffix := hash(runID)[:6]
	return filepath.Join(root, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.ASR = (*whispercpp.Adapter)(nil)
var _ ports.Linguist = (*ling.Adapter)(nil)
var _ ports.Transcriber = (*transcriber.Service)(nil)
var _ usecase.Renderer = (*render.Renderer)(nil)
