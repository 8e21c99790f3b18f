package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forPelevin/supercut/internal/config"
	"github.com/forPelevin/supercut/internal/domain/search"
	"github.com/forPelevin/supercut/internal/logging"
	"github.com/forPelevin/supercut/internal/pipeline"
	"github.com/spf13/cobra"
)

func run(cmd *cobra.Command, _ []string) error {
	inputs, _ := cmd.Flags().GetStringArray("input")
	query, _ := cmd.Flags().GetString("search")
	searchType, _ := cmd.Flags().GetString("search-type")
	output, _ := cmd.Flags().GetString("output")
	maxClips, _ := cmd.Flags().GetInt("max-clips")
	paddingMS, _ := cmd.Flags().GetInt("padding")
	syncMS, _ := cmd.Flags().GetInt("sync")
	demo, _ := cmd.Flags().GetBool("demo")
	randomize, _ := cmd.Flags().GetBool("randomize")
	transcribe, _ := cmd.Flags().GetBool("transcribe")
	batchSize, _ := cmd.Flags().GetInt("batch-size")

	if len(inputs) == 0 {
		return errors.New("--input is required")
	}
	if query == "" {
		return errors.New("--search is required")
	}
	mode, err := search.ParseMode(searchType)
	if err != nil {
		return err
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log, err := logging.New(logging.Options{
		Level:  settings.Logging.Level,
		Format: settings.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 6*time.Hour)
	defer cancelTimeout()

	cfg := pipeline.Config{
		Inputs:     inputs,
		Output:     output,
		Query:      query,
		Mode:       mode,
		MaxClips:   maxClips,
		Padding:    time.Duration(paddingMS) * time.Millisecond,
		Sync:       time.Duration(syncMS) * time.Millisecond,
		Demo:       demo,
		Randomize:  randomize,
		Transcribe: transcribe,
		BatchSize:  batchSize,
		Settings:   settings,
		Logger:     log,
		Preview:    cmd.OutOrStdout(),
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	_, err = pipeline.Run(ctx, cfg)
	return err
}

// loadSettings resolves the config file and applies SUPERCUT_* variables
// and the logging flags on top of it.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	settings, _, _, err := config.Load(path, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		settings.Logging.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		settings.Logging.Format = v
	}
	return settings, nil
}

func configInit(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := config.CreateSample(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
