package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "supercut --input <video> --search <query>",
		Short:        "Cut every subtitle or transcript match out of local videos and join them",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         run,
	}

	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SilenceErrors = true

	f := root.Flags()
	f.StringArrayP("input", "i", nil, "Input video (repeatable)")
	f.StringP("search", "s", "", "Search term")
	f.StringP("search-type", "t", "re", "Search type: re, pos, hyper, word, fragment, franken")
	f.StringP("output", "o", "supercut.mp4", "Output file")
	f.IntP("max-clips", "m", 0, "Maximum number of clips (0 keeps all)")
	f.IntP("padding", "p", 0, "Padding in milliseconds added around each clip")
	f.Int("sync", 0, "Subtitle offset in milliseconds (may be negative)")
	f.BoolP("demo", "d", false, "Print the matches instead of rendering")
	f.BoolP("randomize", "r", false, "Shuffle the clips")
	f.Bool("transcribe", false, "Transcribe the inputs with whisper.cpp before searching")
	f.Int("batch-size", 0, "Clips per render batch (0 uses the configured value)")

	pf := root.PersistentFlags()
	pf.String("config", "", "Configuration file (default ~/.config/supercut/config.toml, then ./supercut.toml)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: console or json")

	root.AddCommand(newConfigCmd())
	return root
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  configInit,
	})
	return cmd
}
