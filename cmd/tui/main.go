package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ext_builder_server/config"
	"ext_builder_server/internal/ai"
	"ext_builder_server/internal/shell"
	"ext_builder_server/internal/tui"
	"ext_builder_server/internal/viewer"
)

type cliOptions struct {
	OutDir     string
	ConfigPath string
	LogFile    string
	Provider   string
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:   "ext-builder-tui",
		Short: "Generate Chrome extensions from a prompt in the terminal",
		Long: `Describe a Chrome extension and let the AI write the Manifest V3
source. Browse the generated files, copy them to the clipboard, or save
the result as a .zip archive or an unpacked folder ready for "Load unpacked".`,
		Example: `  # Save exports into ./out
  ext-builder-tui --out ./out

  # Use the OpenAI provider for this run
  ext-builder-tui --provider openai`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", ".", "Directory for exported archives and folders")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", ".", "Directory containing config.yaml")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "Write logs to this file (default: discard)")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "Override AI_PROVIDER (gemini or openai)")

	return cmd
}

func run(ctx context.Context, opts *cliOptions) error {
	// The TUI owns the terminal, so logs go to a file or nowhere.
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.SetOutput(io.Discard)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	if opts.Provider != "" {
		os.Setenv("AI_PROVIDER", opts.Provider)
	}
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	generator, err := ai.NewGenerator(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cannot initialize AI generator: %w", err)
	}

	model := tui.New(ctx, shell.New(generator), tui.Options{
		OutDir:      opts.OutDir,
		Clipboard:   viewer.SystemClipboard{},
		CopiedDelay: viewer.DefaultCopiedDelay,
		Timeout:     cfg.GenerationTimeout,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui exited with error: %w", err)
	}
	return nil
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
