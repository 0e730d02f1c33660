package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/eleven-am/voicenotes/docs"
	"github.com/eleven-am/voicenotes/internal/audio"
	"github.com/eleven-am/voicenotes/internal/bootstrap"
	"github.com/spf13/cobra"
)

// @title Voicenotes API
// @version 1.0.0
// @description Live speech-to-text over websocket, with saved notes and session metrics.

// @BasePath /api

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "voicenotes",
	Short:        "Live transcription server",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return bootstrap.Run()
	},
}

func init() {
	rootCmd.AddCommand(
		serveCmd(),
		transcribeCmd(),
		streamCmd(),
		seedCmd(),
	)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return bootstrap.Run()
		},
	}
}

func transcribeCmd() *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "transcribe FILE",
		Short: "Transcribe one audio file with the configured pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap.LoadConfig()
			if err != nil {
				return err
			}
			if !cfg.Transcription.HasKey() {
				return fmt.Errorf("no transcription API key configured, set GROQ_API_KEY")
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			logger := bootstrap.ProvideLogger(cfg)
			handler := audio.NewHandler(
				bootstrap.ProvideTranscoder(cfg, logger),
				bootstrap.ProvideTranscriber(cfg, logger),
				bootstrap.ProvideClassifier(cfg),
				cfg.Pipeline.WorkDir,
				cfg.Pipeline.DefaultLanguage,
				logger,
			)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Pipeline.CycleTimeout)
			defer cancel()

			resp, err := handler.Transcribe(ctx, data, filepath.Base(args[0]), language)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "language: %s\nduration: %.2fs\nresult:   %s\n\n%s\n",
				resp.Language, resp.Duration, resp.Result, resp.Text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "lang", "l", "", "language code (defaults to DEFAULT_LANGUAGE)")
	return cmd
}
