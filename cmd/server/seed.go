package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/eleven-am/voicenotes/internal/bootstrap"
	"github.com/eleven-am/voicenotes/internal/note"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed FILE",
		Short: "Import notes from a text file, one note per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap.LoadConfig()
			if err != nil {
				return err
			}
			logger := bootstrap.ProvideLogger(cfg)

			db, err := bootstrap.ProvideDatabase(cfg)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			store := note.NewStore(db)
			if err := store.Migrate(); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}

			client, err := bootstrap.ProvideQdrantClient(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to connect to qdrant: %w", err)
			}
			index := note.NewIndex(client, bootstrap.ProvideEmbedder(cfg), logger)

			ctx := cmd.Context()
			if index.Enabled() {
				if err := index.EnsureCollection(ctx, note.DefaultEmbeddingDims); err != nil {
					return err
				}
			}

			count, err := seedNotes(ctx, args[0], store, index)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d notes\n", count)
			return nil
		},
	}
}

func seedNotes(ctx context.Context, path string, store *note.Store, index *note.Index) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		n := &note.Note{Text: text}
		if err := store.Create(ctx, n); err != nil {
			return count, fmt.Errorf("failed to create note: %w", err)
		}
		if index.Enabled() {
			if err := index.Add(ctx, n); err != nil {
				return count, fmt.Errorf("failed to index note %s: %w", n.ID, err)
			}
		}
		count++
	}
	return count, scanner.Err()
}
