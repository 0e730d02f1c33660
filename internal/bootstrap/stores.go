package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eleven-am/voicenotes/internal/note"
	"github.com/eleven-am/voicenotes/internal/session"
	"github.com/eleven-am/voicenotes/internal/shared"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideSessionStore(redisClient *redis.Client) *session.Store {
	return session.NewStore(redisClient)
}

func ProvideNoteStore(db *gorm.DB) *note.Store {
	return note.NewStore(db)
}

func ProvideEmbedder(cfg *Config) note.Embedder {
	if cfg.EmbeddingKey == "" {
		return nil
	}
	return note.NewOpenAIEmbedder(cfg.EmbeddingKey, cfg.EmbeddingURL)
}

func ProvideNoteIndex(client *qdrant.Client, embedder note.Embedder, logger *slog.Logger) *note.Index {
	return note.NewIndex(client, embedder, logger)
}

func RunMigrations(noteStore *note.Store) error {
	return noteStore.Migrate()
}

// EnsureNoteCollection creates the qdrant collection on start. Failures are
// logged and never block startup.
func EnsureNoteCollection(lc fx.Lifecycle, index *note.Index, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			err := index.EnsureCollection(ctx, note.DefaultEmbeddingDims)
			if err != nil && !errors.Is(err, shared.ErrUnavailable) {
				logger.Warn("failed to ensure note collection", "error", err)
			}
			return nil
		},
	})
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideSessionStore,
		ProvideNoteStore,
		ProvideEmbedder,
		ProvideNoteIndex,
	),
	fx.Invoke(RunMigrations),
	fx.Invoke(EnsureNoteCollection),
)
