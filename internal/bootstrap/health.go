package bootstrap

import (
	"github.com/eleven-am/voicenotes/internal/audio"
	"github.com/eleven-am/voicenotes/internal/health"
	"github.com/eleven-am/voicenotes/internal/session"
	"github.com/eleven-am/voicenotes/internal/transcription"
	"github.com/labstack/echo/v4"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const version = "1.0.0"

func ProvideHealthHandler(
	db *gorm.DB,
	redis *redis.Client,
	qdrant *qdrant.Client,
	transcoder *audio.FFmpegTranscoder,
	transcriber transcription.Transcriber,
	live session.LiveSessions,
) *health.Handler {
	return health.NewHandler(health.Deps{
		DB:          db,
		Redis:       redis,
		Qdrant:      qdrant,
		Transcoder:  transcoder,
		Transcriber: transcriber,
		Sessions:    live,
		Version:     version,
	})
}

func RegisterHealthRoutes(e *echo.Echo, h *health.Handler) {
	e.Use(h.Middleware())
	h.RegisterRoutes(e)
}

var HealthModule = fx.Options(
	fx.Provide(ProvideHealthHandler),
	fx.Invoke(RegisterHealthRoutes),
)
