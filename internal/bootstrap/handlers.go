package bootstrap

import (
	"log/slog"
	"strings"

	"github.com/eleven-am/voicenotes/internal/audio"
	"github.com/eleven-am/voicenotes/internal/gateway"
	"github.com/eleven-am/voicenotes/internal/note"
	"github.com/eleven-am/voicenotes/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/fx"

	_ "github.com/eleven-am/voicenotes/docs"
)

var serverPaths = []string{"/api", "/ws", "/health", "/metrics", "/swagger"}

type HandlerParams struct {
	fx.In

	GatewayHandler *gateway.Handler
	SessionHandler *session.Handler
	NoteHandler    *note.Handler
	AudioHandler   *audio.Handler
	Registry       *prometheus.Registry
	Config         *Config
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	e.Use(params.GatewayHandler.RootUpgrade())

	limits := gateway.DefaultRateLimiterConfig()
	limits.RequestsPerSecond = params.Config.RateLimitRPS
	limits.Burst = params.Config.RateLimitBurst
	api := e.Group("/api", gateway.RateLimiter(limits))
	params.SessionHandler.RegisterRoutes(api)
	params.NoteHandler.RegisterRoutes(api)
	params.AudioHandler.RegisterRoutes(api)

	params.GatewayHandler.RegisterRoutes(e)

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.EchoWrapHandlerV3())

	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Root:  params.Config.StaticDir,
		Index: "index.html",
		HTML5: true,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			for _, prefix := range serverPaths {
				if strings.HasPrefix(path, prefix) {
					return true
				}
			}
			return false
		},
	}))
}

func ProvideSessionHandler(store *session.Store, live session.LiveSessions, logger *slog.Logger) *session.Handler {
	return session.NewHandler(store, live, logger.With("handler", "session"))
}

func ProvideNoteHandler(store *note.Store, index *note.Index, logger *slog.Logger) *note.Handler {
	return note.NewHandler(store, index, logger.With("handler", "note"))
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideSessionHandler,
		ProvideNoteHandler,
	),
	fx.Invoke(RegisterRoutes),
)
