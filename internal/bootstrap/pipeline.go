package bootstrap

import (
	"context"
	"log/slog"

	"github.com/eleven-am/voicenotes/internal/audio"
	"github.com/eleven-am/voicenotes/internal/gateway"
	"github.com/eleven-am/voicenotes/internal/metrics"
	"github.com/eleven-am/voicenotes/internal/session"
	"github.com/eleven-am/voicenotes/internal/transcription"
	"github.com/eleven-am/voicenotes/internal/voicesession"
	"go.uber.org/fx"
)

func ProvideTranscoder(cfg *Config, logger *slog.Logger) *audio.FFmpegTranscoder {
	t := audio.NewFFmpegTranscoder(cfg.FFmpeg, logger)
	if err := t.Available(); err != nil {
		logger.Warn("ffmpeg not available, sessions open but every batch will fail to transcode", "binary", cfg.FFmpeg.Binary, "error", err)
	}
	return t
}

func ProvideTranscriber(cfg *Config, logger *slog.Logger) transcription.Transcriber {
	return transcription.NewFromConfig(cfg.Transcription, logger)
}

func ProvideClassifier(cfg *Config) *transcription.Classifier {
	return transcription.NewClassifier(cfg.FillerPhrases)
}

func ProvideVoiceSessionManager(
	cfg *Config,
	transcoder *audio.FFmpegTranscoder,
	transcriber transcription.Transcriber,
	classifier *transcription.Classifier,
	store *session.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *voicesession.Manager {
	return voicesession.NewManager(voicesession.ManagerConfig{
		Session: cfg.Pipeline,
		Pipeline: voicesession.Pipeline{
			Transcoder:  transcoder,
			Transcriber: transcriber,
			Classifier:  classifier,
			Recorder:    store,
			Metrics:     m,
		},
		Log: logger,
	})
}

func ProvideLiveSessions(mgr *voicesession.Manager) session.LiveSessions {
	return mgr
}

func ProvideGatewayHandler(mgr *voicesession.Manager, m *metrics.Metrics, logger *slog.Logger) *gateway.Handler {
	return gateway.NewHandler(mgr, m, logger)
}

func ProvideAudioHandler(
	cfg *Config,
	transcoder *audio.FFmpegTranscoder,
	transcriber transcription.Transcriber,
	classifier *transcription.Classifier,
	logger *slog.Logger,
) *audio.Handler {
	return audio.NewHandler(transcoder, transcriber, classifier, cfg.Pipeline.WorkDir, cfg.Pipeline.DefaultLanguage, logger)
}

// ShutdownSessions closes every live session before the HTTP server stops
// accepting connections.
func ShutdownSessions(lc fx.Lifecycle, mgr *voicesession.Manager, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("closing voice sessions", "count", mgr.Count())
			return mgr.Shutdown(ctx)
		},
	})
}

var PipelineModule = fx.Options(
	fx.Provide(
		ProvideTranscoder,
		ProvideTranscriber,
		ProvideClassifier,
		ProvideVoiceSessionManager,
		ProvideLiveSessions,
		ProvideGatewayHandler,
		ProvideAudioHandler,
		ProvideConfigWatcher,
	),
	fx.Invoke(ShutdownSessions),
	fx.Invoke(StartConfigWatcher),
)
