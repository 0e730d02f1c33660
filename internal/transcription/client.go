package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

type Client struct {
	client  *openai.Client
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		client:  openai.NewClientWithConfig(clientConfig),
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		logger:  logger.With("component", "transcription", "model", cfg.Model),
	}
}

func (c *Client) Configured() bool {
	return true
}

func (c *Client) Transcribe(ctx context.Context, wavPath, language string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if language == "" {
		language = DefaultLanguage
	}

	start := time.Now()
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.cfg.Model,
		FilePath: wavPath,
		Language: language,
	})
	duration := time.Since(start)

	if err != nil {
		c.logger.Warn("transcription request failed", "duration_ms", duration.Milliseconds(), "error", err)
		return "", fmt.Errorf("create transcription: %w", err)
	}

	c.logger.Debug("transcription received", "duration_ms", duration.Milliseconds(), "chars", len(resp.Text))
	return strings.TrimSpace(resp.Text), nil
}

// Unavailable stands in when no API key is configured; every batch reads as no speech.
type Unavailable struct {
	logger *slog.Logger
	once   sync.Once
}

func NewUnavailable(logger *slog.Logger) *Unavailable {
	if logger == nil {
		logger = slog.Default()
	}
	return &Unavailable{logger: logger.With("component", "transcription")}
}

func (u *Unavailable) Configured() bool {
	return false
}

func (u *Unavailable) Transcribe(context.Context, string, string) (string, error) {
	u.once.Do(func() {
		u.logger.Warn("no transcription API key configured, batches will be treated as silence")
	})
	return "", ErrNoClient
}

func NewFromConfig(cfg Config, logger *slog.Logger) Transcriber {
	if !cfg.HasKey() {
		return NewUnavailable(logger)
	}
	return New(cfg, logger)
}
