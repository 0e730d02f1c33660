package voicesession

import (
	"context"
	"time"

	"github.com/eleven-am/voicenotes/internal/audio"
	"github.com/eleven-am/voicenotes/internal/metrics"
	"github.com/eleven-am/voicenotes/internal/session"
	"github.com/eleven-am/voicenotes/internal/transcription"
)

const (
	MessageTypeTranscription = "transcription"

	TriggerThreshold = "threshold"
	TriggerIdle      = "idle"
	TriggerFlush     = "flush"

	recordTimeout = 2 * time.Second
)

type OutboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Connection is the transport side of a session.
type Connection interface {
	Send(ctx context.Context, msg *OutboundMessage) error
	RemoteAddr() string
	Close() error
}

type Recorder interface {
	SaveRecord(ctx context.Context, rec *session.Record) error
	EndRecord(ctx context.Context, rec *session.Record, status session.Status) error
	IncrementMetric(ctx context.Context, field string, value int64) error
	RecordLatency(ctx context.Context, latencyMs int64) error
}

type Config struct {
	TickInterval       time.Duration
	BatchSize          int
	IdleTimeout        time.Duration
	SessionIdleTimeout time.Duration
	CycleTimeout       time.Duration
	DefaultLanguage    string
	SilenceThreshold   float64
	WorkDir            string
}

func DefaultConfig() Config {
	return Config{
		TickInterval:    500 * time.Millisecond,
		BatchSize:       6,
		IdleTimeout:     750 * time.Millisecond,
		CycleTimeout:    2 * time.Minute,
		DefaultLanguage: transcription.DefaultLanguage,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	if c.CycleTimeout <= 0 {
		c.CycleTimeout = d.CycleTimeout
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = d.DefaultLanguage
	}
	return c
}

// Pipeline bundles the stateless collaborators shared by every session.
type Pipeline struct {
	Transcoder  audio.Transcoder
	Transcriber transcription.Transcriber
	Classifier  *transcription.Classifier
	Recorder    Recorder
	Metrics     *metrics.Metrics
}
