package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voicenotes"

// Batch outcomes used as label values.
const (
	OutcomeSpeech          = "speech"
	OutcomeFiller          = "filler"
	OutcomeSilent          = "silent"
	OutcomeTranscodeFailed = "transcode_failed"
	OutcomeFailed          = "transcription_failed"
)

// Metrics holds the pipeline collectors
type Metrics struct {
	// Session metrics
	ActiveSessions   prometheus.Gauge
	SessionsOpened   prometheus.Counter
	SessionsClosed   prometheus.Counter
	SessionDuration  prometheus.Histogram
	ChunksReceived   *prometheus.CounterVec
	ChunkBytes       prometheus.Histogram
	IngestionErrors  prometheus.Counter

	// Cycle metrics
	Cycles          *prometheus.CounterVec
	CycleDuration   prometheus.Histogram
	Batches         *prometheus.CounterVec
	TranscodeTime   prometheus.Histogram
	TranscribeTime  prometheus.Histogram
	TranscriptChars prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Current number of live transcription sessions",
		}),
		SessionsOpened: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_opened_total",
			Help:      "Total number of sessions opened",
		}),
		SessionsClosed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_closed_total",
			Help:      "Total number of sessions closed",
		}),
		SessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Lifetime of sessions in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1 hour
		}),
		ChunksReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_received_total",
			Help:      "Total number of audio chunks received",
		}, []string{"encoding"}),
		ChunkBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_size_bytes",
			Help:      "Size of received audio chunks",
			Buckets:   prometheus.ExponentialBuckets(256, 2, 12), // 256B to ~512KB
		}),
		IngestionErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestion_errors_total",
			Help:      "Total number of malformed inbound messages",
		}),

		Cycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total number of processing cycles by trigger",
		}, []string{"trigger"}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of processing cycles",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}),
		Batches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Total number of batches by outcome",
		}, []string{"outcome"}),
		TranscodeTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcode_duration_seconds",
			Help:      "Duration of ffmpeg conversions",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		}),
		TranscribeTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_duration_seconds",
			Help:      "Duration of transcription requests",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
		}),
		TranscriptChars: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcript_length_chars",
			Help:      "Length of pushed transcripts",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 12),
		}),
	}
}

func (m *Metrics) RecordSessionOpened() {
	if m == nil {
		return
	}
	m.SessionsOpened.Inc()
	m.ActiveSessions.Inc()
}

func (m *Metrics) RecordSessionClosed(durationSeconds float64) {
	if m == nil {
		return
	}
	m.SessionsClosed.Inc()
	m.ActiveSessions.Dec()
	m.SessionDuration.Observe(durationSeconds)
}

func (m *Metrics) RecordChunk(encoding string, sizeBytes int) {
	if m == nil {
		return
	}
	m.ChunksReceived.WithLabelValues(encoding).Inc()
	m.ChunkBytes.Observe(float64(sizeBytes))
}

func (m *Metrics) RecordIngestionError() {
	if m == nil {
		return
	}
	m.IngestionErrors.Inc()
}

func (m *Metrics) RecordCycle(trigger string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.Cycles.WithLabelValues(trigger).Inc()
	m.CycleDuration.Observe(durationSeconds)
}

func (m *Metrics) RecordBatch(outcome string) {
	if m == nil {
		return
	}
	m.Batches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordTranscode(durationSeconds float64) {
	if m == nil {
		return
	}
	m.TranscodeTime.Observe(durationSeconds)
}

func (m *Metrics) RecordTranscription(durationSeconds float64) {
	if m == nil {
		return
	}
	m.TranscribeTime.Observe(durationSeconds)
}

func (m *Metrics) RecordTranscript(chars int) {
	if m == nil {
		return
	}
	m.TranscriptChars.Observe(float64(chars))
}
