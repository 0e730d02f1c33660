package session

import (
	"strconv"
	"time"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
	StatusError  Status = "error"
)

// Record is the persisted view of one live transcription session.
type Record struct {
	ID            string     `json:"id"`
	RemoteAddr    string     `json:"remote_addr,omitempty"`
	Language      string     `json:"language"`
	Status        Status     `json:"status"`
	Chunks        int        `json:"chunks"`
	Processed     int        `json:"processed"`
	Cycles        int        `json:"cycles"`
	FailedBatches int        `json:"failed_batches"`
	Transcript    string     `json:"transcript"`
	StartedAt     time.Time  `json:"started_at"`
	LastActiveAt  time.Time  `json:"last_active_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
}

func (r *Record) RedisKey() string {
	return RecordRedisKey(r.ID)
}

func RecordRedisKey(id string) string {
	return "session:" + id
}

const (
	MetricSessions      = "sessions"
	MetricChunks        = "chunks"
	MetricCycles        = "cycles"
	MetricBatches       = "batches"
	MetricSpeechBatches = "speech_batches"
	MetricFillerBatches = "filler_batches"
	MetricFailedBatches = "failed_batches"
)

type Metrics struct {
	Date          string `json:"date"`
	Hour          int    `json:"hour"`
	Sessions      int64  `json:"sessions"`
	Chunks        int64  `json:"chunks"`
	Cycles        int64  `json:"cycles"`
	Batches       int64  `json:"batches"`
	SpeechBatches int64  `json:"speech_batches"`
	FillerBatches int64  `json:"filler_batches"`
	FailedBatches int64  `json:"failed_batches"`
	AvgLatencyMs  int64  `json:"avg_latency_ms"`
}

func MetricsRedisKey(date string, hour int) string {
	return "transcription:metrics:" + date + ":" + strconv.Itoa(hour)
}
