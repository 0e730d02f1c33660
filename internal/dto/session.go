package dto

import "time"

type SessionResponse struct {
	ID            string     `json:"id" example:"01JA2Z3X4Y5W6V7U8T9S0R1Q2P"`
	Language      string     `json:"language" example:"en"`
	Status        string     `json:"status" example:"active"`
	Chunks        int        `json:"chunks" example:"42"`
	Processed     int        `json:"processed" example:"36"`
	Cycles        int        `json:"cycles" example:"6"`
	FailedBatches int        `json:"failed_batches" example:"0"`
	Transcript    string     `json:"transcript" example:"Hello there, how are you."`
	Sentences     []string   `json:"sentences,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	LastActiveAt  time.Time  `json:"last_active_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
}

type SessionListResponse struct {
	Total    int               `json:"total" example:"2"`
	Sessions []SessionResponse `json:"sessions"`
}

type MetricsResponse struct {
	Date          string `json:"date" example:"2024-01-15"`
	Hour          int    `json:"hour" example:"14"`
	Sessions      int64  `json:"sessions" example:"12"`
	Chunks        int64  `json:"chunks" example:"4800"`
	Cycles        int64  `json:"cycles" example:"800"`
	Batches       int64  `json:"batches" example:"810"`
	SpeechBatches int64  `json:"speech_batches" example:"620"`
	FillerBatches int64  `json:"filler_batches" example:"170"`
	FailedBatches int64  `json:"failed_batches" example:"20"`
	AvgLatencyMs  int64  `json:"avg_latency_ms" example:"450"`
}

type MetricsListResponse struct {
	Hours   int               `json:"hours" example:"24"`
	Metrics []MetricsResponse `json:"metrics"`
}

type SummaryResponse struct {
	Period        string  `json:"period" example:"24h"`
	TotalSessions int64   `json:"total_sessions" example:"120"`
	TotalCycles   int64   `json:"total_cycles" example:"8000"`
	TotalBatches  int64   `json:"total_batches" example:"8100"`
	SpeechRate    float64 `json:"speech_rate" example:"76.5"`
	FailureRate   float64 `json:"failure_rate" example:"2.5"`
	AvgLatencyMs  int64   `json:"avg_latency_ms" example:"450"`
}
