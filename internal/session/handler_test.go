package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eleven-am/voicenotes/internal/dto"
	"github.com/eleven-am/voicenotes/internal/shared"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

type fakeLive struct {
	records map[string]*Record
}

func (f *fakeLive) Records() []*Record {
	out := make([]*Record, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	return out
}

func (f *fakeLive) Record(id string) (*Record, bool) {
	r, ok := f.records[id]
	return r, ok
}

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	return NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func newTestHandler(t *testing.T, live *fakeLive) (*Handler, *Store) {
	t.Helper()
	store, _ := newTestStore(t)
	if live == nil {
		live = &fakeLive{records: map[string]*Record{}}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(store, live, logger), store
}

func TestSessionHandler_RegisterRoutes(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	e := echo.New()
	h.RegisterRoutes(e.Group("/api"))

	expectedPaths := []string{
		"/api/sessions",
		"/api/sessions/:id",
		"/api/metrics",
		"/api/metrics/summary",
	}

	routePaths := make(map[string]bool)
	for _, r := range e.Routes() {
		routePaths[r.Path] = true
	}

	for _, path := range expectedPaths {
		if !routePaths[path] {
			t.Errorf("expected route %s to be registered", path)
		}
	}
}

func TestRecordRedisKey(t *testing.T) {
	r := &Record{ID: "01JABC"}
	if r.RedisKey() != "session:01JABC" {
		t.Errorf("expected 'session:01JABC', got '%s'", r.RedisKey())
	}
}

func TestMetricsRedisKey(t *testing.T) {
	key := MetricsRedisKey("2024-01-15", 14)
	expected := "transcription:metrics:2024-01-15:14"
	if key != expected {
		t.Errorf("expected '%s', got '%s'", expected, key)
	}
}

func TestStore_SaveAndGetRecord(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	rec := &Record{ID: "01JABC", Language: "en", Transcript: "hello there."}
	if err := store.SaveRecord(ctx, rec); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if rec.Status != StatusActive {
		t.Errorf("expected default status active, got %s", rec.Status)
	}
	if ttl := mr.TTL("session:01JABC"); ttl != sessionTTL {
		t.Errorf("expected ttl %v, got %v", sessionTTL, ttl)
	}

	got, err := store.GetRecord(ctx, "01JABC")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Transcript != "hello there." {
		t.Errorf("expected transcript to round trip, got %q", got.Transcript)
	}
}

func TestStore_SaveRecord_GeneratesID(t *testing.T) {
	store, _ := newTestStore(t)
	rec := &Record{}
	if err := store.SaveRecord(context.Background(), rec); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := shared.SessionIDTime(rec.ID); err != nil {
		t.Errorf("expected generated session id, got %q", rec.ID)
	}
}

func TestStore_EndRecord(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	rec := &Record{ID: "01JEND"}
	_ = store.SaveRecord(ctx, rec)
	if err := store.EndRecord(ctx, rec, StatusEnded); err != nil {
		t.Fatalf("end failed: %v", err)
	}

	got, err := store.GetRecord(ctx, "01JEND")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != StatusEnded {
		t.Errorf("expected status ended, got %s", got.Status)
	}
	if got.EndedAt == nil {
		t.Error("expected ended_at to be set")
	}
}

func TestStore_Metrics(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_ = store.IncrementMetric(ctx, MetricSessions, 1)
	_ = store.IncrementMetric(ctx, MetricBatches, 4)
	_ = store.IncrementMetric(ctx, MetricSpeechBatches, 3)
	_ = store.IncrementMetric(ctx, MetricFailedBatches, 1)
	_ = store.RecordLatency(ctx, 200)
	_ = store.RecordLatency(ctx, 400)

	metrics, err := store.GetMetrics(ctx, 1)
	if err != nil {
		t.Fatalf("get metrics failed: %v", err)
	}
	if len(metrics) != 1 {
		t.Fatalf("expected 1 hour of metrics, got %d", len(metrics))
	}

	m := metrics[0]
	if m.Sessions != 1 || m.Batches != 4 || m.SpeechBatches != 3 || m.FailedBatches != 1 {
		t.Errorf("unexpected counters: %+v", m)
	}
	if m.AvgLatencyMs != 300 {
		t.Errorf("expected avg latency 300, got %d", m.AvgLatencyMs)
	}
}

func TestSessionHandler_ListSessions(t *testing.T) {
	live := &fakeLive{records: map[string]*Record{
		"a": {ID: "a", Status: StatusActive, Chunks: 3},
		"b": {ID: "b", Status: StatusActive, Chunks: 7},
	}}
	h, _ := newTestHandler(t, live)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListSessions(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp dto.SessionListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("expected 2 sessions, got %d", resp.Total)
	}
}

func TestSessionHandler_GetSession_Live(t *testing.T) {
	live := &fakeLive{records: map[string]*Record{
		"live1": {ID: "live1", Status: StatusActive, Transcript: "Hello there. How are you?"},
	}}
	h, _ := newTestHandler(t, live)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/live1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("live1")

	if err := h.GetSession(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp dto.SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if resp.ID != "live1" {
		t.Errorf("expected live1, got %s", resp.ID)
	}
	if len(resp.Sentences) != 2 {
		t.Errorf("expected 2 sentences, got %d", len(resp.Sentences))
	}
}

func TestSessionHandler_GetSession_Stored(t *testing.T) {
	h, store := newTestHandler(t, nil)
	ended := time.Now()
	_ = store.SaveRecord(context.Background(), &Record{ID: "old1", Status: StatusEnded, EndedAt: &ended})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/old1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("old1")

	if err := h.GetSession(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ended"`) {
		t.Errorf("expected ended status in body, got %s", rec.Body.String())
	}
}

func TestSessionHandler_GetSession_NotFound(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/missing", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	err := h.GetSession(c)
	if err == nil {
		t.Fatal("expected error for unknown session")
	}
	httpErr := err.(*echo.HTTPError)
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, httpErr.Code)
	}
}

func TestSessionHandler_GetMetrics(t *testing.T) {
	h, store := newTestHandler(t, nil)
	_ = store.IncrementMetric(context.Background(), MetricCycles, 2)

	tests := []struct {
		name          string
		query         string
		expectedHours int
	}{
		{"default", "", 24},
		{"custom", "?hours=48", 48},
		{"out of range", "?hours=1000", 24},
		{"invalid", "?hours=abc", 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/metrics"+tt.query, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if err := h.GetMetrics(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var resp dto.MetricsListResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			if resp.Hours != tt.expectedHours {
				t.Errorf("expected hours %d, got %d", tt.expectedHours, resp.Hours)
			}
			if len(resp.Metrics) != 1 || resp.Metrics[0].Cycles != 2 {
				t.Errorf("expected current hour with 2 cycles, got %+v", resp.Metrics)
			}
		})
	}
}

func TestSessionHandler_GetSummary(t *testing.T) {
	h, store := newTestHandler(t, nil)
	ctx := context.Background()
	_ = store.IncrementMetric(ctx, MetricSessions, 2)
	_ = store.IncrementMetric(ctx, MetricBatches, 10)
	_ = store.IncrementMetric(ctx, MetricSpeechBatches, 5)
	_ = store.IncrementMetric(ctx, MetricFailedBatches, 1)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/metrics/summary?hours=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetSummary(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp dto.SummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if resp.Period != "2h" {
		t.Errorf("expected period 2h, got %s", resp.Period)
	}
	if resp.TotalSessions != 2 {
		t.Errorf("expected 2 sessions, got %d", resp.TotalSessions)
	}
	if resp.SpeechRate != 50 {
		t.Errorf("expected speech rate 50, got %v", resp.SpeechRate)
	}
	if resp.FailureRate != 10 {
		t.Errorf("expected failure rate 10, got %v", resp.FailureRate)
	}
}
