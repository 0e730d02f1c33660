package session

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eleven-am/voicenotes/internal/dto"
	"github.com/eleven-am/voicenotes/internal/shared"
	"github.com/labstack/echo/v4"
)

const (
	defaultMetricsHours = 24
	maxMetricsHours     = 168
)

// LiveSessions exposes the records of sessions currently held in memory.
type LiveSessions interface {
	Records() []*Record
	Record(id string) (*Record, bool)
}

type Handler struct {
	store  *Store
	live   LiveSessions
	logger *slog.Logger
}

func NewHandler(store *Store, live LiveSessions, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		live:   live,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/sessions", h.ListSessions)
	g.GET("/sessions/:id", h.GetSession)
	g.GET("/metrics", h.GetMetrics)
	g.GET("/metrics/summary", h.GetSummary)
}

func recordToResponse(r *Record, withSentences bool) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:            r.ID,
		Language:      r.Language,
		Status:        string(r.Status),
		Chunks:        r.Chunks,
		Processed:     r.Processed,
		Cycles:        r.Cycles,
		FailedBatches: r.FailedBatches,
		Transcript:    r.Transcript,
		StartedAt:     r.StartedAt,
		LastActiveAt:  r.LastActiveAt,
		EndedAt:       r.EndedAt,
	}
	if withSentences {
		resp.Sentences = shared.Sentences(r.Transcript)
	}
	return resp
}

func metricsToResponse(m *Metrics) dto.MetricsResponse {
	return dto.MetricsResponse{
		Date:          m.Date,
		Hour:          m.Hour,
		Sessions:      m.Sessions,
		Chunks:        m.Chunks,
		Cycles:        m.Cycles,
		Batches:       m.Batches,
		SpeechBatches: m.SpeechBatches,
		FillerBatches: m.FillerBatches,
		FailedBatches: m.FailedBatches,
		AvgLatencyMs:  m.AvgLatencyMs,
	}
}

func parseHours(c echo.Context) int {
	hours := defaultMetricsHours
	if v := c.QueryParam("hours"); v != "" {
		if hr, err := strconv.Atoi(v); err == nil && hr > 0 && hr <= maxMetricsHours {
			hours = hr
		}
	}
	return hours
}

// ListSessions godoc
// @Summary      List live sessions
// @Description  Returns every transcription session currently connected to this server.
// @Tags         sessions
// @Produce      json
// @Success      200 {object} dto.SessionListResponse
// @Router       /sessions [get]
func (h *Handler) ListSessions(c echo.Context) error {
	records := h.live.Records()

	sessions := make([]dto.SessionResponse, len(records))
	for i, r := range records {
		sessions[i] = recordToResponse(r, false)
	}

	return c.JSON(http.StatusOK, dto.SessionListResponse{
		Total:    len(sessions),
		Sessions: sessions,
	})
}

// GetSession godoc
// @Summary      Get session
// @Description  Returns a live session, or the stored record of a session that ended within the last 24 hours.
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} dto.SessionResponse
// @Failure      404 {object} shared.APIError "Session not found"
// @Failure      500 {object} shared.APIError "Failed to load session"
// @Router       /sessions/{id} [get]
func (h *Handler) GetSession(c echo.Context) error {
	id := c.Param("id")

	if r, ok := h.live.Record(id); ok {
		return c.JSON(http.StatusOK, recordToResponse(r, true))
	}

	r, err := h.store.GetRecord(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("session_not_found", "session not found")
		}
		h.logger.Error("failed to get session record", "error", err, "session_id", id)
		return shared.InternalError("get_failed", "failed to get session")
	}

	return c.JSON(http.StatusOK, recordToResponse(r, true))
}

// GetMetrics godoc
// @Summary      Hourly pipeline metrics
// @Description  Returns hourly counters for sessions, cycles and batch outcomes.
// @Tags         sessions
// @Produce      json
// @Param        hours query int false "Number of hours to return (1-168)" default(24)
// @Success      200 {object} dto.MetricsListResponse
// @Failure      500 {object} shared.APIError "Failed to get metrics"
// @Router       /metrics [get]
func (h *Handler) GetMetrics(c echo.Context) error {
	hours := parseHours(c)

	metrics, err := h.store.GetMetrics(c.Request().Context(), hours)
	if err != nil {
		h.logger.Error("failed to get metrics", "error", err)
		return shared.InternalError("get_metrics_failed", "failed to get metrics")
	}

	response := make([]dto.MetricsResponse, len(metrics))
	for i, m := range metrics {
		response[i] = metricsToResponse(m)
	}

	return c.JSON(http.StatusOK, dto.MetricsListResponse{
		Hours:   hours,
		Metrics: response,
	})
}

// GetSummary godoc
// @Summary      Pipeline metrics summary
// @Description  Aggregates hourly counters over the requested window.
// @Tags         sessions
// @Produce      json
// @Param        hours query int false "Window in hours (1-168)" default(24)
// @Success      200 {object} dto.SummaryResponse
// @Failure      500 {object} shared.APIError "Failed to get metrics"
// @Router       /metrics/summary [get]
func (h *Handler) GetSummary(c echo.Context) error {
	hours := parseHours(c)

	metrics, err := h.store.GetMetrics(c.Request().Context(), hours)
	if err != nil {
		h.logger.Error("failed to get metrics summary", "error", err)
		return shared.InternalError("get_metrics_failed", "failed to get metrics")
	}

	summary := dto.SummaryResponse{Period: strconv.Itoa(hours) + "h"}

	var totalLatency, latencyCount, speech, failed int64
	for _, m := range metrics {
		summary.TotalSessions += m.Sessions
		summary.TotalCycles += m.Cycles
		summary.TotalBatches += m.Batches
		speech += m.SpeechBatches
		failed += m.FailedBatches

		if m.AvgLatencyMs > 0 {
			totalLatency += m.AvgLatencyMs
			latencyCount++
		}
	}

	if latencyCount > 0 {
		summary.AvgLatencyMs = totalLatency / latencyCount
	}
	if summary.TotalBatches > 0 {
		summary.SpeechRate = float64(speech) / float64(summary.TotalBatches) * 100
		summary.FailureRate = float64(failed) / float64(summary.TotalBatches) * 100
	}

	return c.JSON(http.StatusOK, summary)
}
