package gateway

import (
	"log/slog"
	"net/http"

	"github.com/eleven-am/voicenotes/internal/audio"
	"github.com/eleven-am/voicenotes/internal/metrics"
	"github.com/eleven-am/voicenotes/internal/shared"
	"github.com/eleven-am/voicenotes/internal/voicesession"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const HeaderSessionID = "X-Session-Id"

type Handler struct {
	manager *voicesession.Manager
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewHandler(manager *voicesession.Manager, m *metrics.Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		manager: manager,
		metrics: m,
		logger:  logger.With("handler", "gateway"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.HandleWebSocket)
}

// RootUpgrade hands websocket upgrades on "/" to the session handler.
func (h *Handler) RootUpgrade() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().URL.Path == "/" && websocket.IsWebSocketUpgrade(c.Request()) {
				return h.HandleWebSocket(c)
			}
			return next(c)
		}
	}
}

// HandleWebSocket godoc
// @Summary      Open a live transcription session
// @Description  Upgrades to a websocket. Binary frames carry raw 16-bit PCM or JSON {"type":"audio","audio":"<base64>"} envelopes, text frames carry {"type":"init","lang":"xx"} or END_STREAM. The server pushes {"type":"transcription","text":"..."} with the full transcript after every cycle. The session id is returned in the X-Session-Id header.
// @Tags         sessions
// @Success      101  "Switching Protocols"
// @Failure      503  {object}  shared.APIError  "Session could not be opened"
// @Router       /ws [get]
func (h *Handler) HandleWebSocket(c echo.Context) error {
	conn := NewWSConnection(c.RealIP(), h.logger)

	s, err := h.manager.Open(conn)
	if err != nil {
		h.logger.Error("failed to open session", "error", err)
		return shared.ServiceUnavailable("session_unavailable", "could not open transcription session")
	}

	header := http.Header{}
	header.Set(HeaderSessionID, s.ID())

	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), header)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "session_id", s.ID(), "error", err)
		h.manager.Close(s.ID())
		return nil
	}

	if !conn.attach(ws) {
		_ = ws.Close()
		return nil
	}

	log := h.logger.With("session_id", s.ID())
	log.Info("client connected")

	ctx := c.Request().Context()
	go conn.writePump(ctx)
	conn.readPump(ctx, func(messageType int, data []byte) {
		h.dispatch(s, log, messageType, data)
	})

	h.manager.Close(s.ID())

	log.Info("client disconnected")
	return nil
}

func (h *Handler) dispatch(s *voicesession.Session, log *slog.Logger, messageType int, data []byte) {
	frame, err := ClassifyFrame(messageType, data)
	if err != nil {
		h.metrics.RecordIngestionError()
		log.Warn("ignoring malformed message", "error", err, "bytes", len(data))
		return
	}

	switch frame.Kind {
	case FrameFlush:
		log.Debug("end of stream requested")
		s.Flush()
	case FrameInit:
		if s.SetLanguage(frame.Language) {
			log.Info("session language set", "lang", frame.Language)
		}
	case FrameChunk:
		if frame.Encoding == audio.EncodingUnknown {
			log.Warn("storing chunk of unknown encoding", "bytes", len(frame.Payload), "type", frame.Type)
		}
		s.Append(frame.Payload, frame.Encoding)
	default:
		log.Debug("ignoring message", "type", frame.Type)
	}
}
