package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/eleven-am/voicenotes/internal/voicesession"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 * 1024
	sendBufferSize = 16
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSConnection is the websocket side of one transcription session. It is
// created before the upgrade so the session id can be returned in the
// handshake response.
type WSConnection struct {
	ws         *websocket.Conn
	remoteAddr string
	logger     *slog.Logger
	send       chan *voicesession.OutboundMessage
	mu         sync.RWMutex
	closed     bool
	done       chan struct{}
}

func NewWSConnection(remoteAddr string, logger *slog.Logger) *WSConnection {
	return &WSConnection{
		remoteAddr: remoteAddr,
		logger:     logger.With("remote_addr", remoteAddr),
		send:       make(chan *voicesession.OutboundMessage, sendBufferSize),
		done:       make(chan struct{}),
	}
}

func (c *WSConnection) attach(ws *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.ws = ws
	return true
}

func (c *WSConnection) RemoteAddr() string {
	return c.remoteAddr
}

// Send queues msg for the write pump. When the buffer is full the oldest
// pending push is dropped; every push carries the full transcript.
func (c *WSConnection) Send(_ context.Context, msg *voicesession.OutboundMessage) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil
	}

	for {
		select {
		case c.send <- msg:
			return nil
		default:
		}

		select {
		case <-c.send:
			c.logger.Warn("send buffer full, dropping oldest message")
		default:
		}
	}
}

func (c *WSConnection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	ws := c.ws
	c.mu.Unlock()

	if ws == nil {
		return nil
	}

	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return ws.Close()
}

func (c *WSConnection) readPump(ctx context.Context, handle func(messageType int, data []byte)) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket read error", "error", err)
			}
			return
		}

		// Any frame counts as liveness.
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))

		handle(messageType, data)
	}
}

func (c *WSConnection) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case msg := <-c.send:
			data, err := json.Marshal(msg)
			if err != nil {
				c.logger.Error("failed to marshal message", "error", err)
				continue
			}

			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Error("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
