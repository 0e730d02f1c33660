package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eleven-am/voicenotes/internal/voicesession"
	"github.com/gorilla/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// echoServer upgrades and keeps the server side open for a while.
func echoServer(t *testing.T, hold time.Duration) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		time.Sleep(hold)
	}))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[4:], nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	return ws
}

func TestNewWSConnection(t *testing.T) {
	conn := NewWSConnection("10.0.0.7", testLogger())

	if conn.RemoteAddr() != "10.0.0.7" {
		t.Errorf("expected remote addr 10.0.0.7, got %s", conn.RemoteAddr())
	}
	if cap(conn.send) != sendBufferSize {
		t.Errorf("expected send buffer %d, got %d", sendBufferSize, cap(conn.send))
	}
}

func TestWSConnection_Send(t *testing.T) {
	conn := NewWSConnection("127.0.0.1", testLogger())

	msg := &voicesession.OutboundMessage{Type: voicesession.MessageTypeTranscription, Text: "hello"}
	if err := conn.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	select {
	case sent := <-conn.send:
		if sent.Text != "hello" {
			t.Errorf("expected hello, got %s", sent.Text)
		}
	case <-time.After(time.Second):
		t.Error("message should be in send channel")
	}
}

func TestWSConnection_SendBufferFullDropsOldest(t *testing.T) {
	conn := NewWSConnection("127.0.0.1", testLogger())

	for i := 0; i < sendBufferSize+3; i++ {
		msg := &voicesession.OutboundMessage{Type: voicesession.MessageTypeTranscription, Text: string(rune('a' + i))}
		if err := conn.Send(context.Background(), msg); err != nil {
			t.Fatalf("Send with full buffer should drop, got %v", err)
		}
	}

	if len(conn.send) != sendBufferSize {
		t.Fatalf("expected full buffer, got %d", len(conn.send))
	}

	first := <-conn.send
	if first.Text != "d" {
		t.Errorf("expected oldest three to be dropped, first is %q", first.Text)
	}
}

func TestWSConnection_SendAfterClose(t *testing.T) {
	conn := NewWSConnection("127.0.0.1", testLogger())
	if err := conn.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	if err := conn.Send(context.Background(), &voicesession.OutboundMessage{Text: "late"}); err != nil {
		t.Errorf("Send on closed connection should return nil, got %v", err)
	}
	if len(conn.send) != 0 {
		t.Error("expected nothing queued after close")
	}
	if conn.attach(nil) {
		t.Error("expected attach after close to fail")
	}
}

func TestWSConnection_Close(t *testing.T) {
	server := echoServer(t, 500*time.Millisecond)
	ws := dial(t, server)

	conn := NewWSConnection("127.0.0.1", testLogger())
	if !conn.attach(ws) {
		t.Fatal("expected attach to succeed")
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second Close should not error: %v", err)
	}
}

func TestWSConnection_WritePump(t *testing.T) {
	received := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		_ = ws.SetReadDeadline(time.Now().Add(time.Second))
		_, data, err := ws.ReadMessage()
		if err == nil {
			received <- data
		}
	}))
	defer server.Close()

	conn := NewWSConnection("127.0.0.1", testLogger())
	conn.attach(dial(t, server))
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go conn.writePump(ctx)

	conn.Send(ctx, &voicesession.OutboundMessage{Type: voicesession.MessageTypeTranscription, Text: "pushed"})

	select {
	case data := <-received:
		var msg voicesession.OutboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if msg.Type != "transcription" || msg.Text != "pushed" {
			t.Errorf("unexpected message %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the push")
	}
}

func TestWSConnection_ReadPump(t *testing.T) {
	type inbound struct {
		messageType int
		data        string
	}
	got := make(chan inbound, 4)
	serverDone := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		conn := NewWSConnection(r.RemoteAddr, testLogger())
		conn.attach(ws)
		conn.readPump(context.Background(), func(messageType int, data []byte) {
			got <- inbound{messageType, string(data)}
		})
		conn.Close()
		close(serverDone)
	}))
	defer server.Close()

	ws := dial(t, server)
	ws.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3})
	ws.WriteMessage(websocket.TextMessage, []byte(EndStream))

	for _, want := range []inbound{
		{websocket.BinaryMessage, "\x01\x02\x03"},
		{websocket.TextMessage, EndStream},
	} {
		select {
		case m := <-got:
			if m != want {
				t.Errorf("expected %+v, got %+v", want, m)
			}
		case <-time.After(time.Second):
			t.Fatal("frame not delivered")
		}
	}

	ws.Close()

	select {
	case <-serverDone:
	case <-time.After(2 * time.Second):
		t.Error("read pump should stop when the client goes away")
	}
}
