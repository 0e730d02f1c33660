package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eleven-am/voicenotes/internal/gateway"
	"github.com/eleven-am/voicenotes/internal/voicesession"
	"github.com/gorilla/websocket"
)

func TestRunStream(t *testing.T) {
	type frame struct {
		messageType int
		size        int
		text        string
	}
	frames := make(chan frame, 64)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		ws, err := upgrader.Upgrade(w, r, http.Header{gateway.HeaderSessionID: []string{"01TEST"}})
		if err != nil {
			return
		}
		defer ws.Close()

		for {
			mt, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			frames <- frame{mt, len(data), string(data)}
			if string(data) == gateway.EndStream {
				push, _ := json.Marshal(voicesession.OutboundMessage{
					Type: voicesession.MessageTypeTranscription,
					Text: "streamed words arrive",
				})
				ws.WriteMessage(websocket.TextMessage, push)
				ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
		}
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "speech.pcm")
	if err := os.WriteFile(path, make([]byte, 10000), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	err := runStream(&out, path, streamOptions{
		url:      "ws" + strings.TrimPrefix(server.URL, "http"),
		language: "de",
		chunk:    100 * time.Millisecond,
		wait:     2 * time.Second,
	})
	if err != nil {
		t.Fatalf("runStream() error = %v", err)
	}

	if !strings.Contains(out.String(), "session 01TEST") {
		t.Errorf("expected session id in output, got %q", out.String())
	}
	if !strings.Contains(out.String(), "streamed words arrive") {
		t.Errorf("expected transcript in output, got %q", out.String())
	}

	close(frames)
	var got []frame
	for f := range frames {
		got = append(got, f)
	}

	// init, 3200 + 3200 + 3200 + 400 bytes of pcm, END_STREAM
	if len(got) != 6 {
		t.Fatalf("expected 6 frames, got %d", len(got))
	}
	if got[0].messageType != websocket.TextMessage || !strings.Contains(got[0].text, `"lang":"de"`) {
		t.Errorf("expected init frame first, got %+v", got[0])
	}
	for i, want := range []int{3200, 3200, 3200, 400} {
		if got[i+1].messageType != websocket.BinaryMessage || got[i+1].size != want {
			t.Errorf("frame %d: expected %d binary bytes, got %+v", i+1, want, got[i+1])
		}
	}
	if got[5].text != gateway.EndStream {
		t.Errorf("expected END_STREAM last, got %q", got[5].text)
	}
}

func TestLoadPCM_RejectsNonCanonicalWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	os.WriteFile(path, []byte("RIFF0000WAVE"), 0o600)

	if _, err := loadPCM(path); err == nil {
		t.Error("expected invalid wav to be rejected")
	}
}
