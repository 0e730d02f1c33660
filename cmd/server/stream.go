package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/eleven-am/voicenotes/internal/audio"
	"github.com/eleven-am/voicenotes/internal/gateway"
	"github.com/eleven-am/voicenotes/internal/voicesession"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

const bytesPerSecond = audio.TargetSampleRate * audio.TargetChannels * audio.TargetBitDepth / 8

type streamOptions struct {
	url      string
	language string
	chunk    time.Duration
	realtime bool
	wait     time.Duration
}

// streamCmd plays a recording into a running server the way a browser
// client does and prints every transcript push.
func streamCmd() *cobra.Command {
	opts := streamOptions{}

	cmd := &cobra.Command{
		Use:   "stream FILE",
		Short: "Stream a 16 kHz mono WAV or raw PCM file to a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStream(cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "ws://localhost:8080/ws", "websocket endpoint")
	cmd.Flags().StringVarP(&opts.language, "lang", "l", "", "language sent in the init message")
	cmd.Flags().DurationVar(&opts.chunk, "chunk", 100*time.Millisecond, "audio per frame")
	cmd.Flags().BoolVar(&opts.realtime, "realtime", true, "pace frames at playback speed")
	cmd.Flags().DurationVar(&opts.wait, "wait", 10*time.Second, "how long to wait for the final transcript")
	return cmd
}

func loadPCM(path string) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return audio.ReadPCM(path)
	}
	return os.ReadFile(path)
}

func runStream(out io.Writer, path string, opts streamOptions) error {
	pcm, err := loadPCM(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	conn, resp, err := websocket.DefaultDialer.Dial(opts.url, nil)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("dial failed: %w, status=%d, body=%s", err, resp.StatusCode, body)
		}
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	fmt.Fprintf(out, "connected, session %s\n", resp.Header.Get(gateway.HeaderSessionID))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	transcripts := make(chan string, 16)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			var msg voicesession.OutboundMessage
			if err := json.Unmarshal(data, &msg); err != nil || msg.Type != voicesession.MessageTypeTranscription {
				continue
			}
			transcripts <- msg.Text
		}
	}()

	if opts.language != "" {
		hello, _ := json.Marshal(map[string]string{"type": gateway.MessageTypeInit, "lang": opts.language})
		if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
			return fmt.Errorf("send init: %w", err)
		}
	}

	frameSize := int(opts.chunk.Seconds() * bytesPerSecond)
	frameSize -= frameSize % 2
	if frameSize <= 0 {
		frameSize = 2
	}

	last := ""
	for offset := 0; offset < len(pcm); offset += frameSize {
		end := min(offset+frameSize, len(pcm))
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[offset:end]); err != nil {
			return fmt.Errorf("send audio: %w", err)
		}

		if opts.realtime {
			select {
			case <-time.After(opts.chunk):
			case <-sig:
				return nil
			}
		}
		last = drain(out, transcripts, last)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(gateway.EndStream)); err != nil {
		return fmt.Errorf("send end of stream: %w", err)
	}

	timeout := time.After(opts.wait)
	for {
		select {
		case text := <-transcripts:
			if text != last {
				fmt.Fprintln(out, text)
				last = text
			}
		case err := <-readErr:
			drain(out, transcripts, last)
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		case <-timeout:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return nil
		case <-sig:
			return nil
		}
	}
}

func drain(out io.Writer, transcripts <-chan string, last string) string {
	for {
		select {
		case text := <-transcripts:
			if text != last {
				fmt.Fprintln(out, text)
				last = text
			}
		default:
			return last
		}
	}
}
