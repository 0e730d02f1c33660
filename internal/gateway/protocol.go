package gateway

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/eleven-am/voicenotes/internal/audio"
	"github.com/gorilla/websocket"
)

const (
	EndStream = "END_STREAM"

	MessageTypeInit  = "init"
	MessageTypeAudio = "audio"
)

var ErrMalformedFrame = errors.New("malformed frame")

type FrameKind int

const (
	FrameIgnore FrameKind = iota
	FrameChunk
	FrameFlush
	FrameInit
)

func (k FrameKind) String() string {
	switch k {
	case FrameChunk:
		return "chunk"
	case FrameFlush:
		return "flush"
	case FrameInit:
		return "init"
	default:
		return "ignore"
	}
}

// Frame is an inbound websocket message after classification.
type Frame struct {
	Kind     FrameKind
	Encoding audio.Encoding
	Payload  []byte
	Language string
	Type     string
}

type envelope struct {
	Type     string          `json:"type"`
	Audio    json.RawMessage `json:"audio,omitempty"`
	Lang     string          `json:"lang,omitempty"`
	Language string          `json:"language,omitempty"`
}

func (e envelope) language() string {
	if e.Lang != "" {
		return e.Lang
	}
	return e.Language
}

// ClassifyFrame decides once what an inbound message is. Binary payloads that
// do not parse as JSON are raw PCM. A JSON audio envelope whose audio field is
// unusable is kept as an unknown chunk.
func ClassifyFrame(messageType int, data []byte) (Frame, error) {
	if string(bytes.TrimSpace(data)) == EndStream {
		return Frame{Kind: FrameFlush}, nil
	}

	if messageType == websocket.TextMessage {
		return classifyText(data)
	}

	if !json.Valid(data) {
		return Frame{Kind: FrameChunk, Encoding: audio.EncodingPCM, Payload: data}, nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Frame{Kind: FrameChunk, Encoding: audio.EncodingUnknown, Payload: data}, nil
	}

	switch env.Type {
	case MessageTypeAudio:
		payload, err := decodeAudio(env.Audio)
		if err != nil {
			return Frame{Kind: FrameChunk, Encoding: audio.EncodingUnknown, Payload: data, Type: env.Type}, nil
		}
		return Frame{Kind: FrameChunk, Encoding: audio.EncodingContainer, Payload: payload, Type: env.Type}, nil
	case MessageTypeInit:
		return initFrame(env), nil
	default:
		return Frame{Kind: FrameIgnore, Type: env.Type}, nil
	}
}

func classifyText(data []byte) (Frame, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Frame{Kind: FrameIgnore}, ErrMalformedFrame
	}

	switch env.Type {
	case MessageTypeInit:
		return initFrame(env), nil
	case MessageTypeAudio:
		payload, err := decodeAudio(env.Audio)
		if err != nil {
			return Frame{Kind: FrameIgnore, Type: env.Type}, err
		}
		return Frame{Kind: FrameChunk, Encoding: audio.EncodingContainer, Payload: payload, Type: env.Type}, nil
	default:
		return Frame{Kind: FrameIgnore, Type: env.Type}, nil
	}
}

func initFrame(env envelope) Frame {
	lang := strings.TrimSpace(env.language())
	if lang == "" {
		return Frame{Kind: FrameIgnore, Type: env.Type}
	}
	return Frame{Kind: FrameInit, Language: lang, Type: env.Type}
}

// decodeAudio accepts plain base64 or a data URL such as
// "data:audio/webm;base64,....".
func decodeAudio(raw json.RawMessage) ([]byte, error) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return nil, ErrMalformedFrame
	}

	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrMalformedFrame
	}

	payload, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		payload, err = base64.RawStdEncoding.DecodeString(s)
		if err != nil {
			return nil, ErrMalformedFrame
		}
	}
	if len(payload) == 0 {
		return nil, ErrMalformedFrame
	}
	return payload, nil
}
