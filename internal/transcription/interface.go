package transcription

import "context"

// Transcriber turns one canonical waveform file into text. Implementations
// make a single request per call and never retry inline.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath, language string) (string, error)
	Configured() bool
}
