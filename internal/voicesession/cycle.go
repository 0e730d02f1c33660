package voicesession

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/eleven-am/voicenotes/internal/audio"
	"github.com/eleven-am/voicenotes/internal/metrics"
	"github.com/eleven-am/voicenotes/internal/transcription"
)

type batchOutcome struct {
	start   int
	end     int
	outcome string
	text    string
	latency time.Duration
}

func (o batchOutcome) accepted() bool {
	return o.outcome == metrics.OutcomeSpeech
}

func (o batchOutcome) failed() bool {
	return o.outcome == metrics.OutcomeFailed || o.outcome == metrics.OutcomeTranscodeFailed
}

type cycleResult struct {
	trigger  string
	end      int
	chunks   int
	outcomes []batchOutcome
	duration time.Duration
}

// runCycle transcribes every sub-batch of snapshot in order. It never touches
// session state; the scheduler applies the result.
func (s *Session) runCycle(snapshot audio.Batch, language, trigger string) cycleResult {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CycleTimeout)
	defer cancel()

	start := time.Now()
	batches := snapshot.Split(s.cfg.BatchSize)

	outcomes := make([]batchOutcome, 0, len(batches))
	for _, b := range batches {
		outcomes = append(outcomes, s.processBatch(ctx, b, language))
	}

	return cycleResult{
		trigger:  trigger,
		end:      snapshot.End,
		chunks:   snapshot.Len(),
		outcomes: outcomes,
		duration: time.Since(start),
	}
}

func (s *Session) processBatch(ctx context.Context, b audio.Batch, language string) batchOutcome {
	out := batchOutcome{start: b.Start, end: b.End}
	log := s.log.With("batch_start", b.Start, "batch_end", b.End, "encoding", b.Encoding())

	transcodeStart := time.Now()
	wavPath, err := s.pipeline.Transcoder.Transcode(ctx, b, s.workDir)
	s.pipeline.Metrics.RecordTranscode(time.Since(transcodeStart).Seconds())
	if err != nil {
		log.Warn("batch transcode failed", "error", err)
		out.outcome = metrics.OutcomeTranscodeFailed
		s.pipeline.Metrics.RecordBatch(out.outcome)
		return out
	}
	defer s.removeTemp(wavPath)

	info, err := audio.ProbeWAV(wavPath)
	if err != nil {
		log.Warn("transcoded batch is not a readable wav", "error", err)
		out.outcome = metrics.OutcomeTranscodeFailed
		s.pipeline.Metrics.RecordBatch(out.outcome)
		return out
	}
	if info.Silent(s.cfg.SilenceThreshold) {
		log.Debug("batch is silent, skipping transcription", "duration_ms", info.Duration.Milliseconds(), "rms", info.RMS)
		out.outcome = metrics.OutcomeSilent
		s.pipeline.Metrics.RecordBatch(out.outcome)
		return out
	}

	transcribeStart := time.Now()
	text, err := s.pipeline.Transcriber.Transcribe(ctx, wavPath, language)
	out.latency = time.Since(transcribeStart)
	s.pipeline.Metrics.RecordTranscription(out.latency.Seconds())

	switch {
	case errors.Is(err, transcription.ErrNoClient):
		out.outcome = metrics.OutcomeSilent
	case err != nil:
		log.Warn("batch transcription failed", "error", err)
		out.outcome = metrics.OutcomeFailed
	default:
		switch s.pipeline.Classifier.Classify(text) {
		case transcription.ResultSpeech:
			out.outcome = metrics.OutcomeSpeech
			out.text = text
		case transcription.ResultFiller:
			log.Debug("batch is filler, discarding", "text", text)
			out.outcome = metrics.OutcomeFiller
		default:
			out.outcome = metrics.OutcomeSilent
		}
	}

	s.pipeline.Metrics.RecordBatch(out.outcome)
	return out
}

func (s *Session) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn("failed to remove temp file", "path", path, "error", err)
	}
}
