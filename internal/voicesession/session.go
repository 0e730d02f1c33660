package voicesession

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/eleven-am/voicenotes/internal/audio"
	"github.com/eleven-am/voicenotes/internal/session"
)

type Session struct {
	id       string
	conn     Connection
	cfg      Config
	pipeline Pipeline
	log      *slog.Logger

	chunks     *audio.ChunkStore
	transcript *Transcript
	workDir    string
	startedAt  time.Time
	onIdle     func(id string)

	mu              sync.Mutex
	language        string
	languageLocked  bool
	processed       int
	processing      bool
	flushPending    bool
	lastChunkAt     time.Time
	lastProcessedAt time.Time
	cycles          int
	failedBatches   int
	idleNotified    bool
	started         bool
	closed          bool

	flushCh chan struct{}
	doneCh  chan cycleResult
	stopCh  chan struct{}
	stopped chan struct{}
	cycleWG sync.WaitGroup
}

func newSession(id string, conn Connection, workDir string, cfg Config, pipeline Pipeline, onIdle func(string), log *slog.Logger) *Session {
	return &Session{
		id:         id,
		conn:       conn,
		cfg:        cfg,
		pipeline:   pipeline,
		log:        log.With("session_id", id),
		chunks:     audio.NewChunkStore(),
		transcript: NewTranscript(),
		workDir:    workDir,
		startedAt:  time.Now(),
		onIdle:     onIdle,
		language:   cfg.DefaultLanguage,
		flushCh:    make(chan struct{}, 1),
		doneCh:     make(chan cycleResult, 1),
		stopCh:     make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

func (s *Session) Transcript() string {
	return s.transcript.String()
}

// Append stores a chunk. It reports false once the session is closed.
func (s *Session) Append(payload []byte, encoding audio.Encoding) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.chunks.Append(payload, encoding)
	s.lastChunkAt = time.Now()
	s.idleNotified = false
	s.mu.Unlock()

	s.pipeline.Metrics.RecordChunk(encoding.String(), len(payload))
	return true
}

// SetLanguage changes the transcription language until the first cycle starts.
func (s *Session) SetLanguage(lang string) bool {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.languageLocked {
		s.log.Debug("ignoring language change", "lang", lang, "current", s.language)
		return false
	}
	s.language = lang
	return true
}

// Flush asks for the unconsumed chunks to be processed without waiting for
// the batch threshold or the idle timeout.
func (s *Session) Flush() {
	select {
	case s.flushCh <- struct{}{}:
	default:
	}
}

func (s *Session) start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	go s.run()
}

func (s *Session) run() {
	defer close(s.stopped)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.tick(now, false)
		case <-s.flushCh:
			s.tick(time.Now(), true)
		case res := <-s.doneCh:
			s.complete(res)
		}
	}
}

func (s *Session) tick(now time.Time, force bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	if s.processing {
		if force {
			s.flushPending = true
		}
		s.mu.Unlock()
		return
	}

	newChunks := s.chunks.Len() - s.processed

	var trigger string
	switch {
	case newChunks <= 0:
	case force:
		trigger = TriggerFlush
	case newChunks >= s.cfg.BatchSize:
		trigger = TriggerThreshold
	case now.Sub(s.lastChunkAt) > s.cfg.IdleTimeout:
		trigger = TriggerIdle
	}

	if trigger == "" {
		idle := s.idleExpired(now)
		s.mu.Unlock()
		if idle {
			s.log.Info("session idle, closing", "timeout", s.cfg.SessionIdleTimeout)
			go s.onIdle(s.id)
		}
		return
	}

	snapshot := s.chunks.Snapshot(s.processed)
	language := s.language
	s.processing = true
	s.languageLocked = true
	s.mu.Unlock()

	s.log.Debug("starting cycle", "trigger", trigger, "from", snapshot.Start, "to", snapshot.End)

	s.cycleWG.Add(1)
	go func() {
		defer s.cycleWG.Done()
		s.doneCh <- s.runCycle(snapshot, language, trigger)
	}()
}

// idleExpired must be called with mu held.
func (s *Session) idleExpired(now time.Time) bool {
	if s.cfg.SessionIdleTimeout <= 0 || s.onIdle == nil || s.idleNotified {
		return false
	}

	last := s.lastChunkAt
	if last.IsZero() {
		last = s.startedAt
	}
	if now.Sub(last) <= s.cfg.SessionIdleTimeout {
		return false
	}

	s.idleNotified = true
	return true
}

func (s *Session) complete(res cycleResult) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	if res.end > s.processed {
		s.processed = res.end
	}
	s.processing = false
	s.lastProcessedAt = time.Now()
	s.cycles++
	for _, o := range res.outcomes {
		if o.failed() {
			s.failedBatches++
		}
	}
	s.transcript.Merge(res.outcomes)
	text := s.transcript.String()
	flush := s.flushPending
	s.flushPending = false
	s.mu.Unlock()

	s.pipeline.Metrics.RecordCycle(res.trigger, res.duration.Seconds())

	if text != "" {
		s.pipeline.Metrics.RecordTranscript(len(text))
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := s.conn.Send(ctx, &OutboundMessage{Type: MessageTypeTranscription, Text: text}); err != nil {
			s.log.Warn("failed to push transcript", "error", err)
		}
		cancel()
	}

	s.persistCycle(res)

	if flush {
		s.tick(time.Now(), true)
	}
}

func (s *Session) persistCycle(res cycleResult) {
	rec := s.pipeline.Recorder
	if rec == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := rec.SaveRecord(ctx, s.Record()); err != nil {
		s.log.Warn("failed to save session record", "error", err)
	}

	counts := map[string]int64{
		session.MetricCycles:  1,
		session.MetricChunks:  int64(res.chunks),
		session.MetricBatches: int64(len(res.outcomes)),
	}
	for _, o := range res.outcomes {
		switch {
		case o.accepted():
			counts[session.MetricSpeechBatches]++
		case o.failed():
			counts[session.MetricFailedBatches]++
		default:
			counts[session.MetricFillerBatches]++
		}
		if o.latency > 0 {
			if err := rec.RecordLatency(ctx, o.latency.Milliseconds()); err != nil {
				s.log.Warn("failed to record latency", "error", err)
			}
		}
	}

	for field, n := range counts {
		if n == 0 {
			continue
		}
		if err := rec.IncrementMetric(ctx, field, n); err != nil {
			s.log.Warn("failed to increment metric", "field", field, "error", err)
		}
	}
}

func (s *Session) Record() *session.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	last := s.startedAt
	if s.lastChunkAt.After(last) {
		last = s.lastChunkAt
	}
	if s.lastProcessedAt.After(last) {
		last = s.lastProcessedAt
	}

	return &session.Record{
		ID:            s.id,
		RemoteAddr:    s.conn.RemoteAddr(),
		Language:      s.language,
		Status:        session.StatusActive,
		Chunks:        s.chunks.Len(),
		Processed:     s.processed,
		Cycles:        s.cycles,
		FailedBatches: s.failedBatches,
		Transcript:    s.transcript.String(),
		StartedAt:     s.startedAt,
		LastActiveAt:  last,
	}
}

// close stops the scheduler and releases every resource the session owns. An
// in-flight cycle keeps running but its result is never applied.
func (s *Session) close() *session.Record {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	started := s.started
	s.mu.Unlock()

	rec := s.Record()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	close(s.stopCh)
	if started {
		<-s.stopped
	}

	s.chunks.Release()
	s.transcript.Reset()
	if s.workDir != "" {
		if err := os.RemoveAll(s.workDir); err != nil {
			s.log.Warn("failed to remove session work dir", "dir", s.workDir, "error", err)
		}
	}

	return rec
}

func (s *Session) waitCycles(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.cycleWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
