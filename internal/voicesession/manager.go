package voicesession

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/eleven-am/voicenotes/internal/session"
	"github.com/eleven-am/voicenotes/internal/shared"
	"github.com/eleven-am/voicenotes/internal/transcription"
)

type Manager struct {
	cfg      Config
	pipeline Pipeline
	sessions map[string]*Session
	mu       sync.RWMutex
	closed   bool
	log      *slog.Logger
}

type ManagerConfig struct {
	Session  Config
	Pipeline Pipeline
	Log      *slog.Logger
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	pipeline := cfg.Pipeline
	if pipeline.Transcriber == nil {
		pipeline.Transcriber = transcription.NewUnavailable(cfg.Log)
	}
	if pipeline.Classifier == nil {
		pipeline.Classifier = transcription.NewClassifier(nil)
	}

	return &Manager{
		cfg:      cfg.Session.withDefaults(),
		pipeline: pipeline,
		sessions: make(map[string]*Session),
		log:      cfg.Log.With("component", "voicesession_manager"),
	}
}

// Open registers a session for conn and starts its scheduler.
func (m *Manager) Open(conn Connection) (*Session, error) {
	if m.pipeline.Transcoder == nil {
		return nil, fmt.Errorf("open session: %w", shared.ErrUnavailable)
	}

	id := shared.NewSessionID()

	if m.cfg.WorkDir != "" {
		if err := os.MkdirAll(m.cfg.WorkDir, 0o755); err != nil {
			return nil, fmt.Errorf("create work dir: %w", err)
		}
	}
	workDir, err := os.MkdirTemp(m.cfg.WorkDir, "session-"+id+"-")
	if err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	s := newSession(id, conn, workDir, m.cfg, m.pipeline, func(id string) { m.Close(id) }, m.log)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = os.RemoveAll(workDir)
		return nil, fmt.Errorf("open session: %w", shared.ErrClosed)
	}
	m.sessions[id] = s
	m.mu.Unlock()

	if rec := m.pipeline.Recorder; rec != nil {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := rec.SaveRecord(ctx, s.Record()); err != nil {
			m.log.Warn("failed to save session record", "session_id", id, "error", err)
		}
		if err := rec.IncrementMetric(ctx, session.MetricSessions, 1); err != nil {
			m.log.Warn("failed to increment metric", "field", session.MetricSessions, "error", err)
		}
		cancel()
	}
	m.pipeline.Metrics.RecordSessionOpened()

	s.start()

	m.log.Info("voice session opened", "session_id", id, "remote_addr", conn.RemoteAddr())
	return s, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close tears down a session. Closing an unknown or already closed session
// is a no-op.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	m.teardown(s)
}

func (m *Manager) teardown(s *Session) {
	rec := s.close()
	if rec == nil {
		return
	}

	if r := m.pipeline.Recorder; r != nil {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := r.EndRecord(ctx, rec, session.StatusEnded); err != nil {
			m.log.Warn("failed to end session record", "session_id", rec.ID, "error", err)
		}
		cancel()
	}

	duration := time.Since(rec.StartedAt)
	m.pipeline.Metrics.RecordSessionClosed(duration.Seconds())

	if err := s.conn.Close(); err != nil {
		m.log.Debug("connection close", "session_id", rec.ID, "error", err)
	}

	m.log.Info("voice session closed",
		"session_id", rec.ID,
		"duration", duration,
		"chunks", rec.Chunks,
		"cycles", rec.Cycles,
	)
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) Records() []*session.Record {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	records := make([]*session.Record, 0, len(sessions))
	for _, s := range sessions {
		records = append(records, s.Record())
	}
	return records
}

func (m *Manager) Record(id string) (*session.Record, bool) {
	s, ok := m.Get(id)
	if !ok {
		return nil, false
	}
	return s.Record(), true
}

// Shutdown closes every session and waits for in-flight cycles to drain.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		m.teardown(s)
	}

	for _, s := range sessions {
		if err := s.waitCycles(ctx); err != nil {
			return fmt.Errorf("wait for cycles: %w", err)
		}
	}
	return nil
}
