package voicesession

import (
	"strings"
	"sync"

	"github.com/eleven-am/voicenotes/internal/shared"
)

type Transcript struct {
	mu   sync.RWMutex
	text string
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// Accept appends text separated by a single space.
func (t *Transcript) Accept(text string) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.text = strings.TrimSpace(t.text + " " + text)
}

// MarkGap closes the running sentence across a silence or failed batch.
func (t *Transcript) MarkGap() {
	t.mu.Lock()
	defer t.mu.Unlock()

	trimmed := strings.TrimSpace(t.text)
	if trimmed == "" || shared.EndsWithTerminator(trimmed) {
		return
	}
	t.text = trimmed + "."
}

// Merge applies one cycle's batch results in order: every rejected batch
// punctuates the running transcript, then the accepted texts are joined and
// appended once.
func (t *Transcript) Merge(outcomes []batchOutcome) bool {
	accepted := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.accepted() {
			accepted = append(accepted, strings.TrimSpace(o.text))
			continue
		}
		t.MarkGap()
	}

	if len(accepted) == 0 {
		return false
	}
	t.Accept(strings.Join(accepted, " "))
	return true
}

func (t *Transcript) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.text
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.text)
}

func (t *Transcript) Sentences() []string {
	return shared.Sentences(t.String())
}

func (t *Transcript) Reset() {
	t.mu.Lock()
	t.text = ""
	t.mu.Unlock()
}
