package transcription

import (
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"
)

type Result int

const (
	ResultSpeech Result = iota
	ResultFiller
	ResultEmpty
)

func (r Result) String() string {
	switch r {
	case ResultSpeech:
		return "speech"
	case ResultFiller:
		return "filler"
	default:
		return "empty"
	}
}

const (
	minFillerChars = 4
	minFillerWords = 2
)

var DefaultFillerPhrases = []string{
	"okay.", "thank you.", "thanks.", "hmm.", "so.", "uh.", "yes.", "no.",
	"alright.", "huh.", "hmm", "hmm..", "right.", "sure.", "ok.", "sure",
	"alright", "hmm...",
}

type Classifier struct {
	phrases atomic.Pointer[map[string]struct{}]
}

func NewClassifier(phrases []string) *Classifier {
	c := &Classifier{}
	if phrases == nil {
		phrases = DefaultFillerPhrases
	}
	c.SetPhrases(phrases)
	return c
}

func (c *Classifier) SetPhrases(phrases []string) {
	set := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		p = normalize(p)
		if p != "" {
			set[p] = struct{}{}
		}
	}
	c.phrases.Store(&set)
}

func (c *Classifier) Phrases() int {
	return len(*c.phrases.Load())
}

func (c *Classifier) Classify(text string) Result {
	normalized := normalize(text)
	if normalized == "" || onlyPunctuation(normalized) {
		return ResultEmpty
	}

	if _, ok := (*c.phrases.Load())[normalized]; ok {
		return ResultFiller
	}
	if utf8.RuneCountInString(normalized) < minFillerChars {
		return ResultFiller
	}
	if len(strings.Fields(normalized)) < minFillerWords {
		return ResultFiller
	}
	return ResultSpeech
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func onlyPunctuation(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSpace(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}
