package shared

import (
	"strings"

	"github.com/jdkato/prose/v2"
)

func Sentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return []string{text}
	}

	sentences := doc.Sentences()
	result := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if t := strings.TrimSpace(s.Text); t != "" {
			result = append(result, t)
		}
	}
	return result
}

// FirstSentence returns the leading sentence of text, cut to maxLen runes.
func FirstSentence(text string, maxLen int) string {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return ""
	}

	first := []rune(sentences[0])
	if maxLen > 0 && len(first) > maxLen {
		return strings.TrimSpace(string(first[:maxLen])) + "…"
	}
	return string(first)
}

func EndsWithTerminator(s string) bool {
	s = strings.TrimRight(s, " \t\n\r")
	if s == "" {
		return false
	}
	last := s[len(s)-1]
	return last == '.' || last == '!' || last == '?'
}
