package transcription

import (
	"errors"
	"time"
)

const (
	DefaultBaseURL  = "https://api.groq.com/openai/v1"
	DefaultModel    = "whisper-large-v3"
	DefaultLanguage = "en"

	defaultTimeout = 60 * time.Second
)

var ErrNoClient = errors.New("transcription client not configured")

type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	return c
}

// Placeholder values shipped in sample env files count as unset.
func (c Config) HasKey() bool {
	return c.APIKey != "" && c.APIKey != "your_groq_api_key_here"
}
