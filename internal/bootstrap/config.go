package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/eleven-am/voicenotes/internal/audio"
	"github.com/eleven-am/voicenotes/internal/transcription"
	"github.com/eleven-am/voicenotes/internal/voicesession"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	LogLevel   string
	ConfigFile string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	QdrantHost   string
	QdrantPort   int
	QdrantAPIKey string

	Transcription transcription.Config
	EmbeddingKey  string
	EmbeddingURL  string

	FFmpeg   audio.FFmpegConfig
	Pipeline voicesession.Config

	// nil keeps the built-in list
	FillerPhrases []string

	RateLimitRPS   float64
	RateLimitBurst int

	StaticDir string
}

// FileConfig is the optional TOML file named by CONFIG_FILE. Zero values
// leave the environment settings alone.
type FileConfig struct {
	Pipeline struct {
		TickInterval       time.Duration `toml:"tick_interval"`
		BatchSize          int           `toml:"batch_size"`
		IdleTimeout        time.Duration `toml:"idle_timeout"`
		SessionIdleTimeout time.Duration `toml:"session_idle_timeout"`
		CycleTimeout       time.Duration `toml:"cycle_timeout"`
		DefaultLanguage    string        `toml:"default_language"`
		SilenceThreshold   float64       `toml:"silence_threshold"`
	} `toml:"pipeline"`
	Transcription struct {
		Model             string  `toml:"model"`
		RequestsPerSecond float64 `toml:"requests_per_second"`
	} `toml:"transcription"`
	Filler struct {
		Phrases []string `toml:"phrases"`
	} `toml:"filler"`
}

func LoadConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		ConfigFile: getEnv("CONFIG_FILE", ""),

		DatabaseDSN: getEnv("DATABASE_DSN", "voicenotes.db"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		QdrantHost:   getEnv("QDRANT_HOST", ""),
		QdrantPort:   getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey: getEnv("QDRANT_API_KEY", ""),

		Transcription: transcription.Config{
			APIKey:            getEnv("GROQ_API_KEY", getEnv("TRANSCRIPTION_API_KEY", "")),
			BaseURL:           getEnv("TRANSCRIPTION_BASE_URL", transcription.DefaultBaseURL),
			Model:             getEnv("TRANSCRIPTION_MODEL", transcription.DefaultModel),
			Timeout:           getEnvDuration("TRANSCRIPTION_TIMEOUT", 60*time.Second),
			RequestsPerSecond: getEnvFloat("TRANSCRIPTION_RPS", 0),
			Burst:             getEnvInt("TRANSCRIPTION_BURST", 1),
		},
		EmbeddingKey: getEnv("OPENAI_API_KEY", ""),
		EmbeddingURL: getEnv("EMBEDDING_BASE_URL", ""),

		FFmpeg: audio.FFmpegConfig{
			Binary:        getEnv("FFMPEG_PATH", "ffmpeg"),
			PCMSampleRate: getEnvInt("PCM_SAMPLE_RATE", audio.TargetSampleRate),
			Timeout:       getEnvDuration("TRANSCODE_TIMEOUT", 30*time.Second),
		},
		Pipeline: voicesession.Config{
			TickInterval:       getEnvDuration("TICK_INTERVAL", 500*time.Millisecond),
			BatchSize:          getEnvInt("BATCH_SIZE", 6),
			IdleTimeout:        getEnvDuration("IDLE_TIMEOUT", 750*time.Millisecond),
			SessionIdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT", 0),
			CycleTimeout:       getEnvDuration("CYCLE_TIMEOUT", 2*time.Minute),
			DefaultLanguage:    getEnv("DEFAULT_LANGUAGE", transcription.DefaultLanguage),
			SilenceThreshold:   getEnvFloat("SILENCE_THRESHOLD", 0),
			WorkDir:            getEnv("WORK_DIR", filepath.Join(os.TempDir(), "voicenotes")),
		},

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 40),

		StaticDir: getEnv("STATIC_DIR", "./client"),
	}

	if phrases := getEnv("FILLER_PHRASES", ""); phrases != "" {
		cfg.FillerPhrases = splitList(phrases, "|")
	}

	if cfg.ConfigFile != "" {
		file, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg.apply(file)
	}

	return cfg, nil
}

func LoadFile(path string) (*FileConfig, error) {
	var file FileConfig
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &file, nil
}

func (c *Config) apply(f *FileConfig) {
	p := f.Pipeline
	if p.TickInterval > 0 {
		c.Pipeline.TickInterval = p.TickInterval
	}
	if p.BatchSize > 0 {
		c.Pipeline.BatchSize = p.BatchSize
	}
	if p.IdleTimeout > 0 {
		c.Pipeline.IdleTimeout = p.IdleTimeout
	}
	if p.SessionIdleTimeout > 0 {
		c.Pipeline.SessionIdleTimeout = p.SessionIdleTimeout
	}
	if p.CycleTimeout > 0 {
		c.Pipeline.CycleTimeout = p.CycleTimeout
	}
	if p.DefaultLanguage != "" {
		c.Pipeline.DefaultLanguage = p.DefaultLanguage
	}
	if p.SilenceThreshold > 0 {
		c.Pipeline.SilenceThreshold = p.SilenceThreshold
	}

	if f.Transcription.Model != "" {
		c.Transcription.Model = f.Transcription.Model
	}
	if f.Transcription.RequestsPerSecond > 0 {
		c.Transcription.RequestsPerSecond = f.Transcription.RequestsPerSecond
	}

	if f.Filler.Phrases != nil {
		c.FillerPhrases = f.Filler.Phrases
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value, sep string) []string {
	var out []string
	for _, item := range strings.Split(value, sep) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
