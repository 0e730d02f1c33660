package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	TargetSampleRate = 16000
	TargetChannels   = 1
	TargetBitDepth   = 16

	defaultTranscodeTimeout = 30 * time.Second
	maxStderrTail           = 512
)

var ErrEmptyBatch = errors.New("empty batch")

type Transcoder interface {
	Transcode(ctx context.Context, batch Batch, dir string) (string, error)
}

type FFmpegConfig struct {
	Binary        string
	PCMSampleRate int
	Timeout       time.Duration
}

func DefaultFFmpegConfig() FFmpegConfig {
	return FFmpegConfig{
		Binary:        "ffmpeg",
		PCMSampleRate: TargetSampleRate,
		Timeout:       defaultTranscodeTimeout,
	}
}

type FFmpegTranscoder struct {
	cfg    FFmpegConfig
	logger *slog.Logger
}

func NewFFmpegTranscoder(cfg FFmpegConfig, logger *slog.Logger) *FFmpegTranscoder {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Binary == "" {
		cfg.Binary = "ffmpeg"
	}
	if cfg.PCMSampleRate <= 0 {
		cfg.PCMSampleRate = TargetSampleRate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTranscodeTimeout
	}
	return &FFmpegTranscoder{
		cfg:    cfg,
		logger: logger.With("component", "ffmpeg"),
	}
}

func (t *FFmpegTranscoder) Available() error {
	_, err := exec.LookPath(t.cfg.Binary)
	return err
}

// Transcode writes the merged batch next to dir and converts it to the canonical
// waveform. The caller owns the returned file.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, batch Batch, dir string) (string, error) {
	if batch.Empty() {
		return "", ErrEmptyBatch
	}

	in, err := os.CreateTemp(dir, "batch-*"+batch.Encoding().Extension())
	if err != nil {
		return "", fmt.Errorf("create input file: %w", err)
	}
	inPath := in.Name()
	defer t.remove(inPath)

	if _, err := in.Write(batch.Merge()); err != nil {
		in.Close()
		return "", fmt.Errorf("write input file: %w", err)
	}
	if err := in.Close(); err != nil {
		return "", fmt.Errorf("close input file: %w", err)
	}

	outPath := strings.TrimSuffix(inPath, filepath.Ext(inPath)) + ".wav"

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.cfg.Binary, t.args(batch.Encoding(), inPath, outPath)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		t.remove(outPath)
		return "", fmt.Errorf("ffmpeg %s batch [%d,%d): %w: %s",
			batch.Encoding(), batch.Start, batch.End, err, tail(stderr.String()))
	}

	t.logger.Debug("batch transcoded",
		"encoding", batch.Encoding(),
		"chunks", batch.Len(),
		"bytes", batch.Size(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return outPath, nil
}

func (t *FFmpegTranscoder) args(encoding Encoding, in, out string) []string {
	target := []string{
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(TargetSampleRate),
		"-ac", strconv.Itoa(TargetChannels),
		out,
	}

	if encoding == EncodingPCM {
		return append([]string{
			"-y", "-hide_banner", "-loglevel", "error",
			"-f", "s16le",
			"-ar", strconv.Itoa(t.cfg.PCMSampleRate),
			"-ac", "1",
			"-i", in,
		}, target...)
	}

	return append([]string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", in,
		"-vn",
	}, target...)
}

func (t *FFmpegTranscoder) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		t.logger.Warn("failed to remove temp file", "path", path, "error", err)
	}
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrTail {
		return s[len(s)-maxStderrTail:]
	}
	return s
}
