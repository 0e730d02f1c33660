package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eleven-am/voicenotes/internal/shared"
	"github.com/eleven-am/voicenotes/internal/transcription"
	"github.com/labstack/echo/v4"
)

var ErrUndecodable = errors.New("audio could not be decoded")

const (
	maxFileSize          = 25 * 1024 * 1024
	transcriptionTimeout = 2 * time.Minute
)

type TranscriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Result   string  `json:"result"`
}

type Handler struct {
	transcoder  Transcoder
	transcriber transcription.Transcriber
	classifier  *transcription.Classifier
	workDir     string
	language    string
	logger      *slog.Logger
}

func NewHandler(transcoder Transcoder, transcriber transcription.Transcriber, classifier *transcription.Classifier, workDir, language string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if classifier == nil {
		classifier = transcription.NewClassifier(nil)
	}
	if language == "" {
		language = transcription.DefaultLanguage
	}
	return &Handler{
		transcoder:  transcoder,
		transcriber: transcriber,
		classifier:  classifier,
		workDir:     workDir,
		language:    language,
		logger:      logger.With("handler", "audio"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/transcriptions", h.HandleTranscriptions)
}

// EncodingForFile guesses the chunk encoding of an uploaded file from its name.
func EncodingForFile(name string) Encoding {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pcm", ".raw":
		return EncodingPCM
	default:
		return EncodingContainer
	}
}

// Transcribe runs a whole recording through the same transcode, probe,
// transcribe and classify steps a live batch takes.
func (h *Handler) Transcribe(ctx context.Context, data []byte, filename, language string) (*TranscriptionResponse, error) {
	if language == "" {
		language = h.language
	}

	if h.workDir != "" {
		if err := os.MkdirAll(h.workDir, 0o755); err != nil {
			return nil, fmt.Errorf("create work dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(h.workDir, "upload-")
	if err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	defer os.RemoveAll(dir)

	batch := Batch{
		Start: 0,
		End:   1,
		Chunks: []Chunk{{
			Payload:    data,
			Encoding:   EncodingForFile(filename),
			ReceivedAt: time.Now(),
		}},
	}

	wavPath, err := h.transcoder.Transcode(ctx, batch, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUndecodable, err)
	}

	info, err := ProbeWAV(wavPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUndecodable, err)
	}

	resp := &TranscriptionResponse{
		Language: language,
		Duration: info.Duration.Seconds(),
		Result:   transcription.ResultEmpty.String(),
	}
	if info.Silent(0) {
		return resp, nil
	}

	text, err := h.transcriber.Transcribe(ctx, wavPath, language)
	if err != nil {
		return nil, err
	}

	result := h.classifier.Classify(text)
	resp.Result = result.String()
	if result == transcription.ResultSpeech {
		resp.Text = text
	}
	return resp, nil
}

// HandleTranscriptions transcribes an uploaded recording
// @Summary      Create transcription
// @Description  Transcodes an uploaded recording to 16 kHz mono WAV and transcribes it. Filler-only results come back with an empty text.
// @Tags         audio
// @Accept       multipart/form-data
// @Produce      json,text/plain
// @Param        file formData file true "Audio file to transcribe (max 25MB)"
// @Param        language formData string false "Language code of the audio (e.g., en, es, fr)"
// @Param        response_format formData string false "Output format: json or text" default(json)
// @Success      200 {object} TranscriptionResponse "Transcription result"
// @Success      200 {string} string "Plain text transcription (text format)"
// @Failure      400 {object} shared.APIError "Invalid request (missing file)"
// @Failure      413 {object} shared.APIError "File too large (max 25MB)"
// @Failure      422 {object} shared.APIError "Audio could not be decoded"
// @Failure      503 {object} shared.APIError "Transcription service not configured"
// @Failure      500 {object} shared.APIError "Transcription failed"
// @Router       /transcriptions [post]
func (h *Handler) HandleTranscriptions(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return shared.BadRequest("missing_file", "File is required")
	}

	if file.Size > maxFileSize {
		return shared.PayloadTooLarge("file_too_large", "File too large (max 25MB)")
	}

	src, err := file.Open()
	if err != nil {
		return shared.InternalError("file_error", "Failed to open file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return shared.InternalError("file_error", "Failed to read file")
	}
	if len(data) == 0 {
		return shared.BadRequest("empty_file", "File is empty")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), transcriptionTimeout)
	defer cancel()

	resp, err := h.Transcribe(ctx, data, file.Filename, c.FormValue("language"))
	switch {
	case errors.Is(err, transcription.ErrNoClient):
		return shared.ServiceUnavailable("transcription_unavailable", "Transcription service is not configured")
	case errors.Is(err, ErrUndecodable):
		h.logger.Warn("upload could not be decoded", "filename", file.Filename, "error", err)
		return shared.UnprocessableEntity("undecodable_audio", "Audio could not be decoded")
	case err != nil:
		h.logger.Error("transcription failed", "error", err)
		return shared.InternalError("transcription_failed", "Transcription failed")
	}

	if c.FormValue("response_format") == "text" {
		return c.String(http.StatusOK, resp.Text)
	}
	return c.JSON(http.StatusOK, resp)
}
