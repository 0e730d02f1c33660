package note

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/eleven-am/voicenotes/internal/dto"
	"github.com/eleven-am/voicenotes/internal/shared"
	"github.com/labstack/echo/v4"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

type Handler struct {
	store  *Store
	index  *Index
	logger *slog.Logger
}

func NewHandler(store *Store, index *Index, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		index:  index,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/notes", h.List)
	g.POST("/notes", h.Create)
	g.GET("/notes/search", h.Search)
	g.GET("/notes/:id", h.Get)
	g.DELETE("/notes/:id", h.Delete)
}

// List godoc
// @Summary      List notes
// @Description  Returns every saved note, oldest first.
// @Tags         notes
// @Produce      json
// @Success      200 {array}  dto.NoteResponse
// @Failure      500 {object} shared.APIError
// @Router       /notes [get]
func (h *Handler) List(c echo.Context) error {
	notes, err := h.store.List(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to list notes", "error", err)
		return shared.InternalError("list_failed", "Failed to load notes")
	}

	resp := make([]dto.NoteResponse, len(notes))
	for i, n := range notes {
		resp[i] = n.ToResponse()
	}
	return c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary      Create note
// @Description  Saves a note. The title is the first sentence of the text.
// @Tags         notes
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateNoteRequest true "Note"
// @Success      201 {object} dto.NoteResponse
// @Failure      400 {object} shared.APIError "Text is required"
// @Failure      500 {object} shared.APIError
// @Router       /notes [post]
func (h *Handler) Create(c echo.Context) error {
	var req dto.CreateNoteRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "Invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return shared.BadRequest("text_required", "Text is required")
	}

	n := &Note{Text: req.Text}
	ctx := c.Request().Context()
	if err := h.store.Create(ctx, n); err != nil {
		h.logger.Error("failed to create note", "error", err)
		return shared.InternalError("create_failed", "Failed to save note")
	}

	if h.index.Enabled() {
		if err := h.index.Add(ctx, n); err != nil {
			h.logger.Warn("failed to index note", "note_id", n.ID, "error", err)
		}
	}

	return c.JSON(http.StatusCreated, n.ToResponse())
}

// Get godoc
// @Summary      Get note
// @Tags         notes
// @Produce      json
// @Param        id path string true "Note ID"
// @Success      200 {object} dto.NoteResponse
// @Failure      404 {object} shared.APIError "Note not found"
// @Failure      500 {object} shared.APIError
// @Router       /notes/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	n, err := h.store.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("note_not_found", "Note not found")
		}
		h.logger.Error("failed to get note", "error", err)
		return shared.InternalError("get_failed", "Failed to load note")
	}
	return c.JSON(http.StatusOK, n.ToResponse())
}

// Delete godoc
// @Summary      Delete note
// @Tags         notes
// @Param        id path string true "Note ID"
// @Success      204
// @Failure      404 {object} shared.APIError "Note not found"
// @Failure      500 {object} shared.APIError
// @Router       /notes/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	if err := h.store.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("note_not_found", "Note not found")
		}
		h.logger.Error("failed to delete note", "error", err)
		return shared.InternalError("delete_failed", "Failed to delete note")
	}

	if h.index.Enabled() {
		if err := h.index.Remove(ctx, id); err != nil {
			h.logger.Warn("failed to remove note from index", "note_id", id, "error", err)
		}
	}

	return c.NoContent(http.StatusNoContent)
}

// Search godoc
// @Summary      Search notes
// @Description  Semantic search over saved notes.
// @Tags         notes
// @Produce      json
// @Param        q     query string true  "Search query"
// @Param        limit query int    false "Number of results (default 10, max 50)"
// @Success      200 {object} dto.NoteSearchResponse
// @Failure      400 {object} shared.APIError
// @Failure      503 {object} shared.APIError "Search is not configured"
// @Failure      500 {object} shared.APIError
// @Router       /notes/search [get]
func (h *Handler) Search(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return shared.BadRequest("missing_query", "Search query is required")
	}

	limit := defaultSearchLimit
	if v := c.QueryParam("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= maxSearchLimit {
			limit = l
		}
	}

	if !h.index.Enabled() {
		return shared.ServiceUnavailable("search_unavailable", "Search is not configured")
	}

	ctx := c.Request().Context()
	hits, err := h.index.Search(ctx, query, limit)
	if err != nil {
		h.logger.Error("note search failed", "error", err)
		return shared.InternalError("search_failed", "Failed to search notes")
	}

	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ID
	}
	notes, err := h.store.GetByIDs(ctx, ids)
	if err != nil {
		h.logger.Error("failed to load search results", "error", err)
		return shared.InternalError("search_failed", "Failed to search notes")
	}

	results := make([]dto.NoteSearchResult, 0, len(hits))
	for _, hit := range hits {
		if n, ok := notes[hit.ID]; ok {
			results = append(results, dto.NoteSearchResult{Note: n.ToResponse(), Score: hit.Score})
		}
	}

	return c.JSON(http.StatusOK, dto.NoteSearchResponse{Query: query, Results: results})
}
