package note

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eleven-am/voicenotes/internal/dto"
	"github.com/eleven-am/voicenotes/internal/shared"
	"github.com/labstack/echo/v4"
	"github.com/qdrant/go-client/qdrant"
)

func newTestHandler(t *testing.T, index *Index) (*Handler, *Store) {
	t.Helper()
	store := newTestStore(t)
	return NewHandler(store, index, testLogger()), store
}

func assertHTTPError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected echo.HTTPError, got %v", err)
	}
	if he.Code != status {
		t.Errorf("expected status %d, got %d", status, he.Code)
	}
	apiErr, ok := he.Message.(*shared.APIError)
	if !ok {
		t.Fatalf("expected APIError message, got %T", he.Message)
	}
	if apiErr.Code != code {
		t.Errorf("expected code %q, got %q", code, apiErr.Code)
	}
}

func TestNoteHandler_RegisterRoutes(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	e := echo.New()
	h.RegisterRoutes(e.Group("/api"))

	want := map[string]bool{
		"GET /api/notes":        false,
		"POST /api/notes":       false,
		"GET /api/notes/search": false,
		"GET /api/notes/:id":    false,
		"DELETE /api/notes/:id": false,
	}
	for _, r := range e.Routes() {
		key := r.Method + " " + r.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for route, found := range want {
		if !found {
			t.Errorf("route %s not registered", route)
		}
	}
}

func TestNoteHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "valid", body: `{"text":"Pick up the dry cleaning. It closes at six."}`, wantStatus: http.StatusCreated},
		{name: "missing text", body: `{}`, wantStatus: http.StatusBadRequest, wantCode: "text_required"},
		{name: "blank text", body: `{"text":"   "}`, wantStatus: http.StatusBadRequest, wantCode: "text_required"},
		{name: "invalid json", body: `{"text":`, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, store := newTestHandler(t, nil)
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()

			err := h.Create(e.NewContext(req, rec))
			if tt.wantCode != "" {
				assertHTTPError(t, err, tt.wantStatus, tt.wantCode)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}

			var resp dto.NoteResponse
			json.Unmarshal(rec.Body.Bytes(), &resp)
			if resp.ID == "" || resp.Title != "Pick up the dry cleaning." {
				t.Errorf("unexpected response %+v", resp)
			}
			if _, err := store.GetByID(context.Background(), resp.ID); err != nil {
				t.Errorf("note not persisted: %v", err)
			}
		})
	}
}

func TestNoteHandler_CreateIndexes(t *testing.T) {
	points := &fakePoints{}
	h, _ := newTestHandler(t, newIndex(points, &fakeEmbedder{}, DefaultCollection, testLogger()))
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader(`{"text":"Book flights for March."}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Create(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points.upserts) != 1 {
		t.Errorf("expected note to be indexed, got %d upserts", len(points.upserts))
	}
}

func TestNoteHandler_ListAndGet(t *testing.T) {
	h, store := newTestHandler(t, nil)
	e := echo.New()
	n := &Note{Text: "Renew the passport."}
	store.Create(context.Background(), n)

	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("List error: %v", err)
	}
	var list []dto.NoteResponse
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list) != 1 || list[0].ID != n.ID {
		t.Errorf("unexpected list %+v", list)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(n.ID)
	if err := h.Get(c); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")
	assertHTTPError(t, h.Get(c), http.StatusNotFound, "note_not_found")
}

func TestNoteHandler_Delete(t *testing.T) {
	points := &fakePoints{}
	h, store := newTestHandler(t, newIndex(points, &fakeEmbedder{}, DefaultCollection, testLogger()))
	e := echo.New()
	n := &Note{Text: "Cancel the gym membership."}
	store.Create(context.Background(), n)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(n.ID)
	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if len(points.deletes) != 1 {
		t.Errorf("expected index removal, got %d deletes", len(points.deletes))
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(n.ID)
	assertHTTPError(t, h.Delete(c), http.StatusNotFound, "note_not_found")
}

func TestNoteHandler_Search(t *testing.T) {
	t.Run("missing query", func(t *testing.T) {
		h, _ := newTestHandler(t, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/notes/search", nil)
		err := h.Search(echo.New().NewContext(req, httptest.NewRecorder()))
		assertHTTPError(t, err, http.StatusBadRequest, "missing_query")
	})

	t.Run("index not configured", func(t *testing.T) {
		h, _ := newTestHandler(t, NewIndex(nil, nil, testLogger()))
		req := httptest.NewRequest(http.MethodGet, "/api/notes/search?q=plants", nil)
		err := h.Search(echo.New().NewContext(req, httptest.NewRecorder()))
		assertHTTPError(t, err, http.StatusServiceUnavailable, "search_unavailable")
	})

	t.Run("results joined with store", func(t *testing.T) {
		points := &fakePoints{}
		h, store := newTestHandler(t, newIndex(points, &fakeEmbedder{}, DefaultCollection, testLogger()))
		n := &Note{Text: "Water the plants on Sunday."}
		store.Create(context.Background(), n)
		points.results = []*qdrant.ScoredPoint{
			{Id: qdrant.NewID(n.ID), Score: 0.87},
			{Id: qdrant.NewID("99999999-9999-9999-9999-999999999999"), Score: 0.2},
		}

		req := httptest.NewRequest(http.MethodGet, "/api/notes/search?q=plants&limit=500", nil)
		rec := httptest.NewRecorder()
		if err := h.Search(echo.New().NewContext(req, rec)); err != nil {
			t.Fatalf("Search error: %v", err)
		}

		var resp dto.NoteSearchResponse
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Query != "plants" || len(resp.Results) != 1 {
			t.Fatalf("unexpected response %+v", resp)
		}
		if resp.Results[0].Note.ID != n.ID || resp.Results[0].Score != 0.87 {
			t.Errorf("unexpected result %+v", resp.Results[0])
		}
		if got := points.queries[0].GetLimit(); got != defaultSearchLimit {
			t.Errorf("out of range limit should fall back to %d, got %d", defaultSearchLimit, got)
		}
	})
}
