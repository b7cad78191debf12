package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/modservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *modservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *modservice.Service) *Handler {
	return &Handler{svc: svc}
}

// documentKey extracts the content key from the URL (everything after
// /documents/). Supports encoded slashes (e.g. items%2Fsword).
func documentKey(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListMods handles GET /api/mods.
func (h *Handler) ListMods(w http.ResponseWriter, r *http.Request) {
	mods, err := h.svc.ListMods(r.Context())
	if err != nil {
		slog.Error("list mods failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if mods == nil {
		mods = []ModSummary{}
	}
	writeJSON(w, http.StatusOK, ModListResponse{Mods: mods, Total: len(mods)})
}

// GetMod handles GET /api/mods/{id}.
func (h *Handler) GetMod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	mod, err := h.svc.GetMod(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("mod not loaded"))
			return
		}
		slog.Error("get mod failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, mod)
}

// ReloadMod handles POST /api/mods/{id}/reload.
func (h *Handler) ReloadMod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Reload(r.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("mod not found"))
			return
		}
		slog.Error("reload failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("reload failed"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded", "id": id})
}

// LoadOrder handles GET /api/order.
func (h *Handler) LoadOrder(w http.ResponseWriter, r *http.Request) {
	order := h.svc.LoadOrder(r.Context())
	if order == nil {
		order = []string{}
	}
	writeJSON(w, http.StatusOK, LoadOrderResponse{Order: order})
}

// ListDocuments handles GET /api/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	keys := h.svc.DocumentKeys(r.Context())
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, DocumentKeysResponse{Keys: keys, Total: len(keys)})
}

// GetDocument handles GET /api/documents/*.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	key := documentKey(r)
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
		return
	}
	doc, err := h.svc.GetDocument(r.Context(), key)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("document not found"))
			return
		}
		slog.Error("get document failed", slog.String("key", key), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, json.RawMessage(doc))
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	hits, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{Key: hit.Key, Snippet: hit.Snippet}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
