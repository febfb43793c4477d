package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"brandforge/internal/generation"
	"brandforge/internal/middleware"
	"brandforge/internal/models"
	"brandforge/internal/storage"
	"brandforge/internal/store"
)

// History groups the generation history HTTP handlers.
type History struct {
	historyStore *store.HistoryStore
	blobs        *storage.Client
}

// NewHistory creates a new History handler group. The storage client may be
// nil when object storage is not configured.
func NewHistory(historyStore *store.HistoryStore, blobs *storage.Client) *History {
	return &History{historyStore: historyStore, blobs: blobs}
}

// List returns the user's recent generations, newest first.
func (h *History) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	entries, err := h.historyStore.ListRecent(sess.UserID, generation.HistoryCap)
	if err != nil {
		slog.Error("list history failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if entries == nil {
		entries = []*models.HistoryEntry{}
	}
	respond(w, http.StatusOK, entries)
}

// Delete removes one history entry and, when the image lives in object
// storage, the stored object with it. A missing object is not fatal.
func (h *History) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid entry ID.")
		return
	}

	entry, err := h.historyStore.Find(sess.UserID, entryID)
	if err != nil {
		slog.Error("find history entry failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if entry == nil {
		respondError(w, http.StatusNotFound, "History entry not found.")
		return
	}

	if h.blobs != nil {
		if key, ok := h.blobs.ExtractKey(entry.StoredImageURL); ok {
			if err := h.blobs.Delete(r.Context(), key); err != nil {
				slog.Warn("stored image delete failed", "key", key, "error", err)
			}
		}
	}

	if err := h.historyStore.Delete(sess.UserID, entryID); err != nil {
		slog.Error("delete history entry failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	respond(w, http.StatusOK, map[string]bool{"ok": true})
}
