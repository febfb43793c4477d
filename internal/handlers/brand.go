package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"brandforge/internal/cache"
	"brandforge/internal/middleware"
	"brandforge/internal/models"
	"brandforge/internal/store"
)

// Brand groups the brand style HTTP handlers. Reads go through the Valkey
// cache; saves write through to Postgres and invalidate.
type Brand struct {
	brandStore *store.BrandStyleStore
	brandCache *cache.BrandCache
}

// NewBrand creates a new Brand handler group. The cache may be nil.
func NewBrand(brandStore *store.BrandStyleStore, brandCache *cache.BrandCache) *Brand {
	return &Brand{brandStore: brandStore, brandCache: brandCache}
}

// Get returns the signed-in user's brand style, or the empty defaults if
// they never saved one.
func (h *Brand) Get(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	style, err := h.loadStyle(r, sess.UserID)
	if err != nil {
		slog.Error("find brand style failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	respond(w, http.StatusOK, style)
}

// Save replaces the signed-in user's brand style wholesale.
func (h *Brand) Save(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var style models.BrandStyle
	if err := decodeJSON(w, r, &style); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	for _, value := range []string{
		style.BrandName, style.LogoURL, style.Voice,
		style.VisualGuidelines, style.Typography, style.Keywords,
	} {
		if !validateBrandValue(value) {
			respondError(w, http.StatusBadRequest, "Brand style value is too long (max 5,000 characters).")
			return
		}
	}

	if err := h.brandStore.Save(sess.UserID, &style); err != nil {
		slog.Error("save brand style failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	if h.brandCache != nil {
		h.brandCache.Invalidate(r.Context(), sess.UserID)
	}
	respond(w, http.StatusOK, &style)
}

// Summary returns the ordered brand lines exactly as prompt composition
// will render them, for the console's live preview.
func (h *Brand) Summary(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	style, err := h.loadStyle(r, sess.UserID)
	if err != nil {
		slog.Error("find brand style failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	entries := style.Summary()
	if entries == nil {
		entries = []models.SummaryEntry{}
	}
	respond(w, http.StatusOK, entries)
}

// loadStyle resolves a user's brand style through the cache, falling back
// to the store and finally to the empty defaults.
func (h *Brand) loadStyle(r *http.Request, userID uuid.UUID) (*models.BrandStyle, error) {
	if h.brandCache != nil {
		if style, ok := h.brandCache.Get(r.Context(), userID); ok {
			return style, nil
		}
	}

	style, err := h.brandStore.Find(userID)
	if err != nil {
		return nil, err
	}
	if style == nil {
		style = models.EmptyBrandStyle()
	}
	if h.brandCache != nil {
		h.brandCache.Set(r.Context(), userID, style)
	}
	return style, nil
}
