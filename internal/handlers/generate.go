package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"brandforge/internal/cache"
	"brandforge/internal/genai"
	"brandforge/internal/generation"
	"brandforge/internal/middleware"
	"brandforge/internal/models"
	"brandforge/internal/prompt"
	"brandforge/internal/store"
)

// Generate runs the image generation pipeline for signed-in users.
type Generate struct {
	orchestrator  *generation.Orchestrator
	templateStore *store.TemplateStore
	brandStore    *store.BrandStyleStore
	brandCache    *cache.BrandCache
}

// NewGenerate creates a new Generate handler group.
func NewGenerate(orch *generation.Orchestrator, templates *store.TemplateStore, brands *store.BrandStyleStore, brandCache *cache.BrandCache) *Generate {
	return &Generate{
		orchestrator:  orch,
		templateStore: templates,
		brandStore:    brands,
		brandCache:    brandCache,
	}
}

type generateRequest struct {
	TemplateID     uuid.UUID         `json:"template_id"`
	FieldValues    map[string]string `json:"field_values"`
	HighCapability bool              `json:"high_capability"`
	AspectRatio    string            `json:"aspect_ratio"`
	PreserveLogo   bool              `json:"preserve_logo"`
	GenerationName string            `json:"generation_name"`
}

type generateResponse struct {
	Entry    *models.HistoryEntry `json:"entry"`
	Warnings []string             `json:"warnings,omitempty"`
}

// Run executes one generation attempt. A request the console should never
// have submitted (unknown template, nothing to compose) comes back 204 so
// the client quietly does nothing with it.
func (h *Generate) Run(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.GenerationName) > maxGenerationName {
		respondError(w, http.StatusBadRequest, "Generation name is too long (max 200 characters).")
		return
	}

	tpl, err := h.templateStore.FindByID(req.TemplateID)
	if err != nil {
		slog.Error("find template failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	style, err := h.loadStyle(r, sess.UserID)
	if err != nil {
		slog.Error("find brand style failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	result, err := h.orchestrator.Generate(r.Context(), generation.Request{
		UserID:         sess.UserID,
		Template:       tpl,
		FieldValues:    req.FieldValues,
		BrandStyle:     style,
		HighCapability: req.HighCapability,
		AspectRatio:    req.AspectRatio,
		PreserveLogo:   req.PreserveLogo,
		GenerationName: req.GenerationName,
	})
	if err != nil {
		var genErr *genai.GenerationError
		if errors.As(err, &genErr) {
			status := genErr.StatusCode
			if status < http.StatusBadRequest {
				status = http.StatusBadGateway
			}
			respondError(w, status, genErr.Message)
			return
		}
		respondError(w, http.StatusBadGateway, "Image generation failed.")
		return
	}
	if result == nil {
		// Not ready to generate; the triggering control should have been
		// disabled client-side.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	respond(w, http.StatusOK, generateResponse{Entry: result.Entry, Warnings: result.Warnings})
}

type previewRequest struct {
	TemplateID  uuid.UUID         `json:"template_id"`
	FieldValues map[string]string `json:"field_values"`
}

// Preview returns the composed prompt for the current selections without
// dispatching anything. The console shows it live while the user types.
func (h *Generate) Preview(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req previewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tpl, err := h.templateStore.FindByID(req.TemplateID)
	if err != nil {
		slog.Error("find template failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	style, err := h.loadStyle(r, sess.UserID)
	if err != nil {
		slog.Error("find brand style failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	respond(w, http.StatusOK, map[string]string{
		"prompt": prompt.Compose(tpl, req.FieldValues, style),
	})
}

// loadStyle mirrors the brand handler's cache read-through.
func (h *Generate) loadStyle(r *http.Request, userID uuid.UUID) (*models.BrandStyle, error) {
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
