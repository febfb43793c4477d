package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"brandforge/internal/middleware"
	"brandforge/internal/models"
	"brandforge/internal/store"
)

// Templates groups the creative template HTTP handlers. Reads are open to
// every signed-in user; mutations are mounted behind RequireAdmin.
type Templates struct {
	templateStore *store.TemplateStore
}

// NewTemplates creates a new Templates handler group.
func NewTemplates(templateStore *store.TemplateStore) *Templates {
	return &Templates{templateStore: templateStore}
}

// List returns every template.
func (h *Templates) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templateStore.List()
	if err != nil {
		slog.Error("list templates failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if templates == nil {
		templates = []models.Template{}
	}
	respond(w, http.StatusOK, templates)
}

// Get returns a single template by ID.
func (h *Templates) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid template ID.")
		return
	}

	tpl, err := h.templateStore.FindByID(id)
	if err != nil {
		slog.Error("find template failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if tpl == nil {
		respondError(w, http.StatusNotFound, "Template not found.")
		return
	}
	respond(w, http.StatusOK, tpl)
}

type templateRequest struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	PreviewImage string         `json:"preview_image"`
	BasePrompt   string         `json:"base_prompt"`
	Fields       []models.Field `json:"fields"`
}

func (req *templateRequest) fieldLabels() []string {
	labels := make([]string, len(req.Fields))
	for i, f := range req.Fields {
		labels[i] = f.Label
	}
	return labels
}

// Create inserts a new template. Field keys are normalised by the store.
func (h *Templates) Create(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if msg := validateTemplate(req.Name, req.Description, req.BasePrompt, req.fieldLabels()); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	created, err := h.templateStore.Create(&models.Template{
		Name:         req.Name,
		Description:  req.Description,
		PreviewImage: req.PreviewImage,
		BasePrompt:   req.BasePrompt,
		Fields:       req.Fields,
		CreatedBy:    sess.UserID,
	})
	if err != nil {
		slog.Error("create template failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	respond(w, http.StatusCreated, created)
}

// Update modifies an existing template.
func (h *Templates) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid template ID.")
		return
	}

	var req templateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if msg := validateTemplate(req.Name, req.Description, req.BasePrompt, req.fieldLabels()); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := h.templateStore.FindByID(id)
	if err != nil {
		slog.Error("find template failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "Template not found.")
		return
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.PreviewImage = req.PreviewImage
	existing.BasePrompt = req.BasePrompt
	existing.Fields = req.Fields
	if err := h.templateStore.Update(existing); err != nil {
		slog.Error("update template failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	respond(w, http.StatusOK, existing)
}

// Delete removes a template. History entries keep their snapshots, so
// existing generations are unaffected.
func (h *Templates) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid template ID.")
		return
	}

	if err := h.templateStore.Delete(id); err != nil {
		slog.Error("delete template failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	respond(w, http.StatusOK, map[string]bool{"ok": true})
}
