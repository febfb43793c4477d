package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"brandforge/internal/config"
	"brandforge/internal/middleware"
	"brandforge/internal/session"
	"brandforge/internal/store"
)

// Profile groups the account profile HTTP handlers.
type Profile struct {
	cfg       *config.Config
	sessions  *session.Store
	userStore *store.UserStore
}

// NewProfile creates a new Profile handler group.
func NewProfile(cfg *config.Config, sessions *session.Store, userStore *store.UserStore) *Profile {
	return &Profile{cfg: cfg, sessions: sessions, userStore: userStore}
}

type profileResponse struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	IsAdmin     bool   `json:"is_admin"`
	TOTPEnabled bool   `json:"totp_enabled"`
}

// Get returns the signed-in user's profile. Accounts whose address was
// added to the admin list after signup are promoted here, so the list
// works retroactively.
func (h *Profile) Get(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	user, err := h.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("profile lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	if !user.IsAdmin && h.cfg.IsAdminEmail(user.Email) {
		if err := h.userStore.SetAdmin(user.ID, true); err != nil {
			slog.Error("admin promotion failed", "error", err)
		} else {
			user.IsAdmin = true
			sess.IsAdmin = true
			if err := h.sessions.Update(r.Context(), r, sess); err != nil {
				slog.Error("session update failed", "error", err)
			}
		}
	}

	respond(w, http.StatusOK, profileResponse{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		IsAdmin:     user.IsAdmin,
		TOTPEnabled: user.TOTPEnabled,
	})
}

type profileUpdateRequest struct {
	DisplayName string `json:"display_name"`
}

// Update changes the signed-in user's display name.
func (h *Profile) Update(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req profileUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		respondError(w, http.StatusBadRequest, "Display name is required.")
		return
	}
	if utf8.RuneCountInString(displayName) > maxDisplayNameLen {
		respondError(w, http.StatusBadRequest, "Display name is too long (max 120 characters).")
		return
	}

	if err := h.userStore.SetDisplayName(sess.UserID, displayName); err != nil {
		slog.Error("display name update failed", "error", err)
		respondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	sess.DisplayName = displayName
	if err := h.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
	}

	respond(w, http.StatusOK, map[string]bool{"ok": true})
}
