package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"brandforge/internal/models"
)

// Seed populates the database with initial development data: a default
// admin user and the stock creative templates.
func Seed(db *sql.DB) error {
	if err := seedAdmin(db); err != nil {
		return err
	}
	return SeedTemplates(db)
}

func seedAdmin(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("users already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	// 2FA is not enabled for the seeded admin; they set it up on first login.
	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, display_name, is_admin, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
	`, "admin@brandforge.local", string(hash), "Admin", true, false)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", "admin@brandforge.local",
		"password", "admin",
	)

	return nil
}

// SeedTemplates inserts the stock creative templates on a fresh install.
// It is a no-op once any template exists, so admin edits are never clobbered.
func SeedTemplates(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM templates").Scan(&count); err != nil {
		return fmt.Errorf("seed check templates: %w", err)
	}

	if count > 0 {
		slog.Info("templates already seeded, skipping")
		return nil
	}

	for _, tpl := range stockTemplates() {
		fields, err := json.Marshal(tpl.Fields)
		if err != nil {
			return fmt.Errorf("seed marshal fields for %q: %w", tpl.Name, err)
		}
		_, err = db.Exec(`
			INSERT INTO templates (name, description, preview_image, base_prompt, fields)
			VALUES ($1, $2, $3, $4, $5)
		`, tpl.Name, tpl.Description, tpl.PreviewImage, tpl.BasePrompt, fields)
		if err != nil {
			return fmt.Errorf("seed insert template %q: %w", tpl.Name, err)
		}
	}

	slog.Info("database seeded with stock templates", "count", len(stockTemplates()))
	return nil
}

// stockTemplates returns the creative templates every fresh install starts
// with.
func stockTemplates() []models.Template {
	return []models.Template{
		{
			Name:         "Social Launch Graphic",
			Description:  "Bold social media announcement with product hero, short copy, and clean background.",
			PreviewImage: "https://images.unsplash.com/photo-1500530855697-b586d89ba3ee?auto=format&fit=crop&w=800&q=80",
			BasePrompt:   "Create a high-impact social media graphic suitable for Instagram. Use layered lighting, dynamic angles, and a polished digital aesthetic. Feature the product hero prominently with subtle glow and depth.",
			Fields: []models.Field{
				{ID: "headline", Key: "headline", Label: "Headline", Type: models.FieldTypeText, Placeholder: "Launching Nimbus 2.0 today"},
				{ID: "supporting_copy", Key: "supporting_copy", Label: "Supporting Copy", Type: models.FieldTypeTextarea, Placeholder: "Share highlights, value props, or launch details."},
				{ID: "call_to_action", Key: "call_to_action", Label: "Call To Action", Type: models.FieldTypeText, Placeholder: "Tap to explore"},
			},
		},
		{
			Name:         "Product Spotlight",
			Description:  "Detailed product showcase for ecommerce tiles or ads with close-up focus.",
			PreviewImage: "https://images.unsplash.com/photo-1618005198919-d3d4b5a92eee?auto=format&fit=crop&w=800&q=80",
			BasePrompt:   "Produce a premium ecommerce product spotlight with dramatic studio lighting, crisp reflections, and minimal props. Highlight materials and craft with macro details.",
			Fields: []models.Field{
				{ID: "product_name", Key: "product_name", Label: "Product Name", Type: models.FieldTypeText, Placeholder: "Nimbus Studio headphones"},
				{ID: "key_features", Key: "key_features", Label: "Key Features", Type: models.FieldTypeTextarea, Placeholder: "List the differentiators or specs you want to show."},
				{ID: "background_direction", Key: "background_direction", Label: "Background Direction", Type: models.FieldTypeText, Placeholder: "Soft gradient with floating particles"},
			},
		},
		{
			Name:         "Website Hero Banner",
			Description:  "Wide hero visual for landing pages with compositional balance for text overlays.",
			PreviewImage: "https://images.unsplash.com/photo-1521737604893-d14cc237f11d?auto=format&fit=crop&w=800&q=80",
			BasePrompt:   "Design a web hero scene with ample negative space for text overlays, cinematic lighting, and layered depth. Lean into modern gradients, set design, or subtle 3D elements.",
			Fields: []models.Field{
				{ID: "hero_headline", Key: "hero_headline", Label: "Hero Headline", Type: models.FieldTypeText, Placeholder: "Design systems that scale"},
				{ID: "hero_subheadline", Key: "hero_subheadline", Label: "Subheadline", Type: models.FieldTypeTextarea, Placeholder: "Describe the product promise or mission in one sentence."},
				{ID: "visual_elements", Key: "visual_elements", Label: "Visual Elements", Type: models.FieldTypeText, Placeholder: "Floating interface panels, neon accents, soft gradients"},
			},
		},
	}
}
