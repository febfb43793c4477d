// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"brandforge/internal/models"
)

// HistoryStore handles generation history persistence. Rows are written by
// the orchestrator and read when a user's console loads.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore creates a new HistoryStore with the given database connection.
func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Insert persists one history entry. The entry ID and timestamp are set by
// the orchestrator so the durable row matches the in-memory one.
func (s *HistoryStore) Insert(ctx context.Context, e *models.HistoryEntry) error {
	values, err := json.Marshal(valuesOrEmpty(e.FieldValues))
	if err != nil {
		return fmt.Errorf("marshal history values: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO image_history
			(id, user_id, image_url, image_preview, prompt, template_id, template_name, form_values, model, generation_name, image_size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, e.ID, e.UserID, e.StoredImageURL, e.PreviewDataURL, e.Prompt,
		nullableUUID(e.TemplateID), e.TemplateName, values, e.Model,
		e.GenerationName, e.AspectRatio, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// ListRecent returns up to limit entries for a user, newest first.
func (s *HistoryStore) ListRecent(userID uuid.UUID, limit int) ([]*models.HistoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, image_url, image_preview, prompt, template_id, template_name, form_values, model, generation_name, image_size, created_at
		FROM image_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		e := &models.HistoryEntry{}
		var values []byte
		var templateID sql.Null[uuid.UUID]
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.StoredImageURL, &e.PreviewDataURL, &e.Prompt,
			&templateID, &e.TemplateName, &values, &e.Model,
			&e.GenerationName, &e.AspectRatio, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if templateID.Valid {
			e.TemplateID = templateID.V
		}
		if err := json.Unmarshal(values, &e.FieldValues); err != nil {
			return nil, fmt.Errorf("decode history values: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Find retrieves one entry by ID scoped to its owner. Returns nil if not found.
func (s *HistoryStore) Find(userID, entryID uuid.UUID) (*models.HistoryEntry, error) {
	e := &models.HistoryEntry{}
	var values []byte
	var templateID sql.Null[uuid.UUID]
	err := s.db.QueryRow(`
		SELECT id, user_id, image_url, image_preview, prompt, template_id, template_name, form_values, model, generation_name, image_size, created_at
		FROM image_history WHERE id = $1 AND user_id = $2
	`, entryID, userID).Scan(
		&e.ID, &e.UserID, &e.StoredImageURL, &e.PreviewDataURL, &e.Prompt,
		&templateID, &e.TemplateName, &values, &e.Model,
		&e.GenerationName, &e.AspectRatio, &e.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find history entry: %w", err)
	}
	if templateID.Valid {
		e.TemplateID = templateID.V
	}
	if err := json.Unmarshal(values, &e.FieldValues); err != nil {
		return nil, fmt.Errorf("decode history values: %w", err)
	}
	return e, nil
}

// Delete removes one entry scoped to its owner.
func (s *HistoryStore) Delete(userID, entryID uuid.UUID) error {
	_, err := s.db.Exec(`
		DELETE FROM image_history WHERE id = $1 AND user_id = $2
	`, entryID, userID)
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	return nil
}

func valuesOrEmpty(values map[string]string) map[string]string {
	if values == nil {
		return map[string]string{}
	}
	return values
}
