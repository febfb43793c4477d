// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"brandforge/internal/models"
)

// BrandStyleStore handles brand style persistence. Each user has at most
// one brand style row, stored as a JSONB document.
type BrandStyleStore struct {
	db *sql.DB
}

// NewBrandStyleStore creates a new BrandStyleStore with the given database connection.
func NewBrandStyleStore(db *sql.DB) *BrandStyleStore {
	return &BrandStyleStore{db: db}
}

// Find retrieves a user's brand style. Returns nil if they never saved one.
func (s *BrandStyleStore) Find(userID uuid.UUID) (*models.BrandStyle, error) {
	var payload []byte
	err := s.db.QueryRow(`
		SELECT style FROM brand_styles WHERE user_id = $1
	`, userID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find brand style: %w", err)
	}

	style := models.EmptyBrandStyle()
	if err := json.Unmarshal(payload, style); err != nil {
		return nil, fmt.Errorf("decode brand style: %w", err)
	}
	return style, nil
}

// Save upserts a user's brand style document.
func (s *BrandStyleStore) Save(userID uuid.UUID, style *models.BrandStyle) error {
	payload, err := json.Marshal(style)
	if err != nil {
		return fmt.Errorf("marshal brand style: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO brand_styles (user_id, style, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET style = EXCLUDED.style, updated_at = NOW()
	`, userID, payload)
	if err != nil {
		return fmt.Errorf("save brand style: %w", err)
	}
	return nil
}

// Delete removes a user's brand style row.
func (s *BrandStyleStore) Delete(userID uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM brand_styles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete brand style: %w", err)
	}
	return nil
}
