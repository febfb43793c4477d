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

// TemplateStore handles all creative template database operations.
// Template fields travel as JSONB on the template row.
type TemplateStore struct {
	db *sql.DB
}

// NewTemplateStore creates a new TemplateStore with the given database connection.
func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// List returns all templates ordered by name.
func (s *TemplateStore) List() ([]models.Template, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, preview_image, base_prompt, fields, created_by, created_at, updated_at
		FROM templates
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows.Scan)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// FindByID retrieves a template by its UUID. Returns nil if not found.
func (s *TemplateStore) FindByID(id uuid.UUID) (*models.Template, error) {
	row := s.db.QueryRow(`
		SELECT id, name, description, preview_image, base_prompt, fields, created_by, created_at, updated_at
		FROM templates WHERE id = $1
	`, id)
	t, err := scanTemplate(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find template by id: %w", err)
	}
	return t, nil
}

// Create inserts a new template. Field keys are normalised before storage.
func (s *TemplateStore) Create(t *models.Template) (*models.Template, error) {
	t.Normalize()
	fields, err := json.Marshal(fieldsOrEmpty(t.Fields))
	if err != nil {
		return nil, fmt.Errorf("marshal template fields: %w", err)
	}

	row := s.db.QueryRow(`
		INSERT INTO templates (name, description, preview_image, base_prompt, fields, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, description, preview_image, base_prompt, fields, created_by, created_at, updated_at
	`, t.Name, t.Description, t.PreviewImage, t.BasePrompt, fields, nullableUUID(t.CreatedBy))
	result, err := scanTemplate(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return result, nil
}

// Update modifies a template. Field keys are normalised before storage.
func (s *TemplateStore) Update(t *models.Template) error {
	t.Normalize()
	fields, err := json.Marshal(fieldsOrEmpty(t.Fields))
	if err != nil {
		return fmt.Errorf("marshal template fields: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE templates SET
			name = $1, description = $2, preview_image = $3, base_prompt = $4, fields = $5, updated_at = NOW()
		WHERE id = $6
	`, t.Name, t.Description, t.PreviewImage, t.BasePrompt, fields, t.ID)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return nil
}

// Delete removes a template by ID. History entries keep their snapshot of
// the template name and field values, so deletion never touches them.
func (s *TemplateStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

// Count returns the total number of templates.
func (s *TemplateStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM templates`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count templates: %w", err)
	}
	return count, nil
}

// scanTemplate reads one template row, decoding the JSONB fields column.
func scanTemplate(scan func(...any) error) (*models.Template, error) {
	t := &models.Template{}
	var fields []byte
	var createdBy sql.Null[uuid.UUID]
	if err := scan(
		&t.ID, &t.Name, &t.Description, &t.PreviewImage, &t.BasePrompt,
		&fields, &createdBy, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if createdBy.Valid {
		t.CreatedBy = createdBy.V
	}
	if err := json.Unmarshal(fields, &t.Fields); err != nil {
		return nil, fmt.Errorf("decode template fields: %w", err)
	}
	return t, nil
}

// fieldsOrEmpty keeps the JSONB column a [] rather than null.
func fieldsOrEmpty(fields []models.Field) []models.Field {
	if fields == nil {
		return []models.Field{}
	}
	return fields
}

// nullableUUID maps the zero UUID to SQL NULL.
func nullableUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
