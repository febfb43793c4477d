// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldType restricts template fields to the supported input widgets.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
)

// Field is a single user-fillable slot in a template. Key is unique within
// the owning template and normalised to lowercase snake-case.
type Field struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Placeholder string    `json:"placeholder"`
}

// Template is a reusable prompt skeleton: a base prompt plus the fields a
// user fills in before generating. Fields are stored as JSONB alongside the
// template row.
type Template struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PreviewImage string    `json:"preview_image"`
	BasePrompt   string    `json:"base_prompt"`
	Fields       []Field   `json:"fields"`
	CreatedBy    uuid.UUID `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var nonKeyRuns = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeFieldKey lowercases the value, collapses every run of characters
// outside [a-z0-9] into a single underscore, and trims leading/trailing
// underscores. Normalising an already-normalised key is a no-op.
func NormalizeFieldKey(value string) string {
	key := nonKeyRuns.ReplaceAllString(strings.ToLower(value), "_")
	return strings.Trim(key, "_")
}

// Normalize re-normalises every field key in place. Applied whenever a
// template is created or edited so stored keys are always canonical. A field
// whose key normalises to the empty string falls back to its normalised ID.
func (t *Template) Normalize() {
	for i := range t.Fields {
		f := &t.Fields[i]
		key := NormalizeFieldKey(f.Key)
		if key == "" {
			key = NormalizeFieldKey(f.ID)
		}
		f.Key = key
		if f.Type != FieldTypeTextarea {
			f.Type = FieldTypeText
		}
	}
}

// FieldByKey returns the field with the given key, or nil.
func (t *Template) FieldByKey(key string) *Field {
	for i := range t.Fields {
		if t.Fields[i].Key == key {
			return &t.Fields[i]
		}
	}
	return nil
}
