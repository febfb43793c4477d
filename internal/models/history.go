// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is the immutable record of one completed generation. Template
// name and field values are captured by value at generation time, so later
// template edits never corrupt old entries. PreviewDataURL is always
// renderable even when the durable upload failed.
type HistoryEntry struct {
	ID             uuid.UUID         `json:"id"`
	UserID         uuid.UUID         `json:"user_id"`
	StoredImageURL string            `json:"image_url"`
	PreviewDataURL string            `json:"image_preview"`
	Prompt         string            `json:"prompt"`
	TemplateID     uuid.UUID         `json:"template_id"`
	TemplateName   string            `json:"template_name"`
	FieldValues    map[string]string `json:"form_values"`
	Model          string            `json:"model"`
	GenerationName string            `json:"generation_name"`
	AspectRatio    string            `json:"image_size"`
	CreatedAt      time.Time         `json:"created_at"`
}
