// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package prompt assembles the final natural-language prompt sent to the
// image generator from a template, the user's field values, and the brand
// style. Composition is pure: the same inputs always yield the same string,
// which is what makes the live prompt preview trustworthy.
package prompt

import (
	"strings"

	"brandforge/internal/models"
)

// Compose builds the generation prompt. Sections — base prompt, filled
// template fields, brand style guidelines — are joined with a blank line;
// empty sections are omitted entirely. A nil template yields "".
func Compose(tpl *models.Template, values map[string]string, style *models.BrandStyle) string {
	if tpl == nil {
		return ""
	}

	var fieldLines []string
	for _, field := range tpl.Fields {
		value := strings.TrimSpace(values[field.Key])
		if value == "" {
			continue
		}
		fieldLines = append(fieldLines, field.Label+": "+value)
	}

	var brandText string
	if summary := style.Summary(); len(summary) > 0 {
		lines := make([]string, 0, len(summary))
		for _, entry := range summary {
			lines = append(lines, entry.Label+": "+strings.TrimSpace(entry.Value))
		}
		brandText = "Brand Style Guidelines:\n" + strings.Join(lines, "\n")
	}

	sections := []string{tpl.BasePrompt, strings.Join(fieldLines, "\n"), brandText}
	var kept []string
	for _, section := range sections {
		if strings.TrimSpace(section) == "" {
			continue
		}
		kept = append(kept, section)
	}
	return strings.Join(kept, "\n\n")
}
