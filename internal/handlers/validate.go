package handlers

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Validation limits for account and template fields.
const (
	maxEmailLen        = 254
	minPasswordLen     = 8
	maxPasswordLen     = 200
	maxDisplayNameLen  = 120
	maxTemplateNameLen = 200
	maxDescriptionLen  = 1_000
	maxBasePromptLen   = 10_000
	maxFieldLabelLen   = 120
	maxFieldCount      = 20
	maxBrandValueLen   = 5_000
	maxGenerationName  = 200
)

// validateSignup checks signup inputs and returns the first error found.
func validateSignup(email, password, displayName string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "Email is required."
	}
	if utf8.RuneCountInString(email) > maxEmailLen {
		return "Email is too long."
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "Email address is not valid."
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return "Password must be at least 8 characters."
	}
	if utf8.RuneCountInString(password) > maxPasswordLen {
		return "Password is too long."
	}
	if utf8.RuneCountInString(displayName) > maxDisplayNameLen {
		return "Display name is too long (max 120 characters)."
	}
	return ""
}

// validateTemplate checks template inputs and returns the first error found.
func validateTemplate(name, description, basePrompt string, fieldLabels []string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Template name is required."
	}
	if utf8.RuneCountInString(name) > maxTemplateNameLen {
		return "Template name is too long (max 200 characters)."
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return "Description is too long (max 1,000 characters)."
	}
	if utf8.RuneCountInString(basePrompt) > maxBasePromptLen {
		return "Base prompt is too long (max 10,000 characters)."
	}
	if len(fieldLabels) > maxFieldCount {
		return "Too many fields (max 20)."
	}
	for _, label := range fieldLabels {
		if utf8.RuneCountInString(label) > maxFieldLabelLen {
			return "Field label is too long (max 120 characters)."
		}
	}
	return ""
}

// validateBrandValue bounds a single brand style text value.
func validateBrandValue(value string) bool {
	return utf8.RuneCountInString(value) <= maxBrandValueLen
}
