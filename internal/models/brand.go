// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "strings"

// Brand style field keys. The order of brandSchema is the order the brand
// summary is rendered in, so it is part of the prompt contract.
const (
	BrandKeyName             = "brand_name"
	BrandKeyLogoURL          = "logo_url"
	BrandKeyLogoAsset        = "logo_asset"
	BrandKeyHeadingFont      = "heading_font"
	BrandKeyBodyFont         = "body_font"
	BrandKeyVoice            = "voice"
	BrandKeyVisualGuidelines = "visual_guidelines"
	BrandKeyTypography       = "typography"
	BrandKeyKeywords         = "keywords"
)

// BrandFontOptions are the fonts offered for the heading/body selects.
var BrandFontOptions = []string{"Poppins", "Nohemi", "Inter", "Times New Roman"}

// Upload is a file the user attached to their brand style, carried as an
// embedded data URL so it survives without object storage.
type Upload struct {
	Name      string `json:"name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	DataURL   string `json:"data_url"`
}

// HasData reports whether the upload carries embedded image data.
func (u *Upload) HasData() bool {
	return u != nil && u.DataURL != ""
}

// BrandStyle is the per-user set of brand attributes blended into every
// generated prompt. One row per user, overwritten wholesale on save.
type BrandStyle struct {
	BrandName        string  `json:"brand_name"`
	LogoURL          string  `json:"logo_url"`
	LogoAsset        *Upload `json:"logo_asset"`
	HeadingFont      string  `json:"heading_font"`
	BodyFont         string  `json:"body_font"`
	Voice            string  `json:"voice"`
	VisualGuidelines string  `json:"visual_guidelines"`
	Typography       string  `json:"typography"`
	Keywords         string  `json:"keywords"`
}

// EmptyBrandStyle returns the all-empty defaults a user starts with. Select
// fields default to the first font option, matching the editing UI.
func EmptyBrandStyle() *BrandStyle {
	return &BrandStyle{
		HeadingFont: BrandFontOptions[0],
		BodyFont:    BrandFontOptions[0],
	}
}

// HasLogo reports whether any logo is configured, either as an uploaded
// asset with data or as a remote URL.
func (b *BrandStyle) HasLogo() bool {
	if b == nil {
		return false
	}
	return b.LogoAsset.HasData() || strings.TrimSpace(b.LogoURL) != ""
}

// SummaryEntry is one line of the brand-style block appended to prompts.
type SummaryEntry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// brandSchema declares the text fields in summary order. The logo upload is
// handled separately since its value is an asset, not a string.
var brandSchema = []struct {
	key   string
	label string
}{
	{BrandKeyName, "Brand Name"},
	{BrandKeyLogoURL, "Logo URL"},
	{BrandKeyLogoAsset, "Logo Upload"},
	{BrandKeyHeadingFont, "Heading Font"},
	{BrandKeyBodyFont, "Body Font"},
	{BrandKeyVoice, "Voice & Tone"},
	{BrandKeyVisualGuidelines, "Visual Guidelines"},
	{BrandKeyTypography, "Typography Preferences"},
	{BrandKeyKeywords, "Keywords"},
}

// Summary renders the brand style as ordered label/value entries, skipping
// empty fields. The logo URL and upload get dedicated phrasing so the image
// model treats them as asset references rather than literal copy.
func (b *BrandStyle) Summary() []SummaryEntry {
	if b == nil {
		return nil
	}

	values := map[string]string{
		BrandKeyName:             b.BrandName,
		BrandKeyLogoURL:          b.LogoURL,
		BrandKeyHeadingFont:      b.HeadingFont,
		BrandKeyBodyFont:         b.BodyFont,
		BrandKeyVoice:            b.Voice,
		BrandKeyVisualGuidelines: b.VisualGuidelines,
		BrandKeyTypography:       b.Typography,
		BrandKeyKeywords:         b.Keywords,
	}

	var entries []SummaryEntry
	for _, field := range brandSchema {
		if field.key == BrandKeyLogoAsset {
			if b.LogoAsset.HasData() {
				value := "Logo asset uploaded"
				if b.LogoAsset.Name != "" {
					value += " (" + b.LogoAsset.Name + ")"
				}
				entries = append(entries, SummaryEntry{Label: "Brand Logo Upload", Value: value})
			}
			continue
		}

		trimmed := strings.TrimSpace(values[field.key])
		if trimmed == "" {
			continue
		}
		if field.key == BrandKeyLogoURL {
			entries = append(entries, SummaryEntry{
				Label: "Brand Logo Reference",
				Value: "Use this logo asset: " + trimmed,
			})
			continue
		}
		entries = append(entries, SummaryEntry{Label: field.label, Value: trimmed})
	}
	return entries
}
