// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package genai shapes and dispatches image-generation requests to the
// OpenAI images API. Two model tiers are supported: a fixed lower-cost
// text-to-image tier and a high-capability tier that additionally accepts a
// reference image attachment and an "auto" size sentinel.
package genai

// Model identifiers for the two generation tiers.
const (
	ModelBaseline       = "dall-e-3"
	ModelHighCapability = "gpt-image-1"
)

// SizeDefault is the square size every out-of-range request falls back to.
const SizeDefault = "1024x1024"

// SizeAuto lets the high-capability tier pick; it is translated to
// SizeDefault at the transport layer.
const SizeAuto = "auto"

// acceptedSizes are the sizes both tiers accept verbatim.
var acceptedSizes = map[string]bool{
	"1024x1024": true,
	"1024x1536": true,
	"1536x1024": true,
}

// Attachment is a reference image carried with a high-capability request.
type Attachment struct {
	Name     string
	MimeType string
	Data     []byte
}

// HasData reports whether the attachment carries image bytes.
func (a *Attachment) HasData() bool {
	return a != nil && len(a.Data) > 0
}

// Request describes one generation dispatch.
type Request struct {
	Prompt         string
	Size           string
	HighCapability bool
	LogoAsset      *Attachment
}

// Model returns the model identifier the request will be sent to.
func (r Request) Model() string {
	if r.HighCapability {
		return ModelHighCapability
	}
	return ModelBaseline
}

// NormalizeSize validates a requested size against the tier's accepted set.
// The high-capability tier additionally accepts SizeAuto, which resolves to
// SizeDefault. Anything else silently falls back to SizeDefault — the
// console never blocks a generation over an aspect-ratio mismatch.
func NormalizeSize(size string, highCapability bool) string {
	if highCapability && size == SizeAuto {
		return SizeDefault
	}
	if acceptedSizes[size] {
		return size
	}
	return SizeDefault
}

// GenerationError is a terminal provider failure: the request was rejected
// or the response carried no image. Message holds the provider's own wording
// when it was parseable, so it can be surfaced to the user verbatim.
type GenerationError struct {
	StatusCode int
	Message    string
}

func (e *GenerationError) Error() string { return e.Message }
