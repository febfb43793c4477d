// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// Config holds the credentials and endpoint for the images API.
type Config struct {
	APIKey  string
	BaseURL string
}

// Client talks to the OpenAI images API with per-tier request shaping.
type Client struct {
	config Config
	client *http.Client
}

// New creates an images API client. Image generation regularly takes tens of
// seconds, so the HTTP timeout is generous.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	return &Client{
		config: cfg,
		client: &http.Client{Timeout: 180 * time.Second},
	}
}

// Generate dispatches one generation request and returns the base64-encoded
// image payload. High-capability requests carrying a logo attachment go to
// the image-conditioned edits endpoint; everything else is plain
// text-to-image.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if req.HighCapability && req.LogoAsset.HasData() {
		return c.editWithReference(ctx, req)
	}
	return c.textToImage(ctx, req)
}

// textToImage issues POST /images/generations. The baseline tier asks for
// base64 output explicitly; the high-capability model returns base64 by
// default and rejects the response_format parameter.
func (c *Client) textToImage(ctx context.Context, req Request) (string, error) {
	body := generationRequest{
		Model:  req.Model(),
		Prompt: req.Prompt,
		N:      1,
		Size:   NormalizeSize(req.Size, req.HighCapability),
	}
	if req.HighCapability {
		body.Quality = "medium"
	} else {
		body.Quality = "standard"
		body.ResponseFormat = "b64_json"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("genai marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("genai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	return c.do(httpReq)
}

// editWithReference issues POST /images/edits as multipart form data with
// the logo attached as the reference image.
func (c *Client) editWithReference(ctx context.Context, req Request) (string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	fields := map[string]string{
		"model":  req.Model(),
		"prompt": req.Prompt,
		"n":      "1",
		"size":   NormalizeSize(req.Size, true),
	}
	for _, name := range []string{"model", "prompt", "n", "size"} {
		if err := form.WriteField(name, fields[name]); err != nil {
			return "", fmt.Errorf("genai form field %s: %w", name, err)
		}
	}

	name := req.LogoAsset.Name
	if name == "" {
		name = "reference.png"
	}
	mimeType := req.LogoAsset.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="image"; filename=%q`, name))
	header.Set("Content-Type", mimeType)
	part, err := form.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("genai form part: %w", err)
	}
	if _, err := part.Write(req.LogoAsset.Data); err != nil {
		return "", fmt.Errorf("genai form write: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("genai form close: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/images/edits", &buf)
	if err != nil {
		return "", fmt.Errorf("genai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	return c.do(httpReq)
}

// do executes the request and extracts the base64 image payload. Any
// non-success response or image-less body becomes a *GenerationError.
func (c *Client) do(req *http.Request) (string, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("genai http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("genai read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &GenerationError{
			StatusCode: resp.StatusCode,
			Message:    providerMessage(respBody, resp.StatusCode),
		}
	}

	var result generationResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("genai unmarshal: %w", err)
	}
	if len(result.Data) == 0 || strings.TrimSpace(result.Data[0].B64JSON) == "" {
		return "", &GenerationError{StatusCode: resp.StatusCode, Message: "no image returned"}
	}
	return result.Data[0].B64JSON, nil
}

// providerMessage pulls the human-readable message out of an error body,
// falling back to a generic one when the body is not parseable.
func providerMessage(body []byte, status int) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return fmt.Sprintf("image generation failed (status %d)", status)
}

// --- Images API request/response types ---

type generationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	Quality        string `json:"quality,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type generationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
