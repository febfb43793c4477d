// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package generation ties the prompt compositor, the dispatcher, the overlay
// compositor, and the persistence collaborators into a single pipeline. One
// call to Generate runs one attempt through its phases; everything
// downstream of a successful dispatch degrades gracefully so the user always
// sees their image.
package generation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"brandforge/internal/genai"
	"brandforge/internal/imaging"
	"brandforge/internal/models"
	"brandforge/internal/prompt"
)

// HistoryCap bounds the in-memory history kept per user.
const HistoryCap = 30

// Dispatcher sends a shaped request to the image-generation provider.
type Dispatcher interface {
	Generate(ctx context.Context, req genai.Request) (string, error)
}

// PromptChecker screens a composed prompt before dispatch. Optional.
type PromptChecker interface {
	CheckSafety(ctx context.Context, text string) (*genai.ModerationResult, error)
}

// BlobStore is the durable image storage collaborator. Optional; without it
// entries keep their local data URL.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	FileURL(key string) string
}

// HistoryRecorder persists history records to the structured store.
// Optional; failures never roll back the in-memory entry.
type HistoryRecorder interface {
	Insert(ctx context.Context, entry *models.HistoryEntry) error
}

// Phase names one step of a generation attempt.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseResolvingLogo
	PhaseDispatching
	PhasePostProcessing
	PhasePersisting
	PhaseComplete
	PhaseFailed
)

// String returns the phase name for logs.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseResolvingLogo:
		return "resolving_logo"
	case PhaseDispatching:
		return "dispatching"
	case PhasePostProcessing:
		return "post_processing"
	case PhasePersisting:
		return "persisting"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// State is the orchestrator's externally visible attempt state.
type State struct {
	Phase       Phase
	LastError   error
	LatestEntry *models.HistoryEntry
}

// Request carries everything one generation attempt needs. It exists only
// for the duration of the call.
type Request struct {
	UserID         uuid.UUID
	Template       *models.Template
	FieldValues    map[string]string
	BrandStyle     *models.BrandStyle
	HighCapability bool
	AspectRatio    string
	PreserveLogo   bool
	GenerationName string
}

// Result is a completed attempt: the new history entry plus any non-blocking
// persistence warnings to surface as banner notices.
type Result struct {
	Entry    *models.HistoryEntry
	Warnings []string
}

// Orchestrator runs generation attempts and owns the bounded in-memory
// history. All collaborators are injected; nil optional ones degrade the
// corresponding step instead of failing it.
type Orchestrator struct {
	dispatcher Dispatcher
	moderator  PromptChecker
	blobs      BlobStore
	records    HistoryRecorder
	fetch      *http.Client
	surface    imaging.Surface
	now        func() time.Time

	mu      sync.Mutex
	state   State
	history map[uuid.UUID][]*models.HistoryEntry
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithModerator screens prompts before dispatch.
func WithModerator(m PromptChecker) Option {
	return func(o *Orchestrator) { o.moderator = m }
}

// WithBlobStore enables durable image uploads.
func WithBlobStore(b BlobStore) Option {
	return func(o *Orchestrator) { o.blobs = b }
}

// WithHistoryRecorder enables durable history records.
func WithHistoryRecorder(r HistoryRecorder) Option {
	return func(o *Orchestrator) { o.records = r }
}

// WithLogoFetcher overrides the HTTP client used to resolve logo URLs.
func WithLogoFetcher(c *http.Client) Option {
	return func(o *Orchestrator) { o.fetch = c }
}

// WithSurface overrides the raster surface used for overlay compositing.
func WithSurface(s imaging.Surface) Option {
	return func(o *Orchestrator) { o.surface = s }
}

// WithClock overrides the timestamp source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator around the given dispatcher.
func New(dispatcher Dispatcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		dispatcher: dispatcher,
		fetch:      &http.Client{Timeout: 30 * time.Second},
		surface:    imaging.DefaultSurface(),
		now:        time.Now,
		history:    make(map[uuid.UUID][]*models.HistoryEntry),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate runs one attempt. A request that is not ready — no template, no
// authenticated user, or a prompt that composes to empty — is a silent
// no-op returning (nil, nil): the triggering control should have been
// disabled, so this guards impossible UI states, not user mistakes. Only a
// dispatch failure is a real error; asset resolution and persistence
// degrade in place.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Result, error) {
	o.setState(State{Phase: PhaseValidating})

	composed := prompt.Compose(req.Template, req.FieldValues, req.BrandStyle)
	if req.Template == nil || req.UserID == uuid.Nil || strings.TrimSpace(composed) == "" {
		slog.Debug("generation skipped: request not ready",
			"has_template", req.Template != nil,
			"user", req.UserID,
		)
		o.setState(State{Phase: PhaseIdle})
		return nil, nil
	}

	if err := o.checkPrompt(ctx, composed); err != nil {
		return nil, o.fail(err)
	}

	// Resolve the logo only when something downstream will use it.
	var logo *models.Upload
	if (req.HighCapability || req.PreserveLogo) && req.BrandStyle.HasLogo() {
		o.setState(State{Phase: PhaseResolvingLogo})
		logo = o.resolveLogo(ctx, req.BrandStyle)
	}

	o.setState(State{Phase: PhaseDispatching})
	var attachment *genai.Attachment
	if req.HighCapability && logo.HasData() {
		attachment = logoAttachment(logo)
	}
	b64, err := o.dispatcher.Generate(ctx, genai.Request{
		Prompt:         composed,
		Size:           req.AspectRatio,
		HighCapability: req.HighCapability,
		LogoAsset:      attachment,
	})
	if err != nil {
		return nil, o.fail(err)
	}

	dataURL := "data:image/png;base64," + b64
	if req.PreserveLogo && logo.HasData() {
		o.setState(State{Phase: PhasePostProcessing})
		merged := imaging.OverlayLogo(b64, logo.DataURL, o.surface)
		b64, dataURL = merged.Base64, merged.DataURL
	}

	o.setState(State{Phase: PhasePersisting})
	entry, warnings := o.persist(ctx, req, composed, b64, dataURL)

	o.mu.Lock()
	list := append([]*models.HistoryEntry{entry}, o.history[req.UserID]...)
	if len(list) > HistoryCap {
		list = list[:HistoryCap]
	}
	o.history[req.UserID] = list
	o.state = State{Phase: PhaseComplete, LatestEntry: entry}
	o.mu.Unlock()

	return &Result{Entry: entry, Warnings: warnings}, nil
}

// checkPrompt runs moderation when configured. A flagged prompt is terminal;
// a moderation transport failure is not — providers keep their own filters.
func (o *Orchestrator) checkPrompt(ctx context.Context, composed string) error {
	if o.moderator == nil {
		return nil
	}
	result, err := o.moderator.CheckSafety(ctx, composed)
	if err != nil {
		slog.Warn("prompt moderation unavailable, continuing", "error", err)
		return nil
	}
	if !result.Safe {
		return &genai.GenerationError{
			Message: "prompt rejected by moderation: " + strings.Join(result.Categories, ", "),
		}
	}
	return nil
}

// resolveLogo prefers the uploaded asset; with only a remote URL configured
// it fetches the bytes and wraps them as an upload record. Every failure
// degrades to "no logo" — generation proceeds without it.
func (o *Orchestrator) resolveLogo(ctx context.Context, style *models.BrandStyle) *models.Upload {
	if style.LogoAsset.HasData() {
		return style.LogoAsset
	}

	logoURL := strings.TrimSpace(style.LogoURL)
	if logoURL == "" {
		return nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, logoURL, nil)
	if err != nil {
		slog.Warn("logo reference unusable", "url", logoURL, "error", err)
		return nil
	}
	resp, err := o.fetch.Do(httpReq)
	if err != nil {
		slog.Warn("logo fetch failed", "url", logoURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("logo fetch failed", "url", logoURL, "status", resp.StatusCode)
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("logo fetch read failed", "url", logoURL, "error", err)
		return nil
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/png"
	}
	name := logoURL
	if idx := strings.LastIndex(logoURL, "/"); idx >= 0 && idx < len(logoURL)-1 {
		name = logoURL[idx+1:]
	}
	if name == "" {
		name = "brand-logo"
	}

	return &models.Upload{
		Name:      name,
		MimeType:  mimeType,
		SizeBytes: int64(len(data)),
		DataURL:   imaging.DataURL(data, mimeType),
	}
}

// persist builds the history entry, attempts the durable blob upload and the
// history record insert, and collects the warnings for anything that failed.
// The preview data URL is always the locally generated one, so the entry
// stays renderable no matter what storage did.
func (o *Orchestrator) persist(ctx context.Context, req Request, composed, b64, dataURL string) (*models.HistoryEntry, []string) {
	var warnings []string

	entryID := uuid.New()
	storedURL := dataURL

	if o.blobs != nil {
		bin, err := imaging.Base64ToBinary(b64, "image/png")
		if err != nil {
			slog.Warn("image decode for upload failed", "error", err)
			warnings = append(warnings, "Storage upload failed: image could not be decoded.")
		} else {
			key := fmt.Sprintf("%s/%s.png", req.UserID, entryID)
			if err := o.blobs.Upload(ctx, key, bin.MimeType, bytes.NewReader(bin.Data), int64(len(bin.Data))); err != nil {
				slog.Warn("durable image upload failed", "key", key, "error", err)
				warnings = append(warnings, "Storage upload failed: "+err.Error())
			} else {
				storedURL = o.blobs.FileURL(key)
			}
		}
	}

	// Snapshot field values by value so later template edits cannot touch
	// the entry. Unfilled fields are captured as empty strings.
	snapshot := make(map[string]string, len(req.Template.Fields))
	for _, field := range req.Template.Fields {
		snapshot[field.Key] = req.FieldValues[field.Key]
	}

	name := strings.TrimSpace(req.GenerationName)
	if name == "" {
		name = req.Template.Name
	}
	if name == "" {
		name = "Untitled generation"
	}

	entry := &models.HistoryEntry{
		ID:             entryID,
		UserID:         req.UserID,
		StoredImageURL: storedURL,
		PreviewDataURL: dataURL,
		Prompt:         composed,
		TemplateID:     req.Template.ID,
		TemplateName:   req.Template.Name,
		FieldValues:    snapshot,
		Model: genai.Request{
			HighCapability: req.HighCapability,
		}.Model(),
		GenerationName: name,
		AspectRatio:    genai.NormalizeSize(req.AspectRatio, req.HighCapability),
		CreatedAt:      o.now().UTC(),
	}

	if o.records != nil {
		if err := o.records.Insert(ctx, entry); err != nil {
			slog.Warn("history record insert failed", "entry", entryID, "error", err)
			warnings = append(warnings, "History record could not be saved: "+err.Error())
		}
	}

	return entry, warnings
}

// fail records a terminal attempt failure and returns the error unchanged.
func (o *Orchestrator) fail(err error) error {
	slog.Error("generation attempt failed", "error", err)
	o.setState(State{Phase: PhaseFailed, LastError: err})
	return err
}

// State returns a copy of the last attempt state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Recent returns the in-memory history for a user, newest first.
func (o *Orchestrator) Recent(userID uuid.UUID) []*models.HistoryEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*models.HistoryEntry(nil), o.history[userID]...)
}

// Prime seeds the in-memory history from durable records, keeping the cap.
func (o *Orchestrator) Prime(userID uuid.UUID, entries []*models.HistoryEntry) {
	if len(entries) > HistoryCap {
		entries = entries[:HistoryCap]
	}
	o.mu.Lock()
	o.history[userID] = append([]*models.HistoryEntry(nil), entries...)
	o.mu.Unlock()
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func logoAttachment(logo *models.Upload) *genai.Attachment {
	bin := imaging.DataURLToBinary(logo.DataURL, "image/png")
	if bin == nil {
		return nil
	}
	return &genai.Attachment{
		Name:     logo.Name,
		MimeType: bin.MimeType,
		Data:     bin.Data,
	}
}
