// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package generation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"brandforge/internal/genai"
	"brandforge/internal/models"
)

// imagePayload is a valid 8x8 PNG so overlay and upload paths can decode it.
const imagePayload = "iVBORw0KGgoAAAANSUhEUgAAAAgAAAAICAYAAADED76LAAAAEUlEQVR4nGNgYPj/Hz8eEQoAQ1d/gZtbdTsAAAAASUVORK5CYII="

// logoPayload is a valid 2x2 PNG.
const logoPayload = "iVBORw0KGgoAAAANSUhEUgAAAAIAAAACCAYAAABytg0kAAAAEUlEQVR4nGP4z8DwH4QZYAwAR8oH+WdZbrcAAAAASUVORK5CYII="

type fakeDispatcher struct {
	lastReq genai.Request
	payload string
	err     error
	calls   int
}

func (d *fakeDispatcher) Generate(_ context.Context, req genai.Request) (string, error) {
	d.calls++
	d.lastReq = req
	if d.err != nil {
		return "", d.err
	}
	if d.payload != "" {
		return d.payload, nil
	}
	return imagePayload, nil
}

type fakeBlobStore struct {
	uploads map[string][]byte
	err     error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{uploads: make(map[string][]byte)}
}

func (b *fakeBlobStore) Upload(_ context.Context, key, contentType string, body io.Reader, size int64) error {
	if b.err != nil {
		return b.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.uploads[key] = data
	return nil
}

func (b *fakeBlobStore) FileURL(key string) string {
	return "https://cdn.example.com/" + key
}

type fakeRecorder struct {
	entries []*models.HistoryEntry
	err     error
}

func (r *fakeRecorder) Insert(_ context.Context, entry *models.HistoryEntry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

type fakeModerator struct {
	result *genai.ModerationResult
	err    error
}

func (m *fakeModerator) CheckSafety(context.Context, string) (*genai.ModerationResult, error) {
	return m.result, m.err
}

func testRequest(userID uuid.UUID) Request {
	return Request{
		UserID: userID,
		Template: &models.Template{
			ID:         uuid.New(),
			Name:       "Social Launch Graphic",
			BasePrompt: "Create a social graphic.",
			Fields: []models.Field{
				{ID: "headline", Key: "headline", Label: "Headline", Type: models.FieldTypeText},
				{ID: "cta", Key: "cta", Label: "Call To Action", Type: models.FieldTypeText},
			},
		},
		FieldValues: map[string]string{"headline": "Launch day"},
		BrandStyle:  &models.BrandStyle{BrandName: "Acme"},
	}
}

func TestGenerateHappyPath(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	recorder := &fakeRecorder{}
	blobs := newFakeBlobStore()
	fixed := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	o := New(dispatcher,
		WithBlobStore(blobs),
		WithHistoryRecorder(recorder),
		WithClock(func() time.Time { return fixed }),
	)

	userID := uuid.New()
	req := testRequest(userID)
	result, err := o.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result == nil || result.Entry == nil {
		t.Fatal("nil result")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("warnings: got %v, want none", result.Warnings)
	}

	entry := result.Entry
	if entry.Model != genai.ModelBaseline {
		t.Errorf("model: got %q, want %q", entry.Model, genai.ModelBaseline)
	}
	if entry.AspectRatio != genai.SizeDefault {
		t.Errorf("aspect ratio: got %q, want %q", entry.AspectRatio, genai.SizeDefault)
	}
	if entry.GenerationName != "Social Launch Graphic" {
		t.Errorf("name should fall back to template name, got %q", entry.GenerationName)
	}
	if !entry.CreatedAt.Equal(fixed) {
		t.Errorf("created at: got %v, want %v", entry.CreatedAt, fixed)
	}
	if !strings.Contains(entry.Prompt, "Create a social graphic.") {
		t.Errorf("prompt missing base, got %q", entry.Prompt)
	}
	if !strings.Contains(entry.Prompt, "Headline: Launch day") {
		t.Errorf("prompt missing field, got %q", entry.Prompt)
	}

	// Unfilled fields are snapshotted as empty strings.
	if got, ok := entry.FieldValues["cta"]; !ok || got != "" {
		t.Errorf("cta snapshot: got %q ok=%v, want empty present", got, ok)
	}

	wantKey := fmt.Sprintf("%s/%s.png", userID, entry.ID)
	if _, ok := blobs.uploads[wantKey]; !ok {
		t.Errorf("upload missing for key %q, have %v", wantKey, len(blobs.uploads))
	}
	if entry.StoredImageURL != "https://cdn.example.com/"+wantKey {
		t.Errorf("stored url: got %q", entry.StoredImageURL)
	}
	if !strings.HasPrefix(entry.PreviewDataURL, "data:image/png;base64,") {
		t.Errorf("preview url: got %q", entry.PreviewDataURL[:30])
	}

	if len(recorder.entries) != 1 || recorder.entries[0] != entry {
		t.Errorf("recorder entries: got %d", len(recorder.entries))
	}

	if state := o.State(); state.Phase != PhaseComplete {
		t.Errorf("phase: got %v, want complete", state.Phase)
	}
}

func TestGenerateNotReadyIsNoOp(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"nil template", func(r *Request) { r.Template = nil }},
		{"no user", func(r *Request) { r.UserID = uuid.Nil }},
		{"empty prompt", func(r *Request) {
			r.Template.BasePrompt = ""
			r.FieldValues = nil
			r.BrandStyle = nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &fakeDispatcher{}
			o := New(dispatcher)

			req := testRequest(uuid.New())
			tt.mutate(&req)

			result, err := o.Generate(context.Background(), req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != nil {
				t.Errorf("got %+v, want nil result", result)
			}
			if dispatcher.calls != 0 {
				t.Errorf("dispatcher called %d times", dispatcher.calls)
			}
			if state := o.State(); state.Phase != PhaseIdle {
				t.Errorf("phase: got %v, want idle", state.Phase)
			}
		})
	}
}

func TestGenerateDispatchFailureIsTerminal(t *testing.T) {
	dispatchErr := &genai.GenerationError{StatusCode: 400, Message: "rejected"}
	dispatcher := &fakeDispatcher{err: dispatchErr}
	recorder := &fakeRecorder{}
	o := New(dispatcher, WithHistoryRecorder(recorder))

	_, err := o.Generate(context.Background(), testRequest(uuid.New()))
	if !errors.Is(err, dispatchErr) {
		t.Fatalf("got %v, want dispatch error", err)
	}
	if len(recorder.entries) != 0 {
		t.Error("failed attempt must not record history")
	}

	state := o.State()
	if state.Phase != PhaseFailed {
		t.Errorf("phase: got %v, want failed", state.Phase)
	}
	if !errors.Is(state.LastError, dispatchErr) {
		t.Errorf("state error: got %v", state.LastError)
	}
}

func TestGenerateFlaggedPromptRejected(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	o := New(dispatcher, WithModerator(&fakeModerator{
		result: &genai.ModerationResult{Safe: false, Categories: []string{"violence"}},
	}))

	_, err := o.Generate(context.Background(), testRequest(uuid.New()))

	var genErr *genai.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("got %T, want *genai.GenerationError", err)
	}
	if !strings.Contains(genErr.Message, "violence") {
		t.Errorf("message should name the category, got %q", genErr.Message)
	}
	if dispatcher.calls != 0 {
		t.Error("flagged prompt must not dispatch")
	}
}

func TestGenerateModerationOutageContinues(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	o := New(dispatcher, WithModerator(&fakeModerator{err: errors.New("timeout")}))

	result, err := o.Generate(context.Background(), testRequest(uuid.New()))
	if err != nil {
		t.Fatalf("moderation outage must not block: %v", err)
	}
	if result == nil {
		t.Fatal("nil result")
	}
	if dispatcher.calls != 1 {
		t.Errorf("dispatcher calls: got %d, want 1", dispatcher.calls)
	}
}

func TestGeneratePersistenceFailuresDegrade(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	blobs := newFakeBlobStore()
	blobs.err = errors.New("bucket unavailable")
	recorder := &fakeRecorder{err: errors.New("db down")}

	o := New(dispatcher, WithBlobStore(blobs), WithHistoryRecorder(recorder))

	result, err := o.Generate(context.Background(), testRequest(uuid.New()))
	if err != nil {
		t.Fatalf("persistence failures must not fail the attempt: %v", err)
	}
	if len(result.Warnings) != 2 {
		t.Fatalf("warnings: got %v, want 2", result.Warnings)
	}
	if !strings.Contains(result.Warnings[0], "Storage upload failed") {
		t.Errorf("warning 0: got %q", result.Warnings[0])
	}
	if !strings.Contains(result.Warnings[1], "History record could not be saved") {
		t.Errorf("warning 1: got %q", result.Warnings[1])
	}

	// The entry keeps its local data URL when the upload failed.
	if !strings.HasPrefix(result.Entry.StoredImageURL, "data:image/png;base64,") {
		t.Errorf("stored url should stay local, got %q", result.Entry.StoredImageURL[:30])
	}
}

func TestGenerateHighCapabilityAttachesLogo(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	o := New(dispatcher)

	req := testRequest(uuid.New())
	req.HighCapability = true
	req.BrandStyle.LogoAsset = &models.Upload{
		Name:     "logo.png",
		MimeType: "image/png",
		DataURL:  "data:image/png;base64," + logoPayload,
	}

	if _, err := o.Generate(context.Background(), req); err != nil {
		t.Fatalf("generate: %v", err)
	}

	if !dispatcher.lastReq.HighCapability {
		t.Error("request not marked high capability")
	}
	att := dispatcher.lastReq.LogoAsset
	if att == nil {
		t.Fatal("logo attachment missing")
	}
	if att.Name != "logo.png" {
		t.Errorf("attachment name: got %q", att.Name)
	}
	want, _ := base64.StdEncoding.DecodeString(logoPayload)
	if string(att.Data) != string(want) {
		t.Error("attachment bytes do not match the uploaded asset")
	}
}

func TestGenerateBaselineNeverAttachesLogo(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	o := New(dispatcher)

	req := testRequest(uuid.New())
	req.PreserveLogo = true
	req.BrandStyle.LogoAsset = &models.Upload{
		DataURL: "data:image/png;base64," + logoPayload,
	}

	if _, err := o.Generate(context.Background(), req); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if dispatcher.lastReq.LogoAsset != nil {
		t.Error("baseline dispatch must not carry an attachment")
	}
}

func TestGeneratePreserveLogoOverlays(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	o := New(dispatcher)

	req := testRequest(uuid.New())
	req.PreserveLogo = true
	req.BrandStyle.LogoAsset = &models.Upload{
		DataURL: "data:image/png;base64," + logoPayload,
	}

	result, err := o.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// The composited image differs from the raw dispatcher payload.
	if strings.HasSuffix(result.Entry.PreviewDataURL, imagePayload) {
		t.Error("overlay did not run")
	}
}

func TestGenerateLogoURLFetched(t *testing.T) {
	logoBytes, _ := base64.StdEncoding.DecodeString(logoPayload)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(logoBytes)
	}))
	defer srv.Close()

	dispatcher := &fakeDispatcher{}
	o := New(dispatcher, WithLogoFetcher(srv.Client()))

	req := testRequest(uuid.New())
	req.HighCapability = true
	req.BrandStyle.LogoURL = srv.URL + "/assets/acme-logo.png"

	if _, err := o.Generate(context.Background(), req); err != nil {
		t.Fatalf("generate: %v", err)
	}

	att := dispatcher.lastReq.LogoAsset
	if att == nil {
		t.Fatal("fetched logo not attached")
	}
	if att.Name != "acme-logo.png" {
		t.Errorf("attachment name: got %q, want acme-logo.png", att.Name)
	}
	if string(att.Data) != string(logoBytes) {
		t.Error("attachment bytes do not match the fetched logo")
	}
}

func TestGenerateLogoFetchFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dispatcher := &fakeDispatcher{}
	o := New(dispatcher, WithLogoFetcher(srv.Client()))

	req := testRequest(uuid.New())
	req.HighCapability = true
	req.BrandStyle.LogoURL = srv.URL + "/missing.png"

	result, err := o.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unreachable logo must not fail the attempt: %v", err)
	}
	if result == nil {
		t.Fatal("nil result")
	}
	if dispatcher.lastReq.LogoAsset != nil {
		t.Error("failed fetch must dispatch without an attachment")
	}
}

func TestGenerateCustomName(t *testing.T) {
	o := New(&fakeDispatcher{})

	req := testRequest(uuid.New())
	req.GenerationName = "  Spring campaign hero  "

	result, err := o.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Entry.GenerationName != "Spring campaign hero" {
		t.Errorf("name: got %q", result.Entry.GenerationName)
	}
}

func TestHistoryCapAndOrder(t *testing.T) {
	o := New(&fakeDispatcher{})
	userID := uuid.New()

	var lastID uuid.UUID
	for i := 0; i < HistoryCap+5; i++ {
		req := testRequest(userID)
		req.GenerationName = fmt.Sprintf("run %d", i)
		result, err := o.Generate(context.Background(), req)
		if err != nil {
			t.Fatalf("generate %d: %v", i, err)
		}
		lastID = result.Entry.ID
	}

	recent := o.Recent(userID)
	if len(recent) != HistoryCap {
		t.Fatalf("history length: got %d, want %d", len(recent), HistoryCap)
	}
	if recent[0].ID != lastID {
		t.Error("newest entry must be first")
	}
	if recent[0].GenerationName != fmt.Sprintf("run %d", HistoryCap+4) {
		t.Errorf("newest name: got %q", recent[0].GenerationName)
	}
}

func TestHistoryIsolatedPerUser(t *testing.T) {
	o := New(&fakeDispatcher{})
	alice, bob := uuid.New(), uuid.New()

	if _, err := o.Generate(context.Background(), testRequest(alice)); err != nil {
		t.Fatalf("generate: %v", err)
	}

	if got := len(o.Recent(bob)); got != 0 {
		t.Errorf("bob's history: got %d entries, want 0", got)
	}
	if got := len(o.Recent(alice)); got != 1 {
		t.Errorf("alice's history: got %d entries, want 1", got)
	}
}

func TestPrimeSeedsHistory(t *testing.T) {
	o := New(&fakeDispatcher{})
	userID := uuid.New()

	entries := make([]*models.HistoryEntry, HistoryCap+10)
	for i := range entries {
		entries[i] = &models.HistoryEntry{ID: uuid.New(), UserID: userID}
	}

	o.Prime(userID, entries)

	recent := o.Recent(userID)
	if len(recent) != HistoryCap {
		t.Fatalf("primed length: got %d, want %d", len(recent), HistoryCap)
	}
	if recent[0].ID != entries[0].ID {
		t.Error("prime must keep the given order")
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseIdle, "idle"},
		{PhaseDispatching, "dispatching"},
		{PhaseComplete, "complete"},
		{PhaseFailed, "failed"},
		{Phase(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String(): got %q, want %q", tt.phase, got, tt.want)
		}
	}
}
