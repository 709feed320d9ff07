package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/DemoMacro/jumpstats/internal/app/model"
	"github.com/DemoMacro/jumpstats/internal/app/repository"
	"github.com/DemoMacro/jumpstats/internal/app/service"
)

type fakeResolveStore struct {
	rows map[string]*repository.ResolvedRow
}

func (f *fakeResolveStore) FindByShortCode(ctx context.Context, shortCode, host string) (*repository.ResolvedRow, error) {
	row, ok := f.rows[shortCode]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	return row, nil
}

type nullCache struct{}

func (nullCache) Get(ctx context.Context, domainName, shortCode string) (*model.CachedLink, error) {
	return nil, nil
}
func (nullCache) Set(ctx context.Context, link *model.CachedLink) error { return nil }
func (nullCache) Remove(ctx context.Context, domainName, shortCode string) error {
	return nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []*model.ClickEvent
}

func (p *capturePublisher) Publish(event *model.ClickEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type inlineScheduler struct{}

func (inlineScheduler) Go(fn func()) { fn() }

func newTestApp(t *testing.T, store *fakeResolveStore, publisher *capturePublisher) *fiber.App {
	t.Helper()
	resolver := service.NewResolver(nil, store, nullCache{})
	tracker := service.NewClickTracker(nil, publisher, nil, inlineScheduler{})

	app := fiber.New()
	NewRedirectHandler(RedirectDeps{
		Resolver: resolver,
		Tracker:  tracker,
	}).Register(app)
	return app
}

func TestRedirectHandler_Found(t *testing.T) {
	store := &fakeResolveStore{rows: map[string]*repository.ResolvedRow{
		"abc123": {Link: model.Link{
			ID:          "link-1",
			ShortCode:   "abc123",
			OriginalURL: "https://example.com/landing",
			Status:      model.LinkStatusActive,
		}},
	}}
	publisher := &capturePublisher{}
	app := newTestApp(t, store, publisher)

	req := httptest.NewRequest(fiber.MethodGet, "/s/abc123", nil)
	req.Host = "go.example.com"
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "https://example.com/landing" {
		t.Fatalf("unexpected Location: %s", loc)
	}
	if publisher.count() != 1 {
		t.Fatalf("expected one tracked click, got %d", publisher.count())
	}
}

func TestRedirectHandler_NotFoundIsUniform(t *testing.T) {
	app := newTestApp(t, &fakeResolveStore{rows: map[string]*repository.ResolvedRow{}}, &capturePublisher{})

	req := httptest.NewRequest(fiber.MethodGet, "/s/missing", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "short link not found" {
		t.Fatalf("expected uniform message, got %q", body["error"])
	}
}

func TestRedirectHandler_QRCode(t *testing.T) {
	store := &fakeResolveStore{rows: map[string]*repository.ResolvedRow{
		"abc123": {Link: model.Link{
			ID:          "link-1",
			ShortCode:   "abc123",
			OriginalURL: "https://example.com/landing",
			Status:      model.LinkStatusActive,
		}},
	}}
	app := newTestApp(t, store, &capturePublisher{})

	req := httptest.NewRequest(fiber.MethodGet, "/qr/abc123", nil)
	req.Host = "go.example.com"
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get(fiber.HeaderContentType); ct != "image/svg+xml" {
		t.Fatalf("unexpected content type: %s", ct)
	}
	if cc := resp.Header.Get(fiber.HeaderCacheControl); cc != "public, max-age=3600" {
		t.Fatalf("unexpected cache control: %s", cc)
	}
	payload, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(payload), "<svg") {
		t.Fatal("expected SVG payload")
	}
	// No click is tracked for QR fetches.
}

func TestRedirectHandler_Health(t *testing.T) {
	app := newTestApp(t, &fakeResolveStore{}, &capturePublisher{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
