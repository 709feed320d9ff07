package service

import (
	"context"
	"testing"

	"github.com/DemoMacro/jumpstats/internal/app/apperror"
	"github.com/DemoMacro/jumpstats/internal/app/model"
	"github.com/DemoMacro/jumpstats/internal/app/repository"
	"github.com/gofiber/fiber/v2"
)

type mockLinkRepository struct {
	createFn func(ctx context.Context, link *model.Link) error
	getFn    func(ctx context.Context, id string) (*model.Link, error)
	updateFn func(ctx context.Context, id string, fields map[string]interface{}) (*model.Link, error)
	deleteFn func(ctx context.Context, id string) error
	existsFn func(ctx context.Context, domainID *string, shortCode string) (bool, error)
	seedsFn  func(ctx context.Context) ([]model.Link, error)
}

func (m *mockLinkRepository) Create(ctx context.Context, link *model.Link) error {
	if m.createFn != nil {
		return m.createFn(ctx, link)
	}
	return nil
}

func (m *mockLinkRepository) GetByID(ctx context.Context, id string) (*model.Link, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) List(ctx context.Context, filter repository.LinkFilter) ([]model.Link, error) {
	return nil, nil
}

func (m *mockLinkRepository) Count(ctx context.Context, filter repository.LinkFilter) (int64, error) {
	return 0, nil
}

func (m *mockLinkRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*model.Link, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, fields)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockLinkRepository) ShortCodeExists(ctx context.Context, domainID *string, shortCode string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, domainID, shortCode)
	}
	return false, nil
}

func (m *mockLinkRepository) ShortCodeSeeds(ctx context.Context) ([]model.Link, error) {
	if m.seedsFn != nil {
		return m.seedsFn(ctx)
	}
	return nil, nil
}

type mockDomainRepository struct {
	getFn    func(ctx context.Context, id string) (*model.Domain, error)
	byNameFn func(ctx context.Context, name string) (*model.Domain, error)
	createFn func(ctx context.Context, domain *model.Domain) error
	updateFn func(ctx context.Context, id string, fields map[string]interface{}) (*model.Domain, error)
}

func (m *mockDomainRepository) Create(ctx context.Context, domain *model.Domain) error {
	if m.createFn != nil {
		return m.createFn(ctx, domain)
	}
	return nil
}

func (m *mockDomainRepository) GetByID(ctx context.Context, id string) (*model.Domain, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, repository.ErrDomainNotFound
}

func (m *mockDomainRepository) GetByName(ctx context.Context, name string) (*model.Domain, error) {
	if m.byNameFn != nil {
		return m.byNameFn(ctx, name)
	}
	return nil, repository.ErrDomainNotFound
}

func (m *mockDomainRepository) List(ctx context.Context, organizationID, userID string, limit, offset int) ([]model.Domain, error) {
	return nil, nil
}

func (m *mockDomainRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*model.Domain, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, fields)
	}
	return nil, repository.ErrDomainNotFound
}

func (m *mockDomainRepository) Delete(ctx context.Context, id string) error {
	return nil
}

func appErrStatus(t *testing.T, err error) int {
	t.Helper()
	appErr, ok := apperror.As(err)
	if !ok {
		t.Fatalf("expected app error, got %v", err)
	}
	return appErr.Status
}

func TestLinkService_CreateGeneratesCode(t *testing.T) {
	var created *model.Link
	links := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			created = link
			return nil
		},
	}
	svc := NewLinkService(nil, links, &mockDomainRepository{}, newMemoryLinkCache(), "go.example.com")

	link, err := svc.Create(context.Background(), CreateLinkInput{
		OriginalURL: "https://example.com/landing",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created == nil {
		t.Fatal("expected repository create call")
	}
	if len(link.ShortCode) != shortCodeLength {
		t.Fatalf("expected %d-char code, got %q", shortCodeLength, link.ShortCode)
	}
	if link.Status != model.LinkStatusActive {
		t.Fatalf("expected active status, got %s", link.Status)
	}
}

func TestLinkService_CreateExplicitCodeConflict(t *testing.T) {
	links := &mockLinkRepository{
		existsFn: func(ctx context.Context, domainID *string, shortCode string) (bool, error) {
			return true, nil
		},
	}
	svc := NewLinkService(nil, links, &mockDomainRepository{}, newMemoryLinkCache(), "go.example.com")

	_, err := svc.Create(context.Background(), CreateLinkInput{
		OriginalURL: "https://example.com",
		ShortCode:   "taken1",
	})
	if status := appErrStatus(t, err); status != fiber.StatusConflict {
		t.Fatalf("expected conflict, got %d", status)
	}
}

func TestLinkService_CreateExhaustsGeneratedCodes(t *testing.T) {
	var attempts int
	links := &mockLinkRepository{
		existsFn: func(ctx context.Context, domainID *string, shortCode string) (bool, error) {
			attempts++
			return true, nil
		},
	}
	svc := NewLinkService(nil, links, &mockDomainRepository{}, newMemoryLinkCache(), "go.example.com")

	_, err := svc.Create(context.Background(), CreateLinkInput{
		OriginalURL: "https://example.com",
	})
	if status := appErrStatus(t, err); status != fiber.StatusConflict {
		t.Fatalf("expected conflict after exhaustion, got %d", status)
	}
	if attempts > shortCodeAttempts {
		t.Fatalf("expected at most %d attempts, got %d", shortCodeAttempts, attempts)
	}
}

func TestLinkService_CreateRejectsBadURL(t *testing.T) {
	svc := NewLinkService(nil, &mockLinkRepository{}, &mockDomainRepository{}, newMemoryLinkCache(), "go.example.com")

	for _, raw := range []string{"", "not a url", "ftp://example.com/file", "/relative/path"} {
		_, err := svc.Create(context.Background(), CreateLinkInput{OriginalURL: raw})
		if status := appErrStatus(t, err); status != fiber.StatusBadRequest {
			t.Fatalf("expected bad request for %q, got %d", raw, status)
		}
	}
}

func TestLinkService_CreateUnknownDomain(t *testing.T) {
	domainID := "missing"
	svc := NewLinkService(nil, &mockLinkRepository{}, &mockDomainRepository{}, newMemoryLinkCache(), "go.example.com")

	_, err := svc.Create(context.Background(), CreateLinkInput{
		OriginalURL: "https://example.com",
		DomainID:    &domainID,
	})
	if status := appErrStatus(t, err); status != fiber.StatusBadRequest {
		t.Fatalf("expected bad request for unknown domain, got %d", status)
	}
}

func TestLinkService_WarmShortCodesSeedsFilter(t *testing.T) {
	domainID := "dom-1"
	links := &mockLinkRepository{
		seedsFn: func(ctx context.Context) ([]model.Link, error) {
			return []model.Link{
				{ShortCode: "abc123"},
				{DomainID: &domainID, ShortCode: "def456"},
			}, nil
		},
	}
	svc := NewLinkService(nil, links, &mockDomainRepository{}, newMemoryLinkCache(), "go.example.com")

	if err := svc.WarmShortCodes(context.Background()); err != nil {
		t.Fatalf("WarmShortCodes returned error: %v", err)
	}
	if !svc.maybeTaken(nil, "abc123") {
		t.Fatal("expected seeded default-domain code to be known")
	}
	if !svc.maybeTaken(&domainID, "def456") {
		t.Fatal("expected seeded custom-domain code to be known")
	}
	if svc.maybeTaken(nil, "def456") {
		t.Fatal("seed must be scoped to its domain")
	}
}

func TestLinkService_UpdateInvalidatesOldDomainEntry(t *testing.T) {
	oldDomainID := "dom-old"
	link := &model.Link{
		ID:          "link-1",
		DomainID:    &oldDomainID,
		ShortCode:   "abc123",
		OriginalURL: "https://example.com",
		Status:      model.LinkStatusActive,
	}
	links := &mockLinkRepository{
		getFn: func(ctx context.Context, id string) (*model.Link, error) {
			return link, nil
		},
		updateFn: func(ctx context.Context, id string, fields map[string]interface{}) (*model.Link, error) {
			updated := *link
			updated.DomainID = nil
			return &updated, nil
		},
	}
	domains := &mockDomainRepository{
		getFn: func(ctx context.Context, id string) (*model.Domain, error) {
			return &model.Domain{ID: id, DomainName: "links.acme.io", Status: model.DomainStatusActive}, nil
		},
	}

	cache := newMemoryLinkCache()
	cache.entries[cacheKey("links.acme.io", "abc123")] = &model.CachedLink{ShortCode: "abc123"}

	svc := NewLinkService(nil, links, domains, cache, "go.example.com")

	if _, err := svc.Update(context.Background(), "link-1", map[string]any{"domain_id": nil}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if _, ok := cache.entries[cacheKey("links.acme.io", "abc123")]; ok {
		t.Fatal("expected cache entry under old domain to be evicted")
	}
}

func TestLinkService_DeleteInvalidatesDefaultHostEntry(t *testing.T) {
	link := &model.Link{
		ID:          "link-1",
		ShortCode:   "abc123",
		OriginalURL: "https://example.com",
		Status:      model.LinkStatusActive,
	}
	links := &mockLinkRepository{
		getFn: func(ctx context.Context, id string) (*model.Link, error) {
			return link, nil
		},
	}

	cache := newMemoryLinkCache()
	cache.entries[cacheKey("go.example.com", "abc123")] = &model.CachedLink{ShortCode: "abc123"}

	svc := NewLinkService(nil, links, &mockDomainRepository{}, cache, "go.example.com")

	if err := svc.Delete(context.Background(), "link-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok := cache.entries[cacheKey("go.example.com", "abc123")]; ok {
		t.Fatal("expected default-host cache entry to be evicted")
	}
}
