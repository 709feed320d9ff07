package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/DemoMacro/jumpstats/internal/app/model"
	"github.com/DemoMacro/jumpstats/internal/app/repository"
	"github.com/DemoMacro/jumpstats/internal/app/service"
	"github.com/DemoMacro/jumpstats/internal/http/middleware"
)

type fakeClickEvents struct {
	total int64
}

func (f *fakeClickEvents) Insert(ctx context.Context, event *model.ClickEvent) error { return nil }

func (f *fakeClickEvents) Count(ctx context.Context, filter repository.EventFilter) (int64, error) {
	return f.total, nil
}

func (f *fakeClickEvents) Timeseries(ctx context.Context, filter repository.EventFilter) ([]repository.TimeBucket, error) {
	return nil, nil
}

func (f *fakeClickEvents) Breakdown(ctx context.Context, filter repository.EventFilter, column string, limit int) ([]repository.BreakdownRow, error) {
	return nil, nil
}

func (f *fakeClickEvents) ListEvents(ctx context.Context, filter repository.EventFilter, limit, offset int) ([]repository.EventSummary, error) {
	return nil, nil
}

type fakeLinkRepo struct {
	link *model.Link
}

func (f *fakeLinkRepo) Create(ctx context.Context, link *model.Link) error { return nil }

func (f *fakeLinkRepo) GetByID(ctx context.Context, id string) (*model.Link, error) {
	if f.link != nil && f.link.ID == id {
		return f.link, nil
	}
	return nil, repository.ErrLinkNotFound
}

func (f *fakeLinkRepo) List(ctx context.Context, filter repository.LinkFilter) ([]model.Link, error) {
	return nil, nil
}

func (f *fakeLinkRepo) Count(ctx context.Context, filter repository.LinkFilter) (int64, error) {
	return 0, nil
}

func (f *fakeLinkRepo) Update(ctx context.Context, id string, fields map[string]interface{}) (*model.Link, error) {
	return nil, repository.ErrLinkNotFound
}

func (f *fakeLinkRepo) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeLinkRepo) ShortCodeExists(ctx context.Context, domainID *string, shortCode string) (bool, error) {
	return false, nil
}

func (f *fakeLinkRepo) ShortCodeSeeds(ctx context.Context) ([]model.Link, error) {
	return nil, nil
}

type fakeMembers struct{}

func (fakeMembers) FindMember(ctx context.Context, organizationID, userID string) (*model.Member, error) {
	return nil, repository.ErrMemberNotFound
}

func newAnalyticsApp(t *testing.T, total int64) *fiber.App {
	t.Helper()
	owner := "user-1"
	links := service.NewLinkService(nil, &fakeLinkRepo{link: &model.Link{
		ID:          "link-1",
		ShortCode:   "abc123",
		OriginalURL: "https://example.com",
		UserID:      &owner,
		Status:      model.LinkStatusActive,
	}}, &fakeDomainRepo{}, nil, "go.example.com")

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.SessionKey, service.Session{UserID: "user-1"})
		return c.Next()
	})
	NewAnalyticsHandler(AnalyticsDeps{
		Analytics:  service.NewAnalyticsService(nil, &fakeClickEvents{total: total}),
		Links:      links,
		Authorizer: service.NewAuthorizer(fakeMembers{}),
	}).Register(app)
	return app
}

type fakeDomainRepo struct{}

func (fakeDomainRepo) Create(ctx context.Context, domain *model.Domain) error { return nil }
func (fakeDomainRepo) GetByID(ctx context.Context, id string) (*model.Domain, error) {
	return nil, repository.ErrDomainNotFound
}
func (fakeDomainRepo) GetByName(ctx context.Context, name string) (*model.Domain, error) {
	return nil, repository.ErrDomainNotFound
}
func (fakeDomainRepo) List(ctx context.Context, organizationID, userID string, limit, offset int) ([]model.Domain, error) {
	return nil, nil
}
func (fakeDomainRepo) Update(ctx context.Context, id string, fields map[string]interface{}) (*model.Domain, error) {
	return nil, repository.ErrDomainNotFound
}
func (fakeDomainRepo) Delete(ctx context.Context, id string) error { return nil }

func TestAnalyticsHandler_CountGroupBy(t *testing.T) {
	app := newAnalyticsApp(t, 1000)

	// count is accepted both implicitly and as an explicit groupBy value.
	for _, target := range []string{
		"/link/analytics?linkId=link-1",
		"/link/analytics?linkId=link-1&groupBy=count",
	} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, target, nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("%s: expected 200, got %d", target, resp.StatusCode)
		}

		var body struct {
			TotalClicks    int64 `json:"totalClicks"`
			UniqueVisitors int64 `json:"uniqueVisitors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		resp.Body.Close()
		if body.TotalClicks != 1000 || body.UniqueVisitors != 700 {
			t.Fatalf("%s: unexpected body: %+v", target, body)
		}
	}
}

func TestAnalyticsHandler_UnknownGroupBy(t *testing.T) {
	app := newAnalyticsApp(t, 0)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/link/analytics?linkId=link-1&groupBy=passwords", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
