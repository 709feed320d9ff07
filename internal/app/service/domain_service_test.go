package service

import (
	"context"
	"testing"

	"github.com/DemoMacro/jumpstats/internal/app/model"
	"github.com/gofiber/fiber/v2"
)

func TestDomainService_CreateDuplicate(t *testing.T) {
	domains := &mockDomainRepository{
		byNameFn: func(ctx context.Context, name string) (*model.Domain, error) {
			return &model.Domain{ID: "dom-1", DomainName: name}, nil
		},
	}
	svc := NewDomainService(nil, domains)

	_, err := svc.Create(context.Background(), "links.acme.io", nil, nil)
	if status := appErrStatus(t, err); status != fiber.StatusConflict {
		t.Fatalf("expected conflict, got %d", status)
	}
}

func TestDomainService_CreatePendingWithToken(t *testing.T) {
	var created *model.Domain
	domains := &mockDomainRepository{
		createFn: func(ctx context.Context, domain *model.Domain) error {
			created = domain
			return nil
		},
	}
	svc := NewDomainService(nil, domains)

	domain, err := svc.Create(context.Background(), "  Links.Acme.IO ", nil, nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created == nil {
		t.Fatal("expected repository create call")
	}
	if domain.DomainName != "links.acme.io" {
		t.Fatalf("expected normalized name, got %q", domain.DomainName)
	}
	if domain.Status != model.DomainStatusPending {
		t.Fatalf("expected pending status, got %s", domain.Status)
	}
	if domain.VerificationToken == nil || *domain.VerificationToken == "" {
		t.Fatal("expected a verification token")
	}
}

func TestDomainService_CreateRejectsBareName(t *testing.T) {
	svc := NewDomainService(nil, &mockDomainRepository{})

	for _, name := range []string{"", "localhost", "   "} {
		_, err := svc.Create(context.Background(), name, nil, nil)
		if status := appErrStatus(t, err); status != fiber.StatusBadRequest {
			t.Fatalf("expected bad request for %q, got %d", name, status)
		}
	}
}

func TestDomainService_VerifyTokenMismatch(t *testing.T) {
	token := "secret-token"
	domains := &mockDomainRepository{
		getFn: func(ctx context.Context, id string) (*model.Domain, error) {
			return &model.Domain{
				ID:                id,
				DomainName:        "links.acme.io",
				Status:            model.DomainStatusPending,
				VerificationToken: &token,
			}, nil
		},
	}
	svc := NewDomainService(nil, domains)

	_, err := svc.Verify(context.Background(), "dom-1", "wrong-token")
	if status := appErrStatus(t, err); status != fiber.StatusForbidden {
		t.Fatalf("expected forbidden, got %d", status)
	}
}

func TestDomainService_VerifyActivates(t *testing.T) {
	token := "secret-token"
	var updatedFields map[string]interface{}
	domains := &mockDomainRepository{
		getFn: func(ctx context.Context, id string) (*model.Domain, error) {
			return &model.Domain{
				ID:                id,
				DomainName:        "links.acme.io",
				Status:            model.DomainStatusPending,
				VerificationToken: &token,
			}, nil
		},
		updateFn: func(ctx context.Context, id string, fields map[string]interface{}) (*model.Domain, error) {
			updatedFields = fields
			return &model.Domain{ID: id, DomainName: "links.acme.io", Status: model.DomainStatusActive}, nil
		},
	}
	svc := NewDomainService(nil, domains)

	domain, err := svc.Verify(context.Background(), "dom-1", token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if domain.Status != model.DomainStatusActive {
		t.Fatalf("expected active status, got %s", domain.Status)
	}
	if updatedFields["status"] != model.DomainStatusActive {
		t.Fatalf("expected status update, got %v", updatedFields)
	}
	if _, ok := updatedFields["verified_at"]; !ok {
		t.Fatal("expected verified_at to be set")
	}
}

func TestDomainService_VerifyIdempotentWhenActive(t *testing.T) {
	domains := &mockDomainRepository{
		getFn: func(ctx context.Context, id string) (*model.Domain, error) {
			return &model.Domain{ID: id, DomainName: "links.acme.io", Status: model.DomainStatusActive}, nil
		},
	}
	svc := NewDomainService(nil, domains)

	domain, err := svc.Verify(context.Background(), "dom-1", "anything")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if domain.Status != model.DomainStatusActive {
		t.Fatalf("expected active status, got %s", domain.Status)
	}
}
