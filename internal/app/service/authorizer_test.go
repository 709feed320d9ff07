package service

import (
	"context"
	"testing"

	"github.com/DemoMacro/jumpstats/internal/app/model"
	"github.com/DemoMacro/jumpstats/internal/app/repository"
	"github.com/gofiber/fiber/v2"
)

type mockMemberRepository struct {
	findFn func(ctx context.Context, organizationID, userID string) (*model.Member, error)
}

func (m *mockMemberRepository) FindMember(ctx context.Context, organizationID, userID string) (*model.Member, error) {
	if m.findFn != nil {
		return m.findFn(ctx, organizationID, userID)
	}
	return nil, repository.ErrMemberNotFound
}

func membersWithRole(role string) *mockMemberRepository {
	return &mockMemberRepository{
		findFn: func(ctx context.Context, organizationID, userID string) (*model.Member, error) {
			return &model.Member{OrganizationID: organizationID, UserID: userID, Role: role}, nil
		},
	}
}

func orgLink() *model.Link {
	owner := "someone-else"
	org := "org-1"
	return &model.Link{ID: "link-1", UserID: &owner, OrganizationID: &org}
}

func TestAuthorizer_GlobalAdminBypassesOwnership(t *testing.T) {
	authz := NewAuthorizer(&mockMemberRepository{})
	session := Session{UserID: "user-1", Role: RoleAdmin}

	if err := authz.CanAccessLink(context.Background(), session, orgLink()); err != nil {
		t.Fatalf("expected global admin access, got %v", err)
	}

	org := "org-1"
	domain := &model.Domain{ID: "dom-1", OrganizationID: &org}
	if err := authz.CanAccessDomain(context.Background(), session, domain); err != nil {
		t.Fatalf("expected global admin access to domain, got %v", err)
	}
}

func TestAuthorizer_OwnerAccess(t *testing.T) {
	authz := NewAuthorizer(&mockMemberRepository{})
	owner := "user-1"
	link := &model.Link{ID: "link-1", UserID: &owner}

	if err := authz.CanAccessLink(context.Background(), Session{UserID: "user-1"}, link); err != nil {
		t.Fatalf("expected owner access, got %v", err)
	}
}

func TestAuthorizer_OrgMemberRoles(t *testing.T) {
	session := Session{UserID: "user-1"}

	for _, role := range []string{model.MemberRoleAdmin, model.MemberRoleOwner} {
		authz := NewAuthorizer(membersWithRole(role))
		if err := authz.CanAccessLink(context.Background(), session, orgLink()); err != nil {
			t.Fatalf("expected org %s access, got %v", role, err)
		}
	}

	// A plain member does not manage other members' links.
	authz := NewAuthorizer(membersWithRole(model.MemberRoleMember))
	err := authz.CanAccessLink(context.Background(), session, orgLink())
	if status := appErrStatus(t, err); status != fiber.StatusForbidden {
		t.Fatalf("expected forbidden for plain member, got %d", status)
	}
}

func TestAuthorizer_NonMemberDenied(t *testing.T) {
	authz := NewAuthorizer(&mockMemberRepository{})

	err := authz.CanAccessLink(context.Background(), Session{UserID: "user-1"}, orgLink())
	if status := appErrStatus(t, err); status != fiber.StatusForbidden {
		t.Fatalf("expected forbidden, got %d", status)
	}
}

func TestAuthorizer_LinkScope(t *testing.T) {
	ctx := context.Background()

	t.Run("admin sees everything", func(t *testing.T) {
		authz := NewAuthorizer(&mockMemberRepository{})
		filter, err := authz.LinkScope(ctx, Session{UserID: "user-1", Role: RoleAdmin}, repository.LinkFilter{})
		if err != nil {
			t.Fatalf("LinkScope returned error: %v", err)
		}
		if filter.UserID != "" {
			t.Fatalf("expected unscoped filter for admin, got user %q", filter.UserID)
		}
	})

	t.Run("org admin sees org-wide", func(t *testing.T) {
		authz := NewAuthorizer(membersWithRole(model.MemberRoleAdmin))
		filter, err := authz.LinkScope(ctx, Session{UserID: "user-1"}, repository.LinkFilter{OrganizationID: "org-1"})
		if err != nil {
			t.Fatalf("LinkScope returned error: %v", err)
		}
		if filter.UserID != "" {
			t.Fatalf("expected org-wide scope, got user %q", filter.UserID)
		}
	})

	t.Run("plain member scoped to own links", func(t *testing.T) {
		authz := NewAuthorizer(membersWithRole(model.MemberRoleMember))
		filter, err := authz.LinkScope(ctx, Session{UserID: "user-1"}, repository.LinkFilter{OrganizationID: "org-1"})
		if err != nil {
			t.Fatalf("LinkScope returned error: %v", err)
		}
		if filter.UserID != "user-1" {
			t.Fatalf("expected self-scoped filter, got user %q", filter.UserID)
		}
	})

	t.Run("non-member rejected", func(t *testing.T) {
		authz := NewAuthorizer(&mockMemberRepository{})
		_, err := authz.LinkScope(ctx, Session{UserID: "user-1"}, repository.LinkFilter{OrganizationID: "org-1"})
		if status := appErrStatus(t, err); status != fiber.StatusForbidden {
			t.Fatalf("expected forbidden, got %d", status)
		}
	})

	t.Run("no org scopes to own links", func(t *testing.T) {
		authz := NewAuthorizer(&mockMemberRepository{})
		filter, err := authz.LinkScope(ctx, Session{UserID: "user-1"}, repository.LinkFilter{})
		if err != nil {
			t.Fatalf("LinkScope returned error: %v", err)
		}
		if filter.UserID != "user-1" {
			t.Fatalf("expected self-scoped filter, got user %q", filter.UserID)
		}
	})
}
