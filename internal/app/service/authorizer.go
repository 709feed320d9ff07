package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/DemoMacro/jumpstats/internal/app/apperror"
	"github.com/DemoMacro/jumpstats/internal/app/model"
	"github.com/DemoMacro/jumpstats/internal/app/repository"
)

// RoleAdmin marks a global administrator session. Global admins bypass
// ownership checks entirely.
const RoleAdmin = "admin"

// Session identifies an authenticated caller.
type Session struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the session carries the global admin role.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// Authorizer answers ownership questions for the management surface.
// Redirects are public and never pass through here.
type Authorizer struct {
	members repository.MemberRepository
}

func NewAuthorizer(members repository.MemberRepository) *Authorizer {
	return &Authorizer{members: members}
}

// CanAccessLink reports whether the session may manage the link: global
// admin, direct owner, or admin/owner of the owning organization. Plain
// organization members do not manage links they don't own.
func (a *Authorizer) CanAccessLink(ctx context.Context, session Session, link *model.Link) error {
	if session.IsAdmin() {
		return nil
	}
	if link.UserID != nil && *link.UserID == session.UserID {
		return nil
	}
	if link.OrganizationID != nil {
		ok, err := a.managesOrganization(ctx, session, *link.OrganizationID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return apperror.Forbidden("link belongs to another account")
}

// CanAccessDomain mirrors CanAccessLink for domain rows.
func (a *Authorizer) CanAccessDomain(ctx context.Context, session Session, domain *model.Domain) error {
	if session.IsAdmin() {
		return nil
	}
	if domain.UserID != nil && *domain.UserID == session.UserID {
		return nil
	}
	if domain.OrganizationID != nil {
		ok, err := a.managesOrganization(ctx, session, *domain.OrganizationID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return apperror.Forbidden("domain belongs to another account")
}

// LinkScope narrows a list filter to rows the session may see. Global admins
// see everything the filter asks for. Within an organization, admins and
// owners see all org links, plain members only their own; non-members are
// rejected. Without an organization the scope is the caller's own links.
func (a *Authorizer) LinkScope(ctx context.Context, session Session, filter repository.LinkFilter) (repository.LinkFilter, error) {
	if session.IsAdmin() {
		return filter, nil
	}
	if filter.OrganizationID != "" {
		member, err := a.members.FindMember(ctx, filter.OrganizationID, session.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrMemberNotFound) {
				return filter, apperror.Forbidden("not a member of this organization")
			}
			return filter, apperror.Internal(fmt.Errorf("check membership: %w", err))
		}
		if managesOrg(member.Role) {
			return filter, nil
		}
		filter.UserID = session.UserID
		return filter, nil
	}
	filter.UserID = session.UserID
	return filter, nil
}

// managesOrganization reports whether the session is an admin or owner of
// the organization.
func (a *Authorizer) managesOrganization(ctx context.Context, session Session, organizationID string) (bool, error) {
	member, err := a.members.FindMember(ctx, organizationID, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return false, nil
		}
		return false, apperror.Internal(fmt.Errorf("check membership: %w", err))
	}
	return managesOrg(member.Role), nil
}

func managesOrg(role string) bool {
	return role == model.MemberRoleAdmin || role == model.MemberRoleOwner
}
