package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DemoMacro/jumpstats/internal/app/apperror"
	"github.com/DemoMacro/jumpstats/internal/app/model"
	"github.com/DemoMacro/jumpstats/internal/app/repository"
)

// DomainService manages custom serving domains and their verification
// lifecycle.
type DomainService struct {
	logger  *zap.Logger
	domains repository.DomainRepository
}

func NewDomainService(logger *zap.Logger, domains repository.DomainRepository) *DomainService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DomainService{logger: logger, domains: domains}
}

// Create registers a new domain in pending status with a fresh verification
// token. Domain names are unique service-wide.
func (s *DomainService) Create(ctx context.Context, name string, userID, organizationID *string) (*model.Domain, error) {
	name = normalizeDomainName(name)
	if name == "" || !strings.Contains(name, ".") {
		return nil, apperror.BadRequest("domainName must be a valid hostname")
	}

	if _, err := s.domains.GetByName(ctx, name); err == nil {
		return nil, apperror.Conflict("domain already registered")
	} else if !errors.Is(err, repository.ErrDomainNotFound) {
		return nil, apperror.Internal(fmt.Errorf("check domain: %w", err))
	}

	token := uuid.NewString()
	domain := &model.Domain{
		DomainName:        name,
		UserID:            userID,
		OrganizationID:    organizationID,
		Status:            model.DomainStatusPending,
		VerificationToken: &token,
	}
	if err := s.domains.Create(ctx, domain); err != nil {
		return nil, apperror.Internal(fmt.Errorf("create domain: %w", err))
	}

	s.logger.Info("domain registered",
		zap.String("domainId", domain.ID),
		zap.String("domainName", domain.DomainName),
	)
	return domain, nil
}

// Verify activates a pending domain when the presented token matches. An
// already-active domain verifies idempotently.
func (s *DomainService) Verify(ctx context.Context, id, token string) (*model.Domain, error) {
	domain, err := s.domains.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDomainNotFound) {
			return nil, apperror.NotFound("domain not found", "id unknown")
		}
		return nil, apperror.Internal(fmt.Errorf("load domain: %w", err))
	}
	if domain.Status == model.DomainStatusActive {
		return domain, nil
	}
	if domain.VerificationToken == nil || token == "" || *domain.VerificationToken != token {
		return nil, apperror.Forbidden("verification token mismatch")
	}

	now := time.Now().UTC()
	updated, err := s.domains.Update(ctx, id, map[string]any{
		"status":      model.DomainStatusActive,
		"verified_at": &now,
	})
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("verify domain: %w", err))
	}

	s.logger.Info("domain verified", zap.String("domainName", updated.DomainName))
	return updated, nil
}

// Get loads a single domain by id.
func (s *DomainService) Get(ctx context.Context, id string) (*model.Domain, error) {
	domain, err := s.domains.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDomainNotFound) {
			return nil, apperror.NotFound("domain not found", "id unknown")
		}
		return nil, apperror.Internal(fmt.Errorf("load domain: %w", err))
	}
	return domain, nil
}

// List returns the domains visible to the given owner scope.
func (s *DomainService) List(ctx context.Context, organizationID, userID string, limit, offset int) ([]model.Domain, error) {
	domains, err := s.domains.List(ctx, organizationID, userID, limit, offset)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("list domains: %w", err))
	}
	return domains, nil
}

// Delete removes a domain row. Links referencing it keep their domain_id and
// simply stop resolving, which matches the resolver's domain check.
func (s *DomainService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.domains.Delete(ctx, id); err != nil {
		return apperror.Internal(fmt.Errorf("delete domain: %w", err))
	}
	return nil
}

func normalizeDomainName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
