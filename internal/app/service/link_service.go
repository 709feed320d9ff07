package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"go.uber.org/zap"

	"github.com/DemoMacro/jumpstats/internal/app/apperror"
	"github.com/DemoMacro/jumpstats/internal/app/model"
	"github.com/DemoMacro/jumpstats/internal/app/repository"
)

const (
	shortCodeLength   = 6
	shortCodeAttempts = 10

	bloomCapacity      = 1_000_000
	bloomFalsePositive = 0.01
)

// CreateLinkInput carries the caller-supplied fields for a new link.
type CreateLinkInput struct {
	OriginalURL    string
	ShortCode      string
	DomainID       *string
	UserID         *string
	OrganizationID *string
	Title          *string
	Description    *string
	ExpiresAt      *time.Time
}

// LinkService owns link CRUD and keeps the resolution cache coherent with
// the row store.
type LinkService struct {
	logger      *zap.Logger
	links       repository.LinkRepository
	domains     repository.DomainRepository
	cache       LinkCache
	defaultHost string

	mu     sync.Mutex
	filter *bloom.BloomFilter
}

// NewLinkService wires the service. defaultHost names the domain under which
// links without an explicit domain are cached.
func NewLinkService(logger *zap.Logger, links repository.LinkRepository, domains repository.DomainRepository, cache LinkCache, defaultHost string) *LinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkService{
		logger:      logger,
		links:       links,
		domains:     domains,
		cache:       cache,
		defaultHost: defaultHost,
		filter:      bloom.NewWithEstimates(bloomCapacity, bloomFalsePositive),
	}
}

// WarmShortCodes seeds the bloom filter with every short code already in the
// store. Called once at startup; codes created afterwards are added as they
// are handed out.
func (s *LinkService) WarmShortCodes(ctx context.Context) error {
	seeds, err := s.links.ShortCodeSeeds(ctx)
	if err != nil {
		return fmt.Errorf("seed short codes: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seed := range seeds {
		s.filter.AddString(bloomKey(seed.DomainID, seed.ShortCode))
	}
	return nil
}

// Create validates the target URL, settles on a short code and persists the
// link. A caller-chosen code that is already taken is a Conflict; generated
// codes retry a bounded number of times before giving up.
func (s *LinkService) Create(ctx context.Context, in CreateLinkInput) (*model.Link, error) {
	if err := validateTargetURL(in.OriginalURL); err != nil {
		return nil, err
	}
	if in.DomainID != nil {
		if _, err := s.domains.GetByID(ctx, *in.DomainID); err != nil {
			if errors.Is(err, repository.ErrDomainNotFound) {
				return nil, apperror.BadRequest("domain does not exist")
			}
			return nil, apperror.Internal(fmt.Errorf("load domain: %w", err))
		}
	}

	code := in.ShortCode
	if code != "" {
		taken, err := s.links.ShortCodeExists(ctx, in.DomainID, code)
		if err != nil {
			return nil, apperror.Internal(fmt.Errorf("check short code: %w", err))
		}
		if taken {
			return nil, apperror.Conflict("short code already in use")
		}
	} else {
		generated, err := s.generateShortCode(ctx, in.DomainID)
		if err != nil {
			return nil, err
		}
		code = generated
	}

	link := &model.Link{
		DomainID:       in.DomainID,
		ShortCode:      code,
		OriginalURL:    in.OriginalURL,
		UserID:         in.UserID,
		OrganizationID: in.OrganizationID,
		Title:          in.Title,
		Description:    in.Description,
		Status:         model.LinkStatusActive,
		ExpiresAt:      in.ExpiresAt,
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, apperror.Internal(fmt.Errorf("create link: %w", err))
	}
	s.rememberCode(in.DomainID, code)

	s.logger.Info("link created",
		zap.String("linkId", link.ID),
		zap.String("shortCode", link.ShortCode),
	)
	return link, nil
}

// Get loads a single link by id.
func (s *LinkService) Get(ctx context.Context, id string) (*model.Link, error) {
	link, err := s.links.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, apperror.NotFound("link not found", "id unknown")
		}
		return nil, apperror.Internal(fmt.Errorf("load link: %w", err))
	}
	return link, nil
}

// List returns a page of links plus the total matching count.
func (s *LinkService) List(ctx context.Context, filter repository.LinkFilter) ([]model.Link, int64, error) {
	links, err := s.links.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("list links: %w", err))
	}
	total, err := s.links.Count(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("count links: %w", err))
	}
	return links, total, nil
}

// Update applies the given fields and evicts the cached entry under the
// link's previous domain, so the next resolution observes the new state.
func (s *LinkService) Update(ctx context.Context, id string, fields map[string]any) (*model.Link, error) {
	if raw, ok := fields["original_url"]; ok {
		target, _ := raw.(string)
		if err := validateTargetURL(target); err != nil {
			return nil, err
		}
	}

	before, err := s.links.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, apperror.NotFound("link not found", "id unknown")
		}
		return nil, apperror.Internal(fmt.Errorf("load link: %w", err))
	}

	updated, err := s.links.Update(ctx, id, fields)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("update link: %w", err))
	}

	s.invalidate(ctx, before)
	if updated.DomainID != nil && !equalPtr(before.DomainID, updated.DomainID) {
		s.invalidate(ctx, updated)
	}
	return updated, nil
}

// Delete removes the link and evicts its cached entry.
func (s *LinkService) Delete(ctx context.Context, id string) error {
	link, err := s.links.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return apperror.NotFound("link not found", "id unknown")
		}
		return apperror.Internal(fmt.Errorf("load link: %w", err))
	}
	if err := s.links.Delete(ctx, id); err != nil {
		return apperror.Internal(fmt.Errorf("delete link: %w", err))
	}
	s.invalidate(ctx, link)
	return nil
}

// invalidate evicts the cache entry the link would resolve under. Failures
// degrade to a stale entry that expires with its TTL, so they only warrant a
// warning.
func (s *LinkService) invalidate(ctx context.Context, link *model.Link) {
	if s.cache == nil {
		return
	}
	name := s.domainNameFor(ctx, link.DomainID)
	if err := s.cache.Remove(ctx, name, link.ShortCode); err != nil {
		s.logger.Warn("cache invalidation failed",
			zap.String("shortCode", link.ShortCode),
			zap.String("domainName", name),
			zap.Error(err),
		)
	}
}

func (s *LinkService) domainNameFor(ctx context.Context, domainID *string) string {
	if domainID == nil {
		return s.defaultHost
	}
	domain, err := s.domains.GetByID(ctx, *domainID)
	if err != nil {
		s.logger.Warn("domain lookup for invalidation failed",
			zap.String("domainId", *domainID),
			zap.Error(err),
		)
		return s.defaultHost
	}
	return domain.DomainName
}

// generateShortCode draws random codes until one is free. The bloom filter
// short-circuits codes handed out by this process; the row store is the
// authority on everything else.
func (s *LinkService) generateShortCode(ctx context.Context, domainID *string) (string, error) {
	for attempt := 0; attempt < shortCodeAttempts; attempt++ {
		code, err := randomShortCode()
		if err != nil {
			return "", apperror.Internal(fmt.Errorf("generate short code: %w", err))
		}
		if s.maybeTaken(domainID, code) {
			continue
		}
		taken, err := s.links.ShortCodeExists(ctx, domainID, code)
		if err != nil {
			return "", apperror.Internal(fmt.Errorf("check short code: %w", err))
		}
		if !taken {
			return code, nil
		}
		s.rememberCode(domainID, code)
	}
	return "", apperror.Conflict("could not allocate a free short code")
}

func (s *LinkService) maybeTaken(domainID *string, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.TestString(bloomKey(domainID, code))
}

func (s *LinkService) rememberCode(domainID *string, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.AddString(bloomKey(domainID, code))
}

func bloomKey(domainID *string, code string) string {
	if domainID == nil {
		return code
	}
	return *domainID + ":" + code
}

func randomShortCode() (string, error) {
	buf := make([]byte, shortCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:shortCodeLength], nil
}

func validateTargetURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return apperror.BadRequest("originalUrl must be an absolute URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return apperror.BadRequest("originalUrl must use http or https")
	}
	return nil
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
