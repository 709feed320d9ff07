package service

import (
	"context"
	"errors"
	"time"

	"github.com/DemoMacro/jumpstats/internal/app/apperror"
	"github.com/DemoMacro/jumpstats/internal/app/model"
	"github.com/DemoMacro/jumpstats/internal/app/repository"
	infraprom "github.com/DemoMacro/jumpstats/internal/infra/prometheus"
	"go.uber.org/zap"
)

const notFoundMessage = "short link not found"

// Resolver turns (shortCode, requestHost) into a redirect target using a
// cache-aside read over Redis and Postgres. Safe for concurrent use;
// concurrent misses for the same key each query the store and each write the
// cache. The writes carry equivalent values, so last-write-wins is benign.
type Resolver struct {
	logger *zap.Logger
	store  repository.ResolveStore
	cache  LinkCache
}

// NewResolver builds a Resolver with explicit collaborators.
func NewResolver(logger *zap.Logger, store repository.ResolveStore, cache LinkCache) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger, store: store, cache: cache}
}

// Resolve looks the short code up under the requesting host.
//
// Cache hits are trusted for the remainder of their TTL. On a miss a single
// joined query loads link and domain, the merged projection is written back
// under its effective domain name, and then the link is validated: status,
// expiry, host match, in that order. Every rejection surfaces as a uniform
// not-found; the precise reason is only logged.
func (r *Resolver) Resolve(ctx context.Context, shortCode, requestHost string) (*model.CachedLink, error) {
	cached, err := r.cache.Get(ctx, requestHost, shortCode)
	if err != nil {
		// A broken cache degrades to store reads, it does not fail resolution.
		infraprom.CacheLookups.WithLabelValues("error").Inc()
		r.logger.Warn("link cache read failed", zap.Error(err), zap.String("short_code", shortCode))
	}
	if cached != nil {
		infraprom.CacheLookups.WithLabelValues("hit").Inc()
		return r.validate(cached, requestHost)
	}
	infraprom.CacheLookups.WithLabelValues("miss").Inc()

	row, err := r.store.FindByShortCode(ctx, shortCode, requestHost)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, apperror.NotFound(notFoundMessage, "link not found")
		}
		return nil, apperror.Internal(err)
	}

	link := row.Link

	// Effective domain: the joined domain's name for custom-domain links,
	// the requesting (default) host otherwise.
	domainName := requestHost
	if link.DomainID != nil {
		if row.DomainName == nil {
			return nil, apperror.NotFound(notFoundMessage, "domain not found")
		}
		if *row.DomainStatus != model.DomainStatusActive {
			return nil, apperror.NotFound(notFoundMessage, "domain not verified")
		}
		domainName = *row.DomainName
	}

	projection := &model.CachedLink{
		ID:             link.ID,
		DomainID:       link.DomainID,
		DomainName:     domainName,
		ShortCode:      link.ShortCode,
		OriginalURL:    link.OriginalURL,
		UserID:         link.UserID,
		OrganizationID: link.OrganizationID,
		Status:         link.Status,
		ExpiresAt:      link.ExpiresAt,
		CreatedAt:      link.CreatedAt,
		UpdatedAt:      link.UpdatedAt,
	}

	if err := r.cache.Set(ctx, projection); err != nil {
		// Population failure is non-fatal: the next request misses again.
		r.logger.Warn("link cache write failed", zap.Error(err), zap.String("short_code", shortCode))
	}

	return r.validate(projection, requestHost)
}

func (r *Resolver) validate(link *model.CachedLink, requestHost string) (*model.CachedLink, error) {
	if link.Status != model.LinkStatusActive {
		return nil, apperror.NotFound(notFoundMessage, "link inactive")
	}
	if link.ExpiresAt != nil && !link.ExpiresAt.After(time.Now()) {
		return nil, apperror.NotFound(notFoundMessage, "link expired")
	}
	// A custom-domain link must be served through exactly its domain; this
	// also keeps it off the default host.
	if link.DomainID != nil && link.DomainName != requestHost {
		return nil, apperror.NotFound(notFoundMessage, "domain mismatch")
	}
	return link, nil
}
