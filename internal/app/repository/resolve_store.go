package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/DemoMacro/jumpstats/internal/app/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResolvedRow is the single-query join of a link with its (optional) domain,
// as read on the redirect hot path.
type ResolvedRow struct {
	Link model.Link
	// DomainName and DomainStatus come from the left join. Both are nil when
	// the link has no domain, or when the referenced domain row is missing.
	DomainName   *string
	DomainStatus *string
}

// ResolveStore reads links for resolution. It is separate from LinkRepository
// so the hot path can go through pgx directly instead of the ORM.
type ResolveStore interface {
	FindByShortCode(ctx context.Context, shortCode, host string) (*ResolvedRow, error)
}

type pgxResolveStore struct {
	pool *pgxpool.Pool
}

// NewResolveStore returns a pgx-backed ResolveStore.
func NewResolveStore(pool *pgxpool.Pool) ResolveStore {
	return &pgxResolveStore{pool: pool}
}

// findByShortCodeSQL joins link and domain in one round trip. Short codes are
// unique per domain scope, so several rows can match: prefer the row whose
// domain matches the requesting host, then the default-domain row. Host
// mismatches still return a row so the caller can report the mismatch rather
// than a generic miss.
const findByShortCodeSQL = `
SELECT l.id, l.domain_id, l.short_code, l.original_url,
       l.user_id, l.organization_id, l.status, l.expires_at,
       l.created_at, l.updated_at,
       d.domain_name, d.status
FROM links l
LEFT JOIN domains d ON d.id = l.domain_id
WHERE l.short_code = $1
ORDER BY (d.domain_name = $2) DESC NULLS LAST,
         (l.domain_id IS NULL) DESC
LIMIT 1`

func (s *pgxResolveStore) FindByShortCode(ctx context.Context, shortCode, host string) (*ResolvedRow, error) {
	var row ResolvedRow
	err := s.pool.QueryRow(ctx, findByShortCodeSQL, shortCode, host).Scan(
		&row.Link.ID,
		&row.Link.DomainID,
		&row.Link.ShortCode,
		&row.Link.OriginalURL,
		&row.Link.UserID,
		&row.Link.OrganizationID,
		&row.Link.Status,
		&row.Link.ExpiresAt,
		&row.Link.CreatedAt,
		&row.Link.UpdatedAt,
		&row.DomainName,
		&row.DomainStatus,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("resolve %q: %w", shortCode, err)
	}
	return &row, nil
}
