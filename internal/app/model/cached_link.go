package model

import "time"

// CachedLink is the read-mostly projection of a (Link, Domain) pair kept in
// Redis for the redirect hot path. DomainName is either the custom domain's
// name or the host the default-domain link was resolved through. It is a
// derived, time-bounded copy of the authoritative records, never the source
// of truth.
type CachedLink struct {
	ID             string     `json:"id"`
	DomainID       *string    `json:"domainId"`
	DomainName     string     `json:"domainName"`
	ShortCode      string     `json:"shortCode"`
	OriginalURL    string     `json:"originalUrl"`
	UserID         *string    `json:"userId"`
	OrganizationID *string    `json:"organizationId"`
	Status         string     `json:"status"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
