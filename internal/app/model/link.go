package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Link status values.
const (
	LinkStatusActive   = "active"
	LinkStatusInactive = "inactive"
	LinkStatusExpired  = "expired"
)

// Link is the authoritative short-link record stored in Postgres.
//
// ShortCode is unique within its domain scope: the composite index spans
// (domain_id, short_code), and a NULL domain_id means the link is served from
// the default host. DomainID is an ownership reference only; deleting a domain
// does not cascade into its links.
type Link struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	DomainID       *string    `gorm:"size:36;uniqueIndex:idx_links_domain_short_code" json:"domainId"`
	ShortCode      string     `gorm:"size:50;not null;uniqueIndex:idx_links_domain_short_code" json:"shortCode"`
	OriginalURL    string     `gorm:"type:text;not null" json:"originalUrl"`
	UserID         *string    `gorm:"size:36;index" json:"userId"`
	OrganizationID *string    `gorm:"size:36;index" json:"organizationId"`
	Title          *string    `gorm:"size:200" json:"title"`
	Description    *string    `gorm:"size:500" json:"description"`
	Status         string     `gorm:"size:16;not null;default:active" json:"status"`
	ExpiresAt      *time.Time `gorm:"index" json:"expiresAt"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Link) TableName() string { return "links" }

func (l *Link) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
