package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Domain status values.
const (
	DomainStatusPending  = "pending"
	DomainStatusActive   = "active"
	DomainStatusInactive = "inactive"
)

// Domain is a custom domain registered for serving short links.
// A link referencing a domain is only resolvable through that domain while
// the domain status is active.
type Domain struct {
	ID                string     `gorm:"primaryKey;size:36" json:"id"`
	DomainName        string     `gorm:"size:253;not null;uniqueIndex" json:"domainName"`
	UserID            *string    `gorm:"size:36;index" json:"userId"`
	OrganizationID    *string    `gorm:"size:36;index" json:"organizationId"`
	Status            string     `gorm:"size:16;not null;default:pending" json:"status"`
	VerificationToken *string    `gorm:"size:64" json:"verificationToken"`
	VerifiedAt        *time.Time `json:"verifiedAt"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Domain) TableName() string { return "domains" }

func (d *Domain) BeforeCreate(*gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// Member roles. Owners and admins manage every resource in their
// organization; plain members only their own.
const (
	MemberRoleOwner  = "owner"
	MemberRoleAdmin  = "admin"
	MemberRoleMember = "member"
)

// Member is the minimal organization-membership row consulted by the
// authorizer. Organization CRUD itself lives outside this service.
type Member struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID string    `gorm:"size:36;not null;index:idx_members_org_user" json:"organizationId"`
	UserID         string    `gorm:"size:36;not null;index:idx_members_org_user" json:"userId"`
	Role           string    `gorm:"size:16;not null" json:"role"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Member) TableName() string { return "members" }

func (m *Member) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
