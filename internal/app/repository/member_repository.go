package repository

import (
	"context"
	"errors"

	"github.com/DemoMacro/jumpstats/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrMemberNotFound signals that the user is not a member of the organization.
	ErrMemberNotFound = errors.New("member not found")
)

// MemberRepository exposes the membership lookup the authorizer needs.
type MemberRepository interface {
	FindMember(ctx context.Context, organizationID, userID string) (*model.Member, error)
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository returns a GORM-backed MemberRepository.
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) FindMember(ctx context.Context, organizationID, userID string) (*model.Member, error) {
	var member model.Member
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}
