package repository

import (
	"context"
	"errors"

	"github.com/DemoMacro/jumpstats/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrDomainNotFound signals that the requested domain does not exist.
	ErrDomainNotFound = errors.New("domain not found")
)

// DomainRepository defines the data access contract for custom domains.
type DomainRepository interface {
	Create(ctx context.Context, domain *model.Domain) error
	GetByID(ctx context.Context, id string) (*model.Domain, error)
	GetByName(ctx context.Context, domainName string) (*model.Domain, error)
	List(ctx context.Context, organizationID, userID string, limit, offset int) ([]model.Domain, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*model.Domain, error)
	Delete(ctx context.Context, id string) error
}

type domainRepository struct {
	db *gorm.DB
}

// NewDomainRepository returns a GORM-backed DomainRepository.
func NewDomainRepository(db *gorm.DB) DomainRepository {
	return &domainRepository{db: db}
}

func (r *domainRepository) Create(ctx context.Context, domain *model.Domain) error {
	return r.db.WithContext(ctx).Create(domain).Error
}

func (r *domainRepository) GetByID(ctx context.Context, id string) (*model.Domain, error) {
	var domain model.Domain
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&domain).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDomainNotFound
		}
		return nil, err
	}
	return &domain, nil
}

func (r *domainRepository) GetByName(ctx context.Context, domainName string) (*model.Domain, error) {
	var domain model.Domain
	if err := r.db.WithContext(ctx).Where("domain_name = ?", domainName).First(&domain).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDomainNotFound
		}
		return nil, err
	}
	return &domain, nil
}

func (r *domainRepository) List(ctx context.Context, organizationID, userID string, limit, offset int) ([]model.Domain, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	tx := r.db.WithContext(ctx)
	if organizationID != "" {
		tx = tx.Where("organization_id = ?", organizationID)
	}
	if userID != "" {
		tx = tx.Where("user_id = ?", userID)
	}

	var result []model.Domain
	if err := tx.Order("created_at DESC").Limit(limit).Offset(offset).Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *domainRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*model.Domain, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Domain{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrDomainNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *domainRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Domain{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDomainNotFound
	}
	return nil
}
