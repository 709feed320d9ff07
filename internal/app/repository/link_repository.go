package repository

import (
	"context"
	"errors"

	"github.com/DemoMacro/jumpstats/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrLinkNotFound signals that the requested link does not exist.
	ErrLinkNotFound = errors.New("link not found")
)

// LinkFilter narrows link listings. Zero values are ignored.
type LinkFilter struct {
	UserID         string
	OrganizationID string
	DomainID       string
	Status         string
	Limit          int
	Offset         int
}

// LinkRepository defines the data access contract for links.
type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	GetByID(ctx context.Context, id string) (*model.Link, error)
	List(ctx context.Context, filter LinkFilter) ([]model.Link, error)
	Count(ctx context.Context, filter LinkFilter) (int64, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*model.Link, error)
	Delete(ctx context.Context, id string) error
	ShortCodeExists(ctx context.Context, domainID *string, shortCode string) (bool, error)
	ShortCodeSeeds(ctx context.Context) ([]model.Link, error)
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository returns a GORM-backed LinkRepository.
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *model.Link) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *linkRepository) GetByID(ctx context.Context, id string) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) List(ctx context.Context, filter LinkFilter) ([]model.Link, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var result []model.Link
	if err := applyLinkFilter(r.db.WithContext(ctx), filter).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *linkRepository) Count(ctx context.Context, filter LinkFilter) (int64, error) {
	var total int64
	err := applyLinkFilter(r.db.WithContext(ctx).Model(&model.Link{}), filter).Count(&total).Error
	return total, err
}

func (r *linkRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*model.Link, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrLinkNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *linkRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Link{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// ShortCodeExists checks the code within its domain scope, matching the
// composite uniqueness of (domain_id, short_code).
func (r *linkRepository) ShortCodeExists(ctx context.Context, domainID *string, shortCode string) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("short_code = ?", shortCode)
	if domainID == nil {
		tx = tx.Where("domain_id IS NULL")
	} else {
		tx = tx.Where("domain_id = ?", *domainID)
	}

	var count int64
	err := tx.Count(&count).Error
	return count > 0, err
}

// ShortCodeSeeds returns every (domain_id, short_code) pair in the store,
// used to warm the in-process existence filter at startup.
func (r *linkRepository) ShortCodeSeeds(ctx context.Context) ([]model.Link, error) {
	var result []model.Link
	if err := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Select("domain_id", "short_code").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func applyLinkFilter(tx *gorm.DB, filter LinkFilter) *gorm.DB {
	if filter.UserID != "" {
		tx = tx.Where("user_id = ?", filter.UserID)
	}
	if filter.OrganizationID != "" {
		tx = tx.Where("organization_id = ?", filter.OrganizationID)
	}
	if filter.DomainID != "" {
		tx = tx.Where("domain_id = ?", filter.DomainID)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}
	return tx
}
