package repository

import (
	"context"

	"admarket/internal/apperror"
	"admarket/internal/domain"

	"gorm.io/gorm"
)

type PlacementRepository struct {
	db *gorm.DB
}

func NewPlacementRepository(db *gorm.DB) *PlacementRepository {
	return &PlacementRepository{db: db}
}

func (r *PlacementRepository) Create(ctx context.Context, p *domain.Placement) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if IsUniqueViolation(err) {
			return apperror.Conflict("placement_code already exists", err)
		}
		return err
	}
	return nil
}

func (r *PlacementRepository) Update(ctx context.Context, p *domain.Placement) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		if IsUniqueViolation(err) {
			return apperror.Conflict("placement_code already exists", err)
		}
		return err
	}
	return nil
}

func (r *PlacementRepository) GetByID(ctx context.Context, id int64) (*domain.Placement, error) {
	var p domain.Placement
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, "placement")
	}
	return &p, nil
}

// LockByID reads the placement with a row lock; concurrent bookings of the same
// placement queue behind it until the transaction ends.
func (r *PlacementRepository) LockByID(ctx context.Context, id int64) (*domain.Placement, error) {
	var p domain.Placement
	if err := forUpdate(r.db.WithContext(ctx)).First(&p, id).Error; err != nil {
		return nil, notFound(err, "placement")
	}
	return &p, nil
}

func (r *PlacementRepository) List(ctx context.Context, activeOnly bool, offset, limit int) ([]domain.Placement, int64, error) {
	offset, limit = clampPage(offset, limit)

	q := r.db.WithContext(ctx).Model(&domain.Placement{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []domain.Placement
	if err := q.Order("is_premium DESC, placement_name ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
