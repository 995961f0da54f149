package repository

import (
	"context"
	"time"

	"admarket/internal/domain"

	"gorm.io/gorm"
)

type AdRepository struct {
	db *gorm.DB
}

func NewAdRepository(db *gorm.DB) *AdRepository {
	return &AdRepository{db: db}
}

func (r *AdRepository) Create(ctx context.Context, ad *domain.Ad) error {
	return r.db.WithContext(ctx).Create(ad).Error
}

func (r *AdRepository) Save(ctx context.Context, ad *domain.Ad) error {
	return r.db.WithContext(ctx).Save(ad).Error
}

func (r *AdRepository) GetByID(ctx context.Context, id int64) (*domain.Ad, error) {
	var ad domain.Ad
	if err := r.db.WithContext(ctx).First(&ad, id).Error; err != nil {
		return nil, notFound(err, "ad")
	}
	return &ad, nil
}

func (r *AdRepository) LockByID(ctx context.Context, id int64) (*domain.Ad, error) {
	var ad domain.Ad
	if err := forUpdate(r.db.WithContext(ctx)).First(&ad, id).Error; err != nil {
		return nil, notFound(err, "ad")
	}
	return &ad, nil
}

type AdFilter struct {
	AdvertiserID int64
	Status       domain.AdStatus
	Offset       int
	Limit        int
}

func (r *AdRepository) List(ctx context.Context, f AdFilter) ([]domain.Ad, int64, error) {
	offset, limit := clampPage(f.Offset, f.Limit)

	q := r.db.WithContext(ctx).Model(&domain.Ad{})
	if f.AdvertiserID != 0 {
		q = q.Where("advertiser_id = ?", f.AdvertiserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ads []domain.Ad
	err := q.Order("is_featured DESC, priority_order DESC, created_at DESC").
		Offset(offset).Limit(limit).Find(&ads).Error
	if err != nil {
		return nil, 0, err
	}
	return ads, total, nil
}

// IncrementCounter atomically bumps total_impressions or total_clicks of a live ad.
// It returns false when no live ad with that id exists.
func (r *AdRepository) IncrementCounter(ctx context.Context, id int64, column string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Ad{}).
		Where("id = ? AND status = ?", id, domain.AdLive).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListLiveEndedBefore returns live ads whose display end date is before day.
func (r *AdRepository) ListLiveEndedBefore(ctx context.Context, day time.Time) ([]domain.Ad, error) {
	var ads []domain.Ad
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", domain.AdLive, day).
		Find(&ads).Error
	return ads, err
}
