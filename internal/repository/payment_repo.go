package repository

import (
	"context"

	"admarket/internal/apperror"
	"admarket/internal/domain"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if IsUniqueViolation(err) {
			return apperror.Conflict("invoice number already issued, retry shortly", err)
		}
		return err
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, "payment")
	}
	return &p, nil
}

func (r *PaymentRepository) LockByID(ctx context.Context, id int64) (*domain.Payment, error) {
	var p domain.Payment
	if err := forUpdate(r.db.WithContext(ctx)).First(&p, id).Error; err != nil {
		return nil, notFound(err, "payment")
	}
	return &p, nil
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Payment{}).Where("id = ?", id).Update("status", status).Error
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]domain.Payment, int64, error) {
	offset, limit = clampPage(offset, limit)

	q := r.db.WithContext(ctx).Model(&domain.Payment{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []domain.Payment
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
