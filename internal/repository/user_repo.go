package repository

import (
	"context"

	"admarket/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

// Upsert inserts the user or refreshes name/role/hash of an existing email.
func (r *UserRepository) Upsert(ctx context.Context, u *domain.User) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "role", "company_name", "password_hash", "updated_at"}),
	}).Create(u).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("email = ?", u.Email).First(u).Error
}
