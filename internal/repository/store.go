package repository

import (
	"context"
	"errors"
	"strings"

	"admarket/internal/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store groups the repositories that share one *gorm.DB handle, which is either the
// connection pool or an open transaction.
type Store struct {
	db         *gorm.DB
	Users      *UserRepository
	Placements *PlacementRepository
	Ads        *AdRepository
	Bookings   *BookingRepository
	Payments   *PaymentRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Users:      NewUserRepository(db),
		Placements: NewPlacementRepository(db),
		Ads:        NewAdRepository(db),
		Bookings:   NewBookingRepository(db),
		Payments:   NewPaymentRepository(db),
	}
}

func (s *Store) DB() *gorm.DB { return s.db }

// InTx runs fn inside one database transaction; fn receives a Store bound to it.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// forUpdate adds SELECT ... FOR UPDATE. SQLite ignores the clause.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(what+" not found", err)
	}
	return err
}

// IsUniqueViolation detects duplicate-key errors from PostgreSQL and SQLite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}

func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}
