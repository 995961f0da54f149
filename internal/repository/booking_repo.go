package repository

import (
	"context"
	"time"

	"admarket/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// overlapping keeps bookings whose closed range [start_date, end_date] intersects [start, end]:
// existing.start_date <= end AND existing.end_date >= start.
func overlapping(start, end time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("ad_bookings.start_date <= ? AND ad_bookings.end_date >= ?", domain.DateOf(end), domain.DateOf(start))
	}
}

// blocking keeps bookings that hold their placement (confirmed or active).
func blocking(db *gorm.DB) *gorm.DB {
	return db.Where("ad_bookings.status IN ?", domain.BlockingStatuses)
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).Preload("Ad").Preload("Placement").First(&b, id).Error; err != nil {
		return nil, notFound(err, "booking")
	}
	return &b, nil
}

func (r *BookingRepository) LockByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := forUpdate(r.db.WithContext(ctx)).First(&b, id).Error; err != nil {
		return nil, notFound(err, "booking")
	}
	return &b, nil
}

// UpdateFields applies a partial update to one booking.
func (r *BookingRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&domain.Booking{}).Where("id = ?", id).Updates(fields).Error
}

// FindConflicts returns confirmed/active bookings of the placement whose range overlaps
// [start, end]. excludeID skips one booking (the one being confirmed); pass 0 to keep all.
// Booking creation, confirmation and availability checks all go through this query;
// writers hold the placement row lock while calling it.
func (r *BookingRepository) FindConflicts(ctx context.Context, placementID int64, start, end time.Time, excludeID int64) ([]domain.Booking, error) {
	q := r.db.WithContext(ctx).
		Scopes(blocking, overlapping(start, end)).
		Where("ad_bookings.placement_id = ?", placementID)
	if excludeID != 0 {
		q = q.Where("ad_bookings.id <> ?", excludeID)
	}

	var out []domain.Booking
	if err := q.Order("ad_bookings.start_date ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type CalendarFilter struct {
	PlacementID int64
	Start       *time.Time
	End         *time.Time
}

// CalendarEntry is the lightweight projection rendered on placement calendars.
type CalendarEntry struct {
	ID            int64                `json:"id"`
	StartDate     time.Time            `json:"start_date"`
	EndDate       time.Time            `json:"end_date"`
	Status        domain.BookingStatus `json:"status"`
	AdID          int64                `json:"ad_id"`
	AdTitle       string               `json:"ad_title"`
	PlacementID   int64                `json:"placement_id"`
	PlacementName string               `json:"placement_name"`
	UserName      string               `json:"user_name"`
}

func (r *BookingRepository) Calendar(ctx context.Context, f CalendarFilter) ([]CalendarEntry, error) {
	q := r.db.WithContext(ctx).Table("ad_bookings").
		Select(`ad_bookings.id, ad_bookings.start_date, ad_bookings.end_date, ad_bookings.status,
			ad_bookings.ad_id, ads.title AS ad_title, ad_bookings.placement_id,
			ad_placements.placement_name, users.name AS user_name`).
		Joins("JOIN ads ON ads.id = ad_bookings.ad_id").
		Joins("JOIN ad_placements ON ad_placements.id = ad_bookings.placement_id").
		Joins("LEFT JOIN users ON users.id = ad_bookings.user_id").
		Scopes(blocking)

	if f.PlacementID != 0 {
		q = q.Where("ad_bookings.placement_id = ?", f.PlacementID)
	}
	switch {
	case f.Start != nil && f.End != nil:
		q = q.Scopes(overlapping(*f.Start, *f.End))
	case f.Start != nil:
		q = q.Where("ad_bookings.end_date >= ?", domain.DateOf(*f.Start))
	case f.End != nil:
		q = q.Where("ad_bookings.start_date <= ?", domain.DateOf(*f.End))
	}

	var out []CalendarEntry
	if err := q.Order("ad_bookings.start_date ASC, ad_bookings.id ASC").Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type BookingFilter struct {
	UserID int64
	Status domain.BookingStatus
	Offset int
	Limit  int
}

func (r *BookingRepository) List(ctx context.Context, f BookingFilter) ([]domain.Booking, int64, error) {
	offset, limit := clampPage(f.Offset, f.Limit)

	q := r.db.WithContext(ctx).Model(&domain.Booking{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []domain.Booking
	err := q.Preload("Ad").Preload("Placement").
		Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

type UserBookingStats struct {
	ByStatus     map[domain.BookingStatus]int64
	TotalRevenue decimal.Decimal
}

func (r *BookingRepository) StatsForUser(ctx context.Context, userID int64) (*UserBookingStats, error) {
	var rows []struct {
		Status domain.BookingStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&domain.Booking{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &UserBookingStats{ByStatus: make(map[domain.BookingStatus]int64), TotalRevenue: decimal.Zero}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
	}

	var prices []decimal.Decimal
	err = r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("user_id = ? AND status IN ?", userID, []domain.BookingStatus{domain.BookingCompleted, domain.BookingActive}).
		Pluck("final_price", &prices).Error
	if err != nil {
		return nil, err
	}
	for _, p := range prices {
		stats.TotalRevenue = stats.TotalRevenue.Add(p)
	}
	return stats, nil
}

// DueForActivation lists confirmed bookings whose start date has arrived.
func (r *BookingRepository) DueForActivation(ctx context.Context, today time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_date <= ?", domain.BookingConfirmed, domain.DateOf(today)).
		Order("id ASC").Find(&out).Error
	return out, err
}

// DueForCompletion lists active bookings whose end date has passed.
func (r *BookingRepository) DueForCompletion(ctx context.Context, today time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", domain.BookingActive, domain.DateOf(today)).
		Order("id ASC").Find(&out).Error
	return out, err
}

// DueForReminder lists confirmed bookings starting on or before the given day that have
// not been reminded yet.
func (r *BookingRepository) DueForReminder(ctx context.Context, day time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND reminder_sent = ? AND start_date <= ?", domain.BookingConfirmed, false, domain.DateOf(day)).
		Order("id ASC").Find(&out).Error
	return out, err
}
