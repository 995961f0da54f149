package domain

import (
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// BlockingStatuses are the statuses that hold a placement; two bookings in these statuses
// may never overlap on the same placement.
var BlockingStatuses = []BookingStatus{BookingConfirmed, BookingActive}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingActive, BookingCancelled},
	BookingActive:    {BookingCompleted},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsCancellable() bool {
	return s.CanTransitionTo(BookingCancelled)
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingActive, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

type Booking struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	AdID        int64     `json:"ad_id" gorm:"not null;index"`
	PlacementID int64     `json:"placement_id" gorm:"not null;index:idx_bookings_placement_dates,priority:1"`
	UserID      int64     `json:"user_id" gorm:"not null;index"`
	StartDate   time.Time `json:"start_date" gorm:"type:date;not null;index:idx_bookings_placement_dates,priority:2"`
	EndDate     time.Time `json:"end_date" gorm:"type:date;not null;index:idx_bookings_placement_dates,priority:3"`

	Pricing `gorm:"embedded"`

	Status             BookingStatus `json:"status" gorm:"type:varchar(20);not null;default:pending;index"`
	CancellationReason string        `json:"cancellation_reason,omitempty" gorm:"type:text"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty"`

	ReminderSent          bool `json:"reminder_sent" gorm:"not null;default:false"`
	StartNotificationSent bool `json:"start_notification_sent" gorm:"not null;default:false"`
	EndNotificationSent   bool `json:"end_notification_sent" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Ad        *Ad        `json:"ad,omitempty" gorm:"foreignKey:AdID;constraint:OnDelete:CASCADE"`
	Placement *Placement `json:"placement,omitempty" gorm:"foreignKey:PlacementID;constraint:OnDelete:CASCADE"`
	User      *User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Booking) TableName() string { return "ad_bookings" }

// NewBooking builds a pending booking whose price fields come from QuotePrice.
func NewBooking(adID, placementID, userID int64, start, end time.Time, pricing Pricing) *Booking {
	return &Booking{
		AdID:        adID,
		PlacementID: placementID,
		UserID:      userID,
		StartDate:   DateOf(start),
		EndDate:     DateOf(end),
		Pricing:     pricing,
		Status:      BookingPending,
	}
}
