package booking

import (
	"time"

	"admarket/internal/domain"
	"admarket/internal/repository"

	"github.com/shopspring/decimal"
)

// CreateBookingRequest carries no price fields: prices are always computed from the placement.
type CreateBookingRequest struct {
	PlacementID        int64            `json:"placement_id" binding:"required"`
	AdID               int64            `json:"ad_id" binding:"required"`
	StartDate          string           `json:"start_date" binding:"required"`
	EndDate            string           `json:"end_date" binding:"required"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

type CalendarQuery struct {
	PlacementID int64
	StartDate   string
	EndDate     string
}

type BookingResponse struct {
	ID                 int64                `json:"id"`
	AdID               int64                `json:"ad_id"`
	AdTitle            string               `json:"ad_title,omitempty"`
	PlacementID        int64                `json:"placement_id"`
	PlacementName      string               `json:"placement_name,omitempty"`
	UserID             int64                `json:"user_id"`
	StartDate          string               `json:"start_date"`
	EndDate            string               `json:"end_date"`
	TotalDays          int                  `json:"total_days"`
	PricePerDay        string               `json:"price_per_day"`
	TotalPrice         string               `json:"total_price"`
	DiscountPercentage string               `json:"discount_percentage"`
	FinalPrice         string               `json:"final_price"`
	Status             domain.BookingStatus `json:"status"`
	CancellationReason string               `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time           `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
}

func NewBookingResponse(b *domain.Booking) BookingResponse {
	resp := BookingResponse{
		ID:                 b.ID,
		AdID:               b.AdID,
		PlacementID:        b.PlacementID,
		UserID:             b.UserID,
		StartDate:          domain.FormatDate(b.StartDate),
		EndDate:            domain.FormatDate(b.EndDate),
		TotalDays:          b.TotalDays,
		PricePerDay:        money(b.PricePerDay),
		TotalPrice:         money(b.TotalPrice),
		DiscountPercentage: money(b.DiscountPercentage),
		FinalPrice:         money(b.FinalPrice),
		Status:             b.Status,
		CancellationReason: b.CancellationReason,
		CancelledAt:        b.CancelledAt,
		CreatedAt:          b.CreatedAt,
	}
	if b.Ad != nil {
		resp.AdTitle = b.Ad.Title
	}
	if b.Placement != nil {
		resp.PlacementName = b.Placement.PlacementName
	}
	return resp
}

func NewBookingResponses(items []domain.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(items))
	for i := range items {
		out = append(out, NewBookingResponse(&items[i]))
	}
	return out
}

// BookingSummary is how a conflicting booking is shown to the caller.
type BookingSummary struct {
	ID        int64                `json:"id"`
	AdID      int64                `json:"ad_id"`
	StartDate string               `json:"start_date"`
	EndDate   string               `json:"end_date"`
	Status    domain.BookingStatus `json:"status"`
}

func summarize(items []domain.Booking) []BookingSummary {
	out := make([]BookingSummary, 0, len(items))
	for _, b := range items {
		out = append(out, BookingSummary{
			ID:        b.ID,
			AdID:      b.AdID,
			StartDate: domain.FormatDate(b.StartDate),
			EndDate:   domain.FormatDate(b.EndDate),
			Status:    b.Status,
		})
	}
	return out
}

type CalendarEntryResponse struct {
	ID            int64                `json:"id"`
	StartDate     string               `json:"start_date"`
	EndDate       string               `json:"end_date"`
	Status        domain.BookingStatus `json:"status"`
	AdID          int64                `json:"ad_id"`
	AdTitle       string               `json:"ad_title"`
	PlacementID   int64                `json:"placement_id"`
	PlacementName string               `json:"placement_name"`
	UserName      string               `json:"user_name"`
}

func NewCalendarResponse(entries []repository.CalendarEntry) []CalendarEntryResponse {
	out := make([]CalendarEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, CalendarEntryResponse{
			ID:            e.ID,
			StartDate:     domain.FormatDate(e.StartDate),
			EndDate:       domain.FormatDate(e.EndDate),
			Status:        e.Status,
			AdID:          e.AdID,
			AdTitle:       e.AdTitle,
			PlacementID:   e.PlacementID,
			PlacementName: e.PlacementName,
			UserName:      e.UserName,
		})
	}
	return out
}

// Availability is the answer to an availability check on one placement.
type Availability struct {
	IsAvailable         bool             `json:"is_available"`
	ConflictingBookings []BookingSummary `json:"conflicting_bookings"`
}

type Statistics struct {
	TotalBookings int64  `json:"total_bookings"`
	Pending       int64  `json:"pending"`
	Confirmed     int64  `json:"confirmed"`
	Active        int64  `json:"active"`
	Completed     int64  `json:"completed"`
	Cancelled     int64  `json:"cancelled"`
	TotalRevenue  string `json:"total_revenue"`
}

// LifecycleReport counts what one AdvanceLifecycle run changed.
type LifecycleReport struct {
	Activated  int `json:"activated"`
	Completed  int `json:"completed"`
	Reminded   int `json:"reminded"`
	AdsExpired int `json:"ads_expired"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
