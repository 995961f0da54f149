package booking

import (
	"fmt"

	"admarket/internal/apperror"
	"admarket/internal/domain"
)

const conflictMessage = "placement is already booked for the selected dates"

// ConflictError reports that the requested range overlaps confirmed or active bookings.
type ConflictError struct {
	PlacementID int64
	Bookings    []domain.Booking
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s (%d conflicting booking(s))", conflictMessage, len(e.Bookings))
}

func (e *ConflictError) Unwrap() error {
	return &apperror.Error{
		Kind:   apperror.KindConflict,
		Msg:    conflictMessage,
		Fields: map[string]string{"dates": conflictMessage},
	}
}

func (e *ConflictError) Code() string { return "BOOKING_CONFLICT" }

func (e *ConflictError) Details() map[string]any {
	return map[string]any{
		"dates":                conflictMessage,
		"conflicting_bookings": summarize(e.Bookings),
	}
}
