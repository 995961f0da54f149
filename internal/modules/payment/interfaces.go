package payment

import (
	"context"

	"admarket/internal/domain"
	"admarket/internal/events"
	"admarket/internal/repository"
)

// BookingLifecycle is the part of the booking engine a payment drives. The Tx methods run
// inside the payment's transaction.
type BookingLifecycle interface {
	ConfirmTx(ctx context.Context, tx *repository.Store, id int64) (*domain.Booking, error)
	CancelTx(ctx context.Context, tx *repository.Store, id int64, reason string) (*domain.Booking, bool, error)
	Announce(ctx context.Context, t events.Type, b *domain.Booking)
}

type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}
