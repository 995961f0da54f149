package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	BookingCreated   Type = "booking.created"
	BookingConfirmed Type = "booking.confirmed"
	BookingCancelled Type = "booking.cancelled"
	BookingActivated Type = "booking.activated"
	BookingCompleted Type = "booking.completed"
	BookingReminder  Type = "booking.reminder"

	AdSubmitted Type = "ad.submitted"
	AdApproved  Type = "ad.approved"
	AdRejected  Type = "ad.rejected"
	AdPublished Type = "ad.published"
	AdPaused    Type = "ad.paused"
	AdExpired   Type = "ad.expired"

	PaymentCompleted Type = "payment.completed"
	PaymentRefunded  Type = "payment.refunded"
)

// Family is the part before the dot: booking, ad or payment.
func (t Type) Family() string {
	family, _, _ := strings.Cut(string(t), ".")
	return family
}

// Event is the envelope handed to downstream collaborators (notifications, analytics,
// live calendars). Delivery to end users happens outside this service.
type Event struct {
	ID          uuid.UUID              `json:"id"`
	Type        Type                   `json:"type"`
	AggregateID int64                  `json:"aggregate_id"`
	UserID      int64                  `json:"user_id,omitempty"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

func New(t Type, aggregateID, userID int64, data map[string]interface{}) Event {
	return Event{
		ID:          uuid.New(),
		Type:        t,
		AggregateID: aggregateID,
		UserID:      userID,
		OccurredAt:  time.Now().UTC(),
		Data:        data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Fanout delivers each event to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
