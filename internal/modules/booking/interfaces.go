package booking

import (
	"context"
	"time"

	"admarket/internal/events"
)

// EventPublisher receives booking events after the surrounding transaction commits.
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// AdExpirer expires live ads whose display window has ended.
type AdExpirer interface {
	ExpireEnded(ctx context.Context, today time.Time) (int, error)
}
