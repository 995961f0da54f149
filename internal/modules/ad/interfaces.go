package ad

import (
	"context"

	"admarket/internal/events"
)

type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}
