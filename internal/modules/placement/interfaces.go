package placement

import (
	"context"
	"time"

	"admarket/internal/modules/booking"
)

// Cache is the subset of the Redis client the catalog uses.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, placementID int64, start, end string) (*booking.Availability, error)
}
