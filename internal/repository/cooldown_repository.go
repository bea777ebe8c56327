package repository

import (
	"context"
	"time"

	"coupon-drop/internal/model"
)

// CooldownRepository tracks the last claim of every browser
type CooldownRepository interface {
	// Reserve records now as the browser's last claim if its previous claim is at
	// least window old. It returns the cooldown as it was before the reservation,
	// nil for a first claim, or ErrCooldownActive.
	Reserve(ctx context.Context, browserID, ip string, now time.Time, window time.Duration) (*model.Cooldown, error)

	// Release undoes a reservation made at reservedAt, restoring previous
	Release(ctx context.Context, browserID string, reservedAt time.Time, previous *model.Cooldown) error

	// GetCooldown returns the browser's cooldown or ErrNotFound
	GetCooldown(ctx context.Context, browserID string) (*model.Cooldown, error)
}
