package testutil

import (
	"context"
	"sync"
	"time"

	"coupon-drop/internal/model"
	ierr "coupon-drop/pkg/errors"
)

// InMemoryCooldownStore implements repository.CooldownRepository
type InMemoryCooldownStore struct {
	mu        sync.Mutex
	cooldowns map[string]*model.Cooldown

	// ReleaseCalls counts Release invocations
	ReleaseCalls int
}

func NewInMemoryCooldownStore() *InMemoryCooldownStore {
	return &InMemoryCooldownStore{cooldowns: make(map[string]*model.Cooldown)}
}

func copyCooldown(c *model.Cooldown) *model.Cooldown {
	if c == nil {
		return nil
	}
	copied := *c
	return &copied
}

func (s *InMemoryCooldownStore) Reserve(_ context.Context, browserID, ip string, now time.Time, window time.Duration) (*model.Cooldown, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.cooldowns[browserID]
	if !ok {
		s.cooldowns[browserID] = &model.Cooldown{BrowserID: browserID, IPAddress: ip, LastClaim: now, ClaimCount: 1}
		return nil, nil
	}
	if existing.LastClaim.After(now.Add(-window)) {
		return nil, ierr.NewError("cooldown active").
			WithHint("Please wait before claiming another coupon").
			Mark(ierr.ErrCooldownActive)
	}

	previous := copyCooldown(existing)
	existing.LastClaim = now
	existing.IPAddress = ip
	existing.ClaimCount++
	return previous, nil
}

func (s *InMemoryCooldownStore) Release(_ context.Context, browserID string, reservedAt time.Time, previous *model.Cooldown) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ReleaseCalls++
	current, ok := s.cooldowns[browserID]
	if !ok || !current.LastClaim.Equal(reservedAt) {
		return nil
	}
	if previous == nil {
		delete(s.cooldowns, browserID)
		return nil
	}
	s.cooldowns[browserID] = copyCooldown(previous)
	return nil
}

func (s *InMemoryCooldownStore) GetCooldown(_ context.Context, browserID string) (*model.Cooldown, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cooldowns[browserID]
	if !ok {
		return nil, ierr.NewError("cooldown not found").
			WithHint("No claims recorded for this browser").
			Mark(ierr.ErrNotFound)
	}
	return copyCooldown(c), nil
}

// Snapshot copies the store state for a later Restore
func (s *InMemoryCooldownStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cooldowns := make(map[string]*model.Cooldown, len(s.cooldowns))
	for k, c := range s.cooldowns {
		cooldowns[k] = copyCooldown(c)
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.cooldowns = cooldowns
	}
}

// Set seeds a cooldown, for tests
func (s *InMemoryCooldownStore) Set(c *model.Cooldown) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldowns[c.BrowserID] = copyCooldown(c)
}
