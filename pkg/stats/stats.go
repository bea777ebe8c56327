// Package stats counts claim outcomes for the admin dashboard.
//
// Recording is best-effort: callers log failures and carry on.
package stats

import (
	"context"
	"sync"
	"time"
)

type Outcome string

const (
	OutcomeClaimed   Outcome = "claimed"
	OutcomeCooldown  Outcome = "cooldown"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeRejected  Outcome = "rate_limited"
	OutcomeFailed    Outcome = "failed"
)

// Event is one claim attempt
type Event struct {
	Outcome Outcome
	At      time.Time
}

// Store persists claim counters
type Store interface {
	Record(ctx context.Context, ev Event) error
	Totals(ctx context.Context) (map[string]int64, error)
}

// MemoryStore keeps counters in process. It never expires anything.
type MemoryStore struct {
	mu     sync.Mutex
	totals map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{totals: make(map[string]int64)}
}

func (s *MemoryStore) Record(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals[string(ev.Outcome)]++
	return nil
}

func (s *MemoryStore) Totals(_ context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.totals))
	for k, v := range s.totals {
		out[k] = v
	}
	return out, nil
}
