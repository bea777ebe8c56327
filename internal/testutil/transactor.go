package testutil

import (
	"context"
	"sync"
)

// Snapshotter is a store whose state can be rolled back
type Snapshotter interface {
	// Snapshot returns a function restoring the state at the time of the call
	Snapshot() func()
}

// RollbackTransactor implements database.Transactor over in-memory stores.
// Units of work run one at a time and a failed unit restores every store.
type RollbackTransactor struct {
	mu     sync.Mutex
	stores []Snapshotter

	Commits   int
	Rollbacks int
}

func NewRollbackTransactor(stores ...Snapshotter) *RollbackTransactor {
	return &RollbackTransactor{stores: stores}
}

func (t *RollbackTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	restores := make([]func(), 0, len(t.stores))
	for _, s := range t.stores {
		restores = append(restores, s.Snapshot())
	}

	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		t.Rollbacks++
		return err
	}
	t.Commits++
	return nil
}

func (t *RollbackTransactor) Transactional() bool { return true }
