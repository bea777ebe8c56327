package testutil

import (
	"context"
	"sort"
	"sync"

	"coupon-drop/internal/model"
	ierr "coupon-drop/pkg/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InMemoryClaimStore implements repository.ClaimRepository
type InMemoryClaimStore struct {
	mu     sync.Mutex
	claims []*model.Claim

	// CreateErr, when set, is returned by CreateClaim
	CreateErr error
	// ListCalls counts ListClaims invocations, which count the whole history
	ListCalls int
}

func NewInMemoryClaimStore() *InMemoryClaimStore {
	return &InMemoryClaimStore{}
}

func copyClaim(c *model.Claim) *model.Claim {
	copied := *c
	return &copied
}

func (s *InMemoryClaimStore) CreateClaim(_ context.Context, claim *model.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateErr != nil {
		return s.CreateErr
	}
	for _, c := range s.claims {
		if c.CouponID == claim.CouponID {
			return ierr.NewError("duplicate claim").
				WithHint("Coupon has already been claimed").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	if claim.ID.IsZero() {
		claim.ID = primitive.NewObjectID()
	}
	s.claims = append(s.claims, copyClaim(claim))
	return nil
}

func (s *InMemoryClaimStore) ListClaims(_ context.Context, params model.ListParams) ([]*model.Claim, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ListCalls++
	all := s.newestFirst()
	return page(all, params, copyClaim), int64(len(all)), nil
}

func (s *InMemoryClaimStore) RecentClaims(_ context.Context, limit int) ([]*model.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return page(s.newestFirst(), model.ListParams{Limit: limit}, copyClaim), nil
}

func (s *InMemoryClaimStore) newestFirst() []*model.Claim {
	all := make([]*model.Claim, len(s.claims))
	copy(all, s.claims)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].ClaimedAt.After(all[j].ClaimedAt)
	})
	return all
}

// Snapshot copies the store state for a later Restore
func (s *InMemoryClaimStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	claims := make([]*model.Claim, len(s.claims))
	copy(claims, s.claims)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.claims = claims
	}
}

// All returns every claim in insertion order, for assertions
func (s *InMemoryClaimStore) All() []*model.Claim {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Claim, 0, len(s.claims))
	for _, c := range s.claims {
		out = append(out, copyClaim(c))
	}
	return out
}
