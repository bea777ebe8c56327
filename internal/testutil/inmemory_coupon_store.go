package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"coupon-drop/internal/model"
	ierr "coupon-drop/pkg/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InMemoryCouponStore implements repository.CouponRepository
type InMemoryCouponStore struct {
	mu      sync.Mutex
	coupons map[primitive.ObjectID]*model.Coupon
	codes   map[string]primitive.ObjectID

	// ClaimErr, when set, is returned by ClaimNextAvailable
	ClaimErr error
	// ReleaseCalls counts ReleaseCoupon invocations
	ReleaseCalls int
}

func NewInMemoryCouponStore() *InMemoryCouponStore {
	return &InMemoryCouponStore{
		coupons: make(map[primitive.ObjectID]*model.Coupon),
		codes:   make(map[string]primitive.ObjectID),
	}
}

func copyCoupon(c *model.Coupon) *model.Coupon {
	if c == nil {
		return nil
	}
	copied := *c
	return &copied
}

func (s *InMemoryCouponStore) CreateCoupon(_ context.Context, c *model.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.codes[c.Code]; ok {
		return ierr.NewError("duplicate code").
			WithHintf("Coupon %q already exists", c.Code).
			Mark(ierr.ErrAlreadyExists)
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	s.coupons[c.ID] = copyCoupon(c)
	s.codes[c.Code] = c.ID
	return nil
}

func (s *InMemoryCouponStore) GetCouponByID(_ context.Context, id primitive.ObjectID) (*model.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[id]
	if !ok {
		return nil, ierr.NewError("coupon not found").
			WithHint("Coupon not found").
			Mark(ierr.ErrNotFound)
	}
	return copyCoupon(c), nil
}

// sorted returns coupons ordered by created_at then id, ascending
func (s *InMemoryCouponStore) sorted() []*model.Coupon {
	out := make([]*model.Coupon, 0, len(s.coupons))
	for _, c := range s.coupons {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out
}

func (s *InMemoryCouponStore) ListCoupons(_ context.Context, params model.ListParams) ([]*model.Coupon, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.sorted()
	// newest first
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return page(all, params, copyCoupon), int64(len(all)), nil
}

func (s *InMemoryCouponStore) ClaimNextAvailable(_ context.Context, now time.Time) (*model.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ClaimErr != nil {
		return nil, s.ClaimErr
	}

	for _, c := range s.sorted() {
		if c.IsActive && !c.IsClaimed {
			c.IsClaimed = true
			c.UpdatedAt = now
			return copyCoupon(c), nil
		}
	}
	return nil, ierr.NewError("no coupon left").
		WithHint("No coupons available at the moment").
		Mark(ierr.ErrNoCouponsAvailable)
}

func (s *InMemoryCouponStore) ReleaseCoupon(_ context.Context, id primitive.ObjectID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ReleaseCalls++
	if c, ok := s.coupons[id]; ok && c.IsClaimed {
		c.IsClaimed = false
		c.UpdatedAt = now
	}
	return nil
}

func (s *InMemoryCouponStore) SetActive(_ context.Context, id primitive.ObjectID, active bool, now time.Time) (*model.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[id]
	if !ok {
		return nil, ierr.NewError("coupon not found").
			WithHint("Coupon not found").
			Mark(ierr.ErrNotFound)
	}
	if c.IsClaimed {
		return nil, ierr.NewError("coupon already claimed").
			WithHint("Claimed coupons cannot be toggled").
			Mark(ierr.ErrInvalidOperation)
	}
	c.IsActive = active
	c.UpdatedAt = now
	return copyCoupon(c), nil
}

func (s *InMemoryCouponStore) CountCoupons(_ context.Context) (*model.CouponCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := &model.CouponCounts{Total: int64(len(s.coupons))}
	for _, c := range s.coupons {
		if c.IsActive {
			counts.Active++
		}
		if c.IsClaimed {
			counts.Claimed++
		}
		if c.IsActive && !c.IsClaimed {
			counts.Available++
		}
	}
	return counts, nil
}

// Get returns a coupon by code, for assertions
func (s *InMemoryCouponStore) Get(code string) *model.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCoupon(s.coupons[s.codes[code]])
}

// Snapshot copies the store state for a later Restore
func (s *InMemoryCouponStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	coupons := make(map[primitive.ObjectID]*model.Coupon, len(s.coupons))
	for id, c := range s.coupons {
		coupons[id] = copyCoupon(c)
	}
	codes := make(map[string]primitive.ObjectID, len(s.codes))
	for code, id := range s.codes {
		codes[code] = id
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.coupons, s.codes = coupons, codes
	}
}

func page[T any](items []T, params model.ListParams, copyFn func(T) T) []T {
	out := make([]T, 0, params.Limit)
	for i := params.Offset; i < len(items) && len(out) < params.Limit; i++ {
		out = append(out, copyFn(items[i]))
	}
	return out
}
