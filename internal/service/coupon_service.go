package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"coupon-drop/internal/model"
	"coupon-drop/internal/repository"
	"coupon-drop/pkg/database"
	ierr "coupon-drop/pkg/errors"
	"coupon-drop/pkg/logger"
	"coupon-drop/pkg/stats"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultCooldown is the time a browser waits between two claims
const DefaultCooldown = 24 * time.Hour

// CouponService hands out coupons to anonymous visitors
type CouponService struct {
	couponRepo   repository.CouponRepository
	claimRepo    repository.ClaimRepository
	cooldownRepo repository.CooldownRepository

	tx       database.Transactor
	stats    stats.Store
	logger   *logger.Logger
	cooldown time.Duration
	now      func() time.Time

	// browser id -> next claim time; only ever holds active cooldowns
	cooldownCache *gocache.Cache
}

type CouponServiceOption func(*CouponService)

// WithTransactor runs each claim through tx
func WithTransactor(tx database.Transactor) CouponServiceOption {
	return func(s *CouponService) { s.tx = tx }
}

func WithStats(st stats.Store) CouponServiceOption {
	return func(s *CouponService) { s.stats = st }
}

func WithLogger(l *logger.Logger) CouponServiceOption {
	return func(s *CouponService) { s.logger = l }
}

func WithCooldown(d time.Duration) CouponServiceOption {
	return func(s *CouponService) { s.cooldown = d }
}

func WithClock(now func() time.Time) CouponServiceOption {
	return func(s *CouponService) { s.now = now }
}

// WithCooldownCache short-circuits repeat claims from browsers known to be cooling down
func WithCooldownCache(enabled bool) CouponServiceOption {
	return func(s *CouponService) {
		if enabled {
			s.cooldownCache = gocache.New(gocache.NoExpiration, 10*time.Minute)
		} else {
			s.cooldownCache = nil
		}
	}
}

// NewCouponService creates a new coupon service
func NewCouponService(
	couponRepo repository.CouponRepository,
	claimRepo repository.ClaimRepository,
	cooldownRepo repository.CooldownRepository,
	opts ...CouponServiceOption,
) *CouponService {
	s := &CouponService{
		couponRepo:   couponRepo,
		claimRepo:    claimRepo,
		cooldownRepo: cooldownRepo,
		tx:           database.Direct{},
		stats:        stats.NewMemoryStore(),
		logger:       logger.NewNop(),
		cooldown:     DefaultCooldown,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cooldown returns the configured window between claims
func (s *CouponService) Cooldown() time.Duration {
	return s.cooldown
}

// ClaimCoupon assigns the oldest available coupon to browserID.
//
// The cooldown window is reserved first so that concurrent requests from one
// browser cannot both reach the inventory; the coupon itself is taken with a
// conditional update so two browsers never receive the same code.
func (s *CouponService) ClaimCoupon(ctx context.Context, browserID, ip string) (resp *model.ClaimCouponResponse, err error) {
	if strings.TrimSpace(browserID) == "" {
		return nil, ierr.NewError("browser id is required").
			WithHint("Browser identifier is required").
			Mark(ierr.ErrValidation)
	}

	// Mongo keeps milliseconds; the reservation is matched by exact time on release
	now := s.now().UTC().Truncate(time.Millisecond)

	defer func() { s.recordOutcome(ctx, browserID, err, now) }()

	if next, ok := s.cachedCooldown(browserID, now); ok {
		return nil, s.cooldownError(ierr.NewError("cooldown active (cached)"), next, now)
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		r, err := s.claim(ctx, browserID, ip, now)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		if ierr.IsCooldownActive(err) {
			return nil, s.describeCooldown(ctx, browserID, now, err)
		}
		return nil, err
	}

	s.cacheCooldown(browserID, resp.NextClaimAt, now)
	s.logger.Infow("coupon claimed",
		"browser_id", browserID,
		"coupon_code", resp.Code,
		"next_claim_at", resp.NextClaimAt,
	)

	return resp, nil
}

func (s *CouponService) claim(ctx context.Context, browserID, ip string, now time.Time) (*model.ClaimCouponResponse, error) {
	previous, err := s.cooldownRepo.Reserve(ctx, browserID, ip, now, s.cooldown)
	if err != nil {
		return nil, err
	}

	coupon, err := s.couponRepo.ClaimNextAvailable(ctx, now)
	if err != nil {
		s.undo(ctx, "release cooldown", func(ctx context.Context) error {
			return s.cooldownRepo.Release(ctx, browserID, now, previous)
		})
		return nil, err
	}

	claim := &model.Claim{
		CouponID:          coupon.ID,
		CouponCode:        coupon.Code,
		CouponDescription: coupon.Description,
		BrowserID:         browserID,
		IPAddress:         ip,
		ClaimedAt:         now,
	}

	if err := s.claimRepo.CreateClaim(ctx, claim); err != nil {
		s.undo(ctx, "release coupon", func(ctx context.Context) error {
			return s.couponRepo.ReleaseCoupon(ctx, coupon.ID, now)
		})
		s.undo(ctx, "release cooldown", func(ctx context.Context) error {
			return s.cooldownRepo.Release(ctx, browserID, now, previous)
		})
		return nil, err
	}

	return &model.ClaimCouponResponse{
		Code:        coupon.Code,
		Description: coupon.Description,
		ClaimedAt:   now,
		NextClaimAt: now.Add(s.cooldown),
	}, nil
}

// undo compensates a partial claim. Inside a transaction the abort does it for us.
func (s *CouponService) undo(ctx context.Context, step string, fn func(ctx context.Context) error) {
	if s.tx.Transactional() {
		return
	}
	if err := fn(context.WithoutCancel(ctx)); err != nil {
		s.logger.Errorw("failed to compensate partial claim", "step", step, "error", err)
	}
}

// CooldownStatus reports whether browserID may claim right now
func (s *CouponService) CooldownStatus(ctx context.Context, browserID string) (*model.CooldownStatusResponse, error) {
	now := s.now().UTC()
	resp := &model.CooldownStatusResponse{BrowserID: browserID}

	cooldown, err := s.cooldownRepo.GetCooldown(ctx, browserID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return resp, nil
		}
		return nil, err
	}

	next := cooldown.NextClaimAt(s.cooldown)
	resp.LastClaim = &cooldown.LastClaim
	resp.NextClaimAt = &next
	if now.Before(next) {
		resp.OnCooldown = true
		resp.RetryAfterSeconds = retryAfterSeconds(next, now)
		s.cacheCooldown(browserID, next, now)
	}

	return resp, nil
}

// describeCooldown enriches a reservation conflict with the time the browser may retry
func (s *CouponService) describeCooldown(ctx context.Context, browserID string, now time.Time, cause error) error {
	next := now.Add(s.cooldown)
	if cooldown, err := s.cooldownRepo.GetCooldown(ctx, browserID); err == nil {
		next = cooldown.NextClaimAt(s.cooldown)
	}
	s.cacheCooldown(browserID, next, now)
	return s.cooldownError(ierr.WithError(cause), next, now)
}

func (s *CouponService) cooldownError(b *ierr.ErrorBuilder, next, now time.Time) error {
	return b.
		WithHintf("Please wait %s between claims", formatWindow(s.cooldown)).
		WithReportableDetails(map[string]any{
			"next_claim_at":       next.Format(time.RFC3339),
			"retry_after_seconds": retryAfterSeconds(next, now),
		}).
		Mark(ierr.ErrCooldownActive)
}

func (s *CouponService) cachedCooldown(browserID string, now time.Time) (time.Time, bool) {
	if s.cooldownCache == nil {
		return time.Time{}, false
	}
	v, ok := s.cooldownCache.Get(browserID)
	if !ok {
		return time.Time{}, false
	}
	next := v.(time.Time)
	if !now.Before(next) {
		s.cooldownCache.Delete(browserID)
		return time.Time{}, false
	}
	return next, true
}

func (s *CouponService) cacheCooldown(browserID string, next, now time.Time) {
	if s.cooldownCache == nil || !now.Before(next) {
		return
	}
	s.cooldownCache.Set(browserID, next, next.Sub(now))
}

func (s *CouponService) recordOutcome(ctx context.Context, browserID string, err error, now time.Time) {
	outcome := stats.OutcomeClaimed
	switch {
	case err == nil:
	case ierr.IsCooldownActive(err):
		outcome = stats.OutcomeCooldown
	case ierr.IsNoCouponsAvailable(err):
		outcome = stats.OutcomeExhausted
	case ierr.IsValidation(err):
		return
	default:
		outcome = stats.OutcomeFailed
		s.logger.Errorw("claim failed", "browser_id", browserID, "error", err)
	}

	if err := s.stats.Record(context.WithoutCancel(ctx), stats.Event{Outcome: outcome, At: now}); err != nil {
		s.logger.Warnw("failed to record claim stats", "outcome", outcome, "error", err)
	}
}

func retryAfterSeconds(next, now time.Time) int64 {
	return int64(math.Ceil(next.Sub(now).Seconds()))
}

// formatWindow renders whole hours the way visitors read them ("24 hours")
func formatWindow(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		hours := int64(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}
