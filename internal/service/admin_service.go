package service

import (
	"context"
	"strings"
	"time"

	"coupon-drop/internal/model"
	"coupon-drop/internal/repository"
	ierr "coupon-drop/pkg/errors"
	"coupon-drop/pkg/logger"
	"coupon-drop/pkg/stats"
	"coupon-drop/pkg/validator"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dashboardRecentClaims = 10

// AdminService manages the coupon inventory and exposes claim history
type AdminService struct {
	couponRepo repository.CouponRepository
	claimRepo  repository.ClaimRepository
	stats      stats.Store
	logger     *logger.Logger
	now        func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(
	couponRepo repository.CouponRepository,
	claimRepo repository.ClaimRepository,
	st stats.Store,
	log *logger.Logger,
) *AdminService {
	if st == nil {
		st = stats.NewMemoryStore()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &AdminService{
		couponRepo: couponRepo,
		claimRepo:  claimRepo,
		stats:      st,
		logger:     log,
		now:        time.Now,
	}
}

// CreateCoupon adds an active, unclaimed coupon to the inventory
func (s *AdminService) CreateCoupon(ctx context.Context, req *model.CreateCouponRequest) (*model.CouponResponse, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Description = strings.TrimSpace(req.Description)
	if err := validator.ValidateRequest(req); err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	coupon := &model.Coupon{
		Code:        req.Code,
		Description: req.Description,
		IsActive:    true,
		IsClaimed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.couponRepo.CreateCoupon(ctx, coupon); err != nil {
		return nil, err
	}

	s.logger.Infow("coupon created", "coupon_id", coupon.ID.Hex(), "code", coupon.Code)
	return model.NewCouponResponse(coupon), nil
}

// ListCoupons returns the inventory, newest first
func (s *AdminService) ListCoupons(ctx context.Context, params model.ListParams) (*model.ListCouponsResponse, error) {
	if err := validator.ValidateRequest(params); err != nil {
		return nil, err
	}
	params = params.Normalize()

	coupons, total, err := s.couponRepo.ListCoupons(ctx, params)
	if err != nil {
		return nil, err
	}

	return &model.ListCouponsResponse{
		Items:  lo.Map(coupons, func(c *model.Coupon, _ int) *model.CouponResponse { return model.NewCouponResponse(c) }),
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}, nil
}

// ToggleCoupon activates or deactivates an unclaimed coupon.
// A nil IsActive flips the current state.
func (s *AdminService) ToggleCoupon(ctx context.Context, id string, req *model.ToggleCouponRequest) (*model.CouponResponse, error) {
	couponID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var active bool
	if req != nil && req.IsActive != nil {
		active = *req.IsActive
	} else {
		current, err := s.couponRepo.GetCouponByID(ctx, couponID)
		if err != nil {
			return nil, err
		}
		active = !current.IsActive
	}

	coupon, err := s.couponRepo.SetActive(ctx, couponID, active, s.now().UTC().Truncate(time.Millisecond))
	if err != nil {
		return nil, err
	}

	s.logger.Infow("coupon status changed", "coupon_id", id, "is_active", coupon.IsActive)
	return model.NewCouponResponse(coupon), nil
}

// ListClaims returns the claim history, newest first
func (s *AdminService) ListClaims(ctx context.Context, params model.ListParams) (*model.ListClaimsResponse, error) {
	if err := validator.ValidateRequest(params); err != nil {
		return nil, err
	}
	params = params.Normalize()

	claims, total, err := s.claimRepo.ListClaims(ctx, params)
	if err != nil {
		return nil, err
	}

	return &model.ListClaimsResponse{
		Items:  claims,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}, nil
}

// Dashboard gathers inventory counts, recent claims and claim stats concurrently
func (s *AdminService) Dashboard(ctx context.Context) (*model.DashboardResponse, error) {
	resp := &model.DashboardResponse{}

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		counts, err := s.couponRepo.CountCoupons(ctx)
		if err != nil {
			return err
		}
		resp.Coupons = *counts
		return nil
	})
	p.Go(func(ctx context.Context) error {
		claims, err := s.claimRepo.RecentClaims(ctx, dashboardRecentClaims)
		if err != nil {
			return err
		}
		resp.RecentClaims = claims
		return nil
	})
	p.Go(func(ctx context.Context) error {
		totals, err := s.stats.Totals(ctx)
		if err != nil {
			// stats are advisory; the dashboard still renders without them
			s.logger.Warnw("failed to load claim stats", "error", err)
			return nil
		}
		resp.ClaimStats = totals
		return nil
	})

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return resp, nil
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ierr.WithError(err).
			WithHint("Invalid coupon id").
			WithReportableDetails(map[string]any{"coupon_id": id}).
			Mark(ierr.ErrValidation)
	}
	return oid, nil
}
