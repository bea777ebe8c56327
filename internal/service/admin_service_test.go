package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"coupon-drop/internal/model"
	"coupon-drop/internal/testutil"
	ierr "coupon-drop/pkg/errors"
	"coupon-drop/pkg/stats"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AdminServiceSuite struct {
	suite.Suite

	ctx     context.Context
	now     time.Time
	coupons *testutil.InMemoryCouponStore
	claims  *testutil.InMemoryClaimStore
	stats   *stats.MemoryStore
	service *AdminService
}

func TestAdminService(t *testing.T) {
	suite.Run(t, new(AdminServiceSuite))
}

func (s *AdminServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.coupons = testutil.NewInMemoryCouponStore()
	s.claims = testutil.NewInMemoryClaimStore()
	s.stats = stats.NewMemoryStore()
	s.service = NewAdminService(s.coupons, s.claims, s.stats, nil)
	s.service.now = func() time.Time { return s.now }
}

func (s *AdminServiceSuite) create(code string) *model.CouponResponse {
	resp, err := s.service.CreateCoupon(s.ctx, &model.CreateCouponRequest{Code: code})
	s.Require().NoError(err)
	s.now = s.now.Add(time.Minute)
	return resp
}

func (s *AdminServiceSuite) TestCreateCoupon() {
	resp, err := s.service.CreateCoupon(s.ctx, &model.CreateCouponRequest{
		Code:        "  SPRING25 ",
		Description: " 25% off ",
	})
	s.Require().NoError(err)
	s.False(resp.ID.IsZero())
	s.Equal("SPRING25", resp.Code)
	s.Equal("25% off", resp.Description)
	s.True(resp.IsActive)
	s.False(resp.IsClaimed)
	s.Equal("active", resp.Status)
	s.Equal(s.now, resp.CreatedAt)
}

func (s *AdminServiceSuite) TestCreateCoupon_Duplicate() {
	s.create("SPRING25")

	_, err := s.service.CreateCoupon(s.ctx, &model.CreateCouponRequest{Code: "SPRING25"})
	s.Require().Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *AdminServiceSuite) TestCreateCoupon_Validation() {
	tests := []struct {
		name string
		req  model.CreateCouponRequest
	}{
		{"blank code", model.CreateCouponRequest{Code: "   "}},
		{"code too long", model.CreateCouponRequest{Code: string(make([]byte, 65))}},
		{"description too long", model.CreateCouponRequest{Code: "OK", Description: fmt.Sprintf("%0513d", 0)}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := tt.req
			_, err := s.service.CreateCoupon(s.ctx, &req)
			s.Require().Error(err)
			s.True(ierr.IsValidation(err))
		})
	}
}

func (s *AdminServiceSuite) TestListCoupons_NewestFirstWithPaging() {
	for i := 0; i < 5; i++ {
		s.create(fmt.Sprintf("C%d", i))
	}

	resp, err := s.service.ListCoupons(s.ctx, model.ListParams{Limit: 2, Offset: 1})
	s.Require().NoError(err)
	s.Equal(int64(5), resp.Total)
	s.Equal(2, resp.Limit)
	s.Equal(1, resp.Offset)
	s.Equal([]string{"C3", "C2"}, lo.Map(resp.Items, func(c *model.CouponResponse, _ int) string { return c.Code }))
}

func (s *AdminServiceSuite) TestListCoupons_DefaultLimit() {
	s.create("ONLY")

	resp, err := s.service.ListCoupons(s.ctx, model.ListParams{})
	s.Require().NoError(err)
	s.Equal(model.DefaultListLimit, resp.Limit)
	s.Len(resp.Items, 1)
}

func (s *AdminServiceSuite) TestListCoupons_InvalidParams() {
	_, err := s.service.ListCoupons(s.ctx, model.ListParams{Limit: 500})
	s.True(ierr.IsValidation(err))

	_, err = s.service.ListCoupons(s.ctx, model.ListParams{Offset: -1})
	s.True(ierr.IsValidation(err))
}

func (s *AdminServiceSuite) TestListCoupons_Status() {
	claimed := s.create("CLAIMED")
	inactive := s.create("INACTIVE")
	s.create("ACTIVE")

	_, err := s.coupons.ClaimNextAvailable(s.ctx, s.now)
	s.Require().NoError(err)
	_, err = s.service.ToggleCoupon(s.ctx, inactive.ID.Hex(), nil)
	s.Require().NoError(err)

	resp, err := s.service.ListCoupons(s.ctx, model.ListParams{})
	s.Require().NoError(err)
	statuses := lo.SliceToMap(resp.Items, func(c *model.CouponResponse) (string, string) { return c.Code, c.Status })
	s.Equal(map[string]string{
		claimed.Code:  "claimed",
		inactive.Code: "inactive",
		"ACTIVE":      "active",
	}, statuses)
}

func (s *AdminServiceSuite) TestToggleCoupon_Flip() {
	c := s.create("FLIP")

	resp, err := s.service.ToggleCoupon(s.ctx, c.ID.Hex(), &model.ToggleCouponRequest{})
	s.Require().NoError(err)
	s.False(resp.IsActive)
	s.Equal("inactive", resp.Status)

	resp, err = s.service.ToggleCoupon(s.ctx, c.ID.Hex(), nil)
	s.Require().NoError(err)
	s.True(resp.IsActive)
}

func (s *AdminServiceSuite) TestToggleCoupon_Explicit() {
	c := s.create("SET")

	resp, err := s.service.ToggleCoupon(s.ctx, c.ID.Hex(), &model.ToggleCouponRequest{IsActive: lo.ToPtr(true)})
	s.Require().NoError(err)
	s.True(resp.IsActive, "setting the current value is a no-op, not a flip")

	resp, err = s.service.ToggleCoupon(s.ctx, c.ID.Hex(), &model.ToggleCouponRequest{IsActive: lo.ToPtr(false)})
	s.Require().NoError(err)
	s.False(resp.IsActive)
}

func (s *AdminServiceSuite) TestToggleCoupon_ClaimedIsRejected() {
	c := s.create("TAKEN")
	_, err := s.coupons.ClaimNextAvailable(s.ctx, s.now)
	s.Require().NoError(err)

	_, err = s.service.ToggleCoupon(s.ctx, c.ID.Hex(), nil)
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.True(s.coupons.Get("TAKEN").IsActive)
}

func (s *AdminServiceSuite) TestToggleCoupon_NotFound() {
	_, err := s.service.ToggleCoupon(s.ctx, primitive.NewObjectID().Hex(), nil)
	s.True(ierr.IsNotFound(err))

	_, err = s.service.ToggleCoupon(s.ctx, primitive.NewObjectID().Hex(), &model.ToggleCouponRequest{IsActive: lo.ToPtr(false)})
	s.True(ierr.IsNotFound(err))
}

func (s *AdminServiceSuite) TestToggleCoupon_BadID() {
	_, err := s.service.ToggleCoupon(s.ctx, "not-an-id", nil)
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
	s.Equal("Invalid coupon id", ierr.DisplayMessage(err))
}

func (s *AdminServiceSuite) TestListClaims_NewestFirst() {
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.claims.CreateClaim(s.ctx, &model.Claim{
			CouponID:   primitive.NewObjectID(),
			CouponCode: fmt.Sprintf("C%d", i),
			BrowserID:  browserA,
			ClaimedAt:  s.now.Add(time.Duration(i) * time.Hour),
		}))
	}

	resp, err := s.service.ListClaims(s.ctx, model.ListParams{Limit: 2})
	s.Require().NoError(err)
	s.Equal(int64(3), resp.Total)
	s.Equal([]string{"C2", "C1"}, lo.Map(resp.Items, func(c *model.Claim, _ int) string { return c.CouponCode }))
}

func (s *AdminServiceSuite) TestDashboard() {
	s.create("A")
	s.create("B")
	off := s.create("C")
	_, err := s.service.ToggleCoupon(s.ctx, off.ID.Hex(), nil)
	s.Require().NoError(err)

	claimed, err := s.coupons.ClaimNextAvailable(s.ctx, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.claims.CreateClaim(s.ctx, &model.Claim{
		CouponID:   claimed.ID,
		CouponCode: claimed.Code,
		BrowserID:  browserA,
		ClaimedAt:  s.now,
	}))
	s.Require().NoError(s.stats.Record(s.ctx, stats.Event{Outcome: stats.OutcomeClaimed, At: s.now}))
	s.Require().NoError(s.stats.Record(s.ctx, stats.Event{Outcome: stats.OutcomeCooldown, At: s.now}))

	resp, err := s.service.Dashboard(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.CouponCounts{Total: 3, Active: 2, Claimed: 1, Available: 1}, resp.Coupons)
	s.Require().Len(resp.RecentClaims, 1)
	s.Equal("A", resp.RecentClaims[0].CouponCode)
	s.Equal(int64(1), resp.ClaimStats[string(stats.OutcomeClaimed)])
	s.Equal(int64(1), resp.ClaimStats[string(stats.OutcomeCooldown)])
	s.Zero(s.claims.ListCalls, "the dashboard must not count the claim history")
}

func (s *AdminServiceSuite) TestDashboard_RecentClaimsAreCapped() {
	for i := 0; i < dashboardRecentClaims+5; i++ {
		s.Require().NoError(s.claims.CreateClaim(s.ctx, &model.Claim{
			CouponID:   primitive.NewObjectID(),
			CouponCode: fmt.Sprintf("C%02d", i),
			ClaimedAt:  s.now.Add(time.Duration(i) * time.Minute),
		}))
	}

	resp, err := s.service.Dashboard(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(resp.RecentClaims, dashboardRecentClaims)
	s.Equal(fmt.Sprintf("C%02d", dashboardRecentClaims+4), resp.RecentClaims[0].CouponCode)
	s.Zero(s.claims.ListCalls)
}

type failingStats struct{}

func (failingStats) Record(context.Context, stats.Event) error { return errors.New("stats down") }
func (failingStats) Totals(context.Context) (map[string]int64, error) {
	return nil, errors.New("stats down")
}

func (s *AdminServiceSuite) TestDashboard_StatsFailureIsNotFatal() {
	s.service.stats = failingStats{}
	s.create("A")

	resp, err := s.service.Dashboard(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), resp.Coupons.Total)
	s.Nil(resp.ClaimStats)
}
