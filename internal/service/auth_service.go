package service

import (
	"context"
	"strings"

	"coupon-drop/internal/auth"
	"coupon-drop/internal/model"
	ierr "coupon-drop/pkg/errors"
	"coupon-drop/pkg/logger"
	"coupon-drop/pkg/validator"

	"github.com/samber/lo"
)

// AuthService wraps the auth provider with the administrator allowlist
type AuthService struct {
	provider    auth.Provider
	adminEmails map[string]struct{}
	logger      *logger.Logger
}

// NewAuthService creates an auth service. An empty allowlist admits every
// user the provider authenticates.
func NewAuthService(provider auth.Provider, adminEmails []string, log *logger.Logger) *AuthService {
	if log == nil {
		log = logger.NewNop()
	}
	emails := lo.FilterMap(adminEmails, func(e string, _ int) (string, bool) {
		e = strings.ToLower(strings.TrimSpace(e))
		return e, e != ""
	})
	return &AuthService{
		provider:    provider,
		adminEmails: lo.SliceToMap(emails, func(e string) (string, struct{}) { return e, struct{}{} }),
		logger:      log,
	}
}

// Login signs an administrator in through the provider
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, err
	}

	session, err := s.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		s.logger.Infow("admin login failed", "email", req.Email)
		return nil, err
	}

	if err := s.authorize(session.User); err != nil {
		if signOutErr := s.provider.SignOut(ctx, session.AccessToken); signOutErr != nil {
			s.logger.Warnw("failed to revoke session of non-admin user", "error", signOutErr)
		}
		return nil, err
	}

	s.logger.Infow("admin logged in", "user_id", session.User.ID)
	return &model.LoginResponse{
		AccessToken: session.AccessToken,
		ExpiresIn:   session.ExpiresIn,
		User:        session.User,
	}, nil
}

// Logout revokes the session at the provider. A token the provider no longer
// knows is already logged out, so provider failures are only logged.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.provider.SignOut(ctx, token); err != nil {
		s.logger.Warnw("failed to revoke admin session", "error", err)
	}
}

// Authenticate resolves a token to an authorized administrator
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.AdminUser, error) {
	if token == "" {
		return nil, ierr.NewError("missing token").
			WithHint("Authentication required").
			Mark(ierr.ErrUnauthorized)
	}

	user, err := s.provider.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Session backs the route guard: it never fails, it only reports
func (s *AuthService) Session(ctx context.Context, token string) *model.SessionResponse {
	user, err := s.Authenticate(ctx, token)
	if err != nil {
		return &model.SessionResponse{Authenticated: false}
	}
	return &model.SessionResponse{Authenticated: true, User: user}
}

func (s *AuthService) authorize(user *model.AdminUser) error {
	if len(s.adminEmails) == 0 {
		return nil
	}
	if _, ok := s.adminEmails[strings.ToLower(user.Email)]; ok {
		return nil
	}
	return ierr.NewError("user is not an administrator").
		WithHint("You do not have access to the admin panel").
		Mark(ierr.ErrPermissionDenied)
}
