package auth

import (
	"context"

	"coupon-drop/internal/model"
)

// Session is what the provider hands back after a successful sign in
type Session struct {
	AccessToken string
	ExpiresIn   int
	User        *model.AdminUser
}

// Provider delegates administrator authentication to a hosted auth service
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	// ValidateToken returns the user a token belongs to or an unauthorized error
	ValidateToken(ctx context.Context, token string) (*model.AdminUser, error)
}
