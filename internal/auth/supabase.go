package auth

import (
	"context"
	"fmt"
	"time"

	"coupon-drop/internal/model"
	"coupon-drop/pkg/config"
	ierr "coupon-drop/pkg/errors"

	"github.com/golang-jwt/jwt/v4"
	"github.com/nedpals/supabase-go"
	gocache "github.com/patrickmn/go-cache"
)

// revokedTTL bounds how long a signed-out token without exp is remembered
const revokedTTL = time.Hour

// gotrue is the subset of the Supabase auth client we use
type gotrue interface {
	SignIn(ctx context.Context, credentials supabase.UserCredentials) (*supabase.AuthenticatedDetails, error)
	SignOut(ctx context.Context, userToken string) error
	User(ctx context.Context, userToken string) (*supabase.User, error)
}

type supabaseAuth struct {
	client    gotrue
	jwtSecret []byte

	// tokens signed out through this process; local JWT checks would
	// otherwise accept them until exp
	revoked *gocache.Cache
	now     func() time.Time
}

// NewSupabaseAuth creates a provider backed by Supabase GoTrue
func NewSupabaseAuth(cfg config.SupabaseConfig) (Provider, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase base_url and api_key are required")
	}

	client := supabase.CreateClient(cfg.BaseURL, cfg.APIKey)
	if client == nil {
		return nil, fmt.Errorf("failed to create Supabase client")
	}

	return newSupabaseAuth(client.Auth, cfg.JWTSecret), nil
}

func newSupabaseAuth(client gotrue, jwtSecret string) *supabaseAuth {
	s := &supabaseAuth{
		client:  client,
		revoked: gocache.New(revokedTTL, 10*time.Minute),
		now:     time.Now,
	}
	if jwtSecret != "" {
		s.jwtSecret = []byte(jwtSecret)
	}
	return s
}

func (s *supabaseAuth) SignIn(ctx context.Context, email, password string) (*Session, error) {
	details, err := s.client.SignIn(ctx, supabase.UserCredentials{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid email or password").
			Mark(ierr.ErrUnauthorized)
	}

	return &Session{
		AccessToken: details.AccessToken,
		ExpiresIn:   details.ExpiresIn,
		User: &model.AdminUser{
			ID:    details.User.ID,
			Email: details.User.Email,
			Role:  details.User.Role,
		},
	}, nil
}

func (s *supabaseAuth) SignOut(ctx context.Context, token string) error {
	s.revoke(token)
	if err := s.client.SignOut(ctx, token); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to sign out").
			Mark(ierr.ErrSystem)
	}
	return nil
}

func (s *supabaseAuth) ValidateToken(ctx context.Context, token string) (*model.AdminUser, error) {
	if _, revoked := s.revoked.Get(token); revoked {
		return nil, ierr.NewError("token signed out").
			WithHint("Invalid or expired session").
			Mark(ierr.ErrUnauthorized)
	}
	if s.jwtSecret == nil {
		return s.lookupUser(ctx, token)
	}

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid or expired session").
			Mark(ierr.ErrUnauthorized)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid or expired session").
			Mark(ierr.ErrUnauthorized)
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, ierr.NewError("token missing user ID").
			WithHint("Invalid or expired session").
			Mark(ierr.ErrUnauthorized)
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return &model.AdminUser{ID: userID, Email: email, Role: role}, nil
}

func (s *supabaseAuth) lookupUser(ctx context.Context, token string) (*model.AdminUser, error) {
	user, err := s.client.User(ctx, token)
	if err != nil || user == nil || user.ID == "" {
		return nil, ierr.WithError(fmt.Errorf("supabase user lookup: %v", err)).
			WithHint("Invalid or expired session").
			Mark(ierr.ErrUnauthorized)
	}
	return &model.AdminUser{ID: user.ID, Email: user.Email, Role: user.Role}, nil
}

// revoke remembers token until it would expire anyway
func (s *supabaseAuth) revoke(token string) {
	if token == "" {
		return
	}

	ttl := revokedTTL
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if ttl <= 0 {
		return
	}
	s.revoked.Set(token, struct{}{}, ttl)
}
