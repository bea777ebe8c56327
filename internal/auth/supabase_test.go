package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"coupon-drop/pkg/config"
	ierr "coupon-drop/pkg/errors"

	"github.com/golang-jwt/jwt/v4"
	"github.com/nedpals/supabase-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

type fakeGotrue struct {
	details   *supabase.AuthenticatedDetails
	users     map[string]*supabase.User
	signInErr error
	signedOut []string
}

func (f *fakeGotrue) SignIn(_ context.Context, creds supabase.UserCredentials) (*supabase.AuthenticatedDetails, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.details, nil
}

func (f *fakeGotrue) SignOut(_ context.Context, token string) error {
	f.signedOut = append(f.signedOut, token)
	return nil
}

func (f *fakeGotrue) User(_ context.Context, token string) (*supabase.User, error) {
	user, ok := f.users[token]
	if !ok {
		return nil, errors.New("invalid JWT")
	}
	return user, nil
}

func sign(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims, key any) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestNewSupabaseAuth_RequiresConfig(t *testing.T) {
	_, err := NewSupabaseAuth(config.SupabaseConfig{BaseURL: "https://project.supabase.co"})
	assert.Error(t, err)

	_, err = NewSupabaseAuth(config.SupabaseConfig{APIKey: "anon"})
	assert.Error(t, err)
}

func TestSignIn(t *testing.T) {
	client := &fakeGotrue{details: &supabase.AuthenticatedDetails{
		AccessToken: "access",
		ExpiresIn:   3600,
		User:        supabase.User{ID: "u-1", Email: "admin@example.com", Role: "authenticated"},
	}}
	provider := newSupabaseAuth(client, testSecret)

	session, err := provider.SignIn(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "access", session.AccessToken)
	assert.Equal(t, 3600, session.ExpiresIn)
	assert.Equal(t, "u-1", session.User.ID)
	assert.Equal(t, "admin@example.com", session.User.Email)
}

func TestSignIn_Failure(t *testing.T) {
	provider := newSupabaseAuth(&fakeGotrue{signInErr: errors.New("invalid_grant")}, testSecret)

	_, err := provider.SignIn(context.Background(), "admin@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, ierr.Is(err, ierr.ErrUnauthorized))
	assert.Equal(t, "Invalid email or password", ierr.DisplayMessage(err))
}

func TestValidateToken_LocalJWT(t *testing.T) {
	provider := newSupabaseAuth(&fakeGotrue{}, testSecret)
	secret := []byte(testSecret)
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name    string
		token   string
		wantID  string
		wantErr bool
	}{
		{
			name:   "valid",
			token:  sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-1", "email": "admin@example.com", "role": "authenticated", "exp": future}, secret),
			wantID: "u-1",
		},
		{
			name:    "expired",
			token:   sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-1", "exp": time.Now().Add(-time.Minute).Unix()}, secret),
			wantErr: true,
		},
		{
			name:    "wrong secret",
			token:   sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-1", "exp": future}, []byte("another-secret")),
			wantErr: true,
		},
		{
			name:    "unsigned",
			token:   sign(t, jwt.SigningMethodNone, jwt.MapClaims{"sub": "u-1", "exp": future}, jwt.UnsafeAllowNoneSignatureType),
			wantErr: true,
		},
		{
			name:    "missing subject",
			token:   sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"email": "admin@example.com", "exp": future}, secret),
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   "not.a.jwt",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := provider.ValidateToken(context.Background(), tt.token)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, ierr.Is(err, ierr.ErrUnauthorized))
				assert.Equal(t, "Invalid or expired session", ierr.DisplayMessage(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, user.ID)
			assert.Equal(t, "admin@example.com", user.Email)
			assert.Equal(t, "authenticated", user.Role)
		})
	}
}

func TestValidateToken_LookupWithoutSecret(t *testing.T) {
	client := &fakeGotrue{users: map[string]*supabase.User{
		"opaque": {ID: "u-2", Email: "ops@example.com"},
	}}
	provider := newSupabaseAuth(client, "")

	user, err := provider.ValidateToken(context.Background(), "opaque")
	require.NoError(t, err)
	assert.Equal(t, "u-2", user.ID)
	assert.Equal(t, "ops@example.com", user.Email)

	_, err = provider.ValidateToken(context.Background(), "unknown")
	require.Error(t, err)
	assert.True(t, ierr.Is(err, ierr.ErrUnauthorized))
}

func TestSignOut(t *testing.T) {
	client := &fakeGotrue{}
	provider := newSupabaseAuth(client, testSecret)

	require.NoError(t, provider.SignOut(context.Background(), "access"))
	assert.Equal(t, []string{"access"}, client.signedOut)
}

func TestSignOut_RevokesLocallyValidatedToken(t *testing.T) {
	client := &fakeGotrue{}
	provider := newSupabaseAuth(client, testSecret)
	ctx := context.Background()

	token := sign(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "u-1",
		"email": "admin@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}, []byte(testSecret))

	_, err := provider.ValidateToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, provider.SignOut(ctx, token))

	_, err = provider.ValidateToken(ctx, token)
	require.Error(t, err)
	assert.True(t, ierr.Is(err, ierr.ErrUnauthorized))
	assert.Equal(t, "Invalid or expired session", ierr.DisplayMessage(err))
}

func TestRevoke_RemembersTokenUntilExpiry(t *testing.T) {
	provider := newSupabaseAuth(&fakeGotrue{}, testSecret)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	provider.now = func() time.Time { return now }
	secret := []byte(testSecret)

	live := sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-1", "exp": now.Add(30 * time.Minute).Unix()}, secret)
	provider.revoke(live)
	_, expiresAt, found := provider.revoked.GetWithExpiration(live)
	require.True(t, found)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, time.Minute)

	expired := sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-1", "exp": now.Add(-time.Minute).Unix()}, secret)
	provider.revoke(expired)
	_, found = provider.revoked.Get(expired)
	assert.False(t, found)

	provider.revoke("opaque-token")
	_, found = provider.revoked.Get("opaque-token")
	assert.True(t, found)
}
