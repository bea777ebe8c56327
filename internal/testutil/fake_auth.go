package testutil

import (
	"context"
	"sync"

	"coupon-drop/internal/auth"
	"coupon-drop/internal/model"
	ierr "coupon-drop/pkg/errors"
)

// FakeAuthProvider implements auth.Provider with a fixed user table
type FakeAuthProvider struct {
	mu        sync.Mutex
	passwords map[string]string
	users     map[string]*model.AdminUser
	sessions  map[string]*model.AdminUser
	SignedOut []string
}

func NewFakeAuthProvider() *FakeAuthProvider {
	return &FakeAuthProvider{
		passwords: make(map[string]string),
		users:     make(map[string]*model.AdminUser),
		sessions:  make(map[string]*model.AdminUser),
	}
}

// AddUser registers a user and returns a token already valid for it
func (p *FakeAuthProvider) AddUser(id, email, password string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	user := &model.AdminUser{ID: id, Email: email, Role: "authenticated"}
	p.passwords[email] = password
	p.users[email] = user
	token := "token-" + id
	p.sessions[token] = user
	return token
}

func (p *FakeAuthProvider) SignIn(_ context.Context, email, password string) (*auth.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pw, ok := p.passwords[email]; !ok || pw != password {
		return nil, ierr.NewError("bad credentials").
			WithHint("Invalid email or password").
			Mark(ierr.ErrUnauthorized)
	}
	user := p.users[email]
	token := "token-" + user.ID
	p.sessions[token] = user
	return &auth.Session{AccessToken: token, ExpiresIn: 3600, User: user}, nil
}

func (p *FakeAuthProvider) SignOut(_ context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.sessions, token)
	p.SignedOut = append(p.SignedOut, token)
	return nil
}

func (p *FakeAuthProvider) ValidateToken(_ context.Context, token string) (*model.AdminUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	user, ok := p.sessions[token]
	if !ok {
		return nil, ierr.NewError("unknown token").
			WithHint("Invalid or expired session").
			Mark(ierr.ErrUnauthorized)
	}
	return user, nil
}
