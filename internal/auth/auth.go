// Package auth wraps the backend's credentialed session endpoints. The
// current user travels as an explicit Context value handed to whoever needs
// it; there is no ambient singleton.
package auth

import (
	"context"
	"fmt"

	"github.com/chatadmision/admitchat/internal/api"
	"github.com/chatadmision/admitchat/internal/logger"
)

// Context is the caller's view of the authenticated session.
type Context struct {
	Authenticated bool
	User          *api.User
}

// IsAdmin reports whether the current user holds the admin role.
func (c Context) IsAdmin() bool {
	return c.User != nil && c.User.Role == "admin"
}

// Backend is the slice of the API client the service uses.
type Backend interface {
	Login(ctx context.Context, username, password string) (api.User, error)
	Register(ctx context.Context, username, email, password string) (api.User, error)
	Logout(ctx context.Context) error
	AuthStatus(ctx context.Context) (api.AuthStatus, error)
	ChangePassword(ctx context.Context, current, updated string) error
}

// Service performs authentication against the backend. Credential
// verification itself lives server-side; this only relays it.
type Service struct {
	api Backend
}

// NewService creates a Service.
func NewService(api Backend) *Service {
	return &Service{api: api}
}

// Login authenticates and returns the resulting context.
func (s *Service) Login(ctx context.Context, username, password string) (Context, error) {
	user, err := s.api.Login(ctx, username, password)
	if err != nil {
		return Context{}, fmt.Errorf("login: %w", err)
	}
	logger.L.Info("logged in", "username", user.Username, "role", user.Role)
	return Context{Authenticated: true, User: &user}, nil
}

// Register creates an account; the backend logs the new user in, so the
// returned context is authenticated.
func (s *Service) Register(ctx context.Context, username, email, password string) (Context, error) {
	user, err := s.api.Register(ctx, username, email, password)
	if err != nil {
		return Context{}, fmt.Errorf("register: %w", err)
	}
	logger.L.Info("account registered", "username", user.Username)
	return Context{Authenticated: true, User: &user}, nil
}

// Status asks the backend whether the cookie session is still valid.
func (s *Service) Status(ctx context.Context) (Context, error) {
	st, err := s.api.AuthStatus(ctx)
	if err != nil {
		return Context{}, fmt.Errorf("auth status: %w", err)
	}
	return Context{Authenticated: st.Authenticated, User: st.User}, nil
}

// Logout drops the backend session.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// ChangePassword rotates the current user's password.
func (s *Service) ChangePassword(ctx context.Context, current, updated string) error {
	if err := s.api.ChangePassword(ctx, current, updated); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}
