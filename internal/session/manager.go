package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_storefront/internal/backend"
	"github.com/fjod/go_storefront/internal/observability"
	"go.uber.org/zap"
)

var ErrNotLoggedIn = errors.New("not logged in")

// Authenticator is the auth surface of the backend.
type Authenticator interface {
	Login(ctx context.Context, creds backend.Credentials) (*backend.User, error)
	Logout(ctx context.Context) error
	ValidateSession(ctx context.Context) (*backend.SessionStatus, error)
	AdminLogin(ctx context.Context, creds backend.Credentials) (string, error)
}

type State struct {
	LoggedIn bool   `json:"loggedIn"`
	UserID   string `json:"userId,omitempty"`
	Admin    bool   `json:"admin"`
}

// Manager mirrors the backend session locally. The backend owns the cookie;
// Manager only remembers who it belongs to.
type Manager struct {
	auth   Authenticator
	logger *zap.Logger

	mu         sync.RWMutex
	loggedIn   bool
	userID     string
	adminToken string
}

func NewManager(auth Authenticator, logger *zap.Logger) *Manager {
	return &Manager{auth: auth, logger: observability.OrNop(logger)}
}

func (m *Manager) Login(ctx context.Context, creds backend.Credentials) (State, error) {
	user, err := m.auth.Login(ctx, creds)
	if err != nil {
		m.reset()
		return m.State(), fmt.Errorf("login: %w", err)
	}

	m.mu.Lock()
	m.loggedIn = true
	m.userID = user.ID
	m.mu.Unlock()

	observability.FromContextOr(ctx, m.logger).Info("user logged in", zap.String("user_id", user.ID))
	return m.State(), nil
}

// Logout clears local state even when the backend call fails.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.auth.Logout(ctx)
	m.reset()
	if err != nil {
		observability.FromContextOr(ctx, m.logger).Warn("backend logout failed, local session cleared", zap.Error(err))
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Validate asks the backend whether the session is still alive. Any failure
// logs the user out locally.
func (m *Manager) Validate(ctx context.Context) (State, error) {
	status, err := m.auth.ValidateSession(ctx)
	if err != nil || status == nil || !status.LoggedIn || status.UserID == "" {
		m.reset()
		if err != nil {
			return m.State(), fmt.Errorf("validate session: %w", err)
		}
		return m.State(), nil
	}

	m.mu.Lock()
	m.loggedIn = true
	m.userID = status.UserID
	m.mu.Unlock()
	return m.State(), nil
}

// AdminLogin keeps the admin token that unlocks the admin routes.
func (m *Manager) AdminLogin(ctx context.Context, creds backend.Credentials) error {
	token, err := m.auth.AdminLogin(ctx, creds)
	if err != nil {
		return fmt.Errorf("admin login: %w", err)
	}
	m.mu.Lock()
	m.adminToken = token
	m.mu.Unlock()
	observability.FromContextOr(ctx, m.logger).Info("admin logged in")
	return nil
}

func (m *Manager) AdminLogout() {
	m.mu.Lock()
	m.adminToken = ""
	m.mu.Unlock()
}

func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.adminToken != ""
}

// UserID returns the logged-in user. ok is false for guests.
func (m *Manager) UserID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userID, m.loggedIn && m.userID != ""
}

func (m *Manager) RequireUser() (string, error) {
	id, ok := m.UserID()
	if !ok {
		return "", ErrNotLoggedIn
	}
	return id, nil
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{LoggedIn: m.loggedIn, UserID: m.userID, Admin: m.adminToken != ""}
}

func (m *Manager) reset() {
	m.mu.Lock()
	m.loggedIn = false
	m.userID = ""
	m.mu.Unlock()
}
