package session

import (
	"context"
	"errors"
	"testing"

	"github.com/fjod/go_storefront/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockAuth implements Authenticator for testing
type MockAuth struct {
	User        *backend.User
	LoginErr    error
	LogoutErr   error
	Status      *backend.SessionStatus
	ValidateErr error
	Token       string
	AdminErr    error
	LogoutCalls int
	LastCreds   backend.Credentials
}

func (m *MockAuth) Login(_ context.Context, creds backend.Credentials) (*backend.User, error) {
	m.LastCreds = creds
	if m.LoginErr != nil {
		return nil, m.LoginErr
	}
	return m.User, nil
}

func (m *MockAuth) Logout(context.Context) error {
	m.LogoutCalls++
	return m.LogoutErr
}

func (m *MockAuth) ValidateSession(context.Context) (*backend.SessionStatus, error) {
	return m.Status, m.ValidateErr
}

func (m *MockAuth) AdminLogin(context.Context, backend.Credentials) (string, error) {
	if m.AdminErr != nil {
		return "", m.AdminErr
	}
	return m.Token, nil
}

func TestManager_LoginLogout(t *testing.T) {
	auth := &MockAuth{User: &backend.User{ID: "u1"}}
	m := NewManager(auth, nil)

	_, ok := m.UserID()
	assert.False(t, ok)

	state, err := m.Login(context.Background(), backend.Credentials{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, State{LoggedIn: true, UserID: "u1"}, state)
	assert.Equal(t, "a@b.c", auth.LastCreds.Email)

	id, ok := m.UserID()
	assert.True(t, ok)
	assert.Equal(t, "u1", id)

	require.NoError(t, m.Logout(context.Background()))
	_, ok = m.UserID()
	assert.False(t, ok)
	assert.Equal(t, 1, auth.LogoutCalls)
}

func TestManager_LoginFailureClearsState(t *testing.T) {
	auth := &MockAuth{User: &backend.User{ID: "u1"}}
	m := NewManager(auth, nil)
	_, err := m.Login(context.Background(), backend.Credentials{})
	require.NoError(t, err)

	auth.LoginErr = backend.ErrRejected
	state, err := m.Login(context.Background(), backend.Credentials{})
	require.ErrorIs(t, err, backend.ErrRejected)
	assert.False(t, state.LoggedIn)
}

func TestManager_LogoutAlwaysClears(t *testing.T) {
	auth := &MockAuth{User: &backend.User{ID: "u1"}, LogoutErr: backend.ErrUnavailable}
	m := NewManager(auth, nil)
	_, err := m.Login(context.Background(), backend.Credentials{})
	require.NoError(t, err)

	err = m.Logout(context.Background())
	require.ErrorIs(t, err, backend.ErrUnavailable)
	assert.False(t, m.State().LoggedIn)

	_, err = m.RequireUser()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestManager_Validate(t *testing.T) {
	tests := []struct {
		name    string
		status  *backend.SessionStatus
		err     error
		wantIn  bool
		wantErr bool
	}{
		{name: "valid", status: &backend.SessionStatus{LoggedIn: true, UserID: "u2"}, wantIn: true},
		{name: "logged out", status: &backend.SessionStatus{LoggedIn: false}},
		{name: "no user id", status: &backend.SessionStatus{LoggedIn: true}},
		{name: "backend error", err: errors.New("boom"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &MockAuth{User: &backend.User{ID: "u1"}, Status: tt.status, ValidateErr: tt.err}
			m := NewManager(auth, nil)
			_, err := m.Login(context.Background(), backend.Credentials{})
			require.NoError(t, err)

			state, err := m.Validate(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantIn, state.LoggedIn)
			if tt.wantIn {
				assert.Equal(t, tt.status.UserID, state.UserID)
			}
		})
	}
}

func TestManager_Admin(t *testing.T) {
	auth := &MockAuth{Token: "tok"}
	m := NewManager(auth, nil)
	assert.False(t, m.IsAdmin())

	require.NoError(t, m.AdminLogin(context.Background(), backend.Credentials{}))
	assert.True(t, m.IsAdmin())
	assert.True(t, m.State().Admin)

	m.AdminLogout()
	assert.False(t, m.IsAdmin())

	auth.AdminErr = backend.ErrRejected
	assert.ErrorIs(t, m.AdminLogin(context.Background(), backend.Credentials{}), backend.ErrRejected)
	assert.False(t, m.IsAdmin())
}
