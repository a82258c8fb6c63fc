package backend

import (
	"context"
	"fmt"
	"net/http"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// SessionStatus is the answer of GET /auth/validate.
type SessionStatus struct {
	LoggedIn bool   `json:"loggedIn"`
	UserID   string `json:"userId"`
}

// Login authenticates and stores the session cookie in the client's jar.
func (c *Client) Login(ctx context.Context, creds Credentials) (*User, error) {
	req, err := jsonRequest(http.MethodPost, "/auth/login", creds)
	if err != nil {
		return nil, err
	}
	var resp struct {
		envelope
		User *User `json:"user"`
	}
	if err := c.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	if err := resp.requireSuccess("login failed"); err != nil {
		return nil, err
	}
	if resp.User == nil || resp.User.ID == "" {
		return nil, fmt.Errorf("%w: login response has no user", ErrRejected)
	}
	return resp.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/logout"}, nil)
}

func (c *Client) ValidateSession(ctx context.Context) (*SessionStatus, error) {
	var status SessionStatus
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/validate"}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) Signup(ctx context.Context, signup SignupRequest) error {
	return c.postExpectingSuccess(ctx, "/auth/signup", signup, "signup failed")
}

// ForgotPassword asks the backend to send a reset code to email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.postExpectingSuccess(ctx, "/auth/forget-password", map[string]string{"email": email}, "account not found")
}

func (c *Client) ResetPassword(ctx context.Context, code, password string) error {
	req, err := jsonRequest(http.MethodPost, "/auth/reset-password", map[string]string{
		"code":     code,
		"password": password,
	})
	if err != nil {
		return err
	}
	var resp struct {
		envelope
		UpdatedPassword bool `json:"updatedPassword"`
	}
	if err := c.do(ctx, req, &resp); err != nil {
		return err
	}
	if !resp.UpdatedPassword {
		return fmt.Errorf("%w: %s", ErrRejected, resp.message("password reset failed"))
	}
	return nil
}

// AdminLogin returns the admin token issued by the backend.
func (c *Client) AdminLogin(ctx context.Context, creds Credentials) (string, error) {
	req, err := jsonRequest(http.MethodPost, "/admin-login", creds)
	if err != nil {
		return "", err
	}
	var resp struct {
		envelope
		Token string `json:"token"`
	}
	if err := c.do(ctx, req, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: %s", ErrRejected, resp.message("invalid credentials"))
	}
	return resp.Token, nil
}

func (c *Client) postExpectingSuccess(ctx context.Context, path string, payload any, fallback string) error {
	req, err := jsonRequest(http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	var resp envelope
	if err := c.do(ctx, req, &resp); err != nil {
		return err
	}
	return resp.requireSuccess(fallback)
}
