package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gatelog/internal/client/models"
)

type sessionResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (r sessionResponse) session(route string) (*models.Session, error) {
	if r.Token == "" {
		return nil, fmt.Errorf("%w: %s returned no token", ErrUnavailable, route)
	}
	return &models.Session{Token: r.Token, User: r.User}, nil
}

func (c *HTTPClient) Login(ctx context.Context, req LoginRequest) (*models.Session, error) {
	body, n, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var resp sessionResponse
	err = c.doJSON(ctx, call{
		method:      http.MethodPost,
		path:        "/auth/login",
		route:       "/auth/login",
		body:        body,
		length:      n,
		contentType: "application/json",
		anonymous:   true,
	}, &resp)
	if err != nil {
		return nil, credentialError(err)
	}
	return resp.session("/auth/login")
}

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) (*models.Session, error) {
	body, n, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var resp sessionResponse
	err = c.doJSON(ctx, call{
		method:      http.MethodPost,
		path:        "/auth/register",
		route:       "/auth/register",
		body:        body,
		length:      n,
		contentType: "application/json",
		anonymous:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.session("/auth/register")
}

func (c *HTTPClient) Verify(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	var resp struct {
		User models.User `json:"user"`
	}
	err := c.doJSON(ctx, call{
		method: http.MethodGet,
		path:   "/auth/verify",
		route:  "/auth/verify",
		token:  token,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.User.ID == "" && resp.User.Email == "" {
		return nil, fmt.Errorf("%w: /auth/verify returned no user", ErrUnavailable)
	}
	return &resp.User, nil
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) (string, error) {
	return c.messageCall(ctx, "/auth/forgot-password", map[string]string{"email": email})
}

func (c *HTTPClient) ResetPassword(ctx context.Context, req ResetPasswordRequest) (string, error) {
	return c.messageCall(ctx, "/auth/reset-password", req)
}

func (c *HTTPClient) messageCall(ctx context.Context, path string, payload any) (string, error) {
	body, n, err := jsonBody(payload)
	if err != nil {
		return "", err
	}
	var resp struct {
		Message string `json:"message"`
	}
	err = c.doJSON(ctx, call{
		method:      http.MethodPost,
		path:        path,
		route:       path,
		body:        body,
		length:      n,
		contentType: "application/json",
		anonymous:   true,
	}, &resp)
	return resp.Message, err
}

// credentialError turns a login 401 into a validation error: wrong
// credentials are a user mistake, not an expired session.
func credentialError(err error) error {
	if !errors.Is(err, ErrUnauthorized) {
		return err
	}
	msg := strings.TrimPrefix(err.Error(), ErrUnauthorized.Error()+": ")
	if msg == ErrUnauthorized.Error() {
		msg = "invalid email or password"
	}
	return &ValidationError{Status: http.StatusUnauthorized, Message: msg}
}
