// Package services contains application services for the gatelog client.
// This file defines the authentication service: login, registration, logout,
// session restore at startup and the password reset requests.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gatelog/internal/client/client"
	"github.com/dmitrijs2005/gatelog/internal/client/models"
	"github.com/dmitrijs2005/gatelog/internal/common"
)

const minPasswordLen = 6

// Login types accepted by the auth endpoint.
const (
	LoginUser  = "user"
	LoginAdmin = "admin"
)

// SessionStore is the mutation surface of the session. Every login, logout
// and restore goes through it.
type SessionStore interface {
	Set(ctx context.Context, s models.Session) error
	Clear(ctx context.Context) error
	Bootstrap(ctx context.Context) error
	Current() *models.Session
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login/Register: authenticate against the server and store the session.
//   - Logout: clear the session everywhere.
//   - Restore: verify a persisted session at startup.
//   - ForgotPassword/ResetPassword: proxy the password reset flow.
type AuthService interface {
	Login(ctx context.Context, email string, password []byte, loginType string) (*models.Session, error)
	Register(ctx context.Context, in RegisterInput) (*models.Session, error)
	Logout(ctx context.Context) error
	Restore(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token string, newPassword, confirm []byte) (string, error)
}

// RegisterInput is the registration form. Passwords are wiped once sent.
type RegisterInput struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	EmployeeID      string
	Password        []byte
	ConfirmPassword []byte
}

type authService struct {
	client client.Client
	store  SessionStore
}

func NewAuthService(client client.Client, store SessionStore) AuthService {
	return &authService{client: client, store: store}
}

func (a *authService) Login(ctx context.Context, email string, password []byte, loginType string) (*models.Session, error) {
	defer common.WipeByteArray(password)

	email = strings.TrimSpace(email)
	if email == "" || len(password) == 0 {
		return nil, &client.ValidationError{Message: "email and password are required"}
	}
	switch loginType {
	case "", LoginUser, LoginAdmin:
	default:
		return nil, &client.ValidationError{Message: fmt.Sprintf("unknown login type %q", loginType)}
	}

	sess, err := a.client.Login(ctx, client.LoginRequest{
		Email:     email,
		Password:  string(password),
		LoginType: loginType,
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := a.store.Set(ctx, *sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

func (a *authService) Register(ctx context.Context, in RegisterInput) (*models.Session, error) {
	defer common.WipeByteArray(in.Password)
	defer common.WipeByteArray(in.ConfirmPassword)

	if string(in.Password) != string(in.ConfirmPassword) {
		return nil, &client.ValidationError{Message: "passwords don't match"}
	}

	sess, err := a.client.Register(ctx, client.RegisterRequest{
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		Email:           strings.TrimSpace(in.Email),
		Phone:           strings.TrimSpace(in.Phone),
		EmployeeID:      strings.TrimSpace(in.EmployeeID),
		Password:        string(in.Password),
		ConfirmPassword: string(in.ConfirmPassword),
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if err := a.store.Set(ctx, *sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

func (a *authService) Logout(ctx context.Context) error {
	return a.store.Clear(ctx)
}

func (a *authService) Restore(ctx context.Context) error {
	return a.store.Bootstrap(ctx)
}

func (a *authService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", &client.ValidationError{Message: "email is required"}
	}
	return a.client.ForgotPassword(ctx, email)
}

func (a *authService) ResetPassword(ctx context.Context, token string, newPassword, confirm []byte) (string, error) {
	defer common.WipeByteArray(newPassword)
	defer common.WipeByteArray(confirm)

	token = strings.TrimSpace(token)
	switch {
	case token == "":
		return "", &client.ValidationError{Message: "invalid reset link: no token provided"}
	case len(newPassword) < minPasswordLen:
		return "", &client.ValidationError{Message: fmt.Sprintf("password must be at least %d characters", minPasswordLen)}
	case string(newPassword) != string(confirm):
		return "", &client.ValidationError{Message: "passwords don't match"}
	}

	return a.client.ResetPassword(ctx, client.ResetPasswordRequest{
		Token:           token,
		NewPassword:     string(newPassword),
		ConfirmPassword: string(confirm),
	})
}
