package client

import (
	"context"
	"io"
	"net/url"

	"github.com/dmitrijs2005/gatelog/internal/client/models"
)

// Client is the remote API used by the services.
type Client interface {
	Login(ctx context.Context, req LoginRequest) (*models.Session, error)
	Register(ctx context.Context, req RegisterRequest) (*models.Session, error)
	// Verify checks an explicit token, independent of the current session.
	Verify(ctx context.Context, token string) (*models.User, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) (string, error)

	ListRecords(ctx context.Context, query url.Values) (models.PagedResult, error)
	GetRecord(ctx context.Context, id string) (*models.VehicleRecord, error)
	CreateRecord(ctx context.Context, body Payload) (*models.VehicleRecord, error)
	UpdateRecord(ctx context.Context, id string, body Payload) (*models.VehicleRecord, error)
	DeleteRecord(ctx context.Context, id string) error
	ExportRecords(ctx context.Context) (io.ReadCloser, error)
	Dashboard(ctx context.Context, tzOffset, today string) (*models.DashboardStats, error)

	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error

	// MediaURL resolves a stored photo/video reference against the server origin.
	MediaURL(ref string) string
}

// Credentials supplies the bearer token and is told when the server rejects it.
type Credentials interface {
	Token() string
	Invalidate(ctx context.Context, token string)
}

// Payload is a prepared request body of known length.
type Payload struct {
	Body        io.Reader
	ContentType string
	Length      int64
}

type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	LoginType string `json:"loginType,omitempty"`
}

type RegisterRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	EmployeeID      string `json:"employeeId"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}
