package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/gatelog/internal/client/access"
	"github.com/dmitrijs2005/gatelog/internal/client/client"
	"github.com/dmitrijs2005/gatelog/internal/client/models"
)

// UserService is the admin-only account management.
type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type userService struct {
	client   client.Client
	sessions Sessions
}

func NewUserService(c client.Client, sessions Sessions) UserService {
	return &userService{client: c, sessions: sessions}
}

func (u *userService) gate() error {
	sess, _ := u.sessions.Snapshot()
	return access.Gate(sess, models.RoleAdmin)
}

func (u *userService) List(ctx context.Context) ([]models.User, error) {
	if err := u.gate(); err != nil {
		return nil, err
	}
	return u.client.ListUsers(ctx)
}

func (u *userService) Get(ctx context.Context, id string) (*models.User, error) {
	if err := u.gate(); err != nil {
		return nil, err
	}
	return u.client.GetUser(ctx, id)
}

func (u *userService) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if err := u.gate(); err != nil {
		return nil, err
	}
	upd.Email = strings.TrimSpace(upd.Email)
	if upd.Email == "" {
		return nil, &client.ValidationError{Message: "email is required"}
	}
	return u.client.UpdateUser(ctx, id, upd)
}

// Delete removes another account. Deleting the signed-in account is refused
// locally.
func (u *userService) Delete(ctx context.Context, id string) error {
	if err := u.gate(); err != nil {
		return err
	}
	if sess, _ := u.sessions.Snapshot(); sess != nil && sess.User.ID == id {
		return &client.ValidationError{Message: "you cannot delete your own account"}
	}
	return u.client.DeleteUser(ctx, id)
}
