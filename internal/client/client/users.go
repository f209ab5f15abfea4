package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/gatelog/internal/client/models"
)

// ListUsers accepts a bare array or {"users": [...]}.
func (c *HTTPClient) ListUsers(ctx context.Context) ([]models.User, error) {
	var raw json.RawMessage
	err := c.doJSON(ctx, call{
		method: http.MethodGet,
		path:   "/auth/users",
		route:  "/auth/users",
	}, &raw)
	if err != nil {
		return nil, err
	}

	var users []models.User
	if json.Unmarshal(raw, &users) == nil {
		return users, nil
	}
	var wrapped struct {
		Users []models.User `json:"users"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: decode /auth/users: %v", ErrUnavailable, err)
	}
	return wrapped.Users, nil
}

func (c *HTTPClient) GetUser(ctx context.Context, id string) (*models.User, error) {
	return c.userCall(ctx, call{
		method: http.MethodGet,
		path:   "/auth/users/" + url.PathEscape(id),
		route:  "/auth/users/{id}",
	})
}

func (c *HTTPClient) UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	body, n, err := jsonBody(upd)
	if err != nil {
		return nil, err
	}
	return c.userCall(ctx, call{
		method:      http.MethodPut,
		path:        "/auth/users/" + url.PathEscape(id),
		route:       "/auth/users/{id}",
		body:        body,
		length:      n,
		contentType: "application/json",
	})
}

func (c *HTTPClient) DeleteUser(ctx context.Context, id string) error {
	return c.doJSON(ctx, call{
		method: http.MethodDelete,
		path:   "/auth/users/" + url.PathEscape(id),
		route:  "/auth/users/{id}",
	}, nil)
}

// userCall decodes either {"user": {...}} or the bare profile.
func (c *HTTPClient) userCall(ctx context.Context, cl call) (*models.User, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, cl, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		User *models.User `json:"user"`
	}
	if json.Unmarshal(raw, &wrapped) == nil && wrapped.User != nil {
		return wrapped.User, nil
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, cl.route, err)
	}
	return &u, nil
}
