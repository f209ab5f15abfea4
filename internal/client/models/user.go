package models

import (
	"encoding/json"
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	FirstName  string    `json:"firstName,omitempty"`
	LastName   string    `json:"lastName,omitempty"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	EmployeeID string    `json:"employeeId,omitempty"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
}

func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

// DisplayName prefers the explicit name, then first+last, then email.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if full := strings.TrimSpace(u.FirstName + " " + u.LastName); full != "" {
		return full
	}
	return u.Email
}

// UserUpdate is the editable subset of a user profile.
type UserUpdate struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	EmployeeID string `json:"employeeId"`
}

// Session pairs a bearer token with the profile it was last verified for.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.User.Role == RoleAdmin
}
