// Package access decides whether the current session may perform an action.
// Checks are evaluated on every call and never cached, so a logout or role
// change is visible immediately.
package access

import (
	"github.com/dmitrijs2005/gatelog/internal/client/client"
	"github.com/dmitrijs2005/gatelog/internal/client/models"
)

// Any is the requirement of actions open to every signed-in user.
const Any models.Role = ""

// CanAccess reports whether s satisfies required. A nil session (anonymous or
// still verifying) never passes.
func CanAccess(s *models.Session, required models.Role) bool {
	if s == nil || s.Token == "" {
		return false
	}
	switch required {
	case Any:
		return true
	case models.RoleAdmin:
		return s.User.Role == models.RoleAdmin
	default:
		return s.User.Role == required || s.User.Role == models.RoleAdmin
	}
}

// Gate is CanAccess with an error: client.ErrUnauthorized when there is no
// session, client.ErrForbidden when the role is insufficient.
func Gate(s *models.Session, required models.Role) error {
	if s == nil || s.Token == "" {
		return client.ErrUnauthorized
	}
	if !CanAccess(s, required) {
		return client.ErrForbidden
	}
	return nil
}
