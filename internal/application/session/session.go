// Package session carries the identity of the caller through every service call.
package session

import (
	"github.com/garyjia/promoter-portal/internal/domain/entity"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

// Session is built once per request from a verified token and the stored profile
type Session struct {
	UserID string
	Role   entity.Role
	Email  string
	Name   string
	Active bool
}

// FromProfile builds a session for a loaded profile
func FromProfile(p *entity.Profile) Session {
	return Session{UserID: p.ID, Role: p.Role, Email: p.Email, Name: p.FullName, Active: p.Active}
}

// IsAdmin reports whether the caller has the admin role
func (s Session) IsAdmin() bool {
	return s.Role == entity.RoleAdmin
}

// RequireUser fails when the session is empty
func (s Session) RequireUser() error {
	if s.UserID == "" {
		return ierr.NewError("missing session").
			WithHint("Sua sessão expirou. Faça login novamente.").
			Mark(ierr.ErrUnauthenticated)
	}
	return nil
}

// RequireActive fails for deactivated profiles
func (s Session) RequireActive() error {
	if err := s.RequireUser(); err != nil {
		return err
	}
	if !s.Active {
		return ierr.NewError("inactive profile").
			WithHint("Seu cadastro está inativo. Procure o administrador.").
			Mark(ierr.ErrPermissionDenied)
	}
	return nil
}

// RequireAdmin fails unless the caller is an admin
func (s Session) RequireAdmin() error {
	if err := s.RequireUser(); err != nil {
		return err
	}
	if !s.IsAdmin() {
		return ierr.PermissionDenied("admin role required")
	}
	return nil
}

// CanRead reports whether the caller may see a record owned by ownerID
func (s Session) CanRead(ownerID string) bool {
	return s.IsAdmin() || s.UserID == ownerID
}
