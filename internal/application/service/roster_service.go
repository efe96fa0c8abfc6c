package service

import (
	"context"

	"github.com/garyjia/promoter-portal/internal/application/dispatcher"
	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/application/session"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
	"github.com/garyjia/promoter-portal/internal/domain/event"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

// ActivationResult reports a roster change with the message shown to the admin
type ActivationResult struct {
	Profile *entity.Profile `json:"profile"`
	Message string          `json:"message"`
}

// RosterService lets admins manage the promoter roster. Activation changes
// never touch the promoter's requests and are not recorded in the approval history.
type RosterService interface {
	List(ctx context.Context, sess session.Session) ([]*entity.Profile, error)
	Toggle(ctx context.Context, sess session.Session, profileID string) (*ActivationResult, error)
	SetActive(ctx context.Context, sess session.Session, profileID string, active bool) (*ActivationResult, error)
	SetRole(ctx context.Context, sess session.Session, profileID string, role entity.Role) (*entity.Profile, error)
}

type rosterServiceImpl struct {
	profileRepo port.ProfileRepository
	dispatcher  dispatcher.Dispatcher
	logger      Logger
}

// NewRosterService creates a new RosterService
func NewRosterService(profileRepo port.ProfileRepository, d dispatcher.Dispatcher, logger Logger) RosterService {
	return &rosterServiceImpl{profileRepo: profileRepo, dispatcher: d, logger: logger}
}

func (s *rosterServiceImpl) List(ctx context.Context, sess session.Session) ([]*entity.Profile, error) {
	if err := sess.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.profileRepo.ListByRole(ctx, entity.RolePromoter)
}

func (s *rosterServiceImpl) Toggle(ctx context.Context, sess session.Session, profileID string) (*ActivationResult, error) {
	if err := sess.RequireAdmin(); err != nil {
		return nil, err
	}

	p, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.setActive(ctx, sess, p, !p.Active)
}

func (s *rosterServiceImpl) SetActive(ctx context.Context, sess session.Session, profileID string, active bool) (*ActivationResult, error) {
	if err := sess.RequireAdmin(); err != nil {
		return nil, err
	}

	p, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.setActive(ctx, sess, p, active)
}

func (s *rosterServiceImpl) setActive(ctx context.Context, sess session.Session, p *entity.Profile, active bool) (*ActivationResult, error) {
	if p.ID == sess.UserID {
		return nil, ierr.NewError("admin cannot change own activation").
			WithHint("Você não pode desativar o seu próprio cadastro.").
			Mark(ierr.ErrValidation)
	}

	if err := s.profileRepo.SetActive(ctx, p.ID, active); err != nil {
		s.logger.Error("Failed to change activation", "profile_id", p.ID, "active", active, "error", err)
		return nil, err
	}
	p.Active = active

	msg := "Promotor desativado"
	if active {
		msg = "Promotor ativado"
	}
	s.logger.Info("Promoter activation changed", "profile_id", p.ID, "active", active, "admin_id", sess.UserID)

	publish(ctx, s.dispatcher, s.logger, event.NewEvent(event.TypePromoterActivationChange, p.ID, sess.UserID,
		map[string]interface{}{"active": active}))

	return &ActivationResult{Profile: p, Message: msg}, nil
}

func (s *rosterServiceImpl) SetRole(ctx context.Context, sess session.Session, profileID string, role entity.Role) (*entity.Profile, error) {
	if err := sess.RequireAdmin(); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, ierr.Validation("Perfil de acesso inválido.")
	}
	if profileID == sess.UserID {
		return nil, ierr.NewError("admin cannot change own role").
			WithHint("Você não pode alterar o seu próprio perfil de acesso.").
			Mark(ierr.ErrValidation)
	}

	p, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if p.Role == role {
		return p, nil
	}

	if err := s.profileRepo.SetRole(ctx, profileID, role); err != nil {
		s.logger.Error("Failed to change role", "profile_id", profileID, "role", role, "error", err)
		return nil, err
	}
	p.Role = role

	s.logger.Info("User role changed", "profile_id", profileID, "role", role, "admin_id", sess.UserID)
	publish(ctx, s.dispatcher, s.logger, event.NewEvent(event.TypeUserRoleChanged, profileID, sess.UserID,
		map[string]interface{}{"role": string(role)}))

	return p, nil
}
