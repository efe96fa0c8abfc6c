package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/application/session"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
	"github.com/garyjia/promoter-portal/pkg/utils"
)

// MinPasswordLength is the shortest password accepted on sign-up and change
const MinPasswordLength = 6

// ProfileUpdate carries the editable profile fields
type ProfileUpdate struct {
	FullName string `validate:"required,max=120"`
	Phone    string `validate:"max=20"`
	CPF      string `validate:"cpf"`
	Company  string `validate:"max=120"`
	Bank     string `validate:"max=80"`
	Agency   string `validate:"max=20"`
	Account  string `validate:"max=30"`
	PixType  string `validate:"pixtype"`
	PixKey   string `validate:"required_with=PixType,max=140"`
}

// ProfileService manages the caller's own profile and password
type ProfileService interface {
	Get(ctx context.Context, sess session.Session) (*entity.Profile, error)
	Update(ctx context.Context, sess session.Session, in ProfileUpdate) (*entity.Profile, error)
	ChangePassword(ctx context.Context, sess session.Session, newPassword, confirmation string) error
}

type profileServiceImpl struct {
	profileRepo port.ProfileRepository
	identity    port.IdentityProvider
	logger      Logger
}

// NewProfileService creates a new ProfileService
func NewProfileService(profileRepo port.ProfileRepository, identity port.IdentityProvider, logger Logger) ProfileService {
	return &profileServiceImpl{profileRepo: profileRepo, identity: identity, logger: logger}
}

func (s *profileServiceImpl) Get(ctx context.Context, sess session.Session) (*entity.Profile, error) {
	if err := sess.RequireUser(); err != nil {
		return nil, err
	}
	return s.profileRepo.GetByID(ctx, sess.UserID)
}

func (s *profileServiceImpl) Update(ctx context.Context, sess session.Session, in ProfileUpdate) (*entity.Profile, error) {
	if err := sess.RequireUser(); err != nil {
		return nil, err
	}

	in = sanitizeProfile(in)
	if err := utils.Validator().Struct(in); err != nil {
		s.logger.Info("Profile update rejected", "user_id", sess.UserID, "error", err)
		return nil, ierr.WithError(err).
			WithHint(profileHint(err)).
			Mark(ierr.ErrValidation)
	}

	p, err := s.profileRepo.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	p.FullName = in.FullName
	p.Phone = in.Phone
	p.CPF = in.CPF
	p.Company = in.Company
	p.Bank = in.Bank
	p.Agency = in.Agency
	p.Account = in.Account
	p.PixType = in.PixType
	p.PixKey = in.PixKey
	p.UpdatedAt = time.Now()

	if err := s.profileRepo.Update(ctx, p); err != nil {
		s.logger.Error("Failed to update profile", "user_id", sess.UserID, "error", err)
		return nil, err
	}

	s.logger.Info("Profile updated", "user_id", sess.UserID)
	return p, nil
}

func (s *profileServiceImpl) ChangePassword(ctx context.Context, sess session.Session, newPassword, confirmation string) error {
	if err := sess.RequireUser(); err != nil {
		return err
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	if newPassword != confirmation {
		return ierr.Validation("As senhas não coincidem.")
	}

	if err := s.identity.ChangePassword(ctx, sess.UserID, newPassword); err != nil {
		s.logger.Error("Failed to change password", "user_id", sess.UserID, "error", err)
		return err
	}

	s.logger.Info("Password changed", "user_id", sess.UserID)
	return nil
}

func checkPassword(pw string) error {
	if len(pw) < MinPasswordLength {
		return ierr.NewError("password too short").
			WithHintf("A senha deve ter pelo menos %d caracteres.", MinPasswordLength).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func sanitizeProfile(in ProfileUpdate) ProfileUpdate {
	in.FullName = utils.SanitizeString(in.FullName)
	in.Phone = utils.SanitizeString(in.Phone)
	in.Company = utils.SanitizeString(in.Company)
	in.Bank = utils.SanitizeString(in.Bank)
	in.Agency = utils.SanitizeString(in.Agency)
	in.Account = utils.SanitizeString(in.Account)
	in.PixKey = utils.SanitizeString(in.PixKey)
	if in.CPF != "" {
		in.CPF = utils.FormatCPF(in.CPF)
	}
	return in
}

var profileFieldHints = map[string]string{
	"FullName": "Informe o nome completo.",
	"CPF":      "CPF inválido.",
	"PixType":  "Tipo de chave PIX inválido.",
	"PixKey":   "Informe a chave PIX.",
}

// profileHint turns the first failed field into a user message
func profileHint(err error) string {
	var verrs validator.ValidationErrors
	if ierr.As(err, &verrs) && len(verrs) > 0 {
		if h, ok := profileFieldHints[verrs[0].Field()]; ok {
			return h
		}
		return "Verifique os dados informados."
	}
	return "Verifique os dados informados."
}
