package service

import (
	"context"
	"strings"
	"time"

	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/application/session"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
	"github.com/garyjia/promoter-portal/pkg/utils"
)

// SignUpInput is the self-registration form of a promoter
type SignUpInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	FullName string `validate:"required,max=120"`
	Phone    string `validate:"max=20"`
	Company  string `validate:"max=120"`
}

// AuthResult is returned on sign-up and login
type AuthResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Profile   *entity.Profile `json:"profile"`
}

// AuthService registers users, logs them in and turns tokens back into sessions
type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// Authenticate resolves an access token to a session for an active profile
	Authenticate(ctx context.Context, token string) (session.Session, error)
	// EnsureAdmin creates the bootstrap admin or promotes an existing user
	EnsureAdmin(ctx context.Context, email, password, fullName string) error
}

type authServiceImpl struct {
	identity    port.IdentityProvider
	tokens      port.TokenIssuer
	profileRepo port.ProfileRepository
	txManager   port.TransactionManager
	logger      Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	identity port.IdentityProvider,
	tokens port.TokenIssuer,
	profileRepo port.ProfileRepository,
	txManager port.TransactionManager,
	logger Logger,
) AuthService {
	return &authServiceImpl{
		identity:    identity,
		tokens:      tokens,
		profileRepo: profileRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

func (s *authServiceImpl) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = utils.SanitizeString(in.FullName)
	if err := utils.Validator().Struct(in); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Preencha nome, e-mail válido e senha.").
			Mark(ierr.ErrValidation)
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	p, err := s.createProfile(ctx, in.Email, in.Password, entity.Profile{
		FullName: in.FullName,
		Phone:    utils.SanitizeString(in.Phone),
		Company:  utils.SanitizeString(in.Company),
		Role:     entity.RolePromoter,
		Active:   true,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Promoter signed up", "user_id", p.ID)
	return s.issue(p)
}

func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ierr.Validation("Informe e-mail e senha.")
	}

	userID, err := s.identity.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	p, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewError("identity without profile").
				WithHint("E-mail ou senha inválidos.").
				Mark(ierr.ErrUnauthenticated)
		}
		return nil, err
	}
	if !p.Active {
		s.logger.Info("Login refused for inactive profile", "user_id", p.ID)
		return nil, ierr.NewError("inactive profile").
			WithHint("Seu cadastro está inativo. Procure o administrador.").
			Mark(ierr.ErrPermissionDenied)
	}

	s.logger.Info("User logged in", "user_id", p.ID, "role", p.Role)
	return s.issue(p)
}

func (s *authServiceImpl) Authenticate(ctx context.Context, token string) (session.Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return session.Session{}, err
	}

	p, err := s.profileRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return session.Session{}, expired()
		}
		return session.Session{}, err
	}
	if !p.Active {
		return session.Session{}, expired()
	}

	// role comes from the stored profile so promotions apply immediately
	return session.FromProfile(p), nil
}

func (s *authServiceImpl) EnsureAdmin(ctx context.Context, email, password, fullName string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	existing, err := s.profileRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == entity.RoleAdmin {
			return nil
		}
		s.logger.Info("Promoting bootstrap admin", "user_id", existing.ID)
		return s.profileRepo.SetRole(ctx, existing.ID, entity.RoleAdmin)
	case !ierr.IsNotFound(err):
		return err
	}

	if err := checkPassword(password); err != nil {
		return err
	}
	if fullName == "" {
		fullName = "Administrador"
	}

	p, err := s.createProfile(ctx, email, password, entity.Profile{
		FullName: fullName,
		Role:     entity.RoleAdmin,
		Active:   true,
	})
	if err != nil {
		return err
	}

	s.logger.Info("Bootstrap admin created", "user_id", p.ID)
	return nil
}

// createProfile registers the identity and stores the profile in one transaction
func (s *authServiceImpl) createProfile(ctx context.Context, email, password string, p entity.Profile) (*entity.Profile, error) {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		userID, err := s.identity.Register(txCtx, email, password)
		if err != nil {
			return err
		}

		now := time.Now()
		p.ID = userID
		p.Email = email
		p.CreatedAt = now
		p.UpdatedAt = now
		return s.profileRepo.Create(txCtx, &p)
	})
	if err != nil {
		if !ierr.IsValidation(err) && !ierr.Is(err, ierr.ErrConflict) {
			s.logger.Error("Failed to create account", "email", email, "error", err)
		}
		return nil, err
	}
	return &p, nil
}

func (s *authServiceImpl) issue(p *entity.Profile) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(p)
	if err != nil {
		s.logger.Error("Failed to issue token", "user_id", p.ID, "error", err)
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, Profile: p}, nil
}

func expired() error {
	return ierr.NewError("session no longer valid").
		WithHint("Sua sessão expirou. Faça login novamente.").
		Mark(ierr.ErrUnauthenticated)
}
