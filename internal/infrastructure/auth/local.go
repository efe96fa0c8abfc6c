// Package auth holds the identity providers and the access token issuer.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/garyjia/promoter-portal/internal/application/port"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

const invalidCredentials = "E-mail ou senha inválidos."

// LocalProvider stores bcrypt hashes in the portal database
type LocalProvider struct {
	creds  port.CredentialRepository
	cost   int
	logger *zap.Logger
}

// NewLocalProvider creates a provider backed by the credentials table
func NewLocalProvider(creds port.CredentialRepository, logger *zap.Logger) *LocalProvider {
	return &LocalProvider{creds: creds, cost: bcrypt.DefaultCost, logger: logger}
}

func (p *LocalProvider) Register(ctx context.Context, email, password string) (string, error) {
	hash, err := p.hash(password)
	if err != nil {
		return "", err
	}

	userID := uuid.NewString()
	if err := p.creds.Create(ctx, &port.Credential{
		UserID:       userID,
		Email:        email,
		PasswordHash: hash,
		UpdatedAt:    time.Now(),
	}); err != nil {
		return "", err
	}
	return userID, nil
}

func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (string, error) {
	cred, err := p.creds.GetByEmail(ctx, email)
	if err != nil {
		if ierr.IsNotFound(err) {
			return "", unauthenticated()
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		p.logger.Info("Password mismatch", zap.String("user_id", cred.UserID))
		return "", unauthenticated()
	}
	return cred.UserID, nil
}

func (p *LocalProvider) ChangePassword(ctx context.Context, userID, newPassword string) error {
	hash, err := p.hash(newPassword)
	if err != nil {
		return err
	}
	return p.creds.UpdatePassword(ctx, userID, hash)
}

func (p *LocalProvider) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Não foi possível salvar a senha.").
			Mark(ierr.ErrValidation)
	}
	return string(hashed), nil
}

func unauthenticated() error {
	return ierr.NewError("invalid credentials").
		WithHint(invalidCredentials).
		Mark(ierr.ErrUnauthenticated)
}

// Verify interface compliance
var _ port.IdentityProvider = (*LocalProvider)(nil)
