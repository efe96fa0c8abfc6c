package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/promoter-portal/internal/application/port"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
	"github.com/garyjia/promoter-portal/internal/infrastructure/persistence/sqlite"
)

// CredentialRepository implements port.CredentialRepository
type CredentialRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *sql.DB, logger *zap.Logger) port.CredentialRepository {
	return &CredentialRepository{db: db, logger: logger}
}

func (r *CredentialRepository) Create(ctx context.Context, c *port.Credential) error {
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`INSERT INTO credentials (user_id, email, password_hash, updated_at) VALUES (?, ?, ?, ?)`,
		c.UserID, strings.ToLower(c.Email), c.PasswordHash, c.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).WithHint("Este e-mail já está cadastrado.").Mark(ierr.ErrConflict)
		}
		r.logger.Error("Failed to create credential", zap.Error(err))
		return ierr.Database(err, "insert credential")
	}
	return nil
}

func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*port.Credential, error) {
	return r.getOne(ctx, "email = ?", strings.ToLower(email))
}

func (r *CredentialRepository) GetByUserID(ctx context.Context, userID string) (*port.Credential, error) {
	return r.getOne(ctx, "user_id = ?", userID)
}

func (r *CredentialRepository) getOne(ctx context.Context, cond string, arg interface{}) (*port.Credential, error) {
	var c port.Credential
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx,
		`SELECT user_id, email, password_hash, updated_at FROM credentials WHERE `+cond, arg,
	).Scan(&c.UserID, &c.Email, &c.PasswordHash, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ierr.NotFound("credential", "E-mail ou senha inválidos.")
	}
	if err != nil {
		r.logger.Error("Failed to get credential", zap.Error(err))
		return nil, ierr.Database(err, "get credential")
	}
	return &c, nil
}

func (r *CredentialRepository) UpdatePassword(ctx context.Context, userID, hash string) error {
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`UPDATE credentials SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?`, hash, userID)
	if err != nil {
		r.logger.Error("Failed to update password", zap.String("user_id", userID), zap.Error(err))
		return ierr.Database(err, "update password")
	}
	return requireAffected(result, "credential", "Usuário não encontrado.")
}

// Verify interface compliance
var _ port.CredentialRepository = (*CredentialRepository)(nil)
