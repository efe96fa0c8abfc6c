package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
	"github.com/garyjia/promoter-portal/internal/infrastructure/persistence/sqlite"
)

const profileColumns = `id, email, full_name, phone, cpf, company, bank, agency, account,
	pix_type, pix_key, role, active, created_at, updated_at`

// ProfileRepository implements port.ProfileRepository
type ProfileRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sql.DB, logger *zap.Logger) port.ProfileRepository {
	return &ProfileRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a profile. A duplicate email is reported as a conflict.
func (r *ProfileRepository) Create(ctx context.Context, p *entity.Profile) error {
	query := `
		INSERT INTO profiles (
			id, email, full_name, phone, cpf, company, bank, agency, account,
			pix_type, pix_key, role, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		p.ID, strings.ToLower(p.Email), p.FullName, p.Phone, p.CPF, p.Company,
		p.Bank, p.Agency, p.Account, p.PixType, p.PixKey,
		string(p.Role), p.Active, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).WithHint("Este e-mail já está cadastrado.").Mark(ierr.ErrConflict)
		}
		r.logger.Error("Failed to create profile", zap.Error(err))
		return ierr.Database(err, "insert profile")
	}
	return nil
}

// GetByID retrieves a profile by id
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByEmail retrieves a profile by email, case-insensitively
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*entity.Profile, error) {
	return r.getOne(ctx, "email = ?", strings.ToLower(email))
}

func (r *ProfileRepository) getOne(ctx context.Context, cond string, arg interface{}) (*entity.Profile, error) {
	row := sqlite.ExecutorFrom(ctx, r.db).
		QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE `+cond, arg)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ierr.NotFound("profile", "Usuário não encontrado.")
	}
	if err != nil {
		r.logger.Error("Failed to get profile", zap.Error(err))
		return nil, ierr.Database(err, "get profile")
	}
	return p, nil
}

// Update stores the editable personal and banking fields
func (r *ProfileRepository) Update(ctx context.Context, p *entity.Profile) error {
	query := `
		UPDATE profiles
		SET full_name = ?, phone = ?, cpf = ?, company = ?, bank = ?, agency = ?,
			account = ?, pix_type = ?, pix_key = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		p.FullName, p.Phone, p.CPF, p.Company, p.Bank, p.Agency,
		p.Account, p.PixType, p.PixKey, p.UpdatedAt.UTC(), p.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update profile", zap.String("id", p.ID), zap.Error(err))
		return ierr.Database(err, "update profile")
	}
	return requireAffected(result, "profile", "Usuário não encontrado.")
}

// SetActive flips the active flag
func (r *ProfileRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`UPDATE profiles SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, active, id)
	if err != nil {
		r.logger.Error("Failed to set profile active flag", zap.String("id", id), zap.Error(err))
		return ierr.Database(err, "set active")
	}
	return requireAffected(result, "profile", "Usuário não encontrado.")
}

// SetRole changes the portal role
func (r *ProfileRepository) SetRole(ctx context.Context, id string, role entity.Role) error {
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`UPDATE profiles SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, string(role), id)
	if err != nil {
		r.logger.Error("Failed to set profile role", zap.String("id", id), zap.Error(err))
		return ierr.Database(err, "set role")
	}
	return requireAffected(result, "profile", "Usuário não encontrado.")
}

// ListByRole returns the profiles with a role ordered by name
func (r *ProfileRepository) ListByRole(ctx context.Context, role entity.Role) ([]*entity.Profile, error) {
	return r.list(ctx, `role = ?`, string(role))
}

// ListByIDs loads many profiles in one query, ordered by name
func (r *ProfileRepository) ListByIDs(ctx context.Context, ids []string) ([]*entity.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := lo.Map(ids, func(id string, _ int) interface{} { return id })
	return r.list(ctx, `id IN (`+placeholders+`)`, args...)
}

func (r *ProfileRepository) list(ctx context.Context, cond string, args ...interface{}) ([]*entity.Profile, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE `+cond+` ORDER BY full_name ASC`, args...)
	if err != nil {
		r.logger.Error("Failed to list profiles", zap.String("where", cond), zap.Error(err))
		return nil, ierr.Database(err, "list profiles")
	}
	defer rows.Close()

	var result []*entity.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, ierr.Database(err, "scan profile")
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.Database(err, "iterate profiles")
	}
	return result, nil
}

func scanProfile(row rowScanner) (*entity.Profile, error) {
	var p entity.Profile
	var role string
	err := row.Scan(
		&p.ID, &p.Email, &p.FullName, &p.Phone, &p.CPF, &p.Company,
		&p.Bank, &p.Agency, &p.Account, &p.PixType, &p.PixKey,
		&role, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Role = entity.Role(role)
	return &p, nil
}

func requireAffected(result sql.Result, resource, hint string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return ierr.Database(err, "rows affected")
	}
	if n == 0 {
		return ierr.NotFound(resource, hint)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Verify interface compliance
var _ port.ProfileRepository = (*ProfileRepository)(nil)
