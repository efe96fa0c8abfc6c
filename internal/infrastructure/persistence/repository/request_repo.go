package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
	"github.com/garyjia/promoter-portal/internal/infrastructure/persistence/sqlite"
)

const requestColumns = `id, kind, requester_id, status, request_date, notes, admin_notes,
	details, approved_at, approved_by, created_at, updated_at`

// RequestRepository implements port.RequestRepository. Common fields are
// columns; kind-specific fields live in the details JSON document.
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new request
func (r *RequestRepository) Create(ctx context.Context, req entity.Request) error {
	base := req.Base()
	details, err := json.Marshal(req.Details())
	if err != nil {
		return fmt.Errorf("failed to encode request details: %w", err)
	}

	query := `
		INSERT INTO requests (
			id, kind, requester_id, status, amount, request_date, notes, admin_notes,
			details, approved_at, approved_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		base.ID,
		string(base.Kind),
		base.RequesterID,
		string(base.Status),
		req.Amount(),
		base.RequestDate.UTC(),
		base.Notes,
		base.AdminNotes,
		string(details),
		nullTime(base.ApprovedAt),
		nullString(base.ApprovedBy),
		base.CreatedAt.UTC(),
		base.UpdatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.String("kind", string(base.Kind)), zap.Error(err))
		return ierr.Database(err, "insert request")
	}
	return nil
}

// GetByID retrieves a request of any kind
func (r *RequestRepository) GetByID(ctx context.Context, id string) (entity.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = ?`

	row := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ierr.NotFound("request", "Solicitação não encontrada.")
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.String("id", id), zap.Error(err))
		return nil, ierr.Database(err, "get request")
	}
	return req, nil
}

// List returns matching requests, newest request date first
func (r *RequestRepository) List(ctx context.Context, f port.RequestFilter) ([]entity.Request, error) {
	where, args := buildRequestWhere(f)
	query := `SELECT ` + requestColumns + ` FROM requests` + where + ` ORDER BY request_date DESC, created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, ierr.Database(err, "list requests")
	}
	defer rows.Close()

	var result []entity.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, ierr.Database(err, "scan request")
		}
		result = append(result, req)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.Database(err, "iterate requests")
	}
	return result, nil
}

// Count returns the number of matching requests
func (r *RequestRepository) Count(ctx context.Context, f port.RequestFilter) (int, error) {
	where, args := buildRequestWhere(f)

	var n int
	err := sqlite.ExecutorFrom(ctx, r.db).
		QueryRowContext(ctx, `SELECT COUNT(*) FROM requests`+where, args...).
		Scan(&n)
	if err != nil {
		r.logger.Error("Failed to count requests", zap.Error(err))
		return 0, ierr.Database(err, "count requests")
	}
	return n, nil
}

// SumAmount adds the amounts of matching requests. With a limit, only the
// most recent rows are summed. Amounts are summed as decimals, not in SQL.
func (r *RequestRepository) SumAmount(ctx context.Context, f port.RequestFilter) (decimal.Decimal, error) {
	where, args := buildRequestWhere(f)
	query := `SELECT amount FROM requests` + where + ` ORDER BY request_date DESC, created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to sum request amounts", zap.Error(err))
		return decimal.Zero, ierr.Database(err, "sum amounts")
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.NullDecimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, ierr.Database(err, "scan amount")
		}
		if amount.Valid {
			total = total.Add(amount.Decimal)
		}
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, ierr.Database(err, "iterate amounts")
	}
	return total, nil
}

// UpdateDecision stores the decision only while the row still has status from
func (r *RequestRepository) UpdateDecision(ctx context.Context, req entity.Request, from entity.Status) error {
	base := req.Base()
	details, err := json.Marshal(req.Details())
	if err != nil {
		return fmt.Errorf("failed to encode request details: %w", err)
	}

	query := `
		UPDATE requests
		SET status = ?, admin_notes = ?, approved_at = ?, approved_by = ?, details = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		string(base.Status),
		base.AdminNotes,
		nullTime(base.ApprovedAt),
		nullString(base.ApprovedBy),
		string(details),
		base.UpdatedAt.UTC(),
		base.ID,
		string(from),
	)
	if err != nil {
		r.logger.Error("Failed to update request decision", zap.String("id", base.ID), zap.Error(err))
		return ierr.Database(err, "update decision")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.Database(err, "rows affected")
	}
	if affected == 0 {
		return ierr.NewError(fmt.Sprintf("request %s is no longer %s", base.ID, from)).
			WithHint("Esta solicitação já foi analisada.").
			Mark(ierr.ErrInvalidTransition)
	}
	return nil
}

func buildRequestWhere(f port.RequestFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.RequesterID != "" {
		clauses = append(clauses, "requester_id = ?")
		args = append(args, f.RequesterID)
	}
	if len(f.Kinds) > 0 {
		clauses = append(clauses, "kind IN ("+placeholders(len(f.Kinds))+")")
		args = append(args, lo.Map(f.Kinds, func(k entity.Kind, _ int) interface{} { return string(k) })...)
	}
	if len(f.Statuses) > 0 {
		clauses = append(clauses, "status IN ("+placeholders(len(f.Statuses))+")")
		args = append(args, lo.Map(f.Statuses, func(s entity.Status, _ int) interface{} { return string(s) })...)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (entity.Request, error) {
	var (
		base       entity.RequestBase
		kind       string
		status     string
		details    string
		approvedAt sql.NullTime
		approvedBy sql.NullString
	)

	err := row.Scan(
		&base.ID,
		&kind,
		&base.RequesterID,
		&status,
		&base.RequestDate,
		&base.Notes,
		&base.AdminNotes,
		&details,
		&approvedAt,
		&approvedBy,
		&base.CreatedAt,
		&base.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	base.Kind = entity.Kind(kind)
	base.Status = entity.Status(status)
	base.ApprovedBy = approvedBy.String
	if approvedAt.Valid {
		t := approvedAt.Time
		base.ApprovedAt = &t
	}

	return entity.Restore(base, []byte(details))
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
