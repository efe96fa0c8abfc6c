package repository

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
	"github.com/garyjia/promoter-portal/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new history record
func (r *HistoryRepository) Create(ctx context.Context, history *entity.ApprovalHistory) error {
	query := `
		INSERT INTO approval_history (
			request_id, actor_id, previous_status, new_status, action, notes, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		history.RequestID,
		history.ActorID,
		string(history.PreviousStatus),
		string(history.NewStatus),
		history.Action,
		history.Notes,
		history.Timestamp.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Error(err))
		return ierr.Database(err, "insert history")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return ierr.Database(err, "last insert id")
	}

	history.ID = id
	return nil
}

// ListByRequestID retrieves the decisions of a request, oldest first
func (r *HistoryRepository) ListByRequestID(ctx context.Context, requestID string) ([]*entity.ApprovalHistory, error) {
	query := `
		SELECT id, request_id, actor_id, previous_status, new_status, action, notes, timestamp
		FROM approval_history
		WHERE request_id = ?
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get history by request ID", zap.String("request_id", requestID), zap.Error(err))
		return nil, ierr.Database(err, "list history")
	}
	defer rows.Close()

	var records []*entity.ApprovalHistory
	for rows.Next() {
		var record entity.ApprovalHistory
		var previous, next string
		err := rows.Scan(
			&record.ID,
			&record.RequestID,
			&record.ActorID,
			&previous,
			&next,
			&record.Action,
			&record.Notes,
			&record.Timestamp,
		)
		if err != nil {
			return nil, ierr.Database(err, "scan history")
		}
		record.PreviousStatus = entity.Status(previous)
		record.NewStatus = entity.Status(next)
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
