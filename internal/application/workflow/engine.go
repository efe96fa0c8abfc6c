package workflow

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/garyjia/promoter-portal/internal/application/session"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
	domainwf "github.com/garyjia/promoter-portal/internal/domain/workflow"
)

// ApproveInput carries the admin's approval details
type ApproveInput struct {
	Notes string
	// ApprovedValue is the amount granted for a purchase order
	ApprovedValue decimal.NullDecimal
}

// RejectInput carries the admin's rejection details
type RejectInput struct {
	Notes string
}

// WorkflowEngine decides pending requests of every kind
type WorkflowEngine interface {
	Approve(ctx context.Context, sess session.Session, requestID string, in ApproveInput) (entity.Request, error)
	Reject(ctx context.Context, sess session.Session, requestID string, in RejectInput) (entity.Request, error)

	// History returns the decisions recorded for a request
	History(ctx context.Context, sess session.Session, requestID string) ([]*entity.ApprovalHistory, error)

	// AvailableActions lists what the caller may do with the request right now
	AvailableActions(sess session.Session, r entity.Request) []domainwf.Trigger
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
