package workflow

import (
	"context"
	"time"

	"github.com/garyjia/promoter-portal/internal/application/dispatcher"
	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/application/session"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
	"github.com/garyjia/promoter-portal/internal/domain/event"
	domainwf "github.com/garyjia/promoter-portal/internal/domain/workflow"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

type engineImpl struct {
	requestRepo    port.RequestRepository
	historyRepo    port.HistoryRepository
	txManager      port.TransactionManager
	dispatcher     dispatcher.Dispatcher
	logger         Logger
	stampRejection bool
	now            func() time.Time
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithLogger sets the engine logger
func WithLogger(l Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = l
	}
}

// WithRejectionStamp controls whether a rejection records approved_at and approved_by
func WithRejectionStamp(stamp bool) EngineOption {
	return func(e *engineImpl) {
		e.stampRejection = stamp
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	requestRepo port.RequestRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	opts ...EngineOption,
) WorkflowEngine {
	e := &engineImpl{
		requestRepo:    requestRepo,
		historyRepo:    historyRepo,
		txManager:      txManager,
		stampRejection: true,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *engineImpl) Approve(ctx context.Context, sess session.Session, requestID string, in ApproveInput) (entity.Request, error) {
	return e.decide(ctx, sess, requestID, domainwf.TriggerApprove, in.Notes, func(r entity.Request, at time.Time) error {
		if in.ApprovedValue.Valid {
			po, ok := r.(*entity.PurchaseOrder)
			if !ok {
				return ierr.Validation("Valor aprovado só se aplica a pedidos de compra.")
			}
			if !in.ApprovedValue.Decimal.IsPositive() {
				return ierr.Validation("O valor aprovado deve ser maior que zero.")
			}
			po.ApprovedValue = in.ApprovedValue
		}
		return r.Approve(ctx, sess.UserID, at, in.Notes)
	})
}

func (e *engineImpl) Reject(ctx context.Context, sess session.Session, requestID string, in RejectInput) (entity.Request, error) {
	return e.decide(ctx, sess, requestID, domainwf.TriggerReject, in.Notes, func(r entity.Request, at time.Time) error {
		return r.Reject(ctx, sess.UserID, at, in.Notes, e.stampRejection)
	})
}

// decide loads the request, applies the transition in memory and persists it
// with a conditional update so a request already decided by someone else is left alone.
func (e *engineImpl) decide(
	ctx context.Context,
	sess session.Session,
	requestID string,
	trigger domainwf.Trigger,
	notes string,
	apply func(r entity.Request, at time.Time) error,
) (entity.Request, error) {
	if err := sess.RequireAdmin(); err != nil {
		return nil, err
	}

	r, err := e.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	base := r.Base()
	previous := base.Status
	at := e.now()

	if err := apply(r, at); err != nil {
		return nil, err
	}

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.requestRepo.UpdateDecision(txCtx, r, previous); err != nil {
			return err
		}
		return e.historyRepo.Create(txCtx, &entity.ApprovalHistory{
			RequestID:      base.ID,
			ActorID:        sess.UserID,
			PreviousStatus: previous,
			NewStatus:      base.Status,
			Action:         trigger.String(),
			Notes:          notes,
			Timestamp:      at,
		})
	})
	if err != nil {
		if e.logger != nil && !ierr.IsInvalidTransition(err) {
			e.logger.Error("Failed to persist decision", "request_id", requestID, "trigger", trigger, "error", err)
		}
		return nil, err
	}

	if e.logger != nil {
		e.logger.Info("Request decided",
			"request_id", base.ID,
			"kind", base.Kind,
			"new_status", base.Status,
			"admin_id", sess.UserID,
		)
	}

	e.emit(ctx, trigger, sess, r, previous)
	return r, nil
}

func (e *engineImpl) emit(ctx context.Context, trigger domainwf.Trigger, sess session.Session, r entity.Request, previous entity.Status) {
	if e.dispatcher == nil {
		return
	}

	eventType := event.TypeRequestApproved
	if trigger == domainwf.TriggerReject {
		eventType = event.TypeRequestRejected
	}

	base := r.Base()
	evt := event.NewEvent(eventType, base.ID, sess.UserID, map[string]interface{}{
		"kind":            string(base.Kind),
		"requester_id":    base.RequesterID,
		"previous_status": string(previous),
		"new_status":      string(base.Status),
		"admin_notes":     base.AdminNotes,
	})

	// the decision is already stored; handler failures are only logged
	if err := e.dispatcher.Dispatch(ctx, evt); err != nil && e.logger != nil {
		e.logger.Error("Event dispatch failed", "event_type", eventType, "request_id", base.ID, "error", err)
	}
}

func (e *engineImpl) History(ctx context.Context, sess session.Session, requestID string) ([]*entity.ApprovalHistory, error) {
	if err := sess.RequireUser(); err != nil {
		return nil, err
	}

	r, err := e.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !sess.CanRead(r.Base().RequesterID) {
		return nil, ierr.PermissionDenied("history of another user's request")
	}

	return e.historyRepo.ListByRequestID(ctx, requestID)
}

func (e *engineImpl) AvailableActions(sess session.Session, r entity.Request) []domainwf.Trigger {
	guard := func(context.Context) bool { return sess.IsAdmin() }
	m, err := domainwf.Restore(string(r.Base().Status), guard)
	if err != nil || !sess.IsAdmin() {
		return []domainwf.Trigger{}
	}
	return m.PermittedTriggers()
}
