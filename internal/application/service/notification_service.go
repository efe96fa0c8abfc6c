package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/promoter-portal/internal/application/dispatcher"
	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/application/session"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
	"github.com/garyjia/promoter-portal/internal/domain/event"
)

const notificationListLimit = 50

// NotificationService manages in-app notifications
type NotificationService interface {
	List(ctx context.Context, sess session.Session, unreadOnly bool) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, sess session.Session, id string) error

	// Register subscribes the notification handlers to the dispatcher
	Register(d dispatcher.Dispatcher)
}

type notificationServiceImpl struct {
	notificationRepo port.NotificationRepository
	profileRepo      port.ProfileRepository
	logger           Logger
	now              func() time.Time
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo port.NotificationRepository,
	profileRepo port.ProfileRepository,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		profileRepo:      profileRepo,
		logger:           logger,
		now:              time.Now,
	}
}

func (s *notificationServiceImpl) List(ctx context.Context, sess session.Session, unreadOnly bool) ([]*entity.Notification, error) {
	if err := sess.RequireUser(); err != nil {
		return nil, err
	}
	return s.notificationRepo.ListByUser(ctx, sess.UserID, unreadOnly, notificationListLimit)
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, sess session.Session, id string) error {
	if err := sess.RequireUser(); err != nil {
		return err
	}
	return s.notificationRepo.MarkRead(ctx, id, sess.UserID, s.now())
}

func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeRequestSubmitted, "notify-admins", s.onSubmitted)
	d.SubscribeNamed(event.TypeRequestApproved, "notify-requester", s.onDecided)
	d.SubscribeNamed(event.TypeRequestRejected, "notify-requester", s.onDecided)
}

// onSubmitted tells every admin that a new request is waiting
func (s *notificationServiceImpl) onSubmitted(ctx context.Context, evt *event.Event) error {
	admins, err := s.profileRepo.ListByRole(ctx, entity.RoleAdmin)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	kind := entity.Kind(evt.GetPayloadString("kind"))
	msg := fmt.Sprintf("%s enviou uma nova solicitação de %s.", evt.GetPayloadString("requester_name"), kind.Label())
	if amount := evt.GetPayloadString("amount"); amount != "" {
		msg = fmt.Sprintf("%s enviou uma nova solicitação de %s no valor de R$ %s.",
			evt.GetPayloadString("requester_name"), kind.Label(), amount)
	}

	for _, admin := range admins {
		if !admin.Active {
			continue
		}
		if err := s.create(ctx, admin.ID, entity.NotificationRequestSubmitted, "Nova solicitação", msg, evt.SubjectID); err != nil {
			return err
		}
	}
	return nil
}

// onDecided tells the requester about the admin's decision
func (s *notificationServiceImpl) onDecided(ctx context.Context, evt *event.Event) error {
	requesterID := evt.GetPayloadString("requester_id")
	if requesterID == "" {
		return fmt.Errorf("event %s has no requester", evt.ID)
	}

	kind := entity.Kind(evt.GetPayloadString("kind"))
	typ, title, verb := entity.NotificationRequestApproved, "Solicitação aprovada", "aprovada"
	if evt.Type == event.TypeRequestRejected {
		typ, title, verb = entity.NotificationRequestRejected, "Solicitação recusada", "recusada"
	}

	msg := fmt.Sprintf("Sua solicitação de %s foi %s.", kind.Label(), verb)
	if notes := evt.GetPayloadString("admin_notes"); notes != "" {
		msg += " Observação: " + notes
	}

	return s.create(ctx, requesterID, typ, title, msg, evt.SubjectID)
}

func (s *notificationServiceImpl) create(ctx context.Context, userID, typ, title, msg, requestID string) error {
	n := &entity.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   msg,
		RequestID: requestID,
		CreatedAt: s.now(),
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to create notification", "user_id", userID, "type", typ, "error", err)
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}
