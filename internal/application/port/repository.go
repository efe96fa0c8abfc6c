package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/promoter-portal/internal/domain/entity"
)

// RequestFilter narrows request queries. Empty fields match everything.
type RequestFilter struct {
	Kinds       []entity.Kind
	Statuses    []entity.Status
	RequesterID string
	Limit       int
}

// RequestRepository persists every request kind in one store.
// Lists are ordered by request date, newest first.
type RequestRepository interface {
	Create(ctx context.Context, r entity.Request) error
	GetByID(ctx context.Context, id string) (entity.Request, error)
	List(ctx context.Context, f RequestFilter) ([]entity.Request, error)
	Count(ctx context.Context, f RequestFilter) (int, error)
	SumAmount(ctx context.Context, f RequestFilter) (decimal.Decimal, error)

	// UpdateDecision writes the decision fields only if the stored status is
	// still from. It returns an ErrInvalidTransition error when nothing matched.
	UpdateDecision(ctx context.Context, r entity.Request, from entity.Status) error
}

// ProfileRepository persists user profiles
type ProfileRepository interface {
	Create(ctx context.Context, p *entity.Profile) error
	GetByID(ctx context.Context, id string) (*entity.Profile, error)
	GetByEmail(ctx context.Context, email string) (*entity.Profile, error)
	Update(ctx context.Context, p *entity.Profile) error
	SetActive(ctx context.Context, id string, active bool) error
	SetRole(ctx context.Context, id string, role entity.Role) error
	// ListByRole returns profiles ordered by full name
	ListByRole(ctx context.Context, role entity.Role) ([]*entity.Profile, error)
	// ListByIDs returns the profiles found among ids; unknown ids are skipped
	ListByIDs(ctx context.Context, ids []string) ([]*entity.Profile, error)
}

// Credential is a locally stored password hash
type Credential struct {
	UserID       string
	Email        string
	PasswordHash string
	UpdatedAt    time.Time
}

// CredentialRepository persists password hashes for the local identity provider
type CredentialRepository interface {
	Create(ctx context.Context, c *Credential) error
	GetByEmail(ctx context.Context, email string) (*Credential, error)
	GetByUserID(ctx context.Context, userID string) (*Credential, error)
	UpdatePassword(ctx context.Context, userID, hash string) error
}

// HistoryRepository persists approval decisions
type HistoryRepository interface {
	Create(ctx context.Context, h *entity.ApprovalHistory) error
	ListByRequestID(ctx context.Context, requestID string) ([]*entity.ApprovalHistory, error)
}

// NotificationRepository persists in-app notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id, userID string, at time.Time) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
