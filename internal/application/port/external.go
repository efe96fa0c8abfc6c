package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/promoter-portal/internal/domain/entity"
)

// IdentityProvider owns passwords. The portal never sees them after this boundary.
type IdentityProvider interface {
	// Register creates an identity and returns its user id
	Register(ctx context.Context, email, password string) (string, error)
	// Authenticate checks a password and returns the user id
	Authenticate(ctx context.Context, email, password string) (string, error)
	ChangePassword(ctx context.Context, userID, newPassword string) error
}

// Claims are the facts carried by an access token
type Claims struct {
	UserID    string
	Role      entity.Role
	Email     string
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies access tokens
type TokenIssuer interface {
	Issue(p *entity.Profile) (string, time.Time, error)
	Parse(token string) (*Claims, error)
}

// DocumentInfo is what inspection learned about an upload
type DocumentInfo struct {
	ContentType string
	Extension   string
	Pages       int
}

// DocumentInspector validates an uploaded certificate before it is stored
type DocumentInspector interface {
	Inspect(content []byte, maxBytes int64) (*DocumentInfo, error)
}

// ExportRow is one line of the admin pending-queue spreadsheet
type ExportRow struct {
	Kind           entity.Kind
	RequesterName  string
	RequesterEmail string
	Amount         decimal.NullDecimal
	RequestDate    time.Time
	Status         entity.Status
	Notes          string
}

// SpreadsheetExporter renders rows as a workbook
type SpreadsheetExporter interface {
	Export(rows []ExportRow) ([]byte, error)
}
