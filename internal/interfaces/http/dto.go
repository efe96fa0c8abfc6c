package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/application/service"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
	domainwf "github.com/garyjia/promoter-portal/internal/domain/workflow"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

const (
	dateLayout       = "2006-01-02"
	defaultListLimit = 50
	maxListLimit     = 500
)

// SignUpRequest is the body of POST /api/auth/signup
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required,max=120"`
	Phone    string `json:"phone" binding:"max=20"`
	Company  string `json:"company" binding:"max=120"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ProfileRequest is the body of PUT /api/me
type ProfileRequest struct {
	FullName string `json:"full_name" binding:"required,max=120"`
	Phone    string `json:"phone" binding:"max=20"`
	CPF      string `json:"cpf" binding:"omitempty,cpf"`
	Company  string `json:"company" binding:"max=120"`
	Bank     string `json:"bank" binding:"max=80"`
	Agency   string `json:"agency" binding:"max=20"`
	Account  string `json:"account" binding:"max=30"`
	PixType  string `json:"pix_type" binding:"omitempty,pixtype"`
	PixKey   string `json:"pix_key" binding:"max=140"`
}

func (r ProfileRequest) toUpdate() service.ProfileUpdate {
	return service.ProfileUpdate{
		FullName: r.FullName,
		Phone:    r.Phone,
		CPF:      r.CPF,
		Company:  r.Company,
		Bank:     r.Bank,
		Agency:   r.Agency,
		Account:  r.Account,
		PixType:  r.PixType,
		PixKey:   r.PixKey,
	}
}

// PasswordRequest is the body of POST /api/me/password
type PasswordRequest struct {
	Password     string `json:"password" binding:"required"`
	Confirmation string `json:"confirmation" binding:"required"`
}

// CashAdvanceRequest is the body of POST /api/requests/cash-advances
type CashAdvanceRequest struct {
	Value       decimal.Decimal `json:"value"`
	Reason      string          `json:"reason" binding:"required,max=500"`
	Notes       string          `json:"notes" binding:"max=1000"`
	RequestDate string          `json:"request_date" binding:"omitempty,datetime=2006-01-02"`
}

// MileageRequest is the body of POST /api/requests/mileage
type MileageRequest struct {
	Kilometers  decimal.Decimal     `json:"kilometers"`
	RatePerKm   decimal.NullDecimal `json:"rate_per_km"`
	Origin      string              `json:"origin" binding:"max=200"`
	Destination string              `json:"destination" binding:"max=200"`
	Purpose     string              `json:"purpose" binding:"max=500"`
	Notes       string              `json:"notes" binding:"max=1000"`
	RequestDate string              `json:"request_date" binding:"omitempty,datetime=2006-01-02"`
}

// MealVoucherRequest is the body of POST /api/requests/meal-vouchers
type MealVoucherRequest struct {
	Value         decimal.Decimal `json:"value"`
	Place         string          `json:"place" binding:"max=200"`
	Period        string          `json:"period" binding:"max=60"`
	Justification string          `json:"justification" binding:"max=500"`
	Notes         string          `json:"notes" binding:"max=1000"`
	RequestDate   string          `json:"request_date" binding:"omitempty,datetime=2006-01-02"`
}

// PurchaseOrderRequest is the body of POST /api/requests/purchase-orders
type PurchaseOrderRequest struct {
	ExpenseType    string              `json:"expense_type" binding:"required"`
	Description    string              `json:"description" binding:"required,max=1000"`
	Justification  string              `json:"justification" binding:"required,max=1000"`
	Urgency        string              `json:"urgency" binding:"omitempty,oneof=baixa media alta"`
	EstimatedValue decimal.NullDecimal `json:"estimated_value"`
	NeededBy       string              `json:"needed_by" binding:"omitempty,datetime=2006-01-02"`
	Notes          string              `json:"notes" binding:"max=1000"`
	RequestDate    string              `json:"request_date" binding:"omitempty,datetime=2006-01-02"`
}

// CertificateForm holds the multipart fields of POST /api/requests/medical-certificates
type CertificateForm struct {
	StartDate       string `form:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate         string `form:"end_date" binding:"required,datetime=2006-01-02"`
	Reason          string `form:"reason" binding:"required,max=500"`
	CertificateType string `form:"certificate_type" binding:"max=60"`
	CID             string `form:"cid" binding:"max=20"`
	DoctorName      string `form:"doctor_name" binding:"max=120"`
	DoctorCRM       string `form:"doctor_crm" binding:"max=30"`
	Notes           string `form:"notes" binding:"max=1000"`
}

// ApproveRequest is the optional body of POST /api/admin/requests/:id/approve
type ApproveRequest struct {
	Notes         string              `json:"notes" binding:"max=1000"`
	ApprovedValue decimal.NullDecimal `json:"approved_value"`
}

// RejectRequest is the optional body of POST /api/admin/requests/:id/reject
type RejectRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

// RoleRequest is the body of PUT /api/admin/users/:id/role
type RoleRequest struct {
	Role string `json:"role" binding:"required,oneof=promoter admin"`
}

// RequestView is a request with the actions the caller may take on it
type RequestView struct {
	Request     entity.Request     `json:"request"`
	KindLabel   string             `json:"kind_label"`
	StatusLabel string             `json:"status_label"`
	Actions     []domainwf.Trigger `json:"actions"`
}

// DecisionView is returned after an approval or rejection
type DecisionView struct {
	Request     entity.Request `json:"request"`
	StatusLabel string         `json:"status_label"`
}

// ProfileView adds the roster label to a profile
type ProfileView struct {
	*entity.Profile
	StatusLabel string `json:"status_label"`
}

func profileViews(profiles []*entity.Profile) []ProfileView {
	views := make([]ProfileView, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, ProfileView{Profile: p, StatusLabel: p.StatusLabel()})
	}
	return views
}

// parseDate reads an optional yyyy-mm-dd value as midnight in loc
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, ierr.WithError(err).WithHint("Data inválida.").Mark(ierr.ErrValidation)
	}
	return t, nil
}

// parseFilter reads kind, status and limit query values. Lists are comma separated.
func parseFilter(kinds, statuses, limit string) (port.RequestFilter, error) {
	f := port.RequestFilter{Limit: defaultListLimit}

	for _, k := range splitList(kinds) {
		kind := entity.Kind(k)
		if !kind.IsValid() {
			return f, ierr.Validation("Tipo de solicitação inválido.")
		}
		f.Kinds = append(f.Kinds, kind)
	}
	for _, s := range splitList(statuses) {
		status := entity.Status(s)
		if !status.IsValid() {
			return f, ierr.Validation("Status inválido.")
		}
		f.Statuses = append(f.Statuses, status)
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			return f, ierr.Validation("Limite inválido.")
		}
		f.Limit = min(n, maxListLimit)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
