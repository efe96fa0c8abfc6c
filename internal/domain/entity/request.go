package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/promoter-portal/internal/domain/workflow"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

// Request is implemented by every request kind. The shared lifecycle lives on
// RequestBase; each kind contributes its own fields, amount and validation.
type Request interface {
	Base() *RequestBase
	// Amount is the value counted in dashboard totals; invalid for kinds without money
	Amount() decimal.NullDecimal
	// Details returns the kind-specific fields for persistence
	Details() any
	Validate(limits Limits, today time.Time) error

	Approve(ctx context.Context, actorID string, at time.Time, notes string) error
	Reject(ctx context.Context, actorID string, at time.Time, notes string, stamp bool) error
}

// RequestBase is the common shape of every request
type RequestBase struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	RequesterID string     `json:"requester_id"`
	Status      Status     `json:"status"`
	RequestDate time.Time  `json:"request_date"`
	Notes       string     `json:"notes,omitempty"`
	AdminNotes  string     `json:"admin_notes,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	ApprovedBy  string     `json:"approved_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (b *RequestBase) Base() *RequestBase { return b }

// Approve moves a pending request to approved and stamps the deciding admin
func (b *RequestBase) Approve(ctx context.Context, actorID string, at time.Time, notes string) error {
	if err := b.fire(ctx, workflow.TriggerApprove); err != nil {
		return err
	}
	b.ApprovedAt = &at
	b.ApprovedBy = actorID
	b.AdminNotes = notes
	b.UpdatedAt = at
	return nil
}

// Reject moves a pending request to rejected. The decision is stamped only when stamp is set.
func (b *RequestBase) Reject(ctx context.Context, actorID string, at time.Time, notes string, stamp bool) error {
	if err := b.fire(ctx, workflow.TriggerReject); err != nil {
		return err
	}
	if stamp {
		b.ApprovedAt = &at
		b.ApprovedBy = actorID
	}
	b.AdminNotes = notes
	b.UpdatedAt = at
	return nil
}

func (b *RequestBase) fire(ctx context.Context, trigger workflow.Trigger) error {
	m, err := workflow.Restore(string(b.Status), nil)
	if err != nil {
		return ierr.WithError(err).
			WithMessage(fmt.Sprintf("request %s has status %q", b.ID, b.Status)).
			Mark(ierr.ErrInvalidTransition)
	}
	if err := m.Fire(ctx, trigger); err != nil {
		return ierr.WithError(err).
			WithHint("Esta solicitação já foi analisada.").
			Mark(ierr.ErrInvalidTransition)
	}
	b.Status = Status(m.State())
	return nil
}

// NewRequest returns an empty request of the given kind
func NewRequest(kind Kind) (Request, error) {
	var r Request
	switch kind {
	case KindCashAdvance:
		r = &CashAdvance{}
	case KindMileage:
		r = &MileageReimbursement{}
	case KindMealVoucher:
		r = &MealVoucher{}
	case KindMedicalCertificate:
		r = &MedicalCertificate{}
	case KindPurchaseOrder:
		r = &PurchaseOrder{}
	default:
		return nil, ierr.Validation("Tipo de solicitação inválido.")
	}
	r.Base().Kind = kind
	return r, nil
}

// Restore rebuilds a stored request from its common row and details document
func Restore(base RequestBase, details []byte) (Request, error) {
	r, err := NewRequest(base.Kind)
	if err != nil {
		return nil, err
	}
	*r.Base() = base
	if len(details) > 0 {
		if err := json.Unmarshal(details, r.Details()); err != nil {
			return nil, fmt.Errorf("decode %s details for %s: %w", base.Kind, base.ID, err)
		}
	}
	return r, nil
}

// CashAdvanceDetails are the fields of a cash advance request
type CashAdvanceDetails struct {
	Value  decimal.Decimal `json:"value"`
	Reason string          `json:"reason"`
}

// CashAdvance asks for money ahead of field expenses
type CashAdvance struct {
	RequestBase
	CashAdvanceDetails
}

func (r *CashAdvance) Amount() decimal.NullDecimal { return decimal.NewNullDecimal(r.Value) }
func (r *CashAdvance) Details() any                { return &r.CashAdvanceDetails }

func (r *CashAdvance) Validate(l Limits, _ time.Time) error {
	if err := positiveAtMost(r.Value, l.CashAdvanceMax, "adiantamento"); err != nil {
		return err
	}
	if r.Reason == "" {
		return ierr.Validation("Informe o motivo do adiantamento.")
	}
	return nil
}

// MileageDetails are the fields of a mileage reimbursement
type MileageDetails struct {
	Kilometers  decimal.Decimal `json:"kilometers"`
	RatePerKm   decimal.Decimal `json:"rate_per_km"`
	Total       decimal.Decimal `json:"total"`
	Origin      string          `json:"origin,omitempty"`
	Destination string          `json:"destination,omitempty"`
	Purpose     string          `json:"purpose,omitempty"`
}

// MileageReimbursement repays distance driven with a personal vehicle
type MileageReimbursement struct {
	RequestBase
	MileageDetails
}

func (r *MileageReimbursement) Amount() decimal.NullDecimal { return decimal.NewNullDecimal(r.Total) }
func (r *MileageReimbursement) Details() any                { return &r.MileageDetails }

// ComputeTotal stores kilometers × rate. It runs once, at submission.
func (r *MileageReimbursement) ComputeTotal() {
	r.Total = r.Kilometers.Mul(r.RatePerKm)
}

func (r *MileageReimbursement) Validate(l Limits, _ time.Time) error {
	if !r.Kilometers.IsPositive() {
		return ierr.Validation("A quilometragem deve ser maior que zero.")
	}
	if r.Kilometers.GreaterThan(l.MileageMaxKm) {
		return ierr.NewError("km above limit").
			WithHintf("A quilometragem máxima é de %s km.", l.MileageMaxKm.String()).
			Mark(ierr.ErrValidation)
	}
	if !r.RatePerKm.IsPositive() || r.RatePerKm.LessThan(l.MileageMinRate) || r.RatePerKm.GreaterThan(l.MileageMaxRate) {
		return ierr.NewError("rate out of range").
			WithHintf("O valor por km deve estar entre R$ %s e R$ %s.", l.MileageMinRate.StringFixed(2), l.MileageMaxRate.StringFixed(2)).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// MealVoucherDetails are the fields of a meal voucher
type MealVoucherDetails struct {
	Value         decimal.Decimal `json:"value"`
	Place         string          `json:"place,omitempty"`
	Period        string          `json:"period,omitempty"`
	Justification string          `json:"justification,omitempty"`
}

// MealVoucher repays a meal taken during field work
type MealVoucher struct {
	RequestBase
	MealVoucherDetails
}

func (r *MealVoucher) Amount() decimal.NullDecimal { return decimal.NewNullDecimal(r.Value) }
func (r *MealVoucher) Details() any                { return &r.MealVoucherDetails }

func (r *MealVoucher) Validate(l Limits, _ time.Time) error {
	return positiveAtMost(r.Value, l.MealVoucherMax, "vale refeição")
}

// CertificateFile describes the stored document of a medical certificate
type CertificateFile struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// MedicalCertificateDetails are the fields of a medical certificate
type MedicalCertificateDetails struct {
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	Reason          string          `json:"reason"`
	CertificateType string          `json:"certificate_type,omitempty"`
	CID             string          `json:"cid,omitempty"`
	DoctorName      string          `json:"doctor_name,omitempty"`
	DoctorCRM       string          `json:"doctor_crm,omitempty"`
	DaysOff         int             `json:"days_off"`
	File            CertificateFile `json:"file"`
}

// MedicalCertificate justifies an absence with a doctor's note
type MedicalCertificate struct {
	RequestBase
	MedicalCertificateDetails
}

func (r *MedicalCertificate) Amount() decimal.NullDecimal { return decimal.NullDecimal{} }
func (r *MedicalCertificate) Details() any                { return &r.MedicalCertificateDetails }

// Days counts calendar days from start to end, both inclusive
func (r *MedicalCertificate) Days() int {
	return civilDays(r.StartDate, r.EndDate) + 1
}

func (r *MedicalCertificate) Validate(_ Limits, today time.Time) error {
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return ierr.Validation("Informe as datas de início e fim do atestado.")
	}
	if civilDays(today, r.StartDate) > 0 {
		return ierr.Validation("A data de início não pode ser futura.")
	}
	if civilDays(r.StartDate, r.EndDate) < 0 {
		return ierr.Validation("A data de fim não pode ser anterior à data de início.")
	}
	if r.Reason == "" {
		return ierr.Validation("Informe o motivo do afastamento.")
	}
	return nil
}

// PurchaseOrderDetails are the fields of a purchase order
type PurchaseOrderDetails struct {
	ExpenseType    string              `json:"expense_type"`
	Description    string              `json:"description"`
	Justification  string              `json:"justification"`
	Urgency        string              `json:"urgency"`
	EstimatedValue decimal.NullDecimal `json:"estimated_value"`
	NeededBy       *time.Time          `json:"needed_by,omitempty"`
	ApprovedValue  decimal.NullDecimal `json:"approved_value"`
}

// PurchaseOrder asks the company to buy something for field work
type PurchaseOrder struct {
	RequestBase
	PurchaseOrderDetails
}

func (r *PurchaseOrder) Amount() decimal.NullDecimal { return r.EstimatedValue }
func (r *PurchaseOrder) Details() any                { return &r.PurchaseOrderDetails }

func (r *PurchaseOrder) Validate(l Limits, _ time.Time) error {
	switch r.ExpenseType {
	case ExpensePromotionalMaterial, ExpenseTransport, ExpenseLodging, ExpenseFood, ExpenseOther:
	default:
		return ierr.Validation("Selecione um tipo de despesa válido.")
	}
	switch r.Urgency {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
	default:
		return ierr.Validation("Selecione um nível de urgência válido.")
	}
	if r.Description == "" || r.Justification == "" {
		return ierr.Validation("Informe a descrição e a justificativa do pedido.")
	}
	if r.EstimatedValue.Valid {
		if err := positiveAtMost(r.EstimatedValue.Decimal, l.PurchaseOrderMax, "pedido de compra"); err != nil {
			return err
		}
	}
	return nil
}

func positiveAtMost(v, max decimal.Decimal, label string) error {
	if !v.IsPositive() {
		return ierr.Validation("Informe um valor maior que zero.")
	}
	if v.GreaterThan(max) {
		return ierr.NewError(label + " above limit").
			WithHintf("O valor máximo para %s é R$ %s.", label, max.StringFixed(2)).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// civilDays returns the number of calendar days from a to b
func civilDays(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
