package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garyjia/promoter-portal/internal/application/dispatcher"
	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/application/session"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
	"github.com/garyjia/promoter-portal/internal/domain/event"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

// CashAdvanceInput is the form of a cash advance
type CashAdvanceInput struct {
	Value       decimal.Decimal
	Reason      string
	Notes       string
	RequestDate time.Time
}

// MileageInput is the form of a mileage reimbursement. An absent rate uses the configured default.
type MileageInput struct {
	Kilometers  decimal.Decimal
	RatePerKm   decimal.NullDecimal
	Origin      string
	Destination string
	Purpose     string
	Notes       string
	RequestDate time.Time
}

// MealVoucherInput is the form of a meal voucher
type MealVoucherInput struct {
	Value         decimal.Decimal
	Place         string
	Period        string
	Justification string
	Notes         string
	RequestDate   time.Time
}

// MedicalCertificateInput is the form of a medical certificate
type MedicalCertificateInput struct {
	StartDate       time.Time
	EndDate         time.Time
	Reason          string
	CertificateType string
	CID             string
	DoctorName      string
	DoctorCRM       string
	Notes           string
}

// UploadedFile is a file received from the client
type UploadedFile struct {
	Name    string
	Content []byte
}

// PurchaseOrderInput is the form of a purchase order. Urgency defaults to media.
type PurchaseOrderInput struct {
	ExpenseType    string
	Description    string
	Justification  string
	Urgency        string
	EstimatedValue decimal.NullDecimal
	NeededBy       *time.Time
	Notes          string
	RequestDate    time.Time
}

// SubmissionService creates requests on behalf of the session user and lets
// them read their own requests back.
type SubmissionService interface {
	SubmitCashAdvance(ctx context.Context, sess session.Session, in CashAdvanceInput) (*entity.CashAdvance, error)
	SubmitMileage(ctx context.Context, sess session.Session, in MileageInput) (*entity.MileageReimbursement, error)
	SubmitMealVoucher(ctx context.Context, sess session.Session, in MealVoucherInput) (*entity.MealVoucher, error)
	SubmitMedicalCertificate(ctx context.Context, sess session.Session, in MedicalCertificateInput, file UploadedFile) (*entity.MedicalCertificate, error)
	SubmitPurchaseOrder(ctx context.Context, sess session.Session, in PurchaseOrderInput) (*entity.PurchaseOrder, error)

	Get(ctx context.Context, sess session.Session, id string) (entity.Request, error)
	// ListMine returns the caller's requests; RequesterID in the filter is overridden
	ListMine(ctx context.Context, sess session.Session, f port.RequestFilter) ([]entity.Request, error)
}

type submissionServiceImpl struct {
	requestRepo port.RequestRepository
	storage     port.ObjectStorage
	inspector   port.DocumentInspector
	dispatcher  dispatcher.Dispatcher
	limits      entity.Limits
	location    *time.Location
	logger      Logger
	now         func() time.Time
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(
	requestRepo port.RequestRepository,
	storage port.ObjectStorage,
	inspector port.DocumentInspector,
	d dispatcher.Dispatcher,
	limits entity.Limits,
	location *time.Location,
	logger Logger,
) SubmissionService {
	if location == nil {
		location = time.UTC
	}
	return &submissionServiceImpl{
		requestRepo: requestRepo,
		storage:     storage,
		inspector:   inspector,
		dispatcher:  d,
		limits:      limits,
		location:    location,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *submissionServiceImpl) SubmitCashAdvance(ctx context.Context, sess session.Session, in CashAdvanceInput) (*entity.CashAdvance, error) {
	r := &entity.CashAdvance{
		RequestBase: entity.RequestBase{Kind: entity.KindCashAdvance, Notes: in.Notes, RequestDate: in.RequestDate},
		CashAdvanceDetails: entity.CashAdvanceDetails{
			Value:  in.Value,
			Reason: in.Reason,
		},
	}
	if err := s.prepare(sess, r); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, sess, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *submissionServiceImpl) SubmitMileage(ctx context.Context, sess session.Session, in MileageInput) (*entity.MileageReimbursement, error) {
	rate := s.limits.MileageRate
	if in.RatePerKm.Valid {
		rate = in.RatePerKm.Decimal
	}

	r := &entity.MileageReimbursement{
		RequestBase: entity.RequestBase{Kind: entity.KindMileage, Notes: in.Notes, RequestDate: in.RequestDate},
		MileageDetails: entity.MileageDetails{
			Kilometers:  in.Kilometers,
			RatePerKm:   rate,
			Origin:      in.Origin,
			Destination: in.Destination,
			Purpose:     in.Purpose,
		},
	}
	if err := s.prepare(sess, r); err != nil {
		return nil, err
	}
	r.ComputeTotal()

	if err := s.persist(ctx, sess, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *submissionServiceImpl) SubmitMealVoucher(ctx context.Context, sess session.Session, in MealVoucherInput) (*entity.MealVoucher, error) {
	r := &entity.MealVoucher{
		RequestBase: entity.RequestBase{Kind: entity.KindMealVoucher, Notes: in.Notes, RequestDate: in.RequestDate},
		MealVoucherDetails: entity.MealVoucherDetails{
			Value:         in.Value,
			Place:         in.Place,
			Period:        in.Period,
			Justification: in.Justification,
		},
	}
	if err := s.prepare(sess, r); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, sess, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *submissionServiceImpl) SubmitMedicalCertificate(
	ctx context.Context,
	sess session.Session,
	in MedicalCertificateInput,
	file UploadedFile,
) (*entity.MedicalCertificate, error) {
	r := &entity.MedicalCertificate{
		RequestBase: entity.RequestBase{Kind: entity.KindMedicalCertificate, Notes: in.Notes},
		MedicalCertificateDetails: entity.MedicalCertificateDetails{
			StartDate:       in.StartDate,
			EndDate:         in.EndDate,
			Reason:          in.Reason,
			CertificateType: in.CertificateType,
			CID:             in.CID,
			DoctorName:      in.DoctorName,
			DoctorCRM:       in.DoctorCRM,
		},
	}
	if err := s.prepare(sess, r); err != nil {
		return nil, err
	}
	r.DaysOff = r.Days()

	info, err := s.inspector.Inspect(file.Content, s.limits.CertificateMaxBytes())
	if err != nil {
		s.logger.Info("Certificate file rejected", "user_id", sess.UserID, "file_name", file.Name, "error", err)
		return nil, err
	}

	key := fmt.Sprintf("%s/%d.%s", sess.UserID, s.now().UnixMilli(), info.Extension)
	if err := s.storage.Put(ctx, key, file.Content, info.ContentType); err != nil {
		s.logger.Error("Failed to upload certificate", "user_id", sess.UserID, "key", key, "error", err)
		return nil, err
	}

	r.File = entity.CertificateFile{
		Path:        key,
		Name:        file.Name,
		Size:        int64(len(file.Content)),
		ContentType: info.ContentType,
	}

	if err := s.persist(ctx, sess, r); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Error("Failed to remove orphaned certificate", "key", key, "error", delErr)
		}
		return nil, err
	}
	return r, nil
}

func (s *submissionServiceImpl) SubmitPurchaseOrder(ctx context.Context, sess session.Session, in PurchaseOrderInput) (*entity.PurchaseOrder, error) {
	urgency := in.Urgency
	if urgency == "" {
		urgency = entity.UrgencyMedium
	}

	r := &entity.PurchaseOrder{
		RequestBase: entity.RequestBase{Kind: entity.KindPurchaseOrder, Notes: in.Notes, RequestDate: in.RequestDate},
		PurchaseOrderDetails: entity.PurchaseOrderDetails{
			ExpenseType:    in.ExpenseType,
			Description:    in.Description,
			Justification:  in.Justification,
			Urgency:        urgency,
			EstimatedValue: in.EstimatedValue,
			NeededBy:       in.NeededBy,
		},
	}
	if err := s.prepare(sess, r); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, sess, r); err != nil {
		return nil, err
	}
	return r, nil
}

// prepare fills the common fields and validates locally. Nothing is stored yet.
func (s *submissionServiceImpl) prepare(sess session.Session, r entity.Request) error {
	if err := sess.RequireActive(); err != nil {
		return err
	}

	now := s.now()
	base := r.Base()
	base.ID = uuid.NewString()
	base.RequesterID = sess.UserID
	base.Status = entity.StatusPending
	if base.RequestDate.IsZero() {
		base.RequestDate = startOfDay(now, s.location)
	}
	base.CreatedAt = now
	base.UpdatedAt = now

	if err := r.Validate(s.limits, now.In(s.location)); err != nil {
		s.logger.Info("Submission rejected by validation", "kind", base.Kind, "user_id", sess.UserID, "error", err)
		return err
	}
	return nil
}

func (s *submissionServiceImpl) persist(ctx context.Context, sess session.Session, r entity.Request) error {
	base := r.Base()
	if err := s.requestRepo.Create(ctx, r); err != nil {
		s.logger.Error("Failed to create request", "kind", base.Kind, "user_id", sess.UserID, "error", err)
		return err
	}

	s.logger.Info("Request submitted", "request_id", base.ID, "kind", base.Kind, "user_id", sess.UserID)

	payload := map[string]interface{}{
		"kind":           string(base.Kind),
		"requester_name": sess.Name,
	}
	if amount := r.Amount(); amount.Valid {
		payload["amount"] = amount.Decimal.StringFixed(2)
	}
	publish(ctx, s.dispatcher, s.logger, event.NewEvent(event.TypeRequestSubmitted, base.ID, sess.UserID, payload))
	return nil
}

func (s *submissionServiceImpl) Get(ctx context.Context, sess session.Session, id string) (entity.Request, error) {
	if err := sess.RequireUser(); err != nil {
		return nil, err
	}

	r, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.CanRead(r.Base().RequesterID) {
		// another user's request is reported as missing
		return nil, ierr.NotFound("request", "Solicitação não encontrada.")
	}
	return r, nil
}

func (s *submissionServiceImpl) ListMine(ctx context.Context, sess session.Session, f port.RequestFilter) ([]entity.Request, error) {
	if err := sess.RequireUser(); err != nil {
		return nil, err
	}
	f.RequesterID = sess.UserID
	return s.requestRepo.List(ctx, f)
}
