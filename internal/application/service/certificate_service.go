package service

import (
	"context"
	"time"

	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/application/session"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

// FileLink is a temporary address for a stored document
type FileLink struct {
	URL       string    `json:"url"`
	FileName  string    `json:"file_name"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CertificateService hands out short-lived links to certificate documents
type CertificateService interface {
	FileURL(ctx context.Context, sess session.Session, requestID string) (*FileLink, error)
}

type certificateServiceImpl struct {
	requestRepo port.RequestRepository
	storage     port.ObjectStorage
	ttl         time.Duration
	logger      Logger
}

// NewCertificateService creates a new CertificateService
func NewCertificateService(requestRepo port.RequestRepository, storage port.ObjectStorage, ttl time.Duration, logger Logger) CertificateService {
	return &certificateServiceImpl{
		requestRepo: requestRepo,
		storage:     storage,
		ttl:         ttl,
		logger:      logger,
	}
}

func (s *certificateServiceImpl) FileURL(ctx context.Context, sess session.Session, requestID string) (*FileLink, error) {
	if err := sess.RequireUser(); err != nil {
		return nil, err
	}

	r, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !sess.CanRead(r.Base().RequesterID) {
		return nil, ierr.PermissionDenied("certificate of another user")
	}

	cert, ok := r.(*entity.MedicalCertificate)
	if !ok || cert.File.Path == "" {
		return nil, ierr.NotFound("certificate file", "Esta solicitação não possui arquivo anexado.")
	}

	url, err := s.storage.SignedURL(ctx, cert.File.Path, s.ttl)
	if err != nil {
		s.logger.Error("Failed to sign certificate url", "request_id", requestID, "error", err)
		return nil, err
	}

	return &FileLink{
		URL:       url,
		FileName:  cert.File.Name,
		ExpiresAt: time.Now().Add(s.ttl),
	}, nil
}
