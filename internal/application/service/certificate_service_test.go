package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/promoter-portal/internal/domain/entity"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

func TestCertificateFileURL(t *testing.T) {
	repo := newMemRequestRepo()
	storage := newMockStorage()
	svc := NewCertificateService(repo, storage, 60*time.Second, &mockLogger{})
	ctx := context.Background()

	cert := seed(repo, &entity.MedicalCertificate{
		RequestBase: entity.RequestBase{Kind: entity.KindMedicalCertificate},
		MedicalCertificateDetails: entity.MedicalCertificateDetails{
			File: entity.CertificateFile{Path: "p1/1715342400000.pdf", Name: "atestado.pdf"},
		},
	}, "p1", entity.StatusPending, 1)
	other := seed(repo, cash("10"), "p1", entity.StatusPending, 1)

	link, err := svc.FileURL(ctx, promoterSession("p1"), cert.Base().ID)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/p1/1715342400000.pdf?sig=x", link.URL)
	assert.Equal(t, "atestado.pdf", link.FileName)
	assert.Equal(t, 60*time.Second, storage.signedTTL)

	_, err = svc.FileURL(ctx, adminSession("a1"), cert.Base().ID)
	assert.NoError(t, err)

	_, err = svc.FileURL(ctx, promoterSession("p2"), cert.Base().ID)
	assert.True(t, ierr.IsPermissionDenied(err))

	_, err = svc.FileURL(ctx, promoterSession("p1"), other.Base().ID)
	assert.True(t, ierr.IsNotFound(err))
}
