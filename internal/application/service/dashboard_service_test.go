package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

var seq int

func seed(repo *memRequestRepo, r entity.Request, requester string, status entity.Status, day int) entity.Request {
	seq++
	b := r.Base()
	b.ID = fmt.Sprintf("req-%d", seq)
	b.RequesterID = requester
	b.Status = status
	b.RequestDate = time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC)
	b.CreatedAt = b.RequestDate.Add(time.Duration(seq) * time.Second)
	repo.items[b.ID] = r
	return r
}

func cash(v string) *entity.CashAdvance {
	return &entity.CashAdvance{
		RequestBase:        entity.RequestBase{Kind: entity.KindCashAdvance},
		CashAdvanceDetails: entity.CashAdvanceDetails{Value: dec(v), Reason: "r"},
	}
}

func mileage(total string) *entity.MileageReimbursement {
	return &entity.MileageReimbursement{
		RequestBase:    entity.RequestBase{Kind: entity.KindMileage},
		MileageDetails: entity.MileageDetails{Kilometers: dec("1"), RatePerKm: dec(total), Total: dec(total)},
	}
}

func meal(v string) *entity.MealVoucher {
	return &entity.MealVoucher{
		RequestBase:        entity.RequestBase{Kind: entity.KindMealVoucher},
		MealVoucherDetails: entity.MealVoucherDetails{Value: dec(v)},
	}
}

type fakeExporter struct {
	rows []port.ExportRow
}

func (f *fakeExporter) Export(rows []port.ExportRow) ([]byte, error) {
	f.rows = rows
	return []byte("xlsx"), nil
}

func newDashboard(repo *memRequestRepo, profiles *memProfileRepo, exp port.SpreadsheetExporter) DashboardService {
	return NewDashboardService(repo, profiles, exp, DashboardConfig{RecentLimit: 5, MileageWindow: 3}, &mockLogger{})
}

func TestPromoterDashboard(t *testing.T) {
	repo := newMemRequestRepo()
	svc := newDashboard(repo, newMemProfileRepo(), nil)

	// six cash advances, only the five most recent are shown
	for day := 1; day <= 6; day++ {
		seed(repo, cash("100"), "p1", entity.StatusApproved, day)
	}
	seed(repo, cash("50"), "p1", entity.StatusPending, 7)
	seed(repo, cash("999"), "p2", entity.StatusApproved, 7)

	// four approved mileage entries, the oldest is outside the window
	seed(repo, mileage("10"), "p1", entity.StatusApproved, 1)
	seed(repo, mileage("20"), "p1", entity.StatusApproved, 2)
	seed(repo, mileage("30"), "p1", entity.StatusApproved, 3)
	seed(repo, mileage("40"), "p1", entity.StatusApproved, 4)
	seed(repo, mileage("500"), "p1", entity.StatusRejected, 5)

	seed(repo, meal("25"), "p1", entity.StatusPending, 8)

	d, err := svc.Promoter(context.Background(), promoterSession("p1"))
	require.NoError(t, err)

	assert.Len(t, d.CashAdvances, 5)
	assert.Equal(t, time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC), d.CashAdvances[0].Base().RequestDate)
	assert.Len(t, d.Mileage, 5)
	assert.Len(t, d.MealVouchers, 1)
	assert.Empty(t, d.MedicalCertificates)

	assert.True(t, d.AvailableBalance.Equal(dec("600")), d.AvailableBalance.String())
	assert.Equal(t, 2, d.PendingCount)
	assert.True(t, d.RecentMileageTotal.Equal(dec("90")), d.RecentMileageTotal.String())
}

func TestPromoterDashboard_Empty(t *testing.T) {
	svc := newDashboard(newMemRequestRepo(), newMemProfileRepo(), nil)

	d, err := svc.Promoter(context.Background(), promoterSession("p1"))
	require.NoError(t, err)
	assert.True(t, d.AvailableBalance.IsZero())
	assert.True(t, d.RecentMileageTotal.IsZero())
	assert.Zero(t, d.PendingCount)
}

func TestPromoterDashboard_BackendFailure(t *testing.T) {
	repo := newMemRequestRepo()
	repo.listErr = ierr.Database(errors.New("locked"), "list")
	svc := newDashboard(repo, newMemProfileRepo(), nil)

	_, err := svc.Promoter(context.Background(), promoterSession("p1"))
	require.Error(t, err)
	assert.Equal(t, ierr.GenericMessage, ierr.UserMessage(err))
}

func TestAdminDashboard(t *testing.T) {
	repo := newMemRequestRepo()
	profiles := newMemProfileRepo(
		&entity.Profile{ID: "p1", FullName: "Bruna", Email: "bruna@example.com", Role: entity.RolePromoter, Active: true},
		&entity.Profile{ID: "p2", FullName: "Ana", Email: "ana@example.com", Role: entity.RolePromoter, Active: false},
		&entity.Profile{ID: "a1", FullName: "Admin", Role: entity.RoleAdmin, Active: true},
	)
	svc := newDashboard(repo, profiles, nil)

	seed(repo, cash("100"), "p1", entity.StatusPending, 1)
	seed(repo, mileage("35.50"), "p2", entity.StatusPending, 2)
	seed(repo, meal("20"), "p1", entity.StatusPending, 3)
	seed(repo, meal("999"), "p1", entity.StatusApproved, 3)

	d, err := svc.Admin(context.Background(), adminSession("a1"))
	require.NoError(t, err)

	assert.Equal(t, 3, d.PendingCount)
	assert.True(t, d.PendingAmount.Equal(dec("155.50")), d.PendingAmount.String())
	assert.Equal(t, 1, d.ActivePromoters)
	assert.Equal(t, 2, d.TotalPromoters)
	require.Len(t, d.Promoters, 2)
	assert.Equal(t, "Ana", d.Promoters[0].FullName, "roster ordered by name")

	byKind := map[entity.Kind]PendingItem{}
	for _, it := range d.Pending {
		byKind[it.Kind] = it
	}
	assert.Equal(t, "Ana", byKind[entity.KindMileage].RequesterName)
	assert.Equal(t, "bruna@example.com", byKind[entity.KindCashAdvance].RequesterEmail)
	assert.Equal(t, "Vale Refeição", byKind[entity.KindMealVoucher].KindLabel)
	assert.Equal(t, 0, profiles.getCalls, "requesters resolved in bulk")
	assert.Equal(t, 1, profiles.listCalls)
}

func TestAdminDashboard_RequiresAdmin(t *testing.T) {
	svc := newDashboard(newMemRequestRepo(), newMemProfileRepo(), nil)
	_, err := svc.Admin(context.Background(), promoterSession("p1"))
	assert.True(t, ierr.IsPermissionDenied(err))
}

func TestExportPending(t *testing.T) {
	repo := newMemRequestRepo()
	profiles := newMemProfileRepo(&entity.Profile{ID: "p1", FullName: "Bruna", Role: entity.RolePromoter, Active: true})
	exp := &fakeExporter{}
	svc := newDashboard(repo, profiles, exp)

	seed(repo, cash("100"), "p1", entity.StatusPending, 1)
	seed(repo, cash("100"), "p1", entity.StatusApproved, 2)

	content, err := svc.ExportPending(context.Background(), adminSession("a1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("xlsx"), content)
	require.Len(t, exp.rows, 1)
	assert.Equal(t, "Bruna", exp.rows[0].RequesterName)
	assert.True(t, exp.rows[0].Amount.Decimal.Equal(decimal.NewFromInt(100)))

	_, err = svc.ExportPending(context.Background(), promoterSession("p1"))
	assert.True(t, ierr.IsPermissionDenied(err))
}

func TestAdminRequests_Filters(t *testing.T) {
	repo := newMemRequestRepo()
	svc := newDashboard(repo, newMemProfileRepo(), nil)

	seed(repo, cash("1"), "p1", entity.StatusApproved, 1)
	seed(repo, meal("1"), "p2", entity.StatusApproved, 1)
	seed(repo, meal("1"), "p2", entity.StatusPending, 1)

	items, err := svc.AdminRequests(context.Background(), adminSession("a1"), port.RequestFilter{
		Kinds:    []entity.Kind{entity.KindMealVoucher},
		Statuses: []entity.Status{entity.StatusApproved},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].RequesterName, "missing profiles leave the name blank")
}
