package service

import (
	"context"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"

	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/application/session"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
)

// DashboardConfig sizes the dashboard windows
type DashboardConfig struct {
	RecentLimit   int // recent items per kind on the promoter dashboard
	MileageWindow int // approved mileage entries summed into the recent total
}

// PromoterDashboard is the promoter home screen
type PromoterDashboard struct {
	CashAdvances        []entity.Request `json:"cash_advances"`
	Mileage             []entity.Request `json:"mileage"`
	MealVouchers        []entity.Request `json:"meal_vouchers"`
	MedicalCertificates []entity.Request `json:"medical_certificates"`
	AvailableBalance    decimal.Decimal  `json:"available_balance"`
	PendingCount        int              `json:"pending_count"`
	RecentMileageTotal  decimal.Decimal  `json:"recent_mileage_total"`
}

// PendingItem is a pending request tagged with its requester
type PendingItem struct {
	Kind           entity.Kind    `json:"kind"`
	KindLabel      string         `json:"kind_label"`
	Request        entity.Request `json:"request"`
	RequesterName  string         `json:"requester_name"`
	RequesterEmail string         `json:"requester_email"`
}

// AdminDashboard is the admin home screen
type AdminDashboard struct {
	Pending         []PendingItem     `json:"pending"`
	Promoters       []*entity.Profile `json:"promoters"`
	PendingCount    int               `json:"pending_count"`
	PendingAmount   decimal.Decimal   `json:"pending_amount"`
	ActivePromoters int               `json:"active_promoters"`
	TotalPromoters  int               `json:"total_promoters"`
}

// adminQueueKinds are the kinds shown in the admin pending queue
var adminQueueKinds = []entity.Kind{entity.KindCashAdvance, entity.KindMileage, entity.KindMealVoucher}

// DashboardService builds the promoter and admin dashboards. Nothing is cached.
type DashboardService interface {
	Promoter(ctx context.Context, sess session.Session) (*PromoterDashboard, error)
	Admin(ctx context.Context, sess session.Session) (*AdminDashboard, error)
	// AdminRequests lists requests of any user
	AdminRequests(ctx context.Context, sess session.Session, f port.RequestFilter) ([]PendingItem, error)
	// ExportPending renders the admin pending queue as a workbook
	ExportPending(ctx context.Context, sess session.Session) ([]byte, error)
}

type dashboardServiceImpl struct {
	requestRepo port.RequestRepository
	profileRepo port.ProfileRepository
	exporter    port.SpreadsheetExporter
	cfg         DashboardConfig
	logger      Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	requestRepo port.RequestRepository,
	profileRepo port.ProfileRepository,
	exporter port.SpreadsheetExporter,
	cfg DashboardConfig,
	logger Logger,
) DashboardService {
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	if cfg.MileageWindow <= 0 {
		cfg.MileageWindow = 3
	}
	return &dashboardServiceImpl{
		requestRepo: requestRepo,
		profileRepo: profileRepo,
		exporter:    exporter,
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *dashboardServiceImpl) Promoter(ctx context.Context, sess session.Session) (*PromoterDashboard, error) {
	if err := sess.RequireUser(); err != nil {
		return nil, err
	}

	d := &PromoterDashboard{}
	recent := func(kind entity.Kind, dst *[]entity.Request) func(context.Context) error {
		return func(ctx context.Context) error {
			list, err := s.requestRepo.List(ctx, port.RequestFilter{
				Kinds:       []entity.Kind{kind},
				RequesterID: sess.UserID,
				Limit:       s.cfg.RecentLimit,
			})
			*dst = list
			return err
		}
	}

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(recent(entity.KindCashAdvance, &d.CashAdvances))
	p.Go(recent(entity.KindMileage, &d.Mileage))
	p.Go(recent(entity.KindMealVoucher, &d.MealVouchers))
	p.Go(recent(entity.KindMedicalCertificate, &d.MedicalCertificates))
	p.Go(func(ctx context.Context) error {
		sum, err := s.requestRepo.SumAmount(ctx, port.RequestFilter{
			Kinds:       []entity.Kind{entity.KindCashAdvance},
			Statuses:    []entity.Status{entity.StatusApproved},
			RequesterID: sess.UserID,
		})
		d.AvailableBalance = sum
		return err
	})
	p.Go(func(ctx context.Context) error {
		n, err := s.requestRepo.Count(ctx, port.RequestFilter{
			Statuses:    []entity.Status{entity.StatusPending},
			RequesterID: sess.UserID,
		})
		d.PendingCount = n
		return err
	})
	p.Go(func(ctx context.Context) error {
		sum, err := s.requestRepo.SumAmount(ctx, port.RequestFilter{
			Kinds:       []entity.Kind{entity.KindMileage},
			Statuses:    []entity.Status{entity.StatusApproved},
			RequesterID: sess.UserID,
			Limit:       s.cfg.MileageWindow,
		})
		d.RecentMileageTotal = sum
		return err
	})

	if err := p.Wait(); err != nil {
		s.logger.Error("Failed to load promoter dashboard", "user_id", sess.UserID, "error", err)
		return nil, err
	}
	return d, nil
}

func (s *dashboardServiceImpl) Admin(ctx context.Context, sess session.Session) (*AdminDashboard, error) {
	if err := sess.RequireAdmin(); err != nil {
		return nil, err
	}

	var (
		queues    = make([][]entity.Request, len(adminQueueKinds))
		promoters []*entity.Profile
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	for i, kind := range adminQueueKinds {
		p.Go(func(ctx context.Context) error {
			list, err := s.requestRepo.List(ctx, port.RequestFilter{
				Kinds:    []entity.Kind{kind},
				Statuses: []entity.Status{entity.StatusPending},
			})
			queues[i] = list
			return err
		})
	}
	p.Go(func(ctx context.Context) error {
		list, err := s.profileRepo.ListByRole(ctx, entity.RolePromoter)
		promoters = list
		return err
	})

	if err := p.Wait(); err != nil {
		s.logger.Error("Failed to load admin dashboard", "admin_id", sess.UserID, "error", err)
		return nil, err
	}

	pending := lo.Flatten(queues)
	items, err := s.tag(ctx, pending)
	if err != nil {
		return nil, err
	}

	return &AdminDashboard{
		Pending:         items,
		Promoters:       promoters,
		PendingCount:    len(pending),
		PendingAmount:   sumAmounts(pending),
		ActivePromoters: lo.CountBy(promoters, func(p *entity.Profile) bool { return p.Active }),
		TotalPromoters:  len(promoters),
	}, nil
}

func (s *dashboardServiceImpl) AdminRequests(ctx context.Context, sess session.Session, f port.RequestFilter) ([]PendingItem, error) {
	if err := sess.RequireAdmin(); err != nil {
		return nil, err
	}

	list, err := s.requestRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.tag(ctx, list)
}

func (s *dashboardServiceImpl) ExportPending(ctx context.Context, sess session.Session) ([]byte, error) {
	if err := sess.RequireAdmin(); err != nil {
		return nil, err
	}

	list, err := s.requestRepo.List(ctx, port.RequestFilter{
		Kinds:    adminQueueKinds,
		Statuses: []entity.Status{entity.StatusPending},
	})
	if err != nil {
		return nil, err
	}

	items, err := s.tag(ctx, list)
	if err != nil {
		return nil, err
	}

	rows := lo.Map(items, func(it PendingItem, _ int) port.ExportRow {
		base := it.Request.Base()
		return port.ExportRow{
			Kind:           it.Kind,
			RequesterName:  it.RequesterName,
			RequesterEmail: it.RequesterEmail,
			Amount:         it.Request.Amount(),
			RequestDate:    base.RequestDate,
			Status:         base.Status,
			Notes:          base.Notes,
		}
	})
	return s.exporter.Export(rows)
}

// tag resolves the requester of each request with a single profile lookup
func (s *dashboardServiceImpl) tag(ctx context.Context, list []entity.Request) ([]PendingItem, error) {
	ids := lo.Uniq(lo.Map(list, func(r entity.Request, _ int) string { return r.Base().RequesterID }))

	found, err := s.profileRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	profiles := lo.KeyBy(found, func(p *entity.Profile) string { return p.ID })

	return lo.Map(list, func(r entity.Request, _ int) PendingItem {
		base := r.Base()
		item := PendingItem{Kind: base.Kind, KindLabel: base.Kind.Label(), Request: r}
		if p, ok := profiles[base.RequesterID]; ok {
			item.RequesterName = p.FullName
			item.RequesterEmail = p.Email
		}
		return item
	}), nil
}

func sumAmounts(list []entity.Request) decimal.Decimal {
	return lo.Reduce(list, func(acc decimal.Decimal, r entity.Request, _ int) decimal.Decimal {
		if a := r.Amount(); a.Valid {
			return acc.Add(a.Decimal)
		}
		return acc
	}, decimal.Zero)
}
