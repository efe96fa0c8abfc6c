package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/application/session"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

// memRequestRepo is an in-memory RequestRepository
type memRequestRepo struct {
	mu         sync.Mutex
	items      map[string]entity.Request
	createFunc func(ctx context.Context, r entity.Request) error
	listErr    error
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{items: map[string]entity.Request{}}
}

func (m *memRequestRepo) Create(ctx context.Context, r entity.Request) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, r); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[r.Base().ID] = r
	return nil
}

func (m *memRequestRepo) GetByID(ctx context.Context, id string) (entity.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.items[id]; ok {
		return r, nil
	}
	return nil, ierr.NotFound("request", "Solicitação não encontrada.")
}

func (m *memRequestRepo) List(ctx context.Context, f port.RequestFilter) ([]entity.Request, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []entity.Request
	for _, r := range m.items {
		b := r.Base()
		if len(f.Kinds) > 0 && !lo.Contains(f.Kinds, b.Kind) {
			continue
		}
		if len(f.Statuses) > 0 && !lo.Contains(f.Statuses, b.Status) {
			continue
		}
		if f.RequesterID != "" && b.RequesterID != f.RequesterID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Base(), out[j].Base()
		if !a.RequestDate.Equal(b.RequestDate) {
			return a.RequestDate.After(b.RequestDate)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memRequestRepo) Count(ctx context.Context, f port.RequestFilter) (int, error) {
	list, err := m.List(ctx, f)
	return len(list), err
}

func (m *memRequestRepo) SumAmount(ctx context.Context, f port.RequestFilter) (decimal.Decimal, error) {
	list, err := m.List(ctx, f)
	if err != nil {
		return decimal.Zero, err
	}
	return sumAmounts(list), nil
}

func (m *memRequestRepo) UpdateDecision(ctx context.Context, r entity.Request, from entity.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[r.Base().ID]
	if !ok || stored.Base().Status != from {
		return ierr.NewError("no pending row").Mark(ierr.ErrInvalidTransition)
	}
	m.items[r.Base().ID] = r
	return nil
}

// memProfileRepo is an in-memory ProfileRepository
type memProfileRepo struct {
	mu    sync.Mutex
	items map[string]*entity.Profile

	getCalls  int
	listCalls int
}

func newMemProfileRepo(profiles ...*entity.Profile) *memProfileRepo {
	m := &memProfileRepo{items: map[string]*entity.Profile{}}
	for _, p := range profiles {
		m.items[p.ID] = p
	}
	return m
}

func (m *memProfileRepo) Create(ctx context.Context, p *entity.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Email == p.Email {
			return ierr.NewError("duplicate email").WithHint("Este e-mail já está cadastrado.").Mark(ierr.ErrConflict)
		}
	}
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *memProfileRepo) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if p, ok := m.items[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, ierr.NotFound("profile", "Usuário não encontrado.")
}

func (m *memProfileRepo) GetByEmail(ctx context.Context, email string) (*entity.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ierr.NotFound("profile", "Usuário não encontrado.")
}

func (m *memProfileRepo) Update(ctx context.Context, p *entity.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *memProfileRepo) SetActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return ierr.NotFound("profile", "Usuário não encontrado.")
	}
	p.Active = active
	return nil
}

func (m *memProfileRepo) SetRole(ctx context.Context, id string, role entity.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return ierr.NotFound("profile", "Usuário não encontrado.")
	}
	p.Role = role
	return nil
}

func (m *memProfileRepo) ListByRole(ctx context.Context, role entity.Role) ([]*entity.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Profile
	for _, p := range m.items {
		if p.Role == role {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (m *memProfileRepo) ListByIDs(ctx context.Context, ids []string) ([]*entity.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	var out []*entity.Profile
	for _, id := range ids {
		if p, ok := m.items[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// memNotificationRepo is an in-memory NotificationRepository
type memNotificationRepo struct {
	mu    sync.Mutex
	items []*entity.Notification
}

func (m *memNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, n)
	return nil
}

func (m *memNotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*entity.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := lo.Filter(m.items, func(n *entity.Notification, _ int) bool {
		return n.UserID == userID && (!unreadOnly || !n.IsRead())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memNotificationRepo) MarkRead(ctx context.Context, id, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.ID == id && n.UserID == userID {
			n.ReadAt = &at
			return nil
		}
	}
	return ierr.NotFound("notification", "Notificação não encontrada.")
}

// mockStorage records object storage calls
type mockStorage struct {
	objects   map[string][]byte
	putErr    error
	deleted   []string
	signedTTL time.Duration
}

func newMockStorage() *mockStorage {
	return &mockStorage{objects: map[string][]byte{}}
}

func (m *mockStorage) Put(ctx context.Context, key string, content []byte, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[key] = content
	return nil
}

func (m *mockStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if c, ok := m.objects[key]; ok {
		return c, nil
	}
	return nil, ierr.NotFound("file", "Arquivo não encontrado.")
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.objects, key)
	return nil
}

func (m *mockStorage) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.signedTTL = ttl
	return "https://files.example.com/" + key + "?sig=x", nil
}

// mockInspector accepts everything as the configured type
type mockInspector struct {
	inspectFunc func(content []byte, maxBytes int64) (*port.DocumentInfo, error)
}

func (m *mockInspector) Inspect(content []byte, maxBytes int64) (*port.DocumentInfo, error) {
	if m.inspectFunc != nil {
		return m.inspectFunc(content, maxBytes)
	}
	return &port.DocumentInfo{ContentType: "application/pdf", Extension: "pdf", Pages: 1}, nil
}

type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

func promoterSession(id string) session.Session {
	return session.Session{UserID: id, Role: entity.RolePromoter, Name: "Promotor " + id, Active: true}
}

func adminSession(id string) session.Session {
	return session.Session{UserID: id, Role: entity.RoleAdmin, Name: "Admin " + id, Active: true}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
