package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/promoter-portal/internal/application/dispatcher"
	"github.com/garyjia/promoter-portal/internal/application/service"
	"github.com/garyjia/promoter-portal/internal/application/workflow"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
	"github.com/garyjia/promoter-portal/internal/infrastructure/auth"
	"github.com/garyjia/promoter-portal/internal/infrastructure/document"
	"github.com/garyjia/promoter-portal/internal/infrastructure/export"
	"github.com/garyjia/promoter-portal/internal/infrastructure/persistence/repository"
	"github.com/garyjia/promoter-portal/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/promoter-portal/internal/infrastructure/storage"
	"github.com/garyjia/promoter-portal/migrations"
	"github.com/garyjia/promoter-portal/pkg/database"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// newTestServer wires the real services over a temporary sqlite database
func newTestServer(t *testing.T) *Server {
	t.Helper()
	zl := zap.NewNop()
	log := nopLogger{}

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "portal.db"), MaxOpenConns: 1}, zl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.NewMigrator(db, zl).Run(migrations.FS))

	txManager := sqlite.NewDB(db.DB, zl)
	requests := repository.NewRequestRepository(db.DB, zl)
	profiles := repository.NewProfileRepository(db.DB, zl)
	history := repository.NewHistoryRepository(db.DB, zl)
	notifications := repository.NewNotificationRepository(db.DB, zl)
	credentials := repository.NewCredentialRepository(db.DB, zl)

	files := storage.NewLocalStorage(t.TempDir(), "http://portal.test/files", storage.NewURLSigner("file-secret"), zl)
	identity := auth.NewLocalProvider(credentials, zl)
	d := dispatcher.NewDispatcher(dispatcher.WithLogger(log))

	notificationSvc := service.NewNotificationService(notifications, profiles, log)
	notificationSvc.Register(d)

	authSvc := service.NewAuthService(identity, auth.NewJWTIssuer("token-secret", time.Hour), profiles, txManager, log)
	require.NoError(t, authSvc.EnsureAdmin(t.Context(), "admin@portal.test", "admin123", "Admin"))

	services := Services{
		Auth:          authSvc,
		Submission:    service.NewSubmissionService(requests, files, document.NewInspector(zl), d, entity.DefaultLimits(), time.UTC, log),
		Certificates:  service.NewCertificateService(requests, files, time.Minute, log),
		Dashboard:     service.NewDashboardService(requests, profiles, export.NewXLSXExporter(time.UTC, zl), service.DashboardConfig{}, log),
		Roster:        service.NewRosterService(profiles, d, log),
		Profile:       service.NewProfileService(profiles, identity, log),
		Notifications: notificationSvc,
		Workflow:      workflow.NewEngine(requests, history, txManager, workflow.WithDispatcher(d), workflow.WithLogger(log)),
		Files:         files,
	}

	cfg := DefaultServerConfig()
	cfg.AllowedOrigins = nil
	return NewServer(cfg, services, log)
}

func call(t *testing.T, s *Server, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func login(t *testing.T, s *Server, email, password string) string {
	t.Helper()
	w, env := call(t, s, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, w.Code, env.Message)
	var result struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	return result.Token
}

func signUp(t *testing.T, s *Server, email, name string) (token, id string) {
	t.Helper()
	w, env := call(t, s, http.MethodPost, "/api/auth/signup", "", SignUpRequest{Email: email, Password: "segredo1", FullName: name})
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	var result struct {
		Token   string `json:"token"`
		Profile struct {
			ID string `json:"id"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	return result.Token, result.Profile.ID
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w, _ := call(t, s, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

type downChecker struct{}

func (downChecker) Ping(ctx context.Context) error { return errors.New("database: ping failed") }

func TestHealthCheck_Unavailable(t *testing.T) {
	s := newTestServer(t)
	s.services.Health = downChecker{}
	s.router = gin.New()
	s.setupRoutes()

	w, _ := call(t, s, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unhealthy")
}

func TestAuthMiddleware_RejectsMissingToken(t *testing.T) {
	s := newTestServer(t)

	w, env := call(t, s, http.MethodGet, "/api/dashboard", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Sua sessão expirou. Faça login novamente.", env.Message)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t)

	w, env := call(t, s, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "admin@portal.test", Password: "errada1"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "E-mail ou senha inválidos.", env.Message)
}

func TestSubmitCashAdvance_ValidationMessage(t *testing.T) {
	s := newTestServer(t)
	token, _ := signUp(t, s, "ana@portal.test", "Ana")

	w, env := call(t, s, http.MethodPost, "/api/requests/cash-advances", token, map[string]any{"value": "0", "reason": "Viagem"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message)

	_, list := call(t, s, http.MethodGet, "/api/requests", token, nil)
	assert.JSONEq(t, "[]", string(list.Data))
}

func TestSubmitCashAdvance_MissingFieldUsesLabel(t *testing.T) {
	s := newTestServer(t)
	token, _ := signUp(t, s, "ana@portal.test", "Ana")

	w, env := call(t, s, http.MethodPost, "/api/requests/cash-advances", token, map[string]any{"value": "100"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Preencha o campo Motivo.", env.Message)
}

func TestBindError_FormFieldLabels(t *testing.T) {
	registerValidations()

	err := binding.Validator.ValidateStruct(&CertificateForm{StartDate: "2024-05-01", EndDate: "01/05/2024"})
	require.Error(t, err)

	// end_date is checked before reason
	assert.Equal(t, "O campo Data de término deve ser uma data válida.", ierr.UserMessage(bindError(err)))
}

func TestSubmitMileage_Rate(t *testing.T) {
	s := newTestServer(t)
	token, _ := signUp(t, s, "ana@portal.test", "Ana")

	w, env := call(t, s, http.MethodPost, "/api/requests/mileage", token, map[string]any{"kilometers": "100", "rate_per_km": "0"})
	assert.Equal(t, http.StatusBadRequest, w.Code, env.Message)
	assert.False(t, env.Success)

	_, list := call(t, s, http.MethodGet, "/api/requests", token, nil)
	assert.JSONEq(t, "[]", string(list.Data))

	w, env = call(t, s, http.MethodPost, "/api/requests/mileage", token, map[string]any{"kilometers": "100"})
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	var created struct {
		RatePerKm decimal.Decimal `json:"rate_per_km"`
		Total     decimal.Decimal `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.True(t, created.RatePerKm.Equal(decimal.RequireFromString("0.70")), created.RatePerKm.String())
	assert.True(t, created.Total.Equal(decimal.NewFromInt(70)), created.Total.String())
}

func TestPromoterRoutes_ForbiddenForAdminArea(t *testing.T) {
	s := newTestServer(t)
	token, _ := signUp(t, s, "ana@portal.test", "Ana")

	w, env := call(t, s, http.MethodGet, "/api/admin/dashboard", token, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, env.Success)
}

func TestApprovalFlow(t *testing.T) {
	s := newTestServer(t)
	promoter, _ := signUp(t, s, "ana@portal.test", "Ana")
	admin := login(t, s, "admin@portal.test", "admin123")

	w, env := call(t, s, http.MethodPost, "/api/requests/cash-advances", promoter, map[string]any{"value": "150.50", "reason": "Material de evento"})
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	assert.Equal(t, "Solicitação de adiantamento enviada com sucesso!", env.Message)

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "pending", created.Status)

	w, env = call(t, s, http.MethodGet, "/api/admin/dashboard", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dash struct {
		PendingCount  int    `json:"pending_count"`
		PendingAmount string `json:"pending_amount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Equal(t, 1, dash.PendingCount)
	assert.Equal(t, "150.5", dash.PendingAmount)

	w, env = call(t, s, http.MethodPost, "/api/admin/requests/"+created.ID+"/approve", admin, ApproveRequest{Notes: "ok"})
	require.Equal(t, http.StatusOK, w.Code, env.Message)
	assert.Equal(t, "Solicitação aprovada com sucesso!", env.Message)

	// a second decision finds the request already decided
	w, env = call(t, s, http.MethodPost, "/api/admin/requests/"+created.ID+"/reject", admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Esta solicitação já foi analisada.", env.Message)

	w, env = call(t, s, http.MethodGet, "/api/admin/requests/"+created.ID+"/history", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "APPROVE", rows[0]["action"])

	w, env = call(t, s, http.MethodGet, "/api/dashboard", promoter, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		AvailableBalance string `json:"available_balance"`
		PendingCount     int    `json:"pending_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	assert.Equal(t, "150.5", mine.AvailableBalance)
	assert.Equal(t, 0, mine.PendingCount)

	w, env = call(t, s, http.MethodGet, "/api/notifications?unread=true", promoter, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var notes []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, entity.NotificationRequestApproved, notes[0]["type"])
}

func TestGetRequest_OtherPromoterSeesNotFound(t *testing.T) {
	s := newTestServer(t)
	ana, _ := signUp(t, s, "ana@portal.test", "Ana")
	bia, _ := signUp(t, s, "bia@portal.test", "Bia")

	_, env := call(t, s, http.MethodPost, "/api/requests/meal-vouchers", ana, map[string]any{"value": 30, "place": "Centro"})
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	w, _ := call(t, s, http.MethodGet, "/api/requests/"+created.ID, bia, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = call(t, s, http.MethodGet, "/api/requests/"+created.ID, ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		KindLabel   string   `json:"kind_label"`
		StatusLabel string   `json:"status_label"`
		Actions     []string `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "Vale Refeição", view.KindLabel)
	assert.Equal(t, "Pendente", view.StatusLabel)
	assert.Empty(t, view.Actions)
}

func TestTogglePromoter_BlocksSession(t *testing.T) {
	s := newTestServer(t)
	promoter, id := signUp(t, s, "ana@portal.test", "Ana")
	admin := login(t, s, "admin@portal.test", "admin123")

	w, env := call(t, s, http.MethodPost, "/api/admin/promoters/"+id+"/toggle", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Promotor desativado", env.Message)

	w, _ = call(t, s, http.MethodGet, "/api/dashboard", promoter, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = call(t, s, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "ana@portal.test", Password: "segredo1"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = call(t, s, http.MethodPost, "/api/admin/promoters/"+id+"/toggle", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Promotor ativado", env.Message)
}

func postCertificate(t *testing.T, s *Server, token, filename string, content []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("start_date", "2024-05-01"))
	require.NoError(t, mw.WriteField("end_date", "2024-05-02"))
	require.NoError(t, mw.WriteField("reason", "Gripe"))
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/requests/medical-certificates", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestSubmitMedicalCertificate_RejectsUnsupportedFile(t *testing.T) {
	s := newTestServer(t)
	token, _ := signUp(t, s, "ana@portal.test", "Ana")

	w, env := postCertificate(t, s, token, "atestado.txt", []byte("isto não é um pdf"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Formato de arquivo não suportado. Envie PDF, JPG ou PNG.", env.Message)
}

func TestSubmitMedicalCertificate_BodyOverLimit(t *testing.T) {
	s := newTestServer(t)
	token, _ := signUp(t, s, "ana@portal.test", "Ana")

	w, env := postCertificate(t, s, token, "atestado.pdf", bytes.Repeat([]byte("a"), 7<<20))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "O arquivo deve ter no máximo 5 MB.", env.Message)
}

func TestUploadBindError(t *testing.T) {
	err := uploadBindError(fmt.Errorf("multipart: NextPart: %w", &http.MaxBytesError{Limit: 6 << 20}), 5<<20)
	assert.True(t, ierr.IsValidation(err))
	assert.Equal(t, "O arquivo deve ter no máximo 5 MB.", ierr.UserMessage(err))

	err = uploadBindError(errors.New("unexpected EOF"), 5<<20)
	assert.Equal(t, "Dados inválidos. Verifique o formulário.", ierr.UserMessage(err))
}

func TestExportPending(t *testing.T) {
	s := newTestServer(t)
	promoter, _ := signUp(t, s, "ana@portal.test", "Ana")
	admin := login(t, s, "admin@portal.test", "admin123")
	_, _ = call(t, s, http.MethodPost, "/api/requests/mileage", promoter, map[string]any{"kilometers": "12"})

	w, _ := call(t, s, http.MethodGet, "/api/admin/requests/export", admin, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "pendentes-")
	// xlsx is a zip archive
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestParseFilter(t *testing.T) {
	f, err := parseFilter("cash_advance, meal_voucher", "pending", "20")
	require.NoError(t, err)
	assert.Equal(t, []entity.Kind{entity.KindCashAdvance, entity.KindMealVoucher}, f.Kinds)
	assert.Equal(t, []entity.Status{entity.StatusPending}, f.Statuses)
	assert.Equal(t, 20, f.Limit)

	f, err = parseFilter("", "", "")
	require.NoError(t, err)
	assert.Equal(t, defaultListLimit, f.Limit)

	_, err = parseFilter("boleto", "", "")
	assert.Error(t, err)
	_, err = parseFilter("", "", "-1")
	assert.Error(t, err)
}
