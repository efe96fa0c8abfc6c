package http

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/garyjia/promoter-portal/internal/application/service"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services       Services
	maxUploadBytes int64
	location       *time.Location
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, cfg ServerConfig, logger Logger) *Handlers {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handlers{
		services:       services,
		maxUploadBytes: cfg.MaxUploadBytes,
		location:       loc,
		logger:         logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	if h.services.Health != nil {
		if err := h.services.Health.Ping(c.Request.Context()); err != nil {
			h.logger.Error("Health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, HealthResponse{
				Status:    "unhealthy",
				Timestamp: time.Now().Format(time.RFC3339),
			})
			return
		}
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// SignUp handles POST /api/auth/signup
func (h *Handlers) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	result, err := h.services.Auth.SignUp(c.Request.Context(), service.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
		Company:  req.Company,
	})
	if err != nil {
		h.logFailure(c, "Sign-up failed", err)
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Cadastro realizado com sucesso!", result)
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	result, err := h.services.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logFailure(c, "Login failed", err)
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "", result)
}

// GetProfile handles GET /api/me
func (h *Handlers) GetProfile(c *gin.Context) {
	profile, err := h.services.Profile.Get(c.Request.Context(), sessionFrom(c))
	if err != nil {
		h.logFailure(c, "Failed to load profile", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", ProfileView{Profile: profile, StatusLabel: profile.StatusLabel()})
}

// UpdateProfile handles PUT /api/me
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	profile, err := h.services.Profile.Update(c.Request.Context(), sessionFrom(c), req.toUpdate())
	if err != nil {
		h.logFailure(c, "Failed to update profile", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Perfil atualizado com sucesso!", profile)
}

// ChangePassword handles POST /api/me/password
func (h *Handlers) ChangePassword(c *gin.Context) {
	var req PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	if err := h.services.Profile.ChangePassword(c.Request.Context(), sessionFrom(c), req.Password, req.Confirmation); err != nil {
		h.logFailure(c, "Failed to change password", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Senha alterada com sucesso!", nil)
}

// PromoterDashboard handles GET /api/dashboard
func (h *Handlers) PromoterDashboard(c *gin.Context) {
	dash, err := h.services.Dashboard.Promoter(c.Request.Context(), sessionFrom(c))
	if err != nil {
		h.logFailure(c, "Failed to load dashboard", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", dash)
}

// SubmitCashAdvance handles POST /api/requests/cash-advances
func (h *Handlers) SubmitCashAdvance(c *gin.Context) {
	var req CashAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	date, err := parseDate(req.RequestDate, h.location)
	if err != nil {
		respondError(c, err)
		return
	}

	r, err := h.services.Submission.SubmitCashAdvance(c.Request.Context(), sessionFrom(c), service.CashAdvanceInput{
		Value:       req.Value,
		Reason:      req.Reason,
		Notes:       req.Notes,
		RequestDate: date,
	})
	if err != nil {
		h.logFailure(c, "Failed to submit cash advance", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "Solicitação de adiantamento enviada com sucesso!", r)
}

// SubmitMileage handles POST /api/requests/mileage
func (h *Handlers) SubmitMileage(c *gin.Context) {
	var req MileageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	date, err := parseDate(req.RequestDate, h.location)
	if err != nil {
		respondError(c, err)
		return
	}

	r, err := h.services.Submission.SubmitMileage(c.Request.Context(), sessionFrom(c), service.MileageInput{
		Kilometers:  req.Kilometers,
		RatePerKm:   req.RatePerKm,
		Origin:      req.Origin,
		Destination: req.Destination,
		Purpose:     req.Purpose,
		Notes:       req.Notes,
		RequestDate: date,
	})
	if err != nil {
		h.logFailure(c, "Failed to submit mileage reimbursement", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "Solicitação de reembolso de KM enviada com sucesso!", r)
}

// SubmitMealVoucher handles POST /api/requests/meal-vouchers
func (h *Handlers) SubmitMealVoucher(c *gin.Context) {
	var req MealVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	date, err := parseDate(req.RequestDate, h.location)
	if err != nil {
		respondError(c, err)
		return
	}

	r, err := h.services.Submission.SubmitMealVoucher(c.Request.Context(), sessionFrom(c), service.MealVoucherInput{
		Value:         req.Value,
		Place:         req.Place,
		Period:        req.Period,
		Justification: req.Justification,
		Notes:         req.Notes,
		RequestDate:   date,
	})
	if err != nil {
		h.logFailure(c, "Failed to submit meal voucher", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "Solicitação de vale refeição enviada com sucesso!", r)
}

// SubmitPurchaseOrder handles POST /api/requests/purchase-orders
func (h *Handlers) SubmitPurchaseOrder(c *gin.Context) {
	var req PurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	date, err := parseDate(req.RequestDate, h.location)
	if err != nil {
		respondError(c, err)
		return
	}
	in := service.PurchaseOrderInput{
		ExpenseType:    req.ExpenseType,
		Description:    req.Description,
		Justification:  req.Justification,
		Urgency:        req.Urgency,
		EstimatedValue: req.EstimatedValue,
		Notes:          req.Notes,
		RequestDate:    date,
	}
	if req.NeededBy != "" {
		neededBy, err := parseDate(req.NeededBy, h.location)
		if err != nil {
			respondError(c, err)
			return
		}
		in.NeededBy = &neededBy
	}

	r, err := h.services.Submission.SubmitPurchaseOrder(c.Request.Context(), sessionFrom(c), in)
	if err != nil {
		h.logFailure(c, "Failed to submit purchase order", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "Pedido de compra enviado com sucesso!", r)
}

// SubmitMedicalCertificate handles the multipart POST /api/requests/medical-certificates
func (h *Handlers) SubmitMedicalCertificate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+(1<<20))

	var form CertificateForm
	if err := c.ShouldBind(&form); err != nil {
		respondError(c, uploadBindError(err, h.maxUploadBytes))
		return
	}
	start, err := parseDate(form.StartDate, h.location)
	if err != nil {
		respondError(c, err)
		return
	}
	end, err := parseDate(form.EndDate, h.location)
	if err != nil {
		respondError(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, ierr.WithError(err).WithHint("Anexe o arquivo do atestado.").Mark(ierr.ErrValidation))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, ierr.WithError(err).WithHint("Não foi possível ler o arquivo enviado.").Mark(ierr.ErrValidation))
		return
	}
	defer f.Close()

	// one extra byte lets the inspector tell an oversized file apart
	content, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		respondError(c, ierr.WithError(err).WithHint("Não foi possível ler o arquivo enviado.").Mark(ierr.ErrValidation))
		return
	}

	r, err := h.services.Submission.SubmitMedicalCertificate(c.Request.Context(), sessionFrom(c), service.MedicalCertificateInput{
		StartDate:       start,
		EndDate:         end,
		Reason:          form.Reason,
		CertificateType: form.CertificateType,
		CID:             form.CID,
		DoctorName:      form.DoctorName,
		DoctorCRM:       form.DoctorCRM,
		Notes:           form.Notes,
	}, service.UploadedFile{Name: fh.Filename, Content: content})
	if err != nil {
		h.logFailure(c, "Failed to submit medical certificate", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "Atestado enviado com sucesso!", r)
}

// ListMyRequests handles GET /api/requests
func (h *Handlers) ListMyRequests(c *gin.Context) {
	f, err := parseFilter(c.Query("kind"), c.Query("status"), c.Query("limit"))
	if err != nil {
		respondError(c, err)
		return
	}

	requests, err := h.services.Submission.ListMine(c.Request.Context(), sessionFrom(c), f)
	if err != nil {
		h.logFailure(c, "Failed to list requests", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", requests)
}

// GetRequest handles GET /api/requests/:id. Admins may read any request.
func (h *Handlers) GetRequest(c *gin.Context) {
	sess := sessionFrom(c)
	r, err := h.services.Submission.Get(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.logFailure(c, "Failed to load request", err)
		respondError(c, err)
		return
	}

	base := r.Base()
	respondOK(c, http.StatusOK, "", RequestView{
		Request:     r,
		KindLabel:   base.Kind.Label(),
		StatusLabel: base.Status.Label(),
		Actions:     h.services.Workflow.AvailableActions(sess, r),
	})
}

// CertificateFileURL handles GET /api/requests/:id/file
func (h *Handlers) CertificateFileURL(c *gin.Context) {
	link, err := h.services.Certificates.FileURL(c.Request.Context(), sessionFrom(c), c.Param("id"))
	if err != nil {
		h.logFailure(c, "Failed to sign certificate link", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", link)
}

// DownloadFile handles GET /files?token= for the local storage backend
func (h *Handlers) DownloadFile(c *gin.Context) {
	key, err := h.services.Files.Redeem(c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	content, err := h.services.Files.Get(c.Request.Context(), key)
	if err != nil {
		h.logFailure(c, "Failed to read stored file", err)
		respondError(c, err)
		return
	}

	contentType := "application/octet-stream"
	if kind, err := filetype.Match(content); err == nil && kind != filetype.Unknown {
		contentType = kind.MIME.Value
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, contentType, content)
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	unread := c.Query("unread") == "true"
	items, err := h.services.Notifications.List(c.Request.Context(), sessionFrom(c), unread)
	if err != nil {
		h.logFailure(c, "Failed to list notifications", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", items)
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	if err := h.services.Notifications.MarkRead(c.Request.Context(), sessionFrom(c), c.Param("id")); err != nil {
		h.logFailure(c, "Failed to mark notification", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", nil)
}
