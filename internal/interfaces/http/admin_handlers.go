package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/promoter-portal/internal/application/workflow"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminDashboard handles GET /api/admin/dashboard
func (h *Handlers) AdminDashboard(c *gin.Context) {
	dash, err := h.services.Dashboard.Admin(c.Request.Context(), sessionFrom(c))
	if err != nil {
		h.logFailure(c, "Failed to load admin dashboard", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", dash)
}

// AdminListRequests handles GET /api/admin/requests
func (h *Handlers) AdminListRequests(c *gin.Context) {
	f, err := parseFilter(c.Query("kind"), c.Query("status"), c.Query("limit"))
	if err != nil {
		respondError(c, err)
		return
	}

	items, err := h.services.Dashboard.AdminRequests(c.Request.Context(), sessionFrom(c), f)
	if err != nil {
		h.logFailure(c, "Failed to list requests", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", items)
}

// ExportPending handles GET /api/admin/requests/export
func (h *Handlers) ExportPending(c *gin.Context) {
	content, err := h.services.Dashboard.ExportPending(c.Request.Context(), sessionFrom(c))
	if err != nil {
		h.logFailure(c, "Failed to export pending requests", err)
		respondError(c, err)
		return
	}

	name := fmt.Sprintf("pendentes-%s.xlsx", time.Now().In(h.location).Format(dateLayout))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, content)
}

// Approve handles POST /api/admin/requests/:id/approve
func (h *Handlers) Approve(c *gin.Context) {
	var req ApproveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, bindError(err))
			return
		}
	}

	r, err := h.services.Workflow.Approve(c.Request.Context(), sessionFrom(c), c.Param("id"), workflow.ApproveInput{
		Notes:         req.Notes,
		ApprovedValue: req.ApprovedValue,
	})
	if err != nil {
		h.logFailure(c, "Failed to approve request", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Solicitação aprovada com sucesso!", DecisionView{Request: r, StatusLabel: r.Base().Status.Label()})
}

// Reject handles POST /api/admin/requests/:id/reject
func (h *Handlers) Reject(c *gin.Context) {
	var req RejectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, bindError(err))
			return
		}
	}

	r, err := h.services.Workflow.Reject(c.Request.Context(), sessionFrom(c), c.Param("id"), workflow.RejectInput{Notes: req.Notes})
	if err != nil {
		h.logFailure(c, "Failed to reject request", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Solicitação recusada.", DecisionView{Request: r, StatusLabel: r.Base().Status.Label()})
}

// History handles GET /api/admin/requests/:id/history
func (h *Handlers) History(c *gin.Context) {
	rows, err := h.services.Workflow.History(c.Request.Context(), sessionFrom(c), c.Param("id"))
	if err != nil {
		h.logFailure(c, "Failed to load approval history", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", rows)
}

// ListPromoters handles GET /api/admin/promoters
func (h *Handlers) ListPromoters(c *gin.Context) {
	profiles, err := h.services.Roster.List(c.Request.Context(), sessionFrom(c))
	if err != nil {
		h.logFailure(c, "Failed to list promoters", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", profileViews(profiles))
}

// TogglePromoter handles POST /api/admin/promoters/:id/toggle
func (h *Handlers) TogglePromoter(c *gin.Context) {
	result, err := h.services.Roster.Toggle(c.Request.Context(), sessionFrom(c), c.Param("id"))
	if err != nil {
		h.logFailure(c, "Failed to toggle promoter", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result.Message, ProfileView{Profile: result.Profile, StatusLabel: result.Profile.StatusLabel()})
}

// SetRole handles PUT /api/admin/users/:id/role
func (h *Handlers) SetRole(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	profile, err := h.services.Roster.SetRole(c.Request.Context(), sessionFrom(c), c.Param("id"), entity.Role(req.Role))
	if err != nil {
		h.logFailure(c, "Failed to change role", err)
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Perfil de acesso atualizado.", profile)
}
