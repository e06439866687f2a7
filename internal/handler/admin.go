package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"investcore/internal/models"
	"investcore/internal/repository"
	"investcore/internal/service"
)

// AdminHandler is the operator surface: lifecycle decisions on investments,
// plan management, and on-demand sweep runs. Mount behind RequireAdmin.
type AdminHandler struct {
	Repo      repository.Repository
	Lifecycle *service.LifecycleService
	Sweeper   *service.Sweeper
}

func (h *AdminHandler) Register(g *gin.RouterGroup) {
	g.GET("/investments", h.listInvestments)
	g.POST("/investments/:id/approve", h.approve)
	g.POST("/investments/:id/reject", h.reject)
	g.POST("/investments/:id/suspend", h.suspend)
	g.POST("/investments/:id/resume", h.resume)
	g.POST("/investments/:id/status", h.forceStatus)

	g.POST("/sweep", h.runSweep)
	g.GET("/sweeps", h.sweepStates)
	g.GET("/accruals", h.listAccruals)

	g.GET("/plans", h.listPlans)
	g.POST("/plans", h.upsertPlan)
	g.POST("/plans/:id/status", h.setPlanStatus)
}

func (h *AdminHandler) listInvestments(c *gin.Context) {
	params := repository.ListInvestmentsParams{}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		params.Status = &status
	}
	items, err := h.Repo.ListInvestments(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, "list failed", nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

func (h *AdminHandler) approve(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, err := h.Lifecycle.Approve(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, item, nil)
}

func (h *AdminHandler) reject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.Lifecycle.Reject(c.Request.Context(), id); err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, gin.H{"status": models.InvestmentStatusRejected}, nil)
}

func (h *AdminHandler) suspend(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.Lifecycle.Suspend(c.Request.Context(), id); err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, gin.H{"status": models.InvestmentStatusSuspended}, nil)
}

func (h *AdminHandler) resume(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.Lifecycle.Resume(c.Request.Context(), id); err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, gin.H{"status": models.InvestmentStatusActive}, nil)
}

type forceStatusRequest struct {
	Status         string  `json:"status"`
	OverrideAmount *string `json:"override_amount"`
}

func (h *AdminHandler) forceStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req forceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	var override *decimal.Decimal
	if req.OverrideAmount != nil && strings.TrimSpace(*req.OverrideAmount) != "" {
		v, err := decimal.NewFromString(strings.TrimSpace(*req.OverrideAmount))
		if err != nil {
			Error(c, http.StatusBadRequest, "override_amount must be a decimal string", nil)
			return
		}
		override = &v
	}
	if err := h.Lifecycle.ForceStatus(c.Request.Context(), id, strings.TrimSpace(req.Status), override); err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, gin.H{"status": req.Status}, nil)
}

func (h *AdminHandler) runSweep(c *gin.Context) {
	result, err := h.Sweeper.RunOnce(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

func (h *AdminHandler) sweepStates(c *gin.Context) {
	items, err := h.Repo.ListSweepStates(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, "list failed", nil)
		return
	}
	Ok(c, items, nil)
}

func (h *AdminHandler) listAccruals(c *gin.Context) {
	params := repository.ListAccrualEventsParams{}
	if kind := strings.TrimSpace(c.Query("kind")); kind != "" {
		params.Kind = &kind
	}
	items, err := h.Repo.ListAccrualEvents(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, "list failed", nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

func (h *AdminHandler) listPlans(c *gin.Context) {
	items, err := h.Repo.ListPlans(c.Request.Context(), repository.ListPlansParams{})
	if err != nil {
		Error(c, http.StatusInternalServerError, "list failed", nil)
		return
	}
	Ok(c, items, nil)
}

type upsertPlanRequest struct {
	Name      string `json:"name"`
	MinAmount string `json:"min_amount"`
	MaxAmount string `json:"max_amount"`
	ROIPct    string `json:"roi_pct"`
	CycleDays int    `json:"cycle_days"`
}

func (h *AdminHandler) upsertPlan(c *gin.Context) {
	var req upsertPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		Error(c, http.StatusBadRequest, "name required", nil)
		return
	}
	minAmt, err1 := decimal.NewFromString(strings.TrimSpace(req.MinAmount))
	maxAmt, err2 := decimal.NewFromString(strings.TrimSpace(req.MaxAmount))
	roi, err3 := decimal.NewFromString(strings.TrimSpace(req.ROIPct))
	if err1 != nil || err2 != nil || err3 != nil {
		Error(c, http.StatusBadRequest, "amounts and roi_pct must be decimal strings", nil)
		return
	}
	days := req.CycleDays
	if days <= 0 {
		days = 7
	}
	item := &models.Plan{
		Name:      strings.TrimSpace(req.Name),
		MinAmount: minAmt,
		MaxAmount: maxAmt,
		ROIPct:    roi,
		CycleDays: days,
		Status:    models.PlanStatusActive,
	}
	if err := h.Repo.UpsertPlan(c.Request.Context(), item); err != nil {
		Error(c, http.StatusInternalServerError, "upsert failed", nil)
		return
	}
	Ok(c, item, nil)
}

type setPlanStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandler) setPlanStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req setPlanStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	status := strings.TrimSpace(req.Status)
	if status != models.PlanStatusActive && status != models.PlanStatusInactive {
		Error(c, http.StatusBadRequest, "status must be active or inactive", nil)
		return
	}
	if err := h.Repo.SetPlanStatus(c.Request.Context(), id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Error(c, http.StatusNotFound, "plan not found", nil)
			return
		}
		Error(c, http.StatusInternalServerError, "update failed", nil)
		return
	}
	Ok(c, gin.H{"status": status}, nil)
}
