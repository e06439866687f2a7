package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"investcore/internal/auth"
	"investcore/internal/repository"
	"investcore/internal/service"
)

// InvestmentHandler is the self-service surface: list and inspect your own
// investments, purchase new ones, and cash out early.
type InvestmentHandler struct {
	Repo      repository.Repository
	Purchases *service.PurchaseService
	Lifecycle *service.LifecycleService
}

func (h *InvestmentHandler) Register(g *gin.RouterGroup) {
	group := g.Group("/investments")
	group.GET("", h.list)
	group.POST("", h.purchase)
	group.GET("/:id", h.get)
	group.POST("/:id/complete", h.complete)
}

func (h *InvestmentHandler) list(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing identity", nil)
		return
	}
	params := repository.ListInvestmentsParams{OwnerID: &claims.UserID}
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

func (h *InvestmentHandler) get(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing identity", nil)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, err := h.Repo.GetInvestmentByID(c.Request.Context(), id)
	if err != nil || item == nil {
		Error(c, http.StatusNotFound, "investment not found", nil)
		return
	}
	if item.OwnerID != claims.UserID && !claims.IsAdmin() {
		Error(c, http.StatusForbidden, "not your investment", nil)
		return
	}
	Ok(c, item, nil)
}

type purchaseRequest struct {
	PlanID *uint64 `json:"plan_id"`
	Amount string  `json:"amount"`
}

func (h *InvestmentHandler) purchase(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing identity", nil)
		return
	}
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		Error(c, http.StatusBadRequest, "amount must be a decimal string", nil)
		return
	}
	item, err := h.Purchases.Purchase(c.Request.Context(), claims.UserID, req.PlanID, amount)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, item, nil)
}

func (h *InvestmentHandler) complete(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing identity", nil)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	result, err := h.Lifecycle.Complete(c.Request.Context(), id, claims.UserID, claims.IsAdmin())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, result, nil)
}
