package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"investcore/internal/auth"
	"investcore/internal/models"
	"investcore/internal/repository"
)

// ProfileHandler exposes the caller's own account: balance, accrual ledger,
// transaction history, and the purchasable plans.
type ProfileHandler struct {
	Repo repository.Repository
}

func (h *ProfileHandler) Register(g *gin.RouterGroup) {
	g.GET("/profile", h.profile)
	g.GET("/accruals", h.accruals)
	g.GET("/transactions", h.transactions)
	g.GET("/plans", h.plans)
}

func (h *ProfileHandler) profile(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing identity", nil)
		return
	}
	item, err := h.Repo.GetProfileByID(c.Request.Context(), claims.UserID)
	if err != nil || item == nil {
		Error(c, http.StatusNotFound, "profile not found", nil)
		return
	}
	Ok(c, item, nil)
}

func (h *ProfileHandler) accruals(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing identity", nil)
		return
	}
	params := repository.ListAccrualEventsParams{OwnerID: &claims.UserID}
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

func (h *ProfileHandler) transactions(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing identity", nil)
		return
	}
	params := repository.ListTransactionsParams{OwnerID: &claims.UserID}
	if kind := strings.TrimSpace(c.Query("kind")); kind != "" {
		params.Kind = &kind
	}
	items, err := h.Repo.ListTransactions(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, "list failed", nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

func (h *ProfileHandler) plans(c *gin.Context) {
	status := models.PlanStatusActive
	items, err := h.Repo.ListPlans(c.Request.Context(), repository.ListPlansParams{Status: &status})
	if err != nil {
		Error(c, http.StatusInternalServerError, "list failed", nil)
		return
	}
	Ok(c, items, nil)
}
