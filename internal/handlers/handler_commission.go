package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kalestates/kal_affiliate_app/internal/apperrors"
	portssvc "github.com/kalestates/kal_affiliate_app/internal/core/ports/services"
	"github.com/kalestates/kal_affiliate_app/internal/dto"
	"github.com/kalestates/kal_affiliate_app/internal/middleware"
)

// commissionHandler exposes the commission ledger audit surface.
type commissionHandler struct {
	commissionService portssvc.CommissionSvcFacade
	affiliateService  portssvc.AffiliateSvcFacade
	userService       portssvc.UserSvcFacade
}

func newCommissionHandler(cs portssvc.CommissionSvcFacade, as portssvc.AffiliateSvcFacade, us portssvc.UserSvcFacade) *commissionHandler {
	return &commissionHandler{
		commissionService: cs,
		affiliateService:  as,
		userService:       us,
	}
}

// registerCommissionRoutes registers ledger audit and admin routes.
func registerCommissionRoutes(rg *gin.RouterGroup, cs portssvc.CommissionSvcFacade, as portssvc.AffiliateSvcFacade, us portssvc.UserSvcFacade) {
	h := newCommissionHandler(cs, as, us)

	commissions := rg.Group("/commissions")
	{
		commissions.GET("/:id", h.getCommission)
		commissions.DELETE("/:id", h.deleteCommission)
	}
	rg.GET("/admin/reconciliation", h.reconcile)
}

// getCommission godoc
// @Summary Get a commission ledger entry
// @Description Retrieves one ledger entry with its integrity state recomputed from the seal
// @Tags commissions
// @Produce json
// @Param id path string true "Commission ID"
// @Success 200 {object} dto.AuditedCommission
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /commissions/{id} [get]
func (h *commissionHandler) getCommission(c *gin.Context) {
	entry, err := h.commissionService.GetCommission(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Commission not found"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to get commission", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve commission"})
		return
	}

	if !canAccessAffiliate(c, h.userService, h.affiliateService, entry.RecipientAffiliateID) {
		return
	}
	c.JSON(http.StatusOK, entry)
}

// deleteCommission godoc
// @Summary Delete a commission ledger entry
// @Description Admin-only override for removing fraudulent ledger entries
// @Tags commissions
// @Produce json
// @Param id path string true "Commission ID"
// @Success 204 "No Content"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /commissions/{id} [delete]
func (h *commissionHandler) deleteCommission(c *gin.Context) {
	admin, ok := requireAdmin(c, h.userService)
	if !ok {
		return
	}

	if err := h.commissionService.DeleteCommission(c.Request.Context(), c.Param("id"), admin.UserID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Commission not found"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to delete commission", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete commission"})
		return
	}

	c.Status(http.StatusNoContent)
}

// reconcile godoc
// @Summary Reconcile balances against the ledger
// @Description Cross-checks every stored balance against the sum of its commission credits minus approved withdrawals (admin only)
// @Tags commissions
// @Produce json
// @Success 200 {array} dto.ReconciliationResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/reconciliation [get]
func (h *commissionHandler) reconcile(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	if _, ok := requireAdmin(c, h.userService); !ok {
		return
	}

	rows, err := h.commissionService.Reconcile(c.Request.Context())
	if err != nil {
		logger.Error("Reconciliation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Reconciliation failed"})
		return
	}

	responses := make([]dto.ReconciliationResponse, len(rows))
	for i, row := range rows {
		responses[i] = dto.ReconciliationResponse{
			AffiliateID:     row.AffiliateID,
			StoredBalance:   row.StoredBalance,
			ComputedBalance: row.ComputedBalance,
			Balanced:        row.Balanced(),
		}
		if !row.Balanced() {
			logger.Error("Balance mismatch detected during reconciliation",
				slog.String("affiliate_id", row.AffiliateID),
				slog.String("stored", row.StoredBalance.String()),
				slog.String("computed", row.ComputedBalance.String()),
			)
		}
	}

	c.JSON(http.StatusOK, responses)
}
