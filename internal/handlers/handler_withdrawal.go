package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kalestates/kal_affiliate_app/internal/apperrors"
	portssvc "github.com/kalestates/kal_affiliate_app/internal/core/ports/services"
	"github.com/kalestates/kal_affiliate_app/internal/dto"
	"github.com/kalestates/kal_affiliate_app/internal/middleware"
)

// withdrawalHandler handles HTTP requests for payouts and account statements.
type withdrawalHandler struct {
	withdrawalService portssvc.WithdrawalSvcFacade
	affiliateService  portssvc.AffiliateSvcFacade
	userService       portssvc.UserSvcFacade
}

func newWithdrawalHandler(ws portssvc.WithdrawalSvcFacade, as portssvc.AffiliateSvcFacade, us portssvc.UserSvcFacade) *withdrawalHandler {
	return &withdrawalHandler{
		withdrawalService: ws,
		affiliateService:  as,
		userService:       us,
	}
}

// registerWithdrawalRoutes registers withdrawal and statement routes.
func registerWithdrawalRoutes(rg *gin.RouterGroup, ws portssvc.WithdrawalSvcFacade, as portssvc.AffiliateSvcFacade, us portssvc.UserSvcFacade) {
	h := newWithdrawalHandler(ws, as, us)

	withdrawals := rg.Group("/withdrawals")
	{
		withdrawals.POST("", h.requestWithdrawal)
		withdrawals.GET("/:id", h.getWithdrawal)
		withdrawals.POST("/:id/approve", h.approveWithdrawal)
		withdrawals.POST("/:id/reject", h.rejectWithdrawal)
	}
	rg.GET("/affiliates/:id/withdrawals", h.listWithdrawals)
	rg.GET("/affiliates/:id/statement", h.getStatement)
}

// requestWithdrawal godoc
// @Summary Request a withdrawal
// @Description Files a pending payout request against the caller's balance
// @Tags withdrawals
// @Accept json
// @Produce json
// @Param withdrawal body dto.RequestWithdrawalRequest true "Withdrawal details"
// @Success 201 {object} dto.WithdrawalResponse
// @Failure 400 {object} ErrorResponse
// @Failure 402 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /withdrawals [post]
func (h *withdrawalHandler) requestWithdrawal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req dto.RequestWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	withdrawal, err := h.withdrawalService.RequestWithdrawal(c.Request.Context(), req, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, apperrors.ErrInsufficientBalance):
			c.JSON(http.StatusPaymentRequired, ErrorResponse{Error: err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No membership found"})
		default:
			logger.Error("Failed to request withdrawal", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to request withdrawal"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToWithdrawalResponse(withdrawal))
}

// getWithdrawal godoc
// @Summary Get a withdrawal by ID
// @Tags withdrawals
// @Produce json
// @Param id path string true "Withdrawal ID"
// @Success 200 {object} dto.WithdrawalResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /withdrawals/{id} [get]
func (h *withdrawalHandler) getWithdrawal(c *gin.Context) {
	withdrawal, err := h.withdrawalService.GetWithdrawalByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Withdrawal not found"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to get withdrawal", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve withdrawal"})
		return
	}

	if !canAccessAffiliate(c, h.userService, h.affiliateService, withdrawal.AffiliateID) {
		return
	}
	c.JSON(http.StatusOK, dto.ToWithdrawalResponse(withdrawal))
}

// listWithdrawals godoc
// @Summary List withdrawals for an affiliate
// @Tags withdrawals
// @Produce json
// @Param id path string true "Affiliate ID"
// @Success 200 {array} dto.WithdrawalResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /affiliates/{id}/withdrawals [get]
func (h *withdrawalHandler) listWithdrawals(c *gin.Context) {
	affiliateID := c.Param("id")
	if !canAccessAffiliate(c, h.userService, h.affiliateService, affiliateID) {
		return
	}

	withdrawals, err := h.withdrawalService.ListWithdrawalsByAffiliate(c.Request.Context(), affiliateID)
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to list withdrawals", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list withdrawals"})
		return
	}

	responses := make([]dto.WithdrawalResponse, len(withdrawals))
	for i := range withdrawals {
		responses[i] = dto.ToWithdrawalResponse(&withdrawals[i])
	}
	c.JSON(http.StatusOK, responses)
}

// approveWithdrawal godoc
// @Summary Approve a withdrawal
// @Description Debits the affiliate's balance and flips the request to APPROVED atomically (admin only)
// @Tags withdrawals
// @Produce json
// @Param id path string true "Withdrawal ID"
// @Success 204 "No Content"
// @Failure 402 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /withdrawals/{id}/approve [post]
func (h *withdrawalHandler) approveWithdrawal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	admin, ok := requireAdmin(c, h.userService)
	if !ok {
		return
	}

	if err := h.withdrawalService.ApproveWithdrawal(c.Request.Context(), c.Param("id"), admin.UserID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Withdrawal not found"})
		case errors.Is(err, apperrors.ErrDuplicate):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Withdrawal is already processed"})
		case errors.Is(err, apperrors.ErrInsufficientBalance):
			c.JSON(http.StatusPaymentRequired, ErrorResponse{Error: "Insufficient balance"})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Contention, please retry"})
		default:
			logger.Error("Failed to approve withdrawal", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to approve withdrawal"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// rejectWithdrawal godoc
// @Summary Reject a withdrawal
// @Tags withdrawals
// @Produce json
// @Param id path string true "Withdrawal ID"
// @Success 204 "No Content"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /withdrawals/{id}/reject [post]
func (h *withdrawalHandler) rejectWithdrawal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	admin, ok := requireAdmin(c, h.userService)
	if !ok {
		return
	}

	if err := h.withdrawalService.RejectWithdrawal(c.Request.Context(), c.Param("id"), admin.UserID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Withdrawal not found"})
		case errors.Is(err, apperrors.ErrDuplicate):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Withdrawal is already processed"})
		default:
			logger.Error("Failed to reject withdrawal", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to reject withdrawal"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// getStatement godoc
// @Summary Get an affiliate's account statement
// @Description Lists commission credits and withdrawal debits in reverse chronological order
// @Tags withdrawals
// @Produce json
// @Param id path string true "Affiliate ID"
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Pagination cursor"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /affiliates/{id}/statement [get]
func (h *withdrawalHandler) getStatement(c *gin.Context) {
	affiliateID := c.Param("id")
	if !canAccessAffiliate(c, h.userService, h.affiliateService, affiliateID) {
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	var nextToken *string
	if raw := c.Query("nextToken"); raw != "" {
		nextToken = &raw
	}

	entries, next, err := h.withdrawalService.GetStatement(c.Request.Context(), affiliateID, limit, nextToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid pagination token"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to get statement", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve statement"})
		return
	}

	responses := make([]dto.StatementEntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = dto.StatementEntryResponse{
			EntryID:     entry.EntryID,
			Amount:      entry.Amount,
			EntryType:   entry.EntryType,
			Description: entry.Description,
			CreatedAt:   entry.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"entries": responses, "nextToken": next})
}
