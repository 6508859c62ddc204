package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kalestates/kal_affiliate_app/internal/apperrors"
	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	portssvc "github.com/kalestates/kal_affiliate_app/internal/core/ports/services"
	"github.com/kalestates/kal_affiliate_app/internal/dto"
	"github.com/kalestates/kal_affiliate_app/internal/middleware"
)

// affiliateHandler handles HTTP requests for memberships and the referral graph.
type affiliateHandler struct {
	affiliateService  portssvc.AffiliateSvcFacade
	commissionService portssvc.CommissionSvcFacade
	userService       portssvc.UserSvcFacade
}

func newAffiliateHandler(as portssvc.AffiliateSvcFacade, cs portssvc.CommissionSvcFacade, us portssvc.UserSvcFacade) *affiliateHandler {
	return &affiliateHandler{
		affiliateService:  as,
		commissionService: cs,
		userService:       us,
	}
}

// registerAffiliateRoutes registers routes related to affiliate memberships.
func registerAffiliateRoutes(rg *gin.RouterGroup, as portssvc.AffiliateSvcFacade, cs portssvc.CommissionSvcFacade, us portssvc.UserSvcFacade) {
	h := newAffiliateHandler(as, cs, us)

	affiliates := rg.Group("/affiliates")
	{
		affiliates.POST("", h.registerAffiliate)
		affiliates.GET("/me", h.getOwnAffiliate)
		affiliates.GET("/:id", h.getAffiliate)
		affiliates.GET("/:id/downline", h.getDownline)
		affiliates.GET("/:id/upline", h.getUplineChain)
		affiliates.GET("/:id/commissions", h.listCommissions)
		affiliates.POST("/:id/activate", h.confirmActivation)
	}
}

// registerAffiliate godoc
// @Summary Register an affiliate membership
// @Description Creates an inactive membership for the logged-in user under the referrer named by the referral code
// @Tags affiliates
// @Accept json
// @Produce json
// @Param affiliate body dto.RegisterAffiliateRequest true "Membership details"
// @Success 201 {object} dto.AffiliateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /affiliates [post]
func (h *affiliateHandler) registerAffiliate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RegisterAffiliateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	affiliate, err := h.affiliateService.RegisterAffiliate(c.Request.Context(), req, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, apperrors.ErrDuplicate):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "User already has a membership"})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			logger.Error("Failed to register affiliate", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to register affiliate"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToAffiliateResponse(affiliate))
}

// getOwnAffiliate godoc
// @Summary Get own membership
// @Description Retrieves the logged-in user's affiliate membership
// @Tags affiliates
// @Produce json
// @Success 200 {object} dto.AffiliateResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /affiliates/me [get]
func (h *affiliateHandler) getOwnAffiliate(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	affiliate, err := h.affiliateService.GetAffiliateByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "No membership found"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to get own affiliate", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve membership"})
		return
	}

	c.JSON(http.StatusOK, dto.ToAffiliateResponse(affiliate))
}

// getAffiliate godoc
// @Summary Get an affiliate by ID
// @Tags affiliates
// @Produce json
// @Param id path string true "Affiliate ID"
// @Success 200 {object} dto.AffiliateResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /affiliates/{id} [get]
func (h *affiliateHandler) getAffiliate(c *gin.Context) {
	affiliateID := c.Param("id")
	if !canAccessAffiliate(c, h.userService, h.affiliateService, affiliateID) {
		return
	}

	affiliate, err := h.affiliateService.GetAffiliateByID(c.Request.Context(), affiliateID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Affiliate not found"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to get affiliate", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve affiliate"})
		return
	}

	c.JSON(http.StatusOK, dto.ToAffiliateResponse(affiliate))
}

// getDownline godoc
// @Summary List direct downline
// @Description Lists the affiliates directly referred by the given affiliate
// @Tags affiliates
// @Produce json
// @Param id path string true "Affiliate ID"
// @Success 200 {object} dto.ListAffiliatesResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /affiliates/{id}/downline [get]
func (h *affiliateHandler) getDownline(c *gin.Context) {
	affiliateID := c.Param("id")
	if !canAccessAffiliate(c, h.userService, h.affiliateService, affiliateID) {
		return
	}

	downline, err := h.affiliateService.GetDownline(c.Request.Context(), affiliateID)
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to list downline", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list downline"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListAffiliatesResponse(downline))
}

// getUplineChain godoc
// @Summary List the upline chain
// @Description Walks the referral chain upward, at most 3 generations
// @Tags affiliates
// @Produce json
// @Param id path string true "Affiliate ID"
// @Param depth query int false "Max generations to walk" default(3)
// @Success 200 {object} dto.ListAffiliatesResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /affiliates/{id}/upline [get]
func (h *affiliateHandler) getUplineChain(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	affiliateID := c.Param("id")
	if !canAccessAffiliate(c, h.userService, h.affiliateService, affiliateID) {
		return
	}

	depth := domain.MaxCommissionGenerations
	if raw := c.Query("depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid depth parameter"})
			return
		}
		if parsed < depth {
			depth = parsed
		}
	}

	chain, err := h.affiliateService.GetUplineChain(c.Request.Context(), affiliateID, depth)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Affiliate not found"})
		case errors.Is(err, apperrors.ErrGraphAnomaly):
			logger.Error("Referral graph anomaly detected", slog.String("affiliate_id", affiliateID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Referral graph anomaly detected"})
		default:
			logger.Error("Failed to walk upline chain", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to walk upline chain"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToListAffiliatesResponse(chain))
}

// listCommissions godoc
// @Summary List commissions received by an affiliate
// @Description Lists commission ledger entries with their integrity state
// @Tags affiliates
// @Produce json
// @Param id path string true "Affiliate ID"
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Pagination cursor"
// @Success 200 {object} dto.ListCommissionsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /affiliates/{id}/commissions [get]
func (h *affiliateHandler) listCommissions(c *gin.Context) {
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

	commissions, next, err := h.commissionService.ListForRecipient(c.Request.Context(), affiliateID, limit, nextToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid pagination token"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to list commissions", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list commissions"})
		return
	}

	c.JSON(http.StatusOK, dto.ListCommissionsResponse{Commissions: commissions, NextToken: next})
}

// confirmActivation godoc
// @Summary Confirm package payment and activate a membership
// @Description Admin confirms payment; the membership goes active and commissions are distributed up the referral chain
// @Tags affiliates
// @Produce json
// @Param id path string true "Affiliate ID"
// @Success 200 {object} dto.ListCommissionsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /affiliates/{id}/activate [post]
func (h *affiliateHandler) confirmActivation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	affiliateID := c.Param("id")

	admin, ok := requireAdmin(c, h.userService)
	if !ok {
		return
	}

	logs, err := h.affiliateService.ConfirmActivation(c.Request.Context(), affiliateID, admin.UserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Affiliate not found"})
		case errors.Is(err, apperrors.ErrDuplicate):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Membership is already active"})
		case errors.Is(err, apperrors.ErrGraphAnomaly):
			logger.Error("Referral graph anomaly during activation", slog.String("affiliate_id", affiliateID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Referral graph anomaly detected"})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Distribution contention, please retry"})
		default:
			logger.Error("Failed to confirm activation", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to confirm activation"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"affiliateID": affiliateID, "payouts": len(logs)})
}
