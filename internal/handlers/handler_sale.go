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

// saleHandler handles HTTP requests for property sales.
type saleHandler struct {
	saleService      portssvc.SaleSvcFacade
	affiliateService portssvc.AffiliateSvcFacade
	userService      portssvc.UserSvcFacade
}

func newSaleHandler(ss portssvc.SaleSvcFacade, as portssvc.AffiliateSvcFacade, us portssvc.UserSvcFacade) *saleHandler {
	return &saleHandler{
		saleService:      ss,
		affiliateService: as,
		userService:      us,
	}
}

// registerSaleRoutes registers property sale routes. Recording and verifying
// sales are admin operations; affiliates can read their own.
func registerSaleRoutes(rg *gin.RouterGroup, ss portssvc.SaleSvcFacade, as portssvc.AffiliateSvcFacade, us portssvc.UserSvcFacade) {
	h := newSaleHandler(ss, as, us)

	sales := rg.Group("/sales")
	{
		sales.POST("", h.recordSale)
		sales.GET("/:id", h.getSale)
		sales.POST("/:id/verify", h.verifySale)
	}
	rg.GET("/affiliates/:id/sales", h.listSalesByAffiliate)
}

// recordSale godoc
// @Summary Record a property sale
// @Description Registers an unverified sale credited to an affiliate (admin only)
// @Tags sales
// @Accept json
// @Produce json
// @Param sale body dto.RecordSaleRequest true "Sale details"
// @Success 201 {object} dto.SaleResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /sales [post]
func (h *saleHandler) recordSale(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	admin, ok := requireAdmin(c, h.userService)
	if !ok {
		return
	}

	var req dto.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	sale, err := h.saleService.RecordSale(c.Request.Context(), req, admin.UserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Affiliate not found"})
		default:
			logger.Error("Failed to record sale", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to record sale"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToSaleResponse(sale))
}

// getSale godoc
// @Summary Get a property sale by ID
// @Tags sales
// @Produce json
// @Param id path string true "Sale ID"
// @Success 200 {object} dto.SaleResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /sales/{id} [get]
func (h *saleHandler) getSale(c *gin.Context) {
	sale, err := h.saleService.GetSaleByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sale not found"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to get sale", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve sale"})
		return
	}

	if !canAccessAffiliate(c, h.userService, h.affiliateService, sale.AffiliateID) {
		return
	}
	c.JSON(http.StatusOK, dto.ToSaleResponse(sale))
}

// listSalesByAffiliate godoc
// @Summary List sales credited to an affiliate
// @Tags sales
// @Produce json
// @Param id path string true "Affiliate ID"
// @Success 200 {array} dto.SaleResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /affiliates/{id}/sales [get]
func (h *saleHandler) listSalesByAffiliate(c *gin.Context) {
	affiliateID := c.Param("id")
	if !canAccessAffiliate(c, h.userService, h.affiliateService, affiliateID) {
		return
	}

	sales, err := h.saleService.ListSalesByAffiliate(c.Request.Context(), affiliateID)
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to list sales", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list sales"})
		return
	}

	responses := make([]dto.SaleResponse, len(sales))
	for i := range sales {
		responses[i] = dto.ToSaleResponse(&sales[i])
	}
	c.JSON(http.StatusOK, responses)
}

// verifySale godoc
// @Summary Verify a property sale
// @Description Marks a sale verified exactly once and distributes commissions against the recorded amount (admin only)
// @Tags sales
// @Produce json
// @Param id path string true "Sale ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /sales/{id}/verify [post]
func (h *saleHandler) verifySale(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	saleID := c.Param("id")

	admin, ok := requireAdmin(c, h.userService)
	if !ok {
		return
	}

	logs, err := h.saleService.VerifySale(c.Request.Context(), saleID, admin.UserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sale not found"})
		case errors.Is(err, apperrors.ErrDuplicate):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Sale is already verified"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Distribution contention, please retry"})
		default:
			logger.Error("Failed to verify sale", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to verify sale"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"saleID": saleID, "payouts": len(logs)})
}
