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

// packageHandler handles HTTP requests for the package catalog.
type packageHandler struct {
	packageService portssvc.PackageSvcFacade
	userService    portssvc.UserSvcFacade
}

func newPackageHandler(ps portssvc.PackageSvcFacade, us portssvc.UserSvcFacade) *packageHandler {
	return &packageHandler{packageService: ps, userService: us}
}

// registerPackageRoutes registers catalog routes. Reads are open to any
// authenticated user; writes are admin only.
func registerPackageRoutes(rg *gin.RouterGroup, ps portssvc.PackageSvcFacade, us portssvc.UserSvcFacade) {
	h := newPackageHandler(ps, us)

	packages := rg.Group("/packages")
	{
		packages.GET("", h.listPackages)
		packages.GET("/:id", h.getPackage)
		packages.POST("", h.createPackage)
		packages.PUT("/:id", h.updatePackage)
		packages.POST("/:id/publish", h.publishPackage)
	}
}

// listPackages godoc
// @Summary List packages
// @Description Lists catalog packages. Members see published packages only; admins can pass all=true.
// @Tags packages
// @Produce json
// @Param all query bool false "Include unpublished packages (admin only)"
// @Success 200 {array} dto.PackageResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /packages [get]
func (h *packageHandler) listPackages(c *gin.Context) {
	publishedOnly := true
	if c.Query("all") == "true" {
		if _, ok := requireAdmin(c, h.userService); !ok {
			return
		}
		publishedOnly = false
	}

	packages, err := h.packageService.ListPackages(c.Request.Context(), publishedOnly)
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to list packages", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list packages"})
		return
	}

	responses := make([]dto.PackageResponse, len(packages))
	for i := range packages {
		responses[i] = dto.ToPackageResponse(&packages[i])
	}
	c.JSON(http.StatusOK, responses)
}

// getPackage godoc
// @Summary Get a package by ID
// @Tags packages
// @Produce json
// @Param id path string true "Package ID"
// @Success 200 {object} dto.PackageResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /packages/{id} [get]
func (h *packageHandler) getPackage(c *gin.Context) {
	pkg, err := h.packageService.GetPackageByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Package not found"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to get package", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve package"})
		return
	}
	c.JSON(http.StatusOK, dto.ToPackageResponse(pkg))
}

// createPackage godoc
// @Summary Create a package
// @Description Creates an unpublished catalog package (admin only)
// @Tags packages
// @Accept json
// @Produce json
// @Param package body dto.CreatePackageRequest true "Package details"
// @Success 201 {object} dto.PackageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /packages [post]
func (h *packageHandler) createPackage(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	admin, ok := requireAdmin(c, h.userService)
	if !ok {
		return
	}

	var req dto.CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	pkg, err := h.packageService.CreatePackage(c.Request.Context(), req, admin.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		logger.Error("Failed to create package", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create package"})
		return
	}

	c.JSON(http.StatusCreated, dto.ToPackageResponse(pkg))
}

// updatePackage godoc
// @Summary Update an unpublished package
// @Description Edits a package that has not been published yet (admin only)
// @Tags packages
// @Accept json
// @Produce json
// @Param id path string true "Package ID"
// @Param package body dto.UpdatePackageRequest true "Fields to update"
// @Success 200 {object} dto.PackageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /packages/{id} [put]
func (h *packageHandler) updatePackage(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	admin, ok := requireAdmin(c, h.userService)
	if !ok {
		return
	}

	var req dto.UpdatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	pkg, err := h.packageService.UpdatePackage(c.Request.Context(), c.Param("id"), req, admin.UserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Package not found"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			logger.Error("Failed to update package", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to update package"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToPackageResponse(pkg))
}

// publishPackage godoc
// @Summary Publish a package
// @Description Makes a package purchasable and freezes its price and commission table (admin only)
// @Tags packages
// @Produce json
// @Param id path string true "Package ID"
// @Success 204 "No Content"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /packages/{id}/publish [post]
func (h *packageHandler) publishPackage(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	admin, ok := requireAdmin(c, h.userService)
	if !ok {
		return
	}

	if err := h.packageService.PublishPackage(c.Request.Context(), c.Param("id"), admin.UserID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Package not found"})
		case errors.Is(err, apperrors.ErrDuplicate):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Package is already published"})
		default:
			logger.Error("Failed to publish package", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to publish package"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
