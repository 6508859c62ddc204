package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	portssvc "github.com/kalestates/kal_affiliate_app/internal/core/ports/services"
	"github.com/kalestates/kal_affiliate_app/internal/middleware"
)

// requireUserID pulls the authenticated user ID out of the gin context,
// writing the 401 response itself when it is missing.
func requireUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return "", false
	}
	return userID, true
}

// requireAdmin loads the authenticated user and rejects non-admins with 403.
// Role lives on the user row, not in the token, so revoking admin takes
// effect on the next request rather than at token expiry.
func requireAdmin(c *gin.Context, userService portssvc.UserReaderSvc) (*domain.User, bool) {
	userID, ok := requireUserID(c)
	if !ok {
		return nil, false
	}

	user, err := userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to load user for role check", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to verify permissions"})
		return nil, false
	}
	if !user.IsAdmin() {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Admin access required"})
		return nil, false
	}
	return user, true
}

// canAccessAffiliate reports whether the caller may read data belonging to
// the target affiliate: admins always, members only their own membership.
func canAccessAffiliate(c *gin.Context, userService portssvc.UserReaderSvc, affiliateService portssvc.AffiliateReaderSvc, targetAffiliateID string) bool {
	userID, ok := requireUserID(c)
	if !ok {
		return false
	}

	own, err := affiliateService.GetAffiliateByUserID(c.Request.Context(), userID)
	if err == nil && own != nil && own.AffiliateID == targetAffiliateID {
		return true
	}

	user, err := userService.GetUserByID(c.Request.Context(), userID)
	if err == nil && user.IsAdmin() {
		return true
	}

	c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden"})
	return false
}
