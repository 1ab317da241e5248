package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/holi87/hardware-registry/pkg/database"
	"github.com/holi87/hardware-registry/pkg/logger"
	"github.com/holi87/hardware-registry/pkg/password"
	"github.com/holi87/hardware-registry/prometheus"
)

var adminResetKey string

// SetAdminResetKey installs the out-of-band reset key at startup
func SetAdminResetKey(key string) {
	adminResetKey = key
}

// ResetAdminPassword rotates the calling administrator's password to a
// generated temporary one. Requires the out-of-band reset key header in
// addition to the admin role.
func ResetAdminPassword(c echo.Context) error {
	log := logger.FromContext(c)

	admin, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	resetKey := c.Request().Header.Get("X-Admin-Reset-Key")
	if adminResetKey == "" || resetKey == "" ||
		subtle.ConstantTimeCompare([]byte(resetKey), []byte(adminResetKey)) != 1 {
		prometheus.RecordAuthError("invalid_reset_key")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Invalid admin reset key"})
	}

	temporary, err := password.GenerateTemporary(16)
	if err != nil {
		log.Error("Failed to generate temporary password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}

	hash, err := password.Hash(temporary)
	if err != nil {
		log.Error("Failed to hash temporary password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	updates := map[string]interface{}{
		"password_hash":        hash,
		"must_change_password": true,
	}
	if err := database.GetDB().Model(admin).Updates(updates).Error; err != nil {
		log.Error("Failed to reset password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}

	log.Info("Administrator password reset", zap.String("user_id", admin.ID.String()))
	return c.JSON(http.StatusOK, echo.Map{"temporary_password": temporary})
}
