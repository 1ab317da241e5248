package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/holi87/hardware-registry/internal/apperr"
	"github.com/holi87/hardware-registry/internal/model"
	"github.com/holi87/hardware-registry/pkg/logger"
	"github.com/holi87/hardware-registry/prometheus"
)

// currentUser returns the authenticated user set by AuthMiddleware
func currentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get("user").(*model.User)
	return user, ok
}

// respondError translates a registry error into the HTTP response and
// records it. Unclassified errors are logged and hidden from the client.
func respondError(c echo.Context, entity string, err error) error {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(c).Error("Unexpected error", zap.String("entity", entity), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	prometheus.RecordValidationError(entity)
	return c.JSON(status, echo.Map{"error": err.Error()})
}

// pathUUID parses a uuid path parameter
func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

// queryRootID parses the mandatory root_id query parameter
func queryRootID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.QueryParam("root_id"))
}
