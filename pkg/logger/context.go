package logger

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// FromContext retrieves the request-scoped logger from the Echo context
func FromContext(c echo.Context) *zap.Logger {
	if ctxLogger, ok := c.Get("logger").(*zap.Logger); ok {
		return ctxLogger
	}
	return GetLogger()
}
