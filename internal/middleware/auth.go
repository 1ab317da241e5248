package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/holi87/hardware-registry/internal/model"
	"github.com/holi87/hardware-registry/pkg/database"
	"github.com/holi87/hardware-registry/pkg/jwtutil"
	"github.com/holi87/hardware-registry/pkg/logger"
	"github.com/holi87/hardware-registry/prometheus"
)

// AuthMiddleware validates the bearer access token and loads the
// authenticated user into the context under "user"
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		claims, err := jwtutil.ValidateToken(parts[1], jwtutil.TokenTypeAccess)
		if err != nil {
			log.Warn("Invalid or expired token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		userID, err := claims.UserID()
		if err != nil {
			log.Warn("Invalid token subject", zap.Error(err))
			prometheus.RecordAuthError("invalid_token_subject")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token subject"})
		}

		var user model.User
		if result := database.GetDB().First(&user, "id = ?", userID); result.Error != nil {
			log.Warn("Token user not found", zap.String("user_id", userID.String()))
			prometheus.RecordAuthError("user_not_found")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found or inactive"})
		}
		if !user.IsActive {
			log.Warn("Inactive user rejected", zap.String("user_id", userID.String()))
			prometheus.RecordAuthError("user_inactive")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found or inactive"})
		}

		c.Set("user", &user)
		return next(c)
	}
}

// RequireAdmin rejects requests from users without the ADMIN role. Must be
// applied after AuthMiddleware.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := c.Get("user").(*model.User)
		if !ok {
			prometheus.RecordAuthError("missing_user_context")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		if !user.IsAdmin() {
			logger.FromContext(c).Warn("Admin privileges required",
				zap.String("user_id", user.ID.String()))
			prometheus.RecordAuthError("admin_required")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "Admin privileges required"})
		}
		return next(c)
	}
}
