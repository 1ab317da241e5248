package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/holi87/hardware-registry/internal/model"
	"github.com/holi87/hardware-registry/pkg/database"
	"github.com/holi87/hardware-registry/pkg/jwtutil"
	"github.com/holi87/hardware-registry/pkg/logger"
	"github.com/holi87/hardware-registry/pkg/password"
	"github.com/holi87/hardware-registry/prometheus"
)

func issueTokens(user *model.User) (echo.Map, error) {
	access, err := jwtutil.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	refresh, err := jwtutil.GenerateRefreshToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	prometheus.IncreaseActiveTokens()
	return echo.Map{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "bearer",
	}, nil
}

// Login authenticates credentials and issues an access/refresh token pair
func Login(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	result := database.GetDB().Where("email = ?", strings.ToLower(req.Email)).First(&user)
	if result.Error != nil {
		log.Warn("Login for unknown user", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
	}

	if !password.Verify(req.Password, user.PasswordHash) || !user.IsActive {
		log.Warn("Invalid credentials", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_credentials")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
	}

	tokens, err := issueTokens(&user)
	if err != nil {
		log.Error("Failed to generate tokens", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in", zap.String("email", user.Email), zap.String("role", string(user.Role)))
	return c.JSON(http.StatusOK, tokens)
}

// Refresh exchanges a refresh token for a new token pair
func Refresh(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	claims, err := jwtutil.ValidateToken(req.RefreshToken, jwtutil.TokenTypeRefresh)
	if err != nil {
		prometheus.RecordAuthError("invalid_refresh_token")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
	}

	userID, err := claims.UserID()
	if err != nil {
		prometheus.RecordAuthError("invalid_token_subject")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token subject"})
	}

	var user model.User
	if result := database.GetDB().First(&user, "id = ?", userID); result.Error != nil {
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "User not found or inactive"})
	}
	if !user.IsActive {
		prometheus.RecordAuthError("user_inactive")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "User not found or inactive"})
	}

	tokens, err := issueTokens(&user)
	if err != nil {
		log.Error("Failed to generate tokens", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	return c.JSON(http.StatusOK, tokens)
}

// Me returns the authenticated user's profile
func Me(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":                   user.ID,
		"email":                user.Email,
		"role":                 user.Role,
		"is_active":            user.IsActive,
		"must_change_password": user.MustChangePassword,
	})
}

// ChangePassword replaces the authenticated user's password
func ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if !password.Verify(req.CurrentPassword, user.PasswordHash) {
		prometheus.RecordAuthError("invalid_current_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Current password is incorrect"})
	}
	if !password.ValidatePolicy(req.NewPassword) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": password.PolicyMessage})
	}
	if password.Verify(req.NewPassword, user.PasswordHash) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "New password must be different than current password"})
	}

	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password change failed"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	updates := map[string]interface{}{
		"password_hash":        hash,
		"must_change_password": false,
	}
	if err := database.GetDB().Model(user).Updates(updates).Error; err != nil {
		log.Error("Failed to update password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password change failed"})
	}

	log.Info("Password changed", zap.String("user_id", user.ID.String()))
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// AdminCheck confirms the caller holds the ADMIN role
func AdminCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
