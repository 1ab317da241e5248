package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/holi87/hardware-registry/internal/model"
	"github.com/holi87/hardware-registry/pkg/database"
	"github.com/holi87/hardware-registry/pkg/logger"
	"github.com/holi87/hardware-registry/pkg/password"
	"github.com/holi87/hardware-registry/prometheus"
)

func needsSetup() (bool, error) {
	var count int64
	err := database.GetDB().Model(&model.User{}).
		Where("role = ?", model.RoleAdmin).
		Count(&count).Error
	return count == 0, err
}

// SetupStatus reports whether the first administrator still has to be created
func SetupStatus(c echo.Context) error {
	pending, err := needsSetup()
	if err != nil {
		return respondError(c, "setup", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"needs_setup": pending})
}

// CreateFirstAdmin bootstraps the service: creates the first administrator
// together with an initial root location and its tenancy grant. Refused
// once any administrator exists.
func CreateFirstAdmin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("setup", "bootstrap")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse setup request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	pending, err := needsSetup()
	if err != nil {
		return respondError(c, "setup", err)
	}
	if !pending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Setup already completed"})
	}

	if !password.ValidatePolicy(req.Password) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": password.PolicyMessage})
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "setup failed"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	admin := model.User{
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
	}

	rootID := uuid.New()
	notes := "Root location created during bootstrap setup"
	root := model.Location{
		ID:       rootID,
		Name:     "Dom",
		ParentID: nil,
		RootID:   rootID,
		Notes:    &notes,
	}

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if result := tx.Create(&admin); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create admin", zap.Error(result.Error))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Email already exists"})
	}
	if result := tx.Create(&root); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create bootstrap root", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "setup failed"})
	}
	if result := tx.Create(&model.UserRoot{UserID: admin.ID, RootID: rootID}); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create bootstrap grant", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "setup failed"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit setup transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "setup failed"})
	}

	log.Info("First administrator created",
		zap.String("email", admin.Email),
		zap.String("root_id", rootID.String()))

	return c.JSON(http.StatusCreated, echo.Map{
		"id":    admin.ID,
		"email": admin.Email,
		"role":  admin.Role,
	})
}
