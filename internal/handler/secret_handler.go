package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/holi87/hardware-registry/internal/model"
	"github.com/holi87/hardware-registry/internal/registry"
	"github.com/holi87/hardware-registry/pkg/database"
	"github.com/holi87/hardware-registry/pkg/logger"
	"github.com/holi87/hardware-registry/pkg/secretcrypt"
	"github.com/holi87/hardware-registry/prometheus"
)

type secretResponse struct {
	ID             uuid.UUID        `json:"id"`
	RootID         uuid.UUID        `json:"root_id"`
	Type           model.SecretType `json:"type"`
	Name           string           `json:"name"`
	LinkedDeviceID *uuid.UUID       `json:"linked_device_id"`
	Notes          *string          `json:"notes"`
	CreatedAt      time.Time        `json:"created_at"`
}

func toSecretResponse(secret *model.Secret) secretResponse {
	return secretResponse{
		ID:             secret.ID,
		RootID:         secret.RootID,
		Type:           secret.Type,
		Name:           secret.Name,
		LinkedDeviceID: secret.LinkedDeviceID,
		Notes:          secret.Notes,
		CreatedAt:      secret.CreatedAt,
	}
}

// ListSecrets lists the secrets of a root, newest first. Values are never
// included; use the reveal endpoint.
func ListSecrets(c echo.Context) error {
	prometheus.RecordEntityOperation("secret", "list")

	rootID, err := queryRootID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid root_id"})
	}

	db := database.GetDB()
	if _, err := registry.ResolveRoot(db, rootID); err != nil {
		return respondError(c, "secret", err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var secrets []model.Secret
	if err := db.Where("root_id = ?", rootID).Order("created_at desc").Find(&secrets).Error; err != nil {
		return respondError(c, "secret", err)
	}

	response := make([]secretResponse, 0, len(secrets))
	for i := range secrets {
		response = append(response, toSecretResponse(&secrets[i]))
	}
	return c.JSON(http.StatusOK, response)
}

// CreateSecret stores an encrypted secret in a root, optionally linked to
// a device of the same root
func CreateSecret(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("secret", "create")

	var req struct {
		RootID         uuid.UUID        `json:"root_id"`
		Type           model.SecretType `json:"type"`
		Name           string           `json:"name"`
		Value          string           `json:"value"`
		LinkedDeviceID *uuid.UUID       `json:"linked_device_id"`
		Notes          *string          `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.Value == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "value is required"})
	}
	if !req.Type.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid secret type"})
	}

	db := database.GetDB()
	if _, err := registry.ResolveRoot(db, req.RootID); err != nil {
		return respondError(c, "secret", err)
	}
	if err := registry.ValidateLinkedDevice(db, req.RootID, req.LinkedDeviceID); err != nil {
		return respondError(c, "secret", err)
	}

	encrypted, err := secretcrypt.Encrypt(req.Value)
	if err != nil {
		log.Error("Failed to encrypt secret", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "secret creation failed"})
	}

	secret := model.Secret{
		RootID:         req.RootID,
		Type:           req.Type,
		Name:           req.Name,
		EncryptedValue: encrypted,
		LinkedDeviceID: req.LinkedDeviceID,
		Notes:          req.Notes,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := db.Create(&secret); result.Error != nil {
		log.Error("Failed to create secret", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "secret creation failed"})
	}

	log.Info("Secret created",
		zap.String("secret_id", secret.ID.String()),
		zap.String("type", string(secret.Type)))

	return c.JSON(http.StatusCreated, toSecretResponse(&secret))
}

// UpdateSecret changes a secret's metadata or rotates its value
func UpdateSecret(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("secret", "update")

	secretID, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid secret ID"})
	}

	var req struct {
		Name           *string           `json:"name"`
		Value          *string           `json:"value"`
		Type           *model.SecretType `json:"type"`
		LinkedDeviceID *uuid.UUID        `json:"linked_device_id"`
		Notes          *string           `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	db := database.GetDB()
	var secret model.Secret
	if result := db.First(&secret, "id = ?", secretID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Secret not found"})
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
		}
		secret.Name = name
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid secret type"})
		}
		secret.Type = *req.Type
	}
	if req.LinkedDeviceID != nil {
		if err := registry.ValidateLinkedDevice(db, secret.RootID, req.LinkedDeviceID); err != nil {
			return respondError(c, "secret", err)
		}
		secret.LinkedDeviceID = req.LinkedDeviceID
	}
	if req.Notes != nil {
		secret.Notes = req.Notes
	}
	if req.Value != nil {
		if *req.Value == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "value is required"})
		}
		encrypted, err := secretcrypt.Encrypt(*req.Value)
		if err != nil {
			log.Error("Failed to encrypt secret", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "secret update failed"})
		}
		secret.EncryptedValue = encrypted
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := db.Save(&secret).Error; err != nil {
		log.Error("Failed to update secret", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "secret update failed"})
	}

	return c.JSON(http.StatusOK, toSecretResponse(&secret))
}

// RevealSecret decrypts a secret's value for the caller
func RevealSecret(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("secret", "reveal")

	secretID, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid secret ID"})
	}

	db := database.GetDB()
	var secret model.Secret
	if result := db.First(&secret, "id = ?", secretID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Secret not found"})
	}

	plaintext, err := secretcrypt.Decrypt(secret.EncryptedValue)
	if err != nil {
		log.Error("Failed to decrypt secret",
			zap.String("secret_id", secretID.String()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to decrypt secret"})
	}

	log.Info("Secret revealed", zap.String("secret_id", secretID.String()))
	return c.JSON(http.StatusOK, echo.Map{"value": plaintext})
}

// DeleteSecret deletes a secret
func DeleteSecret(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("secret", "delete")

	secretID, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid secret ID"})
	}

	db := database.GetDB()
	var secret model.Secret
	if result := db.First(&secret, "id = ?", secretID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Secret not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := db.Delete(&secret).Error; err != nil {
		log.Error("Failed to delete secret", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "secret deletion failed"})
	}

	log.Info("Secret deleted", zap.String("secret_id", secretID.String()))
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
