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

type wifiResponse struct {
	ID        uuid.UUID  `json:"id"`
	RootID    uuid.UUID  `json:"root_id"`
	SpaceID   uuid.UUID  `json:"space_id"`
	SSID      string     `json:"ssid"`
	Security  string     `json:"security"`
	VlanID    *uuid.UUID `json:"vlan_id"`
	Notes     *string    `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
}

func toWifiResponse(network *model.WifiNetwork) wifiResponse {
	return wifiResponse{
		ID:        network.ID,
		RootID:    network.RootID,
		SpaceID:   network.SpaceID,
		SSID:      network.SSID,
		Security:  network.Security,
		VlanID:    network.VlanID,
		Notes:     network.Notes,
		CreatedAt: network.CreatedAt,
	}
}

// ListWifiNetworks lists the Wi-Fi networks of a root ordered by SSID.
// Passwords are never included.
func ListWifiNetworks(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	prometheus.RecordEntityOperation("wifi_network", "list")

	rootID, err := queryRootID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid root_id"})
	}

	db := database.GetDB()
	if err := registry.RequireAccess(db, user, rootID); err != nil {
		return respondError(c, "wifi_network", err)
	}
	if _, err := registry.ResolveRoot(db, rootID); err != nil {
		return respondError(c, "wifi_network", err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var networks []model.WifiNetwork
	if err := db.Where("root_id = ?", rootID).Order("ssid asc").Find(&networks).Error; err != nil {
		return respondError(c, "wifi_network", err)
	}

	response := make([]wifiResponse, 0, len(networks))
	for i := range networks {
		response = append(response, toWifiResponse(&networks[i]))
	}
	return c.JSON(http.StatusOK, response)
}

// CreateWifiNetwork creates a Wi-Fi network in a space. The password is
// encrypted before it touches the database and a VLAN is mandatory.
func CreateWifiNetwork(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("wifi_network", "create")

	var req struct {
		RootID   uuid.UUID  `json:"root_id"`
		SpaceID  uuid.UUID  `json:"space_id"`
		SSID     string     `json:"ssid"`
		Password string     `json:"password"`
		Security string     `json:"security"`
		VlanID   *uuid.UUID `json:"vlan_id"`
		Notes    *string    `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.SSID = strings.TrimSpace(req.SSID)
	if req.SSID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ssid is required"})
	}
	if req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password is required"})
	}
	if req.Security == "" {
		req.Security = "WPA2"
	}

	db := database.GetDB()
	if _, err := registry.ResolveRoot(db, req.RootID); err != nil {
		return respondError(c, "wifi_network", err)
	}
	if err := registry.ValidateSpace(db, req.RootID, req.SpaceID); err != nil {
		return respondError(c, "wifi_network", err)
	}
	if req.VlanID == nil {
		prometheus.RecordValidationError("wifi_network")
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "VLAN is required for Wi-Fi networks"})
	}
	if err := registry.ValidateVlanRef(db, req.RootID, req.VlanID); err != nil {
		return respondError(c, "wifi_network", err)
	}

	encrypted, err := secretcrypt.Encrypt(req.Password)
	if err != nil {
		log.Error("Failed to encrypt Wi-Fi password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Wi-Fi network creation failed"})
	}

	network := model.WifiNetwork{
		RootID:            req.RootID,
		SpaceID:           req.SpaceID,
		SSID:              req.SSID,
		PasswordEncrypted: encrypted,
		Security:          req.Security,
		VlanID:            req.VlanID,
		Notes:             req.Notes,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := db.Create(&network); result.Error != nil {
		log.Error("Failed to create Wi-Fi network", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Wi-Fi network creation failed"})
	}

	log.Info("Wi-Fi network created",
		zap.String("network_id", network.ID.String()),
		zap.String("root_id", req.RootID.String()))

	return c.JSON(http.StatusCreated, toWifiResponse(&network))
}

// UpdateWifiNetwork changes a Wi-Fi network. A new password replaces the
// encrypted one; the VLAN stays mandatory.
func UpdateWifiNetwork(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("wifi_network", "update")

	networkID, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid network ID"})
	}

	var req struct {
		SSID     *string    `json:"ssid"`
		Password *string    `json:"password"`
		Security *string    `json:"security"`
		SpaceID  *uuid.UUID `json:"space_id"`
		VlanID   *uuid.UUID `json:"vlan_id"`
		Notes    *string    `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	db := database.GetDB()
	var network model.WifiNetwork
	if result := db.First(&network, "id = ?", networkID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Wi-Fi network not found"})
	}

	if req.SSID != nil {
		ssid := strings.TrimSpace(*req.SSID)
		if ssid == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ssid is required"})
		}
		network.SSID = ssid
	}
	if req.Security != nil {
		network.Security = *req.Security
	}
	if req.SpaceID != nil {
		if err := registry.ValidateSpace(db, network.RootID, *req.SpaceID); err != nil {
			return respondError(c, "wifi_network", err)
		}
		network.SpaceID = *req.SpaceID
	}
	if req.VlanID != nil {
		if err := registry.ValidateVlanRef(db, network.RootID, req.VlanID); err != nil {
			return respondError(c, "wifi_network", err)
		}
		network.VlanID = req.VlanID
	}
	if req.Notes != nil {
		network.Notes = req.Notes
	}
	if req.Password != nil {
		if *req.Password == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "password is required"})
		}
		encrypted, err := secretcrypt.Encrypt(*req.Password)
		if err != nil {
			log.Error("Failed to encrypt Wi-Fi password", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Wi-Fi network update failed"})
		}
		network.PasswordEncrypted = encrypted
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := db.Save(&network).Error; err != nil {
		log.Error("Failed to update Wi-Fi network", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Wi-Fi network update failed"})
	}

	return c.JSON(http.StatusOK, toWifiResponse(&network))
}

// RevealWifiPassword decrypts a network's password for the caller.
// Administrators may reveal any network; other users need a grant on the
// network's root.
func RevealWifiPassword(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("wifi_network", "reveal")

	networkID, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid network ID"})
	}

	db := database.GetDB()
	var network model.WifiNetwork
	if result := db.First(&network, "id = ?", networkID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Wi-Fi network not found"})
	}

	if !user.IsAdmin() {
		if err := registry.RequireAccess(db, user, network.RootID); err != nil {
			return respondError(c, "wifi_network", err)
		}
	}

	plaintext, err := secretcrypt.Decrypt(network.PasswordEncrypted)
	if err != nil {
		log.Error("Failed to decrypt Wi-Fi password",
			zap.String("network_id", networkID.String()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to decrypt secret"})
	}

	log.Info("Wi-Fi password revealed",
		zap.String("network_id", networkID.String()),
		zap.String("user_id", user.ID.String()))

	return c.JSON(http.StatusOK, echo.Map{"password": plaintext})
}

// DeleteWifiNetwork deletes a Wi-Fi network
func DeleteWifiNetwork(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("wifi_network", "delete")

	networkID, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid network ID"})
	}

	db := database.GetDB()
	var network model.WifiNetwork
	if result := db.First(&network, "id = ?", networkID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Wi-Fi network not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := db.Delete(&network).Error; err != nil {
		log.Error("Failed to delete Wi-Fi network", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Wi-Fi network deletion failed"})
	}

	log.Info("Wi-Fi network deleted", zap.String("network_id", networkID.String()))
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
