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
	"github.com/holi87/hardware-registry/prometheus"
)

// ListDevices lists the devices of a root, optionally filtered by space
func ListDevices(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	prometheus.RecordEntityOperation("device", "list")

	rootID, err := queryRootID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid root_id"})
	}

	db := database.GetDB()
	if err := registry.RequireAccess(db, user, rootID); err != nil {
		return respondError(c, "device", err)
	}
	if _, err := registry.ResolveRoot(db, rootID); err != nil {
		return respondError(c, "device", err)
	}

	query := db.Where("root_id = ?", rootID)
	if spaceParam := c.QueryParam("space_id"); spaceParam != "" {
		spaceID, err := uuid.Parse(spaceParam)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space_id"})
		}
		if err := registry.ValidateSpace(db, rootID, spaceID); err != nil {
			return respondError(c, "device", err)
		}
		query = query.Where("space_id = ?", spaceID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var devices []model.Device
	if err := query.Order("name asc, created_at asc").Find(&devices).Error; err != nil {
		return respondError(c, "device", err)
	}

	return c.JSON(http.StatusOK, devices)
}

// CreateDevice creates a device in a space of the root. Capability flags
// are normalized against the receiver flag before the write.
func CreateDevice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("device", "create")

	var req struct {
		RootID               uuid.UUID `json:"root_id"`
		SpaceID              uuid.UUID `json:"space_id"`
		Name                 string    `json:"name"`
		Type                 string    `json:"type"`
		Vendor               *string   `json:"vendor"`
		Model                *string   `json:"model"`
		Serial               *string   `json:"serial"`
		Notes                *string   `json:"notes"`
		IsReceiver           bool      `json:"is_receiver"`
		SupportsWifi         bool      `json:"supports_wifi"`
		SupportsEthernet     bool      `json:"supports_ethernet"`
		SupportsZigbee       bool      `json:"supports_zigbee"`
		SupportsMatterThread bool      `json:"supports_matter_thread"`
		SupportsBluetooth    bool      `json:"supports_bluetooth"`
		SupportsBLE          bool      `json:"supports_ble"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Type = strings.TrimSpace(req.Type)
	if req.Name == "" || req.Type == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and type are required"})
	}

	db := database.GetDB()
	if _, err := registry.ResolveRoot(db, req.RootID); err != nil {
		return respondError(c, "device", err)
	}
	if err := registry.ValidateSpace(db, req.RootID, req.SpaceID); err != nil {
		return respondError(c, "device", err)
	}

	isReceiver, capabilities := registry.NormalizeReceiverCapabilities(req.IsReceiver, registry.ReceiverCapabilities{
		Wifi:         req.SupportsWifi,
		Ethernet:     req.SupportsEthernet,
		Zigbee:       req.SupportsZigbee,
		MatterThread: req.SupportsMatterThread,
		Bluetooth:    req.SupportsBluetooth,
		BLE:          req.SupportsBLE,
	})

	device := model.Device{
		RootID:  req.RootID,
		SpaceID: req.SpaceID,
		Name:    req.Name,
		Type:    req.Type,
		Vendor:  req.Vendor,
		Model:   req.Model,
		Serial:  req.Serial,
		Notes:   req.Notes,
	}
	registry.ApplyCapabilities(&device, isReceiver, capabilities)

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := db.Create(&device); result.Error != nil {
		log.Error("Failed to create device", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "device creation failed"})
	}

	log.Info("Device created",
		zap.String("device_id", device.ID.String()),
		zap.String("root_id", req.RootID.String()))

	return c.JSON(http.StatusCreated, device)
}

// GetDevice returns a device with its interfaces
func GetDevice(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	prometheus.RecordEntityOperation("device", "get")

	deviceID, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid device ID"})
	}

	db := database.GetDB()
	var device model.Device
	if result := db.First(&device, "id = ?", deviceID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Device not found"})
	}

	if err := registry.RequireAccess(db, user, device.RootID); err != nil {
		return respondError(c, "device", err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var interfaces []model.Interface
	if err := db.Where("device_id = ?", device.ID).Order("name asc").Find(&interfaces).Error; err != nil {
		return respondError(c, "device", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"device":     device,
		"interfaces": interfaces,
	})
}

// UpdateDevice patches a device; receiver/capability changes are
// re-normalized against the resulting state
func UpdateDevice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("device", "update")

	deviceID, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid device ID"})
	}

	var req struct {
		SpaceID              *uuid.UUID `json:"space_id"`
		Name                 *string    `json:"name"`
		Type                 *string    `json:"type"`
		Vendor               *string    `json:"vendor"`
		Model                *string    `json:"model"`
		Serial               *string    `json:"serial"`
		Notes                *string    `json:"notes"`
		IsReceiver           *bool      `json:"is_receiver"`
		SupportsWifi         *bool      `json:"supports_wifi"`
		SupportsEthernet     *bool      `json:"supports_ethernet"`
		SupportsZigbee       *bool      `json:"supports_zigbee"`
		SupportsMatterThread *bool      `json:"supports_matter_thread"`
		SupportsBluetooth    *bool      `json:"supports_bluetooth"`
		SupportsBLE          *bool      `json:"supports_ble"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	db := database.GetDB()
	var device model.Device
	if result := db.First(&device, "id = ?", deviceID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Device not found"})
	}

	if req.SpaceID != nil {
		if err := registry.ValidateSpace(db, device.RootID, *req.SpaceID); err != nil {
			return respondError(c, "device", err)
		}
		device.SpaceID = *req.SpaceID
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
		}
		device.Name = name
	}
	if req.Type != nil {
		deviceType := strings.TrimSpace(*req.Type)
		if deviceType == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "type is required"})
		}
		device.Type = deviceType
	}
	if req.Vendor != nil {
		device.Vendor = req.Vendor
	}
	if req.Model != nil {
		device.Model = req.Model
	}
	if req.Serial != nil {
		device.Serial = req.Serial
	}
	if req.Notes != nil {
		device.Notes = req.Notes
	}

	nextIsReceiver := device.IsReceiver
	if req.IsReceiver != nil {
		nextIsReceiver = *req.IsReceiver
	}

	capabilities := registry.DeviceCapabilities(&device)
	if req.SupportsWifi != nil {
		capabilities.Wifi = *req.SupportsWifi
	}
	if req.SupportsEthernet != nil {
		capabilities.Ethernet = *req.SupportsEthernet
	}
	if req.SupportsZigbee != nil {
		capabilities.Zigbee = *req.SupportsZigbee
	}
	if req.SupportsMatterThread != nil {
		capabilities.MatterThread = *req.SupportsMatterThread
	}
	if req.SupportsBluetooth != nil {
		capabilities.Bluetooth = *req.SupportsBluetooth
	}
	if req.SupportsBLE != nil {
		capabilities.BLE = *req.SupportsBLE
	}

	isReceiver, capabilities := registry.NormalizeReceiverCapabilities(nextIsReceiver, capabilities)
	registry.ApplyCapabilities(&device, isReceiver, capabilities)

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := db.Save(&device).Error; err != nil {
		log.Error("Failed to update device", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "device update failed"})
	}

	return c.JSON(http.StatusOK, device)
}

// CreateInterface adds an interface to a device
func CreateInterface(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("interface", "create")

	deviceID, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid device ID"})
	}

	var req struct {
		Name  string  `json:"name"`
		Type  string  `json:"type"`
		MAC   *string `json:"mac"`
		Notes *string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Type = strings.TrimSpace(req.Type)
	if req.Name == "" || req.Type == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and type are required"})
	}

	db := database.GetDB()
	var device model.Device
	if result := db.First(&device, "id = ?", deviceID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Device not found"})
	}

	iface := model.Interface{
		DeviceID: device.ID,
		Name:     req.Name,
		Type:     req.Type,
		MAC:      req.MAC,
		Notes:    req.Notes,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := db.Create(&iface); result.Error != nil {
		log.Error("Failed to create interface", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "interface creation failed"})
	}

	return c.JSON(http.StatusCreated, iface)
}

// DeleteDevice deletes a device once nothing depends on it
func DeleteDevice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("device", "delete")

	deviceID, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid device ID"})
	}

	db := database.GetDB()
	var device model.Device
	if result := db.First(&device, "id = ?", deviceID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Device not found"})
	}

	if err := registry.GuardDeviceDeletion(db, deviceID); err != nil {
		return respondError(c, "device", err)
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := db.Delete(&device).Error; err != nil {
		log.Error("Failed to delete device", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "device deletion failed"})
	}

	log.Info("Device deleted", zap.String("device_id", deviceID.String()))
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
