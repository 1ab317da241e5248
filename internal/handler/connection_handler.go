package handler

import (
	"net/http"
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

type connectionResponse struct {
	ID              uuid.UUID                  `json:"id"`
	RootID          uuid.UUID                  `json:"root_id"`
	FromInterfaceID uuid.UUID                  `json:"from_interface_id"`
	ToInterfaceID   uuid.UUID                  `json:"to_interface_id"`
	FromDeviceID    uuid.UUID                  `json:"from_device_id"`
	ToDeviceID      uuid.UUID                  `json:"to_device_id"`
	ReceiverID      *uuid.UUID                 `json:"receiver_id"`
	Technology      model.ConnectionTechnology `json:"technology"`
	VlanID          *uuid.UUID                 `json:"vlan_id"`
	Notes           *string                    `json:"notes"`
	CreatedAt       time.Time                  `json:"created_at"`
}

// CreateConnection creates a connection between two interfaces after the
// full validation chain: distinct endpoints, shared root, VLAN gating and
// receiver gating.
func CreateConnection(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("connection", "create")

	var req struct {
		RootID          uuid.UUID                  `json:"root_id"`
		FromInterfaceID uuid.UUID                  `json:"from_interface_id"`
		ToInterfaceID   uuid.UUID                  `json:"to_interface_id"`
		ReceiverID      *uuid.UUID                 `json:"receiver_id"`
		Technology      model.ConnectionTechnology `json:"technology"`
		VlanID          *uuid.UUID                 `json:"vlan_id"`
		Notes           *string                    `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if !req.Technology.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid technology"})
	}

	db := database.GetDB()
	if _, err := registry.ResolveRoot(db, req.RootID); err != nil {
		return respondError(c, "connection", err)
	}

	if err := registry.ValidateEndpoints(req.FromInterfaceID, req.ToInterfaceID); err != nil {
		return respondError(c, "connection", err)
	}

	fromInterface, fromDevice, err := registry.InterfaceWithDevice(db, req.FromInterfaceID)
	if err != nil {
		return respondError(c, "connection", err)
	}
	toInterface, toDevice, err := registry.InterfaceWithDevice(db, req.ToInterfaceID)
	if err != nil {
		return respondError(c, "connection", err)
	}

	if fromDevice.RootID != toDevice.RootID || fromDevice.RootID != req.RootID {
		prometheus.RecordValidationError("connection")
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "Both interfaces must belong to devices in the same root"})
	}

	if err := registry.ValidateVlanUsage(req.Technology, req.VlanID); err != nil {
		return respondError(c, "connection", err)
	}
	if err := registry.ValidateVlanRef(db, req.RootID, req.VlanID); err != nil {
		return respondError(c, "connection", err)
	}

	receiverID, err := registry.ValidateReceiver(db, req.RootID, req.Technology, req.ReceiverID)
	if err != nil {
		return respondError(c, "connection", err)
	}

	connection := model.Connection{
		RootID:          req.RootID,
		FromInterfaceID: fromInterface.ID,
		ToInterfaceID:   toInterface.ID,
		ReceiverID:      receiverID,
		Technology:      req.Technology,
		VlanID:          req.VlanID,
		Notes:           req.Notes,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := db.Create(&connection); result.Error != nil {
		log.Error("Failed to create connection", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "connection creation failed"})
	}

	log.Info("Connection created",
		zap.String("connection_id", connection.ID.String()),
		zap.String("technology", string(req.Technology)))

	return c.JSON(http.StatusCreated, connectionResponse{
		ID:              connection.ID,
		RootID:          connection.RootID,
		FromInterfaceID: connection.FromInterfaceID,
		ToInterfaceID:   connection.ToInterfaceID,
		FromDeviceID:    fromDevice.ID,
		ToDeviceID:      toDevice.ID,
		ReceiverID:      connection.ReceiverID,
		Technology:      connection.Technology,
		VlanID:          connection.VlanID,
		Notes:           connection.Notes,
		CreatedAt:       connection.CreatedAt,
	})
}

// ListConnections lists the connections of a root with resolved endpoint
// devices, optionally filtered to one device
func ListConnections(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	prometheus.RecordEntityOperation("connection", "list")

	rootID, err := queryRootID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid root_id"})
	}

	db := database.GetDB()
	if err := registry.RequireAccess(db, user, rootID); err != nil {
		return respondError(c, "connection", err)
	}
	if _, err := registry.ResolveRoot(db, rootID); err != nil {
		return respondError(c, "connection", err)
	}

	query := db.Table("connections").
		Select("connections.*, fi.device_id as from_device_id, ti.device_id as to_device_id").
		Joins("JOIN interfaces fi ON connections.from_interface_id = fi.id").
		Joins("JOIN interfaces ti ON connections.to_interface_id = ti.id").
		Where("connections.root_id = ?", rootID)

	if deviceParam := c.QueryParam("device_id"); deviceParam != "" {
		deviceID, err := uuid.Parse(deviceParam)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid device_id"})
		}
		query = query.Where("fi.device_id = ? OR ti.device_id = ?", deviceID, deviceID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var rows []struct {
		model.Connection
		FromDeviceID uuid.UUID
		ToDeviceID   uuid.UUID
	}
	if err := query.Order("connections.created_at desc").Scan(&rows).Error; err != nil {
		return respondError(c, "connection", err)
	}

	response := make([]connectionResponse, 0, len(rows))
	for _, row := range rows {
		response = append(response, connectionResponse{
			ID:              row.ID,
			RootID:          row.RootID,
			FromInterfaceID: row.FromInterfaceID,
			ToInterfaceID:   row.ToInterfaceID,
			FromDeviceID:    row.FromDeviceID,
			ToDeviceID:      row.ToDeviceID,
			ReceiverID:      row.ReceiverID,
			Technology:      row.Technology,
			VlanID:          row.VlanID,
			Notes:           row.Notes,
			CreatedAt:       row.CreatedAt,
		})
	}

	return c.JSON(http.StatusOK, response)
}
