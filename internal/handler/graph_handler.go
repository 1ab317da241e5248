package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/holi87/hardware-registry/internal/model"
	"github.com/holi87/hardware-registry/internal/registry"
	"github.com/holi87/hardware-registry/pkg/database"
	"github.com/holi87/hardware-registry/prometheus"
)

type graphNode struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	SpaceID    uuid.UUID `json:"space_id"`
	IsReceiver bool      `json:"is_receiver"`
}

type graphEdge struct {
	ID           uuid.UUID                  `json:"id"`
	FromDeviceID uuid.UUID                  `json:"from_device_id"`
	ToDeviceID   uuid.UUID                  `json:"to_device_id"`
	Technology   model.ConnectionTechnology `json:"technology"`
	ReceiverID   *uuid.UUID                 `json:"receiver_id"`
	VlanID       *uuid.UUID                 `json:"vlan_id"`
}

// TopologyGraph returns the device graph of a root: devices as nodes and
// connections as edges resolved to their endpoint devices
func TopologyGraph(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	prometheus.RecordEntityOperation("graph", "read")

	rootID, err := queryRootID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid root_id"})
	}

	db := database.GetDB()
	if err := registry.RequireAccess(db, user, rootID); err != nil {
		return respondError(c, "graph", err)
	}
	if _, err := registry.ResolveRoot(db, rootID); err != nil {
		return respondError(c, "graph", err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var devices []model.Device
	if err := db.Where("root_id = ?", rootID).Order("name asc").Find(&devices).Error; err != nil {
		return respondError(c, "graph", err)
	}

	var edges []struct {
		model.Connection
		FromDeviceID uuid.UUID
		ToDeviceID   uuid.UUID
	}
	err = db.Table("connections").
		Select("connections.*, fi.device_id as from_device_id, ti.device_id as to_device_id").
		Joins("JOIN interfaces fi ON connections.from_interface_id = fi.id").
		Joins("JOIN interfaces ti ON connections.to_interface_id = ti.id").
		Where("connections.root_id = ?", rootID).
		Order("connections.created_at asc").
		Scan(&edges).Error
	if err != nil {
		return respondError(c, "graph", err)
	}

	nodes := make([]graphNode, 0, len(devices))
	for i := range devices {
		nodes = append(nodes, graphNode{
			ID:         devices[i].ID,
			Name:       devices[i].Name,
			Type:       devices[i].Type,
			SpaceID:    devices[i].SpaceID,
			IsReceiver: devices[i].IsReceiver,
		})
	}

	graphEdges := make([]graphEdge, 0, len(edges))
	for _, edge := range edges {
		graphEdges = append(graphEdges, graphEdge{
			ID:           edge.ID,
			FromDeviceID: edge.FromDeviceID,
			ToDeviceID:   edge.ToDeviceID,
			Technology:   edge.Technology,
			ReceiverID:   edge.ReceiverID,
			VlanID:       edge.VlanID,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"root_id": rootID,
		"nodes":   nodes,
		"edges":   graphEdges,
	})
}
