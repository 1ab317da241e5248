package handler

import (
	"bytes"
	"encoding/json"
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

type locationResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	ParentID    *uuid.UUID `json:"parent_id"`
	RootID      uuid.UUID  `json:"root_id"`
	Notes       *string    `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	DeviceCount int64      `json:"device_count"`
}

func toLocationResponse(location *model.Location) locationResponse {
	return locationResponse{
		ID:        location.ID,
		Name:      location.Name,
		ParentID:  location.ParentID,
		RootID:    location.RootID,
		Notes:     location.Notes,
		CreatedAt: location.CreatedAt,
	}
}

// LocationsTree returns the full location tree of a root with per-space
// device counts
func LocationsTree(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	prometheus.RecordEntityOperation("location", "tree")

	rootID, err := queryRootID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid root_id"})
	}

	db := database.GetDB()
	if err := registry.RequireAccess(db, user, rootID); err != nil {
		return respondError(c, "location", err)
	}
	if _, err := registry.ResolveRoot(db, rootID); err != nil {
		return respondError(c, "location", err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	tree, err := registry.BuildTree(db, rootID)
	if err != nil {
		return respondError(c, "location", err)
	}

	return c.JSON(http.StatusOK, tree)
}

// CreateLocation creates a location under a parent within a root. When no
// parent is given the location hangs directly under the root.
func CreateLocation(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("location", "create")

	var req struct {
		Name     string     `json:"name"`
		RootID   uuid.UUID  `json:"root_id"`
		ParentID *uuid.UUID `json:"parent_id"`
		Notes    *string    `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	db := database.GetDB()
	if _, err := registry.ResolveRoot(db, req.RootID); err != nil {
		return respondError(c, "location", err)
	}

	parentID := req.RootID
	if req.ParentID != nil {
		parentID = *req.ParentID
	}
	if _, err := registry.ValidateParent(db, req.RootID, parentID); err != nil {
		return respondError(c, "location", err)
	}

	location := model.Location{
		Name:     req.Name,
		RootID:   req.RootID,
		ParentID: &parentID,
		Notes:    req.Notes,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := db.Create(&location); result.Error != nil {
		log.Error("Failed to create location", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "location creation failed"})
	}

	log.Info("Location created",
		zap.String("location_id", location.ID.String()),
		zap.String("root_id", req.RootID.String()))

	return c.JSON(http.StatusCreated, toLocationResponse(&location))
}

// UpdateLocation renames, annotates or reparents a location. Reparenting
// is subject to the full tree-engine rule chain, including the cycle
// check.
func UpdateLocation(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("location", "update")

	locationID, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid location ID"})
	}

	// parent_id needs three states: absent (keep), null (clear) and a
	// value, so it is decoded from the raw message.
	var req struct {
		Name     *string         `json:"name"`
		Notes    *string         `json:"notes"`
		ParentID json.RawMessage `json:"parent_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	db := database.GetDB()
	var location model.Location
	if result := db.First(&location, "id = ?", locationID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Location not found"})
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
		}
		location.Name = name
	}
	if req.Notes != nil {
		location.Notes = req.Notes
	}

	if len(req.ParentID) > 0 {
		var newParentID *uuid.UUID
		if !bytes.Equal(bytes.TrimSpace(req.ParentID), []byte("null")) {
			var parsed uuid.UUID
			if err := json.Unmarshal(req.ParentID, &parsed); err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid parent_id"})
			}
			newParentID = &parsed
		}

		if err := registry.Reparent(db, &location, newParentID); err != nil {
			return respondError(c, "location", err)
		}
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := db.Save(&location).Error; err != nil {
		log.Error("Failed to update location", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "location update failed"})
	}

	return c.JSON(http.StatusOK, toLocationResponse(&location))
}

// DeleteLocation deletes a non-root location once nothing depends on it.
// Roots are deleted through DeleteRoot and cascade instead.
func DeleteLocation(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("location", "delete")

	locationID, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid location ID"})
	}

	db := database.GetDB()
	var location model.Location
	if result := db.First(&location, "id = ?", locationID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Location not found"})
	}
	if location.IsRoot() {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "Root location must be deleted through the roots endpoint"})
	}

	if err := registry.GuardLocationDeletion(db, locationID); err != nil {
		return respondError(c, "location", err)
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := db.Delete(&location).Error; err != nil {
		log.Error("Failed to delete location", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "location deletion failed"})
	}

	log.Info("Location deleted", zap.String("location_id", locationID.String()))
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
