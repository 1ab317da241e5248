package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/holi87/hardware-registry/internal/model"
	"github.com/holi87/hardware-registry/internal/registry"
	"github.com/holi87/hardware-registry/pkg/database"
	"github.com/holi87/hardware-registry/pkg/logger"
	"github.com/holi87/hardware-registry/prometheus"
)

type vlanResponse struct {
	ID           uuid.UUID `json:"id"`
	RootID       uuid.UUID `json:"root_id"`
	VlanID       int       `json:"vlan_id"`
	Name         string    `json:"name"`
	SubnetMask   string    `json:"subnet_mask"`
	IPRangeStart string    `json:"ip_range_start"`
	IPRangeEnd   string    `json:"ip_range_end"`
	Notes        *string   `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
}

func toVlanResponse(vlan *model.Vlan) vlanResponse {
	return vlanResponse{
		ID:           vlan.ID,
		RootID:       vlan.RootID,
		VlanID:       vlan.VlanID,
		Name:         vlan.Name,
		SubnetMask:   vlan.SubnetMask,
		IPRangeStart: vlan.IPRangeStart,
		IPRangeEnd:   vlan.IPRangeEnd,
		Notes:        vlan.Notes,
		CreatedAt:    vlan.CreatedAt,
	}
}

// ListVlans lists the VLANs of a root ordered by VLAN number
func ListVlans(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	prometheus.RecordEntityOperation("vlan", "list")

	rootID, err := queryRootID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid root_id"})
	}

	db := database.GetDB()
	if err := registry.RequireAccess(db, user, rootID); err != nil {
		return respondError(c, "vlan", err)
	}
	if _, err := registry.ResolveRoot(db, rootID); err != nil {
		return respondError(c, "vlan", err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var vlans []model.Vlan
	if err := db.Where("root_id = ?", rootID).
		Order("vlan_id asc, name asc").Find(&vlans).Error; err != nil {
		return respondError(c, "vlan", err)
	}

	response := make([]vlanResponse, 0, len(vlans))
	for i := range vlans {
		response = append(response, toVlanResponse(&vlans[i]))
	}
	return c.JSON(http.StatusOK, response)
}

// CreateVlan creates a VLAN in a root. The VLAN number must be unique
// within the root and inside the 802.1Q usable range.
func CreateVlan(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("vlan", "create")

	var req struct {
		RootID       uuid.UUID `json:"root_id"`
		VlanID       int       `json:"vlan_id"`
		Name         string    `json:"name"`
		SubnetMask   string    `json:"subnet_mask"`
		IPRangeStart string    `json:"ip_range_start"`
		IPRangeEnd   string    `json:"ip_range_end"`
		Notes        *string   `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.VlanID < 1 || req.VlanID > 4094 {
		prometheus.RecordValidationError("vlan")
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "VLAN ID must be between 1 and 4094"})
	}
	if req.SubnetMask == "" || req.IPRangeStart == "" || req.IPRangeEnd == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subnet_mask, ip_range_start and ip_range_end are required"})
	}

	db := database.GetDB()
	if _, err := registry.ResolveRoot(db, req.RootID); err != nil {
		return respondError(c, "vlan", err)
	}

	vlan := model.Vlan{
		RootID:       req.RootID,
		VlanID:       req.VlanID,
		Name:         req.Name,
		SubnetMask:   req.SubnetMask,
		IPRangeStart: req.IPRangeStart,
		IPRangeEnd:   req.IPRangeEnd,
		Notes:        req.Notes,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := db.Create(&vlan); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			prometheus.RecordValidationError("vlan")
			return c.JSON(http.StatusConflict, echo.Map{"error": "VLAN already exists in this root"})
		}
		log.Error("Failed to create VLAN", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "VLAN creation failed"})
	}

	log.Info("VLAN created",
		zap.String("vlan_id", vlan.ID.String()),
		zap.Int("vlan_number", vlan.VlanID))

	return c.JSON(http.StatusCreated, toVlanResponse(&vlan))
}

// UpdateVlan changes a VLAN's metadata. The VLAN number itself is
// immutable; connections and networks reference it by row id.
func UpdateVlan(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("vlan", "update")

	vlanID, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid VLAN ID"})
	}

	var req struct {
		Name         *string `json:"name"`
		SubnetMask   *string `json:"subnet_mask"`
		IPRangeStart *string `json:"ip_range_start"`
		IPRangeEnd   *string `json:"ip_range_end"`
		Notes        *string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	db := database.GetDB()
	var vlan model.Vlan
	if result := db.First(&vlan, "id = ?", vlanID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "VLAN not found"})
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
		}
		vlan.Name = name
	}
	if req.SubnetMask != nil {
		vlan.SubnetMask = *req.SubnetMask
	}
	if req.IPRangeStart != nil {
		vlan.IPRangeStart = *req.IPRangeStart
	}
	if req.IPRangeEnd != nil {
		vlan.IPRangeEnd = *req.IPRangeEnd
	}
	if req.Notes != nil {
		vlan.Notes = req.Notes
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := db.Save(&vlan).Error; err != nil {
		log.Error("Failed to update VLAN", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "VLAN update failed"})
	}

	return c.JSON(http.StatusOK, toVlanResponse(&vlan))
}

// DeleteVlan deletes a VLAN once no connection or Wi-Fi network uses it
func DeleteVlan(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("vlan", "delete")

	vlanID, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid VLAN ID"})
	}

	db := database.GetDB()
	var vlan model.Vlan
	if result := db.First(&vlan, "id = ?", vlanID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "VLAN not found"})
	}

	if err := registry.GuardVlanDeletion(db, vlanID); err != nil {
		return respondError(c, "vlan", err)
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := db.Delete(&vlan).Error; err != nil {
		log.Error("Failed to delete VLAN", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "VLAN deletion failed"})
	}

	log.Info("VLAN deleted", zap.String("vlan_id", vlanID.String()))
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
