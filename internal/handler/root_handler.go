package handler

import (
	"net/http"
	"sort"
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

type rootResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

func toRootResponse(root *model.Location) rootResponse {
	return rootResponse{
		ID:        root.ID,
		Name:      root.Name,
		Notes:     root.Notes,
		CreatedAt: root.CreatedAt,
	}
}

// ListRoots returns the roots the caller may access, sorted by name
func ListRoots(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	prometheus.RecordEntityOperation("root", "list")

	accessible, err := registry.AccessibleRootIDs(database.GetDB(), user)
	if err != nil {
		return respondError(c, "root", err)
	}
	if len(accessible) == 0 {
		return c.JSON(http.StatusOK, []rootResponse{})
	}

	ids := make([]uuid.UUID, 0, len(accessible))
	for id := range accessible {
		ids = append(ids, id)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var roots []model.Location
	if err := database.GetDB().Where("id IN ?", ids).Find(&roots).Error; err != nil {
		return respondError(c, "root", err)
	}

	sort.Slice(roots, func(i, j int) bool {
		return strings.ToLower(roots[i].Name) < strings.ToLower(roots[j].Name)
	})

	response := make([]rootResponse, 0, len(roots))
	for i := range roots {
		response = append(response, toRootResponse(&roots[i]))
	}
	return c.JSON(http.StatusOK, response)
}

// CreateRoot creates a new root location (head of its own tree)
func CreateRoot(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("root", "create")

	var req struct {
		Name  string  `json:"name"`
		Notes *string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	rootID := uuid.New()
	root := model.Location{
		ID:       rootID,
		Name:     req.Name,
		ParentID: nil,
		RootID:   rootID,
		Notes:    req.Notes,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&root); result.Error != nil {
		log.Error("Failed to create root", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "root creation failed"})
	}

	log.Info("Root created", zap.String("root_id", rootID.String()), zap.String("name", root.Name))
	return c.JSON(http.StatusCreated, toRootResponse(&root))
}

// UpdateRoot renames or annotates a root
func UpdateRoot(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("root", "update")

	rootID, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid root ID"})
	}

	var req struct {
		Name  *string `json:"name"`
		Notes *string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	root, err := registry.ResolveRoot(database.GetDB(), rootID)
	if err != nil {
		return respondError(c, "root", err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
		}
		root.Name = name
	}
	if req.Notes != nil {
		root.Notes = req.Notes
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(root).Error; err != nil {
		log.Error("Failed to update root", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "root update failed"})
	}

	return c.JSON(http.StatusOK, toRootResponse(root))
}

// DeleteRoot deletes a root; the schema cascades the deletion to every
// location in its tree and all root-scoped dependents
func DeleteRoot(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("root", "delete")

	rootID, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid root ID"})
	}

	root, err := registry.ResolveRoot(database.GetDB(), rootID)
	if err != nil {
		return respondError(c, "root", err)
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(root).Error; err != nil {
		log.Error("Failed to delete root", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "root deletion failed"})
	}

	log.Info("Root deleted", zap.String("root_id", rootID.String()))
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
