package registry

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/holi87/hardware-registry/internal/apperr"
	"github.com/holi87/hardware-registry/internal/model"
)

// TreeNode is one location in the assembled tree view
type TreeNode struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	ParentID    *uuid.UUID  `json:"parent_id"`
	RootID      uuid.UUID   `json:"root_id"`
	Notes       *string     `json:"notes"`
	CreatedAt   time.Time   `json:"created_at"`
	DeviceCount int64       `json:"device_count"`
	Children    []*TreeNode `json:"children"`
}

// ValidateParent resolves the parent location and checks it belongs to the
// given root's tree
func ValidateParent(db *gorm.DB, rootID, parentID uuid.UUID) (*model.Location, error) {
	var parent model.Location
	err := db.First(&parent, "id = ?", parentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Parent location not found")
	}
	if err != nil {
		return nil, err
	}
	if parent.RootID != rootID {
		return nil, apperr.InvalidArgument("Parent location must belong to the same root")
	}
	return &parent, nil
}

// Reparent validates a parent change for the location and, when all checks
// pass, updates the in-memory parent pointer. The caller persists the
// change. Passing the location's current parent is valid and idempotent.
func Reparent(db *gorm.DB, location *model.Location, newParentID *uuid.UUID) error {
	if location.IsRoot() {
		if newParentID != nil {
			return apperr.InvalidArgument("Root location cannot have a parent")
		}
		return nil
	}
	if newParentID == nil {
		return apperr.InvalidArgument("Non-root location must have a parent")
	}
	if *newParentID == location.ID {
		return apperr.InvalidArgument("Location cannot be parent of itself")
	}

	if _, err := ValidateParent(db, location.RootID, *newParentID); err != nil {
		return err
	}

	cyclic, err := createsCycle(db, location, *newParentID)
	if err != nil {
		return err
	}
	if cyclic {
		return apperr.InvalidArgument("Location parent would create a cycle")
	}

	location.ParentID = newParentID
	return nil
}

// createsCycle walks the new parent's ancestor chain. The walk terminates
// when it reaches a location without a parent (the root). A revisited node
// or a walk longer than the root's node count signals corrupted data and
// counts as a cycle.
func createsCycle(db *gorm.DB, location *model.Location, newParentID uuid.UUID) (bool, error) {
	var limit int64
	if err := db.Model(&model.Location{}).
		Where("root_id = ?", location.RootID).
		Count(&limit).Error; err != nil {
		return false, err
	}

	visited := make(map[uuid.UUID]struct{})
	current := &newParentID
	var steps int64

	for current != nil {
		if *current == location.ID {
			return true, nil
		}
		if _, seen := visited[*current]; seen {
			return true, nil
		}
		visited[*current] = struct{}{}

		steps++
		if steps > limit {
			return true, nil
		}

		var ancestor model.Location
		err := db.Select("parent_id").First(&ancestor, "id = ?", *current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			break
		}
		if err != nil {
			return false, err
		}
		current = ancestor.ParentID
	}

	return false, nil
}

// BuildTree loads every location of the root and assembles the full tree
// with per-space device counts. Children are sorted case-insensitively by
// name at every level. The tree is rebuilt on every call.
func BuildTree(db *gorm.DB, rootID uuid.UUID) (*TreeNode, error) {
	var locations []model.Location
	if err := db.Where("root_id = ?", rootID).Find(&locations).Error; err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		return nil, apperr.NotFound("Root tree not found")
	}

	deviceCounts, err := deviceCountsBySpace(db, rootID)
	if err != nil {
		return nil, err
	}

	nodes := make(map[uuid.UUID]*TreeNode, len(locations))
	for _, location := range locations {
		nodes[location.ID] = &TreeNode{
			ID:          location.ID,
			Name:        location.Name,
			ParentID:    location.ParentID,
			RootID:      location.RootID,
			Notes:       location.Notes,
			CreatedAt:   location.CreatedAt,
			DeviceCount: deviceCounts[location.ID],
			Children:    []*TreeNode{},
		}
	}

	for _, location := range locations {
		if location.ID == rootID || location.ParentID == nil {
			continue
		}
		if parent, ok := nodes[*location.ParentID]; ok {
			parent.Children = append(parent.Children, nodes[location.ID])
		}
	}

	root, ok := nodes[rootID]
	if !ok {
		return nil, apperr.NotFound("Root tree not found")
	}

	sortChildren(root)
	return root, nil
}

func sortChildren(node *TreeNode) {
	sort.SliceStable(node.Children, func(i, j int) bool {
		return strings.ToLower(node.Children[i].Name) < strings.ToLower(node.Children[j].Name)
	})
	for _, child := range node.Children {
		sortChildren(child)
	}
}

func deviceCountsBySpace(db *gorm.DB, rootID uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []struct {
		SpaceID uuid.UUID
		Count   int64
	}
	if err := db.Model(&model.Device{}).
		Select("space_id, count(id) as count").
		Where("root_id = ?", rootID).
		Group("space_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.SpaceID] = row.Count
	}
	return counts, nil
}
