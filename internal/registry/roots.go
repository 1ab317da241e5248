// Package registry implements the root-scoped core of the hardware
// registry: multi-tenant access resolution, cycle-safe maintenance of the
// location trees, and the cross-entity validation that gates connection
// creation and guards deletions.
//
// Every function is side-effect free with respect to the store (callers
// persist after validation) and fails fast with an apperr kind.
package registry

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/holi87/hardware-registry/internal/apperr"
	"github.com/holi87/hardware-registry/internal/model"
)

// RootSet is an unordered set of root identifiers
type RootSet map[uuid.UUID]struct{}

// Contains reports whether the set holds the given root
func (s RootSet) Contains(rootID uuid.UUID) bool {
	_, ok := s[rootID]
	return ok
}

// AllRootIDs returns the identifiers of every root location. A location is
// a root iff its id equals its root_id.
func AllRootIDs(db *gorm.DB) (RootSet, error) {
	var ids []uuid.UUID
	if err := db.Model(&model.Location{}).
		Where("id = root_id").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return toSet(ids), nil
}

// AccessibleRootIDs returns the roots the user may act within.
// Administrators have implicit access to every root; ordinary users only
// to roots granted through UserRoot.
func AccessibleRootIDs(db *gorm.DB, user *model.User) (RootSet, error) {
	if user.IsAdmin() {
		return AllRootIDs(db)
	}

	var ids []uuid.UUID
	if err := db.Model(&model.UserRoot{}).
		Where("user_id = ?", user.ID).
		Pluck("root_id", &ids).Error; err != nil {
		return nil, err
	}
	return toSet(ids), nil
}

// ResolveRoot fetches the location and fails unless it is a genuine root.
// This doubles as the root-existence check used throughout the service.
func ResolveRoot(db *gorm.DB, rootID uuid.UUID) (*model.Location, error) {
	var root model.Location
	err := db.First(&root, "id = ?", rootID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Root not found")
	}
	if err != nil {
		return nil, err
	}
	if !root.IsRoot() {
		return nil, apperr.NotFound("Root not found")
	}
	return &root, nil
}

// RequireAccess fails with Forbidden unless the user may act within the
// root. Must be called before any root-scoped read or mutation that is not
// already admin-gated.
func RequireAccess(db *gorm.DB, user *model.User, rootID uuid.UUID) error {
	accessible, err := AccessibleRootIDs(db, user)
	if err != nil {
		return err
	}
	if !accessible.Contains(rootID) {
		return apperr.Forbidden("No access to this root")
	}
	return nil
}

func toSet(ids []uuid.UUID) RootSet {
	set := make(RootSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
