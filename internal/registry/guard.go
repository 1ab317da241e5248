package registry

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/holi87/hardware-registry/internal/apperr"
	"github.com/holi87/hardware-registry/internal/model"
)

// Deletion guards. Devices, VLANs and non-root locations are never
// cascade-deleted: as long as dependents reference them, deletion fails
// with Conflict and the per-kind counts so the caller can unlink first.
// Roots are the exception and cascade at the schema level.

// GuardDeviceDeletion refuses to delete a device that still has
// interfaces, receiver assignments or linked secrets
func GuardDeviceDeletion(db *gorm.DB, deviceID uuid.UUID) error {
	var interfaces, receivers, secrets int64

	if err := db.Model(&model.Interface{}).
		Where("device_id = ?", deviceID).Count(&interfaces).Error; err != nil {
		return err
	}
	if err := db.Model(&model.Connection{}).
		Where("receiver_id = ?", deviceID).Count(&receivers).Error; err != nil {
		return err
	}
	if err := db.Model(&model.Secret{}).
		Where("linked_device_id = ?", deviceID).Count(&secrets).Error; err != nil {
		return err
	}

	if interfaces > 0 || receivers > 0 || secrets > 0 {
		return apperr.Conflict(fmt.Sprintf(
			"Cannot delete device with dependencies. Linked interfaces: %d, receiver assignments: %d, linked secrets: %d. Remove or edit dependencies first.",
			interfaces, receivers, secrets))
	}
	return nil
}

// GuardVlanDeletion refuses to delete a VLAN that is still referenced by
// Wi-Fi networks or connections
func GuardVlanDeletion(db *gorm.DB, vlanID uuid.UUID) error {
	var networks, connections int64

	if err := db.Model(&model.WifiNetwork{}).
		Where("vlan_id = ?", vlanID).Count(&networks).Error; err != nil {
		return err
	}
	if err := db.Model(&model.Connection{}).
		Where("vlan_id = ?", vlanID).Count(&connections).Error; err != nil {
		return err
	}

	if networks > 0 || connections > 0 {
		return apperr.Conflict(fmt.Sprintf(
			"Cannot delete VLAN with dependencies. Wi-Fi networks: %d, connections: %d. Remove or edit dependencies first.",
			networks, connections))
	}
	return nil
}

// GuardLocationDeletion refuses to delete a non-root location that still
// has child locations, devices or Wi-Fi networks in its space
func GuardLocationDeletion(db *gorm.DB, locationID uuid.UUID) error {
	var children, devices, networks int64

	if err := db.Model(&model.Location{}).
		Where("parent_id = ?", locationID).Count(&children).Error; err != nil {
		return err
	}
	if err := db.Model(&model.Device{}).
		Where("space_id = ?", locationID).Count(&devices).Error; err != nil {
		return err
	}
	if err := db.Model(&model.WifiNetwork{}).
		Where("space_id = ?", locationID).Count(&networks).Error; err != nil {
		return err
	}

	if children > 0 || devices > 0 || networks > 0 {
		return apperr.Conflict(fmt.Sprintf(
			"Cannot delete location with dependencies. Child locations: %d, devices: %d, Wi-Fi networks: %d. Remove or edit dependencies first.",
			children, devices, networks))
	}
	return nil
}
