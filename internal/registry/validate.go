package registry

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/holi87/hardware-registry/internal/apperr"
	"github.com/holi87/hardware-registry/internal/model"
)

// ValidateSpace checks that the space exists and belongs to the root's tree
func ValidateSpace(db *gorm.DB, rootID, spaceID uuid.UUID) error {
	var space model.Location
	err := db.First(&space, "id = ?", spaceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("Space not found")
	}
	if err != nil {
		return err
	}
	if space.RootID != rootID {
		return apperr.InvalidArgument("Space must belong to the same root")
	}
	return nil
}

// ValidateVlanRef checks that a referenced VLAN, when present, exists and
// belongs to the root
func ValidateVlanRef(db *gorm.DB, rootID uuid.UUID, vlanID *uuid.UUID) error {
	if vlanID == nil {
		return nil
	}
	var vlan model.Vlan
	err := db.First(&vlan, "id = ?", *vlanID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("VLAN not found")
	}
	if err != nil {
		return err
	}
	if vlan.RootID != rootID {
		return apperr.InvalidArgument("VLAN must belong to the same root")
	}
	return nil
}

// ValidateLinkedDevice checks that a referenced device, when present,
// exists and belongs to the root
func ValidateLinkedDevice(db *gorm.DB, rootID uuid.UUID, deviceID *uuid.UUID) error {
	if deviceID == nil {
		return nil
	}
	var device model.Device
	err := db.First(&device, "id = ?", *deviceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("Linked device not found")
	}
	if err != nil {
		return err
	}
	if device.RootID != rootID {
		return apperr.InvalidArgument("Linked device must belong to root")
	}
	return nil
}

// InterfaceWithDevice resolves an interface together with its owning device
func InterfaceWithDevice(db *gorm.DB, interfaceID uuid.UUID) (*model.Interface, *model.Device, error) {
	var iface model.Interface
	err := db.First(&iface, "id = ?", interfaceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperr.NotFound("Interface not found")
	}
	if err != nil {
		return nil, nil, err
	}

	var device model.Device
	err = db.First(&device, "id = ?", iface.DeviceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperr.NotFound("Interface not found")
	}
	if err != nil {
		return nil, nil, err
	}

	return &iface, &device, nil
}

// ValidateEndpoints rejects a connection whose two endpoints are the same
// interface
func ValidateEndpoints(fromInterfaceID, toInterfaceID uuid.UUID) error {
	if fromInterfaceID == toInterfaceID {
		return apperr.InvalidArgument("Connection endpoints must be different")
	}
	return nil
}

// ValidateVlanUsage enforces the technology gating of VLANs: mandatory for
// ETHERNET, forbidden for every other technology
func ValidateVlanUsage(technology model.ConnectionTechnology, vlanID *uuid.UUID) error {
	if technology == model.TechnologyEthernet && vlanID == nil {
		return apperr.InvalidArgument("VLAN is required for ETHERNET")
	}
	if technology != model.TechnologyEthernet && vlanID != nil {
		return apperr.InvalidArgument("VLAN can be used only for ETHERNET connections")
	}
	return nil
}
