package registry

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/holi87/hardware-registry/internal/apperr"
	"github.com/holi87/hardware-registry/internal/model"
)

// ReceiverCapabilities are the per-technology capability flags of a device
type ReceiverCapabilities struct {
	Wifi         bool
	Ethernet     bool
	Zigbee       bool
	MatterThread bool
	Bluetooth    bool
	BLE          bool
}

// DeviceCapabilities reads the capability flags off a device
func DeviceCapabilities(device *model.Device) ReceiverCapabilities {
	return ReceiverCapabilities{
		Wifi:         device.SupportsWifi,
		Ethernet:     device.SupportsEthernet,
		Zigbee:       device.SupportsZigbee,
		MatterThread: device.SupportsMatterThread,
		Bluetooth:    device.SupportsBluetooth,
		BLE:          device.SupportsBLE,
	}
}

// Short-range and mesh technologies require a receiver device with the
// matching capability flag. All other technologies take an optional
// receiver without a capability check.
var technologyReceiverCapability = map[model.ConnectionTechnology]func(*model.Device) bool{
	model.TechnologyZigbee:           func(d *model.Device) bool { return d.SupportsZigbee },
	model.TechnologyMatterOverThread: func(d *model.Device) bool { return d.SupportsMatterThread },
	model.TechnologyBluetooth:        func(d *model.Device) bool { return d.SupportsBluetooth },
	model.TechnologyBLE:              func(d *model.Device) bool { return d.SupportsBLE },
}

// ValidateReceiver checks the receiver requirements for a connection and
// returns the validated receiver id (nil when no receiver applies)
func ValidateReceiver(db *gorm.DB, rootID uuid.UUID, technology model.ConnectionTechnology, receiverID *uuid.UUID) (*uuid.UUID, error) {
	supports, capabilityRequired := technologyReceiverCapability[technology]
	if !capabilityRequired && receiverID == nil {
		return nil, nil
	}

	if receiverID == nil {
		return nil, apperr.InvalidArgument(fmt.Sprintf("Receiver is required for %s", technology))
	}

	var receiver model.Device
	err := db.First(&receiver, "id = ?", *receiverID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Receiver device not found")
	}
	if err != nil {
		return nil, err
	}

	if receiver.RootID != rootID {
		return nil, apperr.InvalidArgument("Receiver must belong to the same root")
	}
	if !receiver.IsReceiver {
		return nil, apperr.InvalidArgument("Selected device is not a receiver")
	}
	if capabilityRequired && !supports(&receiver) {
		return nil, apperr.InvalidArgument(fmt.Sprintf("Receiver does not support %s", technology))
	}

	return &receiver.ID, nil
}

// NormalizeReceiverCapabilities applies the capability invariant: flags are
// meaningful only on receivers. When the device is not a receiver every
// flag is forced false; requested flags are dropped rather than rejected.
func NormalizeReceiverCapabilities(isReceiver bool, capabilities ReceiverCapabilities) (bool, ReceiverCapabilities) {
	if !isReceiver {
		return false, ReceiverCapabilities{}
	}
	return true, capabilities
}

// ApplyCapabilities writes the normalized flags back onto the device
func ApplyCapabilities(device *model.Device, isReceiver bool, capabilities ReceiverCapabilities) {
	device.IsReceiver = isReceiver
	device.SupportsWifi = capabilities.Wifi
	device.SupportsEthernet = capabilities.Ethernet
	device.SupportsZigbee = capabilities.Zigbee
	device.SupportsMatterThread = capabilities.MatterThread
	device.SupportsBluetooth = capabilities.Bluetooth
	device.SupportsBLE = capabilities.BLE
}
