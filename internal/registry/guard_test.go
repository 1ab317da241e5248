package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holi87/hardware-registry/internal/apperr"
	"github.com/holi87/hardware-registry/internal/model"
)

func TestGuardDeviceDeletion(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")
	router := makeDevice(t, db, home, home.ID, "router", nil)

	require.NoError(t, GuardDeviceDeletion(db, router.ID))

	port := model.Interface{DeviceID: router.ID, Name: "eth0", Type: "RJ45"}
	require.NoError(t, db.Create(&port).Error)
	secret := model.Secret{
		RootID:         home.ID,
		Type:           model.SecretPassword,
		Name:           "router admin",
		EncryptedValue: "x",
		LinkedDeviceID: &router.ID,
	}
	require.NoError(t, db.Create(&secret).Error)

	err := GuardDeviceDeletion(db, router.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.EqualError(t, err,
		"Cannot delete device with dependencies. Linked interfaces: 1, receiver assignments: 0, linked secrets: 1. Remove or edit dependencies first.")
}

func TestGuardDeviceDeletionCountsReceiverAssignments(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")
	hub := makeDevice(t, db, home, home.ID, "hub", func(d *model.Device) {
		d.IsReceiver = true
		d.SupportsZigbee = true
	})
	sensor := makeDevice(t, db, home, home.ID, "sensor", nil)
	bulb := makeDevice(t, db, home, home.ID, "bulb", nil)

	fromPort := model.Interface{DeviceID: sensor.ID, Name: "radio", Type: "ZIGBEE"}
	toPort := model.Interface{DeviceID: bulb.ID, Name: "radio", Type: "ZIGBEE"}
	require.NoError(t, db.Create(&fromPort).Error)
	require.NoError(t, db.Create(&toPort).Error)

	connection := model.Connection{
		RootID:          home.ID,
		FromInterfaceID: fromPort.ID,
		ToInterfaceID:   toPort.ID,
		ReceiverID:      &hub.ID,
		Technology:      model.TechnologyZigbee,
	}
	require.NoError(t, db.Create(&connection).Error)

	err := GuardDeviceDeletion(db, hub.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "receiver assignments: 1")
}

func TestGuardVlanDeletion(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")
	vlan := makeVlan(t, db, home, 10, "mgmt")

	require.NoError(t, GuardVlanDeletion(db, vlan.ID))

	network := model.WifiNetwork{
		RootID:            home.ID,
		SpaceID:           home.ID,
		SSID:              "home-net",
		PasswordEncrypted: "x",
		Security:          "WPA2",
		VlanID:            &vlan.ID,
	}
	require.NoError(t, db.Create(&network).Error)

	err := GuardVlanDeletion(db, vlan.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.EqualError(t, err,
		"Cannot delete VLAN with dependencies. Wi-Fi networks: 1, connections: 0. Remove or edit dependencies first.")
}

func TestGuardLocationDeletion(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")
	garage := makeLocation(t, db, home, home.ID, "Garage")

	require.NoError(t, GuardLocationDeletion(db, garage.ID))

	makeLocation(t, db, home, garage.ID, "Workbench")
	makeDevice(t, db, home, garage.ID, "opener", nil)

	err := GuardLocationDeletion(db, garage.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.EqualError(t, err,
		"Cannot delete location with dependencies. Child locations: 1, devices: 1, Wi-Fi networks: 0. Remove or edit dependencies first.")
}
