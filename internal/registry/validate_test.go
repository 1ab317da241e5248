package registry

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holi87/hardware-registry/internal/apperr"
	"github.com/holi87/hardware-registry/internal/model"
)

func TestValidateSpace(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")
	office := makeRoot(t, db, "Office")
	garage := makeLocation(t, db, home, home.ID, "Garage")

	require.NoError(t, ValidateSpace(db, home.ID, garage.ID))
	// The root itself is a valid space.
	require.NoError(t, ValidateSpace(db, home.ID, home.ID))

	err := ValidateSpace(db, home.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.EqualError(t, err, "Space not found")

	err = ValidateSpace(db, office.ID, garage.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.EqualError(t, err, "Space must belong to the same root")
}

func TestValidateVlanRef(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")
	office := makeRoot(t, db, "Office")
	vlan := makeVlan(t, db, home, 10, "mgmt")

	require.NoError(t, ValidateVlanRef(db, home.ID, nil))
	require.NoError(t, ValidateVlanRef(db, home.ID, &vlan.ID))

	unknown := uuid.New()
	err := ValidateVlanRef(db, home.ID, &unknown)
	require.Error(t, err)
	assert.EqualError(t, err, "VLAN not found")

	err = ValidateVlanRef(db, office.ID, &vlan.ID)
	require.Error(t, err)
	assert.EqualError(t, err, "VLAN must belong to the same root")
}

func TestValidateLinkedDevice(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")
	office := makeRoot(t, db, "Office")
	device := makeDevice(t, db, home, home.ID, "router", nil)

	require.NoError(t, ValidateLinkedDevice(db, home.ID, nil))
	require.NoError(t, ValidateLinkedDevice(db, home.ID, &device.ID))

	unknown := uuid.New()
	err := ValidateLinkedDevice(db, home.ID, &unknown)
	require.Error(t, err)
	assert.EqualError(t, err, "Linked device not found")

	err = ValidateLinkedDevice(db, office.ID, &device.ID)
	require.Error(t, err)
	assert.EqualError(t, err, "Linked device must belong to root")
}

func TestInterfaceWithDevice(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")
	router := makeDevice(t, db, home, home.ID, "router", nil)

	port := model.Interface{DeviceID: router.ID, Name: "eth0", Type: "RJ45"}
	require.NoError(t, db.Create(&port).Error)

	iface, device, err := InterfaceWithDevice(db, port.ID)
	require.NoError(t, err)
	assert.Equal(t, port.ID, iface.ID)
	assert.Equal(t, router.ID, device.ID)

	_, _, err = InterfaceWithDevice(db, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.EqualError(t, err, "Interface not found")
}

func TestValidateEndpoints(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	require.NoError(t, ValidateEndpoints(a, b))

	err := ValidateEndpoints(a, a)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.EqualError(t, err, "Connection endpoints must be different")
}

func TestValidateVlanUsage(t *testing.T) {
	vlanID := uuid.New()

	// ETHERNET requires a VLAN.
	err := ValidateVlanUsage(model.TechnologyEthernet, nil)
	require.Error(t, err)
	assert.EqualError(t, err, "VLAN is required for ETHERNET")
	require.NoError(t, ValidateVlanUsage(model.TechnologyEthernet, &vlanID))

	// Everything else forbids one.
	for _, technology := range []model.ConnectionTechnology{
		model.TechnologyFiber,
		model.TechnologyWifi,
		model.TechnologyZigbee,
		model.TechnologySerial,
		model.TechnologyOther,
	} {
		require.NoError(t, ValidateVlanUsage(technology, nil), technology)

		err := ValidateVlanUsage(technology, &vlanID)
		require.Error(t, err, technology)
		assert.EqualError(t, err, "VLAN can be used only for ETHERNET connections")
	}
}
