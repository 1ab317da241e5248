package registry

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holi87/hardware-registry/internal/apperr"
)

func TestValidateParent(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")
	office := makeRoot(t, db, "Office")
	garage := makeLocation(t, db, home, home.ID, "Garage")

	parent, err := ValidateParent(db, home.ID, garage.ID)
	require.NoError(t, err)
	assert.Equal(t, garage.ID, parent.ID)

	_, err = ValidateParent(db, home.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.EqualError(t, err, "Parent location not found")

	_, err = ValidateParent(db, office.ID, garage.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.EqualError(t, err, "Parent location must belong to the same root")
}

func TestReparentRootCannotHaveParent(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")
	garage := makeLocation(t, db, home, home.ID, "Garage")

	err := Reparent(db, home, &garage.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.EqualError(t, err, "Root location cannot have a parent")

	// Clearing the parent of a root is a no-op, not an error.
	require.NoError(t, Reparent(db, home, nil))
}

func TestReparentNonRootNeedsParent(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")
	garage := makeLocation(t, db, home, home.ID, "Garage")

	err := Reparent(db, garage, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.EqualError(t, err, "Non-root location must have a parent")
}

func TestReparentSelfParentRejected(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")
	garage := makeLocation(t, db, home, home.ID, "Garage")

	err := Reparent(db, garage, &garage.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.EqualError(t, err, "Location cannot be parent of itself")
}

func TestReparentCycleRejected(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")
	floor := makeLocation(t, db, home, home.ID, "Floor 1")
	rack := makeLocation(t, db, home, floor.ID, "Rack A")

	// Rack A hangs under Floor 1; making Rack A the parent of Floor 1
	// would close a loop.
	err := Reparent(db, floor, &rack.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.EqualError(t, err, "Location parent would create a cycle")
}

func TestReparentDeepCycleRejected(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")
	floor := makeLocation(t, db, home, home.ID, "Floor 1")
	room := makeLocation(t, db, home, floor.ID, "Server Room")
	rack := makeLocation(t, db, home, room.ID, "Rack A")

	err := Reparent(db, floor, &rack.ID)
	require.Error(t, err)
	assert.EqualError(t, err, "Location parent would create a cycle")
}

func TestReparentValidMove(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")
	floor1 := makeLocation(t, db, home, home.ID, "Floor 1")
	floor2 := makeLocation(t, db, home, home.ID, "Floor 2")
	rack := makeLocation(t, db, home, floor1.ID, "Rack A")

	require.NoError(t, Reparent(db, rack, &floor2.ID))
	require.NoError(t, db.Save(rack).Error)
	assert.Equal(t, floor2.ID, *rack.ParentID)

	// Reparenting onto the current parent is idempotent.
	require.NoError(t, Reparent(db, rack, &floor2.ID))
	assert.Equal(t, floor2.ID, *rack.ParentID)
}

func TestReparentParentFromOtherRootRejected(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")
	office := makeRoot(t, db, "Office")
	rack := makeLocation(t, db, home, home.ID, "Rack A")
	desk := makeLocation(t, db, office, office.ID, "Desk")

	err := Reparent(db, rack, &desk.ID)
	require.Error(t, err)
	assert.EqualError(t, err, "Parent location must belong to the same root")
}

func TestBuildTreeOrdersChildrenCaseInsensitively(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")

	// Inserted out of order on purpose; the tree must not depend on
	// insertion order.
	makeLocation(t, db, home, home.ID, "zeta wing")
	beta := makeLocation(t, db, home, home.ID, "beta wing")
	makeLocation(t, db, home, home.ID, "Alpha wing")
	makeLocation(t, db, home, beta.ID, "Storage")
	makeLocation(t, db, home, beta.ID, "attic")
	makeLocation(t, db, home, beta.ID, "Basement")

	tree, err := BuildTree(db, home.ID)
	require.NoError(t, err)
	require.Len(t, tree.Children, 3)
	assert.Equal(t, "Alpha wing", tree.Children[0].Name)
	assert.Equal(t, "beta wing", tree.Children[1].Name)
	assert.Equal(t, "zeta wing", tree.Children[2].Name)

	nested := tree.Children[1]
	require.Len(t, nested.Children, 3)
	assert.Equal(t, "attic", nested.Children[0].Name)
	assert.Equal(t, "Basement", nested.Children[1].Name)
	assert.Equal(t, "Storage", nested.Children[2].Name)
}

func TestBuildTreeCountsDevicesPerSpace(t *testing.T) {
	db := setupTestDB(t)
	home := makeRoot(t, db, "Home")
	garage := makeLocation(t, db, home, home.ID, "Garage")

	makeDevice(t, db, home, garage.ID, "router", nil)
	makeDevice(t, db, home, garage.ID, "switch", nil)
	makeDevice(t, db, home, home.ID, "gateway", nil)

	tree, err := BuildTree(db, home.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), tree.DeviceCount)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, int64(2), tree.Children[0].DeviceCount)
}

func TestBuildTreeUnknownRoot(t *testing.T) {
	db := setupTestDB(t)

	_, err := BuildTree(db, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.EqualError(t, err, "Root tree not found")
}
