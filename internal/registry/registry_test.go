package registry

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/holi87/hardware-registry/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Location{},
		&model.UserRoot{},
		&model.Vlan{},
		&model.Device{},
		&model.Interface{},
		&model.Connection{},
		&model.WifiNetwork{},
		&model.Secret{},
	))
	return db
}

func makeRoot(t *testing.T, db *gorm.DB, name string) *model.Location {
	t.Helper()

	id := uuid.New()
	root := model.Location{ID: id, Name: name, RootID: id}
	require.NoError(t, db.Create(&root).Error)
	return &root
}

func makeLocation(t *testing.T, db *gorm.DB, root *model.Location, parentID uuid.UUID, name string) *model.Location {
	t.Helper()

	location := model.Location{Name: name, ParentID: &parentID, RootID: root.ID}
	require.NoError(t, db.Create(&location).Error)
	return &location
}

func makeUser(t *testing.T, db *gorm.DB, email string, role model.UserRole) *model.User {
	t.Helper()

	user := model.User{Email: email, PasswordHash: "x", Role: role, IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func grantRoot(t *testing.T, db *gorm.DB, user *model.User, root *model.Location) {
	t.Helper()
	require.NoError(t, db.Create(&model.UserRoot{UserID: user.ID, RootID: root.ID}).Error)
}

func makeDevice(t *testing.T, db *gorm.DB, root *model.Location, spaceID uuid.UUID, name string, mutate func(*model.Device)) *model.Device {
	t.Helper()

	device := model.Device{RootID: root.ID, SpaceID: spaceID, Name: name, Type: "generic"}
	if mutate != nil {
		mutate(&device)
	}
	require.NoError(t, db.Create(&device).Error)
	return &device
}

func makeVlan(t *testing.T, db *gorm.DB, root *model.Location, number int, name string) *model.Vlan {
	t.Helper()

	vlan := model.Vlan{
		RootID:       root.ID,
		VlanID:       number,
		Name:         name,
		SubnetMask:   "255.255.255.0",
		IPRangeStart: "10.0.0.10",
		IPRangeEnd:   "10.0.0.200",
	}
	require.NoError(t, db.Create(&vlan).Error)
	return &vlan
}
