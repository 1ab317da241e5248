package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/holi87/hardware-registry/internal/model"
	"github.com/holi87/hardware-registry/pkg/config"
	"github.com/holi87/hardware-registry/pkg/database"
	"github.com/holi87/hardware-registry/pkg/jwtutil"
	"github.com/holi87/hardware-registry/pkg/password"
	"github.com/holi87/hardware-registry/pkg/secretcrypt"
)

func setupHandlerTest(t *testing.T) *gorm.DB {
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
	database.SetDB(db)

	jwtutil.Initialize(&config.JWTConfig{
		SigningKey:            "handler-test-signing-key",
		AccessExpirationMins:  5,
		RefreshExpirationDays: 1,
	})
	require.NoError(t, secretcrypt.Initialize("handler-test-passphrase"))

	return db
}

func jsonRequest(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func createTestUser(t *testing.T, db *gorm.DB, email, plaintext string, role model.UserRole) *model.User {
	t.Helper()

	hash, err := password.Hash(plaintext)
	require.NoError(t, err)
	user := model.User{Email: email, PasswordHash: hash, Role: role, IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestSetupAndLoginFlow(t *testing.T) {
	setupHandlerTest(t)

	c, rec := jsonRequest(http.MethodGet, "/setup/status", "")
	require.NoError(t, SetupStatus(c))
	assert.Equal(t, true, decodeBody(t, rec)["needs_setup"])

	// Weak password is rejected before anything is created.
	c, rec = jsonRequest(http.MethodPost, "/setup/admin",
		`{"email":"admin@example.com","password":"weak"}`)
	require.NoError(t, CreateFirstAdmin(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	c, rec = jsonRequest(http.MethodPost, "/setup/admin",
		`{"email":"Admin@Example.com","password":"Str0ng-Passw0rd!"}`)
	require.NoError(t, CreateFirstAdmin(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "admin@example.com", decodeBody(t, rec)["email"])

	c, rec = jsonRequest(http.MethodGet, "/setup/status", "")
	require.NoError(t, SetupStatus(c))
	assert.Equal(t, false, decodeBody(t, rec)["needs_setup"])

	// Second bootstrap attempt is refused.
	c, rec = jsonRequest(http.MethodPost, "/setup/admin",
		`{"email":"second@example.com","password":"Str0ng-Passw0rd!"}`)
	require.NoError(t, CreateFirstAdmin(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	c, rec = jsonRequest(http.MethodPost, "/auth/login",
		`{"email":"admin@example.com","password":"wrong-password"}`)
	require.NoError(t, Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeBody(t, rec)["error"])

	c, rec = jsonRequest(http.MethodPost, "/auth/login",
		`{"email":"admin@example.com","password":"Str0ng-Passw0rd!"}`)
	require.NoError(t, Login(c))
	require.Equal(t, http.StatusOK, rec.Code)
	tokens := decodeBody(t, rec)
	assert.NotEmpty(t, tokens["access_token"])
	assert.NotEmpty(t, tokens["refresh_token"])
	assert.Equal(t, "bearer", tokens["token_type"])

	refresh, _ := tokens["refresh_token"].(string)
	c, rec = jsonRequest(http.MethodPost, "/auth/refresh",
		fmt.Sprintf(`{"refresh_token":%q}`, refresh))
	require.NoError(t, Refresh(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLocationsTreeRequiresGrant(t *testing.T) {
	db := setupHandlerTest(t)

	rootID := uuid.New()
	root := model.Location{ID: rootID, Name: "Home", RootID: rootID}
	require.NoError(t, db.Create(&root).Error)

	user := createTestUser(t, db, "user@example.com", "Str0ng-Passw0rd!", model.RoleUser)

	c, rec := jsonRequest(http.MethodGet, "/locations/tree?root_id="+rootID.String(), "")
	c.Set("user", user)
	require.NoError(t, LocationsTree(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "No access to this root", decodeBody(t, rec)["error"])

	require.NoError(t, db.Create(&model.UserRoot{UserID: user.ID, RootID: rootID}).Error)

	c, rec = jsonRequest(http.MethodGet, "/locations/tree?root_id="+rootID.String(), "")
	c.Set("user", user)
	require.NoError(t, LocationsTree(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateVlanDuplicateNumberConflicts(t *testing.T) {
	db := setupHandlerTest(t)

	rootID := uuid.New()
	root := model.Location{ID: rootID, Name: "Home", RootID: rootID}
	require.NoError(t, db.Create(&root).Error)

	payload := fmt.Sprintf(
		`{"root_id":%q,"vlan_id":10,"name":"mgmt","subnet_mask":"255.255.255.0","ip_range_start":"10.0.0.10","ip_range_end":"10.0.0.200"}`,
		rootID)

	c, rec := jsonRequest(http.MethodPost, "/vlans", payload)
	require.NoError(t, CreateVlan(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	c, rec = jsonRequest(http.MethodPost, "/vlans", payload)
	require.NoError(t, CreateVlan(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "VLAN already exists in this root", decodeBody(t, rec)["error"])
}

func TestCreateVlanRejectsOutOfRangeNumber(t *testing.T) {
	db := setupHandlerTest(t)

	rootID := uuid.New()
	root := model.Location{ID: rootID, Name: "Home", RootID: rootID}
	require.NoError(t, db.Create(&root).Error)

	for _, number := range []int{0, 4095} {
		payload := fmt.Sprintf(
			`{"root_id":%q,"vlan_id":%d,"name":"bad","subnet_mask":"255.255.255.0","ip_range_start":"10.0.0.1","ip_range_end":"10.0.0.2"}`,
			rootID, number)
		c, rec := jsonRequest(http.MethodPost, "/vlans", payload)
		require.NoError(t, CreateVlan(c))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, number)
	}
}

func TestRevealWifiPassword(t *testing.T) {
	db := setupHandlerTest(t)

	rootID := uuid.New()
	root := model.Location{ID: rootID, Name: "Home", RootID: rootID}
	require.NoError(t, db.Create(&root).Error)

	encrypted, err := secretcrypt.Encrypt("hidden-wifi-pass")
	require.NoError(t, err)
	network := model.WifiNetwork{
		RootID:            rootID,
		SpaceID:           rootID,
		SSID:              "home-net",
		PasswordEncrypted: encrypted,
		Security:          "WPA2",
	}
	require.NoError(t, db.Create(&network).Error)

	user := createTestUser(t, db, "user@example.com", "Str0ng-Passw0rd!", model.RoleUser)
	admin := createTestUser(t, db, "admin@example.com", "Str0ng-Passw0rd!", model.RoleAdmin)

	reveal := func(caller *model.User) (*httptest.ResponseRecorder, echo.Context) {
		c, rec := jsonRequest(http.MethodPost, "/wifi/"+network.ID.String()+"/reveal", "")
		c.SetParamNames("id")
		c.SetParamValues(network.ID.String())
		c.Set("user", caller)
		return rec, c
	}

	// No grant on the root: forbidden.
	rec, c := reveal(user)
	require.NoError(t, RevealWifiPassword(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Admins bypass the grant check.
	rec, c = reveal(admin)
	require.NoError(t, RevealWifiPassword(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hidden-wifi-pass", decodeBody(t, rec)["password"])

	// A granted user may reveal as well.
	require.NoError(t, db.Create(&model.UserRoot{UserID: user.ID, RootID: rootID}).Error)
	rec, c = reveal(user)
	require.NoError(t, RevealWifiPassword(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hidden-wifi-pass", decodeBody(t, rec)["password"])
}

func TestCreateConnectionValidationChain(t *testing.T) {
	db := setupHandlerTest(t)

	rootID := uuid.New()
	root := model.Location{ID: rootID, Name: "Home", RootID: rootID}
	require.NoError(t, db.Create(&root).Error)

	router := model.Device{RootID: rootID, SpaceID: rootID, Name: "router", Type: "router"}
	require.NoError(t, db.Create(&router).Error)
	server := model.Device{RootID: rootID, SpaceID: rootID, Name: "server", Type: "server"}
	require.NoError(t, db.Create(&server).Error)

	routerPort := model.Interface{DeviceID: router.ID, Name: "eth0", Type: "RJ45"}
	require.NoError(t, db.Create(&routerPort).Error)
	serverPort := model.Interface{DeviceID: server.ID, Name: "eth0", Type: "RJ45"}
	require.NoError(t, db.Create(&serverPort).Error)

	vlan := model.Vlan{
		RootID: rootID, VlanID: 10, Name: "mgmt",
		SubnetMask: "255.255.255.0", IPRangeStart: "10.0.0.10", IPRangeEnd: "10.0.0.200",
	}
	require.NoError(t, db.Create(&vlan).Error)

	// ETHERNET without a VLAN is rejected.
	payload := fmt.Sprintf(
		`{"root_id":%q,"from_interface_id":%q,"to_interface_id":%q,"technology":"ETHERNET"}`,
		rootID, routerPort.ID, serverPort.ID)
	c, rec := jsonRequest(http.MethodPost, "/connections", payload)
	require.NoError(t, CreateConnection(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VLAN is required for ETHERNET", decodeBody(t, rec)["error"])

	// Same interface on both ends is rejected.
	payload = fmt.Sprintf(
		`{"root_id":%q,"from_interface_id":%q,"to_interface_id":%q,"technology":"ETHERNET","vlan_id":%q}`,
		rootID, routerPort.ID, routerPort.ID, vlan.ID)
	c, rec = jsonRequest(http.MethodPost, "/connections", payload)
	require.NoError(t, CreateConnection(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Connection endpoints must be different", decodeBody(t, rec)["error"])

	// Valid ETHERNET connection.
	payload = fmt.Sprintf(
		`{"root_id":%q,"from_interface_id":%q,"to_interface_id":%q,"technology":"ETHERNET","vlan_id":%q}`,
		rootID, routerPort.ID, serverPort.ID, vlan.ID)
	c, rec = jsonRequest(http.MethodPost, "/connections", payload)
	require.NoError(t, CreateConnection(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, router.ID.String(), body["from_device_id"])
	assert.Equal(t, server.ID.String(), body["to_device_id"])

	// ZIGBEE without a receiver is rejected.
	payload = fmt.Sprintf(
		`{"root_id":%q,"from_interface_id":%q,"to_interface_id":%q,"technology":"ZIGBEE"}`,
		rootID, routerPort.ID, serverPort.ID)
	c, rec = jsonRequest(http.MethodPost, "/connections", payload)
	require.NoError(t, CreateConnection(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Receiver is required for ZIGBEE", decodeBody(t, rec)["error"])
}
