package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/stashbox-api/internal/database"
	"github.com/yukikurage/stashbox-api/internal/dto"
	"github.com/yukikurage/stashbox-api/internal/models"
	"github.com/yukikurage/stashbox-api/internal/repository"
	"github.com/yukikurage/stashbox-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type locationTestEnv struct {
	db         *gorm.DB
	handler    *LocationHandler
	wsService  *services.WorkspaceService
	locService *services.LocationService
}

func setupLocationTestEnv(t *testing.T) locationTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Workspace{},
		&models.WorkspaceMember{},
		&models.Location{},
		&models.Box{},
		&models.QrCode{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	wsRepo := repository.NewWorkspaceRepository(db)
	userRepo := repository.NewUserRepository(db)
	locRepo := repository.NewLocationRepository(db)
	authz := services.NewAuthorizationService(wsRepo)
	wsService := services.NewWorkspaceService(wsRepo, userRepo, authz)
	locService := services.NewLocationService(locRepo, authz)
	handler := NewLocationHandler(locService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return locationTestEnv{
		db:         db,
		handler:    handler,
		wsService:  wsService,
		locService: locService,
	}
}

func (env locationTestEnv) seedWorkspace(t *testing.T) (*models.User, *models.Workspace) {
	t.Helper()
	user := createWorkspaceTestUser(t, env.db, "owner@example.com")
	ws, err := env.wsService.Create("Home Storage", user.ID)
	require.NoError(t, err)
	return user, ws
}

func TestLocationHandler_CreateLocation(t *testing.T) {
	env := setupLocationTestEnv(t)
	user, ws := env.seedWorkspace(t)

	payload := map[string]string{"name": "Garaż"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := wsTestContext(http.MethodPost, "/api/workspaces/1/locations", body, user.ID)
	setWorkspaceContext(c, *ws)

	env.handler.CreateLocation(c)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.LocationDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "Garaż", response.Name)
	require.Equal(t, "garaz", response.Path)
	require.Equal(t, 1, response.Depth)
}

func TestLocationHandler_CreateLocation_SiblingConflict(t *testing.T) {
	env := setupLocationTestEnv(t)
	user, ws := env.seedWorkspace(t)

	_, err := env.locService.Create(ws.ID, user.ID, services.CreateLocationInput{Name: "Garaż"})
	require.NoError(t, err)

	payload := map[string]string{"name": "garaz"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := wsTestContext(http.MethodPost, "/api/workspaces/1/locations", body, user.ID)
	setWorkspaceContext(c, *ws)

	env.handler.CreateLocation(c)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestLocationHandler_CreateLocation_TooDeep(t *testing.T) {
	env := setupLocationTestEnv(t)
	user, ws := env.seedWorkspace(t)

	var parentID *uint64
	for i := 1; i <= 5; i++ {
		loc, err := env.locService.Create(ws.ID, user.ID, services.CreateLocationInput{
			ParentID: parentID,
			Name:     fmt.Sprintf("Level %d", i),
		})
		require.NoError(t, err)
		parentID = &loc.ID
	}

	payload := map[string]interface{}{
		"parent_id": *parentID,
		"name":      "Level 6",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := wsTestContext(http.MethodPost, "/api/workspaces/1/locations", body, user.ID)
	setWorkspaceContext(c, *ws)

	env.handler.CreateLocation(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLocationHandler_ListLocations(t *testing.T) {
	env := setupLocationTestEnv(t)
	user, ws := env.seedWorkspace(t)

	garage, err := env.locService.Create(ws.ID, user.ID, services.CreateLocationInput{Name: "Garage"})
	require.NoError(t, err)
	_, err = env.locService.Create(ws.ID, user.ID, services.CreateLocationInput{
		ParentID: &garage.ID,
		Name:     "Shelf",
	})
	require.NoError(t, err)

	c, w := wsTestContext(http.MethodGet, "/api/workspaces/1/locations", nil, user.ID)
	setWorkspaceContext(c, *ws)
	c.Request.URL.RawQuery = "parent_id=" + strconv.FormatUint(garage.ID, 10)

	env.handler.ListLocations(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string][]dto.LocationDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	locations := response["locations"]
	require.Len(t, locations, 1)
	require.Equal(t, "Shelf", locations[0].Name)
	require.Equal(t, "garage.shelf", locations[0].Path)
}

func TestLocationHandler_RenameLocation(t *testing.T) {
	env := setupLocationTestEnv(t)
	user, ws := env.seedWorkspace(t)

	garage, err := env.locService.Create(ws.ID, user.ID, services.CreateLocationInput{Name: "Garage"})
	require.NoError(t, err)

	payload := map[string]string{"name": "Piwnica"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := wsTestContext(http.MethodPatch, "/api/workspaces/1/locations/1", body, user.ID)
	setWorkspaceContext(c, *ws)
	c.Params = gin.Params{{Key: "location_id", Value: strconv.FormatUint(garage.ID, 10)}}

	env.handler.RenameLocation(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.LocationDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "Piwnica", response.Name)
	require.Equal(t, "piwnica", response.Path)
}

func TestLocationHandler_DeleteLocation(t *testing.T) {
	env := setupLocationTestEnv(t)
	user, ws := env.seedWorkspace(t)

	garage, err := env.locService.Create(ws.ID, user.ID, services.CreateLocationInput{Name: "Garage"})
	require.NoError(t, err)

	c, w := wsTestContext(http.MethodDelete, "/api/workspaces/1/locations/1", nil, user.ID)
	setWorkspaceContext(c, *ws)
	c.Params = gin.Params{{Key: "location_id", Value: strconv.FormatUint(garage.ID, 10)}}

	env.handler.DeleteLocation(c)

	require.Equal(t, http.StatusOK, w.Code)

	err = env.db.First(&models.Location{}, garage.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLocationHandler_DeleteLocation_OtherWorkspace(t *testing.T) {
	env := setupLocationTestEnv(t)
	user, ws := env.seedWorkspace(t)

	other := createWorkspaceTestUser(t, env.db, "other@example.com")
	otherWs, err := env.wsService.Create("Their Storage", other.ID)
	require.NoError(t, err)
	foreign, err := env.locService.Create(otherWs.ID, other.ID, services.CreateLocationInput{Name: "Theirs"})
	require.NoError(t, err)

	c, w := wsTestContext(http.MethodDelete, "/api/workspaces/1/locations/1", nil, user.ID)
	setWorkspaceContext(c, *ws)
	c.Params = gin.Params{{Key: "location_id", Value: strconv.FormatUint(foreign.ID, 10)}}

	env.handler.DeleteLocation(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}
