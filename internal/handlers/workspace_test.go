package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/stashbox-api/internal/constants"
	"github.com/yukikurage/stashbox-api/internal/database"
	"github.com/yukikurage/stashbox-api/internal/dto"
	"github.com/yukikurage/stashbox-api/internal/models"
	"github.com/yukikurage/stashbox-api/internal/repository"
	"github.com/yukikurage/stashbox-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type workspaceTestEnv struct {
	db        *gorm.DB
	handler   *WorkspaceHandler
	wsService *services.WorkspaceService
}

func setupWorkspaceTestEnv(t *testing.T) workspaceTestEnv {
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
	authz := services.NewAuthorizationService(wsRepo)
	wsService := services.NewWorkspaceService(wsRepo, userRepo, authz)
	handler := NewWorkspaceHandler(wsService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return workspaceTestEnv{
		db:        db,
		handler:   handler,
		wsService: wsService,
	}
}

func wsTestContext(method, url string, body []byte, userID uint64) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, userID)

	return c, w
}

// setWorkspaceContext simulates RequireWorkspaceAccess.
func setWorkspaceContext(c *gin.Context, ws models.Workspace) {
	c.Set(constants.ContextKeyWorkspace, ws)
}

func createWorkspaceTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "hashed",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestWorkspaceHandler_CreateWorkspace(t *testing.T) {
	env := setupWorkspaceTestEnv(t)

	user := createWorkspaceTestUser(t, env.db, "owner@example.com")

	payload := map[string]string{"name": "Home Storage"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := wsTestContext(http.MethodPost, "/api/workspaces", body, user.ID)

	env.handler.CreateWorkspace(c)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.WorkspaceDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, payload["name"], response.Name)
	require.Equal(t, user.ID, response.OwnerID)
}

func TestWorkspaceHandler_ListWorkspaces(t *testing.T) {
	env := setupWorkspaceTestEnv(t)

	user := createWorkspaceTestUser(t, env.db, "member@example.com")

	_, err := env.wsService.Create("Home Storage", user.ID)
	require.NoError(t, err)

	c, w := wsTestContext(http.MethodGet, "/api/workspaces", nil, user.ID)

	env.handler.ListWorkspaces(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string][]dto.WorkspaceWithRoleDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	workspaces := response["workspaces"]
	require.Len(t, workspaces, 1)
	require.Equal(t, "Home Storage", workspaces[0].WorkspaceDTO.Name)
	require.Equal(t, models.RoleOwner, workspaces[0].Role)
}

func TestWorkspaceHandler_GetWorkspace(t *testing.T) {
	env := setupWorkspaceTestEnv(t)

	user := createWorkspaceTestUser(t, env.db, "owner@example.com")
	ws, err := env.wsService.Create("Home Storage", user.ID)
	require.NoError(t, err)

	c, w := wsTestContext(http.MethodGet, "/api/workspaces/1", nil, user.ID)
	setWorkspaceContext(c, *ws)

	env.handler.GetWorkspace(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.WorkspaceDetailDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, ws.ID, response.ID)
	require.Equal(t, models.RoleOwner, response.YourRole)
	require.Len(t, response.Members, 1)
}

func TestWorkspaceHandler_UpdateWorkspace_NotOwner(t *testing.T) {
	env := setupWorkspaceTestEnv(t)

	owner := createWorkspaceTestUser(t, env.db, "owner@example.com")
	admin := createWorkspaceTestUser(t, env.db, "admin@example.com")

	ws, err := env.wsService.Create("Home Storage", owner.ID)
	require.NoError(t, err)
	_, err = env.wsService.InviteMember(ws.ID, owner.ID, services.InviteMemberInput{
		UserID: admin.ID,
		Role:   models.RoleAdmin,
	})
	require.NoError(t, err)

	payload := map[string]string{"name": "Renamed"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := wsTestContext(http.MethodPut, "/api/workspaces/1", body, admin.ID)
	setWorkspaceContext(c, *ws)

	env.handler.UpdateWorkspace(c)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestWorkspaceHandler_DeleteWorkspace(t *testing.T) {
	env := setupWorkspaceTestEnv(t)

	user := createWorkspaceTestUser(t, env.db, "owner@example.com")
	ws, err := env.wsService.Create("Home Storage", user.ID)
	require.NoError(t, err)

	c, w := wsTestContext(http.MethodDelete, "/api/workspaces/1", nil, user.ID)
	setWorkspaceContext(c, *ws)

	env.handler.DeleteWorkspace(c)

	require.Equal(t, http.StatusOK, w.Code)

	err = env.db.First(&models.Workspace{}, ws.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestWorkspaceHandler_InviteMember_Duplicate(t *testing.T) {
	env := setupWorkspaceTestEnv(t)

	owner := createWorkspaceTestUser(t, env.db, "owner@example.com")
	invitee := createWorkspaceTestUser(t, env.db, "invitee@example.com")

	ws, err := env.wsService.Create("Home Storage", owner.ID)
	require.NoError(t, err)
	_, err = env.wsService.InviteMember(ws.ID, owner.ID, services.InviteMemberInput{
		UserID: invitee.ID,
		Role:   models.RoleMember,
	})
	require.NoError(t, err)

	payload := map[string]interface{}{
		"user_id": invitee.ID,
		"role":    "member",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := wsTestContext(http.MethodPost, "/api/workspaces/1/members", body, owner.ID)
	setWorkspaceContext(c, *ws)

	env.handler.InviteMember(c)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestWorkspaceHandler_InviteMember_ByEmail(t *testing.T) {
	env := setupWorkspaceTestEnv(t)

	owner := createWorkspaceTestUser(t, env.db, "owner@example.com")
	invitee := createWorkspaceTestUser(t, env.db, "invitee@example.com")

	ws, err := env.wsService.Create("Home Storage", owner.ID)
	require.NoError(t, err)

	payload := map[string]string{
		"email": "invitee@example.com",
		"role":  "read_only",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := wsTestContext(http.MethodPost, "/api/workspaces/1/members", body, owner.ID)
	setWorkspaceContext(c, *ws)

	env.handler.InviteMember(c)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.WorkspaceMemberDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, invitee.ID, response.User.ID)
	require.Equal(t, models.RoleReadOnly, response.Role)
}

func TestWorkspaceHandler_ChangeMemberRole_LastOwner(t *testing.T) {
	env := setupWorkspaceTestEnv(t)

	owner := createWorkspaceTestUser(t, env.db, "owner@example.com")
	ws, err := env.wsService.Create("Home Storage", owner.ID)
	require.NoError(t, err)

	payload := map[string]string{"role": "admin"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := wsTestContext(http.MethodPatch, "/api/workspaces/1/members/1", body, owner.ID)
	setWorkspaceContext(c, *ws)
	c.Params = gin.Params{{Key: "user_id", Value: "1"}}

	env.handler.ChangeMemberRole(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestWorkspaceHandler_RemoveMember_SelfLeave(t *testing.T) {
	env := setupWorkspaceTestEnv(t)

	owner := createWorkspaceTestUser(t, env.db, "owner@example.com")
	member := createWorkspaceTestUser(t, env.db, "member@example.com")

	ws, err := env.wsService.Create("Home Storage", owner.ID)
	require.NoError(t, err)
	_, err = env.wsService.InviteMember(ws.ID, owner.ID, services.InviteMemberInput{
		UserID: member.ID,
		Role:   models.RoleMember,
	})
	require.NoError(t, err)

	c, w := wsTestContext(http.MethodDelete, "/api/workspaces/1/members/2", nil, member.ID)
	setWorkspaceContext(c, *ws)
	c.Params = gin.Params{{Key: "user_id", Value: "2"}}

	env.handler.RemoveMember(c)

	require.Equal(t, http.StatusOK, w.Code)

	err = env.db.Where("workspace_id = ? AND user_id = ?", ws.ID, member.ID).
		First(&models.WorkspaceMember{}).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
