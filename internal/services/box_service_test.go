package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/stashbox-api/internal/models"
	"github.com/yukikurage/stashbox-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type boxServiceTestEnv struct {
	db         *gorm.DB
	wsService  *WorkspaceService
	locService *LocationService
	boxService *BoxService
}

func setupBoxServiceTestEnv(t *testing.T) boxServiceTestEnv {
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

	wsRepo := repository.NewWorkspaceRepository(db)
	userRepo := repository.NewUserRepository(db)
	locRepo := repository.NewLocationRepository(db)
	boxRepo := repository.NewBoxRepository(db)
	authz := NewAuthorizationService(wsRepo)
	wsService := NewWorkspaceService(wsRepo, userRepo, authz)
	locService := NewLocationService(locRepo, authz)
	boxService := NewBoxService(boxRepo, locRepo, authz, nil)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return boxServiceTestEnv{
		db:         db,
		wsService:  wsService,
		locService: locService,
		boxService: boxService,
	}
}

func (env boxServiceTestEnv) seedWorkspace(t *testing.T, email string) (*models.User, *models.Workspace) {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "hashed"}
	require.NoError(t, env.db.Create(user).Error)
	ws, err := env.wsService.Create("Home Storage", user.ID)
	require.NoError(t, err)
	return user, ws
}

func TestBoxService_GenerateQrBatch(t *testing.T) {
	env := setupBoxServiceTestEnv(t)
	user, ws := env.seedWorkspace(t, "owner@example.com")

	codes, err := env.boxService.GenerateQrBatch(ws.ID, user.ID, 5)
	require.NoError(t, err)
	require.Len(t, codes, 5)

	seen := make(map[string]bool)
	for _, code := range codes {
		require.Equal(t, models.QrStatusGenerated, code.Status)
		require.Nil(t, code.BoxID)
		require.NotEmpty(t, code.ShortID)
		require.False(t, seen[code.ShortID])
		seen[code.ShortID] = true
	}
}

func TestBoxService_GenerateQrBatchQuantityBounds(t *testing.T) {
	env := setupBoxServiceTestEnv(t)
	user, ws := env.seedWorkspace(t, "owner@example.com")

	_, err := env.boxService.GenerateQrBatch(ws.ID, user.ID, 0)
	require.ErrorIs(t, err, ErrQrQuantityInvalid)

	_, err = env.boxService.GenerateQrBatch(ws.ID, user.ID, 101)
	require.ErrorIs(t, err, ErrQrQuantityInvalid)
}

func TestBoxService_CreateBoxClaimsQrCode(t *testing.T) {
	env := setupBoxServiceTestEnv(t)
	user, ws := env.seedWorkspace(t, "owner@example.com")

	codes, err := env.boxService.GenerateQrBatch(ws.ID, user.ID, 1)
	require.NoError(t, err)

	box, err := env.boxService.CreateBox(ws.ID, user.ID, CreateBoxInput{
		Name:     "Winter Clothes",
		Tags:     []string{"clothes", "seasonal"},
		QrCodeID: &codes[0].ID,
	})
	require.NoError(t, err)
	require.NotNil(t, box.QrCodeID)
	require.Equal(t, codes[0].ID, *box.QrCodeID)

	var code models.QrCode
	require.NoError(t, env.db.First(&code, codes[0].ID).Error)
	require.Equal(t, models.QrStatusAssigned, code.Status)
	require.NotNil(t, code.BoxID)
	require.Equal(t, box.ID, *code.BoxID)
}

func TestBoxService_CreateBoxRejectsTakenQrCode(t *testing.T) {
	env := setupBoxServiceTestEnv(t)
	user, ws := env.seedWorkspace(t, "owner@example.com")

	codes, err := env.boxService.GenerateQrBatch(ws.ID, user.ID, 1)
	require.NoError(t, err)

	_, err = env.boxService.CreateBox(ws.ID, user.ID, CreateBoxInput{
		Name:     "First",
		QrCodeID: &codes[0].ID,
	})
	require.NoError(t, err)

	_, err = env.boxService.CreateBox(ws.ID, user.ID, CreateBoxInput{
		Name:     "Second",
		QrCodeID: &codes[0].ID,
	})
	require.ErrorIs(t, err, ErrQrCodeAlreadyAssigned)

	// Exactly one box holds the code.
	var count int64
	env.db.Model(&models.Box{}).Where("qr_code_id = ?", codes[0].ID).Count(&count)
	require.EqualValues(t, 1, count)
}

func TestBoxService_CreateBoxCrossTenantReferences(t *testing.T) {
	env := setupBoxServiceTestEnv(t)
	user1, ws1 := env.seedWorkspace(t, "first@example.com")
	user2, ws2 := env.seedWorkspace(t, "second@example.com")

	foreignLoc, err := env.locService.Create(ws2.ID, user2.ID, CreateLocationInput{Name: "Theirs"})
	require.NoError(t, err)
	foreignCodes, err := env.boxService.GenerateQrBatch(ws2.ID, user2.ID, 1)
	require.NoError(t, err)

	// A reference into another workspace is reported, never silently fixed.
	_, err = env.boxService.CreateBox(ws1.ID, user1.ID, CreateBoxInput{
		Name:       "Mine",
		LocationID: &foreignLoc.ID,
	})
	require.ErrorIs(t, err, ErrWorkspaceMismatch)

	_, err = env.boxService.CreateBox(ws1.ID, user1.ID, CreateBoxInput{
		Name:     "Mine",
		QrCodeID: &foreignCodes[0].ID,
	})
	require.ErrorIs(t, err, ErrWorkspaceMismatch)
}

func TestBoxService_MarkQrPrinted(t *testing.T) {
	env := setupBoxServiceTestEnv(t)
	user, ws := env.seedWorkspace(t, "owner@example.com")

	codes, err := env.boxService.GenerateQrBatch(ws.ID, user.ID, 1)
	require.NoError(t, err)

	// A code with no box binding cannot be marked printed.
	_, err = env.boxService.MarkQrPrinted(ws.ID, user.ID, codes[0].ID)
	require.ErrorIs(t, err, ErrQrCodeNotAssigned)

	box, err := env.boxService.CreateBox(ws.ID, user.ID, CreateBoxInput{
		Name:     "Tools",
		QrCodeID: &codes[0].ID,
	})
	require.NoError(t, err)

	printed, err := env.boxService.MarkQrPrinted(ws.ID, user.ID, codes[0].ID)
	require.NoError(t, err)
	require.Equal(t, models.QrStatusPrinted, printed.Status)

	// Re-printing an already printed label is a no-op, not an error.
	printed, err = env.boxService.MarkQrPrinted(ws.ID, user.ID, codes[0].ID)
	require.NoError(t, err)
	require.Equal(t, models.QrStatusPrinted, printed.Status)

	// The binding is untouched.
	var code models.QrCode
	require.NoError(t, env.db.First(&code, codes[0].ID).Error)
	require.NotNil(t, code.BoxID)
	require.Equal(t, box.ID, *code.BoxID)
}

func TestBoxService_DeleteBoxReleasesQrCode(t *testing.T) {
	env := setupBoxServiceTestEnv(t)
	user, ws := env.seedWorkspace(t, "owner@example.com")

	codes, err := env.boxService.GenerateQrBatch(ws.ID, user.ID, 1)
	require.NoError(t, err)
	box, err := env.boxService.CreateBox(ws.ID, user.ID, CreateBoxInput{
		Name:     "Tools",
		QrCodeID: &codes[0].ID,
	})
	require.NoError(t, err)

	require.NoError(t, env.boxService.DeleteBox(ws.ID, user.ID, box.ID))

	err = env.db.First(&models.Box{}, box.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var code models.QrCode
	require.NoError(t, env.db.First(&code, codes[0].ID).Error)
	require.Equal(t, models.QrStatusGenerated, code.Status)
	require.Nil(t, code.BoxID)

	// The released code is claimable again.
	_, err = env.boxService.CreateBox(ws.ID, user.ID, CreateBoxInput{
		Name:     "Replacement",
		QrCodeID: &codes[0].ID,
	})
	require.NoError(t, err)
}

func TestBoxService_UpdateBox(t *testing.T) {
	env := setupBoxServiceTestEnv(t)
	user, ws := env.seedWorkspace(t, "owner@example.com")

	garage, err := env.locService.Create(ws.ID, user.ID, CreateLocationInput{Name: "Garage"})
	require.NoError(t, err)
	box, err := env.boxService.CreateBox(ws.ID, user.ID, CreateBoxInput{
		Name:       "Tools",
		LocationID: &garage.ID,
	})
	require.NoError(t, err)

	newName := "Power Tools"
	newTags := []string{"tools", "electric"}
	updated, err := env.boxService.UpdateBox(ws.ID, user.ID, box.ID, UpdateBoxInput{
		Name: &newName,
		Tags: &newTags,
	})
	require.NoError(t, err)
	require.Equal(t, "Power Tools", updated.Name)
	require.Equal(t, newTags, updated.Tags)
	require.NotNil(t, updated.LocationID)

	// Moving the box out of every location.
	updated, err = env.boxService.UpdateBox(ws.ID, user.ID, box.ID, UpdateBoxInput{
		ClearLocation: true,
	})
	require.NoError(t, err)
	require.Nil(t, updated.LocationID)

	blank := "  "
	_, err = env.boxService.UpdateBox(ws.ID, user.ID, box.ID, UpdateBoxInput{Name: &blank})
	require.ErrorIs(t, err, ErrBoxNameRequired)
}

func TestBoxService_CrossTenantBoxIsNotFound(t *testing.T) {
	env := setupBoxServiceTestEnv(t)
	user1, ws1 := env.seedWorkspace(t, "first@example.com")
	user2, ws2 := env.seedWorkspace(t, "second@example.com")

	foreign, err := env.boxService.CreateBox(ws2.ID, user2.ID, CreateBoxInput{Name: "Theirs"})
	require.NoError(t, err)

	_, err = env.boxService.GetBox(ws1.ID, user1.ID, foreign.ID)
	require.ErrorIs(t, err, ErrBoxNotFound)

	err = env.boxService.DeleteBox(ws1.ID, user1.ID, foreign.ID)
	require.ErrorIs(t, err, ErrBoxNotFound)
}

func TestBoxService_ListBoxesFilters(t *testing.T) {
	env := setupBoxServiceTestEnv(t)
	user, ws := env.seedWorkspace(t, "owner@example.com")

	garage, err := env.locService.Create(ws.ID, user.ID, CreateLocationInput{Name: "Garage"})
	require.NoError(t, err)

	_, err = env.boxService.CreateBox(ws.ID, user.ID, CreateBoxInput{
		Name:       "Winter Clothes",
		Tags:       []string{"clothes", "seasonal"},
		LocationID: &garage.ID,
	})
	require.NoError(t, err)
	_, err = env.boxService.CreateBox(ws.ID, user.ID, CreateBoxInput{
		Name:        "Camping Gear",
		Description: "Tent and sleeping bags",
		Tags:        []string{"outdoor", "seasonal"},
	})
	require.NoError(t, err)

	// By location.
	boxes, total, err := env.boxService.ListBoxes(ws.ID, user.ID, ListBoxesInput{
		LocationID: &garage.ID, Page: 1, PageSize: 20,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Winter Clothes", boxes[0].Name)

	// Unassigned only.
	boxes, total, err = env.boxService.ListBoxes(ws.ID, user.ID, ListBoxesInput{
		Unassigned: true, Page: 1, PageSize: 20,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Camping Gear", boxes[0].Name)

	// By tag.
	_, total, err = env.boxService.ListBoxes(ws.ID, user.ID, ListBoxesInput{
		Tag: "seasonal", Page: 1, PageSize: 20,
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)

	_, total, err = env.boxService.ListBoxes(ws.ID, user.ID, ListBoxesInput{
		Tag: "outdoor", Page: 1, PageSize: 20,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	// Free-text search over name and description, case-insensitive.
	boxes, total, err = env.boxService.ListBoxes(ws.ID, user.ID, ListBoxesInput{
		Query: "sleeping", Page: 1, PageSize: 20,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Camping Gear", boxes[0].Name)

	// Pagination caps the page while total reports everything.
	boxes, total, err = env.boxService.ListBoxes(ws.ID, user.ID, ListBoxesInput{
		Page: 1, PageSize: 1,
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, boxes, 1)
}

func TestBoxService_ReadOnlyMemberCannotEdit(t *testing.T) {
	env := setupBoxServiceTestEnv(t)
	owner, ws := env.seedWorkspace(t, "owner@example.com")

	viewer := &models.User{Email: "viewer@example.com", PasswordHash: "hashed"}
	require.NoError(t, env.db.Create(viewer).Error)
	_, err := env.wsService.InviteMember(ws.ID, owner.ID, InviteMemberInput{
		UserID: viewer.ID,
		Role:   models.RoleReadOnly,
	})
	require.NoError(t, err)

	_, err = env.boxService.CreateBox(ws.ID, viewer.ID, CreateBoxInput{Name: "Nope"})
	require.ErrorIs(t, err, ErrInsufficientPermissions)

	_, err = env.boxService.GenerateQrBatch(ws.ID, viewer.ID, 1)
	require.ErrorIs(t, err, ErrInsufficientPermissions)

	// Reads stay open.
	_, _, err = env.boxService.ListBoxes(ws.ID, viewer.ID, ListBoxesInput{Page: 1, PageSize: 20})
	require.NoError(t, err)
}

func TestBoxService_SuggestTagsWithoutAI(t *testing.T) {
	env := setupBoxServiceTestEnv(t)
	user, ws := env.seedWorkspace(t, "owner@example.com")

	_, err := env.boxService.SuggestTags(context.Background(), ws.ID, user.ID, "Winter Clothes", "")
	require.ErrorIs(t, err, ErrAINotConfigured)
}

// TestCatalogLifecycle walks one workspace through the whole flow: build the
// location tree, print labels, bind a box, then tear pieces down.
func TestCatalogLifecycle(t *testing.T) {
	env := setupBoxServiceTestEnv(t)
	user, ws := env.seedWorkspace(t, "anna@example.com")

	garage, err := env.locService.Create(ws.ID, user.ID, CreateLocationInput{Name: "Garaż"})
	require.NoError(t, err)
	shelf, err := env.locService.Create(ws.ID, user.ID, CreateLocationInput{
		ParentID: &garage.ID,
		Name:     "Półka A",
	})
	require.NoError(t, err)
	require.Equal(t, "garaz.polka_a", shelf.Path)

	codes, err := env.boxService.GenerateQrBatch(ws.ID, user.ID, 10)
	require.NoError(t, err)

	box, err := env.boxService.CreateBox(ws.ID, user.ID, CreateBoxInput{
		Name:        "Ozdoby świąteczne",
		Description: "Bombki i lampki",
		Tags:        []string{"święta", "dekoracje"},
		LocationID:  &shelf.ID,
		QrCodeID:    &codes[0].ID,
	})
	require.NoError(t, err)

	printed, err := env.boxService.MarkQrPrinted(ws.ID, user.ID, codes[0].ID)
	require.NoError(t, err)
	require.Equal(t, models.QrStatusPrinted, printed.Status)

	// Deleting the shelf leaves the box reachable but unplaced; the QR
	// binding survives because the box does.
	require.NoError(t, env.locService.Delete(ws.ID, user.ID, shelf.ID))

	reloaded, err := env.boxService.GetBox(ws.ID, user.ID, box.ID)
	require.NoError(t, err)
	require.Nil(t, reloaded.LocationID)
	require.NotNil(t, reloaded.QrCodeID)

	// Deleting the box frees its label for the next one.
	require.NoError(t, env.boxService.DeleteBox(ws.ID, user.ID, box.ID))
	var code models.QrCode
	require.NoError(t, env.db.First(&code, codes[0].ID).Error)
	require.Equal(t, models.QrStatusGenerated, code.Status)

	// Nine untouched codes plus the released one are available.
	available, err := env.boxService.ListQrCodes(ws.ID, user.ID, string(models.QrStatusGenerated))
	require.NoError(t, err)
	require.Len(t, available, 10)
}
