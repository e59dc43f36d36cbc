package repository

import (
	"github.com/yukikurage/stashbox-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)
}

// WorkspaceRepository defines the interface for workspace and membership data access
type WorkspaceRepository interface {
	// CreateWithOwner creates a workspace and its owner membership within a
	// single transaction.
	CreateWithOwner(ws *models.Workspace, ownerID uint64) error

	// FindByID finds a workspace by ID
	FindByID(id uint64) (*models.Workspace, error)

	// Update updates a workspace
	Update(ws *models.Workspace) error

	// DeleteCascade removes the workspace and every row scoped to it (boxes,
	// QR codes, locations, memberships) in one transaction.
	DeleteCascade(id uint64) error

	// AddMember adds a member to a workspace; a duplicate membership is
	// reported as ErrDuplicateMember.
	AddMember(member *models.WorkspaceMember) error

	// UpdateMemberRole changes a member's role
	UpdateMemberRole(workspaceID, userID uint64, role models.WorkspaceRole) error

	// DemoteOwner changes an owner's role to a non-owner role in one
	// transaction; if that would leave zero owners, ErrOwnerRequired is
	// returned and nothing changes. workspace.owner_id is repointed at a
	// remaining owner in the same transaction.
	DemoteOwner(workspaceID, targetID uint64, newRole models.WorkspaceRole) error

	// RemoveOwner deletes an owner's membership under the same last-owner
	// guard and owner_id reassignment as DemoteOwner.
	RemoveOwner(workspaceID, targetID uint64) error

	// RemoveMember removes a member from a workspace
	RemoveMember(workspaceID, userID uint64) error

	// FindMember finds a specific workspace member
	FindMember(workspaceID, userID uint64) (*models.WorkspaceMember, error)

	// ListMembers lists all members of a workspace
	ListMembers(workspaceID uint64) ([]models.WorkspaceMember, error)

	// ListMembershipsByUserID lists all workspaces a user is a member of
	ListMembershipsByUserID(userID uint64) ([]models.WorkspaceMember, error)
}

// LocationRepository defines the interface for location tree data access
type LocationRepository interface {
	// Create creates a new location; losing the sibling-segment unique index
	// is reported as ErrSegmentTaken.
	Create(loc *models.Location) error

	// FindByID finds a live location by ID, regardless of workspace; callers
	// re-check the workspace scope.
	FindByID(id uint64) (*models.Location, error)

	// FindLiveSibling finds a non-deleted location with the given sanitized
	// segment under the same parent.
	FindLiveSibling(workspaceID uint64, parentID *uint64, segment string) (*models.Location, error)

	// Update updates a location
	Update(loc *models.Location) error

	// SoftDeleteSubtree soft-deletes the location and all of its descendants
	// and reassigns their boxes to unassigned, in one transaction.
	SoftDeleteSubtree(workspaceID, rootID uint64) error

	// ListChildren lists the direct live children of a parent (nil = top level)
	ListChildren(workspaceID uint64, parentID *uint64) ([]models.Location, error)
}

// BoxFilter holds filtering options for listing boxes
type BoxFilter struct {
	WorkspaceID uint64
	LocationID  *uint64
	Unassigned  bool
	Tag         string
	Query       string
	Page        int
	PageSize    int
}

// BoxRepository defines the interface for box and QR code data access
type BoxRepository interface {
	// Create creates a box without a QR code binding
	Create(box *models.Box) error

	// CreateWithQrClaim creates a box and atomically claims the QR code. The
	// claim is a conditional update guarded on status=generated; if another
	// transaction won the code, ErrQrCodeUnavailable is returned and nothing
	// is persisted.
	CreateWithQrClaim(box *models.Box, qrCodeID uint64) error

	// FindByID finds a live box by ID, regardless of workspace; callers
	// re-check the workspace scope.
	FindByID(id uint64) (*models.Box, error)

	// Update updates a box
	Update(box *models.Box) error

	// DeleteWithQrRelease soft-deletes the box and resets its bound QR code
	// (if any) back to generated, in one transaction.
	DeleteWithQrRelease(boxID uint64) error

	// List retrieves boxes with filtering and pagination
	List(filter BoxFilter) ([]models.Box, int64, error)

	// CreateQrBatch inserts a batch of generated QR codes
	CreateQrBatch(codes []models.QrCode) error

	// FindQrByID finds a QR code by ID, regardless of workspace; callers
	// re-check the workspace scope.
	FindQrByID(id uint64) (*models.QrCode, error)

	// ListQrCodes lists a workspace's QR codes, optionally by status
	ListQrCodes(workspaceID uint64, status *models.QrStatus) ([]models.QrCode, error)

	// MarkQrPrinted marks an assigned QR code as printed; reports whether a
	// row was updated.
	MarkQrPrinted(workspaceID, qrCodeID uint64) (bool, error)
}
