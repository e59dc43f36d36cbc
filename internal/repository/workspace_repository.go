package repository

import (
	"errors"
	"time"

	"github.com/yukikurage/stashbox-api/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrOwnerRequired is returned when a guarded demotion or removal would
	// leave the workspace with zero owners.
	ErrOwnerRequired = errors.New("workspace repository: operation would leave the workspace without an owner")

	// ErrDuplicateMember is returned when an insert hits the composite
	// primary key on (workspace_id, user_id).
	ErrDuplicateMember = errors.New("workspace repository: user is already a member")
)

// GormWorkspaceRepository is a GORM implementation of WorkspaceRepository
type GormWorkspaceRepository struct {
	db *gorm.DB
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &GormWorkspaceRepository{db: db}
}

// CreateWithOwner creates a workspace and the owner membership atomically.
// This is the one path that establishes authority without a prior membership
// row to check against.
func (r *GormWorkspaceRepository) CreateWithOwner(ws *models.Workspace, ownerID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		ws.OwnerID = ownerID
		if err := tx.Create(ws).Error; err != nil {
			return err
		}

		member := &models.WorkspaceMember{
			WorkspaceID: ws.ID,
			UserID:      ownerID,
			Role:        models.RoleOwner,
			JoinedAt:    time.Now(),
		}
		return tx.Create(member).Error
	})
}

// FindByID finds a workspace by ID
func (r *GormWorkspaceRepository) FindByID(id uint64) (*models.Workspace, error) {
	var ws models.Workspace
	if err := r.db.First(&ws, id).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

// Update updates a workspace
func (r *GormWorkspaceRepository) Update(ws *models.Workspace) error {
	return r.db.Save(ws).Error
}

// DeleteCascade removes the workspace and everything scoped to it in one
// transaction. Ordering follows the foreign-key direction: boxes reference
// locations and QR codes; QR codes and locations reference the workspace;
// memberships and the workspace row go last. Soft-deleted rows are removed
// physically here.
func (r *GormWorkspaceRepository) DeleteCascade(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("workspace_id = ?", id).Delete(&models.Box{}).Error; err != nil {
			return err
		}

		// Defensive reset before removal: no QR row may ever be observable
		// pointing at a box that no longer exists.
		if err := tx.Model(&models.QrCode{}).
			Where("workspace_id = ? AND status IN ?", id, []models.QrStatus{models.QrStatusAssigned, models.QrStatusPrinted}).
			Updates(map[string]interface{}{"status": models.QrStatusGenerated, "box_id": nil}).Error; err != nil {
			return err
		}

		if err := tx.Where("workspace_id = ?", id).Delete(&models.QrCode{}).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("workspace_id = ?", id).Delete(&models.Location{}).Error; err != nil {
			return err
		}

		if err := tx.Where("workspace_id = ?", id).Delete(&models.WorkspaceMember{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Workspace{}, id).Error
	})
}

// AddMember adds a member to a workspace. A racing duplicate insert loses on
// the composite primary key and is reported as ErrDuplicateMember.
func (r *GormWorkspaceRepository) AddMember(member *models.WorkspaceMember) error {
	if err := r.db.Create(member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateMember
		}
		return err
	}
	return nil
}

// UpdateMemberRole changes a member's role
func (r *GormWorkspaceRepository) UpdateMemberRole(workspaceID, userID uint64, role models.WorkspaceRole) error {
	return r.db.Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Update("role", role).Error
}

// DemoteOwner changes an owner's role to a non-owner role, refusing to demote
// the last owner. The check and the mutation run in one transaction,
// serialized on the workspace row so two racing demotions cannot both pass
// the owner count.
func (r *GormWorkspaceRepository) DemoteOwner(workspaceID, targetID uint64, newRole models.WorkspaceRole) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockWorkspaceRow(tx, workspaceID); err != nil {
			return err
		}

		var owners int64
		if err := tx.Model(&models.WorkspaceMember{}).
			Where("workspace_id = ? AND role = ?", workspaceID, models.RoleOwner).
			Count(&owners).Error; err != nil {
			return err
		}
		if owners <= 1 {
			return ErrOwnerRequired
		}

		result := tx.Model(&models.WorkspaceMember{}).
			Where("workspace_id = ? AND user_id = ? AND role = ?", workspaceID, targetID, models.RoleOwner).
			Update("role", newRole)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return reassignNominalOwner(tx, workspaceID, targetID)
	})
}

// RemoveOwner deletes an owner's membership under the same guard as
// DemoteOwner: the last owner can never be removed, and workspace.owner_id is
// repointed at a remaining owner before the transaction commits.
func (r *GormWorkspaceRepository) RemoveOwner(workspaceID, targetID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockWorkspaceRow(tx, workspaceID); err != nil {
			return err
		}

		var owners int64
		if err := tx.Model(&models.WorkspaceMember{}).
			Where("workspace_id = ? AND role = ?", workspaceID, models.RoleOwner).
			Count(&owners).Error; err != nil {
			return err
		}
		if owners <= 1 {
			return ErrOwnerRequired
		}

		result := tx.Where("workspace_id = ? AND user_id = ? AND role = ?", workspaceID, targetID, models.RoleOwner).
			Delete(&models.WorkspaceMember{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return reassignNominalOwner(tx, workspaceID, targetID)
	})
}

// lockWorkspaceRow takes a write lock on the workspace row; owner-sensitive
// membership changes queue behind it instead of racing each other. A no-op
// update is the one locking primitive all three supported dialects share.
func lockWorkspaceRow(tx *gorm.DB, workspaceID uint64) error {
	return tx.Exec("UPDATE workspaces SET owner_id = owner_id WHERE id = ?", workspaceID).Error
}

// reassignNominalOwner repoints workspace.owner_id at a remaining owner when
// it referenced the member that was just demoted or removed.
func reassignNominalOwner(tx *gorm.DB, workspaceID, formerOwnerID uint64) error {
	return tx.Exec(`UPDATE workspaces SET owner_id = (
		SELECT user_id FROM workspace_members
		WHERE workspace_id = ? AND role = ? AND user_id <> ?
		ORDER BY joined_at, user_id LIMIT 1
	) WHERE id = ? AND owner_id = ?`,
		workspaceID, models.RoleOwner, formerOwnerID, workspaceID, formerOwnerID).Error
}

// RemoveMember removes a member from a workspace
func (r *GormWorkspaceRepository) RemoveMember(workspaceID, userID uint64) error {
	return r.db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Delete(&models.WorkspaceMember{}).Error
}

// FindMember finds a specific workspace member
func (r *GormWorkspaceRepository) FindMember(workspaceID, userID uint64) (*models.WorkspaceMember, error) {
	var member models.WorkspaceMember
	if err := r.db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of a workspace
func (r *GormWorkspaceRepository) ListMembers(workspaceID uint64) ([]models.WorkspaceMember, error) {
	var members []models.WorkspaceMember
	if err := r.db.Preload("User").
		Where("workspace_id = ?", workspaceID).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListMembershipsByUserID lists all workspaces a user is a member of
func (r *GormWorkspaceRepository) ListMembershipsByUserID(userID uint64) ([]models.WorkspaceMember, error) {
	var memberships []models.WorkspaceMember
	if err := r.db.Preload("Workspace").
		Where("user_id = ?", userID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}
