package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/stashbox-api/internal/models"
	"github.com/yukikurage/stashbox-api/internal/repository"
	"gorm.io/gorm"
)

var (
	// ErrWorkspaceNotFound covers both a missing workspace and a caller who
	// is not a member of it. The two are deliberately indistinguishable so a
	// non-member cannot probe which workspace ids exist.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrInsufficientPermissions means the caller is a member but the role is
	// too low for the requested operation.
	ErrInsufficientPermissions = errors.New("insufficient permissions for this operation")
)

// RequiredRole is the capability tier an operation demands.
type RequiredRole int

const (
	// AnyMember allows every role, including read_only. Used for reads.
	AnyMember RequiredRole = iota
	// Editor allows owner, admin and member, the roles that may mutate
	// workspace content (locations, boxes, QR codes).
	Editor
	// OwnerOrAdmin allows owner and admin. Used for member management.
	OwnerOrAdmin
	// OwnerOnly allows only owners. Used for workspace rename/delete and for
	// demoting or removing another owner.
	OwnerOnly
)

// AuthorizationService is the single choke point for workspace access: every
// service operation resolves the caller's membership through Authorize before
// touching any workspace-scoped row.
type AuthorizationService struct {
	wsRepo repository.WorkspaceRepository
}

// NewAuthorizationService creates a new AuthorizationService.
func NewAuthorizationService(wsRepo repository.WorkspaceRepository) *AuthorizationService {
	return &AuthorizationService{
		wsRepo: wsRepo,
	}
}

// Authorize resolves the caller's membership in the workspace and checks it
// against the required tier. Non-members get ErrWorkspaceNotFound, never a
// permission error.
func (s *AuthorizationService) Authorize(workspaceID, userID uint64, required RequiredRole) (*models.WorkspaceMember, error) {
	member, err := s.wsRepo.FindMember(workspaceID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to resolve membership: %w", err)
	}

	if err := s.Require(member.Role, required); err != nil {
		return nil, err
	}

	return member, nil
}

// Require checks an already-resolved role against a tier. Used for
// escalation checks within an operation that has already called Authorize.
func (s *AuthorizationService) Require(role models.WorkspaceRole, required RequiredRole) error {
	if roleSatisfies(role, required) {
		return nil
	}
	return ErrInsufficientPermissions
}

func roleSatisfies(role models.WorkspaceRole, required RequiredRole) bool {
	switch required {
	case AnyMember:
		return role.Valid()
	case Editor:
		return role == models.RoleOwner || role == models.RoleAdmin || role == models.RoleMember
	case OwnerOrAdmin:
		return role == models.RoleOwner || role == models.RoleAdmin
	case OwnerOnly:
		return role == models.RoleOwner
	}
	return false
}
