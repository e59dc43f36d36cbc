package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/stashbox-api/internal/models"
	"github.com/yukikurage/stashbox-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrWorkspaceNameRequired = errors.New("workspace name cannot be empty")
	ErrInvalidRole           = errors.New("invalid workspace role")
	ErrAlreadyMember         = errors.New("user is already a member of this workspace")
	ErrMemberNotFound        = errors.New("workspace member not found")
	ErrInviteeNotFound       = errors.New("no user matches the invitation")
	// ErrLastOwner guards the invariant that a workspace always has at least
	// one owner.
	ErrLastOwner = errors.New("workspace must keep at least one owner")
)

// WorkspaceService provides business logic for workspaces and memberships.
type WorkspaceService struct {
	wsRepo   repository.WorkspaceRepository
	userRepo repository.UserRepository
	authz    *AuthorizationService
}

// NewWorkspaceService creates a new WorkspaceService.
func NewWorkspaceService(wsRepo repository.WorkspaceRepository, userRepo repository.UserRepository, authz *AuthorizationService) *WorkspaceService {
	return &WorkspaceService{
		wsRepo:   wsRepo,
		userRepo: userRepo,
		authz:    authz,
	}
}

// Create creates a new workspace with the caller as its first owner.
func (s *WorkspaceService) Create(name string, ownerID uint64) (*models.Workspace, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrWorkspaceNameRequired
	}

	ws := &models.Workspace{Name: name}
	if err := s.wsRepo.CreateWithOwner(ws, ownerID); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	return ws, nil
}

// ListForUser returns the workspaces the user belongs to, with roles.
func (s *WorkspaceService) ListForUser(userID uint64) ([]models.WorkspaceMember, error) {
	memberships, err := s.wsRepo.ListMembershipsByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return memberships, nil
}

// Get returns a workspace, its members and the caller's role.
func (s *WorkspaceService) Get(workspaceID, actorID uint64) (*models.Workspace, []models.WorkspaceMember, models.WorkspaceRole, error) {
	actor, err := s.authz.Authorize(workspaceID, actorID, AnyMember)
	if err != nil {
		return nil, nil, "", err
	}

	ws, err := s.wsRepo.FindByID(workspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, "", ErrWorkspaceNotFound
		}
		return nil, nil, "", fmt.Errorf("failed to find workspace: %w", err)
	}

	members, err := s.wsRepo.ListMembers(workspaceID)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to list workspace members: %w", err)
	}

	return ws, members, actor.Role, nil
}

// Rename updates the workspace name. Owner only.
func (s *WorkspaceService) Rename(workspaceID, actorID uint64, name string) (*models.Workspace, error) {
	if _, err := s.authz.Authorize(workspaceID, actorID, OwnerOnly); err != nil {
		return nil, err
	}

	if strings.TrimSpace(name) == "" {
		return nil, ErrWorkspaceNameRequired
	}

	ws, err := s.wsRepo.FindByID(workspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}

	ws.Name = name
	if err := s.wsRepo.Update(ws); err != nil {
		return nil, fmt.Errorf("failed to update workspace: %w", err)
	}

	return ws, nil
}

// Delete tears down the workspace and everything scoped to it. Owner only;
// the cascade itself is a single transaction in the repository.
func (s *WorkspaceService) Delete(workspaceID, actorID uint64) error {
	if _, err := s.authz.Authorize(workspaceID, actorID, OwnerOnly); err != nil {
		return err
	}

	if err := s.wsRepo.DeleteCascade(workspaceID); err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}

	return nil
}

// InviteMemberInput identifies the invitee either by user id or by email.
type InviteMemberInput struct {
	UserID uint64
	Email  string
	Role   models.WorkspaceRole
}

// InviteMember adds an existing user to the workspace. Owner/admin only;
// granting the owner role requires an owner.
func (s *WorkspaceService) InviteMember(workspaceID, actorID uint64, input InviteMemberInput) (*models.WorkspaceMember, error) {
	actor, err := s.authz.Authorize(workspaceID, actorID, OwnerOrAdmin)
	if err != nil {
		return nil, err
	}

	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if input.Role == models.RoleOwner {
		if err := s.authz.Require(actor.Role, OwnerOnly); err != nil {
			return nil, err
		}
	}

	target, err := s.resolveInvitee(input)
	if err != nil {
		return nil, err
	}

	if _, err := s.wsRepo.FindMember(workspaceID, target.ID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      target.ID,
		Role:        input.Role,
		JoinedAt:    time.Now(),
	}

	// The pre-check above races with concurrent invites; the composite
	// primary key settles the loser.
	if err := s.wsRepo.AddMember(member); err != nil {
		if errors.Is(err, repository.ErrDuplicateMember) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member to workspace: %w", err)
	}

	member.User = *target
	return member, nil
}

func (s *WorkspaceService) resolveInvitee(input InviteMemberInput) (*models.User, error) {
	var (
		target *models.User
		err    error
	)
	switch {
	case input.UserID != 0:
		target, err = s.userRepo.FindByID(input.UserID)
	case strings.TrimSpace(input.Email) != "":
		target, err = s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(input.Email)))
	default:
		return nil, ErrInviteeNotFound
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteeNotFound
		}
		return nil, fmt.Errorf("failed to resolve invitee: %w", err)
	}
	return target, nil
}

// ChangeRole changes a member's role. Owner/admin only; touching the owner
// role in either direction requires an owner, and demoting the sole owner is
// rejected.
func (s *WorkspaceService) ChangeRole(workspaceID, actorID, targetID uint64, newRole models.WorkspaceRole) (*models.WorkspaceMember, error) {
	actor, err := s.authz.Authorize(workspaceID, actorID, OwnerOrAdmin)
	if err != nil {
		return nil, err
	}

	if !newRole.Valid() {
		return nil, ErrInvalidRole
	}

	target, err := s.wsRepo.FindMember(workspaceID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find workspace member: %w", err)
	}

	if target.Role == models.RoleOwner || newRole == models.RoleOwner {
		if err := s.authz.Require(actor.Role, OwnerOnly); err != nil {
			return nil, err
		}
	}

	// Demoting an owner goes through the guarded repository path: the
	// last-owner check, the role change and the owner_id reassignment commit
	// together or not at all.
	if target.Role == models.RoleOwner && newRole != models.RoleOwner {
		if err := s.wsRepo.DemoteOwner(workspaceID, targetID, newRole); err != nil {
			if errors.Is(err, repository.ErrOwnerRequired) {
				return nil, ErrLastOwner
			}
			return nil, fmt.Errorf("failed to change role: %w", err)
		}
	} else if err := s.wsRepo.UpdateMemberRole(workspaceID, targetID, newRole); err != nil {
		return nil, fmt.Errorf("failed to change role: %w", err)
	}

	target.Role = newRole
	return target, nil
}

// RemoveMember removes a member. Members may leave on their own; removing
// someone else takes owner/admin, removing an owner takes an owner, and the
// sole owner can neither leave nor be removed.
func (s *WorkspaceService) RemoveMember(workspaceID, actorID, targetID uint64) error {
	actor, err := s.authz.Authorize(workspaceID, actorID, AnyMember)
	if err != nil {
		return err
	}

	if actorID != targetID {
		if err := s.authz.Require(actor.Role, OwnerOrAdmin); err != nil {
			return err
		}
	}

	target, err := s.wsRepo.FindMember(workspaceID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to find workspace member: %w", err)
	}

	if target.Role == models.RoleOwner {
		if actorID != targetID {
			if err := s.authz.Require(actor.Role, OwnerOnly); err != nil {
				return err
			}
		}
		if err := s.wsRepo.RemoveOwner(workspaceID, targetID); err != nil {
			if errors.Is(err, repository.ErrOwnerRequired) {
				return ErrLastOwner
			}
			return fmt.Errorf("failed to remove member: %w", err)
		}
		return nil
	}

	if err := s.wsRepo.RemoveMember(workspaceID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// ListMembers lists the workspace's members. Any member may call it.
func (s *WorkspaceService) ListMembers(workspaceID, actorID uint64) ([]models.WorkspaceMember, error) {
	if _, err := s.authz.Authorize(workspaceID, actorID, AnyMember); err != nil {
		return nil, err
	}

	members, err := s.wsRepo.ListMembers(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspace members: %w", err)
	}
	return members, nil
}
