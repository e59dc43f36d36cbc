package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/stashbox-api/internal/constants"
	"github.com/yukikurage/stashbox-api/internal/models"
	"github.com/yukikurage/stashbox-api/internal/repository"
	"github.com/yukikurage/stashbox-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrLocationNotFound    = errors.New("location not found")
	ErrLocationNameEmpty   = errors.New("location name must contain at least one usable character")
	ErrMaxDepthExceeded    = errors.New("location tree depth limit exceeded")
	ErrSiblingNameConflict = errors.New("a sibling location with the same name already exists")
)

// LocationService manages the per-workspace storage tree.
type LocationService struct {
	locRepo repository.LocationRepository
	authz   *AuthorizationService
}

// NewLocationService creates a new LocationService.
func NewLocationService(locRepo repository.LocationRepository, authz *AuthorizationService) *LocationService {
	return &LocationService{
		locRepo: locRepo,
		authz:   authz,
	}
}

// CreateLocationInput represents parameters to create a location.
type CreateLocationInput struct {
	ParentID *uint64
	Name     string
}

// Create adds a location under the given parent (nil = top level). The raw
// name is kept as the display label; its sanitized form becomes the path
// segment and must be unique among live siblings.
func (s *LocationService) Create(workspaceID, actorID uint64, input CreateLocationInput) (*models.Location, error) {
	if _, err := s.authz.Authorize(workspaceID, actorID, Editor); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	segment := utils.PathSegment(name)
	if segment == "" {
		return nil, ErrLocationNameEmpty
	}

	parentPath := ""
	depth := 1
	if input.ParentID != nil {
		parent, err := s.findInWorkspace(workspaceID, *input.ParentID)
		if err != nil {
			return nil, err
		}
		parentPath = parent.Path
		depth = parent.Depth() + 1
	}
	if depth > constants.MaxLocationDepth {
		return nil, ErrMaxDepthExceeded
	}

	if err := s.ensureSegmentFree(workspaceID, input.ParentID, segment); err != nil {
		return nil, err
	}

	loc := &models.Location{
		WorkspaceID: workspaceID,
		ParentID:    input.ParentID,
		Name:        name,
		Segment:     segment,
		Path:        utils.ChildPath(parentPath, segment),
	}

	// The sibling pre-check races with concurrent creates; the unique index
	// over live (workspace_id, parent_id, segment) settles the loser.
	if err := s.locRepo.Create(loc); err != nil {
		if errors.Is(err, repository.ErrSegmentTaken) {
			return nil, ErrSiblingNameConflict
		}
		return nil, fmt.Errorf("failed to create location: %w", err)
	}

	return loc, nil
}

// Rename updates a location's display name and recomputes its own trailing
// path segment. Descendant paths are left untouched: a path is assigned once
// at creation time and stays stable afterwards.
func (s *LocationService) Rename(workspaceID, actorID, locationID uint64, newName string) (*models.Location, error) {
	if _, err := s.authz.Authorize(workspaceID, actorID, Editor); err != nil {
		return nil, err
	}

	loc, err := s.findInWorkspace(workspaceID, locationID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(newName)
	segment := utils.PathSegment(name)
	if segment == "" {
		return nil, ErrLocationNameEmpty
	}

	if segment != loc.Segment {
		if err := s.ensureSegmentFree(workspaceID, loc.ParentID, segment); err != nil {
			return nil, err
		}
	}

	parentPath := ""
	if idx := strings.LastIndex(loc.Path, "."); idx >= 0 {
		parentPath = loc.Path[:idx]
	}

	loc.Name = name
	loc.Segment = segment
	loc.Path = utils.ChildPath(parentPath, segment)

	if err := s.locRepo.Update(loc); err != nil {
		if errors.Is(err, repository.ErrSegmentTaken) {
			return nil, ErrSiblingNameConflict
		}
		return nil, fmt.Errorf("failed to rename location: %w", err)
	}

	return loc, nil
}

// Delete soft-deletes the location together with its descendants; every box
// in the subtree becomes unassigned in the same transaction. The rows stay in
// place until the workspace-level cascade removes them physically.
func (s *LocationService) Delete(workspaceID, actorID, locationID uint64) error {
	if _, err := s.authz.Authorize(workspaceID, actorID, Editor); err != nil {
		return err
	}

	loc, err := s.findInWorkspace(workspaceID, locationID)
	if err != nil {
		return err
	}

	if err := s.locRepo.SoftDeleteSubtree(workspaceID, loc.ID); err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}

	return nil
}

// List returns the direct live children of a parent (nil = top level); the
// visible tree is expanded lazily by the caller.
func (s *LocationService) List(workspaceID, actorID uint64, parentID *uint64) ([]models.Location, error) {
	if _, err := s.authz.Authorize(workspaceID, actorID, AnyMember); err != nil {
		return nil, err
	}

	if parentID != nil {
		if _, err := s.findInWorkspace(workspaceID, *parentID); err != nil {
			return nil, err
		}
	}

	locations, err := s.locRepo.ListChildren(workspaceID, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

// findInWorkspace resolves a live location and verifies it belongs to the
// workspace; a location from another tenant is reported as not found.
func (s *LocationService) findInWorkspace(workspaceID, locationID uint64) (*models.Location, error) {
	loc, err := s.locRepo.FindByID(locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("failed to find location: %w", err)
	}
	if loc.WorkspaceID != workspaceID {
		return nil, ErrLocationNotFound
	}
	return loc, nil
}

func (s *LocationService) ensureSegmentFree(workspaceID uint64, parentID *uint64, segment string) error {
	if _, err := s.locRepo.FindLiveSibling(workspaceID, parentID, segment); err == nil {
		return ErrSiblingNameConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check sibling names: %w", err)
	}
	return nil
}
