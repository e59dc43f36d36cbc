package repository

import (
	"errors"

	"github.com/yukikurage/stashbox-api/internal/models"
	"gorm.io/gorm"
)

// ErrSegmentTaken is returned when an insert or update loses to the unique
// index on (workspace_id, parent_id, segment) over live rows. The index is
// the source of truth behind the application-level sibling check; racing
// writers that slip past the check still end up here.
var ErrSegmentTaken = errors.New("location repository: segment already taken among live siblings")

// GormLocationRepository is a GORM implementation of LocationRepository
type GormLocationRepository struct {
	db *gorm.DB
}

// NewLocationRepository creates a new LocationRepository
func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &GormLocationRepository{db: db}
}

// Create creates a new location
func (r *GormLocationRepository) Create(loc *models.Location) error {
	if err := r.db.Create(loc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSegmentTaken
		}
		return err
	}
	return nil
}

// FindByID finds a live location by ID
func (r *GormLocationRepository) FindByID(id uint64) (*models.Location, error) {
	var loc models.Location
	if err := r.db.First(&loc, id).Error; err != nil {
		return nil, err
	}
	return &loc, nil
}

// FindLiveSibling finds a non-deleted location with the given segment under
// the same parent. The segment column stores the sanitized, lowercased form,
// so equality here is the case-insensitive sibling check.
func (r *GormLocationRepository) FindLiveSibling(workspaceID uint64, parentID *uint64, segment string) (*models.Location, error) {
	query := r.db.Where("workspace_id = ? AND segment = ?", workspaceID, segment)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	var loc models.Location
	if err := query.First(&loc).Error; err != nil {
		return nil, err
	}
	return &loc, nil
}

// Update updates a location
func (r *GormLocationRepository) Update(loc *models.Location) error {
	if err := r.db.Save(loc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSegmentTaken
		}
		return err
	}
	return nil
}

// SoftDeleteSubtree soft-deletes the location and all descendants and moves
// their boxes to unassigned, atomically. Descendants are collected level by
// level through parent_id rather than by path prefix, because paths are
// append-only and may predate ancestor renames.
func (r *GormLocationRepository) SoftDeleteSubtree(workspaceID, rootID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		ids := []uint64{rootID}
		frontier := []uint64{rootID}

		for len(frontier) > 0 {
			var children []uint64
			if err := tx.Model(&models.Location{}).
				Where("workspace_id = ? AND parent_id IN ?", workspaceID, frontier).
				Pluck("id", &children).Error; err != nil {
				return err
			}
			ids = append(ids, children...)
			frontier = children
		}

		if err := tx.Model(&models.Box{}).
			Where("workspace_id = ? AND location_id IN ?", workspaceID, ids).
			Update("location_id", nil).Error; err != nil {
			return err
		}

		return tx.Where("workspace_id = ? AND id IN ?", workspaceID, ids).
			Delete(&models.Location{}).Error
	})
}

// ListChildren lists the direct live children of a parent (nil = top level)
func (r *GormLocationRepository) ListChildren(workspaceID uint64, parentID *uint64) ([]models.Location, error) {
	query := r.db.Where("workspace_id = ?", workspaceID)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	var locations []models.Location
	if err := query.Order("segment").Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}
