package dto

import (
	"time"

	"github.com/yukikurage/stashbox-api/internal/models"
)

// LocationDTO represents a location in API responses
type LocationDTO struct {
	ID          uint64    `json:"id"`
	WorkspaceID uint64    `json:"workspace_id"`
	ParentID    *uint64   `json:"parent_id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Depth       int       `json:"depth"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToLocationDTO converts a location to DTO
func ToLocationDTO(loc models.Location) LocationDTO {
	return LocationDTO{
		ID:          loc.ID,
		WorkspaceID: loc.WorkspaceID,
		ParentID:    loc.ParentID,
		Name:        loc.Name,
		Path:        loc.Path,
		Depth:       loc.Depth(),
		CreatedAt:   loc.CreatedAt,
		UpdatedAt:   loc.UpdatedAt,
	}
}

// ToLocationDTOs converts a slice of locations to DTOs
func ToLocationDTOs(locations []models.Location) []LocationDTO {
	dtos := make([]LocationDTO, len(locations))
	for i, loc := range locations {
		dtos[i] = ToLocationDTO(loc)
	}
	return dtos
}
