package models

import (
	"time"
)

// Workspace is the tenancy boundary: every location, box and QR code belongs
// to exactly one workspace. Workspaces are never soft-deleted; the only way to
// remove one is the cascade delete, which tears down all scoped rows in a
// single transaction.
type Workspace struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	OwnerID   uint64    `gorm:"not null" json:"owner_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Members   []WorkspaceMember `gorm:"foreignKey:WorkspaceID" json:"members,omitempty"`
	Locations []Location        `gorm:"foreignKey:WorkspaceID" json:"locations,omitempty"`
	Boxes     []Box             `gorm:"foreignKey:WorkspaceID" json:"boxes,omitempty"`
	QrCodes   []QrCode          `gorm:"foreignKey:WorkspaceID" json:"qr_codes,omitempty"`
}
