package models

import (
	"time"

	"gorm.io/gorm"
)

// Box is a physical storage box. LocationID is nil for an unassigned box.
// QrCodeID, when set, points at a QR code whose BoxID points back here; the
// pairing is established at creation time and only broken by deleting the box.
type Box struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	WorkspaceID uint64         `gorm:"not null;index" json:"workspace_id"`
	LocationID  *uint64        `gorm:"index" json:"location_id"`
	QrCodeID    *uint64        `gorm:"uniqueIndex" json:"qr_code_id"`
	ShortID     string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"short_id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Tags        []string       `gorm:"serializer:json" json:"tags"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	Location  *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	QrCode    *QrCode   `gorm:"foreignKey:QrCodeID" json:"qr_code,omitempty"`
}
