package models

import "time"

type QrStatus string

const (
	// QrStatusGenerated means the code exists but is not bound to a box.
	QrStatusGenerated QrStatus = "generated"
	// QrStatusAssigned means the code is bound 1:1 to a box.
	QrStatusAssigned QrStatus = "assigned"
	// QrStatusPrinted marks an assigned code whose label has been physically
	// produced; the binding is unchanged.
	QrStatusPrinted QrStatus = "printed"
)

// Bound reports whether the status implies a box binding.
func (s QrStatus) Bound() bool {
	return s == QrStatusAssigned || s == QrStatusPrinted
}

// QrCode is a printable label. Status and BoxID move together: generated
// codes have no box, assigned/printed codes always have one. Deleting the
// bound box resets the code to generated in the same transaction.
type QrCode struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	WorkspaceID uint64    `gorm:"not null;index" json:"workspace_id"`
	ShortID     string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"short_id"`
	Status      QrStatus  `gorm:"type:varchar(20);not null;default:'generated'" json:"status"`
	BoxID       *uint64   `gorm:"uniqueIndex" json:"box_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	Box       *Box      `gorm:"foreignKey:BoxID" json:"box,omitempty"`
}
