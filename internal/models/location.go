package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Location is one node of the per-workspace storage tree.
//
// Name keeps the human-readable label exactly as entered (diacritics and
// all). Segment is the sanitized ASCII form of the name, unique among live
// siblings. Path is the dot-joined chain of ancestor segments plus Segment,
// materialized once at creation time: renaming a node recomputes only its own
// trailing segment, so descendant paths are stable identifiers of tree
// position rather than live reflections of ancestor names.
type Location struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	WorkspaceID uint64         `gorm:"not null;index" json:"workspace_id"`
	ParentID    *uint64        `gorm:"index" json:"parent_id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Segment     string         `gorm:"type:varchar(255);not null" json:"segment"`
	Path        string         `gorm:"type:varchar(1536);not null" json:"path"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Workspace Workspace  `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	Parent    *Location  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children  []Location `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Boxes     []Box      `gorm:"foreignKey:LocationID" json:"boxes,omitempty"`
}

// Depth is the number of path segments; a top-level location has depth 1.
func (l *Location) Depth() int {
	if l.Path == "" {
		return 0
	}
	return strings.Count(l.Path, ".") + 1
}
