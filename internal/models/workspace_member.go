package models

import "time"

type WorkspaceRole string

const (
	RoleOwner    WorkspaceRole = "owner"
	RoleAdmin    WorkspaceRole = "admin"
	RoleMember   WorkspaceRole = "member"
	RoleReadOnly WorkspaceRole = "read_only"
)

// Valid reports whether the role is one of the known workspace roles.
func (r WorkspaceRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleReadOnly:
		return true
	}
	return false
}

type WorkspaceMember struct {
	WorkspaceID uint64        `gorm:"primarykey" json:"workspace_id"`
	UserID      uint64        `gorm:"primarykey" json:"user_id"`
	Role        WorkspaceRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt    time.Time     `json:"joined_at"`

	// Relations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
