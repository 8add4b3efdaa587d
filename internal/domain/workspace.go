package domain

import "time"

type Workspace struct {
	ID          string  `gorm:"primaryKey;size:36" json:"id"`
	Slug        string  `gorm:"size:128;uniqueIndex;not null" json:"slug"`
	Name        string  `gorm:"size:256;not null" json:"name"`
	Description *string `gorm:"size:2048" json:"description,omitempty"`
	OwnerID     string  `gorm:"size:36;index;not null" json:"owner_id"`

	Memberships []Membership `gorm:"foreignKey:WorkspaceID" json:"-"`
	Projects    []Project    `gorm:"foreignKey:WorkspaceID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Role is the workspace-scoped permission level. The five levels form a
// strict total order; Rank gives the comparison key.
type Role string

const (
	RoleOwner      Role = "OWNER"
	RoleAdmin      Role = "ADMIN"
	RoleMaintainer Role = "MAINTAINER"
	RoleDeveloper  Role = "DEVELOPER"
	RoleViewer     Role = "VIEWER"
)

var roleRanks = map[Role]int{
	RoleOwner:      5,
	RoleAdmin:      4,
	RoleMaintainer: 3,
	RoleDeveloper:  2,
	RoleViewer:     1,
}

// Rank returns the position of the role in the hierarchy, 0 for an
// unknown role.
func (r Role) Rank() int { return roleRanks[r] }

func (r Role) Valid() bool { return roleRanks[r] != 0 }

// AtLeast reports whether r sits at or above min in the hierarchy.
func (r Role) AtLeast(min Role) bool { return r.Rank() >= min.Rank() }

type Membership struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	UserID      string `gorm:"size:36;uniqueIndex:idx_membership_user_workspace;not null" json:"user_id"`
	WorkspaceID string `gorm:"size:36;uniqueIndex:idx_membership_user_workspace;not null" json:"workspace_id"`
	Role        Role   `gorm:"size:16;not null" json:"role"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
