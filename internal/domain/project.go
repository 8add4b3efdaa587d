package domain

import "time"

type Project struct {
	ID          string  `gorm:"primaryKey;size:36" json:"id"`
	WorkspaceID string  `gorm:"size:36;uniqueIndex:idx_project_workspace_slug;not null" json:"workspace_id"`
	Slug        string  `gorm:"size:128;uniqueIndex:idx_project_workspace_slug;not null" json:"slug"`
	Name        string  `gorm:"size:256;not null" json:"name"`
	Description *string `gorm:"size:2048" json:"description,omitempty"`

	Environments []Environment `gorm:"foreignKey:ProjectID" json:"-"`
	Permissions  []Permission  `gorm:"foreignKey:ProjectID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Capability names one of the four project-scoped permission flags.
type Capability string

const (
	CapabilityRead    Capability = "read"
	CapabilityWrite   Capability = "write"
	CapabilityExecute Capability = "execute"
	CapabilityAdmin   Capability = "admin"
)

func (c Capability) Valid() bool {
	switch c {
	case CapabilityRead, CapabilityWrite, CapabilityExecute, CapabilityAdmin:
		return true
	}
	return false
}

type Permission struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	UserID     string `gorm:"size:36;uniqueIndex:idx_permission_user_project;not null" json:"user_id"`
	ProjectID  string `gorm:"size:36;uniqueIndex:idx_permission_user_project;not null" json:"project_id"`
	CanRead    bool   `json:"can_read"`
	CanWrite   bool   `json:"can_write"`
	CanExecute bool   `json:"can_execute"`
	CanAdmin   bool   `json:"can_admin"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Grants reports whether the row alone satisfies the capability. CanAdmin
// implies every capability; the admin capability requires CanAdmin itself.
func (p *Permission) Grants(c Capability) bool {
	if p.CanAdmin {
		return true
	}
	switch c {
	case CapabilityRead:
		return p.CanRead
	case CapabilityWrite:
		return p.CanWrite
	case CapabilityExecute:
		return p.CanExecute
	}
	return false
}
