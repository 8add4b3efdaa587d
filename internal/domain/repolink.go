package domain

import "time"

// GitHubRepoLink binds a project to exactly one GitHub repository. The
// (RepoOwner, RepoName) pair is unique across all workspaces.
type GitHubRepoLink struct {
	ID             string  `gorm:"primaryKey;size:36" json:"id"`
	ProjectID      string  `gorm:"size:36;uniqueIndex;not null" json:"project_id"`
	RepoOwner      string  `gorm:"size:256;uniqueIndex:idx_repolink_owner_name;not null" json:"repo_owner"`
	RepoName       string  `gorm:"size:256;uniqueIndex:idx_repolink_owner_name;not null" json:"repo_name"`
	InstallationID int64   `json:"installation_id"`
	RepoID         int64   `json:"repo_id"`
	DefaultBranch  string  `gorm:"size:256" json:"default_branch"`
	WebhookSecret  *string `gorm:"size:256" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
