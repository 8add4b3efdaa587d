package domain

import "time"

type CiRunStatus string

const (
	CiRunQueued   CiRunStatus = "QUEUED"
	CiRunRunning  CiRunStatus = "RUNNING"
	CiRunPassed   CiRunStatus = "PASSED"
	CiRunFailed   CiRunStatus = "FAILED"
	CiRunCanceled CiRunStatus = "CANCELED"
)

func (s CiRunStatus) Valid() bool {
	switch s {
	case CiRunQueued, CiRunRunning, CiRunPassed, CiRunFailed, CiRunCanceled:
		return true
	}
	return false
}

// Terminal reports whether no further status transition is expected.
func (s CiRunStatus) Terminal() bool {
	switch s {
	case CiRunPassed, CiRunFailed, CiRunCanceled:
		return true
	}
	return false
}

type CiRun struct {
	ID            string      `gorm:"primaryKey;size:36" json:"id"`
	ProjectID     string      `gorm:"size:36;index;not null" json:"project_id"`
	EnvironmentID *string     `gorm:"size:36;index" json:"environment_id,omitempty"`
	TriggeredByID *string     `gorm:"size:36;index" json:"triggered_by_id,omitempty"`
	Status        CiRunStatus `gorm:"size:16;index;not null" json:"status"`
	CommitSHA     string      `gorm:"size:64" json:"commit_sha"`
	Branch        string      `gorm:"size:256" json:"branch"`
	LogsURL       *string     `gorm:"size:1024" json:"logs_url,omitempty"`
	StartedAt     *time.Time  `json:"started_at,omitempty"`
	FinishedAt    *time.Time  `json:"finished_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
