package domain

import (
	"encoding/json"
	"time"
)

type EnvironmentType string

const (
	EnvironmentDevelopment EnvironmentType = "DEVELOPMENT"
	EnvironmentStaging     EnvironmentType = "STAGING"
	EnvironmentProduction  EnvironmentType = "PRODUCTION"
)

func (t EnvironmentType) Valid() bool {
	switch t {
	case EnvironmentDevelopment, EnvironmentStaging, EnvironmentProduction:
		return true
	}
	return false
}

type Environment struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	ProjectID string          `gorm:"size:36;uniqueIndex:idx_environment_project_name;not null" json:"project_id"`
	Name      string          `gorm:"size:128;uniqueIndex:idx_environment_project_name;not null" json:"name"`
	Type      EnvironmentType `gorm:"size:16;not null" json:"type"`
	URL       *string         `gorm:"size:1024" json:"url,omitempty"`
	Status    *string         `gorm:"size:64" json:"status,omitempty"`
	// Config holds an arbitrary JSON document supplied by the caller.
	// RawMessage keeps the document structured on the wire while GORM
	// stores the bytes as-is.
	Config json.RawMessage `gorm:"type:bytes" json:"config,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
