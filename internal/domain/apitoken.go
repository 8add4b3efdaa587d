package domain

import (
	"strings"
	"time"
)

type APIToken struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    string     `gorm:"size:36;index;not null" json:"user_id"`
	Label     string     `gorm:"size:256;not null" json:"label"`
	TokenHash string     `gorm:"size:128;uniqueIndex;not null" json:"-"`
	Scopes    string     `gorm:"size:1024" json:"-"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ScopeList splits the comma-joined persisted form.
func (t *APIToken) ScopeList() []string {
	if t.Scopes == "" {
		return nil
	}
	return strings.Split(t.Scopes, ",")
}

func (t *APIToken) SetScopes(scopes []string) {
	t.Scopes = strings.Join(scopes, ",")
}

func (t *APIToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

func (t *APIToken) HasScope(scope string) bool {
	for _, s := range t.ScopeList() {
		if s == scope {
			return true
		}
	}
	return false
}
