package domain

import "time"

type User struct {
	ID           string  `gorm:"primaryKey;size:36" json:"id"`
	Email        string  `gorm:"size:320;uniqueIndex;not null" json:"email"`
	PasswordHash string  `gorm:"size:128" json:"-"`
	DisplayName  string  `gorm:"size:256" json:"display_name"`
	AvatarURL    *string `gorm:"size:1024" json:"avatar_url,omitempty"`

	Sessions  []Session  `gorm:"foreignKey:UserID" json:"-"`
	APITokens []APIToken `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
