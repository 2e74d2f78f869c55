package users

import (
	"time"

	"github.com/scribra-labs/scribra/internal/blog"
)

// AvatarSource tags where a profile picture came from.
type AvatarSource string

const (
	// AvatarSourceGoogle marks an avatar imported from a Google account.
	AvatarSourceGoogle AvatarSource = "google"
	// AvatarSourceDefault marks a locally generated placeholder avatar.
	AvatarSourceDefault AvatarSource = "default"
)

// Profile is the single local identity. Exactly one row (the active
// session) exists while logged in; logout removes it.
type Profile struct {
	Slot         uint         `gorm:"column:slot;primaryKey" json:"-"`
	UserID       string       `gorm:"column:user_id;size:190;not null" json:"id"`
	Name         string       `gorm:"column:display_name;size:320;not null" json:"name"`
	Email        string       `gorm:"column:email;size:320" json:"email"`
	Avatar       string       `gorm:"column:avatar_url;size:512" json:"avatar"`
	AvatarSource AvatarSource `gorm:"column:avatar_source;size:32" json:"avatar_source"`
	CreatedAt    time.Time    `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt    time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

// TableName exposes the table backing the active session slot.
func (Profile) TableName() string {
	return "session_profiles"
}

// Author converts the profile into the snapshot threaded through blog
// store operations.
func (p *Profile) Author() blog.Author {
	if p == nil {
		return blog.Author{}
	}
	return blog.Author{ID: p.UserID, Name: p.Name, Avatar: p.Avatar}
}

// MockIdentity is the fixed identity installed by Login. The app has a
// single simulated local user; there is no credential exchange.
func MockIdentity() Profile {
	return Profile{
		Slot:         sessionSlot,
		UserID:       "user_123",
		Name:         "Alex Writer",
		Email:        "alex@scribra.com",
		Avatar:       "https://api.dicebear.com/7.x/notionists/svg?seed=Alex",
		AvatarSource: AvatarSourceGoogle,
	}
}
