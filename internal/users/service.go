package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// sessionSlot is the primary key of the singleton session row.
const sessionSlot = 1

// ErrNoActiveSession indicates an operation that needs a logged-in user
// found the session slot empty.
var ErrNoActiveSession = errors.New("users: no active session")

// ServiceConfig describes the dependencies of the session service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service owns the active session slot: a single persisted Profile row
// mirroring the current user, distinct from any post history.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService constructs the session service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{db: cfg.Database, now: clock}, nil
}

// Current returns the logged-in profile, or ErrNoActiveSession.
func (s *Service) Current(ctx context.Context) (*Profile, error) {
	var profile Profile
	err := s.db.WithContext(ctx).Where("slot = ?", sessionSlot).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Login installs the fixed mock identity into the session slot.
// Repeated calls yield the same identity; a profile edited in a previous
// session is overwritten, matching a fresh sign-in.
func (s *Service) Login(ctx context.Context) (*Profile, error) {
	profile := MockIdentity()
	profile.CreatedAt = s.now()
	profile.UpdatedAt = profile.CreatedAt
	if err := s.db.WithContext(ctx).Save(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// Logout clears the session slot. Logging out while logged out is a no-op.
func (s *Service) Logout(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("slot = ?", sessionSlot).Delete(&Profile{}).Error
}

// ProfileUpdate carries the fields UpdateProfile may merge. Nil fields
// are left untouched.
type ProfileUpdate struct {
	Name         *string
	Email        *string
	Avatar       *string
	AvatarSource *AvatarSource
}

// UpdateProfile merges the provided fields into the current profile and
// returns the result, or ErrNoActiveSession when logged out.
func (s *Service) UpdateProfile(ctx context.Context, update ProfileUpdate) (*Profile, error) {
	profile, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	if update.Name != nil && strings.TrimSpace(*update.Name) != "" {
		profile.Name = strings.TrimSpace(*update.Name)
	}
	if update.Email != nil {
		profile.Email = strings.TrimSpace(*update.Email)
	}
	if update.Avatar != nil {
		profile.Avatar = strings.TrimSpace(*update.Avatar)
	}
	if update.AvatarSource != nil {
		profile.AvatarSource = *update.AvatarSource
	}
	profile.UpdatedAt = s.now()

	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}
