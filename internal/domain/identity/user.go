package identity

import (
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
)

// GoogleProfile is the identity returned by the Google userinfo endpoint
type GoogleProfile struct {
	Subject string
	Name    string
	Email   string
	Picture string
}

// User is an operator who signed in with Google
type User struct {
	shared.BaseEntity
	GoogleID    string
	Name        string
	Email       string
	Image       string
	LastLoginAt *time.Time
}

// NewUserFromGoogle creates a user on first sign-in
func NewUserFromGoogle(p GoogleProfile) (*User, error) {
	if strings.TrimSpace(p.Subject) == "" {
		return nil, shared.NewValidationError("Google account ID is required")
	}
	u := &User{BaseEntity: shared.NewBaseEntity(), GoogleID: p.Subject}
	u.applyProfile(p)
	return u, nil
}

// RefreshFromGoogle updates display fields from the latest Google profile and
// records the login time.
func (u *User) RefreshFromGoogle(p GoogleProfile, at time.Time) {
	u.applyProfile(p)
	u.LastLoginAt = &at
	u.Touch()
}

func (u *User) applyProfile(p GoogleProfile) {
	if name := strings.TrimSpace(p.Name); name != "" {
		u.Name = name
	}
	if email := strings.ToLower(strings.TrimSpace(p.Email)); email != "" {
		u.Email = email
	}
	if pic := strings.TrimSpace(p.Picture); pic != "" {
		u.Image = pic
	}
}
