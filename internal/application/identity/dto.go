package identity

import (
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// LoginStart is what the caller needs to redirect the browser to Google
type LoginStart struct {
	RedirectURL string
	State       string
}

// LoginResult contains the result of a completed Google login
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      UserInfo
	Created   bool // first login for this Google account
}

// UserInfo is the signed-in user as returned by the API
type UserInfo struct {
	ID       uuid.UUID `json:"id"`
	GoogleID string    `json:"googleId"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Image    string    `json:"image,omitempty"`
}

// ToUserInfo converts a domain User to UserInfo
func ToUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:       u.ID,
		GoogleID: u.GoogleID,
		Name:     u.Name,
		Email:    u.Email,
		Image:    u.Image,
	}
}
