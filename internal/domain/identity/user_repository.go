package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByGoogleID finds a user by Google account ID
	FindByGoogleID(ctx context.Context, googleID string) (*User, error)

	// Save creates or updates a user
	Save(ctx context.Context, user *User) error
}
