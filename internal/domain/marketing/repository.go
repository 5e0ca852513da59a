package marketing

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CampaignRepository defines the interface for campaign persistence
type CampaignRepository interface {
	// FindByID finds a campaign by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Campaign, error)

	// FindAll finds campaigns matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Campaign, error)

	// Save creates or updates a campaign
	Save(ctx context.Context, campaign *Campaign) error

	// Delete deletes a campaign
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts campaigns matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
