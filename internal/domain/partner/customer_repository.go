package partner

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID finds a customer by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByIDs finds multiple customers by their IDs; unknown IDs are skipped
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Customer, error)

	// FindByEmail finds a customer by email (case-insensitive)
	FindByEmail(ctx context.Context, email string) (*Customer, error)

	// FindAll finds all customers matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Customer, error)

	// FindBySegment finds customers matching every condition
	FindBySegment(ctx context.Context, conditions []SegmentCondition) ([]Customer, error)

	// ListIDs returns the IDs of every customer
	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error

	// Delete deletes a customer
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts customers matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByEmail checks if an email is taken
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByEmailExcludingID checks if an email is taken by another customer
	ExistsByEmailExcludingID(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
}
