package trade

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Keys understood by OrderRepository in shared.Filter.Filters
const (
	FilterCustomerID = "customer_id" // uuid.UUID
	FilterStatus     = "status"      // OrderStatus
	FilterCampaignID = "campaign_id" // uuid.UUID
	FilterFrom       = "from"        // time.Time, inclusive lower bound on order date
	FilterTo         = "to"          // time.Time, inclusive upper bound on order date
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDs finds orders by ID, preserving no particular order; unknown IDs are skipped
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Order, error)

	// FindAll finds orders matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// FindByCustomer finds every order owned by a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Order, error)

	// Save creates or updates an order and synchronizes its items
	Save(ctx context.Context, order *Order) error

	// Delete deletes an order and its items
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByCustomer deletes every order owned by a customer and returns how many were removed
	DeleteByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
