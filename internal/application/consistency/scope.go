package consistency

import (
	"context"

	"github.com/crm/backend/internal/domain/marketing"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/trade"
)

// Mode selects how multi-aggregate writes are applied
type Mode string

const (
	// ModeTransactional binds every repository to one database transaction;
	// a failing step rolls back all earlier writes.
	ModeTransactional Mode = "transactional"
	// ModeSequential writes each aggregate as soon as it is saved. A failure
	// part-way leaves earlier writes in place until the customer is reconciled.
	ModeSequential Mode = "sequential"
)

// IsValid checks if the mode is known
func (m Mode) IsValid() bool {
	return m == ModeTransactional || m == ModeSequential
}

// Scope runs a unit of work that touches more than one aggregate.
type Scope interface {
	// Execute runs fn with repositories bound to the scope. In transactional
	// mode an error returned by fn rolls back every write made through repos.
	Execute(ctx context.Context, fn func(repos Repositories) error) error

	// Mode reports how writes are applied
	Mode() Mode
}

// Repositories gives access to the aggregates kept consistent with each other.
// All repositories returned by one bundle share the same connection or transaction.
type Repositories interface {
	Customers() partner.CustomerRepository
	Orders() trade.OrderRepository
	Campaigns() marketing.CampaignRepository
}

// DirectScope runs units of work against the given repositories without a
// transaction. Service unit tests use it with mock repositories; the running
// server uses the gorm scope in both modes.
type DirectScope struct {
	customers partner.CustomerRepository
	orders    trade.OrderRepository
	campaigns marketing.CampaignRepository
}

// NewDirectScope creates a DirectScope
func NewDirectScope(
	customers partner.CustomerRepository,
	orders trade.OrderRepository,
	campaigns marketing.CampaignRepository,
) *DirectScope {
	return &DirectScope{customers: customers, orders: orders, campaigns: campaigns}
}

// Execute calls fn with the scope's own repositories
func (s *DirectScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s)
}

// Mode always returns ModeSequential
func (s *DirectScope) Mode() Mode {
	return ModeSequential
}

func (s *DirectScope) Customers() partner.CustomerRepository { return s.customers }
func (s *DirectScope) Orders() trade.OrderRepository { return s.orders }
func (s *DirectScope) Campaigns() marketing.CampaignRepository { return s.campaigns }

var (
	_ Scope        = (*DirectScope)(nil)
	_ Repositories = (*DirectScope)(nil)
)
