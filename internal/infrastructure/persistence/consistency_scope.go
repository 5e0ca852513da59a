package persistence

import (
	"context"

	"github.com/crm/backend/internal/application/consistency"
	"github.com/crm/backend/internal/domain/marketing"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormConsistencyScope implements consistency.Scope on GORM. In transactional
// mode every repository handed to the unit of work shares one transaction; in
// sequential mode they write straight through the base connection.
type GormConsistencyScope struct {
	db   *gorm.DB
	mode consistency.Mode
}

// NewGormConsistencyScope creates a scope for the given mode
func NewGormConsistencyScope(db *gorm.DB, mode consistency.Mode) *GormConsistencyScope {
	if !mode.IsValid() {
		mode = consistency.ModeTransactional
	}
	return &GormConsistencyScope{db: db, mode: mode}
}

// Execute runs fn. In transactional mode an error from fn rolls back every
// write made through the repositories it received.
func (s *GormConsistencyScope) Execute(ctx context.Context, fn func(repos consistency.Repositories) error) error {
	if s.mode == consistency.ModeSequential {
		return fn(&gormRepositories{db: s.db})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{db: tx})
	})
}

// Mode reports how writes are applied
func (s *GormConsistencyScope) Mode() consistency.Mode {
	return s.mode
}

// gormRepositories binds every repository to one connection or transaction.
type gormRepositories struct {
	db *gorm.DB
}

func (r *gormRepositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.db)
}

func (r *gormRepositories) Orders() trade.OrderRepository {
	return NewGormOrderRepository(r.db)
}

func (r *gormRepositories) Campaigns() marketing.CampaignRepository {
	return NewGormCampaignRepository(r.db)
}

var (
	_ consistency.Scope        = (*GormConsistencyScope)(nil)
	_ consistency.Repositories = (*gormRepositories)(nil)
)
