package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/crm/backend/internal/application/consistency"
	marketingapp "github.com/crm/backend/internal/application/marketing"
	partnerapp "github.com/crm/backend/internal/application/partner"
	tradeapp "github.com/crm/backend/internal/application/trade"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// errInjected is returned by the fault-injecting repositories
var errInjected = errors.New("injected customer write failure")

// Stack wires the application services over one database
type Stack struct {
	Customers *partnerapp.CustomerService
	Orders    *tradeapp.OrderService
	Campaigns *marketingapp.CampaignService
	Metrics   *telemetry.Metrics
	DB        *gorm.DB
}

// NewStack builds the services on db with the given consistency scope.
// A nil scope means a GormConsistencyScope in the given mode.
func NewStack(t *testing.T, db *gorm.DB, mode consistency.Mode, scope consistency.Scope) *Stack {
	t.Helper()
	log := zaptest.NewLogger(t)

	customers := persistence.NewGormCustomerRepository(db)
	orders := persistence.NewGormOrderRepository(db)
	campaigns := persistence.NewGormCampaignRepository(db)
	if scope == nil {
		scope = persistence.NewGormConsistencyScope(db, mode)
	}
	metrics := telemetry.NewMetrics()

	return &Stack{
		Customers: partnerapp.NewCustomerService(customers, orders, scope, metrics, log),
		Orders:    tradeapp.NewOrderService(orders, customers, scope, metrics, log),
		Campaigns: marketingapp.NewCampaignService(campaigns, customers, scope, metrics, log),
		Metrics:   metrics,
		DB:        db,
	}
}

func (s *Stack) createCustomer(t *testing.T, name, email string) *partnerapp.CustomerResponse {
	t.Helper()
	c, err := s.Customers.Create(context.Background(), partnerapp.CreateCustomerRequest{
		Name:    name,
		Email:   email,
		Phone:   "555-0100",
		Address: partnerapp.AddressDTO{Street: "1 Main St", City: "Springfield", State: "IL", Zip: "62701", Country: "USA"},
	})
	require.NoError(t, err)
	return c
}

func (s *Stack) customer(t *testing.T, id uuid.UUID) *partnerapp.CustomerResponse {
	t.Helper()
	c, err := s.Customers.GetByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

func item(name string, qty int, price int64) tradeapp.OrderItemInput {
	return tradeapp.OrderItemInput{ProductName: name, Quantity: qty, Price: decimal.NewFromInt(price)}
}

// faultyScope hands out repositories whose customer writes fail, so a unit
// of work breaks after its first write.
type faultyScope struct {
	consistency.Scope
}

func (s faultyScope) Execute(ctx context.Context, fn func(repos consistency.Repositories) error) error {
	return s.Scope.Execute(ctx, func(repos consistency.Repositories) error {
		return fn(faultyRepositories{repos})
	})
}

type faultyRepositories struct {
	consistency.Repositories
}

func (r faultyRepositories) Customers() partner.CustomerRepository {
	return failingCustomerWrites{r.Repositories.Customers()}
}

type failingCustomerWrites struct {
	partner.CustomerRepository
}

func (failingCustomerWrites) Save(context.Context, *partner.Customer) error {
	return errInjected
}

func persistenceScope(db *TestDB, mode consistency.Mode) consistency.Scope {
	return persistence.NewGormConsistencyScope(db.DB, mode)
}
