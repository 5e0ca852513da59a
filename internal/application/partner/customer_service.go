package partner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/crm/backend/internal/application/consistency"
	tradeapp "github.com/crm/backend/internal/application/trade"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/trade"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CustomerService handles customer-related business operations
type CustomerService struct {
	customerRepo partner.CustomerRepository
	orderRepo    trade.OrderRepository
	scope        consistency.Scope
	recorder     consistency.Recorder
	logger       *zap.Logger
	now          func() time.Time
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customerRepo partner.CustomerRepository,
	orderRepo trade.OrderRepository,
	scope consistency.Scope,
	recorder consistency.Recorder,
	logger *zap.Logger,
) *CustomerService {
	if recorder == nil {
		recorder = consistency.NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
		scope:        scope,
		recorder:     recorder,
		logger:       logger,
		now:          time.Now,
	}
}

// Create creates a new customer with zero spending and no history
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	customer, err := partner.NewCustomer(partner.Profile{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address.toDomain(),
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return nil, err
	}

	exists, err := s.customerRepo.ExistsByEmail(ctx, customer.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewConflictError("Customer with this email already exists")
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}

	resp := ToCustomerResponse(customer, nil)
	return &resp, nil
}

// GetByID returns a customer with its orders fully populated
func (s *CustomerService) GetByID(ctx context.Context, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.withOrders(ctx, customer)
}

// List returns customers matching the filter with their orders summarized
func (s *CustomerService) List(ctx context.Context, filter CustomerListFilter) ([]CustomerListResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	domainFilter.Search = filter.Search
	// an explicit column without a direction sorts ascending
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
		domainFilter.OrderDir = "asc"
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
		domainFilter.Page = filter.Page
		if domainFilter.Page <= 0 {
			domainFilter.Page = 1
		}
	}

	customers, err := s.customerRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total := int64(len(customers))
	if domainFilter.Paginated() {
		total, err = s.customerRepo.Count(ctx, domainFilter)
		if err != nil {
			return nil, 0, err
		}
	}

	list, err := s.withOrderSummaries(ctx, customers)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Update applies a partial profile change
func (s *CustomerService) Update(ctx context.Context, customerID uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := partner.NormalizeEmail(*req.Email)
		if email != customer.Email {
			exists, err := s.customerRepo.ExistsByEmailExcludingID(ctx, email, customerID)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, shared.NewConflictError("Customer with this email already exists")
			}
		}
	}

	if err := customer.UpdateProfile(req.toDomain()); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	return s.withOrders(ctx, customer)
}

// Delete deletes a customer and every order it owns
func (s *CustomerService) Delete(ctx context.Context, customerID uuid.UUID) error {
	written := false
	var removed int64
	err := s.scope.Execute(ctx, func(repos consistency.Repositories) error {
		if _, err := repos.Customers().FindByID(ctx, customerID); err != nil {
			return err
		}
		if err := repos.Customers().Delete(ctx, customerID); err != nil {
			return err
		}
		written = true

		n, err := repos.Orders().DeleteByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		removed = n
		return nil
	})

	outcome := consistency.Outcome(s.scope.Mode(), err, written)
	s.recorder.RecordSync(consistency.OpDeleteCustomer, outcome)
	if outcome == consistency.OutcomePartial {
		s.logger.Error("customer deleted but orders were left behind",
			zap.String("customer_id", customerID.String()),
			zap.Error(err),
		)
	}
	if err != nil {
		return err
	}

	s.logger.Info("customer deleted",
		zap.String("customer_id", customerID.String()),
		zap.Int64("orders_deleted", removed),
	)
	return nil
}

// RecordVisit increments the visit counter and stamps the visit date
func (s *CustomerService) RecordVisit(ctx context.Context, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	customer.RecordVisit(s.now())
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	return s.withOrders(ctx, customer)
}

// Reconcile recomputes totalSpending and the order list from the orders
// actually stored for the customer and saves them if they drifted.
func (s *CustomerService) Reconcile(ctx context.Context, customerID uuid.UUID) (*ReconcileResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "reconcile",
		telemetry.WithAttribute(telemetry.SpanAttrCustomerID, customerID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrMode, string(s.scope.Mode())),
	)
	defer span.End()

	var (
		customer  *partner.Customer
		orders    []trade.Order
		corrected bool
	)
	err := s.scope.Execute(ctx, func(repos consistency.Repositories) error {
		c, err := repos.Customers().FindByID(ctx, customerID)
		if err != nil {
			return err
		}
		customer = c

		orders, err = repos.Orders().FindByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		ids, total := orderTotals(c, orders)
		if !c.Reconcile(ids, total) {
			return nil
		}
		corrected = true
		return repos.Customers().Save(ctx, c)
	})
	s.recorder.RecordSync(consistency.OpReconcile, consistency.Outcome(s.scope.Mode(), err, false))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if corrected {
		telemetry.AddEvent(span, "corrected", telemetry.SpanAttrAmount, customer.TotalSpending.String())
		s.recorder.RecordCorrection()
		s.logger.Warn("customer aggregate corrected",
			zap.String("customer_id", customer.ID.String()),
			zap.String("total_spending", customer.TotalSpending.String()),
			zap.Int("orders", len(customer.OrderIDs)),
		)
	}

	byID := make(map[uuid.UUID]*trade.Order, len(orders))
	for i := range orders {
		byID[orders[i].ID] = &orders[i]
	}
	return &ReconcileResponse{
		Customer:  ToCustomerResponse(customer, orderedResponses(customer.OrderIDs, byID)),
		Corrected: corrected,
	}, nil
}

// ReconcileAll reconciles every customer and returns how many were corrected.
// A failure on one customer is logged and does not stop the run.
func (s *CustomerService) ReconcileAll(ctx context.Context) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "reconcile_all")
	defer span.End()

	ids, err := s.customerRepo.ListIDs(ctx)
	if err != nil {
		return 0, err
	}
	corrected := 0
	var failed int
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return corrected, err
		}
		res, err := s.Reconcile(ctx, id)
		if err != nil {
			failed++
			s.logger.Error("reconcile failed", zap.String("customer_id", id.String()), zap.Error(err))
			continue
		}
		if res.Corrected {
			corrected++
		}
	}
	telemetry.SetAttributes(span, "customers", len(ids), "corrected", corrected)
	if failed > 0 {
		err := fmt.Errorf("reconcile failed for %d of %d customers", failed, len(ids))
		telemetry.RecordError(span, err)
		return corrected, err
	}
	return corrected, nil
}

// PreviewSegment returns the customers matching every rule
func (s *CustomerService) PreviewSegment(ctx context.Context, req SegmentPreviewRequest) (*SegmentPreviewResponse, error) {
	rules := make([]partner.SegmentRule, len(req.Rules))
	for i, r := range req.Rules {
		rules[i] = partner.SegmentRule{Field: r.Field, Operator: r.Operator, Value: r.Value}
	}
	conditions, err := partner.ParseSegmentRules(rules)
	if err != nil {
		return nil, err
	}

	customers, err := s.customerRepo.FindBySegment(ctx, conditions)
	if err != nil {
		return nil, err
	}
	segment, err := s.withOrderSummaries(ctx, customers)
	if err != nil {
		return nil, err
	}
	return &SegmentPreviewResponse{SegmentSize: len(segment), Segment: segment}, nil
}

func (s *CustomerService) withOrders(ctx context.Context, customer *partner.Customer) (*CustomerResponse, error) {
	byID, err := s.loadOrders(ctx, customer.OrderIDs)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer, orderedResponses(customer.OrderIDs, byID))
	return &resp, nil
}

func (s *CustomerService) withOrderSummaries(ctx context.Context, customers []partner.Customer) ([]CustomerListResponse, error) {
	var ids []uuid.UUID
	for _, c := range customers {
		ids = append(ids, c.OrderIDs...)
	}
	byID, err := s.loadOrders(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]CustomerListResponse, len(customers))
	for i := range customers {
		c := &customers[i]
		summaries := make([]tradeapp.OrderSummary, 0, len(c.OrderIDs))
		for _, id := range c.OrderIDs {
			if o, ok := byID[id]; ok {
				summaries = append(summaries, tradeapp.ToOrderSummary(o))
			}
		}
		out[i] = ToCustomerListResponse(c, summaries)
	}
	return out, nil
}

func (s *CustomerService) loadOrders(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*trade.Order, error) {
	byID := make(map[uuid.UUID]*trade.Order, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	orders, err := s.orderRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		byID[orders[i].ID] = &orders[i]
	}
	return byID, nil
}

// orderedResponses follows the customer's order list; references to orders
// that no longer exist are skipped.
func orderedResponses(ids []uuid.UUID, byID map[uuid.UUID]*trade.Order) []tradeapp.OrderResponse {
	out := make([]tradeapp.OrderResponse, 0, len(ids))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			out = append(out, tradeapp.ToOrderResponse(o))
		}
	}
	return out
}

// orderTotals returns the order IDs the customer should reference and their
// summed total. IDs the customer already lists keep their position; the rest
// follow in order date order.
func orderTotals(c *partner.Customer, orders []trade.Order) ([]uuid.UUID, decimal.Decimal) {
	stored := make(map[uuid.UUID]*trade.Order, len(orders))
	total := decimal.Zero
	for i := range orders {
		stored[orders[i].ID] = &orders[i]
		total = total.Add(orders[i].TotalAmount)
	}

	ids := make([]uuid.UUID, 0, len(orders))
	listed := make(map[uuid.UUID]struct{}, len(c.OrderIDs))
	for _, id := range c.OrderIDs {
		if _, ok := stored[id]; ok {
			if _, dup := listed[id]; !dup {
				ids = append(ids, id)
				listed[id] = struct{}{}
			}
		}
	}

	var extra []*trade.Order
	for i := range orders {
		if _, ok := listed[orders[i].ID]; !ok {
			extra = append(extra, &orders[i])
		}
	}
	sort.SliceStable(extra, func(i, j int) bool { return extra[i].OrderDate.Before(extra[j].OrderDate) })
	for _, o := range extra {
		ids = append(ids, o.ID)
	}
	return ids, total
}
