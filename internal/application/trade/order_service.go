package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crm/backend/internal/application/consistency"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/trade"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService creates, edits and deletes orders and keeps the owning
// customer's totalSpending and order list in step with them.
type OrderService struct {
	orderRepo    trade.OrderRepository
	customerRepo partner.CustomerRepository
	scope        consistency.Scope
	recorder     consistency.Recorder
	logger       *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo trade.OrderRepository,
	customerRepo partner.CustomerRepository,
	scope consistency.Scope,
	recorder consistency.Recorder,
	logger *zap.Logger,
) *OrderService {
	if recorder == nil {
		recorder = consistency.NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		scope:        scope,
		recorder:     recorder,
		logger:       logger,
	}
}

// Create creates an order and adds its total to the owning customer
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "create",
		telemetry.WithAttribute(telemetry.SpanAttrCustomerID, req.CustomerID.String()),
	)
	defer span.End()

	status, err := trade.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, err
	}
	var orderDate time.Time
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}

	order, err := trade.NewOrder(req.CustomerID, toItemInputs(req.Items), status, req.Comments, req.CampaignID, orderDate)
	if err != nil {
		return nil, err
	}

	var customer *partner.Customer
	written := false
	err = s.scope.Execute(ctx, func(repos consistency.Repositories) error {
		c, err := repos.Customers().FindByID(ctx, order.CustomerID)
		if err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, order); err != nil {
			return err
		}
		written = true

		if err := c.AttachOrder(order.ID, order.TotalAmount); err != nil {
			return err
		}
		if err := repos.Customers().Save(ctx, c); err != nil {
			return err
		}
		customer = c
		return nil
	})
	s.record(consistency.OpCreateOrder, err, written, order)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, order.ID.String(),
		telemetry.SpanAttrAmount, order.TotalAmount.String(),
	)

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", order.CustomerID.String()),
		zap.String("total_amount", order.TotalAmount.String()),
	)

	resp := ToOrderResponse(order)
	resp.Customer = &CustomerSummary{ID: customer.ID, Name: customer.Name, Email: customer.Email}
	return &resp, nil
}

// Update replaces an order's items, status and comments and applies the
// difference between the new and old totals to the owning customer.
// An empty status keeps the current one.
func (s *OrderService) Update(ctx context.Context, orderID uuid.UUID, req UpdateOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "update",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID.String()),
	)
	defer span.End()

	items := toItemInputs(req.Items)
	if err := trade.ValidateItems(items); err != nil {
		return nil, err
	}
	var status trade.OrderStatus
	if req.Status != "" {
		parsed, err := trade.ParseOrderStatus(req.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	var order *trade.Order
	written := false
	err := s.scope.Execute(ctx, func(repos consistency.Repositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		order = o

		customer, err := repos.Customers().FindByID(ctx, o.CustomerID)
		if err != nil {
			return err
		}

		next := status
		if next == "" {
			next = o.Status
		}
		comments := o.Comments
		if req.Comments != nil {
			comments = *req.Comments
		}
		oldTotal, err := o.Update(items, next, comments)
		if err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		written = true

		delta := o.TotalAmount.Sub(oldTotal)
		if delta.IsZero() {
			return nil
		}
		customer.AdjustSpending(delta)
		return repos.Customers().Save(ctx, customer)
	})
	s.record(consistency.OpUpdateOrder, err, written, order)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderStatus, string(order.Status))

	resp := ToOrderResponse(order)
	return &resp, nil
}

// Delete deletes an order and subtracts its total from the owning customer.
// If the owner no longer exists the order is still deleted.
func (s *OrderService) Delete(ctx context.Context, orderID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "delete",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID.String()),
	)
	defer span.End()

	var order *trade.Order
	written := false
	err := s.scope.Execute(ctx, func(repos consistency.Repositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		order = o

		if err := repos.Orders().Delete(ctx, o.ID); err != nil {
			return err
		}
		written = true

		customer, err := repos.Customers().FindByID(ctx, o.CustomerID)
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("owner of deleted order not found",
				zap.String("order_id", o.ID.String()),
				zap.String("customer_id", o.CustomerID.String()),
			)
			return nil
		}
		if err != nil {
			return err
		}
		customer.DetachOrder(o.ID, o.TotalAmount)
		return repos.Customers().Save(ctx, customer)
	})
	s.record(consistency.OpDeleteOrder, err, written, order)
	telemetry.RecordError(span, err)
	return err
}

// GetByID returns an order with its customer summary
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)

	customer, err := s.customerRepo.FindByID(ctx, order.CustomerID)
	switch {
	case err == nil:
		resp.Customer = &CustomerSummary{ID: customer.ID, Name: customer.Name, Email: customer.Email}
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}
	return &resp, nil
}

// List returns orders matching the filter, newest first, and the total count
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	domainFilter, err := filter.toDomain()
	if err != nil {
		return nil, 0, err
	}

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total := int64(len(orders))
	if domainFilter.Paginated() {
		total, err = s.orderRepo.Count(ctx, domainFilter)
		if err != nil {
			return nil, 0, err
		}
	}

	owners, err := s.loadOwners(ctx, orders)
	if err != nil {
		return nil, 0, err
	}
	return ToOrderResponses(orders, owners), total, nil
}

func (s *OrderService) loadOwners(ctx context.Context, orders []trade.Order) (map[uuid.UUID]*partner.Customer, error) {
	ids := make([]uuid.UUID, 0, len(orders))
	seen := make(map[uuid.UUID]struct{}, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.CustomerID]; ok {
			continue
		}
		seen[o.CustomerID] = struct{}{}
		ids = append(ids, o.CustomerID)
	}
	owners := make(map[uuid.UUID]*partner.Customer, len(ids))
	if len(ids) == 0 {
		return owners, nil
	}
	customers, err := s.customerRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range customers {
		owners[customers[i].ID] = &customers[i]
	}
	return owners, nil
}

// record reports the outcome of a synchronizing operation. In sequential mode
// a failure after the order was written leaves the customer out of step, which
// is logged so it can be reconciled.
func (s *OrderService) record(op string, err error, written bool, order *trade.Order) {
	outcome := consistency.Outcome(s.scope.Mode(), err, written)
	s.recorder.RecordSync(op, outcome)
	if outcome != consistency.OutcomePartial {
		return
	}
	s.logger.Error("order written but customer not updated",
		zap.String("operation", op),
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", order.CustomerID.String()),
		zap.Error(err),
	)
}

func (f OrderListFilter) toDomain() (shared.Filter, error) {
	filter := shared.DefaultFilter()
	filter.OrderBy = "order_date"
	filter.OrderDir = "desc"
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
		filter.Page = f.Page
		if filter.Page <= 0 {
			filter.Page = 1
		}
	}

	if f.CustomerID != "" {
		id, err := uuid.Parse(f.CustomerID)
		if err != nil {
			return filter, shared.NewValidationError("Invalid customerId")
		}
		filter.Filters[trade.FilterCustomerID] = id
	}
	if f.CampaignID != "" {
		id, err := uuid.Parse(f.CampaignID)
		if err != nil {
			return filter, shared.NewValidationError("Invalid campaignId")
		}
		filter.Filters[trade.FilterCampaignID] = id
	}
	if f.Status != "" {
		status, err := trade.ParseOrderStatus(f.Status)
		if err != nil {
			return filter, err
		}
		filter.Filters[trade.FilterStatus] = status
	}
	if f.From != "" {
		from, _, err := parseDateBound(f.From)
		if err != nil {
			return filter, shared.NewValidationError(fmt.Sprintf("Invalid from date: %v", err))
		}
		filter.Filters[trade.FilterFrom] = from
	}
	if f.To != "" {
		to, dateOnly, err := parseDateBound(f.To)
		if err != nil {
			return filter, shared.NewValidationError(fmt.Sprintf("Invalid to date: %v", err))
		}
		if dateOnly {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		filter.Filters[trade.FilterTo] = to
	}
	return filter, nil
}

// parseDateBound accepts RFC 3339 timestamps and plain YYYY-MM-DD dates
func parseDateBound(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false, errors.New("expected RFC 3339 or YYYY-MM-DD")
	}
	return t, true, nil
}
