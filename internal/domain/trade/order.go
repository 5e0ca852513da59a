package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// ParseOrderStatus converts a client value to an OrderStatus. An empty value
// yields the default Pending status.
func ParseOrderStatus(s string) (OrderStatus, error) {
	if strings.TrimSpace(s) == "" {
		return OrderStatusPending, nil
	}
	status := OrderStatus(strings.TrimSpace(s))
	if !status.IsValid() {
		return "", shared.NewValidationError(fmt.Sprintf("Invalid order status %q: must be Pending, Completed or Cancelled", s))
	}
	return status, nil
}

// ItemInput is a line item as supplied by a caller
type ItemInput struct {
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

// OrderItem represents a line item in an order
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	Amount      decimal.Decimal // Quantity * Price
}

// ValidateItems rejects an empty list and any item without a product name or
// with a non-positive quantity or price. Values are never clamped.
func ValidateItems(items []ItemInput) error {
	if len(items) == 0 {
		return shared.NewValidationError("Order must contain at least one item")
	}
	for i, item := range items {
		if strings.TrimSpace(item.ProductName) == "" {
			return shared.NewValidationError(fmt.Sprintf("Item %d: product name is required", i+1))
		}
		if item.Quantity <= 0 {
			return shared.NewValidationError(fmt.Sprintf("Item %d: quantity must be greater than 0", i+1))
		}
		if !item.Price.IsPositive() {
			return shared.NewValidationError(fmt.Sprintf("Item %d: price must be greater than 0", i+1))
		}
	}
	return nil
}

// CalculateTotal returns the sum of quantity * price over the items
func CalculateTotal(items []ItemInput) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Order belongs to exactly one customer. TotalAmount is derived from Items and
// is recomputed every time the items change.
type Order struct {
	shared.BaseEntity
	CustomerID  uuid.UUID
	OrderDate   time.Time
	Items       []OrderItem
	TotalAmount decimal.Decimal
	Status      OrderStatus
	CampaignID  *uuid.UUID
	Comments    string
}

// NewOrder creates an order for the customer. A zero orderDate means now.
func NewOrder(customerID uuid.UUID, items []ItemInput, status OrderStatus, comments string, campaignID *uuid.UUID, orderDate time.Time) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("Customer ID is required")
	}
	if !status.IsValid() {
		return nil, shared.NewValidationError("Invalid order status")
	}
	if campaignID != nil && *campaignID == uuid.Nil {
		campaignID = nil
	}

	o := &Order{
		BaseEntity: shared.NewBaseEntity(),
		CustomerID: customerID,
		OrderDate:  orderDate,
		Status:     status,
		CampaignID: campaignID,
		Comments:   comments,
	}
	if o.OrderDate.IsZero() {
		o.OrderDate = o.CreatedAt
	}
	if err := o.setItems(items); err != nil {
		return nil, err
	}
	return o, nil
}

// Update replaces the items, status and comments and returns the previous total
func (o *Order) Update(items []ItemInput, status OrderStatus, comments string) (decimal.Decimal, error) {
	if !status.IsValid() {
		return decimal.Zero, shared.NewValidationError("Invalid order status")
	}
	oldTotal := o.TotalAmount
	if err := o.setItems(items); err != nil {
		return decimal.Zero, err
	}
	o.Status = status
	o.Comments = comments
	o.Touch()
	return oldTotal, nil
}

func (o *Order) setItems(items []ItemInput) error {
	if err := ValidateItems(items); err != nil {
		return err
	}

	// Keep existing item IDs by position so updates rewrite rows in place
	next := make([]OrderItem, len(items))
	for i, in := range items {
		id := uuid.New()
		if i < len(o.Items) {
			id = o.Items[i].ID
		}
		next[i] = OrderItem{
			ID:          id,
			OrderID:     o.ID,
			ProductName: strings.TrimSpace(in.ProductName),
			Quantity:    in.Quantity,
			Price:       in.Price,
			Amount:      in.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
		}
	}
	o.Items = next
	o.recalculateTotal()
	return nil
}

func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Amount)
	}
	o.TotalAmount = total
}

// ItemInputs returns the items in the form accepted by Update
func (o *Order) ItemInputs() []ItemInput {
	out := make([]ItemInput, len(o.Items))
	for i, item := range o.Items {
		out[i] = ItemInput{ProductName: item.ProductName, Quantity: item.Quantity, Price: item.Price}
	}
	return out
}

// ItemCount returns the number of line items
func (o *Order) ItemCount() int {
	return len(o.Items)
}
