package trade

import (
	"time"

	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Order DTOs
// =============================================================================

// OrderItemInput is one line item as sent by the client
type OrderItemInput struct {
	ProductName string          `json:"productName" binding:"max=200"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// CreateOrderRequest represents a request to create an order.
// Any totalAmount sent by the client is ignored.
type CreateOrderRequest struct {
	CustomerID uuid.UUID        `json:"customerId" binding:"required"`
	OrderDate  *time.Time       `json:"orderDate"`
	Items      []OrderItemInput `json:"items" binding:"dive"`
	Status     string           `json:"status" binding:"omitempty,oneof=Pending Completed Cancelled"`
	CampaignID *uuid.UUID       `json:"campaignId"`
	Comments   string           `json:"comments" binding:"max=2000"`
}

// UpdateOrderRequest represents a request to update an order.
// The owning customer cannot be changed; omitted status and comments are kept.
type UpdateOrderRequest struct {
	Items    []OrderItemInput `json:"items" binding:"dive"`
	Status   string           `json:"status" binding:"omitempty,oneof=Pending Completed Cancelled"`
	Comments *string          `json:"comments" binding:"omitempty,max=2000"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	CustomerID string `form:"customerId" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=Pending Completed Cancelled"`
	CampaignID string `form:"campaignId" binding:"omitempty,uuid"`
	From       string `form:"from"`
	To         string `form:"to"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OrderItemResponse represents a line item in API responses
type OrderItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductName string    `json:"productName"`
	Quantity    int       `json:"quantity"`
	Price       float64   `json:"price"`
	Amount      float64   `json:"amount"`
}

// CustomerSummary is the customer shown next to an order
type CustomerSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID          uuid.UUID           `json:"id"`
	CustomerID  uuid.UUID           `json:"customerId"`
	Customer    *CustomerSummary    `json:"customer,omitempty"`
	OrderDate   time.Time           `json:"orderDate"`
	Items       []OrderItemResponse `json:"items"`
	TotalAmount float64             `json:"totalAmount"`
	Status      string              `json:"status"`
	CampaignID  *uuid.UUID          `json:"campaignId,omitempty"`
	Comments    string              `json:"comments"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// OrderSummary is the short form of an order embedded in customer lists
type OrderSummary struct {
	ID          uuid.UUID `json:"id"`
	OrderDate   time.Time `json:"orderDate"`
	TotalAmount float64   `json:"totalAmount"`
	Status      string    `json:"status"`
}

func toItemInputs(items []OrderItemInput) []trade.ItemInput {
	out := make([]trade.ItemInput, len(items))
	for i, it := range items {
		out[i] = trade.ItemInput{ProductName: it.ProductName, Quantity: it.Quantity, Price: it.Price}
	}
	return out
}

// ToOrderResponse converts a domain Order to OrderResponse
func ToOrderResponse(o *trade.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:          it.ID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price.InexactFloat64(),
			Amount:      it.Amount.InexactFloat64(),
		}
	}
	return OrderResponse{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		OrderDate:   o.OrderDate,
		Items:       items,
		TotalAmount: o.TotalAmount.InexactFloat64(),
		Status:      string(o.Status),
		CampaignID:  o.CampaignID,
		Comments:    o.Comments,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// ToOrderResponses converts orders, attaching the owner summary when it is known
func ToOrderResponses(orders []trade.Order, owners map[uuid.UUID]*partner.Customer) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
		if c, ok := owners[orders[i].CustomerID]; ok {
			out[i].Customer = &CustomerSummary{ID: c.ID, Name: c.Name, Email: c.Email}
		}
	}
	return out
}

// ToOrderSummary converts a domain Order to OrderSummary
func ToOrderSummary(o *trade.Order) OrderSummary {
	return OrderSummary{
		ID:          o.ID,
		OrderDate:   o.OrderDate,
		TotalAmount: o.TotalAmount.InexactFloat64(),
		Status:      string(o.Status),
	}
}
