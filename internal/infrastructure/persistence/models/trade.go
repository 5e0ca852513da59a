package models

import (
	"time"

	"github.com/crm/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate.
type OrderModel struct {
	BaseModel
	CustomerID  uuid.UUID         `gorm:"type:uuid;not null;index:idx_orders_customer"`
	OrderDate   time.Time         `gorm:"not null;index:idx_orders_order_date"`
	TotalAmount decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Status      trade.OrderStatus `gorm:"type:varchar(20);not null;default:'Pending'"`
	CampaignID  *uuid.UUID        `gorm:"type:uuid;index:idx_orders_campaign"`
	Comments    string            `gorm:"type:text"`
	Items       []OrderItemModel  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is one line of an order. Position keeps the client's order.
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_order_items_order"`
	Position    int             `gorm:"not null;default:0"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain Order. Items are
// expected to be loaded in position order.
func (m *OrderModel) ToDomain() *trade.Order {
	o := &trade.Order{
		BaseEntity:  m.BaseModel.ToDomain(),
		CustomerID:  m.CustomerID,
		OrderDate:   m.OrderDate,
		TotalAmount: m.TotalAmount,
		Status:      m.Status,
		CampaignID:  m.CampaignID,
		Comments:    m.Comments,
		Items:       make([]trade.OrderItem, len(m.Items)),
	}
	for i, item := range m.Items {
		o.Items[i] = trade.OrderItem{
			ID:          item.ID,
			OrderID:     item.OrderID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Amount:      item.Amount,
		}
	}
	return o
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.CustomerID = o.CustomerID
	m.OrderDate = o.OrderDate
	m.TotalAmount = o.TotalAmount
	m.Status = o.Status
	m.CampaignID = o.CampaignID
	m.Comments = o.Comments
	m.Items = make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = OrderItemModel{
			ID:          item.ID,
			OrderID:     o.ID,
			Position:    i,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Amount:      item.Amount,
		}
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
