package persistence

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/trade"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const orderEntity = "Order"

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, orderEntity)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds orders by ID; unknown IDs are skipped
func (r *GormOrderRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]trade.Order, error) {
	if len(ids) == 0 {
		return []trade.Order{}, nil
	}
	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, translateError(err, orderEntity)
	}
	return toOrders(rows), nil
}

// FindAll finds orders matching the filter
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Order, error) {
	query := r.applyFilters(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter)
	query = applySortAndPage(query, filter, OrderSortFields, "order_date")

	var rows []models.OrderModel
	if err := query.Preload("Items", preloadItems).Find(&rows).Error; err != nil {
		return nil, translateError(err, orderEntity)
	}
	return toOrders(rows), nil
}

// FindByCustomer finds every order owned by a customer, oldest first
func (r *GormOrderRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]trade.Order, error) {
	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, orderEntity)
	}
	return toOrders(rows), nil
}

// Save creates or updates an order and replaces its items
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	items := model.Items
	model.Items = nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", model.ID).Delete(&models.OrderItemModel{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
	return translateError(err, orderEntity)
}

// Delete deletes an order and its items
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.OrderModel{}, "id = ?", id)
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return translateError(err, orderEntity)
	}
	if affected == 0 {
		return shared.NewNotFoundError(orderEntity)
	}
	return nil
}

// DeleteByCustomer deletes every order owned by a customer and returns how many were removed
func (r *GormOrderRepository) DeleteByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&models.OrderModel{}).Select("id").Where("customer_id = ?", customerID)
		if err := tx.Where("order_id IN (?)", owned).Delete(&models.OrderItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("customer_id = ?", customerID).Delete(&models.OrderModel{})
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, translateError(err, orderEntity)
	}
	return affected, nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilters(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError(err, orderEntity)
	}
	return count, nil
}

func (r *GormOrderRepository) applyFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Filters == nil {
		return query
	}
	if v, ok := filter.Filters[trade.FilterCustomerID].(uuid.UUID); ok {
		query = query.Where("customer_id = ?", v)
	}
	if v, ok := filter.Filters[trade.FilterCampaignID].(uuid.UUID); ok {
		query = query.Where("campaign_id = ?", v)
	}
	if v, ok := filter.Filters[trade.FilterStatus].(trade.OrderStatus); ok && v != "" {
		query = query.Where("status = ?", v)
	}
	if v, ok := filter.Filters[trade.FilterFrom].(time.Time); ok {
		query = query.Where("order_date >= ?", v)
	}
	if v, ok := filter.Filters[trade.FilterTo].(time.Time); ok {
		query = query.Where("order_date <= ?", v)
	}
	return query
}

func toOrders(rows []models.OrderModel) []trade.Order {
	orders := make([]trade.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders
}

// Ensure GormOrderRepository implements OrderRepository
var _ trade.OrderRepository = (*GormOrderRepository)(nil)
