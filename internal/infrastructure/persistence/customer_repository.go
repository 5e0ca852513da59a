package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const customerEntity = "Customer"

// segmentColumns maps segment fields onto customers table columns
var segmentColumns = map[partner.SegmentField]string{
	partner.SegmentFieldTotalSpending: "total_spending",
	partner.SegmentFieldVisits:        "visits",
	partner.SegmentFieldLastVisitDate: "last_visit_date",
	partner.SegmentFieldCreatedAt:     "created_at",
	partner.SegmentFieldName:          "name",
	partner.SegmentFieldEmail:         "email",
	partner.SegmentFieldCity:          "address_city",
	partner.SegmentFieldState:         "address_state",
	partner.SegmentFieldCountry:       "address_country",
}

var segmentOperators = map[partner.SegmentOperator]string{
	partner.SegmentOpGreater:      ">",
	partner.SegmentOpLess:         "<",
	partner.SegmentOpGreaterEqual: ">=",
	partner.SegmentOpLessEqual:    "<=",
	partner.SegmentOpEqual:        "=",
	partner.SegmentOpNotEqual:     "<>",
}

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, customerEntity)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple customers by their IDs
func (r *GormCustomerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]partner.Customer, error) {
	if len(ids) == 0 {
		return []partner.Customer{}, nil
	}
	var rows []models.CustomerModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translateError(err, customerEntity)
	}
	return toCustomers(rows), nil
}

// FindByEmail finds a customer by email
func (r *GormCustomerRepository) FindByEmail(ctx context.Context, email string) (*partner.Customer, error) {
	email = partner.NormalizeEmail(email)
	if email == "" {
		return nil, shared.NewValidationError("Email cannot be empty")
	}
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		return nil, translateError(err, customerEntity)
	}
	return model.ToDomain(), nil
}

// FindAll finds all customers matching the filter
func (r *GormCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Customer, error) {
	query := r.applySearch(r.db.WithContext(ctx).Model(&models.CustomerModel{}), filter)
	query = applySortAndPage(query, filter, CustomerSortFields, "created_at")

	var rows []models.CustomerModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError(err, customerEntity)
	}
	return toCustomers(rows), nil
}

// FindBySegment finds customers matching every condition
func (r *GormCustomerRepository) FindBySegment(ctx context.Context, conditions []partner.SegmentCondition) ([]partner.Customer, error) {
	query := r.db.WithContext(ctx).Model(&models.CustomerModel{})
	for _, cond := range conditions {
		column, ok := segmentColumns[cond.Field]
		if !ok {
			return nil, shared.NewValidationError(fmt.Sprintf("Unsupported segment field %q", cond.Field))
		}
		op, ok := segmentOperators[cond.Operator]
		if !ok {
			return nil, shared.NewValidationError(fmt.Sprintf("Unsupported segment operator %q", cond.Operator))
		}
		value := cond.Value
		if d, ok := value.(decimal.Decimal); ok {
			value = d.String()
		}
		if op == "<>" && cond.Field == partner.SegmentFieldLastVisitDate {
			// customers who never visited differ from any date
			query = query.Where(fmt.Sprintf("(%s <> ? OR %s IS NULL)", column, column), value)
			continue
		}
		query = query.Where(fmt.Sprintf("%s %s ?", column, op), value)
	}

	var rows []models.CustomerModel
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err, customerEntity)
	}
	return toCustomers(rows), nil
}

// ListIDs returns the IDs of every customer
func (r *GormCustomerRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.CustomerModel{}).Order("created_at ASC").Pluck("id", &ids).Error; err != nil {
		return nil, translateError(err, customerEntity)
	}
	return ids, nil
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	return translateError(r.db.WithContext(ctx).Save(model).Error, customerEntity)
}

// Delete deletes a customer
func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CustomerModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, customerEntity)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(customerEntity)
	}
	return nil
}

// Count counts customers matching the filter
func (r *GormCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applySearch(r.db.WithContext(ctx).Model(&models.CustomerModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError(err, customerEntity)
	}
	return count, nil
}

// ExistsByEmail checks if an email is taken
func (r *GormCustomerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("email = ?", partner.NormalizeEmail(email)).
		Count(&count).Error; err != nil {
		return false, translateError(err, customerEntity)
	}
	return count > 0, nil
}

// ExistsByEmailExcludingID checks if an email is taken by another customer
func (r *GormCustomerRepository) ExistsByEmailExcludingID(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("email = ? AND id <> ?", partner.NormalizeEmail(email), excludeID).
		Count(&count).Error; err != nil {
		return false, translateError(err, customerEntity)
	}
	return count > 0, nil
}

// applySearch matches the search term against name, email and phone
func (r *GormCustomerRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	if search == "" {
		return query
	}
	pattern := "%" + search + "%"
	return query.Where("LOWER(name) LIKE ? OR email LIKE ? OR phone LIKE ?", pattern, pattern, pattern)
}

func toCustomers(rows []models.CustomerModel) []partner.Customer {
	customers := make([]partner.Customer, len(rows))
	for i := range rows {
		customers[i] = *rows[i].ToDomain()
	}
	return customers
}

// Ensure GormCustomerRepository implements CustomerRepository
var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
