package partner

import (
	"regexp"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
)

// Address is the postal address of a customer. Every field is required.
type Address struct {
	Street  string
	City    string
	State   string
	Zip     string
	Country string
}

// Validate checks that every part of the address is present
func (a Address) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"zip", a.Zip},
		{"country", a.Country},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return shared.NewValidationError("Address " + f.name + " is required")
		}
		if len(f.value) > 200 {
			return shared.NewValidationError("Address " + f.name + " cannot exceed 200 characters")
		}
	}
	return nil
}

func (a Address) trimmed() Address {
	return Address{
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		Zip:     strings.TrimSpace(a.Zip),
		Country: strings.TrimSpace(a.Country),
	}
}

// Profile holds the user-editable fields of a customer
type Profile struct {
	Name           string
	Email          string
	Phone          string
	Address        Address
	ProfilePicture string
}

// ProfileUpdate is a partial profile change; nil fields are left untouched
type ProfileUpdate struct {
	Name           *string
	Email          *string
	Phone          *string
	Address        *Address
	ProfilePicture *string
}

// Customer is the aggregate root for spending and engagement history.
// TotalSpending and OrderIDs mirror the orders owned by the customer and are
// only changed through AttachOrder, AdjustSpending, DetachOrder and Reconcile.
type Customer struct {
	shared.BaseEntity
	Name                string
	Email               string
	Phone               string
	Address             Address
	ProfilePicture      string
	TotalSpending       decimal.Decimal
	Visits              int
	LastVisitDate       *time.Time
	OrderIDs            []uuid.UUID
	CampaignEngagements []CampaignEngagement
}

// NewCustomer creates a customer with zero spending and no history
func NewCustomer(p Profile) (*Customer, error) {
	c := &Customer{
		BaseEntity:          shared.NewBaseEntity(),
		TotalSpending:       decimal.Zero,
		OrderIDs:            make([]uuid.UUID, 0),
		CampaignEngagements: make([]CampaignEngagement, 0),
	}
	if err := c.applyProfile(p); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Customer) applyProfile(p Profile) error {
	name := strings.TrimSpace(p.Name)
	if err := validateName(name); err != nil {
		return err
	}
	email := NormalizeEmail(p.Email)
	if err := validateEmail(email); err != nil {
		return err
	}
	phone := strings.TrimSpace(p.Phone)
	if err := validatePhone(phone); err != nil {
		return err
	}
	addr := p.Address.trimmed()
	if err := addr.Validate(); err != nil {
		return err
	}

	c.Name = name
	c.Email = email
	c.Phone = phone
	c.Address = addr
	c.ProfilePicture = strings.TrimSpace(p.ProfilePicture)
	return nil
}

// Profile returns the editable fields of the customer
func (c *Customer) Profile() Profile {
	return Profile{
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		Address:        c.Address,
		ProfilePicture: c.ProfilePicture,
	}
}

// UpdateProfile applies a partial profile change. The change is validated as
// a whole; on error the customer is left untouched.
func (c *Customer) UpdateProfile(u ProfileUpdate) error {
	p := c.Profile()
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.Address != nil {
		p.Address = *u.Address
	}
	if u.ProfilePicture != nil {
		p.ProfilePicture = *u.ProfilePicture
	}
	if err := c.applyProfile(p); err != nil {
		return err
	}
	c.Touch()
	return nil
}

// AttachOrder records a new order owned by this customer and adds its total
// to the customer's spending.
func (c *Customer) AttachOrder(orderID uuid.UUID, total decimal.Decimal) error {
	if orderID == uuid.Nil {
		return shared.NewValidationError("Order ID is required")
	}
	if total.IsNegative() {
		return shared.NewValidationError("Order total cannot be negative")
	}
	if c.HasOrder(orderID) {
		return shared.NewDomainError(shared.CodeInvalidState, "Order is already attached to this customer")
	}
	c.OrderIDs = append(c.OrderIDs, orderID)
	c.TotalSpending = c.TotalSpending.Add(total)
	c.Touch()
	return nil
}

// AdjustSpending applies the difference between an order's new and old total
func (c *Customer) AdjustSpending(delta decimal.Decimal) {
	if delta.IsZero() {
		return
	}
	c.TotalSpending = c.TotalSpending.Add(delta)
	c.Touch()
}

// DetachOrder removes an order reference and subtracts its total from spending.
// The total is subtracted even when the reference is missing, since the order's
// amount was counted when it was created.
func (c *Customer) DetachOrder(orderID uuid.UUID, total decimal.Decimal) {
	for i, id := range c.OrderIDs {
		if id == orderID {
			c.OrderIDs = append(c.OrderIDs[:i], c.OrderIDs[i+1:]...)
			break
		}
	}
	c.TotalSpending = c.TotalSpending.Sub(total)
	c.Touch()
}

// HasOrder reports whether the order is referenced by this customer
func (c *Customer) HasOrder(orderID uuid.UUID) bool {
	for _, id := range c.OrderIDs {
		if id == orderID {
			return true
		}
	}
	return false
}

// Reconcile replaces the denormalized order fields with values recomputed from
// the order store. It returns true if anything changed.
func (c *Customer) Reconcile(orderIDs []uuid.UUID, total decimal.Decimal) bool {
	changed := !c.TotalSpending.Equal(total) || !sameIDs(c.OrderIDs, orderIDs)
	if !changed {
		return false
	}
	c.OrderIDs = append(make([]uuid.UUID, 0, len(orderIDs)), orderIDs...)
	c.TotalSpending = total
	c.Touch()
	return true
}

// RecordVisit increments the visit counter
func (c *Customer) RecordVisit(at time.Time) {
	c.Visits++
	c.LastVisitDate = &at
	c.Touch()
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sameIDs(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[uuid.UUID]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}

func validateName(name string) error {
	if name == "" {
		return shared.NewValidationError("Customer name is required")
	}
	if len(name) > 200 {
		return shared.NewValidationError("Customer name cannot exceed 200 characters")
	}
	return nil
}

func validatePhone(phone string) error {
	if phone == "" {
		return shared.NewValidationError("Phone number is required")
	}
	if len(phone) > 50 {
		return shared.NewValidationError("Phone number cannot exceed 50 characters")
	}
	if !phonePattern.MatchString(phone) {
		return shared.NewValidationError("Invalid phone number format")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewValidationError("Email is required")
	}
	if len(email) > 200 {
		return shared.NewValidationError("Email cannot exceed 200 characters")
	}
	if !emailPattern.MatchString(email) {
		return shared.NewValidationError("Invalid email format")
	}
	return nil
}
