package partner

import (
	"time"

	tradeapp "github.com/crm/backend/internal/application/trade"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/google/uuid"
)

// =============================================================================
// Customer DTOs
// =============================================================================

// AddressDTO is a postal address in requests and responses
type AddressDTO struct {
	Street  string `json:"street" binding:"required,max=200"`
	City    string `json:"city" binding:"required,max=200"`
	State   string `json:"state" binding:"required,max=200"`
	Zip     string `json:"zip" binding:"required,max=200"`
	Country string `json:"country" binding:"required,max=200"`
}

func (a AddressDTO) toDomain() partner.Address {
	return partner.Address{Street: a.Street, City: a.City, State: a.State, Zip: a.Zip, Country: a.Country}
}

func toAddressDTO(a partner.Address) AddressDTO {
	return AddressDTO{Street: a.Street, City: a.City, State: a.State, Zip: a.Zip, Country: a.Country}
}

// CreateCustomerRequest represents a request to create a new customer
type CreateCustomerRequest struct {
	Name           string     `json:"name" binding:"required,min=1,max=200"`
	Email          string     `json:"email" binding:"required,email,max=200"`
	Phone          string     `json:"phone" binding:"required,max=50"`
	Address        AddressDTO `json:"address" binding:"required"`
	ProfilePicture string     `json:"profilePicture" binding:"omitempty,url,max=1000"`
}

// UpdateCustomerRequest represents a partial profile update.
// Spending, orders and engagements are derived and cannot be set here.
type UpdateCustomerRequest struct {
	Name           *string     `json:"name" binding:"omitempty,min=1,max=200"`
	Email          *string     `json:"email" binding:"omitempty,email,max=200"`
	Phone          *string     `json:"phone" binding:"omitempty,max=50"`
	Address        *AddressDTO `json:"address"`
	ProfilePicture *string     `json:"profilePicture" binding:"omitempty,max=1000"`
}

func (r UpdateCustomerRequest) toDomain() partner.ProfileUpdate {
	u := partner.ProfileUpdate{
		Name:           r.Name,
		Email:          r.Email,
		Phone:          r.Phone,
		ProfilePicture: r.ProfilePicture,
	}
	if r.Address != nil {
		addr := r.Address.toDomain()
		u.Address = &addr
	}
	return u
}

// CustomerListFilter represents filter options for the customer list
type CustomerListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name email total_spending visits created_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// EngagementMetricsDTO holds engagement counters
type EngagementMetricsDTO struct {
	Clicks int `json:"clicks"`
	Opens  int `json:"opens"`
}

// EngagementResponse is one campaign engagement entry of a customer
type EngagementResponse struct {
	CampaignID        uuid.UUID            `json:"campaignId"`
	CampaignName      string               `json:"campaignName"`
	DateSent          *time.Time           `json:"dateSent,omitempty"`
	Status            string               `json:"status"`
	EngagementMetrics EngagementMetricsDTO `json:"engagementMetrics"`
}

// CustomerResponse represents a customer with its orders fully populated
type CustomerResponse struct {
	ID                  uuid.UUID                `json:"id"`
	Name                string                   `json:"name"`
	Email               string                   `json:"email"`
	Phone               string                   `json:"phone"`
	Address             AddressDTO               `json:"address"`
	ProfilePicture      string                   `json:"profilePicture,omitempty"`
	TotalSpending       float64                  `json:"totalSpending"`
	Visits              int                      `json:"visits"`
	LastVisitDate       *time.Time               `json:"lastVisitDate,omitempty"`
	Orders              []tradeapp.OrderResponse `json:"orders"`
	CampaignEngagements []EngagementResponse     `json:"campaignEngagements"`
	CreatedAt           time.Time                `json:"createdAt"`
	UpdatedAt           time.Time                `json:"updatedAt"`
}

// CustomerListResponse represents a customer in lists, with orders summarized
type CustomerListResponse struct {
	ID                  uuid.UUID               `json:"id"`
	Name                string                  `json:"name"`
	Email               string                  `json:"email"`
	Phone               string                  `json:"phone"`
	Address             AddressDTO              `json:"address"`
	ProfilePicture      string                  `json:"profilePicture,omitempty"`
	TotalSpending       float64                 `json:"totalSpending"`
	Visits              int                     `json:"visits"`
	LastVisitDate       *time.Time              `json:"lastVisitDate,omitempty"`
	Orders              []tradeapp.OrderSummary `json:"orders"`
	CampaignEngagements []EngagementResponse    `json:"campaignEngagements"`
	CreatedAt           time.Time               `json:"createdAt"`
}

// ReconcileResponse reports the outcome of a reconciliation
type ReconcileResponse struct {
	Customer  CustomerResponse `json:"customer"`
	Corrected bool             `json:"corrected"`
}

// SegmentRuleDTO is one rule of a segment preview
type SegmentRuleDTO struct {
	Field    string      `json:"field" binding:"required"`
	Operator string      `json:"operator" binding:"required"`
	Value    interface{} `json:"value"`
}

// SegmentPreviewRequest holds the rules of a segment; all rules must match
type SegmentPreviewRequest struct {
	Rules []SegmentRuleDTO `json:"rules" binding:"dive"`
}

// SegmentPreviewResponse lists the customers matching a segment
type SegmentPreviewResponse struct {
	SegmentSize int                    `json:"segmentSize"`
	Segment     []CustomerListResponse `json:"segment"`
}

func toEngagementResponses(in []partner.CampaignEngagement) []EngagementResponse {
	out := make([]EngagementResponse, len(in))
	for i, e := range in {
		out[i] = EngagementResponse{
			CampaignID:        e.CampaignID,
			CampaignName:      e.CampaignName,
			DateSent:          e.DateSent,
			Status:            e.Status,
			EngagementMetrics: EngagementMetricsDTO{Clicks: e.EngagementMetrics.Clicks, Opens: e.EngagementMetrics.Opens},
		}
	}
	return out
}

// ToCustomerResponse converts a domain Customer and its orders to CustomerResponse
func ToCustomerResponse(c *partner.Customer, orders []tradeapp.OrderResponse) CustomerResponse {
	if orders == nil {
		orders = []tradeapp.OrderResponse{}
	}
	return CustomerResponse{
		ID:                  c.ID,
		Name:                c.Name,
		Email:               c.Email,
		Phone:               c.Phone,
		Address:             toAddressDTO(c.Address),
		ProfilePicture:      c.ProfilePicture,
		TotalSpending:       c.TotalSpending.InexactFloat64(),
		Visits:              c.Visits,
		LastVisitDate:       c.LastVisitDate,
		Orders:              orders,
		CampaignEngagements: toEngagementResponses(c.CampaignEngagements),
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// ToCustomerListResponse converts a domain Customer and its order summaries to CustomerListResponse
func ToCustomerListResponse(c *partner.Customer, orders []tradeapp.OrderSummary) CustomerListResponse {
	if orders == nil {
		orders = []tradeapp.OrderSummary{}
	}
	return CustomerListResponse{
		ID:                  c.ID,
		Name:                c.Name,
		Email:               c.Email,
		Phone:               c.Phone,
		Address:             toAddressDTO(c.Address),
		ProfilePicture:      c.ProfilePicture,
		TotalSpending:       c.TotalSpending.InexactFloat64(),
		Visits:              c.Visits,
		LastVisitDate:       c.LastVisitDate,
		Orders:              orders,
		CampaignEngagements: toEngagementResponses(c.CampaignEngagements),
		CreatedAt:           c.CreatedAt,
	}
}
