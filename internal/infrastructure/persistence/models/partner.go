package models

import (
	"time"

	"github.com/crm/backend/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// AddressModel is embedded into the customers table with an address_ prefix
type AddressModel struct {
	Street  string `gorm:"type:varchar(200);not null"`
	City    string `gorm:"type:varchar(200);not null"`
	State   string `gorm:"type:varchar(200);not null"`
	Zip     string `gorm:"type:varchar(200);not null"`
	Country string `gorm:"type:varchar(200);not null"`
}

// EngagementModel is one element of the campaign_engagements JSON column
type EngagementModel struct {
	CampaignID        uuid.UUID         `json:"campaignId"`
	CampaignName      string            `json:"campaignName"`
	DateSent          *time.Time        `json:"dateSent,omitempty"`
	Status            string            `json:"status"`
	EngagementMetrics EngagementMetrics `json:"engagementMetrics"`
}

// EngagementMetrics mirrors partner.EngagementMetrics in JSON
type EngagementMetrics struct {
	Clicks int `json:"clicks"`
	Opens  int `json:"opens"`
}

// CustomerModel is the persistence model for the Customer aggregate.
type CustomerModel struct {
	BaseModel
	Name                string          `gorm:"type:varchar(200);not null"`
	Email               string          `gorm:"type:varchar(200);not null;uniqueIndex:idx_customers_email"`
	Phone               string          `gorm:"type:varchar(50);not null"`
	Address             AddressModel    `gorm:"embedded;embeddedPrefix:address_"`
	ProfilePicture      string          `gorm:"type:text"`
	TotalSpending       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Visits              int             `gorm:"not null;default:0"`
	LastVisitDate       *time.Time
	OrderIDs            datatypes.JSONSlice[uuid.UUID]       `gorm:"column:order_ids;not null"`
	CampaignEngagements datatypes.JSONSlice[EngagementModel] `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer.
func (m *CustomerModel) ToDomain() *partner.Customer {
	c := &partner.Customer{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		Address: partner.Address{
			Street:  m.Address.Street,
			City:    m.Address.City,
			State:   m.Address.State,
			Zip:     m.Address.Zip,
			Country: m.Address.Country,
		},
		ProfilePicture:      m.ProfilePicture,
		TotalSpending:       m.TotalSpending,
		Visits:              m.Visits,
		LastVisitDate:       m.LastVisitDate,
		OrderIDs:            append(make([]uuid.UUID, 0, len(m.OrderIDs)), m.OrderIDs...),
		CampaignEngagements: make([]partner.CampaignEngagement, len(m.CampaignEngagements)),
	}
	for i, e := range m.CampaignEngagements {
		c.CampaignEngagements[i] = partner.CampaignEngagement{
			CampaignID:   e.CampaignID,
			CampaignName: e.CampaignName,
			DateSent:     e.DateSent,
			Status:       e.Status,
			EngagementMetrics: partner.EngagementMetrics{
				Clicks: e.EngagementMetrics.Clicks,
				Opens:  e.EngagementMetrics.Opens,
			},
		}
	}
	return c
}

// FromDomain populates the persistence model from a domain Customer.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Name = c.Name
	m.Email = c.Email
	m.Phone = c.Phone
	m.Address = AddressModel{
		Street:  c.Address.Street,
		City:    c.Address.City,
		State:   c.Address.State,
		Zip:     c.Address.Zip,
		Country: c.Address.Country,
	}
	m.ProfilePicture = c.ProfilePicture
	m.TotalSpending = c.TotalSpending
	m.Visits = c.Visits
	m.LastVisitDate = c.LastVisitDate
	m.OrderIDs = append(datatypes.JSONSlice[uuid.UUID]{}, c.OrderIDs...)
	m.CampaignEngagements = make(datatypes.JSONSlice[EngagementModel], len(c.CampaignEngagements))
	for i, e := range c.CampaignEngagements {
		m.CampaignEngagements[i] = EngagementModel{
			CampaignID:   e.CampaignID,
			CampaignName: e.CampaignName,
			DateSent:     e.DateSent,
			Status:       e.Status,
			EngagementMetrics: EngagementMetrics{
				Clicks: e.EngagementMetrics.Clicks,
				Opens:  e.EngagementMetrics.Opens,
			},
		}
	}
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
