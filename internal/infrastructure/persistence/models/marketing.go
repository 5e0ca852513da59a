package models

import (
	"time"

	"github.com/crm/backend/internal/domain/marketing"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CampaignModel is the persistence model for the Campaign aggregate.
type CampaignModel struct {
	BaseModel
	Name          string                         `gorm:"type:varchar(200);not null"`
	Content       string                         `gorm:"type:text;not null"`
	Status        marketing.CampaignStatus       `gorm:"type:varchar(20);not null;default:'Draft'"`
	ScheduledDate *time.Time                     `gorm:"index:idx_campaigns_scheduled_date"`
	Image         *string                        `gorm:"type:text"`
	Audience      datatypes.JSONSlice[uuid.UUID] `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CampaignModel) TableName() string {
	return "campaigns"
}

// ToDomain converts the persistence model to a domain Campaign.
func (m *CampaignModel) ToDomain() *marketing.Campaign {
	return &marketing.Campaign{
		BaseEntity:    m.BaseModel.ToDomain(),
		Name:          m.Name,
		Content:       m.Content,
		Status:        m.Status,
		ScheduledDate: m.ScheduledDate,
		Image:         m.Image,
		Audience:      append(make([]uuid.UUID, 0, len(m.Audience)), m.Audience...),
	}
}

// FromDomain populates the persistence model from a domain Campaign.
func (m *CampaignModel) FromDomain(c *marketing.Campaign) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Name = c.Name
	m.Content = c.Content
	m.Status = c.Status
	m.ScheduledDate = c.ScheduledDate
	m.Image = c.Image
	m.Audience = append(datatypes.JSONSlice[uuid.UUID]{}, c.Audience...)
}

// CampaignModelFromDomain creates a new persistence model from a domain Campaign.
func CampaignModelFromDomain(c *marketing.Campaign) *CampaignModel {
	m := &CampaignModel{}
	m.FromDomain(c)
	return m
}
