package marketing

import (
	"time"

	"github.com/crm/backend/internal/domain/marketing"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/google/uuid"
)

// CampaignRequest is the body of both create and update requests.
// Update replaces every field, including the audience.
type CampaignRequest struct {
	Name          string      `json:"name" binding:"required,min=1,max=200"`
	Content       string      `json:"content" binding:"required"`
	Status        string      `json:"status" binding:"omitempty,oneof=Draft Active Completed"`
	ScheduledDate *time.Time  `json:"scheduledDate"`
	Image         *string     `json:"image" binding:"omitempty,max=1000"`
	Audience      []uuid.UUID `json:"audience"`
}

func (r CampaignRequest) details() (marketing.Details, error) {
	status, err := marketing.ParseCampaignStatus(r.Status)
	if err != nil {
		return marketing.Details{}, err
	}
	return marketing.Details{
		Name:          r.Name,
		Content:       r.Content,
		Status:        status,
		ScheduledDate: r.ScheduledDate,
		Image:         r.Image,
	}, nil
}

// AudienceMember is a campaign audience entry resolved to its customer.
// Email is only filled in on single-campaign responses.
type AudienceMember struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
}

// CampaignResponse represents a campaign in API responses
type CampaignResponse struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	Content       string           `json:"content"`
	Status        string           `json:"status"`
	ScheduledDate *time.Time       `json:"scheduledDate,omitempty"`
	Image         *string          `json:"image,omitempty"`
	Audience      []AudienceMember `json:"audience"`
	AudienceSize  int              `json:"audienceSize"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// ToCampaignResponse converts a campaign, resolving its audience against the
// given customers. Audience members that no longer exist are omitted.
func ToCampaignResponse(c *marketing.Campaign, customers map[uuid.UUID]*partner.Customer, withEmail bool) CampaignResponse {
	members := make([]AudienceMember, 0, len(c.Audience))
	for _, id := range c.Audience {
		cust, ok := customers[id]
		if !ok {
			continue
		}
		m := AudienceMember{ID: cust.ID, Name: cust.Name}
		if withEmail {
			m.Email = cust.Email
		}
		members = append(members, m)
	}
	return CampaignResponse{
		ID:            c.ID,
		Name:          c.Name,
		Content:       c.Content,
		Status:        string(c.Status),
		ScheduledDate: c.ScheduledDate,
		Image:         c.Image,
		Audience:      members,
		AudienceSize:  len(c.Audience),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
