package partner

import (
	"time"

	"github.com/google/uuid"
)

// EngagementMetrics counts how a customer interacted with a campaign
type EngagementMetrics struct {
	Clicks int
	Opens  int
}

// CampaignEngagement is a snapshot of a campaign taken when the customer
// joined its audience. It is not kept in sync with later campaign edits.
type CampaignEngagement struct {
	CampaignID        uuid.UUID
	CampaignName      string
	DateSent          *time.Time
	Status            string
	EngagementMetrics EngagementMetrics
}

// Matches reports whether the entry belongs to the given campaign. Entries
// written before campaign ids were recorded fall back to the campaign name.
func (e CampaignEngagement) Matches(campaignID uuid.UUID, campaignName string) bool {
	if e.CampaignID != uuid.Nil {
		return e.CampaignID == campaignID
	}
	return e.CampaignName == campaignName
}

// AddEngagement appends an engagement entry with zeroed metrics
func (c *Customer) AddEngagement(e CampaignEngagement) {
	e.EngagementMetrics = EngagementMetrics{}
	c.CampaignEngagements = append(c.CampaignEngagements, e)
	c.Touch()
}

// RemoveEngagement removes the first entry matching the campaign.
// It returns false if the customer had no such entry.
func (c *Customer) RemoveEngagement(campaignID uuid.UUID, campaignName string) bool {
	for i, e := range c.CampaignEngagements {
		if e.Matches(campaignID, campaignName) {
			c.CampaignEngagements = append(c.CampaignEngagements[:i], c.CampaignEngagements[i+1:]...)
			c.Touch()
			return true
		}
	}
	return false
}

// EngagementsFor returns the entries belonging to the campaign
func (c *Customer) EngagementsFor(campaignID uuid.UUID, campaignName string) []CampaignEngagement {
	var out []CampaignEngagement
	for _, e := range c.CampaignEngagements {
		if e.Matches(campaignID, campaignName) {
			out = append(out, e)
		}
	}
	return out
}
