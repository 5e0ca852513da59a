package marketing

import (
	"fmt"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CampaignStatus represents the status of a campaign
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "Draft"
	CampaignStatusActive    CampaignStatus = "Active"
	CampaignStatusCompleted CampaignStatus = "Completed"
)

// IsValid checks if the status is a valid CampaignStatus
func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusActive, CampaignStatusCompleted:
		return true
	}
	return false
}

// ParseCampaignStatus converts a client value to a CampaignStatus; empty means Draft
func ParseCampaignStatus(s string) (CampaignStatus, error) {
	if strings.TrimSpace(s) == "" {
		return CampaignStatusDraft, nil
	}
	status := CampaignStatus(strings.TrimSpace(s))
	if !status.IsValid() {
		return "", shared.NewValidationError(fmt.Sprintf("Invalid campaign status %q: must be Draft, Active or Completed", s))
	}
	return status, nil
}

// Details holds the descriptive fields of a campaign
type Details struct {
	Name          string
	Content       string
	Status        CampaignStatus
	ScheduledDate *time.Time
	Image         *string
}

func (d Details) validate() (Details, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Content = strings.TrimSpace(d.Content)
	if d.Name == "" {
		return d, shared.NewValidationError("Campaign name is required")
	}
	if len(d.Name) > 200 {
		return d, shared.NewValidationError("Campaign name cannot exceed 200 characters")
	}
	if d.Content == "" {
		return d, shared.NewValidationError("Campaign content is required")
	}
	if d.Status == "" {
		d.Status = CampaignStatusDraft
	}
	if !d.Status.IsValid() {
		return d, shared.NewValidationError("Invalid campaign status")
	}
	if d.Image != nil && strings.TrimSpace(*d.Image) == "" {
		d.Image = nil
	}
	return d, nil
}

// Campaign targets a set of customers. The audience is a set: duplicates are
// dropped and order carries no meaning.
type Campaign struct {
	shared.BaseEntity
	Name          string
	Content       string
	Status        CampaignStatus
	ScheduledDate *time.Time
	Image         *string
	Audience      []uuid.UUID
}

// NewCampaign creates a campaign
func NewCampaign(d Details, audience []uuid.UUID) (*Campaign, error) {
	d, err := d.validate()
	if err != nil {
		return nil, err
	}
	c := &Campaign{
		BaseEntity: shared.NewBaseEntity(),
		Audience:   NormalizeAudience(audience),
	}
	c.applyDetails(d)
	return c, nil
}

// Update replaces the details and audience and returns the previous audience
func (c *Campaign) Update(d Details, audience []uuid.UUID) ([]uuid.UUID, error) {
	d, err := d.validate()
	if err != nil {
		return nil, err
	}
	previous := append([]uuid.UUID(nil), c.Audience...)
	c.applyDetails(d)
	c.Audience = NormalizeAudience(audience)
	c.Touch()
	return previous, nil
}

func (c *Campaign) applyDetails(d Details) {
	c.Name = d.Name
	c.Content = d.Content
	c.Status = d.Status
	c.ScheduledDate = d.ScheduledDate
	c.Image = d.Image
}

// Snapshot returns the engagement entry pushed to audience members
func (c *Campaign) Snapshot() partner.CampaignEngagement {
	return partner.CampaignEngagement{
		CampaignID:   c.ID,
		CampaignName: c.Name,
		DateSent:     c.ScheduledDate,
		Status:       string(c.Status),
	}
}

// NormalizeAudience removes nil and duplicate IDs, keeping first occurrence order
func NormalizeAudience(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
