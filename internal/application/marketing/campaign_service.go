package marketing

import (
	"context"
	"fmt"
	"strings"

	"github.com/crm/backend/internal/application/consistency"
	"github.com/crm/backend/internal/domain/marketing"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CampaignService manages campaigns and pushes audience changes into the
// engagement history of the customers concerned.
type CampaignService struct {
	campaignRepo marketing.CampaignRepository
	customerRepo partner.CustomerRepository
	scope        consistency.Scope
	recorder     consistency.Recorder
	logger       *zap.Logger
}

// NewCampaignService creates a new CampaignService
func NewCampaignService(
	campaignRepo marketing.CampaignRepository,
	customerRepo partner.CustomerRepository,
	scope consistency.Scope,
	recorder consistency.Recorder,
	logger *zap.Logger,
) *CampaignService {
	if recorder == nil {
		recorder = consistency.NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampaignService{
		campaignRepo: campaignRepo,
		customerRepo: customerRepo,
		scope:        scope,
		recorder:     recorder,
		logger:       logger,
	}
}

// Create creates a campaign and appends an engagement entry to every audience member
func (s *CampaignService) Create(ctx context.Context, req CampaignRequest) (*CampaignResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "campaign", "create")
	defer span.End()

	details, err := req.details()
	if err != nil {
		return nil, err
	}
	campaign, err := marketing.NewCampaign(details, req.Audience)
	if err != nil {
		return nil, err
	}

	var members map[uuid.UUID]*partner.Customer
	written := false
	err = s.scope.Execute(ctx, func(repos consistency.Repositories) error {
		members, err = loadCustomers(ctx, repos.Customers(), campaign.Audience)
		if err != nil {
			return err
		}
		if err := requireAll(members, campaign.Audience); err != nil {
			return err
		}

		if err := repos.Campaigns().Save(ctx, campaign); err != nil {
			return err
		}
		written = true

		patches := marketing.PlanAudienceSync(nil, campaign.Audience, campaign.Snapshot())
		return applyPatches(ctx, repos.Customers(), members, patches)
	})
	s.record(consistency.OpCreateCampaign, err, written, campaign)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCampaignID, campaign.ID.String(), "audience_size", len(campaign.Audience))

	s.logger.Info("campaign created",
		zap.String("campaign_id", campaign.ID.String()),
		zap.Int("audience_size", len(campaign.Audience)),
	)
	resp := ToCampaignResponse(campaign, members, true)
	return &resp, nil
}

// Update replaces a campaign's fields and audience. Customers who left the
// audience lose the campaign's engagement entry, customers who joined gain one,
// and customers in both are left untouched.
func (s *CampaignService) Update(ctx context.Context, campaignID uuid.UUID, req CampaignRequest) (*CampaignResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "campaign", "update",
		telemetry.WithAttribute(telemetry.SpanAttrCampaignID, campaignID.String()),
	)
	defer span.End()

	details, err := req.details()
	if err != nil {
		return nil, err
	}

	var (
		campaign *marketing.Campaign
		members  map[uuid.UUID]*partner.Customer
		diff     marketing.AudienceDiff
	)
	written := false
	err = s.scope.Execute(ctx, func(repos consistency.Repositories) error {
		c, err := repos.Campaigns().FindByID(ctx, campaignID)
		if err != nil {
			return err
		}
		campaign = c

		previous, err := c.Update(details, req.Audience)
		if err != nil {
			return err
		}
		diff = marketing.DiffAudience(previous, c.Audience)
		patches := marketing.PlanAudienceSync(previous, c.Audience, c.Snapshot())

		members, err = loadCustomers(ctx, repos.Customers(), append(append([]uuid.UUID{}, c.Audience...), diff.Removed...))
		if err != nil {
			return err
		}
		if err := requireAll(members, diff.Added); err != nil {
			return err
		}

		if err := repos.Campaigns().Save(ctx, c); err != nil {
			return err
		}
		written = true

		return applyPatches(ctx, repos.Customers(), members, patches)
	})
	s.record(consistency.OpUpdateCampaign, err, written, campaign)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("campaign updated",
		zap.String("campaign_id", campaign.ID.String()),
		zap.Int("audience_added", len(diff.Added)),
		zap.Int("audience_removed", len(diff.Removed)),
	)
	resp := ToCampaignResponse(campaign, members, true)
	return &resp, nil
}

// Delete deletes a campaign. Engagement entries already pushed to customers are kept.
func (s *CampaignService) Delete(ctx context.Context, campaignID uuid.UUID) error {
	if _, err := s.campaignRepo.FindByID(ctx, campaignID); err != nil {
		return err
	}
	return s.campaignRepo.Delete(ctx, campaignID)
}

// GetByID returns a campaign with its audience resolved to names and emails
func (s *CampaignService) GetByID(ctx context.Context, campaignID uuid.UUID) (*CampaignResponse, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	members, err := loadCustomers(ctx, s.customerRepo, campaign.Audience)
	if err != nil {
		return nil, err
	}
	resp := ToCampaignResponse(campaign, members, true)
	return &resp, nil
}

// List returns every campaign, newest first, with audience names
func (s *CampaignService) List(ctx context.Context) ([]CampaignResponse, error) {
	filter := shared.DefaultFilter()
	campaigns, err := s.campaignRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	for _, c := range campaigns {
		ids = append(ids, c.Audience...)
	}
	members, err := loadCustomers(ctx, s.customerRepo, marketing.NormalizeAudience(ids))
	if err != nil {
		return nil, err
	}

	out := make([]CampaignResponse, len(campaigns))
	for i := range campaigns {
		out[i] = ToCampaignResponse(&campaigns[i], members, false)
	}
	return out, nil
}

func (s *CampaignService) record(op string, err error, written bool, campaign *marketing.Campaign) {
	outcome := consistency.Outcome(s.scope.Mode(), err, written)
	s.recorder.RecordSync(op, outcome)
	if outcome != consistency.OutcomePartial {
		return
	}
	s.logger.Error("campaign written but audience engagements not synchronized",
		zap.String("operation", op),
		zap.String("campaign_id", campaign.ID.String()),
		zap.Error(err),
	)
}

func loadCustomers(ctx context.Context, repo partner.CustomerRepository, ids []uuid.UUID) (map[uuid.UUID]*partner.Customer, error) {
	ids = marketing.NormalizeAudience(ids)
	out := make(map[uuid.UUID]*partner.Customer, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	customers, err := repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range customers {
		out[customers[i].ID] = &customers[i]
	}
	return out, nil
}

func requireAll(found map[uuid.UUID]*partner.Customer, ids []uuid.UUID) error {
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Audience customers not found: %s", strings.Join(missing, ", ")))
}

// applyPatches applies each patch to its loaded customer and saves the
// customers that changed. Patches for customers that no longer exist are skipped.
func applyPatches(ctx context.Context, repo partner.CustomerRepository, customers map[uuid.UUID]*partner.Customer, patches []marketing.EngagementPatch) error {
	for _, p := range patches {
		c, ok := customers[p.CustomerID]
		if !ok {
			continue
		}
		if !p.Apply(c) {
			continue
		}
		if err := repo.Save(ctx, c); err != nil {
			return fmt.Errorf("save customer %s: %w", c.ID, err)
		}
	}
	return nil
}
