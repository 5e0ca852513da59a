package persistence

import (
	"context"
	"strings"

	"github.com/crm/backend/internal/domain/marketing"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const campaignEntity = "Campaign"

// GormCampaignRepository implements CampaignRepository using GORM
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewGormCampaignRepository creates a new GormCampaignRepository
func NewGormCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

// FindByID finds a campaign by its ID
func (r *GormCampaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketing.Campaign, error) {
	var model models.CampaignModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, campaignEntity)
	}
	return model.ToDomain(), nil
}

// FindAll finds campaigns matching the filter
func (r *GormCampaignRepository) FindAll(ctx context.Context, filter shared.Filter) ([]marketing.Campaign, error) {
	query := r.applyFilters(r.db.WithContext(ctx).Model(&models.CampaignModel{}), filter)
	query = applySortAndPage(query, filter, CampaignSortFields, "created_at")

	var rows []models.CampaignModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError(err, campaignEntity)
	}
	campaigns := make([]marketing.Campaign, len(rows))
	for i := range rows {
		campaigns[i] = *rows[i].ToDomain()
	}
	return campaigns, nil
}

// Save creates or updates a campaign
func (r *GormCampaignRepository) Save(ctx context.Context, campaign *marketing.Campaign) error {
	model := models.CampaignModelFromDomain(campaign)
	return translateError(r.db.WithContext(ctx).Save(model).Error, campaignEntity)
}

// Delete deletes a campaign
func (r *GormCampaignRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CampaignModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, campaignEntity)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(campaignEntity)
	}
	return nil
}

// Count counts campaigns matching the filter
func (r *GormCampaignRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilters(r.db.WithContext(ctx).Model(&models.CampaignModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError(err, campaignEntity)
	}
	return count, nil
}

func (r *GormCampaignRepository) applyFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+search+"%")
	}
	if v, ok := filter.Filters["status"].(marketing.CampaignStatus); ok && v != "" {
		query = query.Where("status = ?", v)
	}
	return query
}

// Ensure GormCampaignRepository implements CampaignRepository
var _ marketing.CampaignRepository = (*GormCampaignRepository)(nil)
