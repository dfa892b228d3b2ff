package repository

import (
	"context"
	"errors"

	"github.com/dealerdrive/adpilot/models"
	"github.com/dealerdrive/adpilot/utils"
	"gorm.io/gorm"
)

// CampaignRegistryRepositoryImpl implements CampaignRegistryRepository
type CampaignRegistryRepositoryImpl struct {
	*BaseRepository[models.CampaignRegistry, models.CampaignRegistryFilter]
}

func NewCampaignRegistryRepository(db *gorm.DB) CampaignRegistryRepository {
	return &CampaignRegistryRepositoryImpl{BaseRepository: NewBaseRepository[models.CampaignRegistry, models.CampaignRegistryFilter](db)}
}

func (r *CampaignRegistryRepositoryImpl) ByCustomerAndAccount(ctx context.Context, customerID uint, adAccountID string) (*models.CampaignRegistry, error) {
	db := r.getDB(ctx)
	var row models.CampaignRegistry
	if err := db.Where("customer_id = ? AND ad_account_id = ?", customerID, adAccountID).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// SetActiveCampaign records the platform campaign id the rotation flow reuses for this account
func (r *CampaignRegistryRepositoryImpl) SetActiveCampaign(ctx context.Context, id uint, campaignID string) error {
	db := r.getDB(ctx)
	return db.Model(&models.CampaignRegistry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"active_campaign_id": campaignID,
			"updated_at":         utils.UTCNow(),
		}).Error
}

func (r *CampaignRegistryRepositoryImpl) applyFilter(db *gorm.DB, f models.CampaignRegistryFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.CustomerID != nil {
		db = db.Where("customer_id = ?", *f.CustomerID)
	}
	if f.AdAccountID != nil {
		db = db.Where("ad_account_id = ?", *f.AdAccountID)
	}
	return db
}

func (r *CampaignRegistryRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignRegistryFilter, orderBy string, limit, offset int) ([]*models.CampaignRegistry, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CampaignRegistry{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.CampaignRegistry
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CampaignRegistryRepositoryImpl) Count(ctx context.Context, filter models.CampaignRegistryFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CampaignRegistry{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
