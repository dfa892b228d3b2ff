package repository

import (
	"context"
	"errors"

	"github.com/dealerdrive/adpilot/models"
	"gorm.io/gorm"
)

// IntegrationRepositoryImpl implements IntegrationRepository
type IntegrationRepositoryImpl struct {
	*BaseRepository[models.Integration, models.IntegrationFilter]
}

func NewIntegrationRepository(db *gorm.DB) IntegrationRepository {
	return &IntegrationRepositoryImpl{BaseRepository: NewBaseRepository[models.Integration, models.IntegrationFilter](db)}
}

func (r *IntegrationRepositoryImpl) ByCustomerAndProvider(ctx context.Context, customerID uint, provider models.IntegrationProvider) (*models.Integration, error) {
	db := r.getDB(ctx)
	var row models.Integration
	if err := db.Where("customer_id = ? AND provider = ?", customerID, provider).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *IntegrationRepositoryImpl) applyFilter(db *gorm.DB, f models.IntegrationFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.CustomerID != nil {
		db = db.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Provider != nil {
		db = db.Where("provider = ?", *f.Provider)
	}
	if f.Active != nil {
		db = db.Where("active = ?", *f.Active)
	}
	return db
}

func (r *IntegrationRepositoryImpl) ByFilter(ctx context.Context, filter models.IntegrationFilter, orderBy string, limit, offset int) ([]*models.Integration, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Integration{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Integration
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *IntegrationRepositoryImpl) Count(ctx context.Context, filter models.IntegrationFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Integration{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
