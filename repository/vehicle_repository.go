package repository

import (
	"context"
	"errors"

	"github.com/dealerdrive/adpilot/models"
	"gorm.io/gorm"
)

// VehicleRepositoryImpl implements VehicleRepository
type VehicleRepositoryImpl struct {
	*BaseRepository[models.Vehicle, models.VehicleFilter]
}

func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &VehicleRepositoryImpl{BaseRepository: NewBaseRepository[models.Vehicle, models.VehicleFilter](db)}
}

// ListActivePool returns the active inventory in a stable order so the rotation
// window selection stays deterministic between cycles.
func (r *VehicleRepositoryImpl) ListActivePool(ctx context.Context, customerID uint) ([]*models.Vehicle, error) {
	active := true
	return r.ByFilter(ctx, models.VehicleFilter{CustomerID: &customerID, Active: &active}, "id ASC", 0, 0)
}

func (r *VehicleRepositoryImpl) ByStockNumber(ctx context.Context, customerID uint, stockNumber string) (*models.Vehicle, error) {
	db := r.getDB(ctx)
	var row models.Vehicle
	if err := db.Where("customer_id = ? AND stock_number = ?", customerID, stockNumber).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *VehicleRepositoryImpl) applyFilter(db *gorm.DB, f models.VehicleFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.CustomerID != nil {
		db = db.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Category != nil {
		db = db.Where("category = ?", *f.Category)
	}
	if f.StockNumber != nil {
		db = db.Where("stock_number = ?", *f.StockNumber)
	}
	if f.Active != nil {
		db = db.Where("active = ?", *f.Active)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *VehicleRepositoryImpl) ByFilter(ctx context.Context, filter models.VehicleFilter, orderBy string, limit, offset int) ([]*models.Vehicle, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Vehicle{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Vehicle
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *VehicleRepositoryImpl) Count(ctx context.Context, filter models.VehicleFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Vehicle{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
