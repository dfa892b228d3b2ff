// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/dealerdrive/adpilot/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
}

// CustomerRepository defines operations for dealership accounts
type CustomerRepository interface {
	Repository[models.Customer, models.CustomerFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Customer, error)
}

// VehicleRepository defines operations for the inventory pool
type VehicleRepository interface {
	Repository[models.Vehicle, models.VehicleFilter]
	ListActivePool(ctx context.Context, customerID uint) ([]*models.Vehicle, error)
	ByStockNumber(ctx context.Context, customerID uint, stockNumber string) (*models.Vehicle, error)
}

// IntegrationRepository defines operations for stored platform connections
type IntegrationRepository interface {
	Repository[models.Integration, models.IntegrationFilter]
	ByCustomerAndProvider(ctx context.Context, customerID uint, provider models.IntegrationProvider) (*models.Integration, error)
}

// CampaignRegistryRepository defines operations for the per-account campaign registry
type CampaignRegistryRepository interface {
	Repository[models.CampaignRegistry, models.CampaignRegistryFilter]
	ByCustomerAndAccount(ctx context.Context, customerID uint, adAccountID string) (*models.CampaignRegistry, error)
	SetActiveCampaign(ctx context.Context, id uint, campaignID string) error
}

// ActivityRecordRepository defines operations for the per-date activity aggregate
type ActivityRecordRepository interface {
	Repository[models.ActivityRecord, models.ActivityRecordFilter]
	ByDate(ctx context.Context, date time.Time) (*models.ActivityRecord, error)
	UpsertForDate(ctx context.Context, record *models.ActivityRecord) error
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*models.ActivityRecord, error)
}
