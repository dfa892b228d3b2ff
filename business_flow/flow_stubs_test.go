package businessflow

import (
	"context"
	"sync"
	"time"

	"github.com/dealerdrive/adpilot/models"
)

// stubCustomerRepo serves fixed customers keyed by id
type stubCustomerRepo struct {
	customers map[uint]*models.Customer
	err       error
}

func (r *stubCustomerRepo) ByID(ctx context.Context, id uint) (*models.Customer, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.customers[id], nil
}

func (r *stubCustomerRepo) ByFilter(ctx context.Context, filter models.CustomerFilter, orderBy string, limit, offset int) ([]*models.Customer, error) {
	return nil, nil
}
func (r *stubCustomerRepo) Save(ctx context.Context, entity *models.Customer) error        { return nil }
func (r *stubCustomerRepo) SaveBatch(ctx context.Context, entities []*models.Customer) error {
	return nil
}
func (r *stubCustomerRepo) Count(ctx context.Context, filter models.CustomerFilter) (int64, error) {
	return 0, nil
}
func (r *stubCustomerRepo) ByUUID(ctx context.Context, uuid string) (*models.Customer, error) {
	return nil, nil
}

// stubRegistryRepo serves one registry row per (customer, account) and records
// SetActiveCampaign calls
type stubRegistryRepo struct {
	mu             sync.Mutex
	registries     []*models.CampaignRegistry
	storedCampaign map[uint]string
	err            error
}

func newStubRegistryRepo(registries ...*models.CampaignRegistry) *stubRegistryRepo {
	return &stubRegistryRepo{
		registries:     registries,
		storedCampaign: make(map[uint]string),
	}
}

func (r *stubRegistryRepo) ByID(ctx context.Context, id uint) (*models.CampaignRegistry, error) {
	for _, reg := range r.registries {
		if reg.ID == id {
			return reg, nil
		}
	}
	return nil, nil
}

func (r *stubRegistryRepo) ByFilter(ctx context.Context, filter models.CampaignRegistryFilter, orderBy string, limit, offset int) ([]*models.CampaignRegistry, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.registries, nil
}

func (r *stubRegistryRepo) Save(ctx context.Context, entity *models.CampaignRegistry) error {
	return nil
}
func (r *stubRegistryRepo) SaveBatch(ctx context.Context, entities []*models.CampaignRegistry) error {
	return nil
}
func (r *stubRegistryRepo) Count(ctx context.Context, filter models.CampaignRegistryFilter) (int64, error) {
	return int64(len(r.registries)), nil
}

func (r *stubRegistryRepo) ByCustomerAndAccount(ctx context.Context, customerID uint, adAccountID string) (*models.CampaignRegistry, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, reg := range r.registries {
		if reg.CustomerID == customerID && reg.AdAccountID == adAccountID {
			return reg, nil
		}
	}
	return nil, nil
}

func (r *stubRegistryRepo) SetActiveCampaign(ctx context.Context, id uint, campaignID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storedCampaign[id] = campaignID
	for _, reg := range r.registries {
		if reg.ID == id {
			reg.ActiveCampaignID = &campaignID
		}
	}
	return nil
}

// stubVehicleRepo serves a fixed active pool per customer
type stubVehicleRepo struct {
	pools map[uint][]*models.Vehicle
	err   error
}

func (r *stubVehicleRepo) ByID(ctx context.Context, id uint) (*models.Vehicle, error) {
	return nil, nil
}
func (r *stubVehicleRepo) ByFilter(ctx context.Context, filter models.VehicleFilter, orderBy string, limit, offset int) ([]*models.Vehicle, error) {
	return nil, nil
}
func (r *stubVehicleRepo) Save(ctx context.Context, entity *models.Vehicle) error        { return nil }
func (r *stubVehicleRepo) SaveBatch(ctx context.Context, entities []*models.Vehicle) error {
	return nil
}
func (r *stubVehicleRepo) Count(ctx context.Context, filter models.VehicleFilter) (int64, error) {
	return 0, nil
}

func (r *stubVehicleRepo) ListActivePool(ctx context.Context, customerID uint) ([]*models.Vehicle, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.pools[customerID], nil
}

func (r *stubVehicleRepo) ByStockNumber(ctx context.Context, customerID uint, stockNumber string) (*models.Vehicle, error) {
	for _, v := range r.pools[customerID] {
		if v.StockNumber == stockNumber {
			return v, nil
		}
	}
	return nil, nil
}

// stubActivityRepo records upserts in memory
type stubActivityRepo struct {
	upserts []*models.ActivityRecord
	records []*models.ActivityRecord
	err     error
}

func (r *stubActivityRepo) ByID(ctx context.Context, id uint) (*models.ActivityRecord, error) {
	return nil, nil
}
func (r *stubActivityRepo) ByFilter(ctx context.Context, filter models.ActivityRecordFilter, orderBy string, limit, offset int) ([]*models.ActivityRecord, error) {
	return r.records, nil
}
func (r *stubActivityRepo) Save(ctx context.Context, entity *models.ActivityRecord) error {
	return nil
}
func (r *stubActivityRepo) SaveBatch(ctx context.Context, entities []*models.ActivityRecord) error {
	return nil
}
func (r *stubActivityRepo) Count(ctx context.Context, filter models.ActivityRecordFilter) (int64, error) {
	return int64(len(r.records)), nil
}

func (r *stubActivityRepo) ByDate(ctx context.Context, date time.Time) (*models.ActivityRecord, error) {
	for _, rec := range r.records {
		if rec.RecordDate.Equal(date) {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *stubActivityRepo) UpsertForDate(ctx context.Context, record *models.ActivityRecord) error {
	if r.err != nil {
		return r.err
	}
	r.upserts = append(r.upserts, record)
	return nil
}

func (r *stubActivityRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]*models.ActivityRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.records, nil
}

// stubCredentialService hands out a fixed token and integration
type stubCredentialService struct {
	token       string
	integration *models.Integration
	err         error
}

func (s *stubCredentialService) GetToken(ctx context.Context, customerID uint, provider models.IntegrationProvider) (string, *models.Integration, error) {
	if s.err != nil {
		return "", nil, s.err
	}
	return s.token, s.integration, nil
}
