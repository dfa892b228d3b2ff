package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerdrive/adpilot/app/services"
	businessflow "github.com/dealerdrive/adpilot/business_flow"
	"github.com/dealerdrive/adpilot/config"
	"github.com/dealerdrive/adpilot/models"
)

func TestRotationWindow_WindowClampsToPool(t *testing.T) {
	window := rotationWindow(3, 10, 0)
	assert.Equal(t, []int{0, 1, 2}, window)
}

func TestRotationWindow_EmptyPool(t *testing.T) {
	assert.Nil(t, rotationWindow(0, 10, 5))
}

func TestRotationWindow_AdvancesFullWindowPerTick(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, rotationWindow(10, 3, 0))
	assert.Equal(t, []int{3, 4, 5}, rotationWindow(10, 3, 1))
	assert.Equal(t, []int{6, 7, 8}, rotationWindow(10, 3, 2))
	// Wraps past the end of the pool
	assert.Equal(t, []int{9, 0, 1}, rotationWindow(10, 3, 3))
}

func TestRotationWindow_NegativeTickWraps(t *testing.T) {
	window := rotationWindow(10, 3, -1)
	require.Len(t, window, 3)
	for _, idx := range window {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 10)
	}
}

func TestRotationWindow_CoversWholePool(t *testing.T) {
	// k consecutive ticks cover any pool of size <= windowSize*k
	cases := []struct {
		poolSize   int
		windowSize int
	}{
		{100, 10},
		{95, 10},
		{7, 3},
		{12, 5},
		{1, 10},
	}
	for _, tc := range cases {
		ticks := (tc.poolSize + tc.windowSize - 1) / tc.windowSize
		seen := make(map[int]bool)
		for k := 0; k < ticks; k++ {
			for _, idx := range rotationWindow(tc.poolSize, tc.windowSize, int64(k)) {
				seen[idx] = true
			}
		}
		assert.Len(t, seen, tc.poolSize,
			"pool=%d window=%d ticks=%d should cover every index", tc.poolSize, tc.windowSize, ticks)
	}
}

// scriptedFlow returns canned results per stock number and records call order
type scriptedFlow struct {
	results map[string]*businessflow.OrchestrationResult
	calls   []string
}

func (f *scriptedFlow) OrchestrateCampaign(ctx context.Context, req *businessflow.CampaignRequest, metadata *businessflow.ClientMetadata) *businessflow.OrchestrationResult {
	stock := ""
	if req.Vehicle != nil {
		stock = req.Vehicle.StockNumber
	}
	f.calls = append(f.calls, stock)
	if r, ok := f.results[stock]; ok {
		return r
	}
	return &businessflow.OrchestrationResult{
		Success: true,
		Resources: []businessflow.RemoteResource{
			{Kind: "campaign", PlatformID: "12012", Status: "PAUSED"},
			{Kind: "adset", PlatformID: "34034", Status: "PAUSED"},
			{Kind: "ad", PlatformID: "56056", Status: "PAUSED"},
		},
	}
}

type schedRegistryRepo struct {
	registries []*models.CampaignRegistry
}

func (r *schedRegistryRepo) ByID(ctx context.Context, id uint) (*models.CampaignRegistry, error) {
	return nil, nil
}
func (r *schedRegistryRepo) ByFilter(ctx context.Context, filter models.CampaignRegistryFilter, orderBy string, limit, offset int) ([]*models.CampaignRegistry, error) {
	return r.registries, nil
}
func (r *schedRegistryRepo) Save(ctx context.Context, entity *models.CampaignRegistry) error {
	return nil
}
func (r *schedRegistryRepo) SaveBatch(ctx context.Context, entities []*models.CampaignRegistry) error {
	return nil
}
func (r *schedRegistryRepo) Count(ctx context.Context, filter models.CampaignRegistryFilter) (int64, error) {
	return int64(len(r.registries)), nil
}
func (r *schedRegistryRepo) ByCustomerAndAccount(ctx context.Context, customerID uint, adAccountID string) (*models.CampaignRegistry, error) {
	return nil, nil
}
func (r *schedRegistryRepo) SetActiveCampaign(ctx context.Context, id uint, campaignID string) error {
	return nil
}

type schedVehicleRepo struct {
	pools map[uint][]*models.Vehicle
}

func (r *schedVehicleRepo) ByID(ctx context.Context, id uint) (*models.Vehicle, error) {
	return nil, nil
}
func (r *schedVehicleRepo) ByFilter(ctx context.Context, filter models.VehicleFilter, orderBy string, limit, offset int) ([]*models.Vehicle, error) {
	return nil, nil
}
func (r *schedVehicleRepo) Save(ctx context.Context, entity *models.Vehicle) error { return nil }
func (r *schedVehicleRepo) SaveBatch(ctx context.Context, entities []*models.Vehicle) error {
	return nil
}
func (r *schedVehicleRepo) Count(ctx context.Context, filter models.VehicleFilter) (int64, error) {
	return 0, nil
}
func (r *schedVehicleRepo) ListActivePool(ctx context.Context, customerID uint) ([]*models.Vehicle, error) {
	return r.pools[customerID], nil
}
func (r *schedVehicleRepo) ByStockNumber(ctx context.Context, customerID uint, stockNumber string) (*models.Vehicle, error) {
	return nil, nil
}

type schedCredentials struct {
	token string
	err   error
}

func (s *schedCredentials) GetToken(ctx context.Context, customerID uint, provider models.IntegrationProvider) (string, *models.Integration, error) {
	if s.err != nil {
		return "", nil, s.err
	}
	return s.token, &models.Integration{CustomerID: customerID, Active: true}, nil
}

type recordedBatch struct {
	batchID      string
	successCount int
	errorCount   int
	payload      any
}

type schedRecorder struct {
	batches []recordedBatch
}

func (r *schedRecorder) Record(ctx context.Context, batchID string, successCount, errorCount int, payload any) {
	r.batches = append(r.batches, recordedBatch{batchID, successCount, errorCount, payload})
}

func testRotationConfig() config.RotationConfig {
	return config.RotationConfig{
		Interval:       6 * time.Hour,
		WindowSize:     2,
		PaceRPS:        10000,
		Cooldown:       time.Millisecond,
		BudgetCents:    30000,
		DurationDays:   14,
		InsightsPreset: "last_7d",
	}
}

func pool(stockNumbers ...string) []*models.Vehicle {
	out := make([]*models.Vehicle, 0, len(stockNumbers))
	for i, sn := range stockNumbers {
		out = append(out, &models.Vehicle{
			ID:          uint(i + 1),
			CustomerID:  1,
			Year:        2023,
			Make:        "Ford",
			Model:       "F-150",
			StockNumber: sn,
			Category:    models.VehicleCategoryTruck,
			Active:      true,
		})
	}
	return out
}

func TestRunCycle_ProcessesWindowAndRecordsBatch(t *testing.T) {
	flow := &scriptedFlow{results: map[string]*businessflow.OrchestrationResult{}}
	recorder := &schedRecorder{}
	mock := services.NewMockAdsPlatformClient()

	s := NewRotationScheduler(
		&schedRegistryRepo{registries: []*models.CampaignRegistry{
			{ID: 10, CustomerID: 1, AdAccountID: "123456", CreativeID: "777"},
		}},
		&schedVehicleRepo{pools: map[uint][]*models.Vehicle{1: pool("STK001", "STK002", "STK003")}},
		flow,
		&schedCredentials{token: "tok"},
		mock,
		recorder,
		nil,
		testRotationConfig(),
	)

	report, err := s.RunCycle(context.Background(), 0)
	require.NoError(t, err)

	// Window size 2 at tick 0 covers the first two pool entries
	assert.Equal(t, []string{"STK001", "STK002"}, flow.calls)
	assert.Equal(t, 2, report.SuccessCount)
	assert.Equal(t, 0, report.ErrorCount)
	assert.Len(t, report.Resources, 6)
	assert.NotEmpty(t, report.BatchID)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	// Batch outcome lands in the activity recorder
	require.Len(t, recorder.batches, 1)
	assert.Equal(t, report.BatchID, recorder.batches[0].batchID)
	assert.Equal(t, 2, recorder.batches[0].successCount)
}

func TestRunCycle_NextTickAdvancesWindow(t *testing.T) {
	flow := &scriptedFlow{results: map[string]*businessflow.OrchestrationResult{}}

	s := NewRotationScheduler(
		&schedRegistryRepo{registries: []*models.CampaignRegistry{
			{ID: 10, CustomerID: 1, AdAccountID: "123456", CreativeID: "777"},
		}},
		&schedVehicleRepo{pools: map[uint][]*models.Vehicle{1: pool("STK001", "STK002", "STK003")}},
		flow,
		&schedCredentials{token: "tok"},
		services.NewMockAdsPlatformClient(),
		&schedRecorder{},
		nil,
		testRotationConfig(),
	)

	_, err := s.RunCycle(context.Background(), 1)
	require.NoError(t, err)

	// Tick 1 starts a full window later and wraps
	assert.Equal(t, []string{"STK003", "STK001"}, flow.calls)
}

func TestRunCycle_TransientFailureRecordedWithStep(t *testing.T) {
	transientErr := &services.PlatformError{
		HTTPStatus: 400, Code: 17, Message: "User request limit reached", Endpoint: "act_123456/adsets",
	}
	flow := &scriptedFlow{results: map[string]*businessflow.OrchestrationResult{
		"STK001": {
			Success:    false,
			FailedStep: businessflow.StepAdSetCreation,
			Err:        transientErr,
		},
	}}
	recorder := &schedRecorder{}

	s := NewRotationScheduler(
		&schedRegistryRepo{registries: []*models.CampaignRegistry{
			{ID: 10, CustomerID: 1, AdAccountID: "123456", CreativeID: "777"},
		}},
		&schedVehicleRepo{pools: map[uint][]*models.Vehicle{1: pool("STK001", "STK002")}},
		flow,
		&schedCredentials{token: "tok"},
		services.NewMockAdsPlatformClient(),
		recorder,
		nil,
		testRotationConfig(),
	)

	report, err := s.RunCycle(context.Background(), 0)
	require.NoError(t, err)

	// The failed vehicle is reported and the cycle moves on after the cooldown
	assert.Equal(t, []string{"STK001", "STK002"}, flow.calls)
	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, 1, report.ErrorCount)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, "STK001", report.Errors[0].StockNumber)
	assert.Equal(t, "ad_set_creation", report.Errors[0].Step)
	assert.True(t, report.Errors[0].Transient)
	assert.Contains(t, report.Errors[0].Message, "User request limit reached")
}

func TestRunCycle_EmptyPoolSkipsAccount(t *testing.T) {
	flow := &scriptedFlow{results: map[string]*businessflow.OrchestrationResult{}}

	s := NewRotationScheduler(
		&schedRegistryRepo{registries: []*models.CampaignRegistry{
			{ID: 10, CustomerID: 1, AdAccountID: "123456", CreativeID: "777"},
		}},
		&schedVehicleRepo{pools: map[uint][]*models.Vehicle{}},
		flow,
		&schedCredentials{token: "tok"},
		services.NewMockAdsPlatformClient(),
		&schedRecorder{},
		nil,
		testRotationConfig(),
	)

	report, err := s.RunCycle(context.Background(), 0)
	require.NoError(t, err)

	assert.Empty(t, flow.calls)
	assert.Equal(t, 0, report.SuccessCount)
	assert.Equal(t, 0, report.ErrorCount)
}

func TestRunCycle_CollectsInsightsForActiveCampaigns(t *testing.T) {
	campaignID := "12012"
	mock := services.NewMockAdsPlatformClient()
	mock.InsightsResult = &services.InsightsResult{
		Impressions: "4821", Clicks: "97", Spend: "132.50", Reach: "3540",
	}

	s := NewRotationScheduler(
		&schedRegistryRepo{registries: []*models.CampaignRegistry{
			{ID: 10, CustomerID: 1, AdAccountID: "123456", CreativeID: "777", ActiveCampaignID: &campaignID},
			{ID: 11, CustomerID: 2, AdAccountID: "654321", CreativeID: "888"},
		}},
		&schedVehicleRepo{pools: map[uint][]*models.Vehicle{}},
		&scriptedFlow{results: map[string]*businessflow.OrchestrationResult{}},
		&schedCredentials{token: "tok"},
		mock,
		&schedRecorder{},
		nil,
		testRotationConfig(),
	)

	report, err := s.RunCycle(context.Background(), 0)
	require.NoError(t, err)

	// Only the account with a registered campaign produces an insights row
	require.Len(t, report.Insights, 1)
	assert.Equal(t, campaignID, report.Insights[0].CampaignID)
	assert.Equal(t, "4821", report.Insights[0].Impressions)
	assert.Equal(t, "132.50", report.Insights[0].Spend)
}

func TestRunCycle_InsightsFailureDoesNotFailCycle(t *testing.T) {
	campaignID := "12012"
	mock := services.NewMockAdsPlatformClient()
	mock.Errs["insights"] = &services.PlatformError{HTTPStatus: 500, Code: 1, Message: "unknown", Endpoint: "12012/insights"}

	s := NewRotationScheduler(
		&schedRegistryRepo{registries: []*models.CampaignRegistry{
			{ID: 10, CustomerID: 1, AdAccountID: "123456", CreativeID: "777", ActiveCampaignID: &campaignID},
		}},
		&schedVehicleRepo{pools: map[uint][]*models.Vehicle{}},
		&scriptedFlow{results: map[string]*businessflow.OrchestrationResult{}},
		&schedCredentials{token: "tok"},
		mock,
		&schedRecorder{},
		nil,
		testRotationConfig(),
	)

	report, err := s.RunCycle(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, report.Insights)
}
