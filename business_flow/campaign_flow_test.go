package businessflow

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerdrive/adpilot/app/services"
	"github.com/dealerdrive/adpilot/models"
	"github.com/dealerdrive/adpilot/utils"
)

type flowFixture struct {
	flow     CampaignFlow
	mock     *services.MockAdsPlatformClient
	registry *stubRegistryRepo
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	mock := services.NewMockAdsPlatformClient()

	customerRepo := &stubCustomerRepo{customers: map[uint]*models.Customer{
		1: {ID: 1, DealershipName: "Test Motors", IsActive: utils.ToPtr(true)},
		2: {ID: 2, DealershipName: "Closed Motors", IsActive: utils.ToPtr(false)},
	}}

	registryRepo := newStubRegistryRepo(&models.CampaignRegistry{
		ID:          10,
		CustomerID:  1,
		AdAccountID: "123456",
		CreativeID:  "777",
	})

	credentials := &stubCredentialService{
		token: "test-token",
		integration: &models.Integration{
			CustomerID:  1,
			Provider:    models.IntegrationProviderMeta,
			AdAccountID: "123456",
			PageID:      "998",
			Active:      true,
		},
	}

	flow := NewCampaignFlow(
		customerRepo,
		registryRepo,
		credentials,
		NewTargetingResolver(mock, nil, "", nil),
		NewBudgetPlanner(100),
		mock,
		services.RetryPolicy{MaxAttempts: 1},
		nil,
	)

	return &flowFixture{flow: flow, mock: mock, registry: registryRepo}
}

func validRequest() *CampaignRequest {
	return &CampaignRequest{
		CustomerID:   1,
		AdAccountID:  "123456",
		CampaignName: "Inventory Rotation act_123456",
		AdSetName:    "2023 Ford F-150 XLT [STK001]",
		AdName:       "2023 Ford F-150 XLT [STK001]",
		BudgetCents:  30000,
		DurationDays: 14,
		Targeting: TargetingSpec{
			Locations: []LocationTerm{{Type: "state", Name: "Wisconsin"}},
		},
	}
}

func TestOrchestrateCampaign_FullSuccess(t *testing.T) {
	f := newFlowFixture(t)

	result := f.flow.OrchestrateCampaign(context.Background(), validRequest(), NewClientMetadata("127.0.0.1", "test"))

	require.True(t, result.Success, "orchestration should succeed: %v", result.Err)
	require.Len(t, result.Resources, 3)
	assert.Equal(t, "campaign", result.Resources[0].Kind)
	assert.Equal(t, "adset", result.Resources[1].Kind)
	assert.Equal(t, "ad", result.Resources[2].Kind)
	for _, res := range result.Resources {
		assert.Equal(t, "PAUSED", res.Status)
		assert.NotEmpty(t, res.PlatformID)
	}

	// Platform calls run strictly in dependency order
	assert.Equal(t, []string{"create_campaign", "create_adset", "create_ad"}, f.mock.CallNames())

	// Progress narrative covers every step in order
	steps := make([]string, 0, len(result.Progress.Entries))
	for _, e := range result.Progress.Entries {
		assert.True(t, e.Success)
		steps = append(steps, e.Step)
	}
	assert.Equal(t, []string{
		StepValidation, StepCredential, StepTargeting, StepBudget,
		StepEnsureCampaign, StepAdSetCreation, StepAdCreation,
	}, steps)
}

func TestOrchestrateCampaign_AdSetReferencesCreatedCampaign(t *testing.T) {
	f := newFlowFixture(t)

	result := f.flow.OrchestrateCampaign(context.Background(), validRequest(), nil)
	require.True(t, result.Success)

	require.Len(t, f.mock.CreatedAdSets, 1)
	assert.Equal(t, result.ResourceID("campaign"), f.mock.CreatedAdSets[0].CampaignID)
	assert.Equal(t, int64(2143), f.mock.CreatedAdSets[0].DailyBudgetCents)
	assert.Equal(t, "IMPRESSIONS", f.mock.CreatedAdSets[0].BillingEvent)
	assert.Equal(t, "PAUSED", f.mock.CreatedAdSets[0].Status)

	require.Len(t, f.mock.CreatedAds, 1)
	assert.Equal(t, result.ResourceID("adset"), f.mock.CreatedAds[0].AdSetID)
	assert.Equal(t, "777", f.mock.CreatedAds[0].CreativeID)
}

func TestOrchestrateCampaign_ReusesRegisteredCampaign(t *testing.T) {
	f := newFlowFixture(t)

	first := f.flow.OrchestrateCampaign(context.Background(), validRequest(), nil)
	require.True(t, first.Success)
	campaignID := first.ResourceID("campaign")
	require.NotEmpty(t, campaignID)
	assert.Equal(t, campaignID, f.registry.storedCampaign[10])

	second := f.flow.OrchestrateCampaign(context.Background(), validRequest(), nil)
	require.True(t, second.Success)

	// The registered campaign is confirmed with a read and reused, never recreated
	assert.Equal(t, campaignID, second.ResourceID("campaign"))
	names := f.mock.CallNames()
	creates := 0
	for _, n := range names {
		if n == "create_campaign" {
			creates++
		}
	}
	assert.Equal(t, 1, creates)
	assert.Contains(t, names, "get_campaign")
}

func TestOrchestrateCampaign_ArchivedCampaignIsFatal(t *testing.T) {
	f := newFlowFixture(t)

	archived := "555"
	f.mock.Campaigns[archived] = &services.RemoteCampaign{
		ID: archived, Name: "old", Status: "ACTIVE", EffectiveStatus: "ARCHIVED",
	}
	f.registry.registries[0].ActiveCampaignID = &archived

	result := f.flow.OrchestrateCampaign(context.Background(), validRequest(), nil)

	require.False(t, result.Success)
	assert.Equal(t, StepEnsureCampaign, result.FailedStep)
	assert.ErrorIs(t, result.Err, ErrCampaignArchived)
	// An archived campaign id is never retried with a create
	assert.NotContains(t, f.mock.CallNames(), "create_campaign")
}

func TestOrchestrateCampaign_MissingRemoteCampaignRecreated(t *testing.T) {
	f := newFlowFixture(t)

	gone := "404404"
	f.registry.registries[0].ActiveCampaignID = &gone

	result := f.flow.OrchestrateCampaign(context.Background(), validRequest(), nil)

	require.True(t, result.Success, "missing remote campaign should be recreated: %v", result.Err)
	assert.NotEqual(t, gone, result.ResourceID("campaign"))
	assert.Contains(t, f.mock.CallNames(), "create_campaign")
}

func TestOrchestrateCampaign_AdSetFailureStopsBeforeAd(t *testing.T) {
	f := newFlowFixture(t)

	f.mock.Errs["create_adset"] = &services.PlatformError{
		HTTPStatus: 400, Code: 613, Message: "Calls to this api have exceeded the rate limit.", Endpoint: "act_123456/adsets",
	}

	result := f.flow.OrchestrateCampaign(context.Background(), validRequest(), nil)

	require.False(t, result.Success)
	assert.Equal(t, StepAdSetCreation, result.FailedStep)
	assert.True(t, services.IsTransientPlatformError(result.Err))

	// An ad is never created against an ad set that does not exist
	assert.NotContains(t, f.mock.CallNames(), "create_ad")
	assert.Empty(t, f.mock.CreatedAds)

	// The campaign created before the failure is still reported
	assert.NotEmpty(t, result.ResourceID("campaign"))
}

func TestOrchestrateCampaign_ValidationFailures(t *testing.T) {
	f := newFlowFixture(t)

	tests := []struct {
		name    string
		mutate  func(*CampaignRequest)
		wantErr error
	}{
		{"empty campaign name", func(r *CampaignRequest) { r.CampaignName = "  " }, ErrCampaignNameRequired},
		{"empty ad set name", func(r *CampaignRequest) { r.AdSetName = "" }, ErrAdSetNameRequired},
		{"empty ad name", func(r *CampaignRequest) { r.AdName = "" }, ErrAdNameRequired},
		{"zero budget", func(r *CampaignRequest) { r.BudgetCents = 0 }, ErrBudgetNotPositive},
		{"zero duration", func(r *CampaignRequest) { r.DurationDays = 0 }, ErrDurationNotPositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			result := f.flow.OrchestrateCampaign(context.Background(), req, nil)
			require.False(t, result.Success)
			assert.Equal(t, StepValidation, result.FailedStep)
			assert.ErrorIs(t, result.Err, tt.wantErr)
			assert.True(t, IsValidationError(result.Err))
		})
	}
}

func TestOrchestrateCampaign_UnknownCustomer(t *testing.T) {
	f := newFlowFixture(t)

	req := validRequest()
	req.CustomerID = 42

	result := f.flow.OrchestrateCampaign(context.Background(), req, nil)
	require.False(t, result.Success)
	assert.Equal(t, StepValidation, result.FailedStep)
	assert.ErrorIs(t, result.Err, ErrCustomerNotFound)
}

func TestOrchestrateCampaign_InactiveCustomer(t *testing.T) {
	f := newFlowFixture(t)

	req := validRequest()
	req.CustomerID = 2

	result := f.flow.OrchestrateCampaign(context.Background(), req, nil)
	require.False(t, result.Success)
	assert.ErrorIs(t, result.Err, ErrAccountInactive)
}

func TestOrchestrateCampaign_NoRegistryEntry(t *testing.T) {
	f := newFlowFixture(t)

	req := validRequest()
	req.AdAccountID = "does-not-exist"

	result := f.flow.OrchestrateCampaign(context.Background(), req, nil)
	require.False(t, result.Success)
	assert.Equal(t, StepEnsureCampaign, result.FailedStep)
	assert.ErrorIs(t, result.Err, ErrRegistryNotFound)
}

func TestOrchestrateCampaign_BudgetFloorFailsBeforePlatformCalls(t *testing.T) {
	f := newFlowFixture(t)

	req := validRequest()
	req.BudgetCents = 500 // 36 cents per day over 14 days

	result := f.flow.OrchestrateCampaign(context.Background(), req, nil)
	require.False(t, result.Success)
	assert.Equal(t, StepBudget, result.FailedStep)
	assert.ErrorIs(t, result.Err, ErrDailyBudgetBelowFloor)
	assert.Empty(t, f.mock.CallNames())
}

func TestOrchestrateCampaign_VehicleCategoryAddsInterest(t *testing.T) {
	f := newFlowFixture(t)

	req := validRequest()
	req.Vehicle = &models.Vehicle{
		CustomerID:  1,
		Year:        2023,
		Make:        "Ford",
		Model:       "F-150",
		StockNumber: "STK001",
		Category:    models.VehicleCategoryTruck,
	}

	result := f.flow.OrchestrateCampaign(context.Background(), req, nil)
	require.True(t, result.Success)

	require.Len(t, f.mock.CreatedAdSets, 1)
	interests := f.mock.CreatedAdSets[0].Targeting.Interests
	require.Len(t, interests, 1)
	assert.Equal(t, CategoryInterests[models.VehicleCategoryTruck].ID, interests[0].ID)
}

func TestOrchestrateCampaign_ConcurrentRequestsKeepSeparateProgress(t *testing.T) {
	f := newFlowFixture(t)

	// Warm up the registry so concurrent requests reuse one campaign id
	warmup := f.flow.OrchestrateCampaign(context.Background(), validRequest(), nil)
	require.True(t, warmup.Success)

	const workers = 8
	results := make([]*OrchestrationResult, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.flow.OrchestrateCampaign(context.Background(), validRequest(), nil)
		}(i)
	}
	wg.Wait()

	for i, result := range results {
		require.True(t, result.Success, "request %d failed: %v", i, result.Err)
		assert.Len(t, result.Resources, 3)
		assert.Len(t, result.Progress.Entries, 7)
	}
}
