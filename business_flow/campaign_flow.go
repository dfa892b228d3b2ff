package businessflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/dealerdrive/adpilot/app/services"
	"github.com/dealerdrive/adpilot/models"
	"github.com/dealerdrive/adpilot/repository"
)

// Fixed ad-set delivery configuration. Every rotation ad set bills on impressions,
// bids lowest-cost, optimizes for conversions, and starts paused so nothing spends
// before human review.
const (
	adSetBillingEvent     = "IMPRESSIONS"
	adSetOptimizationGoal = "OFFSITE_CONVERSIONS"
	adSetBidStrategy      = "LOWEST_COST_WITHOUT_CAP"
	campaignObjective     = "OUTCOME_SALES"
	createdResourceStatus = "PAUSED"
)

// CampaignFlow runs the dependent-resource creation sequence for one request:
// EnsureCampaign, CreateAdSet, CreateAd. It always returns a structured result with
// the step narrative; errors never escape as faults.
type CampaignFlow interface {
	OrchestrateCampaign(ctx context.Context, req *CampaignRequest, metadata *ClientMetadata) *OrchestrationResult
}

// CampaignFlowImpl implements the campaign orchestration flow
type CampaignFlowImpl struct {
	customerRepo  repository.CustomerRepository
	registryRepo  repository.CampaignRegistryRepository
	credentialSvc services.CredentialService
	resolver      TargetingResolver
	planner       BudgetPlanner
	client        services.AdsPlatformClient
	retryPolicy   services.RetryPolicy
	logger        *log.Logger
}

// NewCampaignFlow creates a new campaign flow instance
func NewCampaignFlow(
	customerRepo repository.CustomerRepository,
	registryRepo repository.CampaignRegistryRepository,
	credentialSvc services.CredentialService,
	resolver TargetingResolver,
	planner BudgetPlanner,
	client services.AdsPlatformClient,
	retryPolicy services.RetryPolicy,
	logger *log.Logger,
) CampaignFlow {
	if logger == nil {
		logger = log.Default()
	}
	return &CampaignFlowImpl{
		customerRepo:  customerRepo,
		registryRepo:  registryRepo,
		credentialSvc: credentialSvc,
		resolver:      resolver,
		planner:       planner,
		client:        client,
		retryPolicy:   retryPolicy,
		logger:        logger,
	}
}

// OrchestrateCampaign executes the full state machine for one CampaignRequest.
// Steps run strictly in order; each create consumes the confirmed id of the previous
// step, so an ad can never reference an ad set that was not created.
func (s *CampaignFlowImpl) OrchestrateCampaign(ctx context.Context, req *CampaignRequest, metadata *ClientMetadata) *OrchestrationResult {
	result := &OrchestrationResult{}

	fail := func(step string, err error) *OrchestrationResult {
		result.Progress.Append(step, false, err.Error())
		result.FailedStep = step
		result.Err = err
		return result
	}

	// Validation
	if err := validateCampaignRequest(req); err != nil {
		return fail(StepValidation, err)
	}
	result.Progress.Append(StepValidation, true, "request validated")

	customer, err := s.customerRepo.ByID(ctx, req.CustomerID)
	if err != nil {
		return fail(StepValidation, fmt.Errorf("customer lookup failed: %w", err))
	}
	if customer == nil {
		return fail(StepValidation, ErrCustomerNotFound)
	}
	if customer.IsActive != nil && !*customer.IsActive {
		return fail(StepValidation, ErrAccountInactive)
	}

	// Credential
	token, integration, err := s.credentialSvc.GetToken(ctx, req.CustomerID, models.IntegrationProviderMeta)
	if err != nil {
		return fail(StepCredential, err)
	}
	if req.AdAccountID == "" {
		req.AdAccountID = integration.AdAccountID
	}
	if req.PageID == "" {
		req.PageID = integration.PageID
	}
	if req.AdAccountID == "" {
		return fail(StepCredential, ErrAdAccountRequired)
	}
	result.Progress.Append(StepCredential, true, "platform credential resolved")

	// Targeting resolution
	targeting, err := s.resolver.Resolve(ctx, req.Targeting, token)
	if err != nil {
		return fail(StepTargeting, err)
	}
	detail := fmt.Sprintf("%d locations, %d interests", len(targeting.Locations), len(targeting.Interests))
	if len(targeting.Warnings) > 0 {
		detail += "; " + strings.Join(targeting.Warnings, "; ")
	}
	result.Progress.Append(StepTargeting, true, detail)

	// Budget planning
	plan, err := s.planner.Plan(req.BudgetCents, req.DurationDays)
	if err != nil {
		return fail(StepBudget, err)
	}
	result.Progress.Append(StepBudget, true, fmt.Sprintf("daily budget %d cents over %d days", plan.DailyBudgetCents, plan.DurationDays))

	// EnsureCampaign
	registry, campaignID, err := s.ensureCampaign(ctx, req, token)
	if err != nil {
		return fail(StepEnsureCampaign, err)
	}
	result.Resources = append(result.Resources, RemoteResource{
		Kind: "campaign", PlatformID: campaignID, Name: req.CampaignName, Status: createdResourceStatus,
	})
	result.Progress.Append(StepEnsureCampaign, true, "campaign "+campaignID)

	// CreateAdSet
	adSetID, err := s.createAdSet(ctx, req, token, campaignID, targeting, plan)
	if err != nil {
		return fail(StepAdSetCreation, err)
	}
	result.Resources = append(result.Resources, RemoteResource{
		Kind: "adset", PlatformID: adSetID, Name: req.AdSetName, Status: createdResourceStatus,
	})
	result.Progress.Append(StepAdSetCreation, true, "ad set "+adSetID)

	// CreateAd
	adID, err := s.createAd(ctx, req, token, registry, adSetID)
	if err != nil {
		return fail(StepAdCreation, err)
	}
	result.Resources = append(result.Resources, RemoteResource{
		Kind: "ad", PlatformID: adID, Name: req.AdName, Status: createdResourceStatus,
	})
	result.Progress.Append(StepAdCreation, true, "ad "+adID)

	result.Success = true
	return result
}

// ensureCampaign returns the registry entry and the campaign id to build under.
// The steady-state rotation flow reuses one long-lived campaign per account so the
// platform's own delivery history accumulates against a single object. The id is
// always confirmed with a read; an archived campaign is fatal for this request and
// is never retried with the same id.
func (s *CampaignFlowImpl) ensureCampaign(ctx context.Context, req *CampaignRequest, token string) (*models.CampaignRegistry, string, error) {
	registry, err := s.registryRepo.ByCustomerAndAccount(ctx, req.CustomerID, req.AdAccountID)
	if err != nil {
		return nil, "", fmt.Errorf("registry lookup failed: %w", err)
	}
	if registry == nil {
		return nil, "", ErrRegistryNotFound
	}
	if registry.CreativeID == "" {
		return nil, "", ErrCreativeNotSet
	}

	if registry.ActiveCampaignID != nil && *registry.ActiveCampaignID != "" {
		var remote *services.RemoteCampaign
		err := s.retryPolicy.Do(ctx, func() error {
			var callErr error
			remote, callErr = s.client.GetCampaign(ctx, token, *registry.ActiveCampaignID)
			return callErr
		})
		switch {
		case err == nil && remote.Archived():
			return nil, "", ErrCampaignArchived
		case err == nil:
			return registry, remote.ID, nil
		default:
			if pe, ok := services.AsPlatformError(err); !ok || pe.HTTPStatus != 404 {
				return nil, "", err
			}
			// Registered campaign no longer exists remotely; fall through and recreate
			s.logger.Printf("campaign: registered campaign %s missing on platform, creating a new one", *registry.ActiveCampaignID)
		}
	}

	campaignID, err := s.client.CreateCampaign(ctx, token, req.AdAccountID, services.CampaignCreateParams{
		Name:      req.CampaignName,
		Objective: campaignObjective,
		Status:    createdResourceStatus,
	})
	if err != nil {
		return nil, "", err
	}

	if err := s.registryRepo.SetActiveCampaign(ctx, registry.ID, campaignID); err != nil {
		// The remote campaign exists; losing the registry update is recoverable on
		// the next cycle, so log instead of failing the request
		s.logger.Printf("campaign: failed to store campaign id %s in registry: %v", campaignID, err)
	}
	return registry, campaignID, nil
}

func (s *CampaignFlowImpl) createAdSet(ctx context.Context, req *CampaignRequest, token, campaignID string, targeting *ResolvedTargeting, plan *BudgetPlan) (string, error) {
	payload := targeting.Payload()

	if req.Vehicle != nil {
		if ref, ok := CategoryInterests[req.Vehicle.Category]; ok {
			payload.Interests = append(payload.Interests, ref)
		}
	}

	return s.client.CreateAdSet(ctx, token, req.AdAccountID, services.AdSetCreateParams{
		Name:             req.AdSetName,
		CampaignID:       campaignID,
		DailyBudgetCents: plan.DailyBudgetCents,
		BillingEvent:     adSetBillingEvent,
		OptimizationGoal: adSetOptimizationGoal,
		BidStrategy:      adSetBidStrategy,
		Status:           createdResourceStatus,
		Targeting:        payload,
	})
}

func (s *CampaignFlowImpl) createAd(ctx context.Context, req *CampaignRequest, token string, registry *models.CampaignRegistry, adSetID string) (string, error) {
	return s.client.CreateAd(ctx, token, req.AdAccountID, services.AdCreateParams{
		Name:       req.AdName,
		AdSetID:    adSetID,
		CreativeID: registry.CreativeID,
		Status:     createdResourceStatus,
	})
}

func validateCampaignRequest(req *CampaignRequest) error {
	if req.CustomerID == 0 {
		return ErrCustomerNotFound
	}
	if strings.TrimSpace(req.CampaignName) == "" {
		return ErrCampaignNameRequired
	}
	if strings.TrimSpace(req.AdSetName) == "" {
		return ErrAdSetNameRequired
	}
	if strings.TrimSpace(req.AdName) == "" {
		return ErrAdNameRequired
	}
	if req.BudgetCents <= 0 {
		return ErrBudgetNotPositive
	}
	if req.DurationDays <= 0 {
		return ErrDurationNotPositive
	}
	return nil
}
