package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// MockPlatformCall records one call made against the mock platform client
type MockPlatformCall struct {
	Method   string
	Endpoint string
	Name     string
}

// MockAdsPlatformClient implements AdsPlatformClient for testing. It hands out
// deterministic ids and records every call so tests can assert on ordering.
type MockAdsPlatformClient struct {
	mu sync.Mutex

	Campaigns map[string]*RemoteCampaign
	Interests map[string][]InterestMatch

	// Errs maps an operation name ("create_adset", "create_ad", "get_campaign",
	// "create_campaign", "search", "insights") to an error returned on every call
	Errs map[string]error

	Calls          []MockPlatformCall
	CreatedAdSets  []AdSetCreateParams
	CreatedAds     []AdCreateParams
	nextID         int
	InsightsResult *InsightsResult
}

// NewMockAdsPlatformClient creates a new mock platform client
func NewMockAdsPlatformClient() *MockAdsPlatformClient {
	return &MockAdsPlatformClient{
		Campaigns: make(map[string]*RemoteCampaign),
		Interests: make(map[string][]InterestMatch),
		Errs:      make(map[string]error),
		nextID:    1000,
	}
}

func (m *MockAdsPlatformClient) record(method, endpoint, name string) {
	m.Calls = append(m.Calls, MockPlatformCall{Method: method, Endpoint: endpoint, Name: name})
}

func (m *MockAdsPlatformClient) nextPlatformID() string {
	m.nextID++
	return strconv.Itoa(m.nextID)
}

func (m *MockAdsPlatformClient) GetCampaign(ctx context.Context, token, campaignID string) (*RemoteCampaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("GET", campaignID, "get_campaign")
	if err := m.Errs["get_campaign"]; err != nil {
		return nil, err
	}
	c, ok := m.Campaigns[campaignID]
	if !ok {
		return nil, &PlatformError{HTTPStatus: 404, Code: 100, Message: fmt.Sprintf("Unsupported get request. Object with ID '%s' does not exist", campaignID), Endpoint: campaignID}
	}
	return c, nil
}

func (m *MockAdsPlatformClient) CreateCampaign(ctx context.Context, token, adAccountID string, p CampaignCreateParams) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("POST", "act_"+adAccountID+"/campaigns", "create_campaign")
	if err := m.Errs["create_campaign"]; err != nil {
		return "", err
	}
	id := m.nextPlatformID()
	m.Campaigns[id] = &RemoteCampaign{ID: id, Name: p.Name, Status: p.Status, EffectiveStatus: "PAUSED"}
	return id, nil
}

func (m *MockAdsPlatformClient) CreateAdSet(ctx context.Context, token, adAccountID string, p AdSetCreateParams) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("POST", "act_"+adAccountID+"/adsets", "create_adset")
	if err := m.Errs["create_adset"]; err != nil {
		return "", err
	}
	m.CreatedAdSets = append(m.CreatedAdSets, p)
	return m.nextPlatformID(), nil
}

func (m *MockAdsPlatformClient) CreateAd(ctx context.Context, token, adAccountID string, p AdCreateParams) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("POST", "act_"+adAccountID+"/ads", "create_ad")
	if err := m.Errs["create_ad"]; err != nil {
		return "", err
	}
	m.CreatedAds = append(m.CreatedAds, p)
	return m.nextPlatformID(), nil
}

func (m *MockAdsPlatformClient) SearchInterests(ctx context.Context, token, query string, limit int) ([]InterestMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("GET", "search", "search")
	if err := m.Errs["search"]; err != nil {
		return nil, err
	}
	return m.Interests[query], nil
}

func (m *MockAdsPlatformClient) GetInsights(ctx context.Context, token, objectID, datePreset string) (*InsightsResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("GET", objectID+"/insights", "insights")
	if err := m.Errs["insights"]; err != nil {
		return nil, err
	}
	if m.InsightsResult != nil {
		return m.InsightsResult, nil
	}
	return &InsightsResult{}, nil
}

// CallNames returns the ordered operation names of all recorded calls
func (m *MockAdsPlatformClient) CallNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		names = append(names, c.Name)
	}
	return names
}
