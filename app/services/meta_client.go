// Package services provides external service integrations and technical concerns like platform clients and credentials
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Remote error codes the engine classifies as transient. Everything else coming back
// in an error envelope is terminal for the request that triggered it.
const (
	ErrCodeUserRequestLimit = 17
	ErrCodeRateLimit        = 613
	ErrSubcodeAdSetLocked   = 1487742
)

const maxLoggedBodyBytes = 512

var (
	platformRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_api_requests_total",
			Help: "Total number of remote ads platform API calls",
		},
		[]string{"endpoint", "status"},
	)

	platformRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "platform_api_request_duration_seconds",
			Help:    "Remote ads platform API call latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

// PlatformError carries the remote error envelope verbatim so callers can
// pattern-match on known codes. Message is never paraphrased.
type PlatformError struct {
	HTTPStatus int    `json:"http_status"`
	Code       int    `json:"code"`
	Subcode    int    `json:"subcode,omitempty"`
	Message    string `json:"message"`
	Endpoint   string `json:"endpoint"`
}

func (e *PlatformError) Error() string {
	if e.Subcode != 0 {
		return fmt.Sprintf("platform error %d (subcode %d) on %s: %s", e.Code, e.Subcode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("platform error %d on %s: %s", e.Code, e.Endpoint, e.Message)
}

// Transient reports whether the error is a rate-limit or temporary-lock condition
// that the scheduler handles with a cooldown rather than abandoning the cycle
func (e *PlatformError) Transient() bool {
	if e.Code == ErrCodeUserRequestLimit || e.Code == ErrCodeRateLimit {
		return true
	}
	return e.Subcode == ErrSubcodeAdSetLocked
}

// AsPlatformError unwraps err into a PlatformError if it is one
func AsPlatformError(err error) (*PlatformError, bool) {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsTransientPlatformError reports whether err is a transient remote error
func IsTransientPlatformError(err error) bool {
	pe, ok := AsPlatformError(err)
	return ok && pe.Transient()
}

// RemoteCampaign is the read-back shape of a campaign object
type RemoteCampaign struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Status          string `json:"status"`
	EffectiveStatus string `json:"effective_status"`
}

// Archived reports whether the platform has archived or deleted the campaign
func (c *RemoteCampaign) Archived() bool {
	switch c.EffectiveStatus {
	case "ARCHIVED", "DELETED":
		return true
	}
	return c.Status == "ARCHIVED" || c.Status == "DELETED"
}

// InterestMatch is one confirmed result from the platform's interest search
type InterestMatch struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AudienceSize int64  `json:"audience_size_lower_bound"`
}

// InterestRef references a platform interest inside a targeting payload
type InterestRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// RegionRef references a platform region (state) key
type RegionRef struct {
	Key string `json:"key"`
}

// CityRef references a platform city key
type CityRef struct {
	Key string `json:"key"`
}

// ZipRef references a platform zip key, e.g. "US:53202"
type ZipRef struct {
	Key string `json:"key"`
}

// GeoLocationsPayload is the geo part of an ad-set targeting payload
type GeoLocationsPayload struct {
	Regions []RegionRef `json:"regions,omitempty"`
	Cities  []CityRef   `json:"cities,omitempty"`
	Zips    []ZipRef    `json:"zips,omitempty"`
}

// TargetingPayload is the wire shape of ad-set targeting. Every referenced id must be
// a platform-confirmed identifier; the resolver guarantees that before this is built.
type TargetingPayload struct {
	GeoLocations GeoLocationsPayload `json:"geo_locations"`
	Interests    []InterestRef       `json:"interests,omitempty"`
	AgeMin       int                 `json:"age_min"`
	AgeMax       int                 `json:"age_max"`
}

// CampaignCreateParams are the inputs for creating a campaign object
type CampaignCreateParams struct {
	Name      string
	Objective string
	Status    string
}

// AdSetCreateParams are the inputs for creating an ad set under a campaign
type AdSetCreateParams struct {
	Name             string
	CampaignID       string
	DailyBudgetCents int64
	BillingEvent     string
	OptimizationGoal string
	BidStrategy      string
	Status           string
	Targeting        TargetingPayload
}

// AdCreateParams are the inputs for creating an ad under an ad set
type AdCreateParams struct {
	Name       string
	AdSetID    string
	CreativeID string
	Status     string
}

// InsightsResult is the aggregate read from the insights endpoint
type InsightsResult struct {
	Impressions string `json:"impressions"`
	Clicks      string `json:"clicks"`
	Spend       string `json:"spend"`
	Reach       string `json:"reach"`
}

// AdsPlatformClient is the thin client for the remote advertising platform API.
// It performs no retries; retry and cooldown decisions belong to the orchestration
// and scheduler layers that understand the business semantics of each call.
type AdsPlatformClient interface {
	GetCampaign(ctx context.Context, token, campaignID string) (*RemoteCampaign, error)
	CreateCampaign(ctx context.Context, token, adAccountID string, p CampaignCreateParams) (string, error)
	CreateAdSet(ctx context.Context, token, adAccountID string, p AdSetCreateParams) (string, error)
	CreateAd(ctx context.Context, token, adAccountID string, p AdCreateParams) (string, error)
	SearchInterests(ctx context.Context, token, query string, limit int) ([]InterestMatch, error)
	GetInsights(ctx context.Context, token, objectID, datePreset string) (*InsightsResult, error)
}

// MetaAdsClient implements AdsPlatformClient against a Graph-style HTTP API
type MetaAdsClient struct {
	BaseURL    string
	HTTPClient *http.Client
	logger     *log.Logger
}

// NewMetaAdsClient creates a new platform client
func NewMetaAdsClient(baseURL string, timeout time.Duration, logger *log.Logger) *MetaAdsClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &MetaAdsClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *MetaAdsClient) Name() string { return "meta" }

// errorEnvelope is the remote error response shape
type errorEnvelope struct {
	Error struct {
		Code         int    `json:"code"`
		Message      string `json:"message"`
		ErrorSubcode int    `json:"error_subcode"`
	} `json:"error"`
}

// dataEnvelope wraps list responses
type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// call executes one HTTP request against the platform. POST parameters are sent as a
// single form-encoded body; GET parameters are query-encoded. The bearer credential is
// attached as a header and never written to the log.
func (c *MetaAdsClient) call(ctx context.Context, method, endpoint string, params url.Values, token string) (json.RawMessage, error) {
	fullURL := c.BaseURL + "/" + strings.TrimLeft(endpoint, "/")

	var body io.Reader
	if method == http.MethodPost {
		body = strings.NewReader(params.Encode())
	} else if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create platform request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	platformRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		platformRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		c.logger.Printf("platform: %s %s transport error: %v", method, endpoint, err)
		return nil, fmt.Errorf("platform request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		platformRequestsTotal.WithLabelValues(endpoint, "read_error").Inc()
		return nil, fmt.Errorf("failed to read platform response: %w", err)
	}

	platformRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	c.logger.Printf("platform: %s %s status=%d body=%s", method, endpoint, resp.StatusCode, truncate(respBody, maxLoggedBodyBytes))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	var env errorEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil || env.Error.Message == "" && env.Error.Code == 0 {
		return nil, &PlatformError{
			HTTPStatus: resp.StatusCode,
			Message:    string(truncate(respBody, maxLoggedBodyBytes)),
			Endpoint:   endpoint,
		}
	}
	return nil, &PlatformError{
		HTTPStatus: resp.StatusCode,
		Code:       env.Error.Code,
		Subcode:    env.Error.ErrorSubcode,
		Message:    env.Error.Message,
		Endpoint:   endpoint,
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

// GetCampaign reads a campaign back from the platform. Status is always taken from
// this read, never assumed from local state.
func (c *MetaAdsClient) GetCampaign(ctx context.Context, token, campaignID string) (*RemoteCampaign, error) {
	params := url.Values{}
	params.Set("fields", "id,name,status,effective_status")
	body, err := c.call(ctx, http.MethodGet, campaignID, params, token)
	if err != nil {
		return nil, err
	}
	var out RemoteCampaign
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode campaign response: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("campaign response missing id")
	}
	return &out, nil
}

type createResponse struct {
	ID string `json:"id"`
}

// CreateCampaign creates a campaign object and returns its platform id
func (c *MetaAdsClient) CreateCampaign(ctx context.Context, token, adAccountID string, p CampaignCreateParams) (string, error) {
	params := url.Values{}
	params.Set("name", p.Name)
	params.Set("objective", p.Objective)
	params.Set("status", p.Status)
	params.Set("special_ad_categories", "[]")

	body, err := c.call(ctx, http.MethodPost, "act_"+adAccountID+"/campaigns", params, token)
	if err != nil {
		return "", err
	}
	return decodeCreatedID(body, "campaign")
}

// CreateAdSet creates an ad set under the given campaign and returns its platform id
func (c *MetaAdsClient) CreateAdSet(ctx context.Context, token, adAccountID string, p AdSetCreateParams) (string, error) {
	targetingJSON, err := json.Marshal(p.Targeting)
	if err != nil {
		return "", fmt.Errorf("failed to encode targeting payload: %w", err)
	}

	params := url.Values{}
	params.Set("name", p.Name)
	params.Set("campaign_id", p.CampaignID)
	params.Set("daily_budget", strconv.FormatInt(p.DailyBudgetCents, 10))
	params.Set("billing_event", p.BillingEvent)
	params.Set("optimization_goal", p.OptimizationGoal)
	params.Set("bid_strategy", p.BidStrategy)
	params.Set("status", p.Status)
	params.Set("targeting", string(targetingJSON))

	body, err := c.call(ctx, http.MethodPost, "act_"+adAccountID+"/adsets", params, token)
	if err != nil {
		return "", err
	}
	return decodeCreatedID(body, "ad set")
}

// CreateAd creates an ad referencing an existing creative and returns its platform id
func (c *MetaAdsClient) CreateAd(ctx context.Context, token, adAccountID string, p AdCreateParams) (string, error) {
	creativeJSON, err := json.Marshal(map[string]string{"creative_id": p.CreativeID})
	if err != nil {
		return "", fmt.Errorf("failed to encode creative reference: %w", err)
	}

	params := url.Values{}
	params.Set("name", p.Name)
	params.Set("adset_id", p.AdSetID)
	params.Set("creative", string(creativeJSON))
	params.Set("status", p.Status)

	body, err := c.call(ctx, http.MethodPost, "act_"+adAccountID+"/ads", params, token)
	if err != nil {
		return "", err
	}
	return decodeCreatedID(body, "ad")
}

func decodeCreatedID(body json.RawMessage, kind string) (string, error) {
	var out createResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode %s create response: %w", kind, err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("%s create response missing id", kind)
	}
	return out.ID, nil
}

// SearchInterests queries the platform's interest search. Only ids confirmed by the
// platform are ever returned; the client never fabricates identifiers.
func (c *MetaAdsClient) SearchInterests(ctx context.Context, token, query string, limit int) ([]InterestMatch, error) {
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{}
	params.Set("type", "adinterest")
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.call(ctx, http.MethodGet, "search", params, token)
	if err != nil {
		return nil, err
	}

	var env dataEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode interest search envelope: %w", err)
	}
	var matches []InterestMatch
	if err := json.Unmarshal(env.Data, &matches); err != nil {
		return nil, fmt.Errorf("failed to decode interest search results: %w", err)
	}
	return matches, nil
}

// GetInsights fetches aggregate delivery metrics for a campaign, ad set, or ad
func (c *MetaAdsClient) GetInsights(ctx context.Context, token, objectID, datePreset string) (*InsightsResult, error) {
	if datePreset == "" {
		datePreset = "today"
	}
	params := url.Values{}
	params.Set("fields", "impressions,clicks,spend,reach")
	params.Set("date_preset", datePreset)

	body, err := c.call(ctx, http.MethodGet, objectID+"/insights", params, token)
	if err != nil {
		return nil, err
	}

	var env dataEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode insights envelope: %w", err)
	}
	var rows []InsightsResult
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode insights rows: %w", err)
	}
	if len(rows) == 0 {
		return &InsightsResult{}, nil
	}
	return &rows[0], nil
}
