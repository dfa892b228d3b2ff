// Package businessflow contains the business logic for the campaign engine.
package businessflow

import (
	"time"

	"github.com/dealerdrive/adpilot/app/services"
	"github.com/dealerdrive/adpilot/models"
	"github.com/dealerdrive/adpilot/utils"
)

const RequestIDKey = "X-Request-ID"

// Orchestration step names. These appear verbatim in progress logs, batch reports,
// and activity records, so they are part of the engine's outward contract.
const (
	StepValidation     = "validation"
	StepCredential     = "credential"
	StepTargeting      = "targeting_resolution"
	StepBudget         = "budget_planning"
	StepEnsureCampaign = "campaign_ensure"
	StepAdSetCreation  = "ad_set_creation"
	StepAdCreation     = "ad_creation"
	StepInsights       = "insights"
	StepActivityRecord = "activity_record"
)

// ClientMetadata holds client-related information for audit logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// LocationTerm is one human-readable location with its declared granularity
type LocationTerm struct {
	Type string `json:"type"` // state | county | city | zip
	Name string `json:"name"`
}

// AgeRange bounds the targeted audience age
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// TargetingSpec is the loose, human-readable targeting request
type TargetingSpec struct {
	Locations        []LocationTerm `json:"locations"`
	InterestKeywords []string       `json:"interest_keywords"`
	AgeRange         AgeRange       `json:"age_range"`
}

// CreativeSpec describes the ad copy; the creative object itself is a long-lived
// platform resource referenced by id from the campaign registry
type CreativeSpec struct {
	Headline        string `json:"headline"`
	Body            string `json:"body"`
	CallToAction    string `json:"call_to_action"`
	DestinationType string `json:"destination_type"`
}

// CampaignRequest is the full input for one orchestration
type CampaignRequest struct {
	CustomerID   uint          `json:"customer_id"`
	AdAccountID  string        `json:"ad_account_id"`
	PageID       string        `json:"page_id"`
	CampaignName string        `json:"campaign_name"`
	AdSetName    string        `json:"ad_set_name"`
	AdName       string        `json:"ad_name"`
	BudgetCents  int64         `json:"budget_cents"`
	DurationDays int           `json:"duration_days"`
	Targeting    TargetingSpec `json:"targeting"`
	Creative     CreativeSpec  `json:"creative"`

	// Vehicle is set in the rotation flow; interactive requests may leave it nil
	Vehicle *models.Vehicle `json:"-"`
}

// ResolvedLocation is one location term mapped to a platform identifier
type ResolvedLocation struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	PlatformID string `json:"platform_id"`
	Fallback   bool   `json:"fallback,omitempty"`
}

// ResolvedInterest is one keyword confirmed by the platform's interest search
type ResolvedInterest struct {
	Keyword    string `json:"keyword"`
	PlatformID string `json:"platform_id"`
	Name       string `json:"name"`
}

// ResolvedTargeting is the platform-ready form of a TargetingSpec. Every entry
// carries a platform id; unresolved terms are dropped with a warning, never invented.
type ResolvedTargeting struct {
	Locations []ResolvedLocation `json:"locations"`
	Interests []ResolvedInterest `json:"interests"`
	AgeMin    int                `json:"age_min"`
	AgeMax    int                `json:"age_max"`
	Warnings  []string           `json:"warnings,omitempty"`
}

// Payload converts the resolved targeting into the platform wire shape
func (t *ResolvedTargeting) Payload() services.TargetingPayload {
	p := services.TargetingPayload{
		AgeMin: t.AgeMin,
		AgeMax: t.AgeMax,
	}
	for _, loc := range t.Locations {
		switch loc.Type {
		case "city":
			p.GeoLocations.Cities = append(p.GeoLocations.Cities, services.CityRef{Key: loc.PlatformID})
		case "zip":
			p.GeoLocations.Zips = append(p.GeoLocations.Zips, services.ZipRef{Key: loc.PlatformID})
		default:
			p.GeoLocations.Regions = append(p.GeoLocations.Regions, services.RegionRef{Key: loc.PlatformID})
		}
	}
	for _, in := range t.Interests {
		p.Interests = append(p.Interests, services.InterestRef{ID: in.PlatformID, Name: in.Name})
	}
	return p
}

// BudgetPlan is the validated daily spend split
type BudgetPlan struct {
	DailyBudgetCents int64 `json:"daily_budget_cents"`
	DurationDays     int   `json:"duration_days"`
}

// RemoteResource identifies one platform object created or confirmed by a step
type RemoteResource struct {
	Kind       string `json:"kind"` // campaign | adset | ad
	PlatformID string `json:"platform_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
}

// ProgressEntry is one line of the step-by-step orchestration narrative
type ProgressEntry struct {
	Step    string    `json:"step"`
	Success bool      `json:"success"`
	Detail  string    `json:"detail"`
	At      time.Time `json:"at"`
}

// ProgressLog accumulates the narrative returned to interactive and batch callers
type ProgressLog struct {
	Entries []ProgressEntry `json:"entries"`
}

// Append records a step outcome
func (l *ProgressLog) Append(step string, success bool, detail string) {
	l.Entries = append(l.Entries, ProgressEntry{
		Step:    step,
		Success: success,
		Detail:  detail,
		At:      utils.UTCNow(),
	})
}

// OrchestrationResult is the deterministic success/failure shape every caller
// receives, regardless of where the pipeline stopped
type OrchestrationResult struct {
	Success    bool             `json:"success"`
	Resources  []RemoteResource `json:"resources"`
	Progress   ProgressLog      `json:"progress"`
	FailedStep string           `json:"failed_step,omitempty"`
	Err        error            `json:"-"`
}

// ResourceID returns the platform id of the first resource of the given kind
func (r *OrchestrationResult) ResourceID(kind string) string {
	for _, res := range r.Resources {
		if res.Kind == kind {
			return res.PlatformID
		}
	}
	return ""
}
