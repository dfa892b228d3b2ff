package dto

import (
	"time"
)

// LocationTermDTO is one human-readable location in a targeting request
type LocationTermDTO struct {
	Type string `json:"type" validate:"required,oneof=state county city zip"`
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// AgeRangeDTO bounds the targeted audience age
type AgeRangeDTO struct {
	Min int `json:"min" validate:"omitempty,gte=0,lte=120"`
	Max int `json:"max" validate:"omitempty,gte=0,lte=120"`
}

// TargetingDTO is the loose targeting portion of an orchestration request
type TargetingDTO struct {
	Locations        []LocationTermDTO `json:"locations,omitempty" validate:"omitempty,dive"`
	InterestKeywords []string          `json:"interest_keywords,omitempty" validate:"omitempty,dive,min=1,max=100"`
	AgeRange         AgeRangeDTO       `json:"age_range"`
}

// CreativeDTO carries the ad copy fields of an orchestration request
type CreativeDTO struct {
	Headline        string `json:"headline,omitempty" validate:"omitempty,max=200"`
	Body            string `json:"body,omitempty" validate:"omitempty,max=2000"`
	CallToAction    string `json:"call_to_action,omitempty" validate:"omitempty,max=50"`
	DestinationType string `json:"destination_type,omitempty" validate:"omitempty,max=50"`
}

// OrchestrateCampaignRequest represents an interactive request to run one full
// campaign orchestration
type OrchestrateCampaignRequest struct {
	CustomerID   uint         `json:"-"`
	AdAccountID  string       `json:"ad_account_id,omitempty" validate:"omitempty,max=64"`
	PageID       string       `json:"page_id,omitempty" validate:"omitempty,max=64"`
	CampaignName string       `json:"campaign_name" validate:"required,min=1,max=200"`
	AdSetName    string       `json:"ad_set_name" validate:"required,min=1,max=200"`
	AdName       string       `json:"ad_name" validate:"required,min=1,max=200"`
	BudgetCents  int64        `json:"budget_cents" validate:"required,gt=0"`
	DurationDays int          `json:"duration_days" validate:"required,gt=0"`
	Targeting    TargetingDTO `json:"targeting"`
	Creative     CreativeDTO  `json:"creative"`
}

// RemoteResourceDTO identifies one platform object touched by the orchestration
type RemoteResourceDTO struct {
	Kind       string `json:"kind"`
	PlatformID string `json:"platform_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
}

// ProgressEntryDTO is one line of the orchestration narrative
type ProgressEntryDTO struct {
	Step    string    `json:"step"`
	Success bool      `json:"success"`
	Detail  string    `json:"detail"`
	At      time.Time `json:"at"`
}

// OrchestrateCampaignResponse represents the outcome of one orchestration,
// returned for both full successes and partial failures
type OrchestrateCampaignResponse struct {
	Success    bool                `json:"success"`
	Resources  []RemoteResourceDTO `json:"resources,omitempty"`
	Progress   []ProgressEntryDTO  `json:"progress"`
	FailedStep string              `json:"failed_step,omitempty"`
	Error      string              `json:"error,omitempty"`
}
