package dto

import (
	"time"
)

// RunRotationCycleRequest optionally pins the cycle's tick key; when absent the
// handler derives one from the current hour
type RunRotationCycleRequest struct {
	TickKey *int64 `json:"tick_key,omitempty" validate:"omitempty,gte=0"`
}

// BatchErrorDTO describes one failed item within a rotation cycle
type BatchErrorDTO struct {
	StockNumber string `json:"stock_number"`
	Step        string `json:"step"`
	Message     string `json:"message"`
	Transient   bool   `json:"transient"`
}

// CampaignInsightDTO is one best-effort insights read from the reporting pass
type CampaignInsightDTO struct {
	CampaignID  string `json:"campaign_id"`
	Impressions string `json:"impressions"`
	Clicks      string `json:"clicks"`
	Spend       string `json:"spend"`
	Reach       string `json:"reach"`
}

// RunRotationCycleResponse represents the batch report of one rotation cycle
type RunRotationCycleResponse struct {
	BatchID      string               `json:"batch_id"`
	TickKey      int64                `json:"tick_key"`
	StartedAt    time.Time            `json:"started_at"`
	FinishedAt   time.Time            `json:"finished_at"`
	SuccessCount int                  `json:"success_count"`
	ErrorCount   int                  `json:"error_count"`
	Resources    []RemoteResourceDTO  `json:"resources,omitempty"`
	Errors       []BatchErrorDTO      `json:"errors,omitempty"`
	Insights     []CampaignInsightDTO `json:"insights,omitempty"`
}
