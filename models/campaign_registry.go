package models

import (
	"time"
)

// CampaignRegistry maps a customer's ad account to its steady-state rotation campaign
// and the long-lived creative every rotation ad references. One row per
// (customer, ad account); the scheduler reuses ActiveCampaignID across cycles so the
// platform's delivery history accumulates against a single campaign object.
// Table: campaign_registry
type CampaignRegistry struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	CustomerID       uint    `gorm:"not null;uniqueIndex:uq_campaign_registry_customer_account" json:"customer_id"`
	AdAccountID      string  `gorm:"size:64;not null;uniqueIndex:uq_campaign_registry_customer_account" json:"ad_account_id"`
	ActiveCampaignID *string `gorm:"size:64" json:"active_campaign_id,omitempty"`
	CreativeID       string  `gorm:"size:64;not null" json:"creative_id"`
	LinkURL          *string `gorm:"type:text" json:"link_url,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (CampaignRegistry) TableName() string { return "campaign_registry" }

// CampaignRegistryFilter represents filter criteria for registry queries
type CampaignRegistryFilter struct {
	ID          *uint
	CustomerID  *uint
	AdAccountID *string
}
