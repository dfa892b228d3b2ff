package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// IntegrationProvider identifies the remote advertising platform a credential belongs to
type IntegrationProvider string

const (
	IntegrationProviderMeta IntegrationProvider = "meta"
)

// String returns the string representation of the provider
func (p IntegrationProvider) String() string {
	return string(p)
}

// Valid checks if the provider is valid
func (p IntegrationProvider) Valid() bool {
	switch p {
	case IntegrationProviderMeta:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for IntegrationProvider
func (p *IntegrationProvider) Scan(value any) error {
	if value == nil {
		*p = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*p = IntegrationProvider(v)
	case []byte:
		*p = IntegrationProvider(string(v))
	default:
		return fmt.Errorf("cannot scan %T into IntegrationProvider", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for IntegrationProvider
func (p IntegrationProvider) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid IntegrationProvider: %s", p)
	}
	return string(p), nil
}

// Integration stores one connected ad platform account for a customer.
// EncryptedToken holds the platform access token, AES-256-CBC encrypted with an IV
// prefix and base64 encoded. The plaintext token never touches this table or logs.
// Table: integrations
type Integration struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	CustomerID     uint                `gorm:"not null;uniqueIndex:uq_integrations_customer_provider" json:"customer_id"`
	Provider       IntegrationProvider `gorm:"type:integration_provider_enum;not null;uniqueIndex:uq_integrations_customer_provider" json:"provider"`
	AdAccountID    string              `gorm:"size:64;not null" json:"ad_account_id"`
	PageID         string              `gorm:"size:64;not null" json:"page_id"`
	EncryptedToken string              `gorm:"type:text;not null" json:"-"`
	Active         bool                `gorm:"not null;default:true;index:idx_integrations_active" json:"active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Integration) TableName() string { return "integrations" }

// IntegrationFilter represents filter criteria for integration queries
type IntegrationFilter struct {
	ID         *uint
	CustomerID *uint
	Provider   *IntegrationProvider
	Active     *bool
}
