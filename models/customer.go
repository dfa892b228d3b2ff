package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a dealership account. Authentication, billing, and profile management
// live in a separate service; the engine only needs identity and the active flag.
type Customer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UUID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_customers_uuid" json:"uuid"`
	DealershipName string    `gorm:"size:255;not null" json:"dealership_name"`
	ContactEmail   string    `gorm:"size:255;not null;uniqueIndex:idx_customers_contact_email" json:"contact_email"`
	IsActive       *bool     `gorm:"default:true;index:idx_customers_is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Integrations []Integration `gorm:"foreignKey:CustomerID" json:"-"`
	Vehicles     []Vehicle     `gorm:"foreignKey:CustomerID" json:"-"`
}

func (Customer) TableName() string {
	return "customers"
}

// CustomerFilter represents filter criteria for customer queries
type CustomerFilter struct {
	ID           *uint
	UUID         *uuid.UUID
	ContactEmail *string
	IsActive     *bool
}
