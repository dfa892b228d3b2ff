// Package models contains domain entities and business models for the campaign engine
package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// VehicleCategory is the coarse inventory category used for interest selection and ad-set naming
type VehicleCategory string

const (
	VehicleCategoryTruck VehicleCategory = "truck"
	VehicleCategorySUV   VehicleCategory = "suv"
	VehicleCategoryOther VehicleCategory = "other"
)

// String returns the string representation of the category
func (c VehicleCategory) String() string {
	return string(c)
}

// Valid checks if the category is valid
func (c VehicleCategory) Valid() bool {
	switch c {
	case VehicleCategoryTruck, VehicleCategorySUV, VehicleCategoryOther:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for VehicleCategory
func (c *VehicleCategory) Scan(value any) error {
	if value == nil {
		*c = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*c = VehicleCategory(v)
	case []byte:
		*c = VehicleCategory(string(v))
	default:
		return fmt.Errorf("cannot scan %T into VehicleCategory", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for VehicleCategory
func (c VehicleCategory) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid VehicleCategory: %s", c)
	}
	return string(c), nil
}

// Vehicle represents one inventory item from a dealership feed.
// Rows are written by the feed-ingestion collaborator; the engine only reads them.
// Table: vehicles
type Vehicle struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CustomerID    uint            `gorm:"not null;index:idx_vehicles_customer_id" json:"customer_id"`
	Year          int             `gorm:"not null" json:"year"`
	Make          string          `gorm:"size:100;not null" json:"make"`
	Model         string          `gorm:"size:100;not null" json:"model"`
	Trim          *string         `gorm:"size:100" json:"trim,omitempty"`
	BodyStyle     *string         `gorm:"size:100" json:"body_style,omitempty"`
	StockNumber   string          `gorm:"size:64;not null;index:idx_vehicles_stock_number" json:"stock_number"`
	ExteriorColor *string         `gorm:"size:64" json:"exterior_color,omitempty"`
	SourceURL     *string         `gorm:"type:text" json:"source_url,omitempty"`
	Category      VehicleCategory `gorm:"type:vehicle_category_enum;not null;default:'other'" json:"category"`
	Active        bool            `gorm:"not null;default:true;index:idx_vehicles_active" json:"active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Vehicle) TableName() string { return "vehicles" }

// DisplayName builds the human-readable vehicle label used in ad-set and ad names
func (v *Vehicle) DisplayName() string {
	parts := []string{fmt.Sprintf("%d", v.Year), v.Make, v.Model}
	if v.Trim != nil && *v.Trim != "" {
		parts = append(parts, *v.Trim)
	}
	return strings.Join(parts, " ")
}

// ClassifyBodyStyle derives a VehicleCategory from a free-text body style string.
// Unknown or missing body styles map to VehicleCategoryOther.
func ClassifyBodyStyle(bodyStyle string) VehicleCategory {
	s := strings.ToLower(strings.TrimSpace(bodyStyle))
	switch {
	case strings.Contains(s, "truck") || strings.Contains(s, "pickup") || strings.Contains(s, "cab"):
		return VehicleCategoryTruck
	case strings.Contains(s, "suv") || strings.Contains(s, "sport utility") || strings.Contains(s, "crossover"):
		return VehicleCategorySUV
	default:
		return VehicleCategoryOther
	}
}

// VehicleFilter represents filter criteria for vehicle queries
type VehicleFilter struct {
	ID            *uint
	CustomerID    *uint
	Category      *VehicleCategory
	StockNumber   *string
	Active        *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
