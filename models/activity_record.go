package models

import (
	"encoding/json"
	"time"
)

// ActivityRecord is the per-date audit aggregate for rotation cycles and interactive
// orchestrations. One row per calendar date (UTC); later batches on the same date merge
// their counters and append their payload instead of inserting a second row.
// Table: activity_records
type ActivityRecord struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	RecordDate   time.Time       `gorm:"type:date;not null;uniqueIndex:uq_activity_records_date" json:"record_date"`
	BatchID      string          `gorm:"size:64;not null" json:"batch_id"`
	SuccessCount int             `gorm:"not null;default:0" json:"success_count"`
	ErrorCount   int             `gorm:"not null;default:0" json:"error_count"`
	Payload      json.RawMessage `gorm:"type:jsonb;not null;default:'[]'" json:"payload"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (ActivityRecord) TableName() string { return "activity_records" }

// ActivityRecordFilter represents filter criteria for activity record queries
type ActivityRecordFilter struct {
	ID        *uint
	DateFrom  *time.Time
	DateTo    *time.Time
	BatchID   *string
	HasErrors *bool
}
