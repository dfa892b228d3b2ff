package dto

import (
	"encoding/json"
	"time"
)

// ListActivityRequest represents the query parameters for listing activity records
type ListActivityRequest struct {
	DateFrom  *string `json:"date_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateTo    *string `json:"date_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	BatchID   *string `json:"batch_id,omitempty" validate:"omitempty,uuid4"`
	HasErrors *bool   `json:"has_errors,omitempty"`
	Limit     int     `json:"limit,omitempty" validate:"omitempty,gte=1,lte=500"`
	Offset    int     `json:"offset,omitempty" validate:"omitempty,gte=0"`
}

// ActivityRecordResponse represents one per-date activity record
type ActivityRecordResponse struct {
	ID           uint            `json:"id"`
	RecordDate   time.Time       `json:"record_date"`
	BatchID      string          `json:"batch_id"`
	SuccessCount int             `json:"success_count"`
	ErrorCount   int             `json:"error_count"`
	Payload      json.RawMessage `json:"payload"`
}

// ListActivityResponse represents a page of activity records
type ListActivityResponse struct {
	Items []ActivityRecordResponse `json:"items"`
	Total int64                    `json:"total"`
}
