package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/dealerdrive/adpilot/models"
	"github.com/dealerdrive/adpilot/repository"
	"github.com/xuri/excelize/v2"
)

// ActivityReportFlow exposes the audit trail for reporting: date-range listing and
// a spreadsheet export for account managers.
type ActivityReportFlow interface {
	ListActivity(ctx context.Context, from, to time.Time) ([]*models.ActivityRecord, error)
	ExportActivityXLSX(ctx context.Context, from, to time.Time) ([]byte, error)
}

// ActivityReportFlowImpl implements ActivityReportFlow
type ActivityReportFlowImpl struct {
	activityRepo repository.ActivityRecordRepository
}

// NewActivityReportFlow creates a new activity report flow instance
func NewActivityReportFlow(activityRepo repository.ActivityRecordRepository) ActivityReportFlow {
	return &ActivityReportFlowImpl{activityRepo: activityRepo}
}

func (s *ActivityReportFlowImpl) ListActivity(ctx context.Context, from, to time.Time) ([]*models.ActivityRecord, error) {
	if to.Before(from) {
		return nil, NewBusinessError("ACTIVITY_RANGE_INVALID", "date range end precedes start", nil)
	}
	records, err := s.activityRepo.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, NewBusinessError("ACTIVITY_LIST_FAILED", "failed to list activity records", err)
	}
	return records, nil
}

// ExportActivityXLSX renders the date range as a single-sheet workbook
func (s *ActivityReportFlowImpl) ExportActivityXLSX(ctx context.Context, from, to time.Time) ([]byte, error) {
	records, err := s.ListActivity(ctx, from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Activity"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, NewBusinessError("ACTIVITY_EXPORT_FAILED", "failed to create sheet", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Date", "Batch ID", "Successes", "Errors"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, NewBusinessError("ACTIVITY_EXPORT_FAILED", "failed to write header", err)
		}
	}

	for row, rec := range records {
		values := []any{
			rec.RecordDate.Format("2006-01-02"),
			rec.BatchID,
			rec.SuccessCount,
			rec.ErrorCount,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, NewBusinessError("ACTIVITY_EXPORT_FAILED", fmt.Sprintf("failed to write row %d", row+2), err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, NewBusinessError("ACTIVITY_EXPORT_FAILED", "failed to serialize workbook", err)
	}
	return buf.Bytes(), nil
}
