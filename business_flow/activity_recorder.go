package businessflow

import (
	"context"
	"encoding/json"
	"log"

	"github.com/dealerdrive/adpilot/models"
	"github.com/dealerdrive/adpilot/repository"
	"github.com/dealerdrive/adpilot/utils"
)

// ActivityRecorder persists batch outcomes for audit. Recording must never block or
// fail the orchestration pipeline: the remote-platform effects already happened, so
// persistence errors are logged and swallowed.
type ActivityRecorder interface {
	Record(ctx context.Context, batchID string, successCount, errorCount int, payload any)
}

// ActivityRecorderImpl implements ActivityRecorder with a per-date upsert
type ActivityRecorderImpl struct {
	activityRepo repository.ActivityRecordRepository
	logger       *log.Logger
}

// NewActivityRecorder creates a new activity recorder
func NewActivityRecorder(activityRepo repository.ActivityRecordRepository, logger *log.Logger) ActivityRecorder {
	if logger == nil {
		logger = log.Default()
	}
	return &ActivityRecorderImpl{activityRepo: activityRepo, logger: logger}
}

// Record merges the batch outcome into today's activity row. The payload is stored
// as a one-element JSON array so the database merge can concatenate batches.
func (r *ActivityRecorderImpl) Record(ctx context.Context, batchID string, successCount, errorCount int, payload any) {
	raw, err := json.Marshal([]any{payload})
	if err != nil {
		r.logger.Printf("activity: failed to encode payload for batch %s: %v", batchID, err)
		raw = []byte("[]")
	}

	record := &models.ActivityRecord{
		RecordDate:   utils.UTCToday(),
		BatchID:      batchID,
		SuccessCount: successCount,
		ErrorCount:   errorCount,
		Payload:      raw,
	}
	if err := r.activityRepo.UpsertForDate(ctx, record); err != nil {
		r.logger.Printf("activity: failed to persist record for batch %s: %v", batchID, err)
	}
}
