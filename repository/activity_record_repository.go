package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dealerdrive/adpilot/models"
	"github.com/dealerdrive/adpilot/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActivityRecordRepositoryImpl implements ActivityRecordRepository
type ActivityRecordRepositoryImpl struct {
	*BaseRepository[models.ActivityRecord, models.ActivityRecordFilter]
}

func NewActivityRecordRepository(db *gorm.DB) ActivityRecordRepository {
	return &ActivityRecordRepositoryImpl{BaseRepository: NewBaseRepository[models.ActivityRecord, models.ActivityRecordFilter](db)}
}

func (r *ActivityRecordRepositoryImpl) ByDate(ctx context.Context, date time.Time) (*models.ActivityRecord, error) {
	db := r.getDB(ctx)
	var row models.ActivityRecord
	if err := db.Where("record_date = ?", date.UTC().Format("2006-01-02")).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// UpsertForDate inserts the record or merges it into the existing row for the same
// calendar date. Counters are added and payloads (JSON arrays) concatenated so a later
// batch never overwrites an earlier one. The merge runs inside a single statement and
// relies on the database's row-level atomicity; no in-process locking.
func (r *ActivityRecordRepositoryImpl) UpsertForDate(ctx context.Context, record *models.ActivityRecord) error {
	db := r.getDB(ctx)
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "record_date"}},
		DoUpdates: clause.Assignments(map[string]any{
			"success_count": gorm.Expr("activity_records.success_count + excluded.success_count"),
			"error_count":   gorm.Expr("activity_records.error_count + excluded.error_count"),
			"payload":       gorm.Expr("activity_records.payload || excluded.payload"),
			"batch_id":      gorm.Expr("excluded.batch_id"),
			"updated_at":    utils.UTCNow(),
		}),
	}).Create(record).Error
}

func (r *ActivityRecordRepositoryImpl) ListByDateRange(ctx context.Context, from, to time.Time) ([]*models.ActivityRecord, error) {
	fromDate := from.UTC()
	toDate := to.UTC()
	return r.ByFilter(ctx, models.ActivityRecordFilter{DateFrom: &fromDate, DateTo: &toDate}, "record_date ASC", 0, 0)
}

func (r *ActivityRecordRepositoryImpl) applyFilter(db *gorm.DB, f models.ActivityRecordFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.DateFrom != nil {
		db = db.Where("record_date >= ?", f.DateFrom.Format("2006-01-02"))
	}
	if f.DateTo != nil {
		db = db.Where("record_date <= ?", f.DateTo.Format("2006-01-02"))
	}
	if f.BatchID != nil {
		db = db.Where("batch_id = ?", *f.BatchID)
	}
	if f.HasErrors != nil {
		if *f.HasErrors {
			db = db.Where("error_count > 0")
		} else {
			db = db.Where("error_count = 0")
		}
	}
	return db
}

func (r *ActivityRecordRepositoryImpl) ByFilter(ctx context.Context, filter models.ActivityRecordFilter, orderBy string, limit, offset int) ([]*models.ActivityRecord, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ActivityRecord{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.ActivityRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ActivityRecordRepositoryImpl) Count(ctx context.Context, filter models.ActivityRecordFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ActivityRecord{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
