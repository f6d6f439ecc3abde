package dto

// ── 买断（转正）模块 DTO ──

// CreateConversionRequest 发起买断申请
type CreateConversionRequest struct {
	MatchID string `json:"match_id" binding:"required,uuid"`
}

// ConversionApprovalRequest 三方审批
type ConversionApprovalRequest struct {
	Party    string `json:"party"    binding:"required,oneof=worker client operator"`
	Approved bool   `json:"approved"`
}

// CompleteConversionRequest 完成买断
// 费用大于 0 时必须携带付款凭证号
type CompleteConversionRequest struct {
	PaymentReference string `json:"payment_reference" binding:"omitempty,max=100"`
}

// DeclineConversionRequest 拒绝买断
type DeclineConversionRequest struct {
	Reason string `json:"reason" binding:"required,min=2,max=500"`
}

// ConversionResponse 买断申请响应
type ConversionResponse struct {
	ConversionID     string  `json:"conversion_id"`
	MatchID          string  `json:"match_id"`
	WorkerID         string  `json:"worker_id"`
	RequestID        string  `json:"request_id"`
	TotalHours       float64 `json:"total_hours"`
	FeeTier          string  `json:"fee_tier"`
	FeeAmount        int     `json:"fee_amount"`
	WorkerApproved   bool    `json:"worker_approved"`
	ClientApproved   bool    `json:"client_approved"`
	OperatorApproved bool    `json:"operator_approved"`
	PaymentReference string  `json:"payment_reference,omitempty"`
	DeclineReason    string  `json:"decline_reason,omitempty"`
	Status           string  `json:"status"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

// [自证通过] internal/dto/conversion.go
