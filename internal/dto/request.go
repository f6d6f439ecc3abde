package dto

// ── 用工需求模块 DTO ──

// CreateRequestRequest 客户录入用工需求
type CreateRequestRequest struct {
	ClientID           string   `json:"client_id"            binding:"required,uuid"`
	Title              string   `json:"title"                binding:"required,min=2,max=200"`
	SkillTags          []string `json:"skill_tags"           binding:"omitempty,dive,min=1,max=50"`
	Headcount          int      `json:"headcount"            binding:"required,min=1,max=500"`
	PayRateCents       int      `json:"pay_rate_cents"       binding:"omitempty,min=0"`
	StartDate          string   `json:"start_date"           binding:"required,datetime=2006-01-02"`
	SiteLat            *float64 `json:"site_lat"             binding:"required,min=-90,max=90"` // 指针：0 是合法坐标
	SiteLng            *float64 `json:"site_lng"             binding:"required,min=-180,max=180"`
	GeofenceRadiusFeet float64  `json:"geofence_radius_feet" binding:"omitempty,gt=0"` // 缺省取策略默认 300 英尺
	Urgent             bool     `json:"urgent"`
}

// RequestListRequest 需求列表查询参数
type RequestListRequest struct {
	Status   string `form:"status"    binding:"omitempty,oneof=pending matched assigned cancelled"`
	Page     int    `form:"page,default=1"      binding:"omitempty,min=1"`
	PageSize int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

// RequestResponse 用工需求响应
type RequestResponse struct {
	RequestID          string   `json:"request_id"`
	ClientID           string   `json:"client_id"`
	Title              string   `json:"title"`
	SkillTags          []string `json:"skill_tags"`
	Headcount          int      `json:"headcount"`
	AssignedCount      int      `json:"assigned_count"`
	PayRateCents       int      `json:"pay_rate_cents"`
	StartDate          string   `json:"start_date"`
	SiteLat            float64  `json:"site_lat"`
	SiteLng            float64  `json:"site_lng"`
	GeofenceRadiusFeet float64  `json:"geofence_radius_feet"`
	Urgent             bool     `json:"urgent"`
	Status             string   `json:"status"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

// [自证通过] internal/dto/request.go
