package handler

import "github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Request    *RequestHandler
	Match      *MatchHandler
	Attendance *AttendanceHandler
	Deadline   *DeadlineHandler
	Conversion *ConversionHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Request:    NewRequestHandler(svc.Request),
		Match:      NewMatchHandler(svc.Matching),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Deadline:   NewDeadlineHandler(svc.Deadline),
		Conversion: NewConversionHandler(svc.Conversion),
	}
}

// [自证通过] internal/api/handler/handler.go
