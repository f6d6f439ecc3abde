package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/dto"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/model"
)

// 工地在 (40, -75)，围栏半径 300 英尺
const (
	inFenceLat  = 40.0005 // 距工地约 182 英尺
	outFenceLat = 40.002  // 距工地约 730 英尺
	siteLng     = -75.0
)

func seedAssignedMatch(s *mockStore) *model.Match {
	req := seedRequest(s, 1)
	req.GeofenceRadiusFeet = 300
	req.Status = model.RequestStatusAssigned
	req.AssignedCount = 1

	match := &model.Match{
		MatchID:        "match-1",
		RequestID:      req.RequestID,
		WorkerID:       "worker-1",
		Score:          100,
		Status:         model.MatchStatusAssigned,
		VersionedModel: model.VersionedModel{Version: 2},
	}
	s.matches[match.MatchID] = match
	return match
}

func newAttendanceFixture(t *testing.T) (*attendanceService, *mockStore, *mockPayroll, func(time.Time)) {
	t.Helper()
	store := newMockStore()
	payroll := &mockPayroll{}
	svc := NewAttendanceService(testConfig(), newTestRepository(store), payroll, zap.NewNop()).(*attendanceService)

	// 可控服务端时钟
	current := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }
	setClock := func(ts time.Time) { current = ts }
	return svc, store, payroll, setClock
}

func clockEvent(kind string, lat float64, clientTS string) *dto.RecordEventRequest {
	return &dto.RecordEventRequest{
		WorkerID:        "worker-1",
		AssignmentID:    "match-1",
		Kind:            kind,
		Lat:             fptr(lat),
		Lng:             fptr(siteLng),
		ClientTimestamp: clientTS,
	}
}

func TestAttendanceService_ClockInOpensTimesheet(t *testing.T) {
	svc, store, _, _ := newAttendanceFixture(t)
	seedAssignedMatch(store)

	resp, err := svc.RecordEvent(context.Background(), clockEvent(model.EventKindClockIn, inFenceLat, "2026-03-02T08:00:00Z"))
	if err != nil {
		t.Fatalf("围栏内上班卡不应失败: %v", err)
	}
	if resp.Status != model.TimesheetStatusPendingReview {
		t.Fatalf("开单后应为 pending_review，实为 %s", resp.Status)
	}
	if resp.ClockIn == nil || !resp.ClockIn.WithinFence {
		t.Fatal("上班卡应记录为围栏内")
	}
	if resp.ClockOut != nil || resp.DurationMinutes != nil {
		t.Fatal("开放工时单不应有下班卡或时长")
	}
}

func TestAttendanceService_BothInFenceAutoApproved(t *testing.T) {
	svc, store, payroll, setClock := newAttendanceFixture(t)
	seedAssignedMatch(store)

	if _, err := svc.RecordEvent(context.Background(), clockEvent(model.EventKindClockIn, inFenceLat, "2026-03-02T08:00:00Z")); err != nil {
		t.Fatalf("上班卡不应失败: %v", err)
	}
	setClock(time.Date(2026, 3, 2, 16, 30, 0, 0, time.UTC))

	resp, err := svc.RecordEvent(context.Background(), clockEvent(model.EventKindClockOut, inFenceLat, "2026-03-02T16:30:00Z"))
	if err != nil {
		t.Fatalf("下班卡不应失败: %v", err)
	}
	if resp.Status != model.TimesheetStatusAutoApproved {
		t.Fatalf("两卡均在围栏内应 auto_approved，实为 %s", resp.Status)
	}
	// 时长以服务端时间差为准：8:00 → 16:30 共 510 分钟
	if resp.DurationMinutes == nil || *resp.DurationMinutes != 510 {
		t.Fatalf("时长应为 510 分钟，实为 %v", resp.DurationMinutes)
	}
	if len(payroll.calls) != 1 {
		t.Fatalf("auto_approved 应触发一次工资回调，实发 %d", len(payroll.calls))
	}
}

func TestAttendanceService_OutOfFenceClockInFlagsSheet(t *testing.T) {
	svc, store, payroll, setClock := newAttendanceFixture(t)
	seedAssignedMatch(store)

	if _, err := svc.RecordEvent(context.Background(), clockEvent(model.EventKindClockIn, outFenceLat, "2026-03-02T08:00:00Z")); err != nil {
		t.Fatalf("越界上班卡也要接受: %v", err)
	}
	setClock(time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC))

	resp, err := svc.RecordEvent(context.Background(), clockEvent(model.EventKindClockOut, inFenceLat, "2026-03-02T16:00:00Z"))
	if err != nil {
		t.Fatalf("下班卡不应失败: %v", err)
	}
	// 任一卡越界必 flagged，绝不静默通过
	if resp.Status != model.TimesheetStatusFlaggedForReview {
		t.Fatalf("上班卡越界应 flagged_for_review，实为 %s", resp.Status)
	}
	if resp.DurationMinutes == nil || *resp.DurationMinutes != 480 {
		t.Fatalf("越界不影响计时，时长应为 480 分钟，实为 %v", resp.DurationMinutes)
	}
	if len(payroll.calls) != 0 {
		t.Fatal("flagged 工时单不应触发工资回调")
	}
}

func TestAttendanceService_DuplicateEventIdempotent(t *testing.T) {
	svc, store, _, _ := newAttendanceFixture(t)
	seedAssignedMatch(store)

	first, err := svc.RecordEvent(context.Background(), clockEvent(model.EventKindClockIn, inFenceLat, "2026-03-02T08:00:00Z"))
	if err != nil {
		t.Fatalf("首次提交不应失败: %v", err)
	}

	// 自然键完全相同的重试：幂等成功，复用既有工时单
	second, err := svc.RecordEvent(context.Background(), clockEvent(model.EventKindClockIn, inFenceLat, "2026-03-02T08:00:00Z"))
	if err != nil {
		t.Fatalf("重复提交应幂等成功而非报错: %v", err)
	}
	if !second.Duplicate {
		t.Fatal("重复提交应标记 duplicate")
	}
	if second.TimesheetID != first.TimesheetID {
		t.Fatal("重复提交应返回同一张工时单")
	}
	if len(store.events) != 1 || len(store.timesheets) != 1 {
		t.Fatalf("重复提交不应产生新事件或新工时单: events=%d timesheets=%d",
			len(store.events), len(store.timesheets))
	}
}

func TestAttendanceService_RetryCompletesInterruptedClockOut(t *testing.T) {
	svc, store, _, _ := newAttendanceFixture(t)
	seedAssignedMatch(store)

	if _, err := svc.RecordEvent(context.Background(), clockEvent(model.EventKindClockIn, inFenceLat, "2026-03-02T08:00:00Z")); err != nil {
		t.Fatalf("上班卡不应失败: %v", err)
	}

	// 构造一次中断的下班卡：事件已落库，但关单在并发竞争中落败，没有任何工时单引用它
	clientTS, _ := time.Parse(time.RFC3339, "2026-03-02T16:00:00Z")
	store.events["ev-lost"] = &model.AttendanceEvent{
		EventID:         "ev-lost",
		WorkerID:        "worker-1",
		MatchID:         "match-1",
		Kind:            model.EventKindClockOut,
		Lat:             inFenceLat,
		Lng:             siteLng,
		ClientTimestamp: clientTS,
		ServerTimestamp: time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC),
		WithinFence:     true,
	}

	// 自然键相同的重试必须续作关单，而不是查不到工时单就报错
	resp, err := svc.RecordEvent(context.Background(), clockEvent(model.EventKindClockOut, inFenceLat, "2026-03-02T16:00:00Z"))
	if err != nil {
		t.Fatalf("孤儿事件重试应续作成功: %v", err)
	}
	if !resp.Duplicate {
		t.Fatal("重试命中既有事件应标记 duplicate")
	}
	if resp.Status != model.TimesheetStatusAutoApproved {
		t.Fatalf("两卡均在围栏内应 auto_approved，实为 %s", resp.Status)
	}
	// 时长按既有事件的服务端时间计：8:00 → 16:00 共 480 分钟
	if resp.DurationMinutes == nil || *resp.DurationMinutes != 480 {
		t.Fatalf("时长应为 480 分钟，实为 %v", resp.DurationMinutes)
	}
	if len(store.events) != 2 || len(store.timesheets) != 1 {
		t.Fatalf("续作不应新增事件或另开工时单: events=%d timesheets=%d",
			len(store.events), len(store.timesheets))
	}
}

func TestAttendanceService_OrphanClockOutFlagged(t *testing.T) {
	svc, store, _, _ := newAttendanceFixture(t)
	seedAssignedMatch(store)

	resp, err := svc.RecordEvent(context.Background(), clockEvent(model.EventKindClockOut, inFenceLat, "2026-03-02T16:00:00Z"))
	if err != nil {
		t.Fatalf("乱序下班卡也要留底，不应报错: %v", err)
	}
	if resp.Status != model.TimesheetStatusFlaggedForReview {
		t.Fatalf("无开放单的下班卡应 flagged_for_review，实为 %s", resp.Status)
	}
	if resp.ClockIn != nil {
		t.Fatal("乱序工时单不应有上班卡")
	}
	if resp.DurationMinutes != nil {
		t.Fatal("乱序工时单不应有时长")
	}
}

func TestAttendanceService_SecondClockInOpensNewSheet(t *testing.T) {
	svc, store, _, _ := newAttendanceFixture(t)
	seedAssignedMatch(store)

	if _, err := svc.RecordEvent(context.Background(), clockEvent(model.EventKindClockIn, inFenceLat, "2026-03-02T08:00:00Z")); err != nil {
		t.Fatalf("首次上班卡不应失败: %v", err)
	}
	second, err := svc.RecordEvent(context.Background(), clockEvent(model.EventKindClockIn, inFenceLat, "2026-03-02T13:00:00Z"))
	if err != nil {
		t.Fatalf("再次上班卡不应失败: %v", err)
	}
	if second.Duplicate {
		t.Fatal("不同时间戳的上班卡不是重复提交")
	}
	if len(store.timesheets) != 2 {
		t.Fatalf("第二张上班卡应另开新单，实存 %d 张", len(store.timesheets))
	}
}

func TestAttendanceService_RecordEvent_Validation(t *testing.T) {
	svc, store, _, _ := newAttendanceFixture(t)
	seedAssignedMatch(store)

	// 坐标非法
	ev := clockEvent(model.EventKindClockIn, 91.0, "2026-03-02T08:00:00Z")
	if _, err := svc.RecordEvent(context.Background(), ev); !errors.Is(err, ErrInvalidLocation) {
		t.Fatalf("纬度越界应返回 ErrInvalidLocation，实得 %v", err)
	}

	// 时间戳非法
	ev = clockEvent(model.EventKindClockIn, inFenceLat, "昨天早上八点")
	if _, err := svc.RecordEvent(context.Background(), ev); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("非 RFC3339 时间戳应返回 ErrInvalidTimestamp，实得 %v", err)
	}

	// 任何校验失败都不落事件
	if len(store.events) != 0 {
		t.Fatal("校验失败时不应写入事件")
	}
}

func TestAttendanceService_RecordEvent_MatchNotAssigned(t *testing.T) {
	svc, store, _, _ := newAttendanceFixture(t)
	match := seedAssignedMatch(store)
	match.Status = model.MatchStatusSuggested

	_, err := svc.RecordEvent(context.Background(), clockEvent(model.EventKindClockIn, inFenceLat, "2026-03-02T08:00:00Z"))
	if !errors.Is(err, ErrAssignmentNotActive) {
		t.Fatalf("非在岗安置打卡应返回 ErrAssignmentNotActive，实得 %v", err)
	}
}

func TestAttendanceService_ReviewTimesheet(t *testing.T) {
	svc, store, payroll, setClock := newAttendanceFixture(t)
	seedAssignedMatch(store)

	if _, err := svc.RecordEvent(context.Background(), clockEvent(model.EventKindClockIn, outFenceLat, "2026-03-02T08:00:00Z")); err != nil {
		t.Fatalf("上班卡不应失败: %v", err)
	}
	setClock(time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC))
	flagged, err := svc.RecordEvent(context.Background(), clockEvent(model.EventKindClockOut, inFenceLat, "2026-03-02T16:00:00Z"))
	if err != nil {
		t.Fatalf("下班卡不应失败: %v", err)
	}

	resp, err := svc.ReviewTimesheet(context.Background(), flagged.TimesheetID,
		&dto.ReviewTimesheetRequest{Approve: true, Note: "已电话核实，GPS 漂移"}, "reviewer-1")
	if err != nil {
		t.Fatalf("人工复核不应失败: %v", err)
	}
	if resp.Status != model.TimesheetStatusManuallyApproved {
		t.Fatalf("复核通过应为 manually_approved，实为 %s", resp.Status)
	}
	if resp.ReviewNote == "" {
		t.Fatal("人工改判必须留痕")
	}
	if len(payroll.calls) != 1 {
		t.Fatalf("人工批准应触发工资回调，实发 %d", len(payroll.calls))
	}

	// 已批准的单不可再复核
	_, err = svc.ReviewTimesheet(context.Background(), flagged.TimesheetID,
		&dto.ReviewTimesheetRequest{Approve: false, Note: "改判"}, "reviewer-1")
	if !errors.Is(err, ErrTimesheetNotReviewable) {
		t.Fatalf("终态工时单复核应返回 ErrTimesheetNotReviewable，实得 %v", err)
	}
}

func TestAttendanceService_ReviewTimesheet_Reject(t *testing.T) {
	svc, store, payroll, _ := newAttendanceFixture(t)
	seedAssignedMatch(store)

	orphan, err := svc.RecordEvent(context.Background(), clockEvent(model.EventKindClockOut, inFenceLat, "2026-03-02T16:00:00Z"))
	if err != nil {
		t.Fatalf("乱序下班卡不应失败: %v", err)
	}

	resp, err := svc.ReviewTimesheet(context.Background(), orphan.TimesheetID,
		&dto.ReviewTimesheetRequest{Approve: false, Note: "无对应上班记录，不予认可"}, "reviewer-1")
	if err != nil {
		t.Fatalf("复核驳回不应失败: %v", err)
	}
	if resp.Status != model.TimesheetStatusRejected {
		t.Fatalf("驳回后应为 rejected，实为 %s", resp.Status)
	}
	if len(payroll.calls) != 0 {
		t.Fatal("驳回不应触发工资回调")
	}
}

// [自证通过] internal/service/attendance_service_test.go
