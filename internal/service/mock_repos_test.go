package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/config"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/model"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/repository"
	pkgerrors "github.com/cryptocreeper94-sudo/orbitstaffing-sub005/pkg/errors"
)

// ── 内存版仓储，行为对齐 SQL 实现的条件更新语义 ──

type mockStore struct {
	mu          sync.Mutex
	requests    map[string]*model.StaffingRequest
	matches     map[string]*model.Match
	deadlines   map[string]*model.OnboardingDeadline
	events      map[string]*model.AttendanceEvent
	timesheets  map[string]*model.Timesheet
	conversions map[string]*model.ConversionRequest
	seq         int // 单调递增，模拟 created_at 排序
}

func newMockStore() *mockStore {
	return &mockStore{
		requests:    make(map[string]*model.StaffingRequest),
		matches:     make(map[string]*model.Match),
		deadlines:   make(map[string]*model.OnboardingDeadline),
		events:      make(map[string]*model.AttendanceEvent),
		timesheets:  make(map[string]*model.Timesheet),
		conversions: make(map[string]*model.ConversionRequest),
	}
}

func fptr(v float64) *float64 { return &v }

func (s *mockStore) nextTime() time.Time {
	s.seq++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Second)
}

func newTestRepository(s *mockStore) *repository.Repository {
	return &repository.Repository{
		Request:    &mockRequestRepo{s: s},
		Match:      &mockMatchRepo{s: s},
		Deadline:   &mockDeadlineRepo{s: s},
		Attendance: &mockAttendanceRepo{s: s},
		Conversion: &mockConversionRepo{s: s},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Policy: config.PolicyConfig{
			GeofenceRadiusFeet:      300,
			ProximityRadiusFeet:     132000,
			ApplicationDeadlineDays: 3,
			EquipmentDeadlineDays:   2,
			ScoreConcurrency:        4,
			SweepInterval:           time.Hour,
		},
	}
}

// ── RequestRepository ──

type mockRequestRepo struct{ s *mockStore }

func (r *mockRequestRepo) Create(_ context.Context, req *model.StaffingRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	req.CreatedAt = r.s.nextTime()
	req.UpdatedAt = req.CreatedAt
	cp := *req
	r.s.requests[req.RequestID] = &cp
	return nil
}

func (r *mockRequestRepo) GetByID(_ context.Context, id string) (*model.StaffingRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *mockRequestRepo) List(_ context.Context, status string, offset, limit int) ([]model.StaffingRequest, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []model.StaffingRequest
	for _, req := range r.s.requests {
		if status == "" || req.Status == status {
			all = append(all, *req)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *mockRequestRepo) Update(_ context.Context, req *model.StaffingRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.requests[req.RequestID]
	if !ok || stored.Version != req.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = req.Status
	stored.Headcount = req.Headcount
	stored.Urgent = req.Urgent
	stored.UpdatedBy = req.UpdatedBy
	stored.Version++
	req.Version = stored.Version
	return nil
}

// ── MatchRepository ──

type mockMatchRepo struct{ s *mockStore }

func (r *mockMatchRepo) GetByID(_ context.Context, id string) (*model.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	if req, ok := r.s.requests[m.RequestID]; ok {
		reqCp := *req
		cp.Request = &reqCp
	}
	return &cp, nil
}

func (r *mockMatchRepo) ListByRequest(_ context.Context, requestID string, status string) ([]model.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Match
	for _, m := range r.s.matches {
		if m.RequestID != requestID {
			continue
		}
		if status != "" && m.Status != status {
			continue
		}
		out = append(out, *m)
	}
	rankMatches(out)
	return out, nil
}

func (r *mockMatchRepo) ReplaceSuggested(_ context.Context, requestID string, matches []model.Match) ([]model.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, m := range r.s.matches {
		if m.RequestID == requestID && m.Status == model.MatchStatusSuggested {
			delete(r.s.matches, id)
		}
	}
	// (request_id, worker_id) 唯一键：审计保留的 assigned / rejected 行占位，同工人跳过
	held := make(map[string]struct{})
	for _, m := range r.s.matches {
		if m.RequestID == requestID {
			held[m.WorkerID] = struct{}{}
		}
	}
	kept := make([]model.Match, 0, len(matches))
	for i := range matches {
		if _, ok := held[matches[i].WorkerID]; ok {
			continue
		}
		held[matches[i].WorkerID] = struct{}{}
		if matches[i].MatchID == "" {
			matches[i].MatchID = uuid.NewString()
		}
		matches[i].CreatedAt = r.s.nextTime()
		matches[i].UpdatedAt = matches[i].CreatedAt
		cp := matches[i]
		r.s.matches[cp.MatchID] = &cp
		kept = append(kept, cp)
	}
	if len(kept) > 0 {
		if req, ok := r.s.requests[requestID]; ok && req.Status == model.RequestStatusPending {
			req.Status = model.RequestStatusMatched
		}
	}
	return kept, nil
}

func (r *mockMatchRepo) Assign(_ context.Context, match *model.Match, deadline *model.OnboardingDeadline) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[match.RequestID]
	if !ok || req.AssignedCount >= req.Headcount ||
		(req.Status != model.RequestStatusPending && req.Status != model.RequestStatusMatched) {
		return pkgerrors.ErrHeadcountFilled
	}

	stored, ok := r.s.matches[match.MatchID]
	if !ok || stored.Status != model.MatchStatusSuggested || stored.Version != match.Version {
		return pkgerrors.ErrOptimisticLock
	}

	req.AssignedCount++
	stored.Status = model.MatchStatusAssigned
	stored.UpdatedBy = match.UpdatedBy
	stored.Version++

	if deadline.DeadlineID == "" {
		deadline.DeadlineID = uuid.NewString()
	}
	deadline.CreatedAt = r.s.nextTime()
	deadline.UpdatedAt = deadline.CreatedAt
	cp := *deadline
	r.s.deadlines[cp.DeadlineID] = &cp

	if req.AssignedCount >= req.Headcount {
		req.Status = model.RequestStatusAssigned
	}

	match.Status = model.MatchStatusAssigned
	match.Version = stored.Version
	return nil
}

func (r *mockMatchRepo) Unassign(_ context.Context, match *model.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.matches[match.MatchID]
	if !ok || stored.Status != model.MatchStatusAssigned || stored.Version != match.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = model.MatchStatusSuggested
	stored.UpdatedBy = match.UpdatedBy
	stored.Version++

	if req, ok := r.s.requests[match.RequestID]; ok {
		if req.AssignedCount > 0 {
			req.AssignedCount--
		}
		if req.Status == model.RequestStatusAssigned {
			req.Status = model.RequestStatusMatched
		}
	}

	match.Status = model.MatchStatusSuggested
	match.Version = stored.Version
	return nil
}

func (r *mockMatchRepo) Reject(_ context.Context, match *model.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.matches[match.MatchID]
	if !ok || stored.Status != model.MatchStatusSuggested || stored.Version != match.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = model.MatchStatusRejected
	stored.RejectReason = match.RejectReason
	stored.UpdatedBy = match.UpdatedBy
	stored.Version++
	match.Status = model.MatchStatusRejected
	match.Version = stored.Version
	return nil
}

// ── DeadlineRepository ──

type mockDeadlineRepo struct{ s *mockStore }

func (r *mockDeadlineRepo) Create(_ context.Context, d *model.OnboardingDeadline) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if d.DeadlineID == "" {
		d.DeadlineID = uuid.NewString()
	}
	d.CreatedAt = r.s.nextTime()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	r.s.deadlines[d.DeadlineID] = &cp
	return nil
}

func (r *mockDeadlineRepo) GetByID(_ context.Context, id string) (*model.OnboardingDeadline, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.deadlines[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *mockDeadlineRepo) ListByMatch(_ context.Context, matchID string) ([]model.OnboardingDeadline, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.OnboardingDeadline
	for _, d := range r.s.deadlines {
		if d.MatchID == matchID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *mockDeadlineRepo) ListDueOpen(_ context.Context, now time.Time) ([]model.OnboardingDeadline, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.OnboardingDeadline
	for _, d := range r.s.deadlines {
		if d.Status != model.DeadlineStatusOpen || d.DueAt.After(now) {
			continue
		}
		cp := *d
		if m, ok := r.s.matches[d.MatchID]; ok {
			mCp := *m
			cp.Match = &mCp
		}
		out = append(out, cp)
	}
	return out, nil
}

func (r *mockDeadlineRepo) flip(id, target string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.deadlines[id]
	if !ok || d.Status != model.DeadlineStatusOpen {
		return false, nil
	}
	d.Status = target
	d.Version++
	return true, nil
}

func (r *mockDeadlineRepo) Escalate(_ context.Context, id string) (bool, error) {
	return r.flip(id, model.DeadlineStatusEscalated)
}

func (r *mockDeadlineRepo) MarkExpired(_ context.Context, id string) (bool, error) {
	return r.flip(id, model.DeadlineStatusExpired)
}

func (r *mockDeadlineRepo) MarkMet(_ context.Context, id string) (bool, error) {
	return r.flip(id, model.DeadlineStatusMet)
}

// ── AttendanceRepository ──

type mockAttendanceRepo struct{ s *mockStore }

func (r *mockAttendanceRepo) InsertEvent(_ context.Context, ev *model.AttendanceEvent) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.events {
		if e.WorkerID == ev.WorkerID && e.MatchID == ev.MatchID &&
			e.Kind == ev.Kind && e.ClientTimestamp.Equal(ev.ClientTimestamp) {
			return false, nil
		}
	}
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	ev.CreatedAt = r.s.nextTime()
	cp := *ev
	r.s.events[ev.EventID] = &cp
	return true, nil
}

func (r *mockAttendanceRepo) GetEventByNaturalKey(_ context.Context, ev *model.AttendanceEvent) (*model.AttendanceEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.events {
		if e.WorkerID == ev.WorkerID && e.MatchID == ev.MatchID &&
			e.Kind == ev.Kind && e.ClientTimestamp.Equal(ev.ClientTimestamp) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockAttendanceRepo) CreateTimesheet(_ context.Context, ts *model.Timesheet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if ts.TimesheetID == "" {
		ts.TimesheetID = uuid.NewString()
	}
	if ts.Version == 0 {
		ts.Version = 1
	}
	ts.CreatedAt = r.s.nextTime()
	ts.UpdatedAt = ts.CreatedAt
	cp := *ts
	r.s.timesheets[ts.TimesheetID] = &cp
	return nil
}

func (r *mockAttendanceRepo) withEvents(ts *model.Timesheet) *model.Timesheet {
	cp := *ts
	if cp.ClockInEventID != nil {
		if e, ok := r.s.events[*cp.ClockInEventID]; ok {
			eCp := *e
			cp.ClockIn = &eCp
		}
	}
	if cp.ClockOutEventID != nil {
		if e, ok := r.s.events[*cp.ClockOutEventID]; ok {
			eCp := *e
			cp.ClockOut = &eCp
		}
	}
	return &cp
}

func (r *mockAttendanceRepo) GetTimesheetByID(_ context.Context, id string) (*model.Timesheet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ts, ok := r.s.timesheets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withEvents(ts), nil
}

func (r *mockAttendanceRepo) GetTimesheetByEventID(_ context.Context, eventID string) (*model.Timesheet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, ts := range r.s.timesheets {
		if (ts.ClockInEventID != nil && *ts.ClockInEventID == eventID) ||
			(ts.ClockOutEventID != nil && *ts.ClockOutEventID == eventID) {
			return r.withEvents(ts), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockAttendanceRepo) GetOpenTimesheet(_ context.Context, workerID, matchID string) (*model.Timesheet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var oldest *model.Timesheet
	for _, ts := range r.s.timesheets {
		if ts.WorkerID != workerID || ts.MatchID != matchID {
			continue
		}
		if ts.ClockOutEventID != nil || ts.ClockInEventID == nil {
			continue
		}
		if oldest == nil || ts.CreatedAt.Before(oldest.CreatedAt) {
			oldest = ts
		}
	}
	if oldest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withEvents(oldest), nil
}

func (r *mockAttendanceRepo) CloseTimesheet(_ context.Context, ts *model.Timesheet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.timesheets[ts.TimesheetID]
	if !ok || stored.ClockOutEventID != nil || stored.Version != ts.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.ClockOutEventID = ts.ClockOutEventID
	stored.ClockOutInFence = ts.ClockOutInFence
	stored.DurationMinutes = ts.DurationMinutes
	stored.Status = ts.Status
	stored.Version++
	ts.Version = stored.Version
	return nil
}

func (r *mockAttendanceRepo) UpdateTimesheetStatus(_ context.Context, ts *model.Timesheet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.timesheets[ts.TimesheetID]
	if !ok || stored.Version != ts.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = ts.Status
	stored.ReviewNote = ts.ReviewNote
	stored.UpdatedBy = ts.UpdatedBy
	stored.Version++
	ts.Version = stored.Version
	return nil
}

func (r *mockAttendanceRepo) ListTimesheets(_ context.Context, matchID, status string, offset, limit int) ([]model.Timesheet, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Timesheet
	for _, ts := range r.s.timesheets {
		if matchID != "" && ts.MatchID != matchID {
			continue
		}
		if status != "" && ts.Status != status {
			continue
		}
		out = append(out, *r.withEvents(ts))
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (r *mockAttendanceRepo) SumApprovedMinutes(_ context.Context, matchID string) (float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total float64
	for _, ts := range r.s.timesheets {
		if ts.MatchID != matchID || ts.DurationMinutes == nil {
			continue
		}
		if ts.Status == model.TimesheetStatusAutoApproved || ts.Status == model.TimesheetStatusManuallyApproved {
			total += *ts.DurationMinutes
		}
	}
	return total, nil
}

// ── ConversionRepository ──

type mockConversionRepo struct{ s *mockStore }

func (r *mockConversionRepo) Create(_ context.Context, conv *model.ConversionRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if conv.ConversionID == "" {
		conv.ConversionID = uuid.NewString()
	}
	conv.CreatedAt = r.s.nextTime()
	conv.UpdatedAt = conv.CreatedAt
	cp := *conv
	r.s.conversions[conv.ConversionID] = &cp
	return nil
}

func (r *mockConversionRepo) GetByID(_ context.Context, id string) (*model.ConversionRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	conv, ok := r.s.conversions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *conv
	return &cp, nil
}

func (r *mockConversionRepo) GetLiveByMatch(_ context.Context, matchID string) (*model.ConversionRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, conv := range r.s.conversions {
		if conv.MatchID != matchID {
			continue
		}
		if conv.Status == model.ConversionStatusPending || conv.Status == model.ConversionStatusApproved {
			cp := *conv
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockConversionRepo) ListByMatch(_ context.Context, matchID string) ([]model.ConversionRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.ConversionRequest
	for _, conv := range r.s.conversions {
		if conv.MatchID == matchID {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (r *mockConversionRepo) Update(_ context.Context, conv *model.ConversionRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.conversions[conv.ConversionID]
	if !ok || stored.Version != conv.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.WorkerApproved = conv.WorkerApproved
	stored.ClientApproved = conv.ClientApproved
	stored.OperatorApproved = conv.OperatorApproved
	stored.PaymentReference = conv.PaymentReference
	stored.DeclineReason = conv.DeclineReason
	stored.Status = conv.Status
	stored.UpdatedBy = conv.UpdatedBy
	stored.Version++
	conv.Version = stored.Version
	return nil
}

// ── 协作方桩 ──

type mockDirectory struct {
	workers []model.WorkerProfile
	err     error
}

func (d *mockDirectory) FindEligibleWorkers(_ context.Context, _ string) ([]model.WorkerProfile, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.workers, nil
}

type notifyCall struct {
	Recipient string
	Template  string
	Data      map[string]interface{}
}

type mockNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (n *mockNotifier) Notify(_ context.Context, recipient, template string, data map[string]interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{Recipient: recipient, Template: template, Data: data})
	return nil
}

func (n *mockNotifier) count(template string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, call := range n.calls {
		if call.Template == template {
			c++
		}
	}
	return c
}

type mockPayroll struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (p *mockPayroll) OnTimesheetApproved(_ context.Context, timesheetID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, timesheetID)
	return p.err
}

// [自证通过] internal/service/mock_repos_test.go
