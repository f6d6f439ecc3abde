package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/dto"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/model"
	pkgerrors "github.com/cryptocreeper94-sudo/orbitstaffing-sub005/pkg/errors"
)

func seedRequest(s *mockStore, headcount int) *model.StaffingRequest {
	req := &model.StaffingRequest{
		RequestID: "req-1",
		ClientID:  "client-1",
		Title:     "仓库装卸",
		SkillTags: model.StringArray{"forklift"},
		Headcount: headcount,
		StartDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		SiteLat:   40.0,
		SiteLng:   -75.0,
		Status:    model.RequestStatusPending,
		VersionedModel: model.VersionedModel{
			Version: 1,
			BaseModel: model.BaseModel{
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			},
		},
	}
	s.requests[req.RequestID] = req
	return req
}

func eligibleWorker(id string, experience int) model.WorkerProfile {
	w := perfectWorker(id)
	w.SkillTags = []string{"forklift"}
	w.ExperienceLevel = experience
	return w
}

func newMatchingFixture(dir *mockDirectory) (MatchingService, *mockStore, *mockNotifier) {
	store := newMockStore()
	notifier := &mockNotifier{}
	svc := NewMatchingService(testConfig(), newTestRepository(store), dir, notifier, zap.NewNop())
	return svc, store, notifier
}

func TestMatchingService_GenerateMatches_RankedAndIdempotent(t *testing.T) {
	dir := &mockDirectory{workers: []model.WorkerProfile{
		eligibleWorker("w-b", 4),
		eligibleWorker("w-a", 4),
		eligibleWorker("w-c", 1),
	}}
	svc, store, _ := newMatchingFixture(dir)
	seedRequest(store, 2)

	first, err := svc.GenerateMatches(context.Background(), "req-1", "op-1")
	if err != nil {
		t.Fatalf("生成匹配不应失败: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("应生成 3 条匹配，实得 %d", len(first))
	}
	// 同分按经验降序再按工人 ID 升序
	if first[0].WorkerID != "w-a" || first[1].WorkerID != "w-b" || first[2].WorkerID != "w-c" {
		t.Fatalf("排序不符: %s %s %s", first[0].WorkerID, first[1].WorkerID, first[2].WorkerID)
	}

	// 重复生成替换旧建议，不叠加
	second, err := svc.GenerateMatches(context.Background(), "req-1", "op-1")
	if err != nil {
		t.Fatalf("重复生成不应失败: %v", err)
	}
	if len(second) != 3 {
		t.Fatalf("重复生成后应仍是 3 条，实得 %d", len(second))
	}
	if len(store.matches) != 3 {
		t.Fatalf("仓储中建议匹配应被替换而非叠加，实存 %d 条", len(store.matches))
	}
	if store.requests["req-1"].Status != model.RequestStatusMatched {
		t.Fatalf("生成建议后需求应进入 matched，实为 %s", store.requests["req-1"].Status)
	}
}

func TestMatchingService_GenerateMatches_RegenerateKeepsAuditRows(t *testing.T) {
	dir := &mockDirectory{workers: []model.WorkerProfile{
		eligibleWorker("w-1", 3),
		eligibleWorker("w-2", 3),
		eligibleWorker("w-3", 3),
	}}
	svc, store, _ := newMatchingFixture(dir)
	seedRequest(store, 2)

	suggestions, err := svc.GenerateMatches(context.Background(), "req-1", "op-1")
	if err != nil {
		t.Fatalf("生成匹配不应失败: %v", err)
	}
	if _, err := svc.AssignMatch(context.Background(), suggestions[0].MatchID, "op-1"); err != nil {
		t.Fatalf("派工不应失败: %v", err)
	}
	if _, err := svc.RejectMatch(context.Background(), suggestions[1].MatchID,
		&dto.RejectMatchRequest{Reason: "客户指名不要"}, "op-1"); err != nil {
		t.Fatalf("拒绝不应失败: %v", err)
	}

	// 目录仍返回全部三人：已派工 / 已拒绝的工人占用唯一键，重生成必须跳过而非撞约束
	regen, err := svc.GenerateMatches(context.Background(), "req-1", "op-1")
	if err != nil {
		t.Fatalf("派工与拒绝之后重生成不应失败: %v", err)
	}
	if len(regen) != 1 || regen[0].WorkerID != "w-3" {
		t.Fatalf("重生成应只重建无审计记录的工人建议: %+v", regen)
	}

	var assigned, rejected, suggested int
	pairs := make(map[string]int)
	for _, m := range store.matches {
		pairs[m.RequestID+"/"+m.WorkerID]++
		switch m.Status {
		case model.MatchStatusAssigned:
			assigned++
		case model.MatchStatusRejected:
			rejected++
		case model.MatchStatusSuggested:
			suggested++
		}
	}
	if assigned != 1 || rejected != 1 || suggested != 1 {
		t.Fatalf("审计行应原样保留: assigned=%d rejected=%d suggested=%d", assigned, rejected, suggested)
	}
	for pair, n := range pairs {
		if n > 1 {
			t.Fatalf("同一 (需求, 工人) 不应存在多条匹配: %s 共 %d 条", pair, n)
		}
	}
}

func TestMatchingService_GenerateMatches_FiltersConductFlagged(t *testing.T) {
	flagged := eligibleWorker("w-bad", 5)
	flagged.ConductFlagged = true
	dir := &mockDirectory{workers: []model.WorkerProfile{flagged, eligibleWorker("w-ok", 3)}}
	svc, store, _ := newMatchingFixture(dir)
	seedRequest(store, 1)

	matches, err := svc.GenerateMatches(context.Background(), "req-1", "op-1")
	if err != nil {
		t.Fatalf("生成匹配不应失败: %v", err)
	}
	if len(matches) != 1 || matches[0].WorkerID != "w-ok" {
		t.Fatalf("有品行标记的工人不应进入计分: %+v", matches)
	}
}

func TestMatchingService_GenerateMatches_DirectoryDown(t *testing.T) {
	dir := &mockDirectory{err: pkgerrors.ErrDownstreamUnavailable}
	svc, store, _ := newMatchingFixture(dir)
	seedRequest(store, 1)

	_, err := svc.GenerateMatches(context.Background(), "req-1", "op-1")
	if !errors.Is(err, pkgerrors.ErrDownstreamUnavailable) {
		t.Fatalf("人才目录不可用必须立刻失败，实得 %v", err)
	}
	if len(store.matches) != 0 {
		t.Fatal("目录失败时不应落任何部分结果")
	}
}

func TestMatchingService_AssignMatch_HeadcountEnforced(t *testing.T) {
	dir := &mockDirectory{workers: []model.WorkerProfile{
		eligibleWorker("w-1", 3),
		eligibleWorker("w-2", 3),
		eligibleWorker("w-3", 3),
		eligibleWorker("w-4", 2),
		eligibleWorker("w-5", 2),
	}}
	svc, store, notifier := newMatchingFixture(dir)
	seedRequest(store, 2)

	suggestions, err := svc.GenerateMatches(context.Background(), "req-1", "op-1")
	if err != nil {
		t.Fatalf("生成匹配不应失败: %v", err)
	}

	// 前两个派工成功
	for i := 0; i < 2; i++ {
		resp, err := svc.AssignMatch(context.Background(), suggestions[i].MatchID, "op-1")
		if err != nil {
			t.Fatalf("第 %d 次派工不应失败: %v", i+1, err)
		}
		if resp.Status != model.MatchStatusAssigned {
			t.Fatalf("派工后匹配应为 assigned，实为 %s", resp.Status)
		}
	}

	// 第三个必须被人头上限拒绝
	_, err = svc.AssignMatch(context.Background(), suggestions[2].MatchID, "op-1")
	if !errors.Is(err, pkgerrors.ErrHeadcountFilled) {
		t.Fatalf("超出人头上限应返回 ErrHeadcountFilled，实得 %v", err)
	}

	req := store.requests["req-1"]
	if req.AssignedCount != 2 {
		t.Fatalf("已派人数应恒等于 2，实为 %d", req.AssignedCount)
	}
	if req.Status != model.RequestStatusAssigned {
		t.Fatalf("满员后需求应进入 assigned，实为 %s", req.Status)
	}

	// 每次派工伴随恰好一个 application 期限
	deadlines := 0
	for _, d := range store.deadlines {
		if d.Kind == model.DeadlineKindApplication && d.Status == model.DeadlineStatusOpen {
			deadlines++
		}
	}
	if deadlines != 2 {
		t.Fatalf("两次派工应创建 2 个入职申请期限，实存 %d", deadlines)
	}

	if notifier.count("match_assigned") != 2 {
		t.Fatalf("应发出 2 条派工通知，实发 %d", notifier.count("match_assigned"))
	}
}

func TestMatchingService_AssignMatch_ConcurrentHeadcount(t *testing.T) {
	dir := &mockDirectory{workers: []model.WorkerProfile{
		eligibleWorker("w-1", 3),
		eligibleWorker("w-2", 3),
		eligibleWorker("w-3", 3),
		eligibleWorker("w-4", 2),
		eligibleWorker("w-5", 2),
	}}
	svc, store, _ := newMatchingFixture(dir)
	seedRequest(store, 2)

	suggestions, err := svc.GenerateMatches(context.Background(), "req-1", "op-1")
	if err != nil {
		t.Fatalf("生成匹配不应失败: %v", err)
	}

	// 五个建议并发抢两个人头：条件自增保证恰好两个成功
	errs := make(chan error, len(suggestions))
	var wg sync.WaitGroup
	for _, sug := range suggestions {
		wg.Add(1)
		go func(matchID string) {
			defer wg.Done()
			_, err := svc.AssignMatch(context.Background(), matchID, "op-1")
			errs <- err
		}(sug.MatchID)
	}
	wg.Wait()
	close(errs)

	var succeeded, filled int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, pkgerrors.ErrHeadcountFilled):
			filled++
		default:
			t.Fatalf("并发派工只应成功或报人头已满，实得 %v", err)
		}
	}
	if succeeded != 2 || filled != 3 {
		t.Fatalf("人头上限 2 下应恰好 2 成功 3 拒绝，实得成功 %d 拒绝 %d", succeeded, filled)
	}

	req := store.requests["req-1"]
	if req.AssignedCount != 2 {
		t.Fatalf("并发派工后已派人数应恒等于 2，实为 %d", req.AssignedCount)
	}
	if req.Status != model.RequestStatusAssigned {
		t.Fatalf("满员后需求应进入 assigned，实为 %s", req.Status)
	}
}

func TestMatchingService_AssignMatch_OnlySuggested(t *testing.T) {
	dir := &mockDirectory{workers: []model.WorkerProfile{eligibleWorker("w-1", 3)}}
	svc, store, _ := newMatchingFixture(dir)
	seedRequest(store, 1)

	suggestions, _ := svc.GenerateMatches(context.Background(), "req-1", "op-1")
	if _, err := svc.AssignMatch(context.Background(), suggestions[0].MatchID, "op-1"); err != nil {
		t.Fatalf("首次派工不应失败: %v", err)
	}

	// 同一匹配再次派工：状态已非 suggested
	_, err := svc.AssignMatch(context.Background(), suggestions[0].MatchID, "op-1")
	if !errors.Is(err, ErrMatchNotSuggested) {
		t.Fatalf("重复派工应返回 ErrMatchNotSuggested，实得 %v", err)
	}
}

func TestMatchingService_RejectMatch(t *testing.T) {
	dir := &mockDirectory{workers: []model.WorkerProfile{eligibleWorker("w-1", 3)}}
	svc, store, _ := newMatchingFixture(dir)
	seedRequest(store, 1)

	suggestions, _ := svc.GenerateMatches(context.Background(), "req-1", "op-1")
	resp, err := svc.RejectMatch(context.Background(), suggestions[0].MatchID,
		&dto.RejectMatchRequest{Reason: "工人自述时间冲突"}, "op-1")
	if err != nil {
		t.Fatalf("拒绝建议匹配不应失败: %v", err)
	}
	if resp.Status != model.MatchStatusRejected {
		t.Fatalf("拒绝后状态应为 rejected，实为 %s", resp.Status)
	}
	if resp.RejectReason == "" {
		t.Fatal("拒绝原因应保留作审计")
	}

	// 人头不受拒绝影响
	if store.requests["req-1"].AssignedCount != 0 {
		t.Fatal("拒绝匹配不应占用人头")
	}
}

func TestMatchingService_GenerateMatches_CancelledRequest(t *testing.T) {
	dir := &mockDirectory{workers: []model.WorkerProfile{eligibleWorker("w-1", 3)}}
	svc, store, _ := newMatchingFixture(dir)
	req := seedRequest(store, 1)
	req.Status = model.RequestStatusCancelled

	_, err := svc.GenerateMatches(context.Background(), "req-1", "op-1")
	if !errors.Is(err, ErrRequestCancelled) {
		t.Fatalf("已取消需求不可生成匹配，实得 %v", err)
	}
}

// [自证通过] internal/service/matching_service_test.go
