package service

import (
	"sort"

	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/model"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/pkg/geo"
)

// ── 计分权重（固定业务常量，满分 100）──

const (
	weightSkills       = 40
	weightAvailability = 20
	weightInsurance    = 15
	weightLocation     = 15
	weightExperience   = 10

	// 经验维度达标线：2 级（熟手）及以上
	experienceLevelThreshold = 2
)

// ── 原因码（稳定字符串，供前端逐项展示勾叉）──

const (
	ReasonSkillsComplete    = "skills_complete"
	ReasonSkillsNotRequired = "skills_not_required"
	ReasonMissingSkills     = "missing_skills"
	ReasonAvailable         = "available_on_start"
	ReasonUnavailable       = "unavailable_on_start"
	ReasonInsured           = "insurance_active"
	ReasonUninsured         = "insurance_inactive"
	ReasonNearby            = "within_proximity"
	ReasonOutsideProximity  = "outside_proximity"
	ReasonExperienced       = "experience_sufficient"
	ReasonInexperienced     = "experience_insufficient"
)

// ScoreWorker 对一对（需求, 工人快照）计分
// 纯函数：不做 I/O，不改输入。五项维度独立判定、全有或全无。
// proximityRadiusFeet 是计分用通勤半径，与考勤围栏半径无关。
func ScoreWorker(req *model.StaffingRequest, w *model.WorkerProfile, proximityRadiusFeet float64) (int, model.MatchCriteria, []string) {
	var criteria model.MatchCriteria
	score := 0
	reasons := make([]string, 0, 5)

	// 技能：要求的每个标签都必须具备；无要求视为天然达标
	if len(req.SkillTags) == 0 {
		criteria.Skills = true
		score += weightSkills
		reasons = append(reasons, ReasonSkillsNotRequired)
	} else {
		allMatched := true
		for _, tag := range req.SkillTags {
			if !w.HasSkill(tag) {
				allMatched = false
				break
			}
		}
		criteria.Skills = allMatched
		if allMatched {
			score += weightSkills
			reasons = append(reasons, ReasonSkillsComplete)
		} else {
			reasons = append(reasons, ReasonMissingSkills)
		}
	}

	// 可上工时间：开工日必须落在某个可用窗口内
	if w.AvailableOn(req.StartDate) {
		criteria.Availability = true
		score += weightAvailability
		reasons = append(reasons, ReasonAvailable)
	} else {
		reasons = append(reasons, ReasonUnavailable)
	}

	// 保险
	if w.InsuranceActive {
		criteria.Insurance = true
		score += weightInsurance
		reasons = append(reasons, ReasonInsured)
	} else {
		reasons = append(reasons, ReasonUninsured)
	}

	// 通勤距离：家庭住址落在需求地点的通勤半径内
	if within, _ := geo.Evaluate(w.HomeLat, w.HomeLng, req.SiteLat, req.SiteLng, proximityRadiusFeet); within {
		criteria.Location = true
		score += weightLocation
		reasons = append(reasons, ReasonNearby)
	} else {
		reasons = append(reasons, ReasonOutsideProximity)
	}

	// 经验
	if w.ExperienceLevel >= experienceLevelThreshold {
		criteria.Experience = true
		score += weightExperience
		reasons = append(reasons, ReasonExperienced)
	} else {
		reasons = append(reasons, ReasonInexperienced)
	}

	return score, criteria, reasons
}

// rankMatches 确定性排序：总分降序 → 经验降序 → 工人 ID 升序
// 并发计分的汇入顺序不稳定，持久化前必须先排定
func rankMatches(matches []model.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].ExperienceLevel != matches[j].ExperienceLevel {
			return matches[i].ExperienceLevel > matches[j].ExperienceLevel
		}
		return matches[i].WorkerID < matches[j].WorkerID
	})
}

// [自证通过] internal/service/match_scorer.go
