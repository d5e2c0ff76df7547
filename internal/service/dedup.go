package service

import (
	"context"
	"time"
)

// DefaultDedupWindow - 중복 판정 기본 구간
const DefaultDedupWindow = 60 * time.Minute

// AlertDeduplicator - 같은 fingerprint가 구간 안에 이미 기록되었는지 판정 (읽기 전용)
type AlertDeduplicator struct {
	ledger AlertLedger
	window time.Duration
	now    func() time.Time
}

func NewAlertDeduplicator(ledger AlertLedger, windowMinutes int) *AlertDeduplicator {
	window := DefaultDedupWindow
	if windowMinutes > 0 {
		window = time.Duration(windowMinutes) * time.Minute
	}
	return &AlertDeduplicator{ledger: ledger, window: window, now: time.Now}
}

// IsDuplicate - [now-window, now] 안에 같은 fingerprint 레코드가 하나라도 있으면 true
// windowMinutes가 0 이하면 기본 구간을 사용한다. 빈 fingerprint는 중복이 아니다.
func (d *AlertDeduplicator) IsDuplicate(ctx context.Context, fingerprint string, windowMinutes int) (bool, error) {
	if fingerprint == "" {
		return false, nil
	}

	window := d.window
	if windowMinutes > 0 {
		window = time.Duration(windowMinutes) * time.Minute
	}

	now := d.now()
	entries, err := d.ledger.QueryByFingerprint(ctx, fingerprint, now.Add(-window))
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if !e.ReceivedAt.After(now) {
			return true, nil
		}
	}
	return false, nil
}
