package model

import (
	"strings"
	"time"
)

// LedgerEntry - 분석이 끝난 알림의 저장 레코드
// 생성 후 변경하지 않는다 (append-only).
type LedgerEntry struct {
	ID             string            `json:"id"`
	Fingerprint    string            `json:"fingerprint"`
	Status         AlertStatus       `json:"status"`
	Severity       Severity          `json:"severity"`
	Labels         map[string]string `json:"labels"`
	Annotations    map[string]string `json:"annotations"`
	ReceivedAt     time.Time         `json:"received_at"`
	AnalysisReport string            `json:"analysis_report"`
	IsDuplicate    bool              `json:"is_duplicate"`
}

// Active - status=firing 이고 중복이 아닌 레코드
func (e LedgerEntry) Active() bool {
	return e.Status == AlertStatusFiring && !e.IsDuplicate
}

// Service - 서비스 식별자 (service, job, app 라벨 순)
func (e LedgerEntry) Service() string {
	return firstNonEmpty(e.Labels["service"], e.Labels["job"], e.Labels["app"])
}

// EffectiveSeverity - 저장된 분류 심각도, 없으면 라벨 값
func (e LedgerEntry) EffectiveSeverity() Severity {
	if e.Severity != "" {
		return e.Severity
	}
	return Severity(strings.ToLower(e.Labels["severity"]))
}

// LedgerFilter - 시간 범위 조회 필터
// Severity는 라벨 값과 대소문자 구분 없이 비교한다.
type LedgerFilter struct {
	Severity          string
	Service           string
	IncludeDuplicates bool
}

// Matches - 필터 조건을 레코드 라벨에 적용
// 서비스는 Service()와 같은 라벨 순서(service, job, app)로 판정한다.
func (f LedgerFilter) Matches(e LedgerEntry) bool {
	if !f.IncludeDuplicates && e.IsDuplicate {
		return false
	}
	if f.Severity != "" && !strings.EqualFold(e.Labels["severity"], f.Severity) {
		return false
	}
	if f.Service != "" && e.Service() != f.Service {
		return false
	}
	return true
}
