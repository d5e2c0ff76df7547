// Alertmanager 웹훅 페이로드, 정규화된 알림, 분류 결과 구조체를 정의
// handler, service, db, client 레이어에서 공통으로 사용하기 때문에 model 레이어에 별도로 정의

package model

import "time"

// AlertmanagerWebhook - Alertmanager 웹훅 페이로드 (문서화용)
// 실제 수신은 camelCase/snake_case 혼용을 허용하기 위해 map으로 받아 정규화한다.
type AlertmanagerWebhook struct {
	Version  string `json:"version"`
	GroupKey string `json:"groupKey"`
	Status   string `json:"status"`
	Receiver string `json:"receiver"`

	// 개별 알림 리스트
	Alerts []Alert `json:"alerts"`
}

// AlertStatus - 알림 상태
type AlertStatus string

const (
	AlertStatusFiring   AlertStatus = "firing"
	AlertStatusResolved AlertStatus = "resolved"
)

// Alert - 정규화된 개별 알림
// Fingerprint는 알림 소스가 부여한 값이며 이 시스템에서 다시 계산하지 않는다.
type Alert struct {
	// firing | resolved, 값이 없으면 빈 문자열
	Status AlertStatus `json:"status"`

	// - alertname, severity, service, instance 등
	Labels map[string]string `json:"labels"`

	// - summary, description, runbook_url 등
	Annotations map[string]string `json:"annotations"`

	// 값이 없거나 "0001-01-01T00:00:00Z"이면 nil
	StartsAt *time.Time `json:"startsAt,omitempty"`
	EndsAt   *time.Time `json:"endsAt,omitempty"`

	GeneratorURL string `json:"generatorURL,omitempty"`
	Fingerprint  string `json:"fingerprint"`
}

// Severity - 분류된 심각도
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Severities - 심각도 순서 (높은 것부터)
var Severities = []Severity{SeverityCritical, SeverityMajor, SeverityMinor, SeverityWarning, SeverityInfo}

// Valid - 닫힌 심각도 집합에 속하는지 확인
func (s Severity) Valid() bool {
	for _, v := range Severities {
		if s == v {
			return true
		}
	}
	return false
}

// Timeframe - 알림 발생/종료 구간
type Timeframe struct {
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

// AlertContext - 시스템이 직접 다루는 라벨/어노테이션을 이름 있는 필드로 승격한 구조체
// 나머지 라벨은 Extra에 그대로 보존한다.
type AlertContext struct {
	Service     string            `json:"service,omitempty"`
	Instance    string            `json:"instance,omitempty"`
	AlertName   string            `json:"alertname,omitempty"`
	Severity    string            `json:"severity,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	Description string            `json:"description,omitempty"`
	Timeframe   Timeframe         `json:"timeframe"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// knownContextLabels - AlertContext의 이름 있는 필드로 옮겨지는 라벨 키
var knownContextLabels = map[string]struct{}{
	"service":   {},
	"instance":  {},
	"alertname": {},
	"severity":  {},
}

// NewAlertContext - 알림에서 AlertContext를 만든다.
// service 라벨이 없으면 job, app 순서로 대체한다.
func NewAlertContext(alert Alert) AlertContext {
	ctx := AlertContext{
		Service:     firstNonEmpty(alert.Labels["service"], alert.Labels["job"], alert.Labels["app"]),
		Instance:    alert.Labels["instance"],
		AlertName:   alert.Labels["alertname"],
		Severity:    alert.Labels["severity"],
		Summary:     alert.Annotations["summary"],
		Description: alert.Annotations["description"],
		Timeframe:   Timeframe{StartsAt: alert.StartsAt, EndsAt: alert.EndsAt},
	}
	for k, v := range alert.Labels {
		if _, ok := knownContextLabels[k]; ok {
			continue
		}
		if ctx.Extra == nil {
			ctx.Extra = make(map[string]string)
		}
		ctx.Extra[k] = v
	}
	return ctx
}

// ClassifiedAlert - 분류와 중복 판정이 끝난 알림
// 분류 이후에는 변경하지 않으며 한 번만 저장된다.
type ClassifiedAlert struct {
	Alert       Alert        `json:"alert"`
	Severity    Severity     `json:"severity"`
	IsDuplicate bool         `json:"is_duplicate"`
	Context     AlertContext `json:"context"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
