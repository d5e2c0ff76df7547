// 빠른 명령(slash command) 표준 명령 테이블 정의
//
// 표준 명령마다 다음을 한 곳에서 관리한다:
//  1. 별칭 목록 (다대일)
//  2. 단축 표현이 채우는 파라미터 ("오늘" 토큰, <N>h 표현)
//  3. 직접 실행에 필요한 파라미터
//  4. 실행해야 하는 보조 검증 목록 (순서 유지)

package command

import (
	"sort"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// Prefix - 명령 접두 문자
const Prefix = "/"

// Check - 보조 검증 종류
type Check string

const (
	// 현재 활성 알림 상태 (critical 활성 알림 여부)
	CheckActiveHealth Check = "health_check"
	// 직전 동일 길이 구간 대비 알림 수 변화
	CheckTrendComparison Check = "trends_check"
	// 최근 24시간 인시던트
	CheckRecentIncidents Check = "recent_incidents_check"
	// 배포 전후 알림 수 비교
	CheckPostDeployment Check = "post_deployment_trends"
	// 서비스 에러율/지연 (메트릭 수집기가 설정된 경우에만)
	CheckServiceMetrics Check = "service_metrics_check"
	// 기본 리포트의 "N critical incidents" 문구 (증거 레코드 없음)
	CheckReportCriticalCount Check = "report_critical_count"
)

// Spec - 표준 명령 하나의 정의
type Spec struct {
	Canonical   model.Canonical
	Aliases     []string
	Description string

	// "오늘" 토큰이 24로 채우는 파라미터 (없으면 빈 문자열)
	TodayParam string
	// <N>h 표현이 채우는 파라미터 (없으면 빈 문자열)
	HoursParam string
	// "어제" 토큰이 채우는 날짜 파라미터 (daily-digest 전용)
	DateParam string

	Required []string
	Checks   []Check
	Params   []model.HelpParam
}

var specs = map[model.Canonical]Spec{
	model.CommandRecentIncidents: {
		Canonical:   model.CommandRecentIncidents,
		Aliases:     []string{"novedades", "nov", "incidencias", "inc", "ri", "recientes"},
		Description: "Recent incidents grouped by severity",
		TodayParam:  "hours",
		HoursParam:  "hours",
		Checks:      []Check{CheckActiveHealth, CheckTrendComparison},
		Params: []model.HelpParam{
			{Name: "hours", Type: "integer 1-168", Description: "lookback window (default 24)"},
			{Name: "severity", Type: "critical|major|minor|warning|info", Description: "severity filter"},
			{Name: "service", Type: "string", Description: "service filter"},
		},
	},
	model.CommandHealth: {
		Canonical:   model.CommandHealth,
		Aliases:     []string{"salud", "sal", "health", "estado"},
		Description: "Current health of monitored services",
		Checks:      []Check{CheckRecentIncidents, CheckServiceMetrics},
		Params: []model.HelpParam{
			{Name: "services", Type: "comma separated list", Description: "services to check (default: monitored services)"},
			{Name: "include_metrics", Type: "bool", Description: "query error rate and latency (default true)"},
		},
	},
	model.CommandPostDeployment: {
		Canonical:   model.CommandPostDeployment,
		Aliases:     []string{"deploy", "dep", "postdeploy", "pd"},
		Description: "Pre/post deployment alert comparison",
		HoursParam:  "monitoring_window_hours",
		Required:    []string{"service", "deployment_time"},
		Checks:      []Check{CheckPostDeployment},
		Params: []model.HelpParam{
			{Name: "service", Type: "string", Description: "deployed service (required)"},
			{Name: "deployment_time", Type: "RFC3339 timestamp", Description: "deployment instant (required)"},
			{Name: "monitoring_window_hours", Type: "integer 1-24", Description: "post-deploy window (default 2)"},
		},
	},
	model.CommandTrends: {
		Canonical:   model.CommandTrends,
		Aliases:     []string{"tendencias", "tend", "trends", "tr"},
		Description: "Alert count trend against the previous period",
		TodayParam:  "period_hours",
		HoursParam:  "period_hours",
		Checks:      []Check{CheckActiveHealth},
		Params: []model.HelpParam{
			{Name: "metric", Type: "string", Description: "trend metric (default alert_count)"},
			{Name: "service", Type: "string", Description: "service filter"},
			{Name: "period_hours", Type: "integer 1-168", Description: "period length (default 24)"},
		},
	},
	model.CommandDailyDigest: {
		Canonical:   model.CommandDailyDigest,
		Aliases:     []string{"digest", "dig", "diario", "dd"},
		Description: "Daily summary of incidents",
		DateParam:   "date",
		Checks:      []Check{CheckReportCriticalCount},
		Params: []model.HelpParam{
			{Name: "date", Type: "YYYY-MM-DD", Description: "digest day (default yesterday, UTC)"},
		},
	},
	model.CommandHelp: {
		Canonical:   model.CommandHelp,
		Aliases:     []string{"qc", "quick", "quickhelp", "help"},
		Description: "Quick command reference",
	},
}

// aliasIndex - 별칭 -> 표준 명령
var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]model.Canonical {
	idx := make(map[string]model.Canonical)
	for canonical, spec := range specs {
		for _, alias := range spec.Aliases {
			idx[alias] = canonical
		}
	}
	return idx
}

// Lookup - 표준 명령 정의 조회
func Lookup(canonical model.Canonical) (Spec, bool) {
	spec, ok := specs[canonical]
	return spec, ok
}

// Resolve - 별칭을 표준 명령으로 변환 (소문자 별칭만 등록되어 있음)
func Resolve(alias string) (model.Canonical, bool) {
	canonical, ok := aliasIndex[alias]
	return canonical, ok
}

// Aliases - 등록된 모든 별칭 (정렬)
func Aliases() []string {
	out := make([]string, 0, len(aliasIndex))
	for alias := range aliasIndex {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// CanDispatchDirectly - 필수 파라미터가 모두 있으면 직접 실행 가능
// post-deployment만 service와 deployment_time을 요구한다.
func CanDispatchDirectly(canonical model.Canonical, params map[string]string) bool {
	spec, ok := specs[canonical]
	if !ok {
		return false
	}
	for _, key := range spec.Required {
		if params[key] == "" {
			return false
		}
	}
	return true
}

// MissingParams - 직접 실행에 부족한 파라미터 목록
func MissingParams(canonical model.Canonical, params map[string]string) []string {
	spec := specs[canonical]
	var missing []string
	for _, key := range spec.Required {
		if params[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
