// 표준 명령 + 파라미터를 자연어 작업 지시문으로 변환
//
// 처리 흐름:
//  1. 명령별 문구 템플릿에 파라미터를 채운다
//  2. 인자 원문 사본에서 이미 파라미터로 변환된 부분을 지운다
//     - key=value 토큰
//     - "오늘"/"어제" 토큰 (해당 파라미터가 있을 때)
//     - <N>h 표현 (해당 파라미터가 있을 때, 모든 일치)
//  3. 공백을 정리하고 남은 텍스트가 2자를 넘으면 덧붙인다

package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// minLeftoverLen - 이 길이 이하의 잔여 텍스트는 버린다
const minLeftoverLen = 2

// BuildPrompt - 외부 분석 단계에 넘길 자연어 작업 지시문 생성
func BuildPrompt(canonical model.Canonical, params map[string]string, remainder string) string {
	var b strings.Builder
	b.WriteString(basePhrase(canonical, params, remainder))

	if leftover := StripConsumed(canonical, params, remainder); len(leftover) > minLeftoverLen {
		b.WriteString(". Additional context: ")
		b.WriteString(leftover)
	}
	return b.String()
}

// StripConsumed - 파라미터로 이미 변환된 토큰을 지운 잔여 텍스트
func StripConsumed(canonical model.Canonical, params map[string]string, remainder string) string {
	working := keyValuePattern.ReplaceAllStringFunc(remainder, func(token string) string {
		m := keyValuePattern.FindStringSubmatch(token)
		if _, ok := params[m[1]]; ok {
			return " "
		}
		return token
	})

	spec := specs[canonical]
	if spec.TodayParam != "" && params[spec.TodayParam] != "" {
		working = todayPattern.ReplaceAllString(working, " ")
	}
	if spec.DateParam != "" && params[spec.DateParam] != "" {
		working = yesterdayPattern.ReplaceAllString(working, " ")
	}
	if spec.HoursParam != "" && params[spec.HoursParam] != "" {
		working = hoursPattern.ReplaceAllString(working, " ")
	}

	return strings.Join(strings.Fields(working), " ")
}

func basePhrase(canonical model.Canonical, params map[string]string, remainder string) string {
	var b strings.Builder
	switch canonical {
	case model.CommandRecentIncidents:
		b.WriteString("Show recent incidents")
		if v := params["hours"]; v != "" {
			fmt.Fprintf(&b, " of the last %s hours", v)
		}
		if v := params["severity"]; v != "" {
			fmt.Fprintf(&b, " with severity %s", v)
		}
		if v := params["service"]; v != "" {
			fmt.Fprintf(&b, " for service %s", v)
		}
	case model.CommandHealth:
		b.WriteString("Check the health status")
		if v := firstParam(params, "services", "service"); v != "" {
			fmt.Fprintf(&b, " of services %s", v)
		}
		if strings.EqualFold(params["include_metrics"], "false") {
			b.WriteString(" without detailed metrics")
		}
	case model.CommandPostDeployment:
		b.WriteString("Analyze the post-deployment status")
		if v := params["service"]; v != "" {
			fmt.Fprintf(&b, " of service %s", v)
		}
		if v := params["deployment_time"]; v != "" {
			fmt.Fprintf(&b, " deployed at %s", v)
		}
		if v := params["monitoring_window_hours"]; v != "" {
			fmt.Fprintf(&b, " during %s hours", v)
		}
	case model.CommandTrends:
		metric := params["metric"]
		if metric == "" {
			metric = "alert_count"
		}
		fmt.Fprintf(&b, "Analyze trends of %s", metric)
		if v := params["service"]; v != "" {
			fmt.Fprintf(&b, " for service %s", v)
		}
		if v := params["period_hours"]; v != "" {
			fmt.Fprintf(&b, " over the last %s hours", v)
		}
	case model.CommandDailyDigest:
		b.WriteString("Generate the daily digest")
		if v := params["date"]; v != "" {
			fmt.Fprintf(&b, " for %s", v)
		} else if yesterdayPattern.MatchString(remainder) {
			b.WriteString(" of the previous day")
		}
	case model.CommandHelp:
		b.WriteString("Show the quick command reference")
	default:
		fmt.Fprintf(&b, "Run %s", canonical)
	}
	return b.String()
}

// canonicalPrompt - 분석 요청용 구조화 프롬프트 구성 요소
type canonicalPrompt struct {
	role     string
	task     string
	notify   []string
	fyi      []string
	sections []string
}

var canonicalPrompts = map[model.Canonical]canonicalPrompt{
	model.CommandRecentIncidents: {
		role: "Incident and observability analyst",
		task: "Analyze recent incidents and decide whether they are actionable problems or noise.",
		notify: []string{
			"critical or major incidents on degraded services",
			"more than 50% increase versus the previous period",
			"sustained pattern (more than 3 alerts of the same type within 1h)",
			"error rate or latency above thresholds",
		},
		fyi: []string{
			"minor or info alerts without health impact",
			"sporadic alerts without a pattern",
			"known or duplicated problem",
			"downward trend",
		},
		sections: []string{"Executive Summary", "Highlighted Incidents", "Evidence", "Recommendation"},
	},
	model.CommandHealth: {
		role: "Systems health specialist",
		task: "Evaluate the current health of the system and decide whether any situation needs action.",
		notify: []string{
			"services in CRITICAL or DEGRADED state",
			"error rate above the configured threshold",
			"p95 latency above the configured threshold",
			"active critical alerts",
		},
		fyi: []string{
			"all services HEALTHY",
			"metrics within thresholds",
			"no active critical alerts",
		},
		sections: []string{"Overall Status", "Services", "Active Alerts", "Recommendation"},
	},
	model.CommandPostDeployment: {
		role: "Deployment and rollback specialist",
		task: "Analyze the impact of a deployment and decide whether it succeeded or needs action.",
		notify: []string{
			"critical alerts after the deployment",
			"post/pre alert ratio above 2x",
			"error rate or latency regression",
		},
		fyi: []string{
			"no new alerts after the deployment",
			"metrics stable or improving",
		},
		sections: []string{"Verdict", "Pre vs Post Comparison", "Post-deploy Alerts", "Recommendation"},
	},
	model.CommandTrends: {
		role: "Observability trend analyst",
		task: "Analyze alert trends against the previous period and decide whether the change needs attention.",
		notify: []string{
			"more than 50% increase versus the previous period",
			"active critical alerts",
		},
		fyi: []string{
			"stable or decreasing trend",
			"change explained by known events",
		},
		sections: []string{"Trend Summary", "Severity Breakdown", "Comparison", "Recommendation"},
	},
	model.CommandDailyDigest: {
		role: "Operations reporter",
		task: "Summarize the day's incidents for the team and flag anything that needs follow-up.",
		notify: []string{
			"one or more critical incidents during the day",
		},
		fyi: []string{
			"only minor, warning or info incidents",
		},
		sections: []string{"Summary", "Critical Incidents", "Top Services", "Comparison with Previous Day"},
	},
}

// BuildCanonicalPrompt - 역할/작업/판정 기준/출력 형식이 포함된 구조화 프롬프트
// 템플릿이 없는 명령(help)은 BuildPrompt 결과를 그대로 사용한다.
func BuildCanonicalPrompt(canonical model.Canonical, params map[string]string) string {
	tpl, ok := canonicalPrompts[canonical]
	if !ok {
		return BuildPrompt(canonical, params, "")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# ROLE: %s\n\n", tpl.role)
	fmt.Fprintf(&b, "# TASK:\n%s\n\n", tpl.task)

	b.WriteString("NOTIFY CRITERIA:\n")
	for _, c := range tpl.notify {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("\nFYI CRITERIA:\n")
	for _, c := range tpl.fyi {
		fmt.Fprintf(&b, "- %s\n", c)
	}

	b.WriteString("\n# PARAMETERS:\n")
	if len(params) == 0 {
		b.WriteString("- (defaults)\n")
	} else {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, params[k])
		}
	}

	fmt.Fprintf(&b, "\n# OUTPUT FORMAT: markdown with sections: %s\n\n", strings.Join(tpl.sections, ", "))
	b.WriteString("Generate the requested report in markdown.")
	return b.String()
}

func firstParam(params map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := params[k]; v != "" {
			return v
		}
	}
	return ""
}
