// Package template provides webhook body template rendering.
//
// 지원하는 변수 형식:
//
//	{{command.canonical}}, {{command.params}}, {{command.dispatch}}
//
//	{{recommendation.level}}, {{recommendation.reason}}, {{recommendation.confidence}}
//
//	{{alert.alertname}}, {{alert.severity}}, {{alert.service}}, {{alert.instance}},
//	{{alert.status}}, {{alert.description}}, {{alert.summary}},
//	{{alert.started_at}}, {{alert.ended_at}}, {{alert.fingerprint}}
package template

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// CommandData - 템플릿 렌더링에 사용할 명령 결과 데이터
type CommandData struct {
	Canonical  string
	Params     string
	Dispatch   string
	Level      string
	Reason     string
	Confidence float64
}

// AlertData - 템플릿 렌더링에 사용할 알림 데이터
type AlertData struct {
	AlertName   string
	Severity    string
	Service     string
	Instance    string
	Status      string
	Description string
	Summary     string
	StartedAt   *time.Time
	EndedAt     *time.Time
	Fingerprint string
}

// CommandDataFromResult - model.CommandResult에서 CommandData 생성
func CommandDataFromResult(result model.CommandResult) CommandData {
	keys := make([]string, 0, len(result.Params))
	for k := range result.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+result.Params[k])
	}

	return CommandData{
		Canonical:  string(result.CanonicalCommand),
		Params:     strings.Join(pairs, " "),
		Dispatch:   result.Dispatch,
		Level:      string(result.Recommendation.Level),
		Reason:     result.Recommendation.Reason,
		Confidence: result.Recommendation.Confidence,
	}
}

// AlertDataFromClassified - model.ClassifiedAlert에서 AlertData 생성
func AlertDataFromClassified(alert model.ClassifiedAlert) AlertData {
	return AlertData{
		AlertName:   alert.Context.AlertName,
		Severity:    string(alert.Severity),
		Service:     alert.Context.Service,
		Instance:    alert.Context.Instance,
		Status:      string(alert.Alert.Status),
		Description: alert.Context.Description,
		Summary:     alert.Context.Summary,
		StartedAt:   alert.Context.Timeframe.StartsAt,
		EndedAt:     alert.Context.Timeframe.EndsAt,
		Fingerprint: alert.Alert.Fingerprint,
	}
}

// RenderBody - webhook body 템플릿의 변수를 실제 값으로 치환
//
// command 또는 alert 중 하나만 전달해도 동작합니다.
// nil로 전달된 항목의 변수는 빈 문자열로 치환됩니다.
// escapeJSON이 true면 값을 JSON 문자열 안에 넣을 수 있도록 이스케이프합니다.
func RenderBody(body string, command *CommandData, alert *AlertData, escapeJSON bool) string {
	esc := func(s string) string {
		if !escapeJSON {
			return s
		}
		return jsonEscape(s)
	}

	pairs := make([]string, 0, 32)

	// --- Command 변수 ---
	if command != nil {
		pairs = append(pairs,
			"{{command.canonical}}", esc(command.Canonical),
			"{{command.params}}", esc(command.Params),
			"{{command.dispatch}}", esc(command.Dispatch),
			"{{recommendation.level}}", esc(command.Level),
			"{{recommendation.reason}}", esc(command.Reason),
			"{{recommendation.confidence}}", fmt.Sprintf("%.2f", command.Confidence),
		)
	} else {
		pairs = append(pairs,
			"{{command.canonical}}", "",
			"{{command.params}}", "",
			"{{command.dispatch}}", "",
			"{{recommendation.level}}", "",
			"{{recommendation.reason}}", "",
			"{{recommendation.confidence}}", "",
		)
	}

	// --- Alert 변수 ---
	if alert != nil {
		pairs = append(pairs,
			"{{alert.alertname}}", esc(alert.AlertName),
			"{{alert.severity}}", esc(alert.Severity),
			"{{alert.service}}", esc(alert.Service),
			"{{alert.instance}}", esc(alert.Instance),
			"{{alert.status}}", esc(alert.Status),
			"{{alert.description}}", esc(alert.Description),
			"{{alert.summary}}", esc(alert.Summary),
			"{{alert.started_at}}", formatTime(alert.StartedAt),
			"{{alert.ended_at}}", formatTime(alert.EndedAt),
			"{{alert.fingerprint}}", esc(alert.Fingerprint),
		)
	} else {
		pairs = append(pairs,
			"{{alert.alertname}}", "",
			"{{alert.severity}}", "",
			"{{alert.service}}", "",
			"{{alert.instance}}", "",
			"{{alert.status}}", "",
			"{{alert.description}}", "",
			"{{alert.summary}}", "",
			"{{alert.started_at}}", "",
			"{{alert.ended_at}}", "",
			"{{alert.fingerprint}}", "",
		)
	}

	return strings.NewReplacer(pairs...).Replace(body)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// jsonEscape - 따옴표 없이 JSON 문자열 내용만 반환
func jsonEscape(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(b[1 : len(b)-1])
}
