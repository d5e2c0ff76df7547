package service

import (
	"sort"
	"strings"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// 운영자가 지정한 severity 라벨 값 -> 분류 결과
var severityLabelMap = map[string]model.Severity{
	"critical": model.SeverityCritical,
	"crit":     model.SeverityCritical,
	"p0":       model.SeverityCritical,
	"p1":       model.SeverityCritical,
	"major":    model.SeverityMajor,
	"high":     model.SeverityMajor,
	"p2":       model.SeverityMajor,
	"minor":    model.SeverityMinor,
	"medium":   model.SeverityMinor,
	"p3":       model.SeverityMinor,
	"warning":  model.SeverityWarning,
	"warn":     model.SeverityWarning,
	"p4":       model.SeverityWarning,
}

// 어노테이션 키워드 규칙 (순서대로 검사)
var severityKeywordRules = []struct {
	severity model.Severity
	keywords []string
}{
	{model.SeverityCritical, []string{"outage", "unreachable", "panic"}},
	{model.SeverityMajor, []string{"error rate", "5xx", "timeout"}},
}

// ClassifySeverity - 라벨/어노테이션으로 심각도 결정
//
// 우선순위:
//  1. labels.severity 값 (대소문자 무시)
//  2. 어노테이션 전체 텍스트의 키워드
//  3. info
func ClassifySeverity(labels, annotations map[string]string) model.Severity {
	if sev, ok := severityLabelMap[strings.ToLower(strings.TrimSpace(labels["severity"]))]; ok {
		return sev
	}

	text := annotationText(annotations)
	for _, rule := range severityKeywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.severity
			}
		}
	}
	return model.SeverityInfo
}

// annotationText - 키 순서로 값을 이어붙인 소문자 텍스트
func annotationText(annotations map[string]string) string {
	keys := make([]string, 0, len(annotations))
	for k := range annotations {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, annotations[k])
	}
	return strings.ToLower(strings.Join(values, " "))
}
