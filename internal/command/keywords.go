package command

import (
	"regexp"
	"sort"
)

// 리포트 텍스트에서 추출하는 신호 키워드
const (
	KeywordCritical    = "critical"
	KeywordMajor       = "major"
	KeywordUpwardTrend = "upward-trend"
	KeywordDegraded    = "degraded"
	KeywordQuiet       = "no-incidents"
)

// signalRules - 키워드별 판정 규칙
// "Critical: 0"처럼 0건을 나타내는 문구는 신호로 보지 않는다.
var signalRules = []struct {
	keyword string
	pattern *regexp.Regexp
}{
	{KeywordCritical, regexp.MustCompile(`(?i)\b[1-9]\d*\s+(?:critical|cr[ií]tic[oa]s?)\b|\bcritical\b[^0-9\n]{0,4}[1-9]`)},
	{KeywordMajor, regexp.MustCompile(`(?i)\b[1-9]\d*\s+major\b|\bmajor\b[^0-9\n]{0,4}[1-9]`)},
	{KeywordUpwardTrend, regexp.MustCompile(`(?i)upward trend|↗|\bincreas(?:e|ed|ing)\b|\baumento\b`)},
	{KeywordDegraded, regexp.MustCompile(`(?i)\b(?:degraded|unhealthy|rollback recommended)\b`)},
	{KeywordQuiet, regexp.MustCompile(`(?i)no incidents recorded|no incidents found`)},
}

// ExtractSignalKeywords - 리포트에서 거친 신호 키워드 집합을 정렬된 슬라이스로 반환
func ExtractSignalKeywords(text string) []string {
	var out []string
	for _, rule := range signalRules {
		if rule.pattern.MatchString(text) {
			out = append(out, rule.keyword)
		}
	}
	sort.Strings(out)
	return out
}
