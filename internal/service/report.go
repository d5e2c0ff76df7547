// 빠른 명령 기본 리포트 생성
// 원장(AlertLedger)과 선택적 메트릭 수집기(Prometheus)만으로 markdown 리포트를 만든다.
//
// 명령별 리포트:
//  1. recent-incidents: 최근 N시간 알림을 심각도별로 묶고 상위 서비스를 표시
//  2. health: 서비스별 활성 알림 + (선택) 에러율/지연으로 상태 판정
//  3. post-deployment: 배포 전 2시간과 배포 후 모니터링 구간의 알림 비교
//  4. trends: 현재 구간과 직전 동일 길이 구간의 알림 수 변화율
//  5. daily-digest: 하루(UTC) 요약, 상위 critical 알림, 전일 대비
//  6. help: 정적 명령 레퍼런스

package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/polsebas/agente-admin-observabilidad/internal/client"
	"github.com/polsebas/agente-admin-observabilidad/internal/command"
	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// ErrInvalidParameter - 리포트를 만들 수 없는 파라미터 값
var ErrInvalidParameter = errors.New("invalid parameter")

// PreDeployWindow - 배포 전 비교 구간
const PreDeployWindow = 2 * time.Hour

// MetricsSource - 스칼라 메트릭 조회 (client.PrometheusClient)
type MetricsSource interface {
	QueryScalar(ctx context.Context, query string, at time.Time) (float64, error)
}

// ReportOptions - health 리포트 기본값과 임계치
type ReportOptions struct {
	MonitoredServices []string
	LatencyMS         float64
	ErrorRate         float64
}

// ReportService 구조체 정의
type ReportService struct {
	ledger  AlertLedger
	metrics MetricsSource
	opts    ReportOptions
	retry   client.RetryPolicy
	now     func() time.Time
}

// ReportService 객체 생성. metrics는 nil이어도 된다.
func NewReportService(ledger AlertLedger, metrics MetricsSource, opts ReportOptions, retry client.RetryPolicy) *ReportService {
	return &ReportService{
		ledger:  ledger,
		metrics: metrics,
		opts:    opts,
		retry:   retry,
		now:     time.Now,
	}
}

// Generate - 표준 명령의 기본 리포트
func (s *ReportService) Generate(ctx context.Context, canonical model.Canonical, params map[string]string) (string, error) {
	if err := ValidateParams(params); err != nil {
		return "", err
	}
	switch canonical {
	case model.CommandRecentIncidents:
		return s.recentIncidents(ctx, params)
	case model.CommandHealth:
		return s.health(ctx, params)
	case model.CommandPostDeployment:
		return s.postDeployment(ctx, params)
	case model.CommandTrends:
		return s.trends(ctx, params)
	case model.CommandDailyDigest:
		return s.dailyDigest(ctx, params)
	case model.CommandHelp:
		return command.HelpMarkdown(), nil
	default:
		return "", fmt.Errorf("%w: unknown command %q", ErrInvalidParameter, canonical)
	}
}

func (s *ReportService) recentIncidents(ctx context.Context, params map[string]string) (string, error) {
	hours := intParam(params, "hours", 24, 1, 168)
	now := s.now().UTC()
	filter := model.LedgerFilter{Severity: params["severity"], Service: params["service"]}

	entries, err := s.ledger.QueryByTimeRange(ctx, now.Add(-time.Duration(hours)*time.Hour), now, filter)
	if err != nil {
		return "", fmt.Errorf("query recent incidents: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Recent Incidents (last %d hours)\n\n", hours)
	if filter.Severity != "" || filter.Service != "" {
		fmt.Fprintf(&b, "_Filters: severity=%s service=%s_\n\n", orAll(filter.Severity), orAll(filter.Service))
	}
	if len(entries) == 0 {
		fmt.Fprintf(&b, "No incidents recorded in the last %d hours.\n", hours)
		return b.String(), nil
	}

	counts := countBySeverity(entries)
	fmt.Fprintf(&b, "**Total**: %d incidents\n\n", len(entries))
	b.WriteString(severityLine(counts))
	b.WriteString("\n\n## Top Services\n")
	for _, sc := range topServices(entries, 5) {
		fmt.Fprintf(&b, "- %s: %d\n", sc.name, sc.count)
	}

	grouped := groupBySeverity(entries)
	for _, sev := range model.Severities {
		group := grouped[sev]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s (%d)\n", titleCase(string(sev)), len(group))
		for i, e := range group {
			if i == 10 {
				fmt.Fprintf(&b, "- ... and %d more\n", len(group)-10)
				break
			}
			b.WriteString(entryLine(e))
		}
	}
	return b.String(), nil
}

type serviceHealth struct {
	name      string
	critical  int
	major     int
	errorRate *float64
	latencyMS *float64
	metricErr error
}

func (h serviceHealth) status(latencyMS, errorRate float64) string {
	switch {
	case h.critical > 0:
		return "🔴 CRITICAL"
	case h.major > 0 || h.overThreshold(latencyMS, errorRate):
		return "🟠 DEGRADED"
	default:
		return "🟢 HEALTHY"
	}
}

func (h serviceHealth) overThreshold(latencyMS, errorRate float64) bool {
	if h.errorRate != nil && errorRate > 0 && *h.errorRate > errorRate {
		return true
	}
	return h.latencyMS != nil && latencyMS > 0 && *h.latencyMS > latencyMS
}

func (s *ReportService) health(ctx context.Context, params map[string]string) (string, error) {
	active, err := s.ledger.QueryActive(ctx)
	if err != nil {
		return "", fmt.Errorf("query active alerts: %w", err)
	}

	services := s.targetServices(params, active)
	includeMetrics := boolParam(params, "include_metrics", true) && s.metrics != nil
	now := s.now().UTC()

	counts := countBySeverity(active)
	var b strings.Builder
	b.WriteString("# Service Health\n\n")
	fmt.Fprintf(&b, "**Active alerts**: %d (%d critical, %d major)\n\n",
		len(active), counts[model.SeverityCritical], counts[model.SeverityMajor])

	if len(services) == 0 {
		b.WriteString("No monitored services configured.\n")
		return b.String(), nil
	}

	b.WriteString("## Services\n")
	for _, name := range services {
		h := serviceHealth{name: name}
		for _, e := range active {
			if e.Service() != name {
				continue
			}
			switch e.EffectiveSeverity() {
			case model.SeverityCritical:
				h.critical++
			case model.SeverityMajor:
				h.major++
			}
		}
		if includeMetrics {
			s.fillServiceMetrics(ctx, &h, now)
		}

		fmt.Fprintf(&b, "- %s: %s (%d critical, %d major active)\n",
			name, h.status(s.opts.LatencyMS, s.opts.ErrorRate), h.critical, h.major)
		switch {
		case h.metricErr != nil:
			fmt.Fprintf(&b, "  - metrics unavailable: %v\n", h.metricErr)
		case h.errorRate != nil && h.latencyMS != nil:
			fmt.Fprintf(&b, "  - error rate: %.2f%%, p95 latency: %.0f ms\n", *h.errorRate*100, *h.latencyMS)
		}
	}
	return b.String(), nil
}

// targetServices - 파라미터 > 설정된 모니터링 대상 > 활성 알림의 서비스 순
func (s *ReportService) targetServices(params map[string]string, active []model.LedgerEntry) []string {
	if list := splitList(firstNonBlank(params["services"], params["service"])); len(list) > 0 {
		return list
	}
	if len(s.opts.MonitoredServices) > 0 {
		return s.opts.MonitoredServices
	}
	seen := map[string]struct{}{}
	var out []string
	for _, e := range active {
		name := e.Service()
		if _, ok := seen[name]; ok || name == "" {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *ReportService) fillServiceMetrics(ctx context.Context, h *serviceHealth, at time.Time) {
	errRate, err := queryMetric(ctx, s.metrics, s.retry, ErrorRateQuery(h.name), at)
	if err != nil {
		h.metricErr = err
		return
	}
	latency, err := queryMetric(ctx, s.metrics, s.retry, LatencyP95Query(h.name), at)
	if err != nil {
		h.metricErr = err
		return
	}
	h.errorRate = &errRate
	h.latencyMS = &latency
}

// ErrorRateQuery - 5xx 비율
func ErrorRateQuery(service string) string {
	return fmt.Sprintf(`sum(rate(http_requests_total{service=%q,status=~"5.."}[5m])) / sum(rate(http_requests_total{service=%q}[5m]))`, service, service)
}

// LatencyP95Query - p95 지연 (ms)
func LatencyP95Query(service string) string {
	return fmt.Sprintf(`histogram_quantile(0.95, sum(rate(http_request_duration_seconds_bucket{service=%q}[5m])) by (le)) * 1000`, service)
}

// queryMetric - 재시도 포함 스칼라 조회. 트래픽이 없어 NaN이면 0으로 본다.
func queryMetric(ctx context.Context, src MetricsSource, policy client.RetryPolicy, query string, at time.Time) (float64, error) {
	v, err := client.Retry(ctx, policy, "metrics.query", func(ctx context.Context) (float64, error) {
		return src.QueryScalar(ctx, query, at)
	})
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, nil
	}
	return v, nil
}

// deployWindows - 배포 전 2시간, 배포 후 [배포, min(배포+window, now)]
type deployWindows struct {
	preStart, preEnd   time.Time
	postStart, postEnd time.Time
}

func newDeployWindows(deployedAt, now time.Time, window time.Duration) deployWindows {
	postEnd := deployedAt.Add(window)
	if now.Before(postEnd) {
		postEnd = now
	}
	if postEnd.Before(deployedAt) {
		postEnd = deployedAt
	}
	return deployWindows{
		preStart:  deployedAt.Add(-PreDeployWindow),
		preEnd:    deployedAt.Add(-time.Nanosecond),
		postStart: deployedAt,
		postEnd:   postEnd,
	}
}

func (s *ReportService) postDeployment(ctx context.Context, params map[string]string) (string, error) {
	service := params["service"]
	if service == "" {
		return "", fmt.Errorf("%w: service is required", ErrInvalidParameter)
	}
	deployedAt, err := parseTimestamp(params["deployment_time"])
	if err != nil {
		return "", fmt.Errorf("%w: deployment_time: %v", ErrInvalidParameter, err)
	}
	windowHours := intParam(params, "monitoring_window_hours", 2, 1, 24)
	w := newDeployWindows(deployedAt, s.now().UTC(), time.Duration(windowHours)*time.Hour)
	filter := model.LedgerFilter{Service: service}

	pre, err := s.ledger.QueryByTimeRange(ctx, w.preStart, w.preEnd, filter)
	if err != nil {
		return "", fmt.Errorf("query pre-deployment alerts: %w", err)
	}
	post, err := s.ledger.QueryByTimeRange(ctx, w.postStart, w.postEnd, filter)
	if err != nil {
		return "", fmt.Errorf("query post-deployment alerts: %w", err)
	}
	postCritical := countBySeverity(post)[model.SeverityCritical]

	var b strings.Builder
	fmt.Fprintf(&b, "# Post-Deployment Analysis: %s\n\n", service)
	fmt.Fprintf(&b, "- **Deployment time**: %s\n", deployedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Monitoring window**: %d hours\n\n", windowHours)
	b.WriteString("## Comparison\n")
	fmt.Fprintf(&b, "- Pre-deployment (%d hours): %d alerts\n", int(PreDeployWindow.Hours()), len(pre))
	fmt.Fprintf(&b, "- Post-deployment: %d alerts (%d critical)\n", len(post), postCritical)

	if len(post) > 0 {
		b.WriteString("\n## Post-Deployment Alerts\n")
		for i, e := range post {
			if i == 5 {
				fmt.Fprintf(&b, "- ... and %d more\n", len(post)-5)
				break
			}
			fmt.Fprintf(&b, "- [%s] %s: %d minutes post-deploy\n",
				e.EffectiveSeverity(), orUnnamed(e.Labels["alertname"]), int(e.ReceivedAt.Sub(deployedAt).Minutes()))
		}
	}

	b.WriteString("\n## Verdict\n")
	b.WriteString(deployVerdict(len(pre), len(post), postCritical))
	b.WriteString("\n")
	return b.String(), nil
}

func deployVerdict(pre, post, postCritical int) string {
	switch {
	case postCritical > 0:
		return "🔴 ROLLBACK RECOMMENDED: critical alerts after deployment"
	case post > pre*2:
		return "🟠 INTENSIVE MONITORING: alert volume more than doubled after deployment"
	case post > 0:
		return "🟡 CONTINUOUS MONITORING: some alerts after deployment"
	default:
		return "🟢 DEPLOYMENT SUCCESSFUL: no alerts after deployment"
	}
}

func (s *ReportService) trends(ctx context.Context, params map[string]string) (string, error) {
	metric := firstNonBlank(params["metric"], "alert_count")
	period := intParam(params, "period_hours", 24, 1, 168)
	service := params["service"]
	now := s.now().UTC()
	span := time.Duration(period) * time.Hour
	filter := model.LedgerFilter{Service: service}

	current, err := s.ledger.QueryByTimeRange(ctx, now.Add(-span), now, filter)
	if err != nil {
		return "", fmt.Errorf("query current period: %w", err)
	}
	previous, err := s.ledger.QueryByTimeRange(ctx, now.Add(-2*span), now.Add(-span-time.Nanosecond), filter)
	if err != nil {
		return "", fmt.Errorf("query previous period: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Trend Analysis: %s\n\n", metric)
	cur, prev := len(current), len(previous)
	switch metric {
	case "alert_count":
	case "critical_count":
		cur = countBySeverity(current)[model.SeverityCritical]
		prev = countBySeverity(previous)[model.SeverityCritical]
	default:
		fmt.Fprintf(&b, "_Metric %s is not tracked in the alert ledger; showing alert_count._\n\n", metric)
	}

	change, baseline := changePercent(prev, cur)
	fmt.Fprintf(&b, "- **Service**: %s\n", orAll(service))
	fmt.Fprintf(&b, "- **Current period** (last %d hours): %d\n", period, cur)
	fmt.Fprintf(&b, "- **Previous period**: %d\n", prev)
	fmt.Fprintf(&b, "- **Change**: %+.1f%%", change)
	if math.Abs(change) > 50 {
		b.WriteString(" (significant change)")
	}
	if !baseline {
		b.WriteString(" (no baseline in previous period)")
	}
	b.WriteString("\n")

	switch {
	case cur > prev:
		b.WriteString("- **Direction**: ↗️ upward trend\n")
	case cur < prev:
		b.WriteString("- **Direction**: ↘️ downward trend\n")
	default:
		b.WriteString("- **Direction**: → stable\n")
	}

	if len(current) > 0 {
		b.WriteString("\n## Severity Breakdown (current period)\n")
		counts := countBySeverity(current)
		for _, sev := range model.Severities {
			if counts[sev] > 0 {
				fmt.Fprintf(&b, "- %s: %d\n", sev, counts[sev])
			}
		}
	}
	return b.String(), nil
}

// changePercent - (cur-prev)/prev*100. 직전 구간이 0이면 0%와 baseline=false.
func changePercent(prev, cur int) (float64, bool) {
	if prev == 0 {
		return 0, false
	}
	return float64(cur-prev) / float64(prev) * 100, true
}

func (s *ReportService) dailyDigest(ctx context.Context, params map[string]string) (string, error) {
	day, err := digestDay(params["date"], s.now())
	if err != nil {
		return "", err
	}
	dayEnd := day.Add(24*time.Hour - time.Nanosecond)

	entries, err := s.ledger.QueryByTimeRange(ctx, day, dayEnd, model.LedgerFilter{})
	if err != nil {
		return "", fmt.Errorf("query digest day: %w", err)
	}
	previous, err := s.ledger.QueryByTimeRange(ctx, day.Add(-24*time.Hour), day.Add(-time.Nanosecond), model.LedgerFilter{})
	if err != nil {
		return "", fmt.Errorf("query previous day: %w", err)
	}

	counts := countBySeverity(entries)
	var b strings.Builder
	fmt.Fprintf(&b, "# Daily Digest: %s\n\n", day.Format(time.DateOnly))
	b.WriteString("## Executive Summary\n")
	fmt.Fprintf(&b, "Recorded %d critical incidents and %d major incidents out of %d total.\n",
		counts[model.SeverityCritical], counts[model.SeverityMajor], len(entries))

	if len(entries) == 0 {
		fmt.Fprintf(&b, "\nNo incidents recorded on %s.\n", day.Format(time.DateOnly))
	} else {
		critical := groupBySeverity(entries)[model.SeverityCritical]
		if len(critical) > 0 {
			b.WriteString("\n## Top Critical Incidents\n")
			for i, e := range critical {
				if i == 3 {
					break
				}
				b.WriteString(entryLine(e))
			}
		}
		b.WriteString("\n## Most Affected Services\n")
		for _, sc := range topServices(entries, 3) {
			fmt.Fprintf(&b, "- %s: %d\n", sc.name, sc.count)
		}
	}

	change, baseline := changePercent(len(previous), len(entries))
	b.WriteString("\n## Comparison\n")
	if baseline {
		fmt.Fprintf(&b, "- Previous day: %d incidents (%+.1f%%)\n", len(previous), change)
	} else {
		fmt.Fprintf(&b, "- Previous day: %d incidents (no baseline)\n", len(previous))
	}
	return b.String(), nil
}

// digestDay - YYYY-MM-DD의 UTC 자정, 비어 있으면 전날
func digestDay(value string, now time.Time) (time.Time, error) {
	if value == "" {
		y, m, d := now.UTC().AddDate(0, 0, -1).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidParameter)
	}
	return day, nil
}

type serviceCount struct {
	name  string
	count int
}

func topServices(entries []model.LedgerEntry, limit int) []serviceCount {
	counts := map[string]int{}
	for _, e := range entries {
		counts[orUnknown(e.Service())]++
	}
	out := make([]serviceCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, serviceCount{name: name, count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func countBySeverity(entries []model.LedgerEntry) map[model.Severity]int {
	counts := make(map[model.Severity]int, len(model.Severities))
	for _, e := range entries {
		counts[e.EffectiveSeverity()]++
	}
	return counts
}

func groupBySeverity(entries []model.LedgerEntry) map[model.Severity][]model.LedgerEntry {
	grouped := make(map[model.Severity][]model.LedgerEntry)
	for _, e := range entries {
		sev := e.EffectiveSeverity()
		grouped[sev] = append(grouped[sev], e)
	}
	return grouped
}

func severityLine(counts map[model.Severity]int) string {
	parts := make([]string, 0, len(model.Severities))
	for _, sev := range model.Severities {
		parts = append(parts, fmt.Sprintf("**%s**: %d", titleCase(string(sev)), counts[sev]))
	}
	return strings.Join(parts, " | ")
}

func entryLine(e model.LedgerEntry) string {
	line := fmt.Sprintf("- [%s] %s (%s)", e.ReceivedAt.UTC().Format("2006-01-02 15:04 UTC"),
		orUnnamed(e.Labels["alertname"]), orUnknown(e.Service()))
	if summary := e.Annotations["summary"]; summary != "" {
		line += ": " + summary
	}
	if e.Status == model.AlertStatusResolved {
		line += " _(resolved)_"
	}
	return line + "\n"
}

// integerParams - 명시적으로 주면 정수여야 하는 파라미터
var integerParams = []string{"hours", "period_hours", "monitoring_window_hours"}

// ValidateParams - 정수 파라미터에 정수가 아닌 값이 있으면 ErrInvalidParameter
// 범위를 벗어난 정수는 여기서 거르지 않고 intParam이 경계값으로 맞춘다.
func ValidateParams(params map[string]string) error {
	for _, key := range integerParams {
		raw, ok := params[key]
		if !ok {
			continue
		}
		if _, err := strconv.Atoi(strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidParameter, key, raw)
		}
	}
	return nil
}

// intParam - 정수 파라미터. 형식이 틀리면 기본값, 범위를 벗어나면 경계값.
func intParam(params map[string]string, key string, def, lo, hi int) int {
	v, err := strconv.Atoi(strings.TrimSpace(params[key]))
	if err != nil {
		return def
	}
	return min(max(v, lo), hi)
}

func boolParam(params map[string]string, key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(params[key]))
	if err != nil {
		return def
	}
	return v
}

var timestampLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"}

// parseTimestamp - RFC3339, 시간대가 없으면 UTC로 해석
func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func orUnnamed(s string) string {
	if s == "" {
		return "unnamed alert"
	}
	return s
}
