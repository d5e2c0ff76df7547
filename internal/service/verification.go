// 명령 결과 보조 검증 엔진
//
// 처리 흐름:
//  1. 기본 추천값 fyi / 0.5 / "no critical situation found"
//  2. 명령 테이블의 검증 목록을 순서대로 실행 (검증마다 개별 timeout)
//  3. 검증 결과를 EvidenceCheck로 기록 (협력자 오류는 pass=false + 에러 문구)
//  4. 상향 조건을 만족하면 notify로 올리고, 두 검증이 모두 올리면 신뢰도가 높은 쪽 유지
//  5. 기본 리포트 뒤에 근거 섹션과 추천 섹션을 덧붙여 반환

package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/polsebas/agente-admin-observabilidad/internal/client"
	"github.com/polsebas/agente-admin-observabilidad/internal/command"
	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

const (
	DefaultRecommendationReason     = "no critical situation found"
	DefaultRecommendationConfidence = 0.5

	confidenceActiveCritical = 0.9
	confidenceTrendSpike     = 0.85
	confidenceDeployCritical = 0.95
	confidenceDeployRatio    = 0.8
	confidenceDeployClean    = 0.7
	confidenceDigestCritical = 0.9

	trendSpikePercent = 50.0
	deployRatioLimit  = 2.0
)

var digestCriticalPattern = regexp.MustCompile(`(?i)\b(\d+)\s+(?:critical\s+incidents?|incidentes\s+cr[ií]ticos)\b`)

// VerificationOptions - 검증 timeout, 메트릭 임계치, 기본 모니터링 대상
type VerificationOptions struct {
	Timeout           time.Duration
	LatencyMS         float64
	ErrorRate         float64
	MonitoredServices []string
}

// VerificationEngine 구조체 정의
type VerificationEngine struct {
	ledger  AlertLedger
	metrics MetricsSource
	opts    VerificationOptions
	retry   client.RetryPolicy
	stats   *Metrics
	now     func() time.Time
}

// VerificationEngine 객체 생성. metrics, stats는 nil이어도 된다.
func NewVerificationEngine(ledger AlertLedger, metrics MetricsSource, opts VerificationOptions, retry client.RetryPolicy, stats *Metrics) *VerificationEngine {
	return &VerificationEngine{
		ledger:  ledger,
		metrics: metrics,
		opts:    opts,
		retry:   retry,
		stats:   stats,
		now:     time.Now,
	}
}

// DefaultRecommendation - 검증 전 기본 추천값
func DefaultRecommendation() model.Recommendation {
	return model.Recommendation{
		Level:      model.LevelFYI,
		Reason:     DefaultRecommendationReason,
		Confidence: DefaultRecommendationConfidence,
	}
}

// Run - baseReport를 그대로 표시하는 Verify
func (v *VerificationEngine) Run(ctx context.Context, canonical model.Canonical, params map[string]string, baseReport string) model.VerificationResult {
	return v.Verify(ctx, canonical, params, baseReport, baseReport)
}

// Verify - 명령별 보조 검증을 실행하고 report에 근거/추천 섹션을 덧붙인다.
// 리포트 문구 검사는 항상 baseReport(분석기 보강 전)를 대상으로 한다.
// 개별 검증 실패는 결과를 막지 않는다.
func (v *VerificationEngine) Verify(ctx context.Context, canonical model.Canonical, params map[string]string, baseReport, report string) model.VerificationResult {
	if report == "" {
		report = baseReport
	}
	rec := DefaultRecommendation()
	evidence := []model.EvidenceCheck{}

	spec, _ := command.Lookup(canonical)
	for _, check := range spec.Checks {
		checkCtx, cancel := v.checkContext(ctx)
		records, next := v.runCheck(checkCtx, check, params, baseReport)
		cancel()

		for _, r := range records {
			if !r.Pass {
				v.stats.evidenceFailed(r.Source)
			}
		}
		evidence = append(evidence, records...)
		if next != nil {
			rec = escalate(rec, *next)
		}
	}

	logrus.WithFields(logrus.Fields{
		"canonical":  canonical,
		"checks":     len(evidence),
		"level":      rec.Level,
		"confidence": rec.Confidence,
	}).Debug("Verification finished")

	return model.VerificationResult{
		Report:         appendVerificationSections(report, evidence, rec),
		Evidence:       evidence,
		Recommendation: rec,
	}
}

func (v *VerificationEngine) checkContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if v.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, v.opts.Timeout)
}

func (v *VerificationEngine) runCheck(ctx context.Context, check command.Check, params map[string]string, baseReport string) ([]model.EvidenceCheck, *model.Recommendation) {
	switch check {
	case command.CheckActiveHealth:
		return v.checkActiveHealth(ctx, params)
	case command.CheckTrendComparison:
		return v.checkTrendComparison(ctx, params)
	case command.CheckRecentIncidents:
		return v.checkRecentIncidents(ctx, params)
	case command.CheckServiceMetrics:
		return v.checkServiceMetrics(ctx, params), nil
	case command.CheckPostDeployment:
		return v.checkPostDeployment(ctx, params)
	case command.CheckReportCriticalCount:
		return nil, checkReportCriticalCount(baseReport)
	default:
		return nil, nil
	}
}

// escalate - notify가 fyi보다 우선, 같은 수준이면 신뢰도가 높은 쪽
func escalate(current, next model.Recommendation) model.Recommendation {
	if next.Level == model.LevelNotify && current.Level != model.LevelNotify {
		return next
	}
	if next.Level == current.Level && next.Confidence > current.Confidence {
		return next
	}
	return current
}

func (v *VerificationEngine) record(source, query string) model.EvidenceCheck {
	return model.EvidenceCheck{Source: source, Query: query, Timestamp: v.now().UTC()}
}

func failed(ev model.EvidenceCheck, err error) model.EvidenceCheck {
	ev.Pass = false
	ev.ResultSummary = "error: " + err.Error()
	return ev
}

// checkActiveHealth - 활성 critical 알림이 있으면 notify 0.9
// major만 있으면 실패로 기록하지만 상향하지 않는다.
func (v *VerificationEngine) checkActiveHealth(ctx context.Context, params map[string]string) ([]model.EvidenceCheck, *model.Recommendation) {
	service := params["service"]
	ev := v.record(string(command.CheckActiveHealth), fmt.Sprintf("active alerts (status=firing, non-duplicate) service=%s", orAll(service)))

	active, err := v.ledger.QueryActive(ctx)
	if err != nil {
		return []model.EvidenceCheck{failed(ev, err)}, nil
	}
	if service != "" {
		active = filterService(active, service)
	}

	counts := countBySeverity(active)
	crit, major := counts[model.SeverityCritical], counts[model.SeverityMajor]
	ev.ResultSummary = fmt.Sprintf("%d active alerts: %d critical, %d major", len(active), crit, major)
	ev.Pass = crit == 0 && major == 0

	if crit > 0 {
		return []model.EvidenceCheck{ev}, &model.Recommendation{
			Level:      model.LevelNotify,
			Reason:     fmt.Sprintf("%d critical alert(s) currently active", crit),
			Confidence: confidenceActiveCritical,
		}
	}
	return []model.EvidenceCheck{ev}, nil
}

// checkTrendComparison - 직전 동일 길이 구간 대비 +50% 초과면 notify 0.85
// 변화율 절댓값이 50% 이상이면 근거는 실패로 기록한다.
func (v *VerificationEngine) checkTrendComparison(ctx context.Context, params map[string]string) ([]model.EvidenceCheck, *model.Recommendation) {
	hours := intParam(params, "hours", 24, 1, 168)
	if params["hours"] == "" {
		hours = intParam(params, "period_hours", 24, 1, 168)
	}
	service := params["service"]
	span := time.Duration(hours) * time.Hour
	now := v.now().UTC()
	filter := model.LedgerFilter{Service: service}

	ev := v.record(string(command.CheckTrendComparison),
		fmt.Sprintf("alert count last %dh vs previous %dh service=%s", hours, hours, orAll(service)))

	current, err := v.ledger.QueryByTimeRange(ctx, now.Add(-span), now, filter)
	if err != nil {
		return []model.EvidenceCheck{failed(ev, err)}, nil
	}
	previous, err := v.ledger.QueryByTimeRange(ctx, now.Add(-2*span), now.Add(-span-time.Nanosecond), filter)
	if err != nil {
		return []model.EvidenceCheck{failed(ev, err)}, nil
	}

	change, baseline := changePercent(len(previous), len(current))
	ev.ResultSummary = fmt.Sprintf("current %d, previous %d, change %+.1f%%", len(current), len(previous), change)
	if !baseline {
		ev.ResultSummary += " (no baseline)"
	}
	// 급감도 근거 실패로 남기지만 상향은 급증일 때만
	ev.Pass = math.Abs(change) < trendSpikePercent

	if change > trendSpikePercent {
		return []model.EvidenceCheck{ev}, &model.Recommendation{
			Level:      model.LevelNotify,
			Reason:     fmt.Sprintf("alert count up %.0f%% vs previous %d hours", change, hours),
			Confidence: confidenceTrendSpike,
		}
	}
	return []model.EvidenceCheck{ev}, nil
}

// checkRecentIncidents - 최근 24시간 알림, 그중 아직 활성인 critical이 있으면 notify 0.9
func (v *VerificationEngine) checkRecentIncidents(ctx context.Context, params map[string]string) ([]model.EvidenceCheck, *model.Recommendation) {
	now := v.now().UTC()
	services := splitList(firstNonBlank(params["services"], params["service"]))
	ev := v.record(string(command.CheckRecentIncidents),
		fmt.Sprintf("alerts last 24h services=%s", orAll(strings.Join(services, ","))))

	entries, err := v.ledger.QueryByTimeRange(ctx, now.Add(-24*time.Hour), now, model.LedgerFilter{})
	if err != nil {
		return []model.EvidenceCheck{failed(ev, err)}, nil
	}
	if len(services) > 0 {
		entries = filterService(entries, services...)
	}

	crit, activeCrit := 0, 0
	for _, e := range entries {
		if e.EffectiveSeverity() != model.SeverityCritical {
			continue
		}
		crit++
		if e.Active() {
			activeCrit++
		}
	}
	ev.ResultSummary = fmt.Sprintf("%d incidents in the last 24 hours, %d critical (%d still firing)", len(entries), crit, activeCrit)
	ev.Pass = crit == 0

	if activeCrit > 0 {
		return []model.EvidenceCheck{ev}, &model.Recommendation{
			Level:      model.LevelNotify,
			Reason:     fmt.Sprintf("%d critical alert(s) currently active", activeCrit),
			Confidence: confidenceActiveCritical,
		}
	}
	return []model.EvidenceCheck{ev}, nil
}

// checkServiceMetrics - 서비스별 에러율/지연 (근거만 기록)
func (v *VerificationEngine) checkServiceMetrics(ctx context.Context, params map[string]string) []model.EvidenceCheck {
	if v.metrics == nil || !boolParam(params, "include_metrics", true) {
		return nil
	}
	services := splitList(firstNonBlank(params["services"], params["service"]))
	if len(services) == 0 {
		services = v.opts.MonitoredServices
	}

	now := v.now().UTC()
	records := make([]model.EvidenceCheck, 0, len(services))
	for _, svc := range services {
		ev := v.record(string(command.CheckServiceMetrics), ErrorRateQuery(svc)+" ; "+LatencyP95Query(svc))
		errRate, err := queryMetric(ctx, v.metrics, v.retry, ErrorRateQuery(svc), now)
		if err != nil {
			records = append(records, failed(ev, err))
			continue
		}
		latency, err := queryMetric(ctx, v.metrics, v.retry, LatencyP95Query(svc), now)
		if err != nil {
			records = append(records, failed(ev, err))
			continue
		}
		h := serviceHealth{name: svc, errorRate: &errRate, latencyMS: &latency}
		ev.ResultSummary = fmt.Sprintf("%s: error rate %.2f%%, p95 latency %.0f ms", svc, errRate*100, latency)
		ev.Pass = !h.overThreshold(v.opts.LatencyMS, v.opts.ErrorRate)
		records = append(records, ev)
	}
	return records
}

// checkPostDeployment - 배포 후 critical이면 notify 0.95, 아니면 post/pre 비율 > 2 이면 notify 0.8
func (v *VerificationEngine) checkPostDeployment(ctx context.Context, params map[string]string) ([]model.EvidenceCheck, *model.Recommendation) {
	service := params["service"]
	windowHours := intParam(params, "monitoring_window_hours", 2, 1, 24)
	ev := v.record(string(command.CheckPostDeployment),
		fmt.Sprintf("alerts for %s 2h before vs %dh after %s", orAll(service), windowHours, params["deployment_time"]))

	if service == "" {
		return []model.EvidenceCheck{failed(ev, fmt.Errorf("missing service"))}, nil
	}
	deployedAt, err := parseTimestamp(params["deployment_time"])
	if err != nil {
		return []model.EvidenceCheck{failed(ev, fmt.Errorf("invalid deployment_time: %w", err))}, nil
	}

	w := newDeployWindows(deployedAt, v.now().UTC(), time.Duration(windowHours)*time.Hour)
	filter := model.LedgerFilter{Service: service}
	pre, err := v.ledger.QueryByTimeRange(ctx, w.preStart, w.preEnd, filter)
	if err != nil {
		return []model.EvidenceCheck{failed(ev, err)}, nil
	}
	post, err := v.ledger.QueryByTimeRange(ctx, w.postStart, w.postEnd, filter)
	if err != nil {
		return []model.EvidenceCheck{failed(ev, err)}, nil
	}

	ratio := deployRatio(len(pre), len(post))
	postCritical := countBySeverity(post)[model.SeverityCritical]
	ev.ResultSummary = fmt.Sprintf("pre %d, post %d, ratio %s", len(pre), len(post), formatRatio(ratio))
	ev.Pass = ratio <= deployRatioLimit

	critEv := v.record("post_deployment_critical", fmt.Sprintf("critical alerts for %s after %s", service, deployedAt.Format(time.RFC3339)))
	critEv.ResultSummary = fmt.Sprintf("%d critical alerts post-deploy", postCritical)
	critEv.Pass = postCritical == 0
	records := []model.EvidenceCheck{ev, critEv}

	switch {
	case postCritical > 0:
		return records, &model.Recommendation{
			Level:      model.LevelNotify,
			Reason:     fmt.Sprintf("%d critical alert(s) after deployment of %s", postCritical, service),
			Confidence: confidenceDeployCritical,
		}
	case ratio > deployRatioLimit:
		return records, &model.Recommendation{
			Level:      model.LevelNotify,
			Reason:     fmt.Sprintf("post-deploy alerts %d vs pre-deploy %d (ratio %s)", len(post), len(pre), formatRatio(ratio)),
			Confidence: confidenceDeployRatio,
		}
	case len(post) == 0:
		return records, &model.Recommendation{
			Level:      model.LevelFYI,
			Reason:     fmt.Sprintf("deployment clean (pre %d, post %d)", len(pre), len(post)),
			Confidence: confidenceDeployClean,
		}
	default:
		return records, &model.Recommendation{
			Level:      model.LevelFYI,
			Reason:     fmt.Sprintf("deployment within normal range (pre %d, post %d)", len(pre), len(post)),
			Confidence: confidenceDeployClean,
		}
	}
}

// deployRatio - post/pre. pre가 0이면 post도 0일 때 1, 아니면 +Inf
func deployRatio(pre, post int) float64 {
	if pre == 0 {
		if post == 0 {
			return 1
		}
		return math.Inf(1)
	}
	return float64(post) / float64(pre)
}

func formatRatio(r float64) string {
	if math.IsInf(r, 1) {
		return "inf"
	}
	return strconv.FormatFloat(r, 'f', 2, 64)
}

// checkReportCriticalCount - 리포트의 "N critical incidents" 문구, N>0이면 notify 0.9
func checkReportCriticalCount(report string) *model.Recommendation {
	total := 0
	for _, m := range digestCriticalPattern.FindAllStringSubmatch(report, -1) {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > total {
			total = n
		}
	}
	if total == 0 {
		return nil
	}
	return &model.Recommendation{
		Level:      model.LevelNotify,
		Reason:     fmt.Sprintf("%d critical incident(s) in the daily digest", total),
		Confidence: confidenceDigestCritical,
	}
}

func filterService(entries []model.LedgerEntry, services ...string) []model.LedgerEntry {
	want := make(map[string]struct{}, len(services))
	for _, s := range services {
		want[s] = struct{}{}
	}
	out := entries[:0:0]
	for _, e := range entries {
		if _, ok := want[e.Service()]; ok {
			out = append(out, e)
		}
	}
	return out
}

func appendVerificationSections(report string, evidence []model.EvidenceCheck, rec model.Recommendation) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(report, "\n"))
	b.WriteString("\n\n---\n\n## Verification Evidence\n")
	if len(evidence) == 0 {
		b.WriteString("\n_No auxiliary checks for this command._\n")
	}
	for i, ev := range evidence {
		status := "✅ pass"
		if !ev.Pass {
			status = "❌ fail"
		}
		fmt.Fprintf(&b, "\n### Check %d: %s (%s)\n", i+1, ev.Source, status)
		fmt.Fprintf(&b, "- **Query**: `%s`\n", ev.Query)
		fmt.Fprintf(&b, "- **Result**: %s\n", ev.ResultSummary)
		fmt.Fprintf(&b, "- **Timestamp**: %s\n", ev.Timestamp.Format(time.RFC3339))
	}

	b.WriteString("\n## Recommendation\n")
	fmt.Fprintf(&b, "- **Level**: %s\n", strings.ToUpper(string(rec.Level)))
	fmt.Fprintf(&b, "- **Reason**: %s\n", rec.Reason)
	fmt.Fprintf(&b, "- **Confidence**: %.0f%%\n", rec.Confidence*100)
	return b.String()
}
