// Alert 처리 비즈니스 로직 정의
// handler에서 받은 웹훅 페이로드를 판정하고 원장에 기록한 뒤 알림 채널로 전달
//
// 처리 흐름 (알림마다):
//  1. 배치 봉투({alerts: [...]})면 개별 알림으로 분리
//  2. AlertNormalizer로 고정 형태 변환
//  3. SeverityClassifier로 심각도 결정
//  4. AlertDeduplicator로 fingerprint 중복 판정 (조회 실패 시 중복 아님으로 진행)
//  5. 중복이 아니면 분석 리포트 생성 (Analyzer가 있으면 외부 모델, 없으면 요약 템플릿)
//  6. LedgerEntry로 원장에 append (id는 발생마다 새로 생성)
//  7. 중복이 아닌 critical/major 및 resolved 알림은 Notifier로 전달
//  8. 알림별 처리 결과 반환

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/polsebas/agente-admin-observabilidad/internal/client"
	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// DuplicateAlertReport - 중복 알림에 기록하는 리포트
const DuplicateAlertReport = "Alert marked as duplicate; triage skipped."

// Analyzer - 외부 분석 단계 (자유 텍스트 생성)
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (string, error)
}

// AlertService 구조체 정의
type AlertService struct {
	ledger   AlertLedger
	deduper  *AlertDeduplicator
	analyzer Analyzer
	notifier Notifier
	metrics  *Metrics
	retry    client.RetryPolicy
	now      func() time.Time
}

// AlertService 객체 생성. analyzer, notifier, metrics는 nil이어도 된다.
func NewAlertService(ledger AlertLedger, deduper *AlertDeduplicator, analyzer Analyzer, notifier Notifier, metrics *Metrics, retry client.RetryPolicy) *AlertService {
	return &AlertService{
		ledger:   ledger,
		deduper:  deduper,
		analyzer: analyzer,
		notifier: notifier,
		metrics:  metrics,
		retry:    retry,
		now:      time.Now,
	}
}

// ProcessWebhook - 단일 알림 또는 배치 페이로드 처리
// 원장 기록에 실패한 알림이 있으면 결과와 함께 에러를 반환한다.
func (s *AlertService) ProcessWebhook(ctx context.Context, payload map[string]any) ([]model.AlertResult, error) {
	raws := SplitAlertPayload(payload)
	results := make([]model.AlertResult, 0, len(raws))

	var errs []error
	for _, raw := range raws {
		result, err := s.processAlert(ctx, raw)
		if err != nil {
			errs = append(errs, err)
		}
		results = append(results, result)
	}
	return results, errors.Join(errs...)
}

func (s *AlertService) processAlert(ctx context.Context, raw map[string]any) (model.AlertResult, error) {
	// 1. 정규화 + 분류
	alert := NormalizeAlert(raw)
	classified := model.ClassifiedAlert{
		Alert:    alert,
		Severity: ClassifySeverity(alert.Labels, alert.Annotations),
		Context:  model.NewAlertContext(alert),
	}

	log := logrus.WithFields(logrus.Fields{
		"fingerprint": alert.Fingerprint,
		"alertname":   classified.Context.AlertName,
		"severity":    classified.Severity,
		"status":      alert.Status,
	})

	// 2. 중복 판정 (실패해도 계속 진행)
	dup, err := s.deduper.IsDuplicate(ctx, alert.Fingerprint, 0)
	if err != nil {
		log.Warnf("Dedup lookup failed, treating as new alert: %v", err)
	}
	classified.IsDuplicate = dup

	// 3. 리포트
	report := DuplicateAlertReport
	if !dup {
		report = s.analyze(ctx, classified)
	}

	// 4. 원장 기록
	entry := model.LedgerEntry{
		ID:             uuid.NewString(),
		Fingerprint:    alert.Fingerprint,
		Status:         alert.Status,
		Severity:       classified.Severity,
		Labels:         alert.Labels,
		Annotations:    alert.Annotations,
		ReceivedAt:     s.now().UTC(),
		AnalysisReport: report,
		IsDuplicate:    dup,
	}

	result := model.AlertResult{
		AlertID:     entry.ID,
		Fingerprint: alert.Fingerprint,
		Severity:    classified.Severity,
		IsDuplicate: dup,
		Context:     classified.Context,
		Report:      report,
	}

	s.metrics.alertReceived(classified.Severity, dup)

	if err := s.ledger.Append(ctx, entry); err != nil {
		log.Errorf("Failed to append ledger entry: %v", err)
		return result, fmt.Errorf("append alert %s: %w", entry.ID, err)
	}
	log.WithField("alert_id", entry.ID).Infof("Recorded alert (duplicate=%v)", dup)

	// 5. 알림 전달
	if s.notifier != nil && shouldNotifyAlert(classified) {
		_ = s.notifier.NotifyAlert(ctx, classified)
	}
	return result, nil
}

// analyze - 외부 분석 결과, 실패하거나 분석기가 없으면 요약 템플릿
func (s *AlertService) analyze(ctx context.Context, alert model.ClassifiedAlert) string {
	if s.analyzer == nil {
		return alertSummary(alert)
	}

	text, err := client.Retry(ctx, s.retry, "analyzer.alert", func(ctx context.Context) (string, error) {
		return s.analyzer.Analyze(ctx, alertPrompt(alert))
	})
	if err != nil {
		logrus.WithField("fingerprint", alert.Alert.Fingerprint).Warnf("Alert analysis failed, using summary: %v", err)
		return alertSummary(alert)
	}
	return text
}

func alertPrompt(alert model.ClassifiedAlert) string {
	var b strings.Builder
	b.WriteString("Analyze the following alert and produce a short triage report in markdown ")
	b.WriteString("with sections: Summary, Probable Cause, Suggested Actions.\n\n")
	fmt.Fprintf(&b, "- alertname: %s\n", alert.Context.AlertName)
	fmt.Fprintf(&b, "- severity: %s\n", alert.Severity)
	fmt.Fprintf(&b, "- status: %s\n", alert.Alert.Status)
	fmt.Fprintf(&b, "- service: %s\n", alert.Context.Service)
	fmt.Fprintf(&b, "- instance: %s\n", alert.Context.Instance)
	fmt.Fprintf(&b, "- summary: %s\n", alert.Context.Summary)
	fmt.Fprintf(&b, "- description: %s\n", alert.Context.Description)
	if len(alert.Context.Extra) > 0 {
		b.WriteString("- labels:\n")
		for _, k := range sortedKeys(alert.Context.Extra) {
			fmt.Fprintf(&b, "  - %s=%s\n", k, alert.Context.Extra[k])
		}
	}
	return b.String()
}

func alertSummary(alert model.ClassifiedAlert) string {
	var b strings.Builder
	name := alert.Context.AlertName
	if name == "" {
		name = "unnamed alert"
	}
	fmt.Fprintf(&b, "## Alert: %s\n\n", name)
	fmt.Fprintf(&b, "- **Severity**: %s\n", alert.Severity)
	fmt.Fprintf(&b, "- **Status**: %s\n", alert.Alert.Status)
	if alert.Context.Service != "" {
		fmt.Fprintf(&b, "- **Service**: %s\n", alert.Context.Service)
	}
	if alert.Context.Instance != "" {
		fmt.Fprintf(&b, "- **Instance**: %s\n", alert.Context.Instance)
	}
	if ts := alert.Context.Timeframe.StartsAt; ts != nil {
		fmt.Fprintf(&b, "- **Started**: %s\n", ts.Format(time.RFC3339))
	}
	if alert.Context.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n", alert.Context.Summary)
	}
	if alert.Context.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", alert.Context.Description)
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
