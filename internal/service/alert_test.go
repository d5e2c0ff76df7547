package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		name        string
		labels      map[string]string
		annotations map[string]string
		want        model.Severity
	}{
		{"crit label", map[string]string{"severity": "crit"}, nil, model.SeverityCritical},
		{"label is case insensitive", map[string]string{"severity": " CRITICAL "}, nil, model.SeverityCritical},
		{"p2 label", map[string]string{"severity": "p2"}, nil, model.SeverityMajor},
		{"warn label", map[string]string{"severity": "warn"}, nil, model.SeverityWarning},
		{
			"timeout annotation",
			nil,
			map[string]string{"summary": "Connection timeout to postgres, 5xx spike"},
			model.SeverityMajor,
		},
		{"outage annotation", nil, map[string]string{"description": "Full OUTAGE in eu-west"}, model.SeverityCritical},
		{"label wins over annotation", map[string]string{"severity": "minor"}, map[string]string{"summary": "outage"}, model.SeverityMinor},
		{"unknown label falls through", map[string]string{"severity": "bogus"}, nil, model.SeverityInfo},
		{"empty", nil, nil, model.SeverityInfo},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifySeverity(tc.labels, tc.annotations))
		})
	}
}

func TestNormalizeAlert(t *testing.T) {
	raw := map[string]any{
		"status":       "FIRING",
		"labels":       map[string]any{"alertname": "HighLatency", "service": "checkout", "replicas": 3.0},
		"annotations":  map[string]any{"summary": "p95 above 2s", "runbook": nil},
		"starts_at":    "2025-12-10T14:00:00+02:00",
		"endsAt":       "0001-01-01T00:00:00Z",
		"generatorURL": "http://prometheus/graph",
		"fingerprint":  "abc123",
	}

	alert := NormalizeAlert(raw)

	start := time.Date(2025, 12, 10, 12, 0, 0, 0, time.UTC)
	want := model.Alert{
		Status:       model.AlertStatusFiring,
		Labels:       map[string]string{"alertname": "HighLatency", "service": "checkout", "replicas": "3"},
		Annotations:  map[string]string{"summary": "p95 above 2s"},
		StartsAt:     &start,
		GeneratorURL: "http://prometheus/graph",
		Fingerprint:  "abc123",
	}
	if diff := cmp.Diff(want, alert); diff != "" {
		t.Fatalf("NormalizeAlert mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeAlertUnknownStatus(t *testing.T) {
	alert := NormalizeAlert(map[string]any{"status": "pending", "labels": "not-a-map"})
	assert.Equal(t, model.AlertStatus(""), alert.Status)
	assert.Empty(t, alert.Labels)
	assert.Nil(t, alert.StartsAt)
}

func TestSplitAlertPayload(t *testing.T) {
	single := map[string]any{"fingerprint": "a"}
	assert.Equal(t, []map[string]any{single}, SplitAlertPayload(single))

	batch := map[string]any{"alerts": []any{
		map[string]any{"fingerprint": "a"},
		"garbage",
		map[string]any{"fingerprint": "b"},
	}}
	got := SplitAlertPayload(batch)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1]["fingerprint"])
}

func newTestAlertService(ledger *memLedger, clk *clock, notifier Notifier) *AlertService {
	deduper := NewAlertDeduplicator(ledger, 60)
	deduper.now = clk.Now
	svc := NewAlertService(ledger, deduper, nil, notifier, NewMetrics(), noRetry())
	svc.now = clk.Now
	return svc
}

func alertPayload(fingerprint string) map[string]any {
	return map[string]any{
		"status":      "firing",
		"labels":      map[string]any{"alertname": "DBDown", "service": "auth-service", "severity": "critical"},
		"annotations": map[string]any{"summary": "primary unreachable"},
		"fingerprint": fingerprint,
	}
}

func TestProcessWebhookDedupWindow(t *testing.T) {
	ledger := &memLedger{}
	clk := newClock(time.Date(2025, 12, 10, 14, 0, 0, 0, time.UTC))
	svc := newTestAlertService(ledger, clk, nil)
	ctx := context.Background()

	first, err := svc.ProcessWebhook(ctx, alertPayload("abc123"))
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.False(t, first[0].IsDuplicate)
	assert.Equal(t, model.SeverityCritical, first[0].Severity)
	assert.Contains(t, first[0].Report, "DBDown")

	clk.Advance(10 * time.Minute)
	second, err := svc.ProcessWebhook(ctx, alertPayload("abc123"))
	require.NoError(t, err)
	assert.True(t, second[0].IsDuplicate)
	assert.Equal(t, DuplicateAlertReport, second[0].Report)
	assert.NotEqual(t, first[0].AlertID, second[0].AlertID)

	clk.Advance(61 * time.Minute)
	third, err := svc.ProcessWebhook(ctx, alertPayload("abc123"))
	require.NoError(t, err)
	assert.False(t, third[0].IsDuplicate)

	assert.Equal(t, 3, ledger.len())
}

func TestProcessWebhookBatchAndNotify(t *testing.T) {
	ledger := &memLedger{}
	clk := newClock(time.Date(2025, 12, 10, 14, 0, 0, 0, time.UTC))
	notifier := &recordingNotifier{}
	svc := newTestAlertService(ledger, clk, notifier)

	payload := map[string]any{"alerts": []any{
		alertPayload("crit-1"),
		map[string]any{"status": "firing", "labels": map[string]any{"severity": "info"}, "fingerprint": "info-1"},
		map[string]any{"status": "resolved", "labels": map[string]any{"severity": "info"}, "fingerprint": "info-2"},
	}}

	results, err := svc.ProcessWebhook(context.Background(), payload)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// critical firing + resolved
	require.Len(t, notifier.alerts, 2)
	assert.Equal(t, "crit-1", notifier.alerts[0].Alert.Fingerprint)
	assert.Equal(t, model.AlertStatusResolved, notifier.alerts[1].Alert.Status)
}

func TestProcessWebhookResolvedAfterFiringIsDelivered(t *testing.T) {
	ledger := &memLedger{}
	clk := newClock(time.Date(2025, 12, 10, 14, 0, 0, 0, time.UTC))
	notifier := &recordingNotifier{}
	svc := newTestAlertService(ledger, clk, notifier)
	ctx := context.Background()

	_, err := svc.ProcessWebhook(ctx, alertPayload("fp-1"))
	require.NoError(t, err)

	clk.Advance(10 * time.Minute)
	repeat, err := svc.ProcessWebhook(ctx, alertPayload("fp-1"))
	require.NoError(t, err)
	require.True(t, repeat[0].IsDuplicate)

	resolved := alertPayload("fp-1")
	resolved["status"] = "resolved"
	results, err := svc.ProcessWebhook(ctx, resolved)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].IsDuplicate)

	// firing 1건(중복 firing은 제외) + resolved 1건
	require.Len(t, notifier.alerts, 2)
	assert.Equal(t, model.AlertStatusFiring, notifier.alerts[0].Alert.Status)
	assert.Equal(t, model.AlertStatusResolved, notifier.alerts[1].Alert.Status)
	assert.Equal(t, "fp-1", notifier.alerts[1].Alert.Fingerprint)
}

func TestShouldNotifyAlert(t *testing.T) {
	tests := []struct {
		name   string
		status model.AlertStatus
		sev    model.Severity
		dup    bool
		want   bool
	}{
		{"critical firing", model.AlertStatusFiring, model.SeverityCritical, false, true},
		{"major firing", model.AlertStatusFiring, model.SeverityMajor, false, true},
		{"warning firing", model.AlertStatusFiring, model.SeverityWarning, false, false},
		{"duplicate critical firing", model.AlertStatusFiring, model.SeverityCritical, true, false},
		{"resolved", model.AlertStatusResolved, model.SeverityInfo, false, true},
		{"duplicate resolved", model.AlertStatusResolved, model.SeverityCritical, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			alert := model.ClassifiedAlert{
				Alert:       model.Alert{Status: tc.status},
				Severity:    tc.sev,
				IsDuplicate: tc.dup,
			}
			assert.Equal(t, tc.want, shouldNotifyAlert(alert))
		})
	}
}

func TestProcessWebhookDedupFailureIsNotFatal(t *testing.T) {
	failing := &memLedger{err: errLedgerDown}
	clk := newClock(time.Date(2025, 12, 10, 14, 0, 0, 0, time.UTC))
	svc := newTestAlertService(failing, clk, nil)

	results, err := svc.ProcessWebhook(context.Background(), alertPayload("abc123"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errLedgerDown)
	require.Len(t, results, 1)
	assert.False(t, results[0].IsDuplicate)
}

func TestProcessWebhookUsesAnalyzer(t *testing.T) {
	ledger := &memLedger{}
	clk := newClock(time.Date(2025, 12, 10, 14, 0, 0, 0, time.UTC))
	analyzer := &fakeAnalyzer{reply: "## Summary\nprimary database is down"}
	svc := newTestAlertService(ledger, clk, nil)
	svc.analyzer = analyzer

	results, err := svc.ProcessWebhook(context.Background(), alertPayload("abc123"))
	require.NoError(t, err)
	assert.Equal(t, analyzer.reply, results[0].Report)
	require.Len(t, analyzer.prompts, 1)
	assert.Contains(t, analyzer.prompts[0], "alertname: DBDown")
}
