package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polsebas/agente-admin-observabilidad/internal/command"
	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

var verifyNow = time.Date(2025, 12, 10, 18, 0, 0, 0, time.UTC)

func newTestEngine(ledger AlertLedger, metrics MetricsSource) *VerificationEngine {
	engine := NewVerificationEngine(ledger, metrics, VerificationOptions{
		Timeout:   time.Second,
		LatencyMS: 500,
		ErrorRate: 0.01,
	}, noRetry(), NewMetrics())
	engine.now = func() time.Time { return verifyNow }
	return engine
}

func deployParams() map[string]string {
	return map[string]string{"service": "auth-service", "deployment_time": "2025-12-10T14:00:00Z"}
}

func TestVerifyPostDeploymentClean(t *testing.T) {
	engine := newTestEngine(&memLedger{}, nil)

	res := engine.Run(context.Background(), model.CommandPostDeployment, deployParams(), "# base")

	assert.Equal(t, model.LevelFYI, res.Recommendation.Level)
	assert.Contains(t, res.Recommendation.Reason, "deployment clean")
	require.Len(t, res.Evidence, 2)
	for _, ev := range res.Evidence {
		assert.True(t, ev.Pass, ev.Source)
		assert.Equal(t, verifyNow, ev.Timestamp)
	}
}

func TestVerifyPostDeploymentCritical(t *testing.T) {
	deploy := time.Date(2025, 12, 10, 14, 0, 0, 0, time.UTC)
	ledger := &memLedger{entries: []model.LedgerEntry{
		ledgerEntry("auth-service", model.SeverityCritical, model.AlertStatusFiring, deploy.Add(30*time.Minute)),
	}}
	engine := newTestEngine(ledger, nil)

	res := engine.Run(context.Background(), model.CommandPostDeployment, deployParams(), "# base")

	assert.Equal(t, model.LevelNotify, res.Recommendation.Level)
	assert.GreaterOrEqual(t, res.Recommendation.Confidence, 0.95)
	assert.Contains(t, res.Recommendation.Reason, "critical")
}

func TestVerifyPostDeploymentMatchesJobLabel(t *testing.T) {
	deploy := time.Date(2025, 12, 10, 14, 0, 0, 0, time.UTC)
	e := ledgerEntry("auth-service", model.SeverityCritical, model.AlertStatusFiring, deploy.Add(30*time.Minute))
	delete(e.Labels, "service")
	e.Labels["job"] = "auth-service"
	engine := newTestEngine(&memLedger{entries: []model.LedgerEntry{e}}, nil)

	res := engine.Run(context.Background(), model.CommandPostDeployment, deployParams(), "# base")

	assert.Equal(t, model.LevelNotify, res.Recommendation.Level)
	assert.GreaterOrEqual(t, res.Recommendation.Confidence, 0.95)
}

func TestVerifyPostDeploymentRatio(t *testing.T) {
	deploy := time.Date(2025, 12, 10, 14, 0, 0, 0, time.UTC)
	ledger := &memLedger{entries: []model.LedgerEntry{
		ledgerEntry("auth-service", model.SeverityMinor, model.AlertStatusFiring, deploy.Add(-time.Hour)),
		ledgerEntry("auth-service", model.SeverityMinor, model.AlertStatusFiring, deploy.Add(10*time.Minute)),
		ledgerEntry("auth-service", model.SeverityMinor, model.AlertStatusFiring, deploy.Add(20*time.Minute)),
		ledgerEntry("auth-service", model.SeverityMinor, model.AlertStatusFiring, deploy.Add(30*time.Minute)),
		// 다른 서비스, 모니터링 구간 밖
		ledgerEntry("billing", model.SeverityCritical, model.AlertStatusFiring, deploy.Add(10*time.Minute)),
		ledgerEntry("auth-service", model.SeverityCritical, model.AlertStatusFiring, deploy.Add(3*time.Hour)),
	}}
	engine := newTestEngine(ledger, nil)

	res := engine.Run(context.Background(), model.CommandPostDeployment, deployParams(), "# base")

	assert.Equal(t, model.LevelNotify, res.Recommendation.Level)
	assert.InDelta(t, 0.8, res.Recommendation.Confidence, 1e-9)
	assert.Contains(t, res.Evidence[0].ResultSummary, "pre 1, post 3")
	assert.False(t, res.Evidence[0].Pass)
}

func TestVerifyPostDeploymentMissingTime(t *testing.T) {
	engine := newTestEngine(&memLedger{}, nil)

	res := engine.Run(context.Background(), model.CommandPostDeployment, map[string]string{"service": "auth-service"}, "# base")

	require.Len(t, res.Evidence, 1)
	assert.False(t, res.Evidence[0].Pass)
	assert.Contains(t, res.Evidence[0].ResultSummary, "deployment_time")
	assert.Equal(t, DefaultRecommendation(), res.Recommendation)
}

func TestVerifyActiveCriticalEscalates(t *testing.T) {
	ledger := &memLedger{entries: []model.LedgerEntry{
		ledgerEntry("checkout", model.SeverityCritical, model.AlertStatusFiring, verifyNow.Add(-time.Hour)),
	}}
	engine := newTestEngine(ledger, nil)

	res := engine.Run(context.Background(), model.CommandTrends, map[string]string{}, "# base")

	assert.Equal(t, model.LevelNotify, res.Recommendation.Level)
	assert.InDelta(t, 0.9, res.Recommendation.Confidence, 1e-9)
	require.Len(t, res.Evidence, 1)
	assert.Equal(t, string(command.CheckActiveHealth), res.Evidence[0].Source)
}

func TestVerifyMajorOnlyDoesNotEscalate(t *testing.T) {
	ledger := &memLedger{entries: []model.LedgerEntry{
		ledgerEntry("checkout", model.SeverityMajor, model.AlertStatusFiring, verifyNow.Add(-time.Hour)),
	}}
	engine := newTestEngine(ledger, nil)

	res := engine.Run(context.Background(), model.CommandTrends, map[string]string{}, "# base")

	require.Len(t, res.Evidence, 1)
	assert.False(t, res.Evidence[0].Pass)
	assert.Equal(t, DefaultRecommendation(), res.Recommendation)
}

func TestVerifyKeepsHigherConfidence(t *testing.T) {
	// 이전 구간 1건, 현재 구간 3건 (+200%) 그리고 활성 critical
	ledger := &memLedger{entries: []model.LedgerEntry{
		ledgerEntry("checkout", model.SeverityMinor, model.AlertStatusResolved, verifyNow.Add(-30*time.Hour)),
		ledgerEntry("checkout", model.SeverityCritical, model.AlertStatusFiring, verifyNow.Add(-3*time.Hour)),
		ledgerEntry("checkout", model.SeverityMinor, model.AlertStatusResolved, verifyNow.Add(-2*time.Hour)),
		ledgerEntry("checkout", model.SeverityMinor, model.AlertStatusResolved, verifyNow.Add(-time.Hour)),
	}}
	engine := newTestEngine(ledger, nil)

	res := engine.Run(context.Background(), model.CommandRecentIncidents, map[string]string{"hours": "24"}, "# base")

	require.Len(t, res.Evidence, 2)
	assert.False(t, res.Evidence[0].Pass)
	assert.False(t, res.Evidence[1].Pass)
	assert.Contains(t, res.Evidence[1].ResultSummary, "+200.0%")
	assert.Equal(t, model.LevelNotify, res.Recommendation.Level)
	assert.InDelta(t, 0.9, res.Recommendation.Confidence, 1e-9)
}

func TestVerifyTrendSpikeAlone(t *testing.T) {
	ledger := &memLedger{entries: []model.LedgerEntry{
		ledgerEntry("checkout", model.SeverityMinor, model.AlertStatusResolved, verifyNow.Add(-6*time.Hour)),
		ledgerEntry("checkout", model.SeverityMinor, model.AlertStatusResolved, verifyNow.Add(-3*time.Hour)),
		ledgerEntry("checkout", model.SeverityMinor, model.AlertStatusResolved, verifyNow.Add(-2*time.Hour)),
	}}
	engine := newTestEngine(ledger, nil)

	res := engine.Run(context.Background(), model.CommandRecentIncidents, map[string]string{"hours": "4"}, "# base")

	assert.Equal(t, model.LevelNotify, res.Recommendation.Level)
	assert.InDelta(t, 0.85, res.Recommendation.Confidence, 1e-9)
}

func TestVerifyTrendDropFailsEvidenceWithoutEscalating(t *testing.T) {
	ledger := &memLedger{entries: []model.LedgerEntry{
		ledgerEntry("checkout", model.SeverityMinor, model.AlertStatusResolved, verifyNow.Add(-7*time.Hour)),
		ledgerEntry("checkout", model.SeverityMinor, model.AlertStatusResolved, verifyNow.Add(-6*time.Hour)),
		ledgerEntry("checkout", model.SeverityMinor, model.AlertStatusResolved, verifyNow.Add(-5*time.Hour)),
		ledgerEntry("checkout", model.SeverityMinor, model.AlertStatusResolved, verifyNow.Add(-time.Hour)),
	}}
	engine := newTestEngine(ledger, nil)

	res := engine.Run(context.Background(), model.CommandRecentIncidents, map[string]string{"hours": "4"}, "# base")

	require.Len(t, res.Evidence, 2)
	trend := res.Evidence[1]
	assert.Equal(t, string(command.CheckTrendComparison), trend.Source)
	assert.False(t, trend.Pass)
	assert.Contains(t, trend.ResultSummary, "-66.7%")
	assert.Equal(t, DefaultRecommendation(), res.Recommendation)
}

func TestVerifyLedgerFailureIsEvidence(t *testing.T) {
	engine := newTestEngine(&memLedger{err: errLedgerDown}, nil)

	res := engine.Run(context.Background(), model.CommandRecentIncidents, map[string]string{}, "# base report\n")

	require.Len(t, res.Evidence, 2)
	for _, ev := range res.Evidence {
		assert.False(t, ev.Pass)
		assert.Contains(t, ev.ResultSummary, "ledger unavailable")
	}
	assert.Equal(t, DefaultRecommendation(), res.Recommendation)
	assert.Contains(t, res.Report, "# base report")
	assert.Contains(t, res.Report, "## Verification Evidence")
	assert.Contains(t, res.Report, "## Recommendation")
}

func TestVerifyDigestCriticalCount(t *testing.T) {
	engine := newTestEngine(&memLedger{}, nil)

	res := engine.Run(context.Background(), model.CommandDailyDigest, nil,
		"Recorded 2 critical incidents and 1 major incidents out of 5 total.")
	assert.Empty(t, res.Evidence)
	assert.Equal(t, model.LevelNotify, res.Recommendation.Level)
	assert.InDelta(t, 0.9, res.Recommendation.Confidence, 1e-9)
	assert.Contains(t, res.Report, "_No auxiliary checks for this command._")

	quiet := engine.Run(context.Background(), model.CommandDailyDigest, nil,
		"Recorded 0 critical incidents and 0 major incidents out of 0 total.")
	assert.Equal(t, DefaultRecommendation(), quiet.Recommendation)

	spanish := engine.Run(context.Background(), model.CommandDailyDigest, nil, "Se registraron 3 incidentes críticos")
	assert.Equal(t, model.LevelNotify, spanish.Recommendation.Level)
}

func TestVerifyServiceMetrics(t *testing.T) {
	metrics := &fakeMetrics{values: map[string]float64{
		ErrorRateQuery("checkout"):  0.05,
		LatencyP95Query("checkout"): 120,
		ErrorRateQuery("search"):    0.001,
		LatencyP95Query("search"):   80,
	}}
	engine := newTestEngine(&memLedger{}, metrics)

	res := engine.Run(context.Background(), model.CommandHealth, map[string]string{"services": "checkout,search"}, "# base")

	require.Len(t, res.Evidence, 3)
	assert.Equal(t, string(command.CheckRecentIncidents), res.Evidence[0].Source)
	assert.True(t, res.Evidence[0].Pass)
	assert.False(t, res.Evidence[1].Pass)
	assert.Contains(t, res.Evidence[1].ResultSummary, "5.00%")
	assert.True(t, res.Evidence[2].Pass)
	assert.Equal(t, DefaultRecommendation(), res.Recommendation)
}

func TestVerifyServiceMetricsFailure(t *testing.T) {
	metrics := &fakeMetrics{err: errors.New("prometheus unreachable")}
	engine := newTestEngine(&memLedger{}, metrics)

	res := engine.Run(context.Background(), model.CommandHealth, map[string]string{"services": "checkout"}, "# base")

	require.Len(t, res.Evidence, 2)
	assert.False(t, res.Evidence[1].Pass)
	assert.Contains(t, res.Evidence[1].ResultSummary, "prometheus unreachable")
}

func TestVerifyServiceMetricsSkippedWithoutSource(t *testing.T) {
	engine := newTestEngine(&memLedger{}, nil)

	res := engine.Run(context.Background(), model.CommandHealth, map[string]string{"services": "checkout"}, "# base")

	require.Len(t, res.Evidence, 1)
}

func TestEscalate(t *testing.T) {
	notify85 := model.Recommendation{Level: model.LevelNotify, Confidence: 0.85, Reason: "trend"}
	notify90 := model.Recommendation{Level: model.LevelNotify, Confidence: 0.9, Reason: "critical"}
	fyi70 := model.Recommendation{Level: model.LevelFYI, Confidence: 0.7, Reason: "clean"}

	assert.Equal(t, notify90, escalate(notify90, notify85))
	assert.Equal(t, notify90, escalate(notify85, notify90))
	assert.Equal(t, notify85, escalate(notify85, fyi70))
	assert.Equal(t, fyi70, escalate(DefaultRecommendation(), fyi70))
}

func TestVerifyScansBaseReportAndDecoratesDisplayReport(t *testing.T) {
	engine := newTestEngine(&memLedger{}, nil)

	res := engine.Verify(context.Background(), model.CommandDailyDigest, nil,
		"Recorded 2 critical incidents and 0 major incidents out of 2 total.",
		"## Daily summary\n\nNothing unusual.")

	assert.Equal(t, model.LevelNotify, res.Recommendation.Level)
	assert.True(t, strings.HasPrefix(res.Report, "## Daily summary"))
	assert.Contains(t, res.Report, "## Recommendation")
	assert.NotContains(t, res.Report, "Recorded 2 critical")
}
