package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

var reportNow = time.Date(2025, 12, 10, 18, 0, 0, 0, time.UTC)

func newTestReports(ledger AlertLedger, metrics MetricsSource, opts ReportOptions) *ReportService {
	svc := NewReportService(ledger, metrics, opts, noRetry())
	svc.now = func() time.Time { return reportNow }
	return svc
}

func TestRecentIncidentsReport(t *testing.T) {
	ledger := &memLedger{entries: []model.LedgerEntry{
		ledgerEntry("checkout", model.SeverityCritical, model.AlertStatusFiring, reportNow.Add(-time.Hour)),
		ledgerEntry("checkout", model.SeverityMajor, model.AlertStatusResolved, reportNow.Add(-2*time.Hour)),
		ledgerEntry("search", model.SeverityMajor, model.AlertStatusFiring, reportNow.Add(-3*time.Hour)),
		ledgerEntry("search", model.SeverityMajor, model.AlertStatusFiring, reportNow.Add(-30*time.Hour)),
	}}
	svc := newTestReports(ledger, nil, ReportOptions{})

	report, err := svc.Generate(context.Background(), model.CommandRecentIncidents, map[string]string{"hours": "24"})
	require.NoError(t, err)

	assert.Contains(t, report, "# Recent Incidents (last 24 hours)")
	assert.Contains(t, report, "**Total**: 3 incidents")
	assert.Contains(t, report, "**Critical**: 1 | **Major**: 2")
	assert.Contains(t, report, "- checkout: 2")
	assert.Contains(t, report, "## Major (2)")
	assert.Contains(t, report, "_(resolved)_")
}

func TestRecentIncidentsReportFiltersAndClamp(t *testing.T) {
	ledger := &memLedger{entries: []model.LedgerEntry{
		ledgerEntry("checkout", model.SeverityCritical, model.AlertStatusFiring, reportNow.Add(-time.Hour)),
		ledgerEntry("search", model.SeverityMajor, model.AlertStatusFiring, reportNow.Add(-time.Hour)),
	}}
	svc := newTestReports(ledger, nil, ReportOptions{})

	report, err := svc.Generate(context.Background(), model.CommandRecentIncidents,
		map[string]string{"hours": "999", "severity": "MAJOR"})
	require.NoError(t, err)
	assert.Contains(t, report, "last 168 hours")
	assert.Contains(t, report, "**Total**: 1 incidents")

	empty, err := svc.Generate(context.Background(), model.CommandRecentIncidents, map[string]string{"hours": "x", "service": "billing"})
	require.NoError(t, err)
	assert.Contains(t, empty, "No incidents recorded in the last 24 hours.")
}

func TestHealthReport(t *testing.T) {
	ledger := &memLedger{entries: []model.LedgerEntry{
		ledgerEntry("checkout", model.SeverityCritical, model.AlertStatusFiring, reportNow.Add(-time.Hour)),
		ledgerEntry("search", model.SeverityMinor, model.AlertStatusFiring, reportNow.Add(-time.Hour)),
	}}
	metrics := &fakeMetrics{values: map[string]float64{
		ErrorRateQuery("search"):  0.2,
		LatencyP95Query("search"): 90,
	}}
	svc := newTestReports(ledger, metrics, ReportOptions{
		MonitoredServices: []string{"checkout", "search", "billing"},
		LatencyMS:         500,
		ErrorRate:         0.01,
	})

	report, err := svc.Generate(context.Background(), model.CommandHealth, map[string]string{})
	require.NoError(t, err)

	assert.Contains(t, report, "**Active alerts**: 2 (1 critical, 0 major)")
	assert.Contains(t, report, "- checkout: 🔴 CRITICAL (1 critical, 0 major active)")
	assert.Contains(t, report, "- search: 🟠 DEGRADED")
	assert.Contains(t, report, "error rate: 20.00%")
	assert.Contains(t, report, "- billing: 🟢 HEALTHY")

	metrics.calls = 0
	_, err = svc.Generate(context.Background(), model.CommandHealth, map[string]string{"services": "search", "include_metrics": "false"})
	require.NoError(t, err)
	assert.Zero(t, metrics.calls)
}

func TestPostDeploymentReport(t *testing.T) {
	deploy := time.Date(2025, 12, 10, 14, 0, 0, 0, time.UTC)
	ledger := &memLedger{entries: []model.LedgerEntry{
		ledgerEntry("auth-service", model.SeverityCritical, model.AlertStatusFiring, deploy.Add(45*time.Minute)),
	}}
	svc := newTestReports(ledger, nil, ReportOptions{})

	report, err := svc.Generate(context.Background(), model.CommandPostDeployment, deployParams())
	require.NoError(t, err)
	assert.Contains(t, report, "Post-deployment: 1 alerts (1 critical)")
	assert.Contains(t, report, "45 minutes post-deploy")
	assert.Contains(t, report, "ROLLBACK RECOMMENDED")

	clean, err := newTestReports(&memLedger{}, nil, ReportOptions{}).
		Generate(context.Background(), model.CommandPostDeployment, deployParams())
	require.NoError(t, err)
	assert.Contains(t, clean, "DEPLOYMENT SUCCESSFUL")

	_, err = svc.Generate(context.Background(), model.CommandPostDeployment,
		map[string]string{"service": "auth-service", "deployment_time": "yesterday-ish"})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestDeployVerdict(t *testing.T) {
	assert.Contains(t, deployVerdict(0, 0, 0), "DEPLOYMENT SUCCESSFUL")
	assert.Contains(t, deployVerdict(1, 1, 0), "CONTINUOUS MONITORING")
	assert.Contains(t, deployVerdict(1, 3, 0), "INTENSIVE MONITORING")
	assert.Contains(t, deployVerdict(5, 1, 1), "ROLLBACK RECOMMENDED")
}

func TestTrendsReport(t *testing.T) {
	ledger := &memLedger{entries: []model.LedgerEntry{
		ledgerEntry("checkout", model.SeverityMajor, model.AlertStatusResolved, reportNow.Add(-30*time.Hour)),
		ledgerEntry("checkout", model.SeverityMajor, model.AlertStatusResolved, reportNow.Add(-5*time.Hour)),
		ledgerEntry("checkout", model.SeverityCritical, model.AlertStatusResolved, reportNow.Add(-4*time.Hour)),
	}}
	svc := newTestReports(ledger, nil, ReportOptions{})

	report, err := svc.Generate(context.Background(), model.CommandTrends, map[string]string{"period_hours": "24"})
	require.NoError(t, err)
	assert.Contains(t, report, "**Change**: +100.0% (significant change)")
	assert.Contains(t, report, "↗️ upward trend")

	noBaseline, err := svc.Generate(context.Background(), model.CommandTrends, map[string]string{"period_hours": "1"})
	require.NoError(t, err)
	assert.Contains(t, noBaseline, "+0.0% (no baseline in previous period)")
	assert.Contains(t, noBaseline, "→ stable")
}

func TestChangePercent(t *testing.T) {
	change, ok := changePercent(0, 5)
	assert.Zero(t, change)
	assert.False(t, ok)

	change, ok = changePercent(4, 2)
	assert.InDelta(t, -50.0, change, 1e-9)
	assert.True(t, ok)
}

func TestDailyDigestReport(t *testing.T) {
	day := time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC)
	ledger := &memLedger{entries: []model.LedgerEntry{
		ledgerEntry("checkout", model.SeverityCritical, model.AlertStatusResolved, day.Add(2*time.Hour)),
		ledgerEntry("checkout", model.SeverityCritical, model.AlertStatusResolved, day.Add(3*time.Hour)),
		ledgerEntry("search", model.SeverityMajor, model.AlertStatusResolved, day.Add(4*time.Hour)),
		ledgerEntry("search", model.SeverityMajor, model.AlertStatusResolved, day.Add(-4*time.Hour)),
	}}
	svc := newTestReports(ledger, nil, ReportOptions{})

	// date 없으면 전날 (reportNow 기준 2025-12-09)
	report, err := svc.Generate(context.Background(), model.CommandDailyDigest, map[string]string{})
	require.NoError(t, err)
	assert.Contains(t, report, "# Daily Digest: 2025-12-09")
	assert.Contains(t, report, "Recorded 2 critical incidents and 1 major incidents out of 3 total.")
	assert.Contains(t, report, "## Top Critical Incidents")
	assert.Contains(t, report, "Previous day: 1 incidents (+200.0%)")

	_, err = svc.Generate(context.Background(), model.CommandDailyDigest, map[string]string{"date": "12/09/2025"})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestIntParam(t *testing.T) {
	params := map[string]string{"a": "8", "b": "0", "c": "500", "d": "eight"}
	assert.Equal(t, 8, intParam(params, "a", 24, 1, 168))
	assert.Equal(t, 1, intParam(params, "b", 24, 1, 168))
	assert.Equal(t, 168, intParam(params, "c", 24, 1, 168))
	assert.Equal(t, 24, intParam(params, "d", 24, 1, 168))
	assert.Equal(t, 24, intParam(params, "missing", 24, 1, 168))
}

func TestGenerateRejectsNonIntegerHours(t *testing.T) {
	svc := NewReportService(&memLedger{}, nil, ReportOptions{}, noRetry())

	tests := []struct {
		canonical model.Canonical
		params    map[string]string
	}{
		{model.CommandRecentIncidents, map[string]string{"hours": "8h"}},
		{model.CommandTrends, map[string]string{"period_hours": "abc"}},
		{model.CommandPostDeployment, map[string]string{"service": "auth-service", "deployment_time": "2025-12-10T14:00:00Z", "monitoring_window_hours": "two"}},
	}
	for _, tc := range tests {
		t.Run(string(tc.canonical), func(t *testing.T) {
			_, err := svc.Generate(context.Background(), tc.canonical, tc.params)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}

	require.NoError(t, ValidateParams(map[string]string{"hours": " 8 ", "period_hours": "500"}))
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 12, 10, 14, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-12-10T14:00:00Z", "2025-12-10T16:00:00+02:00", "2025-12-10T14:00", "2025-12-10 14:00"} {
		got, err := parseTimestamp(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}
	_, err := parseTimestamp("")
	assert.Error(t, err)
}
