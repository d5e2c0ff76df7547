package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// Metrics - 판정 계층 Prometheus 지표
// nil *Metrics의 메서드는 아무것도 하지 않는다.
type Metrics struct {
	registry *prometheus.Registry

	alertsReceived   *prometheus.CounterVec
	alertDuplicates  prometheus.Counter
	commandsExecuted *prometheus.CounterVec
	resultCacheHits  prometheus.Counter
	evidenceFailures *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		alertsReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_alerts_received_total",
				Help: "Alerts received through the webhook, by classified severity",
			},
			[]string{"severity"},
		),
		alertDuplicates: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "agent_alert_duplicates_total",
				Help: "Alerts marked as duplicates within the dedup window",
			},
		),
		commandsExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_commands_total",
				Help: "Quick commands executed, by canonical command and recommendation level",
			},
			[]string{"canonical", "level"},
		),
		resultCacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "agent_result_cache_hits_total",
				Help: "Command results suppressed by the result dedup cache",
			},
		),
		evidenceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_evidence_check_failures_total",
				Help: "Evidence checks that did not pass, by source",
			},
			[]string{"source"},
		),
	}
}

// Registry - /metrics 핸들러에 연결할 레지스트리
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) alertReceived(severity model.Severity, duplicate bool) {
	if m == nil {
		return
	}
	m.alertsReceived.WithLabelValues(string(severity)).Inc()
	if duplicate {
		m.alertDuplicates.Inc()
	}
}

func (m *Metrics) commandExecuted(canonical model.Canonical, level model.RecommendationLevel, cacheHit bool) {
	if m == nil {
		return
	}
	m.commandsExecuted.WithLabelValues(string(canonical), string(level)).Inc()
	if cacheHit {
		m.resultCacheHits.Inc()
	}
}

func (m *Metrics) evidenceFailed(source string) {
	if m == nil {
		return
	}
	m.evidenceFailures.WithLabelValues(source).Inc()
}
