// 애플리케이션 구성 요소 조립
//
// 조립 순서:
//  1. 알림 원장 (postgres | sqlite) + 재시도 래퍼
//  2. 결과 중복 제거 저장소 (memory | redis)
//  3. 외부 협력자 (Prometheus, GenAI 분석기) - 설정된 것만
//  4. 알림 전달 (Slack, 외부 webhook) - 설정된 것만
//  5. 서비스 (알림 처리, 리포트, 검증, 명령 실행)

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/polsebas/agente-admin-observabilidad/internal/cache"
	"github.com/polsebas/agente-admin-observabilidad/internal/client"
	"github.com/polsebas/agente-admin-observabilidad/internal/config"
	"github.com/polsebas/agente-admin-observabilidad/internal/db"
	"github.com/polsebas/agente-admin-observabilidad/internal/service"
)

// ledgerStore - 원장 구현체가 제공하는 전체 기능
type ledgerStore interface {
	service.AlertLedger
	service.LedgerReader
	EnsureLedgerSchema(ctx context.Context) error
}

type app struct {
	cfg      *config.Config
	ledger   ledgerStore
	metrics  *service.Metrics
	alerts   *service.AlertService
	reports  *service.ReportService
	commands *service.CommandService
	notifier service.Notifier

	closers []func() error
}

// openLedger - ledger.driver에 따라 원장을 연다.
func openLedger(ctx context.Context, cfg *config.Config) (ledgerStore, func() error, error) {
	switch strings.ToLower(cfg.Ledger.Driver) {
	case "sqlite":
		ledger, err := db.OpenSQLite(ctx, cfg.Ledger.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return ledger, ledger.Close, nil
	case "postgres", "":
		pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return &db.Postgres{Pool: pool}, func() error { pool.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown ledger driver %q", cfg.Ledger.Driver)
	}
}

// openResultStore - result_cache.backend에 따라 결과 저장소를 만든다.
func openResultStore(ctx context.Context, cfg config.ResultCacheConfig) (service.ResultStore, func() error, error) {
	switch strings.ToLower(cfg.Backend) {
	case "redis":
		store, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return store, store.Close, nil
	case "memory", "":
		return cache.NewMemory(cfg.MaxEntries, cfg.TTL()), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown result cache backend %q", cfg.Backend)
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, metrics: service.NewMetrics()}
	retry := client.RetryPolicyFromConfig(cfg.Retry)

	// 1. 원장
	ledger, closeLedger, err := openLedger(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.ledger = ledger
	a.closers = append(a.closers, closeLedger)
	if err := ledger.EnsureLedgerSchema(ctx); err != nil {
		a.Close()
		return nil, err
	}
	retrying := service.NewRetryingLedger(ledger, retry)

	// 2. 결과 저장소
	store, closeStore, err := openResultStore(ctx, cfg.ResultCache)
	if err != nil {
		a.Close()
		return nil, err
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}

	// 3. 협력자
	var metricsSource service.MetricsSource
	if cfg.Prometheus.URL != "" {
		prom, err := client.NewPrometheusClient(cfg.Prometheus.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		metricsSource = prom
	} else {
		logrus.Info("PROMETHEUS_URL not set, service metrics evidence disabled")
	}

	var analyzer service.Analyzer
	if cfg.GenAI.APIKey != "" {
		ai, err := client.NewAnalysisClient(ctx, cfg.GenAI)
		if err != nil {
			a.Close()
			return nil, err
		}
		analyzer = ai
	} else {
		logrus.Info("GENAI_API_KEY not set, using templated summaries")
	}

	// 4. 알림 전달
	var notifiers service.MultiNotifier
	if slackClient := client.NewSlackClient(cfg.Slack); slackClient.IsConfigured() {
		notifiers = append(notifiers, slackClient)
	}
	if hooks := service.NewWebhookDeliveryService(cfg.Webhooks.URLs, cfg.Webhooks.BodyTemplate); hooks.IsConfigured() {
		notifiers = append(notifiers, hooks)
	}
	if len(notifiers) > 0 {
		a.notifier = notifiers
	}

	// 5. 서비스
	a.alerts = service.NewAlertService(
		retrying,
		service.NewAlertDeduplicator(retrying, cfg.Dedup.WindowMinutes),
		analyzer, a.notifier, a.metrics, retry,
	)
	a.reports = service.NewReportService(retrying, metricsSource, service.ReportOptions{
		MonitoredServices: cfg.MonitoredServices,
		LatencyMS:         cfg.Thresholds.LatencyMS,
		ErrorRate:         cfg.Thresholds.ErrorRate,
	}, retry)
	verifier := service.NewVerificationEngine(retrying, metricsSource, service.VerificationOptions{
		Timeout:           cfg.Evidence.Timeout,
		LatencyMS:         cfg.Thresholds.LatencyMS,
		ErrorRate:         cfg.Thresholds.ErrorRate,
		MonitoredServices: cfg.MonitoredServices,
	}, retry, a.metrics)
	a.commands = service.NewCommandService(
		a.reports, verifier,
		service.NewResultDeduplicator(store, cfg.ResultCache.TTL()),
		analyzer, a.notifier, a.metrics, retry,
		service.CommandOptions{AIAnalysis: cfg.Commands.AIAnalysis},
	)

	return a, nil
}

// Close - 연결 역순 정리
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
