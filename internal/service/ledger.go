package service

import (
	"context"
	"time"

	"github.com/polsebas/agente-admin-observabilidad/internal/client"
	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// AlertLedger - 분석된 알림의 append/query 저장소 (db.Postgres, db.SQLite)
// 같은 프로세스의 이전 Append는 이후 조회에 항상 반영되어야 한다.
type AlertLedger interface {
	Append(ctx context.Context, entry model.LedgerEntry) error
	QueryByFingerprint(ctx context.Context, fingerprint string, since time.Time) ([]model.LedgerEntry, error)
	QueryByTimeRange(ctx context.Context, start, end time.Time, filter model.LedgerFilter) ([]model.LedgerEntry, error)
	QueryActive(ctx context.Context) ([]model.LedgerEntry, error)
}

// LedgerReader - 이력 조회용
type LedgerReader interface {
	ListEntries(ctx context.Context, limit int) ([]model.LedgerEntry, error)
	GetEntry(ctx context.Context, id string) (*model.LedgerEntry, error)
}

// RetryingLedger - 원장 호출을 재시도 정책으로 감싼다.
// 실패는 *client.CollaboratorError로 반환된다.
type RetryingLedger struct {
	next   AlertLedger
	policy client.RetryPolicy
}

func NewRetryingLedger(next AlertLedger, policy client.RetryPolicy) *RetryingLedger {
	return &RetryingLedger{next: next, policy: policy}
}

func (l *RetryingLedger) Append(ctx context.Context, entry model.LedgerEntry) error {
	_, err := client.Retry(ctx, l.policy, "ledger.append", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, l.next.Append(ctx, entry)
	})
	return err
}

func (l *RetryingLedger) QueryByFingerprint(ctx context.Context, fingerprint string, since time.Time) ([]model.LedgerEntry, error) {
	return client.Retry(ctx, l.policy, "ledger.query_by_fingerprint", func(ctx context.Context) ([]model.LedgerEntry, error) {
		return l.next.QueryByFingerprint(ctx, fingerprint, since)
	})
}

func (l *RetryingLedger) QueryByTimeRange(ctx context.Context, start, end time.Time, filter model.LedgerFilter) ([]model.LedgerEntry, error) {
	return client.Retry(ctx, l.policy, "ledger.query_by_time_range", func(ctx context.Context) ([]model.LedgerEntry, error) {
		return l.next.QueryByTimeRange(ctx, start, end, filter)
	})
}

func (l *RetryingLedger) QueryActive(ctx context.Context) ([]model.LedgerEntry, error) {
	return client.Retry(ctx, l.policy, "ledger.query_active", func(ctx context.Context) ([]model.LedgerEntry, error) {
		return l.next.QueryActive(ctx)
	})
}
