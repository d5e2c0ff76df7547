// 알림 원장(alert_ledger) PostgreSQL 구현
//
// append-only 테이블: INSERT만 하고 기존 레코드는 수정하지 않는다.
// 재시도로 같은 id가 다시 들어오면 무시한다 (ON CONFLICT DO NOTHING).

package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// ErrEntryNotFound - id에 해당하는 원장 레코드 없음
var ErrEntryNotFound = errors.New("ledger entry not found")

const ledgerColumns = `id, fingerprint, status, severity, labels, annotations, received_at, analysis_report, is_duplicate`

// EnsureLedgerSchema - alert_ledger 테이블 생성
func (db *Postgres) EnsureLedgerSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS alert_ledger (
			id TEXT PRIMARY KEY,
			fingerprint TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			severity TEXT NOT NULL DEFAULT 'info',
			labels JSONB NOT NULL DEFAULT '{}',
			annotations JSONB NOT NULL DEFAULT '{}',
			received_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			analysis_report TEXT NOT NULL DEFAULT '',
			is_duplicate BOOLEAN NOT NULL DEFAULT FALSE
		)
		`,
		`CREATE INDEX IF NOT EXISTS alert_ledger_fingerprint_idx ON alert_ledger(fingerprint, received_at DESC)`,
		`CREATE INDEX IF NOT EXISTS alert_ledger_received_at_idx ON alert_ledger(received_at DESC)`,
		`CREATE INDEX IF NOT EXISTS alert_ledger_active_idx ON alert_ledger(status) WHERE is_duplicate = FALSE`,
	}

	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to ensure ledger schema: %w", err)
		}
	}
	return nil
}

// Append - 원장에 레코드 추가
func (db *Postgres) Append(ctx context.Context, entry model.LedgerEntry) error {
	query := `
		INSERT INTO alert_ledger (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := db.Pool.Exec(ctx, query,
		entry.ID,
		entry.Fingerprint,
		string(entry.Status),
		string(entry.Severity),
		nonNilMap(entry.Labels),
		nonNilMap(entry.Annotations),
		entry.ReceivedAt,
		entry.AnalysisReport,
		entry.IsDuplicate,
	)
	return err
}

// QueryByFingerprint - since 이후 같은 fingerprint 레코드 (최신순)
func (db *Postgres) QueryByFingerprint(ctx context.Context, fingerprint string, since time.Time) ([]model.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM alert_ledger
		WHERE fingerprint = $1 AND received_at >= $2
		ORDER BY received_at DESC`

	return db.queryEntries(ctx, query, fingerprint, since)
}

// QueryByTimeRange - [start, end] 구간 레코드 (최신순)
// severity는 라벨 값과 대소문자 구분 없이 비교한다.
// service는 service, job, app 라벨 중 처음 비어 있지 않은 값과 비교한다 (LedgerEntry.Service와 동일).
func (db *Postgres) QueryByTimeRange(ctx context.Context, start, end time.Time, filter model.LedgerFilter) ([]model.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM alert_ledger
		WHERE received_at >= $1 AND received_at <= $2
			AND ($3 = '' OR LOWER(labels->>'severity') = LOWER($3))
			AND ($4 = '' OR COALESCE(NULLIF(labels->>'service', ''), NULLIF(labels->>'job', ''), labels->>'app') = $4)
			AND ($5 OR is_duplicate = FALSE)
		ORDER BY received_at DESC`

	return db.queryEntries(ctx, query, start, end, filter.Severity, filter.Service, filter.IncludeDuplicates)
}

// QueryActive - status=firing 이고 중복이 아닌 레코드 (최신순)
func (db *Postgres) QueryActive(ctx context.Context) ([]model.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM alert_ledger
		WHERE status = $1 AND is_duplicate = FALSE
		ORDER BY received_at DESC`

	return db.queryEntries(ctx, query, string(model.AlertStatusFiring))
}

// ListEntries - 최근 레코드 limit건 (최신순)
func (db *Postgres) ListEntries(ctx context.Context, limit int) ([]model.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM alert_ledger
		ORDER BY received_at DESC
		LIMIT $1`

	return db.queryEntries(ctx, query, limit)
}

// GetEntry - id로 단건 조회
func (db *Postgres) GetEntry(ctx context.Context, id string) (*model.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM alert_ledger WHERE id = $1`

	entry, err := scanEntry(db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (db *Postgres) queryEntries(ctx context.Context, query string, args ...any) ([]model.LedgerEntry, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.LedgerEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, entry)
	}
	return list, rows.Err()
}

func scanEntry(row pgx.Row) (model.LedgerEntry, error) {
	var (
		e        model.LedgerEntry
		status   string
		severity string
	)
	err := row.Scan(&e.ID, &e.Fingerprint, &status, &severity, &e.Labels, &e.Annotations, &e.ReceivedAt, &e.AnalysisReport, &e.IsDuplicate)
	if err != nil {
		return model.LedgerEntry{}, err
	}
	e.Status = model.AlertStatus(status)
	e.Severity = model.Severity(severity)
	return e, nil
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
