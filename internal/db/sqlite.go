// 알림 원장 SQLite 구현 (단일 노드 / 로컬 실행 / 테스트용)
//
// received_at은 UTC 기준 unix nano 정수로 저장해 범위 조회와 정렬을 단순화한다.
// 라벨 필터(severity, service)는 조회 후 model.LedgerFilter로 적용한다.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// SQLite - database/sql 기반 알림 원장
type SQLite struct {
	DB *sql.DB
}

// OpenSQLite - path가 ":memory:"이면 연결을 하나로 고정한다 (연결마다 별도 DB가 생기므로).
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if path == ":memory:" {
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	return &SQLite{DB: conn}, nil
}

func (s *SQLite) Close() error {
	return s.DB.Close()
}

// EnsureLedgerSchema - alert_ledger 테이블 생성
func (s *SQLite) EnsureLedgerSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS alert_ledger (
			id TEXT PRIMARY KEY,
			fingerprint TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			severity TEXT NOT NULL DEFAULT 'info',
			labels TEXT NOT NULL DEFAULT '{}',
			annotations TEXT NOT NULL DEFAULT '{}',
			received_at INTEGER NOT NULL,
			analysis_report TEXT NOT NULL DEFAULT '',
			is_duplicate INTEGER NOT NULL DEFAULT 0
		)
		`,
		`CREATE INDEX IF NOT EXISTS alert_ledger_fingerprint_idx ON alert_ledger(fingerprint, received_at DESC)`,
		`CREATE INDEX IF NOT EXISTS alert_ledger_received_at_idx ON alert_ledger(received_at DESC)`,
	}

	for _, query := range queries {
		if _, err := s.DB.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to ensure ledger schema: %w", err)
		}
	}
	return nil
}

// Append - 원장에 레코드 추가 (같은 id 재삽입은 무시)
func (s *SQLite) Append(ctx context.Context, entry model.LedgerEntry) error {
	labels, err := json.Marshal(nonNilMap(entry.Labels))
	if err != nil {
		return fmt.Errorf("failed to encode labels: %w", err)
	}
	annotations, err := json.Marshal(nonNilMap(entry.Annotations))
	if err != nil {
		return fmt.Errorf("failed to encode annotations: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT OR IGNORE INTO alert_ledger (`+ledgerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Fingerprint,
		string(entry.Status),
		string(entry.Severity),
		string(labels),
		string(annotations),
		entry.ReceivedAt.UTC().UnixNano(),
		entry.AnalysisReport,
		entry.IsDuplicate,
	)
	return err
}

// QueryByFingerprint - since 이후 같은 fingerprint 레코드 (최신순)
func (s *SQLite) QueryByFingerprint(ctx context.Context, fingerprint string, since time.Time) ([]model.LedgerEntry, error) {
	return s.queryEntries(ctx, `
		SELECT `+ledgerColumns+`
		FROM alert_ledger
		WHERE fingerprint = ? AND received_at >= ?
		ORDER BY received_at DESC`,
		fingerprint, since.UTC().UnixNano())
}

// QueryByTimeRange - [start, end] 구간 레코드 (최신순)
func (s *SQLite) QueryByTimeRange(ctx context.Context, start, end time.Time, filter model.LedgerFilter) ([]model.LedgerEntry, error) {
	entries, err := s.queryEntries(ctx, `
		SELECT `+ledgerColumns+`
		FROM alert_ledger
		WHERE received_at >= ? AND received_at <= ?
		ORDER BY received_at DESC`,
		start.UTC().UnixNano(), end.UTC().UnixNano())
	if err != nil {
		return nil, err
	}

	filtered := entries[:0]
	for _, e := range entries {
		if filter.Matches(e) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// QueryActive - status=firing 이고 중복이 아닌 레코드 (최신순)
func (s *SQLite) QueryActive(ctx context.Context) ([]model.LedgerEntry, error) {
	return s.queryEntries(ctx, `
		SELECT `+ledgerColumns+`
		FROM alert_ledger
		WHERE status = ? AND is_duplicate = 0
		ORDER BY received_at DESC`,
		string(model.AlertStatusFiring))
}

// ListEntries - 최근 레코드 limit건 (최신순)
func (s *SQLite) ListEntries(ctx context.Context, limit int) ([]model.LedgerEntry, error) {
	return s.queryEntries(ctx, `
		SELECT `+ledgerColumns+`
		FROM alert_ledger
		ORDER BY received_at DESC
		LIMIT ?`,
		limit)
}

// GetEntry - id로 단건 조회
func (s *SQLite) GetEntry(ctx context.Context, id string) (*model.LedgerEntry, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+ledgerColumns+` FROM alert_ledger WHERE id = ?`, id)
	entry, err := scanSQLiteEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *SQLite) queryEntries(ctx context.Context, query string, args ...any) ([]model.LedgerEntry, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.LedgerEntry{}
	for rows.Next() {
		entry, err := scanSQLiteEntry(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, entry)
	}
	return list, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteEntry(row rowScanner) (model.LedgerEntry, error) {
	var (
		e           model.LedgerEntry
		status      string
		severity    string
		labels      string
		annotations string
		receivedAt  int64
	)
	err := row.Scan(&e.ID, &e.Fingerprint, &status, &severity, &labels, &annotations, &receivedAt, &e.AnalysisReport, &e.IsDuplicate)
	if err != nil {
		return model.LedgerEntry{}, err
	}
	if err := json.Unmarshal([]byte(labels), &e.Labels); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("failed to decode labels: %w", err)
	}
	if err := json.Unmarshal([]byte(annotations), &e.Annotations); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("failed to decode annotations: %w", err)
	}
	e.Status = model.AlertStatus(status)
	e.Severity = model.Severity(severity)
	e.ReceivedAt = time.Unix(0, receivedAt).UTC()
	return e, nil
}
