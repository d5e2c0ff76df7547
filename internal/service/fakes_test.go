package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/polsebas/agente-admin-observabilidad/internal/client"
	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

var errLedgerDown = errors.New("ledger unavailable")

// memLedger - 테스트용 원장
type memLedger struct {
	mu      sync.Mutex
	entries []model.LedgerEntry
	err     error
}

func (l *memLedger) Append(_ context.Context, entry model.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, entry)
	return nil
}

func (l *memLedger) QueryByFingerprint(_ context.Context, fingerprint string, since time.Time) ([]model.LedgerEntry, error) {
	return l.query(func(e model.LedgerEntry) bool {
		return e.Fingerprint == fingerprint && !e.ReceivedAt.Before(since)
	})
}

func (l *memLedger) QueryByTimeRange(_ context.Context, start, end time.Time, filter model.LedgerFilter) ([]model.LedgerEntry, error) {
	return l.query(func(e model.LedgerEntry) bool {
		return !e.ReceivedAt.Before(start) && !e.ReceivedAt.After(end) && filter.Matches(e)
	})
}

func (l *memLedger) QueryActive(_ context.Context) ([]model.LedgerEntry, error) {
	return l.query(model.LedgerEntry.Active)
}

func (l *memLedger) query(keep func(model.LedgerEntry) bool) ([]model.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	var out []model.LedgerEntry
	for _, e := range l.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	return out, nil
}

func (l *memLedger) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// ledgerEntry - 서비스/심각도/상태만 지정한 레코드
func ledgerEntry(service string, severity model.Severity, status model.AlertStatus, at time.Time) model.LedgerEntry {
	return model.LedgerEntry{
		ID:          service + "-" + string(severity) + "-" + at.Format(time.RFC3339Nano),
		Fingerprint: service + "-" + string(severity),
		Status:      status,
		Severity:    severity,
		Labels: map[string]string{
			"alertname": "HighErrorRate",
			"service":   service,
			"severity":  string(severity),
		},
		Annotations: map[string]string{"summary": "error rate above threshold"},
		ReceivedAt:  at,
	}
}

type fakeMetrics struct {
	values map[string]float64
	err    error
	calls  int
}

func (m *fakeMetrics) QueryScalar(_ context.Context, query string, _ time.Time) (float64, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	return m.values[query], nil
}

type fakeAnalyzer struct {
	reply   string
	err     error
	prompts []string
}

func (a *fakeAnalyzer) Analyze(_ context.Context, prompt string) (string, error) {
	a.prompts = append(a.prompts, prompt)
	return a.reply, a.err
}

type recordingNotifier struct {
	mu       sync.Mutex
	alerts   []model.ClassifiedAlert
	commands []model.CommandResult
}

func (n *recordingNotifier) NotifyAlert(_ context.Context, alert model.ClassifiedAlert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return nil
}

func (n *recordingNotifier) NotifyCommand(_ context.Context, result model.CommandResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.commands = append(n.commands, result)
	return nil
}

// mapStore - 테스트용 set-if-absent 저장소 (만료 없음)
type mapStore struct {
	mu      sync.Mutex
	entries map[string]model.CacheEntry
	err     error
}

func newMapStore() *mapStore {
	return &mapStore{entries: map[string]model.CacheEntry{}}
}

func (s *mapStore) SetIfAbsent(_ context.Context, key string, entry model.CacheEntry, _ time.Duration) (*model.CacheEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, false, s.err
	}
	if existing, ok := s.entries[key]; ok {
		return &existing, false, nil
	}
	s.entries[key] = entry
	return nil, true, nil
}

// clock - 테스트에서 옮길 수 있는 시계
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(t time.Time) *clock { return &clock{now: t} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func noRetry() client.RetryPolicy {
	return client.RetryPolicy{MaxAttempts: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}
