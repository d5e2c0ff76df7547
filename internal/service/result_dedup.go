// 명령 결과 중복 억제
//
// 처리 흐름:
//  1. fingerprint = sha256(표준 명령 + 정렬된 파라미터 + 리포트의 신호 키워드)
//  2. TTL 저장소에 set-if-absent (30분)
//  3. 이미 있으면 중복: 추천을 fyi로 낮추고 "executed recently" 사유를 붙인다
//  4. 저장소 오류는 중복 아님으로 처리 (fail open)

package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/polsebas/agente-admin-observabilidad/internal/command"
	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// DefaultResultTTL - 결과 캐시 유지 시간
const DefaultResultTTL = 30 * time.Minute

const (
	duplicateConfidencePenalty = 0.2
	duplicateConfidenceFloor   = 0.3
)

// ResultStore - 원자적 set-if-absent TTL 저장소 (cache.Memory, cache.Redis)
// 이미 값이 있으면 기존 값과 false, 새로 저장했으면 nil과 true를 반환한다.
type ResultStore interface {
	SetIfAbsent(ctx context.Context, key string, entry model.CacheEntry, ttl time.Duration) (*model.CacheEntry, bool, error)
}

// ResultDeduplicator 구조체 정의
type ResultDeduplicator struct {
	store ResultStore
	ttl   time.Duration
	now   func() time.Time
}

func NewResultDeduplicator(store ResultStore, ttl time.Duration) *ResultDeduplicator {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultDeduplicator{store: store, ttl: ttl, now: time.Now}
}

// ResultFingerprint - 결정적 해시 (파라미터/키워드 순서와 무관)
func ResultFingerprint(canonical model.Canonical, params map[string]string, keywords []string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kw := append([]string(nil), keywords...)
	sort.Strings(kw)

	h := sha256.New()
	h.Write([]byte(canonical))
	h.Write([]byte{0})
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s\x00", k, params[k])
	}
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(kw, ",")))
	return hex.EncodeToString(h.Sum(nil))
}

// CheckDuplicate - 최근 30분 안에 같은 fingerprint 결과가 있었는지
// 저장소가 없거나 오류가 나면 중복이 아닌 것으로 본다.
func (d *ResultDeduplicator) CheckDuplicate(ctx context.Context, canonical model.Canonical, params map[string]string, report string) (bool, *model.CacheEntry) {
	if d == nil || d.store == nil {
		return false, nil
	}

	fp := ResultFingerprint(canonical, params, command.ExtractSignalKeywords(report))
	entry := model.CacheEntry{
		Fingerprint: fp,
		Canonical:   canonical,
		Params:      params,
		Report:      report,
		Timestamp:   d.now().UTC(),
	}

	existing, stored, err := d.store.SetIfAbsent(ctx, fp, entry, d.ttl)
	if err != nil {
		logrus.WithField("fingerprint", fp).Warnf("Result cache unavailable, skipping dedup: %v", err)
		return false, nil
	}
	if stored || existing == nil {
		return false, nil
	}
	return true, existing
}

// Elapsed - 캐시 기록 이후 경과 시간
func (d *ResultDeduplicator) Elapsed(entry *model.CacheEntry) time.Duration {
	if d == nil || entry == nil {
		return 0
	}
	return max(d.now().Sub(entry.Timestamp), 0)
}

// ApplyDuplicateDowngrade - 중복이면 fyi로 낮추고 신뢰도를 0.2 낮춘다 (하한 0.3, 올리지는 않음)
func ApplyDuplicateDowngrade(result *model.CommandResult, isDuplicate bool, elapsed time.Duration) {
	if !isDuplicate || result == nil {
		return
	}
	minutes := int(math.Round(elapsed.Minutes()))
	rec := result.Recommendation

	conf := math.Min(rec.Confidence, math.Max(rec.Confidence-duplicateConfidencePenalty, duplicateConfidenceFloor))
	result.Recommendation = model.Recommendation{
		Level:      model.LevelFYI,
		Reason:     fmt.Sprintf("executed recently (~%d minutes ago), %s", minutes, rec.Reason),
		Confidence: conf,
	}
	result.IsDuplicate = true
	result.Report = strings.TrimRight(result.Report, "\n") +
		fmt.Sprintf("\n\n> ℹ️ An equivalent result was produced ~%d minutes ago; recommendation lowered to FYI.\n", minutes)
}
