// 명령 결과 중복 제거 저장소
//
// 두 구현 모두 "없으면 저장, 있으면 기존 값 반환"을 원자적으로 처리한다.
//   - Memory: 프로세스 로컬 expirable LRU + mutex
//   - Redis: SET NX EX (여러 인스턴스가 공유)

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// DefaultMaxEntries - 메모리 저장소 기본 최대 항목 수
const DefaultMaxEntries = 1024

// Memory - 프로세스 로컬 TTL 저장소
type Memory struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, model.CacheEntry]
}

// NewMemory - ttl이 지난 항목은 자동으로 만료된다.
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory{
		lru: expirable.NewLRU[string, model.CacheEntry](maxEntries, nil, ttl),
	}
}

// SetIfAbsent - key가 없으면 entry를 저장하고 (nil, true),
// 있으면 기존 항목과 false를 반환한다.
func (m *Memory) SetIfAbsent(_ context.Context, key string, entry model.CacheEntry, _ time.Duration) (*model.CacheEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.lru.Get(key); ok {
		return &existing, false, nil
	}
	m.lru.Add(key, entry)
	return nil, true, nil
}

func (m *Memory) Len() int {
	return m.lru.Len()
}
