// 외부 수집기(원장, 메트릭, 분석 모델) 호출용 재시도 정책
//
// 처리 흐름:
//  1. fn 실행, 성공하면 즉시 반환
//  2. 실패하면 InitialBackoff * 2^n (MaxBackoff 상한) 만큼 대기 후 재시도
//  3. MaxAttempts번 모두 실패하면 *CollaboratorError 반환
//  4. ctx가 취소되면 대기 없이 중단

package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/polsebas/agente-admin-observabilidad/internal/config"
)

// ErrMaxRetriesExceeded - 모든 시도 실패
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")

// RetryPolicy - 재시도 설정
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy - 3회, 1초부터 두 배씩, 최대 8초
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     8 * time.Second,
	}
}

// RetryPolicyFromConfig - 0 이하 값은 기본값으로 채운다.
func RetryPolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialBackoff > 0 {
		p.InitialBackoff = cfg.InitialBackoff
	}
	if cfg.MaxBackoff > 0 {
		p.MaxBackoff = cfg.MaxBackoff
	}
	return p
}

// Backoff - attempt번째 실패 후 대기 시간 (attempt는 0부터)
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	backoff := p.InitialBackoff
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if backoff > p.MaxBackoff {
		return p.MaxBackoff
	}
	return backoff
}

// CollaboratorError - 외부 수집기 호출 실패를 구조화한 값
type CollaboratorError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Retry - op 이름으로 fn을 재시도한다.
func Retry[T any](ctx context.Context, policy RetryPolicy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, &CollaboratorError{Op: op, Attempts: attempt, Err: err}
		}

		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logrus.Debugf("Retry succeeded for %s on attempt %d", op, attempt+1)
			}
			return result, nil
		}
		lastErr = err
		logrus.Warnf("Attempt %d/%d for %s failed: %v", attempt+1, attempts, op, err)

		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(policy.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, &CollaboratorError{Op: op, Attempts: attempt + 1, Err: ctx.Err()}
		case <-timer.C:
		}
	}

	return zero, &CollaboratorError{
		Op:       op,
		Attempts: attempts,
		Err:      fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, lastErr),
	}
}
