package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

type stubRunner struct {
	result model.CommandResult
	err    error
	inputs []string
}

func (r *stubRunner) Execute(_ context.Context, input string) (model.CommandResult, error) {
	r.inputs = append(r.inputs, input)
	return r.result, r.err
}

func TestNewDigestSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewDigestScheduler("every morning", &stubRunner{}, nil)
	assert.Error(t, err)

	// 초 필드는 허용하지 않는다
	_, err = NewDigestScheduler("0 0 9 * * *", &stubRunner{}, nil)
	assert.Error(t, err)
}

func TestDigestSchedulerNext(t *testing.T) {
	d, err := NewDigestScheduler("0 9 * * *", &stubRunner{}, nil)
	require.NoError(t, err)
	d.now = func() time.Time { return time.Date(2025, 12, 10, 10, 0, 0, 0, time.UTC) }

	assert.Equal(t, time.Date(2025, 12, 11, 9, 0, 0, 0, time.UTC), d.Next())
}

func TestDigestRunOnce(t *testing.T) {
	runner := &stubRunner{result: model.CommandResult{
		CanonicalCommand: model.CommandDailyDigest,
		Recommendation:   model.Recommendation{Level: model.LevelFYI, Confidence: 0.5},
	}}
	notifier := &recordingNotifier{}
	d, err := NewDigestScheduler("0 9 * * *", runner, notifier)
	require.NoError(t, err)

	_, err = d.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{DigestCommand}, runner.inputs)
	assert.Len(t, notifier.commands, 1)

	// notify 결과는 명령 실행 단계에서 이미 전달된다
	runner.result.Recommendation.Level = model.LevelNotify
	_, err = d.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, notifier.commands, 1)

	runner.err = errors.New("ledger down")
	_, err = d.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestDigestRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	d, err := NewDigestScheduler("0 9 * * *", &stubRunner{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
