// 일일 digest 예약 실행
//
// 처리 흐름:
//  1. 5필드 cron 표현식 파싱 (UTC 기준)
//  2. 다음 실행 시각까지 대기 (ctx 취소 시 종료)
//  3. "/digest ayer" 명령 실행
//  4. fyi 결과도 Notifier로 전달 (notify 결과는 CommandService가 이미 전달)

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// DigestCommand - 예약 실행 명령
const DigestCommand = "/digest ayer"

// CommandRunner - 명령 문자열 실행 (CommandService)
type CommandRunner interface {
	Execute(ctx context.Context, input string) (model.CommandResult, error)
}

// DigestScheduler 구조체 정의
type DigestScheduler struct {
	schedule cron.Schedule
	spec     string
	runner   CommandRunner
	notifier Notifier
	now      func() time.Time
}

// DigestScheduler 객체 생성. 표현식이 잘못되면 에러.
func NewDigestScheduler(spec string, runner CommandRunner, notifier Notifier) (*DigestScheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}
	return &DigestScheduler{
		schedule: schedule,
		spec:     spec,
		runner:   runner,
		notifier: notifier,
		now:      time.Now,
	}, nil
}

// Next - 다음 실행 시각 (UTC)
func (d *DigestScheduler) Next() time.Time {
	return d.schedule.Next(d.now().UTC())
}

// Run - ctx가 취소될 때까지 예약 실행
func (d *DigestScheduler) Run(ctx context.Context) error {
	logrus.Infof("Daily digest scheduled (cron: %s, UTC)", d.spec)
	for {
		next := d.Next()
		wait := next.Sub(d.now())
		logrus.Debugf("Next daily digest at %s (in %s)", next.Format(time.RFC3339), wait.Round(time.Minute))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if _, err := d.RunOnce(ctx); err != nil {
			logrus.Errorf("Daily digest failed: %v", err)
		}
	}
}

// RunOnce - digest 명령 1회 실행
func (d *DigestScheduler) RunOnce(ctx context.Context) (model.CommandResult, error) {
	result, err := d.runner.Execute(ctx, DigestCommand)
	if err != nil {
		return result, err
	}
	logrus.WithFields(logrus.Fields{
		"level":      result.Recommendation.Level,
		"confidence": result.Recommendation.Confidence,
	}).Info("Daily digest generated")

	if d.notifier != nil && result.Recommendation.Level != model.LevelNotify {
		if err := d.notifier.NotifyCommand(ctx, result); err != nil {
			logrus.Warnf("Failed to deliver daily digest: %v", err)
		}
	}
	return result, nil
}
