package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// Notifier - 알림/명령 결과를 사람에게 전달하는 채널 (Slack, 외부 webhook)
type Notifier interface {
	NotifyAlert(ctx context.Context, alert model.ClassifiedAlert) error
	NotifyCommand(ctx context.Context, result model.CommandResult) error
}

// MultiNotifier - 여러 채널로 전달. 개별 실패는 로그만 남긴다.
type MultiNotifier []Notifier

func (m MultiNotifier) NotifyAlert(ctx context.Context, alert model.ClassifiedAlert) error {
	for _, n := range m {
		if err := n.NotifyAlert(ctx, alert); err != nil {
			logrus.WithFields(logrus.Fields{
				"fingerprint": alert.Alert.Fingerprint,
				"notifier":    notifierName(n),
			}).Warnf("Failed to deliver alert notification: %v", err)
		}
	}
	return nil
}

func (m MultiNotifier) NotifyCommand(ctx context.Context, result model.CommandResult) error {
	for _, n := range m {
		if err := n.NotifyCommand(ctx, result); err != nil {
			logrus.WithFields(logrus.Fields{
				"canonical": result.CanonicalCommand,
				"notifier":  notifierName(n),
			}).Warnf("Failed to deliver command notification: %v", err)
		}
	}
	return nil
}

func notifierName(n Notifier) string {
	if named, ok := n.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "unknown"
}

// shouldNotifyAlert - resolved 알림은 항상, firing은 중복이 아닌 critical/major만 전달
// 같은 fingerprint가 방금 firing됐다면 resolved도 중복으로 표시되지만 쓰레드 답글은 보내야 한다.
func shouldNotifyAlert(alert model.ClassifiedAlert) bool {
	if alert.Alert.Status == model.AlertStatusResolved {
		return true
	}
	if alert.IsDuplicate {
		return false
	}
	return alert.Severity == model.SeverityCritical || alert.Severity == model.SeverityMajor
}
