// Slack 알림/명령 결과 메시지 관련 메서드 정의

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/slack-go/slack"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// NotifyAlert - 분류된 알림을 Slack으로 전송
//
// firing 알림과 resolved 알림을 다르게 처리:
//   - firing: 새 메시지 전송 후 thread_ts 저장
//   - resolved: 기존 쓰레드에 답글로 전송 후 thread_ts 삭제
func (c *SlackClient) NotifyAlert(ctx context.Context, alert model.ClassifiedAlert) error {
	status := alert.Alert.Status
	fingerprint := alert.Alert.Fingerprint

	fields := []slack.AttachmentField{
		{Title: "Service", Value: alert.Context.Service, Short: true},
		{Title: "Severity", Value: string(alert.Severity), Short: true},
		{Title: "Status", Value: string(status), Short: true},
	}
	if alert.Context.Instance != "" {
		fields = append(fields, slack.AttachmentField{Title: "Instance", Value: alert.Context.Instance, Short: true})
	}
	if alert.Context.Timeframe.StartsAt != nil {
		fields = append(fields, slack.AttachmentField{Title: "Started", Value: alert.Context.Timeframe.StartsAt.Format(time.RFC3339), Short: true})
	}

	text := alert.Context.Description
	if text == "" {
		text = alert.Context.Summary
	}

	attachment := slack.Attachment{
		Color:  colorBySeverity(status, alert.Severity),
		Title:  fmt.Sprintf("%s [%s] %s", emojiByStatus(status), alert.Severity, alert.Context.AlertName),
		Text:   text,
		Fields: fields,
		Footer: "observability-agent",
		Ts:     json.Number(strconv.FormatInt(time.Now().Unix(), 10)),
	}

	options := []slack.MsgOption{slack.MsgOptionAttachments(attachment)}

	// resolved 알림: fingerprint로 저장된 쓰레드에 답글
	if status == model.AlertStatusResolved {
		if threadTS, ok := c.GetThreadTS(fingerprint); ok {
			options = append(options, slack.MsgOptionTS(threadTS))
		}
	}

	ts, err := c.post(ctx, options...)
	if err != nil {
		return err
	}

	if status == model.AlertStatusFiring && ts != "" && fingerprint != "" {
		c.StoreThreadTS(fingerprint, ts)
	}
	if status == model.AlertStatusResolved {
		c.DeleteThreadTS(fingerprint)
	}
	return nil
}

// NotifyCommand - notify 판정이 난 명령 결과 전송
func (c *SlackClient) NotifyCommand(ctx context.Context, result model.CommandResult) error {
	rec := result.Recommendation
	title := fmt.Sprintf("%s %s: %s (%.0f%%)",
		levelEmoji(rec.Level), result.CanonicalCommand, rec.Reason, rec.Confidence*100)
	return c.PostReport(ctx, title, result.Report)
}

// 상태/심각도에 따른 메시지 색상
func colorBySeverity(status model.AlertStatus, severity model.Severity) string {
	if status == model.AlertStatusResolved {
		return "#36a64f" // green
	}
	switch severity {
	case model.SeverityCritical:
		return "#dc3545" // red
	case model.SeverityMajor:
		return "#fd7e14" // orange
	case model.SeverityMinor, model.SeverityWarning:
		return "#ffc107" // yellow
	default:
		return "#17a2b8" // blue
	}
}

func emojiByStatus(status model.AlertStatus) string {
	if status == model.AlertStatusResolved {
		return "✅"
	}
	return "🔥"
}

func levelEmoji(level model.RecommendationLevel) string {
	if level == model.LevelNotify {
		return "🚨"
	}
	return "ℹ️"
}
