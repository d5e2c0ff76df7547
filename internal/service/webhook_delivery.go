package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
	tmpl "github.com/polsebas/agente-admin-observabilidad/internal/template"
)

// WebhookDeliveryService - 설정된 외부 Webhook URL로 알림/명령 결과를 전송하는 서비스
type WebhookDeliveryService struct {
	urls       []string
	body       string
	httpClient *http.Client
}

func NewWebhookDeliveryService(urls []string, bodyTemplate string) *WebhookDeliveryService {
	cleaned := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			cleaned = append(cleaned, u)
		}
	}
	return &WebhookDeliveryService{
		urls: cleaned,
		body: bodyTemplate,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *WebhookDeliveryService) Name() string { return "webhook" }

func (s *WebhookDeliveryService) IsConfigured() bool {
	return len(s.urls) > 0
}

func (s *WebhookDeliveryService) NotifyAlert(ctx context.Context, alert model.ClassifiedAlert) error {
	data := tmpl.AlertDataFromClassified(alert)
	return s.deliver(ctx, tmpl.RenderBody(s.body, nil, &data, s.jsonBody()))
}

func (s *WebhookDeliveryService) NotifyCommand(ctx context.Context, result model.CommandResult) error {
	data := tmpl.CommandDataFromResult(result)
	return s.deliver(ctx, tmpl.RenderBody(s.body, &data, nil, s.jsonBody()))
}

// deliver - 모든 URL로 전송. 개별 URL 실패는 로그를 남기고 계속 진행하며 마지막 에러를 반환한다.
func (s *WebhookDeliveryService) deliver(ctx context.Context, body string) error {
	var lastErr error
	for _, url := range s.urls {
		if err := s.sendHTTP(ctx, url, body); err != nil {
			logrus.Warnf("[WebhookDelivery] Failed to deliver to %s: %v", url, err)
			lastErr = err
			continue
		}
		logrus.Debugf("[WebhookDelivery] Delivered to %s", url)
	}
	return lastErr
}

func (s *WebhookDeliveryService) jsonBody() bool {
	trimmed := strings.TrimSpace(s.body)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

func (s *WebhookDeliveryService) sendHTTP(ctx context.Context, url, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		return err
	}
	if s.jsonBody() {
		req.Header.Set("Content-Type", "application/json")
	} else {
		req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
