// 원본 알림 페이로드를 고정된 model.Alert 형태로 정규화
//
// - camelCase / snake_case 키를 모두 허용 (startsAt / starts_at)
// - 문자열이 아닌 라벨 값은 문자열로 변환
// - 값이 없거나 해석할 수 없는 필드는 빈 값으로 둔다 (에러를 내지 않음)

package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// SplitAlertPayload - {alerts: [...]} 배치 봉투면 각 알림을, 아니면 payload 자체를 반환
func SplitAlertPayload(payload map[string]any) []map[string]any {
	raw, ok := payload["alerts"]
	if !ok {
		return []map[string]any{payload}
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// NormalizeAlert - 임의의 맵 페이로드를 model.Alert로 변환
func NormalizeAlert(raw map[string]any) model.Alert {
	alert := model.Alert{
		Labels:       toStringMap(lookup(raw, "labels")),
		Annotations:  toStringMap(lookup(raw, "annotations")),
		StartsAt:     toTime(lookup(raw, "startsAt", "starts_at")),
		EndsAt:       toTime(lookup(raw, "endsAt", "ends_at")),
		GeneratorURL: toString(lookup(raw, "generatorURL", "generator_url", "generatorUrl")),
		Fingerprint:  toString(lookup(raw, "fingerprint")),
	}

	switch status := strings.ToLower(strings.TrimSpace(toString(lookup(raw, "status")))); status {
	case string(model.AlertStatusFiring), string(model.AlertStatusResolved):
		alert.Status = model.AlertStatus(status)
	}
	return alert
}

func lookup(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func toStringMap(v any) map[string]string {
	out := map[string]string{}
	switch m := v.(type) {
	case map[string]any:
		for k, val := range m {
			if val == nil {
				continue
			}
			out[k] = toString(val)
		}
	case map[string]string:
		for k, val := range m {
			out[k] = val
		}
	}
	return out
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

// toTime - 문자열/시간 값을 UTC로 변환. Alertmanager의 zero time은 값 없음으로 본다.
func toTime(v any) *time.Time {
	var t time.Time
	switch val := v.(type) {
	case time.Time:
		t = val
	case *time.Time:
		if val == nil {
			return nil
		}
		t = *val
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		parsed, ok := parseTime(s)
		if !ok {
			return nil
		}
		t = parsed
	default:
		return nil
	}

	if t.IsZero() || t.Year() <= 1 {
		return nil
	}
	t = t.UTC()
	return &t
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
