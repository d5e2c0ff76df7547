package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polsebas/agente-admin-observabilidad/internal/config"
	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

func TestToSlackMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bold-only",
			input: "This is **bold** text.",
			want:  "This is *bold* text.",
		},
		{
			name:  "inline-code-protected",
			input: "Use `2 ** 3` and **bold**.",
			want:  "Use `2 ** 3` and *bold*.",
		},
		{
			name:  "code-block-protected",
			input: "```python\n2 ** 3\n```\n**bold**",
			want:  "```python\n2 ** 3\n```\n*bold*",
		},
		{
			name:  "mixed-inline-and-bold",
			input: "**Bold** and `code **`",
			want:  "*Bold* and `code **`",
		},
		{
			name:  "heading-converted",
			input: "### 1) 요약 (Summary)\n내용",
			want:  "*1) 요약 (Summary)*\n내용",
		},
		{
			name:  "heading-protected-in-code-block",
			input: "```\n### 1) 요약 (Summary)\n```\n**bold**",
			want:  "```\n### 1) 요약 (Summary)\n```\n*bold*",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toSlackMarkdown(tt.input); got != tt.want {
				t.Fatalf("toSlackMarkdown() = %q, want %q", got, tt.want)
			}
		})
	}
}

type postedMessage struct {
	channel  string
	threadTS string
	text     string
}

func newMockSlack(t *testing.T) (*SlackClient, *[]postedMessage) {
	t.Helper()

	var (
		mu       sync.Mutex
		messages []postedMessage
		counter  int
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		mu.Lock()
		counter++
		messages = append(messages, postedMessage{
			channel:  r.FormValue("channel"),
			threadTS: r.FormValue("thread_ts"),
			text:     r.FormValue("text"),
		})
		ts := fmt.Sprintf("1700000000.%06d", counter)
		mu.Unlock()

		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": "C123", "ts": ts})
	}))
	t.Cleanup(server.Close)

	c := NewSlackClient(config.SlackConfig{BotToken: "xoxb-test", ChannelID: "C123", APIURL: server.URL + "/api/"})
	return c, &messages
}

func TestNotifyAlertThreadsResolvedReply(t *testing.T) {
	c, messages := newMockSlack(t)
	ctx := context.Background()

	firing := model.ClassifiedAlert{
		Alert:    model.Alert{Status: model.AlertStatusFiring, Fingerprint: "abc123"},
		Severity: model.SeverityCritical,
		Context:  model.AlertContext{AlertName: "HighErrorRate", Service: "api-gateway"},
	}
	require.NoError(t, c.NotifyAlert(ctx, firing))

	threadTS, ok := c.GetThreadTS("abc123")
	require.True(t, ok)
	assert.Equal(t, "1700000000.000001", threadTS)

	resolved := firing
	resolved.Alert.Status = model.AlertStatusResolved
	require.NoError(t, c.NotifyAlert(ctx, resolved))

	require.Len(t, *messages, 2)
	assert.Equal(t, "C123", (*messages)[0].channel)
	assert.Empty(t, (*messages)[0].threadTS)
	assert.Equal(t, threadTS, (*messages)[1].threadTS)

	_, ok = c.GetThreadTS("abc123")
	assert.False(t, ok)
}

func TestNotifyCommandPostsConvertedReport(t *testing.T) {
	c, messages := newMockSlack(t)

	result := model.CommandResult{
		CanonicalCommand: model.CommandTrends,
		Report:           "## Trends\n**Change**: +80%",
		Recommendation:   model.Recommendation{Level: model.LevelNotify, Reason: "alert count increased 80%", Confidence: 0.85},
	}
	require.NoError(t, c.NotifyCommand(context.Background(), result))

	require.Len(t, *messages, 1)
	text := (*messages)[0].text
	assert.Contains(t, text, "trends: alert count increased 80% (85%)")
	assert.Contains(t, text, "*Trends*")
	assert.Contains(t, text, "*Change*: +80%")
}

func TestSlackClientNotConfigured(t *testing.T) {
	c := NewSlackClient(config.SlackConfig{})
	assert.False(t, c.IsConfigured())
	assert.Error(t, c.PostReport(context.Background(), "title", "body"))
}
