// 외부 Slack API와 통신하는 클라이언트 정의 (slack-go)
//
// 설정:
//   - SLACK_BOT_TOKEN: Slack Bot Token (xoxb-...)
//   - SLACK_CHANNEL_ID: Slack 채널 ID (C...)
//   - SLACK_API_URL: API 주소 (테스트용, 비어 있으면 기본값)
//
// Bot Token을 사용하므로 전송 후 ts를 받아 firing/resolved 알림을 같은 쓰레드로 묶는다.

package client

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/slack-go/slack"

	"github.com/polsebas/agente-admin-observabilidad/internal/config"
)

// SlackClient - 채널 하나로 메시지를 보내는 클라이언트
type SlackClient struct {
	api       *slack.Client
	channelID string

	// fingerprint -> thread_ts
	threadMap sync.Map
}

func NewSlackClient(cfg config.SlackConfig) *SlackClient {
	opts := []slack.Option{}
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	c := &SlackClient{channelID: cfg.ChannelID}
	if cfg.BotToken != "" {
		c.api = slack.New(cfg.BotToken, opts...)
	}
	return c
}

// Bot Token과 Channel ID가 모두 설정되어 있는지 체크
func (c *SlackClient) Name() string { return "slack" }

func (c *SlackClient) IsConfigured() bool {
	return c.api != nil && c.channelID != ""
}

func (c *SlackClient) post(ctx context.Context, options ...slack.MsgOption) (string, error) {
	if !c.IsConfigured() {
		return "", fmt.Errorf("slack bot token or channel ID not configured")
	}
	_, ts, err := c.api.PostMessageContext(ctx, c.channelID, options...)
	if err != nil {
		return "", fmt.Errorf("failed to post slack message: %w", err)
	}
	return ts, nil
}

// PostReport - 마크다운 리포트를 제목과 함께 전송
func (c *SlackClient) PostReport(ctx context.Context, title, report string) error {
	_, err := c.post(ctx,
		slack.MsgOptionText(fmt.Sprintf("*%s*\n%s", title, toSlackMarkdown(report)), false),
	)
	return err
}

func (c *SlackClient) StoreThreadTS(fingerprint, threadTS string) {
	c.threadMap.Store(fingerprint, threadTS)
}

func (c *SlackClient) GetThreadTS(fingerprint string) (string, bool) {
	val, ok := c.threadMap.Load(fingerprint)
	if !ok {
		return "", false
	}
	return val.(string), true
}

func (c *SlackClient) DeleteThreadTS(fingerprint string) {
	c.threadMap.Delete(fingerprint)
}

var (
	headingPattern = regexp.MustCompile(`(?m)^#{1,6}[ \t]+(.+?)[ \t]*$`)
	boldPattern    = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// toSlackMarkdown - GitHub 마크다운을 Slack mrkdwn으로 변환
//   - **bold** -> *bold*
//   - ### heading -> *heading*
//   - 코드 블록(```)과 인라인 코드(`)는 그대로 둔다
func toSlackMarkdown(text string) string {
	blocks := strings.Split(text, "```")
	for i := range blocks {
		if i%2 == 1 {
			continue
		}
		blocks[i] = convertOutsideCodeBlock(blocks[i])
	}
	return strings.Join(blocks, "```")
}

func convertOutsideCodeBlock(text string) string {
	text = headingPattern.ReplaceAllString(text, "*$1*")

	spans := strings.Split(text, "`")
	for i := range spans {
		if i%2 == 1 {
			continue
		}
		spans[i] = boldPattern.ReplaceAllString(spans[i], "*$1*")
	}
	return strings.Join(spans, "`")
}
