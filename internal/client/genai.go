// 외부 언어 모델(Gemini)로 자유 텍스트 분석 리포트를 생성하는 클라이언트
//
// 설정:
//   - GENAI_API_KEY (또는 AI_API_KEY)
//   - GENAI_MODEL (default: gemini-2.0-flash)
//
// 생성된 텍스트는 불투명한 문자열로만 다루며 내용은 해석하지 않는다.

package client

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/polsebas/agente-admin-observabilidad/internal/config"
)

type AnalysisClient struct {
	client *genai.Client
	model  string
}

func NewAnalysisClient(ctx context.Context, cfg config.GenAIConfig) (*AnalysisClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing GENAI_API_KEY")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &AnalysisClient{client: client, model: model}, nil
}

// Analyze - 프롬프트로 리포트 텍스트 생성
func (c *AnalysisClient) Analyze(ctx context.Context, prompt string) (string, error) {
	res, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", fmt.Errorf("empty analysis result")
	}
	text := strings.TrimSpace(res.Text())
	if text == "" {
		return "", fmt.Errorf("empty analysis result")
	}
	return text, nil
}
