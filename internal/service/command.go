// 빠른 명령 실행 비즈니스 로직 정의
//
// 처리 흐름:
//  1. CommandParser로 별칭/파라미터 해석 (실패 시 ErrInvalidCommand)
//  2. help는 정적 레퍼런스를 바로 반환
//  3. 직접 실행 가능하면 ReportService로 기본 리포트 생성
//     - analyze_with_ai=true (또는 설정)면 표준 프롬프트로 Analyzer 보강
//  4. 필수 파라미터가 없으면 fallback: 자연어 작업 지시문을 Analyzer에 전달
//  5. VerificationEngine으로 근거/추천 생성 (검사는 보강 전 기본 리포트 기준)
//  6. ResultDeduplicator로 최근 동일 결과 판정 후 중복이면 fyi로 낮춤
//  7. notify 결과는 Notifier로 전달

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/polsebas/agente-admin-observabilidad/internal/client"
	"github.com/polsebas/agente-admin-observabilidad/internal/command"
	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// ErrInvalidCommand - 접두 문자가 없거나 알 수 없는 별칭, 또는 해석할 수 없는 파라미터
var ErrInvalidCommand = errors.New("invalid command")

// ReportGenerator - 표준 명령 기본 리포트 (ReportService)
type ReportGenerator interface {
	Generate(ctx context.Context, canonical model.Canonical, params map[string]string) (string, error)
}

// Verifier - 보조 검증 (VerificationEngine)
// baseReport는 검사 입력, report는 근거 섹션을 덧붙여 보여줄 본문이다.
type Verifier interface {
	Verify(ctx context.Context, canonical model.Canonical, params map[string]string, baseReport, report string) model.VerificationResult
}

// CommandOptions - 명령 실행 옵션
type CommandOptions struct {
	// 직접 실행 리포트를 Analyzer로 보강할지 기본값 (analyze_with_ai 파라미터가 우선)
	AIAnalysis bool
}

// CommandService 구조체 정의
type CommandService struct {
	reports  ReportGenerator
	verifier Verifier
	dedup    *ResultDeduplicator
	analyzer Analyzer
	notifier Notifier
	metrics  *Metrics
	retry    client.RetryPolicy
	opts     CommandOptions
	now      func() time.Time
}

// CommandService 객체 생성. dedup, analyzer, notifier, metrics는 nil이어도 된다.
func NewCommandService(reports ReportGenerator, verifier Verifier, dedup *ResultDeduplicator, analyzer Analyzer, notifier Notifier, metrics *Metrics, retry client.RetryPolicy, opts CommandOptions) *CommandService {
	return &CommandService{
		reports:  reports,
		verifier: verifier,
		dedup:    dedup,
		analyzer: analyzer,
		notifier: notifier,
		metrics:  metrics,
		retry:    retry,
		opts:     opts,
		now:      time.Now,
	}
}

// Execute - 명령 문자열 실행
func (s *CommandService) Execute(ctx context.Context, input string) (model.CommandResult, error) {
	parsed, err := command.ParseAt(input, s.now())
	if err != nil {
		return model.CommandResult{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	return s.Run(ctx, parsed)
}

// Run - 해석된 명령 실행 (쿼리 엔드포인트는 파서 없이 바로 호출)
func (s *CommandService) Run(ctx context.Context, parsed model.ParsedCommand) (model.CommandResult, error) {
	log := logrus.WithFields(logrus.Fields{
		"canonical": parsed.Canonical,
		"alias":     parsed.Alias,
	})
	params := parsed.Params
	if params == nil {
		params = map[string]string{}
	}

	if parsed.Canonical == model.CommandHelp {
		result := model.CommandResult{
			Report:           command.HelpMarkdown(),
			Evidence:         []model.EvidenceCheck{},
			Recommendation:   model.Recommendation{Level: model.LevelFYI, Reason: "command reference", Confidence: 1},
			CanonicalCommand: parsed.Canonical,
			Params:           params,
			Dispatch:         model.DispatchDirect,
		}
		s.metrics.commandExecuted(parsed.Canonical, result.Recommendation.Level, false)
		return result, nil
	}

	if err := ValidateParams(params); err != nil {
		return model.CommandResult{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}

	var (
		base     string
		report   string
		dispatch string
	)
	if command.CanDispatchDirectly(parsed.Canonical, params) {
		dispatch = model.DispatchDirect
		generated, err := s.reports.Generate(ctx, parsed.Canonical, params)
		switch {
		case errors.Is(err, ErrInvalidParameter):
			return model.CommandResult{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
		case err != nil:
			log.Warnf("Base report failed: %v", err)
			generated = fmt.Sprintf("# %s\n\nReport unavailable: %v\n", parsed.Canonical, err)
		}
		base = generated
		report = s.enrich(ctx, parsed.Canonical, params, generated)
	} else {
		dispatch = model.DispatchFallback
		base = s.fallback(ctx, parsed)
		report = base
	}

	verification := s.verifier.Verify(ctx, parsed.Canonical, params, base, report)
	result := model.CommandResult{
		Report:           verification.Report,
		Evidence:         verification.Evidence,
		Recommendation:   verification.Recommendation,
		CanonicalCommand: parsed.Canonical,
		Params:           params,
		Dispatch:         dispatch,
	}

	dup, cached := s.dedup.CheckDuplicate(ctx, parsed.Canonical, params, base)
	ApplyDuplicateDowngrade(&result, dup, s.dedup.Elapsed(cached))

	s.metrics.commandExecuted(parsed.Canonical, result.Recommendation.Level, dup)
	log.WithFields(logrus.Fields{
		"dispatch":   dispatch,
		"level":      result.Recommendation.Level,
		"confidence": result.Recommendation.Confidence,
		"duplicate":  dup,
	}).Info("Command executed")

	if s.notifier != nil && result.Recommendation.Level == model.LevelNotify {
		_ = s.notifier.NotifyCommand(ctx, result)
	}
	return result, nil
}

// enrich - 표준 프롬프트 + 기본 리포트를 Analyzer에 넘긴다. 실패하면 기본 리포트 그대로.
func (s *CommandService) enrich(ctx context.Context, canonical model.Canonical, params map[string]string, base string) string {
	if s.analyzer == nil || !boolParam(params, "analyze_with_ai", s.opts.AIAnalysis) {
		return base
	}
	prompt := command.BuildCanonicalPrompt(canonical, params) + "\n\n# DATA:\n" + base
	text, err := client.Retry(ctx, s.retry, "analyzer.command", func(ctx context.Context) (string, error) {
		return s.analyzer.Analyze(ctx, prompt)
	})
	if err != nil || strings.TrimSpace(text) == "" {
		logrus.WithField("canonical", canonical).Warnf("Command analysis failed, using base report: %v", err)
		return base
	}
	return text
}

// fallback - 직접 실행할 수 없는 명령: 자연어 작업 지시문을 Analyzer로 처리
func (s *CommandService) fallback(ctx context.Context, parsed model.ParsedCommand) string {
	prompt := command.BuildPrompt(parsed.Canonical, parsed.Params, parsed.RawRemainder)
	missing := command.MissingParams(parsed.Canonical, parsed.Params)

	if s.analyzer != nil {
		text, err := client.Retry(ctx, s.retry, "analyzer.fallback", func(ctx context.Context) (string, error) {
			return s.analyzer.Analyze(ctx, prompt)
		})
		if err == nil && strings.TrimSpace(text) != "" {
			return text
		}
		logrus.WithField("canonical", parsed.Canonical).Warnf("Fallback analysis failed: %v", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", parsed.Canonical)
	fmt.Fprintf(&b, "Missing parameters for a direct report: %s.\n\n", strings.Join(missing, ", "))
	fmt.Fprintf(&b, "Task: %s\n\n", prompt)
	fmt.Fprintf(&b, "Example: `%s%s service=<name> deployment_time=<RFC3339>`\n", command.Prefix, firstAlias(parsed))
	return b.String()
}

func firstAlias(parsed model.ParsedCommand) string {
	if parsed.Alias != "" {
		return parsed.Alias
	}
	if spec, ok := command.Lookup(parsed.Canonical); ok && len(spec.Aliases) > 0 {
		return spec.Aliases[0]
	}
	return string(parsed.Canonical)
}
