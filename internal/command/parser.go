// 빠른 명령 파서
//
// 처리 흐름:
//  1. 접두 문자("/") 확인, 없으면 ErrNotACommand
//  2. 첫 토큰(별칭)과 나머지 인자 분리
//  3. 별칭 테이블로 표준 명령 결정, 모르는 별칭이면 ErrNotACommand
//  4. help는 파라미터 해석 없이 인자 원문만 반환
//  5. key=value 명시 파라미터 추출
//  6. 단축 표현 적용 (setdefault: 명시 파라미터가 항상 우선)
//     - "hoy"/"today" -> TodayParam=24
//     - "ayer"/"yesterday" -> DateParam=어제 날짜(UTC, YYYY-MM-DD)
//     - <N>h -> HoursParam=N (첫 번째 일치만)
//  7. 인자 원문은 그대로 반환 (토큰 제거는 프롬프트 생성 단계)

package command

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// ErrNotACommand - 접두 문자가 없거나 모르는 별칭
var ErrNotACommand = errors.New("not a command")

var (
	keyValuePattern  = regexp.MustCompile(`(\w+)=(\S+)`)
	todayPattern     = regexp.MustCompile(`(?i)\b(?:hoy|today)\b`)
	yesterdayPattern = regexp.MustCompile(`(?i)\b(?:ayer|yesterday)\b`)
	hoursPattern     = regexp.MustCompile(`(?i)\b(\d+)h\b`)
)

// Parse - 현재 시각 기준으로 명령을 해석한다.
func Parse(input string) (model.ParsedCommand, error) {
	return ParseAt(input, time.Now())
}

// ParseAt - now 기준으로 명령을 해석한다. "어제" 계산에 now를 사용한다.
func ParseAt(input string, now time.Time) (model.ParsedCommand, error) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, Prefix) {
		return model.ParsedCommand{}, ErrNotACommand
	}

	body := strings.TrimPrefix(trimmed, Prefix)
	alias, args := splitFirstToken(body)
	if alias == "" {
		return model.ParsedCommand{}, ErrNotACommand
	}
	alias = strings.ToLower(alias)

	canonical, ok := Resolve(alias)
	if !ok {
		return model.ParsedCommand{}, fmt.Errorf("%w: unknown alias %q", ErrNotACommand, alias)
	}

	parsed := model.ParsedCommand{
		Canonical:    canonical,
		Alias:        alias,
		Params:       map[string]string{},
		RawRemainder: args,
	}
	if canonical == model.CommandHelp {
		return parsed, nil
	}

	for _, m := range keyValuePattern.FindAllStringSubmatch(args, -1) {
		parsed.Params[m[1]] = m[2]
	}

	// 단축 표현은 key=value 토큰을 제외한 텍스트에서만 찾는다.
	free := keyValuePattern.ReplaceAllString(args, " ")
	spec := specs[canonical]

	if spec.TodayParam != "" && todayPattern.MatchString(free) {
		setDefault(parsed.Params, spec.TodayParam, "24")
	}
	if spec.DateParam != "" && yesterdayPattern.MatchString(free) {
		setDefault(parsed.Params, spec.DateParam, now.UTC().AddDate(0, 0, -1).Format("2006-01-02"))
	}
	if spec.HoursParam != "" {
		if m := hoursPattern.FindStringSubmatch(free); m != nil {
			setDefault(parsed.Params, spec.HoursParam, m[1])
		}
	}

	return parsed, nil
}

func splitFirstToken(s string) (string, string) {
	s = strings.TrimLeft(s, " \t\r\n")
	idx := strings.IndexAny(s, " \t\r\n")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx:])
}

func setDefault(params map[string]string, key, value string) {
	if _, ok := params[key]; !ok {
		params[key] = value
	}
}
