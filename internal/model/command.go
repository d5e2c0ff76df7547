package model

import "time"

// Canonical - 닫힌 집합의 표준 명령
type Canonical string

const (
	CommandRecentIncidents Canonical = "recent-incidents"
	CommandHealth          Canonical = "health"
	CommandPostDeployment  Canonical = "post-deployment"
	CommandTrends          Canonical = "trends"
	CommandDailyDigest     Canonical = "daily-digest"
	CommandHelp            Canonical = "help"
)

// Canonicals - 모든 표준 명령 (help 포함)
var Canonicals = []Canonical{
	CommandRecentIncidents,
	CommandHealth,
	CommandPostDeployment,
	CommandTrends,
	CommandDailyDigest,
	CommandHelp,
}

// ParsedCommand - 파서 결과
// RawRemainder는 별칭 뒤의 원문 그대로이며 토큰 제거는 프롬프트 생성 단계에서 한다.
type ParsedCommand struct {
	Canonical    Canonical         `json:"canonical"`
	Alias        string            `json:"alias"`
	Params       map[string]string `json:"params"`
	RawRemainder string            `json:"raw_remainder"`
}

// RecommendationLevel - notify | fyi
type RecommendationLevel string

const (
	LevelNotify RecommendationLevel = "notify"
	LevelFYI    RecommendationLevel = "fyi"
)

// Recommendation - 사람이 봐야 하는지에 대한 판정
type Recommendation struct {
	Level      RecommendationLevel `json:"level"`
	Reason     string              `json:"reason"`
	Confidence float64             `json:"confidence"`
}

// EvidenceCheck - 보조 검증 한 건의 결과
type EvidenceCheck struct {
	Source        string    `json:"source"`
	Query         string    `json:"query"`
	ResultSummary string    `json:"result_summary"`
	Pass          bool      `json:"pass"`
	Timestamp     time.Time `json:"timestamp"`
}

// VerificationResult - VerificationEngine 결과
type VerificationResult struct {
	Report         string          `json:"report"`
	Evidence       []EvidenceCheck `json:"evidence"`
	Recommendation Recommendation  `json:"recommendation"`
}

// Dispatch 경로
const (
	DispatchDirect   = "direct"
	DispatchFallback = "fallback"
)

// CommandResult - 명령 실행 결과 (항상 구조화된 결과를 반환)
type CommandResult struct {
	Report           string            `json:"report" yaml:"report"`
	Evidence         []EvidenceCheck   `json:"evidence" yaml:"evidence"`
	Recommendation   Recommendation    `json:"recommendation" yaml:"recommendation"`
	CanonicalCommand Canonical         `json:"canonical_command" yaml:"canonical_command"`
	Params           map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Dispatch         string            `json:"dispatch" yaml:"dispatch"`
	IsDuplicate      bool              `json:"is_duplicate" yaml:"is_duplicate"`
}

// CacheEntry - 결과 중복 제거 캐시 레코드
type CacheEntry struct {
	Fingerprint string            `json:"fingerprint"`
	Canonical   Canonical         `json:"canonical"`
	Params      map[string]string `json:"params"`
	Report      string            `json:"report"`
	Timestamp   time.Time         `json:"timestamp"`
}
