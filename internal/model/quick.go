package model

// 조회 엔드포인트 쿼리 파라미터
// gin binding 태그로 범위/형식을 검증한다.

type RecentIncidentsQuery struct {
	Hours    int    `form:"hours,default=24" binding:"min=1,max=168"`
	Severity string `form:"severity" binding:"omitempty,oneof=critical major minor warning info"`
	Service  string `form:"service"`
}

type HealthQuery struct {
	Services       string `form:"services"`
	IncludeMetrics *bool  `form:"include_metrics"`
}

type PostDeploymentQuery struct {
	Service               string `form:"service" binding:"required"`
	DeploymentTime        string `form:"deployment_time" binding:"required"`
	MonitoringWindowHours int    `form:"monitoring_window_hours,default=2" binding:"min=1,max=24"`
}

type TrendsQuery struct {
	Metric      string `form:"metric,default=alert_count"`
	Service     string `form:"service"`
	PeriodHours int    `form:"period_hours,default=24" binding:"min=1,max=168"`
}

type DailyDigestQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// HelpDoc - 별칭 표, 파라미터 문서, 판정 기준
type HelpDoc struct {
	Prefix    string          `json:"prefix" yaml:"prefix"`
	Commands  []HelpCommand   `json:"commands" yaml:"commands"`
	Shortcuts []HelpShortcut  `json:"shortcuts" yaml:"shortcuts"`
	Criteria  []HelpCriterion `json:"recommendation_criteria" yaml:"recommendation_criteria"`
	Examples  []string        `json:"examples" yaml:"examples"`
}

type HelpCommand struct {
	Canonical      Canonical   `json:"canonical" yaml:"canonical"`
	Aliases        []string    `json:"aliases" yaml:"aliases"`
	Description    string      `json:"description" yaml:"description"`
	Params         []HelpParam `json:"params,omitempty" yaml:"params,omitempty"`
	RequiredParams []string    `json:"required_params,omitempty" yaml:"required_params,omitempty"`
	EvidenceChecks []string    `json:"evidence_checks,omitempty" yaml:"evidence_checks,omitempty"`
}

type HelpParam struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
}

type HelpShortcut struct {
	Token       string `json:"token" yaml:"token"`
	Description string `json:"description" yaml:"description"`
}

type HelpCriterion struct {
	Condition  string              `json:"condition" yaml:"condition"`
	Level      RecommendationLevel `json:"level" yaml:"level"`
	Confidence float64             `json:"confidence" yaml:"confidence"`
}
