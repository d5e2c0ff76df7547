package command

import (
	"fmt"
	"strings"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

// Help - 별칭 표, 파라미터 문서, 판정 기준을 담은 도움말
func Help() model.HelpDoc {
	doc := model.HelpDoc{
		Prefix: Prefix,
		Shortcuts: []model.HelpShortcut{
			{Token: "hoy | today", Description: "sets hours (recent-incidents) or period_hours (trends) to 24"},
			{Token: "ayer | yesterday", Description: "sets date to the previous UTC day (daily-digest)"},
			{Token: "<N>h", Description: "sets hours, period_hours or monitoring_window_hours to N"},
			{Token: "key=value", Description: "explicit parameter, always wins over shortcuts"},
		},
		Criteria: []model.HelpCriterion{
			{Condition: "any critical active alert", Level: model.LevelNotify, Confidence: 0.9},
			{Condition: "alert count change above +50% versus the previous window", Level: model.LevelNotify, Confidence: 0.85},
			{Condition: "critical alert after a deployment", Level: model.LevelNotify, Confidence: 0.95},
			{Condition: "post/pre deployment alert ratio above 2", Level: model.LevelNotify, Confidence: 0.8},
			{Condition: "daily digest reports N>0 critical incidents", Level: model.LevelNotify, Confidence: 0.9},
			{Condition: "no critical situation found", Level: model.LevelFYI, Confidence: 0.5},
			{Condition: "same result executed within 30 minutes", Level: model.LevelFYI, Confidence: 0.3},
		},
		Examples: []string{
			"/novedades hoy",
			"/inc 6h severity=critical",
			"/salud services=api-gateway,auth-service",
			"/deploy service=auth-service deployment_time=2025-12-10T14:00:00Z 4h",
			"/tendencias 8h",
			"/digest ayer",
		},
	}

	for _, canonical := range model.Canonicals {
		spec := specs[canonical]
		cmd := model.HelpCommand{
			Canonical:      canonical,
			Aliases:        append([]string(nil), spec.Aliases...),
			Description:    spec.Description,
			Params:         spec.Params,
			RequiredParams: spec.Required,
		}
		for _, check := range spec.Checks {
			cmd.EvidenceChecks = append(cmd.EvidenceChecks, string(check))
		}
		doc.Commands = append(doc.Commands, cmd)
	}
	return doc
}

// HelpMarkdown - /help 명령의 리포트 본문
func HelpMarkdown() string {
	doc := Help()

	var b strings.Builder
	b.WriteString("# Quick Commands\n\n")
	b.WriteString("| Command | Aliases | Description |\n|---|---|---|\n")
	for _, cmd := range doc.Commands {
		aliases := make([]string, len(cmd.Aliases))
		for i, a := range cmd.Aliases {
			aliases[i] = "`" + doc.Prefix + a + "`"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", cmd.Canonical, strings.Join(aliases, ", "), cmd.Description)
	}

	b.WriteString("\n## Shortcuts\n\n")
	for _, s := range doc.Shortcuts {
		fmt.Fprintf(&b, "- `%s`: %s\n", s.Token, s.Description)
	}

	b.WriteString("\n## Recommendation Criteria\n\n")
	for _, c := range doc.Criteria {
		fmt.Fprintf(&b, "- %s → **%s** (%.0f%%)\n", c.Condition, strings.ToUpper(string(c.Level)), c.Confidence*100)
	}

	b.WriteString("\n## Examples\n\n")
	for _, e := range doc.Examples {
		fmt.Fprintf(&b, "- `%s`\n", e)
	}
	return b.String()
}
