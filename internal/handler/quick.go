// 빠른 명령(slash command) 핸들러
//
// 요청 흐름:
//  1. POST /api/quick/command: 명령 문자열 -> CommandService (해석, 리포트, 검증, 중복 억제)
//  2. GET /api/quick/<command>: 타입이 있는 쿼리 파라미터 -> ReportService 리포트만 반환
//  3. GET /api/quick/help: 별칭 표, 파라미터 문서, 판정 기준

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/polsebas/agente-admin-observabilidad/internal/command"
	"github.com/polsebas/agente-admin-observabilidad/internal/model"
	"github.com/polsebas/agente-admin-observabilidad/internal/service"
)

// Quick 핸들러 구조체 정의
type QuickHandler struct {
	commands *service.CommandService
	reports  service.ReportGenerator
}

// Quick 핸들러 객체 생성
func NewQuickHandler(commands *service.CommandService, reports service.ReportGenerator) *QuickHandler {
	return &QuickHandler{commands: commands, reports: reports}
}

// ExecuteCommand godoc
// @Summary Execute a quick command
// @Description Parses "/<alias> [args]", builds the report, runs verification checks and result dedup
// @Tags quick
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.CommandRequest true "Command"
// @Success 200 {object} model.CommandResult
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/quick/command [post]
func (h *QuickHandler) ExecuteCommand(c *gin.Context) {
	var req model.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "command is required"})
		return
	}

	result, err := h.commands.Execute(c.Request.Context(), req.Command)
	if errors.Is(err, service.ErrInvalidCommand) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		logrus.Errorf("Command execution failed: %v", err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// RecentIncidents godoc
// @Summary Recent incidents report
// @Tags quick
// @Produce json
// @Security BearerAuth
// @Param hours query int false "Lookback hours (1-168)" default(24)
// @Param severity query string false "Severity filter" Enums(critical, major, minor, warning, info)
// @Param service query string false "Service filter"
// @Success 200 {object} model.ReportResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /api/quick/recent-incidents [get]
func (h *QuickHandler) RecentIncidents(c *gin.Context) {
	var q model.RecentIncidentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	h.report(c, model.CommandRecentIncidents, compactParams(map[string]string{
		"hours":    strconv.Itoa(q.Hours),
		"severity": q.Severity,
		"service":  q.Service,
	}))
}

// Health godoc
// @Summary Service health report
// @Tags quick
// @Produce json
// @Security BearerAuth
// @Param services query string false "Comma separated services"
// @Param include_metrics query bool false "Query error rate and latency" default(true)
// @Success 200 {object} model.ReportResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /api/quick/health [get]
func (h *QuickHandler) Health(c *gin.Context) {
	var q model.HealthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	params := map[string]string{"services": q.Services}
	if q.IncludeMetrics != nil {
		params["include_metrics"] = strconv.FormatBool(*q.IncludeMetrics)
	}
	h.report(c, model.CommandHealth, compactParams(params))
}

// PostDeployment godoc
// @Summary Post-deployment report
// @Tags quick
// @Produce json
// @Security BearerAuth
// @Param service query string true "Deployed service"
// @Param deployment_time query string true "Deployment time (RFC3339)"
// @Param monitoring_window_hours query int false "Post-deploy window (1-24)" default(2)
// @Success 200 {object} model.ReportResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /api/quick/post-deployment [get]
func (h *QuickHandler) PostDeployment(c *gin.Context) {
	var q model.PostDeploymentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	h.report(c, model.CommandPostDeployment, map[string]string{
		"service":                 q.Service,
		"deployment_time":         q.DeploymentTime,
		"monitoring_window_hours": strconv.Itoa(q.MonitoringWindowHours),
	})
}

// Trends godoc
// @Summary Alert trend report
// @Tags quick
// @Produce json
// @Security BearerAuth
// @Param metric query string false "Metric" default(alert_count)
// @Param service query string false "Service filter"
// @Param period_hours query int false "Period hours (1-168)" default(24)
// @Success 200 {object} model.ReportResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /api/quick/trends [get]
func (h *QuickHandler) Trends(c *gin.Context) {
	var q model.TrendsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	h.report(c, model.CommandTrends, compactParams(map[string]string{
		"metric":       q.Metric,
		"service":      q.Service,
		"period_hours": strconv.Itoa(q.PeriodHours),
	}))
}

// DailyDigest godoc
// @Summary Daily digest report
// @Tags quick
// @Produce json
// @Security BearerAuth
// @Param date query string false "Day (YYYY-MM-DD, default yesterday UTC)"
// @Success 200 {object} model.ReportResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /api/quick/daily-digest [get]
func (h *QuickHandler) DailyDigest(c *gin.Context) {
	var q model.DailyDigestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	h.report(c, model.CommandDailyDigest, compactParams(map[string]string{"date": q.Date}))
}

// Help godoc
// @Summary Quick command reference
// @Tags quick
// @Produce json
// @Success 200 {object} model.HelpDoc
// @Router /api/quick/help [get]
func (h *QuickHandler) Help(c *gin.Context) {
	c.JSON(http.StatusOK, command.Help())
}

func (h *QuickHandler) report(c *gin.Context, canonical model.Canonical, params map[string]string) {
	report, err := h.reports.Generate(c.Request.Context(), canonical, params)
	if errors.Is(err, service.ErrInvalidParameter) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		logrus.WithField("canonical", canonical).Errorf("Report generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.ReportResponse{Report: report})
}

// compactParams - 빈 값 제거
func compactParams(params map[string]string) map[string]string {
	for k, v := range params {
		if v == "" {
			delete(params, k)
		}
	}
	return params
}
