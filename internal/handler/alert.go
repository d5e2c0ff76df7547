// 알림 웹훅 수신 및 이력 조회 핸들러
//
// 요청 흐름:
//  1. Alertmanager(또는 임의의 알림 소스)가 POST /api/alerts로 알림 전송
//  2. 단일 알림 또는 {alerts: [...]} 배치를 map으로 파싱 (키 형식이 섞여 있어도 허용)
//  3. service 레이어에서 분류/중복 판정/원장 기록/알림 전달
//  4. 알림별 처리 결과 반환

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/polsebas/agente-admin-observabilidad/internal/db"
	"github.com/polsebas/agente-admin-observabilidad/internal/model"
	"github.com/polsebas/agente-admin-observabilidad/internal/service"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Alert 핸들러 구조체 정의
type AlertHandler struct {
	alertService *service.AlertService
	history      service.LedgerReader
}

// Alert 핸들러 객체 생성
func NewAlertHandler(alertService *service.AlertService, history service.LedgerReader) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
		history:      history,
	}
}

// Webhook godoc
// @Summary Receive alerts
// @Description Single alert or Alertmanager batch envelope ({alerts: [...]})
// @Tags alerts
// @Accept json
// @Produce json
// @Param payload body model.AlertmanagerWebhook true "Alert payload"
// @Success 200 {object} model.AlertWebhookResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.AlertWebhookResponse
// @Router /api/alerts [post]
func (h *AlertHandler) Webhook(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		logrus.Warnf("Failed to parse alert payload: %v", err)
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid payload"})
		return
	}

	results, err := h.alertService.ProcessWebhook(c.Request.Context(), payload)
	if err != nil {
		logrus.Errorf("Alert processing failed: %v", err)
		c.JSON(http.StatusInternalServerError, model.AlertWebhookResponse{Status: "partial", Alerts: results})
		return
	}

	c.JSON(http.StatusOK, model.AlertWebhookResponse{Status: "received", Alerts: results})
}

// History godoc
// @Summary List recorded alerts
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max entries (default 50)"
// @Success 200 {object} model.AlertHistoryResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/alerts/history [get]
func (h *AlertHandler) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = min(v, maxHistoryLimit)
	}

	entries, err := h.history.ListEntries(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}
	if entries == nil {
		entries = []model.LedgerEntry{}
	}
	c.JSON(http.StatusOK, model.AlertHistoryResponse{Count: len(entries), Entries: entries})
}

// GetReport godoc
// @Summary Get the analysis report of a recorded alert
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Success 200 {object} model.LedgerEntry
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/reports/{id} [get]
func (h *AlertHandler) GetReport(c *gin.Context) {
	entry, err := h.history.GetEntry(c.Request.Context(), c.Param("id"))
	if errors.Is(err, db.ErrEntryNotFound) {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "report not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, entry)
}
