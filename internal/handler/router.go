// HTTP 라우팅 정의
//
// 공개 경로:   /, /ping, /openapi.json, /metrics, POST /api/alerts, GET /api/quick/help
// 인증 경로:   /api/alerts/history, /api/reports/:id, /api/quick/*
// Alertmanager 호환 경로: POST /webhook/alertmanager (POST /api/alerts와 동일)

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterConfig - 라우터 구성 요소
type RouterConfig struct {
	Alerts         *AlertHandler
	Quick          *QuickHandler
	Registry       *prometheus.Registry
	JWTSecret      string
	AllowedOrigins []string
}

// NewRouter - gin 엔진 생성
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(), CORSMiddleware(cfg.AllowedOrigins, false))

	router.GET("/", Root)
	router.GET("/ping", Ping)
	router.GET("/openapi.json", OpenAPIDoc)
	if cfg.Registry != nil {
		router.GET("/metrics", Metrics(cfg.Registry))
	}

	router.POST("/api/alerts", cfg.Alerts.Webhook)
	router.POST("/webhook/alertmanager", cfg.Alerts.Webhook)
	router.GET("/api/quick/help", cfg.Quick.Help)

	api := router.Group("/api", AuthMiddleware(cfg.JWTSecret))
	{
		api.GET("/alerts/history", cfg.Alerts.History)
		api.GET("/reports/:id", cfg.Alerts.GetReport)

		quick := api.Group("/quick")
		quick.POST("/command", cfg.Quick.ExecuteCommand)
		quick.GET("/recent-incidents", cfg.Quick.RecentIncidents)
		quick.GET("/health", cfg.Quick.Health)
		quick.GET("/post-deployment", cfg.Quick.PostDeployment)
		quick.GET("/trends", cfg.Quick.Trends)
		quick.GET("/daily-digest", cfg.Quick.DailyDigest)
	}

	return router
}
