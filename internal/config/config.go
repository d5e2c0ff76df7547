// 애플리케이션 설정 로딩
//
// 우선순위 (높은 것부터):
//  1. 환경변수 (키의 "."을 "_"로 바꾼 대문자, 예: dedup.window_minutes -> DEDUP_WINDOW_MINUTES)
//  2. --config로 지정한 YAML 파일
//  3. .env 파일 (godotenv, 있으면)
//  4. 기본값
//
// PostgreSQL은 기존 관례대로 DATABASE_URL, PGHOST, PGPORT, PGUSER, PGPASSWORD,
// PGDATABASE, PGSSLMODE 환경변수를 그대로 사용한다.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Server            ServerConfig      `mapstructure:"server"`
	Log               LogConfig         `mapstructure:"log"`
	Ledger            LedgerConfig      `mapstructure:"ledger"`
	Postgres          PostgresConfig    `mapstructure:"postgres"`
	Dedup             DedupConfig       `mapstructure:"dedup"`
	ResultCache       ResultCacheConfig `mapstructure:"result_cache"`
	Retry             RetryConfig       `mapstructure:"retry"`
	Evidence          EvidenceConfig    `mapstructure:"evidence"`
	Thresholds        ThresholdConfig   `mapstructure:"thresholds"`
	MonitoredServices []string          `mapstructure:"monitored_services"`
	Prometheus        PrometheusConfig  `mapstructure:"prometheus"`
	GenAI             GenAIConfig       `mapstructure:"genai"`
	Slack             SlackConfig       `mapstructure:"slack"`
	Webhooks          WebhookConfig     `mapstructure:"webhooks"`
	Digest            DigestConfig      `mapstructure:"digest"`
	Auth              AuthConfig        `mapstructure:"auth"`
	Commands          CommandsConfig    `mapstructure:"commands"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LedgerConfig - 알림 원장 저장소 선택 (postgres | sqlite)
type LedgerConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type PostgresConfig struct {
	DatabaseURL string `mapstructure:"database_url"`
	Host        string `mapstructure:"host"`
	Port        string `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Database    string `mapstructure:"database"`
	SSLMode     string `mapstructure:"sslmode"`
}

type DedupConfig struct {
	WindowMinutes int `mapstructure:"window_minutes"`
}

// ResultCacheConfig - 명령 결과 중복 제거 저장소 (memory | redis)
type ResultCacheConfig struct {
	Backend    string `mapstructure:"backend"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
	MaxEntries int    `mapstructure:"max_entries"`
	RedisURL   string `mapstructure:"redis_url"`
}

func (c ResultCacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

type EvidenceConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type ThresholdConfig struct {
	LatencyMS float64 `mapstructure:"latency_ms"`
	ErrorRate float64 `mapstructure:"error_rate"`
}

type PrometheusConfig struct {
	URL string `mapstructure:"url"`
}

type GenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type SlackConfig struct {
	BotToken  string `mapstructure:"bot_token"`
	ChannelID string `mapstructure:"channel_id"`
	APIURL    string `mapstructure:"api_url"`
}

type WebhookConfig struct {
	URLs         []string `mapstructure:"urls"`
	BodyTemplate string   `mapstructure:"body_template"`
}

type DigestConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type CommandsConfig struct {
	AIAnalysis bool `mapstructure:"ai_analysis"`
}

// DefaultWebhookBody - 외부 webhook 기본 본문
const DefaultWebhookBody = `{"text": "[{{recommendation.level}}] {{command.canonical}}{{alert.alertname}}: {{recommendation.reason}}{{alert.summary}}"}`

var defaults = map[string]any{
	"server.port":             "8080",
	"server.allowed_origins":  []string{"*"},
	"server.shutdown_timeout": "10s",

	"log.level":  "info",
	"log.format": "text",

	"ledger.driver":      "postgres",
	"ledger.sqlite_path": "./agent.db",

	"postgres.database_url": "",
	"postgres.host":         "localhost",
	"postgres.port":         "5432",
	"postgres.user":         "",
	"postgres.password":     "",
	"postgres.database":     "",
	"postgres.sslmode":      "disable",

	"dedup.window_minutes": 60,

	"result_cache.backend":     "memory",
	"result_cache.ttl_minutes": 30,
	"result_cache.max_entries": 1024,
	"result_cache.redis_url":   "",

	"retry.max_attempts":    3,
	"retry.initial_backoff": "1s",
	"retry.max_backoff":     "8s",

	"evidence.timeout": "10s",

	"thresholds.latency_ms": 500.0,
	"thresholds.error_rate": 0.01,

	"monitored_services": []string{
		"auth-service",
		"api-gateway",
		"payment-service",
		"user-service",
		"notification-service",
	},

	"prometheus.url": "",

	"genai.api_key": "",
	"genai.model":   "gemini-2.0-flash",

	"slack.bot_token":  "",
	"slack.channel_id": "",
	"slack.api_url":    "",

	"webhooks.urls":          []string{},
	"webhooks.body_template": DefaultWebhookBody,

	"digest.enabled":  true,
	"digest.schedule": "0 9 * * *",

	"auth.jwt_secret": "",

	"commands.ai_analysis": false,
}

// 기존 환경변수 이름과의 매핑
var envAliases = map[string][]string{
	"postgres.database_url": {"DATABASE_URL"},
	"postgres.host":         {"PGHOST"},
	"postgres.port":         {"PGPORT"},
	"postgres.user":         {"PGUSER"},
	"postgres.password":     {"PGPASSWORD"},
	"postgres.database":     {"PGDATABASE"},
	"postgres.sslmode":      {"PGSSLMODE"},
	"genai.api_key":         {"GENAI_API_KEY", "AI_API_KEY"},
	"log.level":             {"LOG_LEVEL"},
}

// Load - 설정 로딩. configPath가 비어 있으면 파일 없이 환경변수/기본값만 사용한다.
func Load(configPath string) (*Config, error) {
	// .env는 선택 사항
	if err := godotenv.Load(); err == nil {
		logrus.Debug("Loaded .env file")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envAliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// SetupLogging - logrus 레벨/포맷 설정
func SetupLogging(cfg LogConfig) {
	switch strings.ToLower(cfg.Level) {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	if strings.EqualFold(cfg.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
