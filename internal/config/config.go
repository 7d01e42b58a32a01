// Package config はアプリケーション設定を環境変数から読み込む。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// DefaultIdentitySessionURL は外部IdPのセッション情報取得エンドポイント。
const DefaultIdentitySessionURL = "https://demobackend.emergentagent.com/auth/v1/env/oauth/session-data"

// GenerationWriteMargin はAI呼び出し2回分に加えて書き込みタイムアウトに確保する余裕。
// 保存と応答の書き込みに使う。
const GenerationWriteMargin = 30 * time.Second

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL,notEmpty"`

	// Server
	ServerPort      string        `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"300s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// CORS（カンマ区切り。"*" はリクエストのOriginをそのまま許可する）
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`

	// Identity
	IdentitySessionURL string        `env:"IDENTITY_SESSION_URL" envDefault:"https://demobackend.emergentagent.com/auth/v1/env/oauth/session-data"`
	IdentityTimeout    time.Duration `env:"IDENTITY_TIMEOUT" envDefault:"10s"`

	// Session
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"true"`
	// 期限切れセッションの削除間隔。0（既定）の場合は削除しない
	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"0s"`

	// AI
	AIAPIKey     string        `env:"AI_API_KEY"`
	AIBaseURL    string        `env:"AI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	AITextModel  string        `env:"AI_TEXT_MODEL" envDefault:"gpt-4o-mini"`
	AIImageModel string        `env:"AI_IMAGE_MODEL" envDefault:"gpt-image-1"`
	AITimeout    time.Duration `env:"AI_TIMEOUT" envDefault:"120s"`

	// ローカルのモックサーバー等に接続する場合のみtrueにする
	UpstreamAllowPrivate bool `env:"UPSTREAM_ALLOW_PRIVATE" envDefault:"false"`

	// S3互換ストレージ（フライヤー画像のアーカイブ、任意）
	S3 S3Config `envPrefix:"S3_"`
}

// S3Config はフライヤー画像アーカイブ先の設定。
type S3Config struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"adstudio-assets"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"true"`
}

// Enabled はアーカイブ先が設定されているかどうかを返す。
func (c S3Config) Enabled() bool {
	return c.Endpoint != ""
}

// AIEnabled はAI APIキーが設定されているかどうかを返す。
func (c *Config) AIEnabled() bool {
	return c.AIAPIKey != ""
}

// MinWriteTimeout は生成リクエストの応答を書き切るのに必要な書き込みタイムアウトを返す。
func (c *Config) MinWriteTimeout() time.Duration {
	return 2*c.AITimeout + GenerationWriteMargin
}

// AllowedOrigins はCORS_ORIGINSを分割して返す。
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive: %s", cfg.SessionTTL)
	}
	// チラシ生成はテキストと画像のAI呼び出しを順に行う。0は書き込みタイムアウトなし
	if required := cfg.MinWriteTimeout(); cfg.WriteTimeout != 0 && cfg.WriteTimeout < required {
		return nil, fmt.Errorf("WRITE_TIMEOUT must be 0 or at least 2*AI_TIMEOUT+%s (%s): %s",
			GenerationWriteMargin, required, cfg.WriteTimeout)
	}
	if cfg.SessionCleanupInterval < 0 {
		return nil, fmt.Errorf("SESSION_CLEANUP_INTERVAL must not be negative: %s", cfg.SessionCleanupInterval)
	}

	return cfg, nil
}
