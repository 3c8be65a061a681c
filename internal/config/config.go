package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvProduction = "production"

// 既定では遷移表を使わず、列挙値ならどのステータスへも変更できる
const DefaultStrictTransitions = false

// Configはアプリ全体の設定
type Config struct {
	AppEnv string // development/production
	Port   string // サーバーポート（8080）

	DatabaseURL string // あれば最優先
	DatabaseKey string // サービスキー（あれば接続パスワードを置き換える）

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string
	MigrationsDir    string // 空なら埋め込みのマイグレーション

	JWTSecret  string        // JWT署名シークレット
	SessionTTL time.Duration // sessionクッキーとJWTの有効期限

	SMTP SMTPConfig

	SiteURL     string // メール内リンクの基点
	DevSiteHost string // 開発時だけ SiteURL を上書き

	DevAllowCORS   bool     // 開発時だけクロスオリジンを許可
	DevCORSOrigins []string // 許可するオリジン
	DevAuthBypass  bool     // 開発用 dev_bypass クッキーを受け付ける

	SuperadminEmails []string // 常にsuperadmin扱いになるメール

	Redis        RedisConfig
	RoleCacheTTL time.Duration

	JaegerEndpoint string

	StrictTransitions bool // true で注文ステータスの遷移表を強制する（既定はオフ）
}

type SMTPConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	From         string
	SupportEmail string // 管理者向け通知の宛先
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// メールに載せるサイトURL。開発時は DEV_SITE_HOST を優先。
func (c Config) PublicSiteURL() string {
	if !c.IsProduction() && c.DevSiteHost != "" {
		host := c.DevSiteHost
		if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
			host = "http://" + host
		}
		return strings.TrimRight(host, "/")
	}
	return strings.TrimRight(c.SiteURL, "/")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_DB", "app")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SITE_URL", "http://localhost:3000")
	v.SetDefault("SUPERADMIN_EMAILS", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ROLE_CACHE_TTL", "5m")
	v.SetDefault("ORDER_STRICT_TRANSITIONS", DefaultStrictTransitions)
	v.SetDefault("DEV_ALLOW_CORS", false)
	v.SetDefault("DEV_AUTH_BYPASS", false)
}

// Loadは .env（あれば）と環境変数から読む
func Load() (Config, error) {
	// .env は任意。本番では環境変数だけで動く
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return FromViper(v)
}

// テストからも使う
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppEnv: strings.ToLower(v.GetString("APP_ENV")),
		Port:   v.GetString("PORT"),

		DatabaseURL: v.GetString("DATABASE_URL"),
		DatabaseKey: v.GetString("DATABASE_KEY"),

		PostgresUser:     v.GetString("POSTGRES_USER"),
		PostgresPassword: v.GetString("POSTGRES_PASSWORD"),
		PostgresDB:       v.GetString("POSTGRES_DB"),
		PostgresHost:     v.GetString("POSTGRES_HOST"),
		PostgresPort:     v.GetInt("POSTGRES_PORT"),
		PostgresSSLMode:  v.GetString("POSTGRES_SSLMODE"),
		MigrationsDir:    v.GetString("MIGRATIONS_DIR"),

		JWTSecret:  v.GetString("JWT_SECRET"),
		SessionTTL: v.GetDuration("SESSION_TTL"),

		SMTP: SMTPConfig{
			Host:         v.GetString("SMTP_HOST"),
			Port:         v.GetInt("SMTP_PORT"),
			User:         v.GetString("SMTP_USER"),
			Password:     v.GetString("SMTP_PASSWORD"),
			From:         v.GetString("SMTP_FROM"),
			SupportEmail: v.GetString("SUPPORT_EMAIL"),
		},

		SiteURL:     v.GetString("SITE_URL"),
		DevSiteHost: v.GetString("DEV_SITE_HOST"),

		DevAllowCORS:   v.GetBool("DEV_ALLOW_CORS"),
		DevCORSOrigins: splitList(v.GetString("DEV_CORS_ORIGINS")),
		DevAuthBypass:  v.GetBool("DEV_AUTH_BYPASS"),

		SuperadminEmails: splitList(v.GetString("SUPERADMIN_EMAILS")),

		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RoleCacheTTL: v.GetDuration("ROLE_CACHE_TTL"),

		JaegerEndpoint: v.GetString("JAEGER_ENDPOINT"),

		StrictTransitions: v.GetBool("ORDER_STRICT_TRANSITIONS"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	//必須チェック
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.DatabaseURL == "" && c.PostgresHost == "" {
		return errors.New("DATABASE_URL or POSTGRES_HOST is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		return errors.New("SMTP_FROM is required when SMTP_HOST is set")
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("SMTP_PORT out of range: %d", c.SMTP.Port)
	}

	//本番では開発用フラグを許さない
	if c.IsProduction() {
		if c.DevAuthBypass {
			return errors.New("DEV_AUTH_BYPASS must be off in production")
		}
		if c.DevAllowCORS {
			return errors.New("DEV_ALLOW_CORS must be off in production")
		}
		//常にsuperadminになるアカウントが無いと誰もロールを管理できない
		if len(c.SuperadminEmails) == 0 {
			return errors.New("SUPERADMIN_EMAILS is required in production")
		}
	}
	return nil
}

// カンマ区切りを小文字・trim してスライスに
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
