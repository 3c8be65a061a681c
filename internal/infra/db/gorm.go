package db

import (
	"fmt"
	"net/url"

	"backoffice/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DSN は接続文字列を組み立てる。
// DATABASE_URL があれば最優先。DATABASE_KEY があればパスワードを置き換える。
func DSN(cfg config.Config) (string, error) {
	if cfg.DatabaseURL != "" {
		if cfg.DatabaseKey == "" {
			return cfg.DatabaseURL, nil
		}
		u, err := url.Parse(cfg.DatabaseURL)
		if err != nil {
			return "", fmt.Errorf("parse DATABASE_URL: %w", err)
		}
		user := ""
		if u.User != nil {
			user = u.User.Username()
		}
		u.User = url.UserPassword(user, cfg.DatabaseKey)
		return u.String(), nil
	}

	pass := cfg.PostgresPassword
	if cfg.DatabaseKey != "" {
		pass = cfg.DatabaseKey
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, pass, cfg.PostgresDB, cfg.PostgresSSLMode,
	), nil
}

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if cfg.IsProduction() {
		level = gormlogger.Error
	}

	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
}
