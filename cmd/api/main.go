package main

import (
	"context"
	"fmt"
	"os"

	"backoffice/internal/authz"
	"backoffice/internal/config"
	"backoffice/internal/handler"
	"backoffice/internal/infra/cache"
	"backoffice/internal/infra/db"
	"backoffice/internal/infra/mailer"
	infraRepo "backoffice/internal/infra/repository"
	"backoffice/internal/infra/tracing"
	"backoffice/internal/logger"
	"backoffice/internal/server"
	"backoffice/internal/usecase"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	tracer, err := tracing.Init(cfg.JaegerEndpoint)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	//マイグレーション → 接続
	dsn, err := db.DSN(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(dsn, cfg.MigrationsDir); err != nil {
		return err
	}
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	roleRepo := infraRepo.NewRoleGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	itemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	historyRepo := infraRepo.NewOrderHistoryGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	invoiceRepo := infraRepo.NewInvoiceGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	dashboardRepo := infraRepo.NewDashboardRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	closers := []func(context.Context) error{
		tracer.Shutdown,
		func(context.Context) error { return sqlDB.Close() },
	}

	//ロールキャッシュは REDIS_ADDR があるときだけ
	var roleCache authz.RoleCache
	if cfg.Redis.Addr != "" {
		rc := cache.NewRedisRoleCache(cfg.Redis, cfg.RoleCacheTTL)
		if err := rc.Ping(context.Background()); err != nil {
			log.Warn("redis unavailable, role cache disabled", zap.Error(err))
			_ = rc.Close()
		} else {
			roleCache = rc
			closers = append(closers, func(context.Context) error { return rc.Close() })
		}
	}
	resolver := authz.NewResolver(userRepo, roleRepo, roleCache, cfg.SuperadminEmails, log)

	sender := mailer.NewSMTPSender(cfg.SMTP)
	notifier := usecase.NewOrderNotifier(sender, cfg.SMTP.SupportEmail, cfg.PublicSiteURL(), log)

	//Usecase生成
	orderUC := usecase.NewOrderUsecase(orderRepo, itemRepo, historyRepo, userRepo, addressRepo, invoiceRepo, log)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, userRepo, notifier, cfg.StrictTransitions, log)
	productUC := usecase.NewProductUsecase(productRepo, categoryRepo, auditRepo)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo, txm)
	invoiceUC := usecase.NewInvoiceUsecase(invoiceRepo, auditRepo)
	reviewUC := usecase.NewReviewUsecase(reviewRepo, auditRepo)
	userUC := usecase.NewUserUsecase(userRepo, roleRepo, auditRepo, resolver, log)
	addressUC := usecase.NewAddressUsecase(addressRepo, userRepo, auditRepo)
	authUC := usecase.NewAuthUsecase(cfg, userRepo, resolver)
	dashboardUC := usecase.NewDashboardUsecase(dashboardRepo)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)

	//Handler生成
	e := server.New(cfg, log, server.Deps{
		Users:      userRepo,
		Resolver:   resolver,
		Auth:       handler.NewAuthHandler(cfg, authUC),
		Health:     handler.NewHealthHandler(sqlDB),
		Orders:     handler.NewAdminOrderHandler(orderUC, adminOrderUC),
		Products:   handler.NewAdminProductHandler(productUC),
		Categories: handler.NewCategoryHandler(categoryUC),
		Invoices:   handler.NewInvoiceHandler(invoiceUC),
		Reviews:    handler.NewReviewHandler(reviewUC),
		UsersAdmin: handler.NewAdminUserHandler(userUC),
		Addresses:  handler.NewAddressHandler(addressUC),
		Dashboard:  handler.NewDashboardHandler(dashboardUC),
		AuditLogs:  handler.NewAuditLogHandler(auditUC),
	})

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}
	return server.Run(e, addr, log, closers...)
}
