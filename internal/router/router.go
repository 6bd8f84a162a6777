package router

import (
	"context"
	"time"

	"presale/config"
	"presale/internal/handler"
	"presale/internal/middleware"
	"presale/internal/repository"
	"presale/internal/security"
	"presale/internal/service"
	"presale/internal/ws"
	"presale/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers into a gin engine. It
// seeds config store defaults first. Background work stops with ctx.
func Setup(ctx context.Context, cfg *config.Config, db *gorm.DB, uploader cloudinary.Uploader) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(), middleware.AccessLog())
	limiter := middleware.NewInMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	go limiter.Cleanup(ctx, time.Minute)

	// Repositories
	settingRepo := repository.NewSettingRepository(db)
	userRepo := repository.NewUserRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)

	hub := ws.NewHub()
	addresses := security.NewAddressValidator(cfg.Ledger.AddressFormat)

	// Services
	presaleSvc := service.NewPresaleService(settingRepo, adminRepo, cfg.Presale, uploader, cfg.Cloudinary.Folder)
	authSvc := service.NewAuthService(&cfg.Admin, settingRepo)
	ledgerSvc := service.NewLedgerService(ledgerRepo, userRepo, presaleSvc, addresses, hub, cfg.Ledger.PendingTimeout)
	adminSvc := service.NewAdminService(adminRepo, userRepo, ledgerSvc, addresses)
	exportSvc := service.NewExportService(adminRepo)

	if err := presaleSvc.SeedDefaults(ctx); err != nil {
		return nil, err
	}
	if err := authSvc.SeedPasscode(ctx); err != nil {
		return nil, err
	}

	// Handlers
	purchaseHandler := handler.NewPurchaseHandler(ledgerSvc, cfg.Ledger.SettlementOnly)
	presaleHandler := handler.NewPresaleHandler(presaleSvc)
	adminHandler := handler.NewAdminHandler(authSvc, adminSvc, presaleSvc, exportSvc)
	webhookHandler := handler.NewWebhookHandler(ledgerSvc, cfg.Webhook.Secret)
	healthHandler := handler.NewHealthHandler(db)

	rateMw := middleware.RateLimit(limiter)
	adminMw := []gin.HandlerFunc{middleware.AuthRequired(&cfg.Admin), middleware.AdminRequired()}

	api := r.Group("/api/v1")
	{
		api.POST("/purchases", rateMw, purchaseHandler.Submit)
		api.GET("/users/:wallet", rateMw, purchaseHandler.GetUser)
		api.GET("/presale", rateMw, presaleHandler.Overview)

		api.POST("/admin/login", rateMw, adminHandler.Login)
		admin := api.Group("/admin")
		admin.Use(adminMw...)
		{
			admin.PUT("/presale", adminHandler.UpdatePresale)
			admin.POST("/presale/logo", adminHandler.UploadLogo)
			admin.PUT("/passcode", adminHandler.ChangePasscode)
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/export", adminHandler.ExportUsers)
			admin.GET("/users/:wallet", adminHandler.GetUser)
			admin.PATCH("/users/:wallet", adminHandler.UpdateUser)
			admin.GET("/stages", adminHandler.Stages)
			admin.GET("/settings", adminHandler.GetSettings)
		}

		api.POST("/webhooks/settlement", webhookHandler.Settlement)
	}

	r.GET("/ws/presale", ws.ServeFeed(hub, func(ctx context.Context) (interface{}, error) {
		return presaleSvc.Overview(ctx)
	}))
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/metrics", healthHandler.Metrics)

	return r, nil
}
