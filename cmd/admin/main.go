package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"marketplace-api/internal/core/auth"
	"marketplace-api/internal/core/cache"
	"marketplace-api/internal/core/config"
	"marketplace-api/internal/core/database"
	"marketplace-api/internal/core/logger"
	"marketplace-api/internal/core/server"
	"marketplace-api/internal/media"
	"marketplace-api/internal/notify"
	"marketplace-api/internal/repo"
	"marketplace-api/internal/service"
	"marketplace-api/internal/transport/http/handler"
	"marketplace-api/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	images := media.NewHTTPStore(
		cfg.Media.UploadURL, cfg.Media.DeleteURL, cfg.Media.APIKey,
		time.Duration(cfg.Media.TimeoutSec)*time.Second,
	)
	mailer := notify.NewSMTPNotifier(
		cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From,
		time.Duration(cfg.Mail.TimeoutSec)*time.Second,
	)
	dispatcher := notify.NewDispatcher(mailer, log, cfg.Mail.AdminAddr, cfg.App.BaseURL)
	defer dispatcher.Close()

	// report queries are cached briefly; without redis they fall through to
	// the database on every call
	var reportCache *cache.Cache
	if cfg.Redis.Addr != "" {
		reportCache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}

	users := repo.NewUserRepo(db)
	shops := repo.NewShopRepo(db)
	products := repo.NewProductRepo(db)
	categories := repo.NewCategoryRepo(db)
	transactions := repo.NewTransactionRepo(db)

	userSvc := service.NewUserService(users, jwter, images, dispatcher)
	shopSvc := service.NewShopService(shops, users, images, dispatcher, log)
	catalogSvc := service.NewCatalogService(products, categories, shops, images, log)
	orderSvc := service.NewOrderService(db, users, products, transactions, shops,
		service.NewInventory(products), dispatcher)
	reportSvc := service.NewReportService(transactions, users, reportCache)

	r := router.NewAdminEngine(log, jwter, router.AdminHandlers{
		Admin:      handler.NewAdminHandler(userSvc, shopSvc, orderSvc, reportSvc),
		Products:   handler.NewProductHandler(catalogSvc),
		Categories: handler.NewCategoryHandler(catalogSvc),
	})

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	log.Info("admin api starting", zap.String("addr", addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("admin api start FAILED", zap.Error(err))
		}
	}()
	log.Info("admin api started SUCCESS")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("admin api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
