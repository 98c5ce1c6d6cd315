package main

import (
	"context"
	"errors"
	"fmt"
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
	"marketplace-api/internal/core/config"
	"marketplace-api/internal/core/database"
	"marketplace-api/internal/core/logger"
	"marketplace-api/internal/core/server"
	"marketplace-api/internal/domain"
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

	if cfg.DB.AutoMigrate {
		if err := migrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

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

	r := router.NewAPIEngine(log, jwter, router.APIHandlers{
		Auth:         handler.NewAuthHandler(userSvc),
		Products:     handler.NewProductHandler(catalogSvc),
		Categories:   handler.NewCategoryHandler(catalogSvc),
		Shops:        handler.NewShopHandler(shopSvc),
		Transactions: handler.NewTransactionHandler(orderSvc),
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("storefront api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("storefront api start FAILED", zap.Error(err))
		}
	}()
	log.Info("storefront api started SUCCESS")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("storefront api stopped gracefully")
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Shop{},
		&domain.Category{},
		&domain.Product{},
		&domain.ProductPicture{},
		&domain.Transaction{},
	)
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
