package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"marketplace-api/internal/core/auth"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/transport/http/handler"
	mdw "marketplace-api/internal/transport/http/middleware"
)

// APIHandlers bundles the storefront handlers mounted by NewAPIEngine.
type APIHandlers struct {
	Auth         *handler.AuthHandler
	Products     *handler.ProductHandler
	Categories   *handler.CategoryHandler
	Shops        *handler.ShopHandler
	Transactions *handler.TransactionHandler
}

func NewAPIEngine(l *zap.Logger, jwter *auth.JWTer, h APIHandlers) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		cors.Default(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	// public surface: credentials and the browsable catalog
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/auth/confirm", h.Auth.Confirm)
	api.POST("/auth/forgot-password", h.Auth.ForgotPassword)
	api.POST("/auth/reset-password", h.Auth.ResetPassword)

	api.GET("/products", h.Products.List)
	api.GET("/products/best-sellers", h.Products.BestSellers)
	api.GET("/products/:id", h.Products.Get)
	api.GET("/products/:id/pictures", h.Products.ListPictures)
	api.GET("/categories", h.Categories.List)
	api.GET("/categories/:id", h.Categories.Get)
	api.GET("/shops", h.Shops.List)
	api.GET("/shops/:id", h.Shops.Get)

	// any signed-in account
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(jwter))
	authed.GET("/me", h.Auth.Me)
	authed.PATCH("/me", h.Auth.UpdateProfile)
	authed.POST("/shops", h.Shops.Create)
	authed.GET("/shops/mine", h.Shops.Mine)
	authed.PATCH("/shops/:id", h.Shops.Update)

	authed.POST("/transactions", h.Transactions.Create)
	authed.GET("/transactions", h.Transactions.List)
	authed.GET("/transactions/:id", h.Transactions.Get)
	authed.PATCH("/transactions/:id/status", h.Transactions.UpdateStatus)
	authed.POST("/transactions/:id/cancel", h.Transactions.Cancel)

	// catalog writes need the seller role (admins pass too)
	selling := api.Group("")
	selling.Use(mdw.AuthJWT(jwter, domain.RoleSeller, domain.RoleAdmin))
	selling.POST("/products", h.Products.Create)
	selling.PATCH("/products/:id", h.Products.Update)
	selling.DELETE("/products/:id", h.Products.Delete)
	selling.POST("/products/:id/pictures", h.Products.AddPicture)
	selling.DELETE("/products/:id/pictures/:pictureId", h.Products.RemovePicture)

	return r
}
