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

// AdminHandlers bundles the back-office handlers mounted by NewAdminEngine.
type AdminHandlers struct {
	Admin      *handler.AdminHandler
	Products   *handler.ProductHandler
	Categories *handler.CategoryHandler
}

func NewAdminEngine(l *zap.Logger, jwter *auth.JWTer, h AdminHandlers) *gin.Engine {
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

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(jwter, domain.RoleAdmin))

	admin.GET("/users", h.Admin.ListUsers)
	admin.DELETE("/users/:id", h.Admin.BanUser)
	admin.POST("/admins", h.Admin.CreateAdmin)

	admin.GET("/shops", h.Admin.ListShops)
	admin.POST("/shops/:id/verify", h.Admin.VerifyShop)
	admin.DELETE("/shops/:id", h.Admin.DeleteShop)

	admin.POST("/categories", h.Categories.Create)
	admin.PATCH("/categories/:id", h.Categories.Update)
	admin.DELETE("/categories/:id", h.Categories.Delete)

	admin.POST("/products/:id/promote", h.Products.Promote)

	admin.DELETE("/transactions/:id", h.Admin.DeleteTransaction)

	admin.GET("/reports/transactions/count", h.Admin.TransactionsCountReport)
	admin.GET("/reports/transactions/total", h.Admin.TransactionsTotalReport)
	admin.GET("/reports/users/count", h.Admin.UsersCountReport)

	return r
}
