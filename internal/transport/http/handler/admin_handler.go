package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/repo"
	"marketplace-api/internal/service"
	mdw "marketplace-api/internal/transport/http/middleware"
	resp "marketplace-api/internal/transport/http/response"
)

// AdminHandler serves the back-office surface: user administration, shop
// verification, reports and transaction cleanup. Routes mounting it must sit
// behind the admin-role middleware; the services re-check on top.
type AdminHandler struct {
	users   *service.UserService
	shops   *service.ShopService
	orders  *service.OrderService
	reports *service.ReportService
}

func NewAdminHandler(users *service.UserService, shops *service.ShopService, orders *service.OrderService, reports *service.ReportService) *AdminHandler {
	return &AdminHandler{users: users, shops: shops, orders: orders, reports: reports}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	q := repo.ListUsersQuery{
		Search:      c.Query("search"),
		Role:        c.Query("role"),
		WithDeleted: c.Query("with_deleted") == "true",
		Offset:      atoiDefault(c.Query("offset"), 0),
		Limit:       atoiDefault(c.Query("limit"), 20),
	}
	items, total, err := h.users.ListUsers(c.Request.Context(), claims, q)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"items": items, "total": total}))
}

// CreateAdmin provisions another back-office account.
func (h *AdminHandler) CreateAdmin(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	var in struct {
		Name        string `json:"name" binding:"required,max=64"`
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required,min=8,max=64"`
		Address     string `json:"address" binding:"omitempty,max=255"`
		PhoneNumber string `json:"phoneNumber" binding:"omitempty,max=32"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	u, err := h.users.CreateAdmin(c.Request.Context(), claims, service.RegisterInput{
		Name: in.Name, Email: in.Email, Password: in.Password,
		Address: in.Address, PhoneNumber: in.PhoneNumber,
	})
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(u))
}

func (h *AdminHandler) BanUser(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.users.Ban(c.Request.Context(), claims, id); err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"banned": id}))
}

// ListShops shows pending shops by default so verification work is one
// query away.
func (h *AdminHandler) ListShops(c *gin.Context) {
	q := repo.ListShopsQuery{
		Search:         c.Query("search"),
		UnverifiedOnly: c.DefaultQuery("pending", "true") == "true",
		Offset:         atoiDefault(c.Query("offset"), 0),
		Limit:          atoiDefault(c.Query("limit"), 20),
	}
	items, total, err := h.shops.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"items": items, "total": total}))
}

func (h *AdminHandler) VerifyShop(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	shop, err := h.shops.Verify(c.Request.Context(), claims, id)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(shop))
}

func (h *AdminHandler) DeleteShop(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.shops.Remove(c.Request.Context(), claims, id); err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"deleted": id}))
}

func (h *AdminHandler) DeleteTransaction(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.orders.Remove(c.Request.Context(), claims, id); err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"deleted": id}))
}

// reportDate reads ?date=YYYY-MM-DD, defaulting to today.
func reportDate(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return time.Now(), true
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, "date must be YYYY-MM-DD"))
		return time.Time{}, false
	}
	return d, true
}

func (h *AdminHandler) TransactionsCountReport(c *gin.Context) {
	date, ok := reportDate(c)
	if !ok {
		return
	}
	rep, err := h.reports.TransactionsCount(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(rep))
}

func (h *AdminHandler) TransactionsTotalReport(c *gin.Context) {
	date, ok := reportDate(c)
	if !ok {
		return
	}
	rep, err := h.reports.TransactionsTotal(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(rep))
}

func (h *AdminHandler) UsersCountReport(c *gin.Context) {
	date, ok := reportDate(c)
	if !ok {
		return
	}
	rep, err := h.reports.UsersCount(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(rep))
}
