package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/domain"
	"marketplace-api/internal/service"
	mdw "marketplace-api/internal/transport/http/middleware"
	resp "marketplace-api/internal/transport/http/response"
)

type TransactionHandler struct {
	orders *service.OrderService
}

func NewTransactionHandler(orders *service.OrderService) *TransactionHandler {
	return &TransactionHandler{orders: orders}
}

func (h *TransactionHandler) Create(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	var in struct {
		ProductID uint `json:"productId" binding:"required"`
		Quantity  int  `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	t, err := h.orders.PlaceOrder(c.Request.Context(), claims.UID, in.ProductID, in.Quantity)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(t))
}

// List is scoped by the caller's role: buyers see their purchases, sellers
// their shop's orders, admins everything.
func (h *TransactionHandler) List(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	var status domain.Status
	if raw := c.Query("status"); raw != "" {
		s, err := domain.ParseStatus(raw)
		if err != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
			return
		}
		status = s
	}
	items, total, err := h.orders.List(c.Request.Context(), claims, status,
		atoiDefault(c.Query("offset"), 0), atoiDefault(c.Query("limit"), 20))
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"items": items, "total": total}))
}

func (h *TransactionHandler) Get(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	t, err := h.orders.Get(c.Request.Context(), claims, id)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(t))
}

func (h *TransactionHandler) UpdateStatus(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var in struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	next, err := domain.ParseStatus(in.Status)
	if err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	t, err := h.orders.UpdateStatus(c.Request.Context(), claims, id, next)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(t))
}

func (h *TransactionHandler) Cancel(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	t, err := h.orders.Cancel(c.Request.Context(), claims, id)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(t))
}
