package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/repo"
	"marketplace-api/internal/service"
	mdw "marketplace-api/internal/transport/http/middleware"
	resp "marketplace-api/internal/transport/http/response"
)

type ShopHandler struct {
	shops *service.ShopService
}

func NewShopHandler(shops *service.ShopService) *ShopHandler {
	return &ShopHandler{shops: shops}
}

func (h *ShopHandler) List(c *gin.Context) {
	q := repo.ListShopsQuery{
		Search:       c.Query("search"),
		VerifiedOnly: true,
		Offset:       atoiDefault(c.Query("offset"), 0),
		Limit:        atoiDefault(c.Query("limit"), 20),
	}
	items, total, err := h.shops.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"items": items, "total": total}))
}

func (h *ShopHandler) Get(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	shop, err := h.shops.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(shop))
}

// Mine returns the caller's own shop, verified or not.
func (h *ShopHandler) Mine(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	shop, err := h.shops.GetByOwner(c.Request.Context(), claims.UID)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(shop))
}

func (h *ShopHandler) Create(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)

	picture, filename, err := readFormFile(c, "shop_image")
	if err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	in := service.CreateShopInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		OpenedAt:    c.PostForm("opened_at"),
		ClosedAt:    c.PostForm("closed_at"),
		NIB:         c.PostForm("nib"),
		Picture:     picture,
		PictureName: filename,
	}
	shop, err := h.shops.Register(c.Request.Context(), claims, in)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(shop))
}

func (h *ShopHandler) Update(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	picture, filename, err := readFormFile(c, "shop_image")
	if err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	in := service.UpdateShopInput{Picture: picture, PictureName: filename}
	if v, ok := c.GetPostForm("name"); ok {
		in.Name = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		in.Description = &v
	}
	if v, ok := c.GetPostForm("is_open"); ok {
		open := v == "true" || v == "1"
		in.IsOpen = &open
	}
	if v, ok := c.GetPostForm("opened_at"); ok {
		in.OpenedAt = &v
	}
	if v, ok := c.GetPostForm("closed_at"); ok {
		in.ClosedAt = &v
	}
	if v, ok := c.GetPostForm("nib"); ok {
		in.NIB = &v
	}

	shop, err := h.shops.Update(c.Request.Context(), claims, id, in)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(shop))
}
