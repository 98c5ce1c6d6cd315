package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/repo"
	"marketplace-api/internal/service"
	mdw "marketplace-api/internal/transport/http/middleware"
	resp "marketplace-api/internal/transport/http/response"
)

type ProductHandler struct {
	catalog *service.CatalogService
}

func NewProductHandler(catalog *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// List is the public catalog endpoint. Products of unverified shops never
// show up here.
func (h *ProductHandler) List(c *gin.Context) {
	q := repo.ListProductsQuery{
		Search: c.Query("search"),
		Sort:   c.DefaultQuery("sort_by", "date"),
		Desc:   strings.EqualFold(c.DefaultQuery("order", "desc"), "desc"),
		Page:   atoiDefault(c.Query("page"), 1),
		Limit:  atoiDefault(c.Query("limit"), 20),
	}
	if v := atoiDefault(c.Query("category_id"), 0); v > 0 {
		q.CategoryID = uint(v)
	}
	if v := atoiDefault(c.Query("shop_id"), 0); v > 0 {
		q.ShopID = uint(v)
	}
	for _, raw := range strings.Split(c.Query("exclude"), ",") {
		if id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64); err == nil && id > 0 {
			q.ExcludeIDs = append(q.ExcludeIDs, uint(id))
		}
	}
	items, total, err := h.catalog.ListProducts(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{
		"items": items,
		"total": total,
		"page":  q.Page,
		"limit": q.Limit,
	}))
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(p))
}

func (h *ProductHandler) BestSellers(c *gin.Context) {
	offset := atoiDefault(c.Query("offset"), 0)
	limit := atoiDefault(c.Query("limit"), 10)
	items, err := h.catalog.BestSellers(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(items))
}

func (h *ProductHandler) Create(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)

	picture, filename, err := readFormFile(c, "product_image")
	if err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	in := service.CreateProductInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		CategoryID:  uint(atoiDefault(c.PostForm("category_id"), 0)),
		Stock:       atoiDefault(c.PostForm("stock"), 0),
		Price:       atoiDefault(c.PostForm("price"), 0),
		Picture:     picture,
		PictureName: filename,
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), claims, in)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(p))
}

func (h *ProductHandler) Update(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	picture, filename, err := readFormFile(c, "product_image")
	if err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	in := service.UpdateProductInput{Picture: picture, PictureName: filename}
	if v, ok := c.GetPostForm("name"); ok {
		in.Name = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		in.Description = &v
	}
	if v, ok := c.GetPostForm("category_id"); ok {
		cid := uint(atoiDefault(v, 0))
		in.CategoryID = &cid
	}
	if v, ok := c.GetPostForm("stock"); ok {
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, "stock must be a number"))
			return
		}
		in.Stock = &n
	}
	if v, ok := c.GetPostForm("price"); ok {
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, "price must be a number"))
			return
		}
		in.Price = &n
	}

	p, err := h.catalog.UpdateProduct(c.Request.Context(), claims, id, in)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(p))
}

func (h *ProductHandler) Delete(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), claims, id); err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"deleted": id}))
}

func (h *ProductHandler) ListPictures(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	pics, err := h.catalog.ListProductPictures(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(pics))
}

func (h *ProductHandler) AddPicture(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	picture, filename, err := readFormFile(c, "picture")
	if err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	pic, err := h.catalog.AddProductPicture(c.Request.Context(), claims, id, picture, filename)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(pic))
}

func (h *ProductHandler) RemovePicture(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	picID, ok := parseUintParam(c, "pictureId")
	if !ok {
		return
	}
	if err := h.catalog.RemoveProductPicture(c.Request.Context(), claims, id, picID); err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"deleted": picID}))
}

// Promote moves a product into the promoted category; the previous category
// is remembered so demotion puts it back.
func (h *ProductHandler) Promote(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var in struct {
		Promote *bool `json:"promote" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	p, err := h.catalog.Promote(c.Request.Context(), claims, id, *in.Promote)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(p))
}
