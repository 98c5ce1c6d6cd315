package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/domain"
	"marketplace-api/internal/service"
	mdw "marketplace-api/internal/transport/http/middleware"
	resp "marketplace-api/internal/transport/http/response"
)

type CategoryHandler struct {
	catalog *service.CatalogService
}

func NewCategoryHandler(catalog *service.CatalogService) *CategoryHandler {
	return &CategoryHandler{catalog: catalog}
}

func (h *CategoryHandler) List(c *gin.Context) {
	items, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(items))
}

func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	cat, err := h.catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(cat))
}

func (h *CategoryHandler) Create(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	var in struct {
		Name string `json:"name" binding:"required,max=64"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	cat := &domain.Category{Name: in.Name}
	if err := h.catalog.CreateCategory(c.Request.Context(), claims, cat); err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(cat))
}

func (h *CategoryHandler) Update(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var in struct {
		Name string `json:"name" binding:"required,max=64"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	if err := h.catalog.UpdateCategory(c.Request.Context(), claims, id, map[string]any{"name": in.Name}); err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"id": id, "name": in.Name}))
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCategory(c.Request.Context(), claims, id); err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"deleted": id}))
}
