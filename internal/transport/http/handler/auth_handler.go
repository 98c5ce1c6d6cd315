package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/service"
	mdw "marketplace-api/internal/transport/http/middleware"
	resp "marketplace-api/internal/transport/http/response"
)

type AuthHandler struct {
	users *service.UserService
}

func NewAuthHandler(users *service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

func (h *AuthHandler) Register(c *gin.Context) {
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
	u, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Name:        in.Name,
		Email:       in.Email,
		Password:    in.Password,
		Address:     in.Address,
		PhoneNumber: in.PhoneNumber,
	})
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(u))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var in struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role" binding:"omitempty,oneof=admin seller buyer"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	token, u, err := h.users.Login(c.Request.Context(), in.Email, in.Password, in.Role, 0)
	if err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid credentials"))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"token": token, "user": u}))
}

func (h *AuthHandler) Confirm(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, "missing token"))
		return
	}
	u, err := h.users.ConfirmEmail(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"id": u.ID, "isVerified": u.IsVerified}))
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var in struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	if err := h.users.RequestPasswordReset(c.Request.Context(), in.Email); err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	// same reply whether or not the address exists
	c.JSON(http.StatusOK, resp.OK(gin.H{"sent": true}))
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var in struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=8,max=64"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	if err := h.users.ResetPassword(c.Request.Context(), in.Token, in.Password); err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"reset": true}))
}

func (h *AuthHandler) Me(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)
	u, err := h.users.Get(c.Request.Context(), claims.UID)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(u))
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	claims := mdw.ClaimsFrom(c)

	picture, filename, err := readFormFile(c, "profile_picture")
	if err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	in := service.UpdateProfileInput{Picture: picture, PictureName: filename}
	if v, ok := c.GetPostForm("name"); ok {
		in.Name = &v
	}
	if v, ok := c.GetPostForm("address"); ok {
		in.Address = &v
	}
	if v, ok := c.GetPostForm("phone_number"); ok {
		in.PhoneNumber = &v
	}

	u, err := h.users.UpdateProfile(c.Request.Context(), claims, in)
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(u))
}
