package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/core/auth"
	resp "marketplace-api/internal/transport/http/response"
)

const keyClaims = "claims"

// AuthJWT authenticates the bearer token and, when roles are given, requires
// one of them.
func AuthJWT(j *auth.JWTer, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.ParseFor(strings.TrimPrefix(ah, "Bearer "), auth.PurposeAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if err := auth.Authorize(claims, roles...); err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set(keyClaims, claims)
		c.Next()
	}
}

// ClaimsFrom pulls the authenticated principal out of the context.
func ClaimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(keyClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
