package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"marketplace-api/internal/core/auth"
)

func testEngines(t *testing.T) (*gin.Engine, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: time.Hour}
	return NewAPIEngine(zap.NewNop(), jwter, APIHandlers{}),
		NewAdminEngine(zap.NewNop(), jwter, AdminHandlers{})
}

func TestCORSPreflight(t *testing.T) {
	api, admin := testEngines(t)
	for name, e := range map[string]*gin.Engine{"api": api, "admin": admin} {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
		req.Header.Set("Origin", "http://storefront.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		e.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("%s preflight status = %d, want %d", name, w.Code, http.StatusNoContent)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("%s Access-Control-Allow-Origin = %q, want *", name, got)
		}
	}
}

func TestCORSHeaderOnSimpleRequest(t *testing.T) {
	api, _ := testEngines(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://storefront.example")
	w := httptest.NewRecorder()
	api.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
