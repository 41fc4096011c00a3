package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harshal20m/storeratings/internal/auth"
	"github.com/harshal20m/storeratings/pkg/ratings"
)

func newTestRouter(t *testing.T) (*gin.Engine, *auth.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jm, err := auth.NewJWTManager("test-secret", "HS256", time.Hour, "storeratings")
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	m := NewAuthMiddleware(jm, zap.NewNop())
	router := gin.New()
	router.GET("/admin-only", m.RequireAuth(), m.RequireRole(ratings.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/whoami", m.RequireAuth(), func(c *gin.Context) {
		identity, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": identity.ID, "role": identity.Role})
	})
	return router, jm
}

func doRequest(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuthMissingToken(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, "not-a-real-token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireRoleWrongRole(t *testing.T) {
	router, jm := newTestRouter(t)

	token, err := jm.Generate(7, "owner@example.com", ratings.RoleStoreOwner)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	w := doRequest(router, token)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for valid token with wrong role", w.Code)
	}
}

func TestRequireRoleAdminDoesNotSatisfyUserGate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	jm, err := auth.NewJWTManager("test-secret", "HS256", time.Hour, "storeratings")
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}
	m := NewAuthMiddleware(jm, zap.NewNop())
	router := gin.New()
	router.GET("/user-only", m.RequireAuth(), m.RequireRole(ratings.RoleUser), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	token, err := jm.Generate(1, "admin@example.com", ratings.RoleAdmin)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/user-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403: roles are not hierarchical", w.Code)
	}
}

func TestRequireRoleMatch(t *testing.T) {
	router, jm := newTestRouter(t)

	token, err := jm.Generate(3, "admin@example.com", ratings.RoleAdmin)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	w := doRequest(router, token)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestIdentityAttached(t *testing.T) {
	router, jm := newTestRouter(t)

	token, err := jm.Generate(42, "user@example.com", ratings.RoleUser)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, `"id":42`) || !strings.Contains(body, `"role":"user"`) {
		t.Errorf("unexpected body: %s", body)
	}
}
