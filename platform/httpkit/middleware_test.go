package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type jwtConfigStub struct {
	secret string
}

func (s jwtConfigStub) GetJWTAccessSecret() string { return s.secret }

func newAdminRouter(cfg jwtConfigStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", AuthRequired(cfg), RequireRole(RoleAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, GetIdentity(c).UserID().String())
	})
	return r
}

func TestAuthRequiredAcceptsIssuedAdminToken(t *testing.T) {
	cfg := jwtConfigStub{secret: "test-secret"}
	userID := uuid.New()
	token, err := IssueAccessToken(cfg, userID, []string{RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newAdminRouter(cfg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != userID.String() {
		t.Fatalf("expected user id %s, got %s", userID, rec.Body.String())
	}
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	rec := httptest.NewRecorder()
	newAdminRouter(jwtConfigStub{secret: "s"}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRoleRejectsNonAdmin(t *testing.T) {
	cfg := jwtConfigStub{secret: "test-secret"}
	token, err := IssueAccessToken(cfg, uuid.New(), []string{"sales"}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newAdminRouter(cfg).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequestIDEchoesIncomingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected request id abc-123, got %q", got)
	}
}
