package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"paycall-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

func serve(t *testing.T, userID, role string, handlers ...gin.HandlerFunc) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	chain := []gin.HandlerFunc{func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), userID, role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}}
	chain = append(chain, handlers...)
	chain = append(chain, func(c *gin.Context) { c.Status(200) })
	r.GET("/x", chain...)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w.Code
}

func TestRequireAnyRole_AdminBypasses(t *testing.T) {
	if code := serve(t, "u", RoleAdmin, RequireUser(), RequireAnyRole(RoleAdvertiser)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_DeniesOtherRoles(t *testing.T) {
	if code := serve(t, "u", RoleAnalyst, RequireUser(), RequireAnyRole(RoleAdvertiser)); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_UnknownRoleDenied(t *testing.T) {
	if code := serve(t, "u", "network_operator", RequireAnyRole("network_operator")); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireUser_Missing(t *testing.T) {
	if code := serve(t, "", RoleAdvertiser, RequireUser(), RequireAnyRole(RoleAdvertiser)); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestCanReadAll(t *testing.T) {
	if CanReadAll(RoleAdvertiser) || !CanReadAll(RoleAnalyst) || !CanReadAll(RoleAdmin) {
		t.Fatalf("unexpected read-all matrix")
	}
}
