package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

func invokeRBAC(mw echo.MiddlewareFunc, role string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set("role", role)
	}

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	_ = mw(next)(c)
	return rec
}

func TestRBAC_AllowedRolePasses(t *testing.T) {
	mw := RBAC(domain.RoleAdmin, domain.RoleManager)

	for _, role := range []string{"Admin", "Manager"} {
		rec := invokeRBAC(mw, role)
		if rec.Code != http.StatusOK {
			t.Errorf("role %s: status = %d, want %d", role, rec.Code, http.StatusOK)
		}
	}
}

func TestRBAC_DisallowedRoleForbidden(t *testing.T) {
	mw := RBAC(domain.RoleAdmin)

	for _, role := range []string{"Manager", "Viewer", "Superuser"} {
		rec := invokeRBAC(mw, role)
		if rec.Code != http.StatusForbidden {
			t.Errorf("role %s: status = %d, want %d", role, rec.Code, http.StatusForbidden)
		}
	}
}

func TestRBAC_MissingRoleForbidden(t *testing.T) {
	rec := invokeRBAC(RBAC(domain.RoleAdmin), "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
