package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// ctxRole extracts the role claim injected by the Auth middleware. An absent
// or foreign value comes back as the empty Role, which carries no privilege.
func ctxRole(c echo.Context) domain.Role {
	role, _ := c.Get("role").(string)
	return domain.Role(role)
}
