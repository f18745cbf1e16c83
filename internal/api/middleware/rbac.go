package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/techpress/publishing-api/internal/core/domain"
)

// RequireRoles enforces role-based access control. It must run after Auth or
// OptionalAuth; an anonymous principal is rejected with 401.
func RequireRoles(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if !p.Authenticated() {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if _, ok := allowed[p.Role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
			}
			return next(c)
		}
	}
}
