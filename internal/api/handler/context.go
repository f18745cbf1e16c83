package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/techpress/publishing-api/internal/api/middleware"
	"github.com/techpress/publishing-api/internal/core/domain"
)

// principal returns the identity resolved by the auth middleware.
func principal(c echo.Context) domain.Principal {
	return middleware.PrincipalFrom(c)
}

// requirePrincipal fails fast with 401 before any service call when the route
// was mounted without Auth.
func requirePrincipal(c echo.Context) (domain.Principal, error) {
	p := principal(c)
	if !p.Authenticated() {
		return p, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return p, nil
}

// requestMeta captures the request attributes stored with audit entries.
func requestMeta(c echo.Context) domain.RequestMeta {
	req := c.Request()
	return domain.RequestMeta{
		Method:    req.Method,
		Path:      req.URL.Path,
		IPAddress: c.RealIP(),
		UserAgent: req.UserAgent(),
	}
}

// queryInt parses an optional integer query parameter. Missing or malformed
// values yield 0 so services apply their defaults.
func queryInt(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return n
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(req)
}
