package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/techpress/publishing-api/internal/pkg/metrics"
)

// Metrics records request latency per registered route.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			// Render the error now so the recorded status is the one sent.
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequestDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
