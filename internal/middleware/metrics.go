package middleware

import (
	"time"

	"contact-service/prometheus"

	"github.com/labstack/echo/v4"
)

// MetricsMiddleware records the count and latency of every request by route
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)

		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		prometheus.RecordHTTPRequest(c.Request().Method, path, c.Response().Status, time.Since(start))

		return err
	}
}
