package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nft-bank-marketplace/internal/logger"
)

// RequestLogger writes one structured line per request.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			kv := []interface{}{
				"method", req.Method,
				"path", c.Path(),
				"uri", req.RequestURI,
				"status", c.Response().Status,
				"latency_ms", time.Since(start).Milliseconds(),
				"ip", c.RealIP(),
				"user", userKey(c),
			}
			switch {
			case c.Response().Status >= 500:
				log.Errorw("request", append(kv, "err", err)...)
			case c.Response().Status >= 400:
				log.Warnw("request", kv...)
			default:
				log.Infow("request", kv...)
			}
			return nil
		}
	}
}
