package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the numeric id JWTAuth stored in the context.  The claim
// arrives as float64 from the token but tests and other middleware may
// set any integer type or a decimal string.
func UserID(c echo.Context) (uint64, bool) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, t != 0
	case int:
		return uint64(t), t > 0
	case int64:
		return uint64(t), t > 0
	case float64:
		return uint64(t), t > 0
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, n != 0
		}
	}
	return 0, false
}

// userKey is the identity used in rate limit keys; "anon" when no user is
// authenticated.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
