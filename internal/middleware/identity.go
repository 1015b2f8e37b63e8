package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// callerID returns a stable identifier for the authenticated caller, or
// "anon" when the request carries no identity. Used for rate-limit keys.
func callerID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	}
	return "anon"
}
