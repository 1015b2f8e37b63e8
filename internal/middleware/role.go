package middleware // role gating on top of JWTAuth

import (
	"net/http" // status codes

	"github.com/labstack/echo/v4" // Echo middleware types
)

// RequireRole allows the request through only when the role claim set by
// JWTAuth matches one of the given roles. It must be registered after
// JWTAuth on the same group.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if _, ok := allowed[role]; !ok {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient role"})
			}
			return next(c)
		}
	}
}
