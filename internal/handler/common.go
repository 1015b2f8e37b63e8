package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getUserID extracts the authenticated user's ID from the Echo context. The
// JWT middleware stores the raw "sub" claim, which arrives as a float64
// after JSON decoding; strings are tolerated for robustness.
func getUserID(c echo.Context) (uint64, error) {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v), nil
	case uint64:
		return v, nil
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		if err == nil {
			return id, nil
		}
	}
	return 0, errors.New("no user in context")
}

// pathID parses the :id path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
