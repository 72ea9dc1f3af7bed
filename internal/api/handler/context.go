package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/glacierai/auth-service/internal/api/middleware"
	"github.com/glacierai/auth-service/internal/core/domain"
)

// ctxUser returns the user injected by the Auth middleware. A missing user
// means the route was mounted without the middleware; reject with 401.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return user, nil
}
