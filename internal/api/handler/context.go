package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/fidcar/user-service/internal/api/middleware"
	"github.com/fidcar/user-service/internal/core/domain"
)

// ctxRequester builds the requester identity from the claims injected by the
// Auth middleware. Without a user id the requester is anonymous, and the
// service layer rejects it.
func ctxRequester(c echo.Context) domain.Requester {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	if userID == "" {
		return domain.Requester{}
	}
	email, _ := c.Get(middleware.CtxEmail).(string)
	roles, _ := c.Get(middleware.CtxRoles).([]string)

	return domain.Requester{
		ID:            userID,
		Email:         email,
		Roles:         roles,
		Authenticated: true,
	}
}
