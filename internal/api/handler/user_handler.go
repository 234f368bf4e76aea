package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fidcar/user-service/internal/api/metrics"
	"github.com/fidcar/user-service/internal/core/domain"
	"github.com/fidcar/user-service/internal/core/ports"
)

// UserHandler handles HTTP requests for user-management operations.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// List returns one page of users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "Page number, starting at 1"
// @Success      200   {object}  listUsersResponse
// @Failure      401   {object}  map[string]string
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	page := queryPage(c)

	result, err := h.service.List(c.Request().Context(), page)
	metrics.ObserveOperation("list", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listUsersResponse{
		Items:      result.Items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

// Me returns the account of the authenticated requester.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	requester := ctxRequester(c)

	user, err := h.service.Get(c.Request().Context(), requester, requester.ID)
	metrics.ObserveOperation("get", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Get returns a single user.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.service.Get(c.Request().Context(), ctxRequester(c), c.Param("id"))
	metrics.ObserveOperation("get", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Create registers a new account. New accounts always get the base role.
//
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "New user"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]any
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		metrics.ObserveOperation("create", err)
		return err
	}

	user, err := h.service.Create(c.Request().Context(), ctxRequester(c), req.toInput())
	metrics.ObserveOperation("create", err)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/users/"+user.ID)
	return c.JSON(http.StatusCreated, user)
}

// Update applies a partial edit to a user. The password cannot be changed here.
//
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User ID"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]any
// @Router       /users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		metrics.ObserveOperation("update", err)
		return err
	}

	user, err := h.service.Update(c.Request().Context(), ctxRequester(c), c.Param("id"), req.toInput())
	metrics.ObserveOperation("update", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ChangePassword lets the requester change their own password and names.
// A wrong old password is answered with a warning; the session stays valid.
//
// @Summary      Change own password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Old and new password"
// @Success      200   {object}  changePasswordResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  warningResponse
// @Router       /users/me/password [post]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		metrics.ObserveOperation("change_password", err)
		return err
	}

	result, err := h.service.ChangeOwnPassword(c.Request().Context(), ctxRequester(c), req.toInput())
	metrics.ObserveOperation("change_password", err)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return c.JSON(http.StatusUnprocessableEntity, warningResponse{Warning: "the old password is invalid"})
	}
	if err != nil {
		return err
	}

	msg := "your account has been updated"
	if result.PasswordChanged {
		msg = "your password has been updated"
	}
	return c.JSON(http.StatusOK, changePasswordResponse{
		User:            result.User,
		PasswordChanged: result.PasswordChanged,
		Messages:        []string{msg},
	})
}

// Delete removes a user permanently.
//
// @Summary      Delete user
// @Tags         users
// @Security     BearerAuth
// @Param        id   path  string  true  "User ID"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	err := h.service.Delete(c.Request().Context(), ctxRequester(c), c.Param("id"))
	metrics.ObserveOperation("delete", err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// queryPage reads ?page=, defaulting to 1 when absent or not a number.
func queryPage(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
