package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/comphility/backend/internal/service"
	"github.com/comphility/backend/internal/util"
)

// UserHandler serves the admin console's user management.
type UserHandler struct {
	Users *service.UserAdminService
}

func (h *UserHandler) List(c echo.Context) error {
	page := queryIntDefault(c, "page", 1)
	limit := queryIntDefault(c, "limit", util.DefaultPageSize)

	res, err := h.Users.List(c.Request().Context(),
		c.QueryParam("search"), c.QueryParam("role"), page, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users": res.Items,
		"pagination": echo.Map{
			"page":  res.Page,
			"limit": res.Limit,
			"total": res.Total,
			"pages": res.Pages,
		},
	})
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	user, err := h.Users.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

type updateUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

func (h *UserHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.Users.Update(c.Request().Context(), id, req.Name, req.Email, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Users.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}
