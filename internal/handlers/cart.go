package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/comphility/backend/internal/middleware/auth"
	"github.com/comphility/backend/internal/service"
)

type CartHandler struct {
	Cart *service.CartService
}

func (h *CartHandler) GetCart(c echo.Context) error {
	lines, err := h.Cart.GetCart(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"cart": lines})
}

type addItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  uint `json:"quantity"`
}

func (h *CartHandler) AddItem(c echo.Context) error {
	var req addItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	lines, err := h.Cart.AddItem(c.Request().Context(), auth.UserID(c), req.ProductID, req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Item added to cart",
		"cart":    lines,
	})
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	lineID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req updateItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.Cart.UpdateItem(c.Request().Context(), auth.UserID(c), lineID, req.Quantity); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Cart updated successfully"})
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	lineID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Cart.RemoveItem(c.Request().Context(), auth.UserID(c), lineID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Item removed from cart"})
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	if err := h.Cart.ClearCart(c.Request().Context(), auth.UserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Cart cleared successfully"})
}
