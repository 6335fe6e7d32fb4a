package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

type CartHandler struct {
	shop ports.ShopService
}

func NewCartHandler(shop ports.ShopService) *CartHandler {
	return &CartHandler{shop: shop}
}

// GetCart returns the cart priced with the given number of tickets applied.
//
// @Summary      Current cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Param        tickets  query     int  false  "Tickets to preview against the subtotal"
// @Success      200      {object}  cartResponse
// @Failure      400      {object}  errorResponse
// @Router       /v1/cart [get]
func (h *CartHandler) GetCart(c echo.Context) error {
	accountID, err := ctxAccount(c)
	if err != nil {
		return err
	}

	tickets := 0
	if raw := c.QueryParam("tickets"); raw != "" {
		tickets, err = strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "tickets must be an integer")
		}
	}

	view, err := h.shop.Cart(c.Request().Context(), accountID, tickets)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(view))
}

// AddItem appends a catalog product to the cart as a new line.
//
// @Summary      Add to cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addCartItemRequest  true  "Product and quantity"
// @Success      201   {object}  cartLineResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/cart/items [post]
func (h *CartHandler) AddItem(c echo.Context) error {
	accountID, err := ctxAccount(c)
	if err != nil {
		return err
	}

	var req addCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	line, err := h.shop.AddToCart(c.Request().Context(), accountID, req.ProductID, req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toCartLineResponse(*line))
}

// RemoveItem drops one cart line. Unknown line ids are ignored.
//
// @Summary      Remove cart line
// @Tags         cart
// @Security     BearerAuth
// @Param        line_id  path  string  true  "Cart line id"
// @Success      204
// @Router       /v1/cart/items/{line_id} [delete]
func (h *CartHandler) RemoveItem(c echo.Context) error {
	accountID, err := ctxAccount(c)
	if err != nil {
		return err
	}
	if err := h.shop.RemoveFromCart(c.Request().Context(), accountID, c.Param("line_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Clear empties the cart.
//
// @Summary      Clear cart
// @Tags         cart
// @Security     BearerAuth
// @Success      204
// @Router       /v1/cart [delete]
func (h *CartHandler) Clear(c echo.Context) error {
	accountID, err := ctxAccount(c)
	if err != nil {
		return err
	}
	if err := h.shop.ClearCart(c.Request().Context(), accountID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
