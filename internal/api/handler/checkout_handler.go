package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

// HeaderIdempotencyKey lets a client retry a checkout without paying twice.
const HeaderIdempotencyKey = "Idempotency-Key"

type CheckoutHandler struct {
	shop ports.ShopService
}

func NewCheckoutHandler(shop ports.ShopService) *CheckoutHandler {
	return &CheckoutHandler{shop: shop}
}

// Checkout pays for the cart from the wallet, redeeming the requested tickets.
// A retry carrying the same Idempotency-Key returns the original receipt with
// 200 instead of 201.
//
// @Summary      Checkout
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string           false  "Client retry key"
// @Param        body             body      checkoutRequest  true   "Tickets to redeem"
// @Success      201              {object}  checkoutResponse
// @Success      200              {object}  checkoutResponse
// @Failure      400              {object}  errorResponse
// @Failure      402              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Failure      503              {object}  errorResponse
// @Router       /v1/checkout [post]
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	accountID, err := ctxAccount(c)
	if err != nil {
		return err
	}

	// An empty body redeems no tickets.
	var req checkoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.shop.Checkout(c.Request().Context(), ports.CheckoutInput{
		AccountID:       accountID,
		TicketsToRedeem: req.TicketsToRedeem,
		IdempotencyKey:  c.Request().Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	return c.JSON(status, checkoutResponse{
		Receipt:  result.Receipt,
		Token:    result.Token,
		Replayed: result.Replayed,
	})
}
