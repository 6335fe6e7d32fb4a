package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

type WalletHandler struct {
	shop ports.ShopService
}

func NewWalletHandler(shop ports.ShopService) *WalletHandler {
	return &WalletHandler{shop: shop}
}

// GetWallet returns the caller's confirmed balance and ticket count.
//
// @Summary      Current wallet
// @Tags         wallet
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  walletResponse
// @Failure      401  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/wallet [get]
func (h *WalletHandler) GetWallet(c echo.Context) error {
	accountID, err := ctxAccount(c)
	if err != nil {
		return err
	}

	w, err := h.shop.Wallet(c.Request().Context(), accountID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWalletResponse(w))
}

// TopUp credits the caller's balance.
//
// @Summary      Top up balance
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      topUpRequest  true  "Amount to credit"
// @Success      200   {object}  walletResponse
// @Failure      400   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/wallet/top-up [post]
func (h *WalletHandler) TopUp(c echo.Context) error {
	accountID, err := ctxAccount(c)
	if err != nil {
		return err
	}

	var req topUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	w, err := h.shop.TopUp(c.Request().Context(), accountID, req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWalletResponse(w))
}
