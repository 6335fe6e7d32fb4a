package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

// AdminHandler serves the account management screens. Routes are mounted
// behind RBAC(domain.RoleAdmin).
type AdminHandler struct {
	accounts ports.AccountService
}

func NewAdminHandler(accounts ports.AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

// ListAccounts
//
// @Summary      List accounts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Account
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/accounts [get]
func (h *AdminHandler) ListAccounts(c echo.Context) error {
	accounts, err := h.accounts.ListAccounts(c.Request().Context())
	if err != nil {
		return err
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return c.JSON(http.StatusOK, accounts)
}

// UpdateAccount edits a student's profile and active flag.
//
// @Summary      Update account
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Account id"
// @Param        body  body      updateAccountRequest  true  "Account fields"
// @Success      200   {object}  domain.Account
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/admin/accounts/{id} [patch]
func (h *AdminHandler) UpdateAccount(c echo.Context) error {
	var req updateAccountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	active := req.Active != nil && *req.Active

	account, err := h.accounts.UpdateAccount(c.Request().Context(), ports.UpdateAccountInput{
		ID:         c.Param("id"),
		Name:       req.Name,
		Email:      req.Email,
		Active:     active,
		ClassGroup: req.ClassGroup,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// SetWallet overwrites the stored balance and/or ticket count. Open sessions
// for the account pick the change up from the wallet feed.
//
// @Summary      Set wallet
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Account id"
// @Param        body  body      setWalletRequest  true  "New values"
// @Success      200   {object}  walletResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/admin/accounts/{id}/wallet [put]
func (h *AdminHandler) SetWallet(c echo.Context) error {
	var req setWalletRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	w, err := h.accounts.SetWallet(c.Request().Context(), ports.SetWalletInput{
		AccountID: c.Param("id"),
		Balance:   req.Balance,
		Tickets:   req.Tickets,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWalletResponse(w))
}
