package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

// errorStatuses maps domain sentinels to HTTP codes. The first match wins, so
// wrapped errors resolve to their innermost known cause.
var errorStatuses = []struct {
	err  error
	code int
}{
	{domain.ErrNotAuthenticated, http.StatusUnauthorized},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrAccountDisabled, http.StatusForbidden},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrAdminImmutable, http.StatusForbidden},
	{domain.ErrInsufficientFunds, http.StatusPaymentRequired},
	{domain.ErrInsufficientTickets, http.StatusPaymentRequired},
	{domain.ErrEmptyCart, http.StatusUnprocessableEntity},
	{domain.ErrInvalidAmount, http.StatusBadRequest},
	{domain.ErrInvalidQuantity, http.StatusBadRequest},
	{domain.ErrInvalidTickets, http.StatusBadRequest},
	{domain.ErrInvalidAccount, http.StatusBadRequest},
	{domain.ErrInvalidCard, http.StatusBadRequest},
	{domain.ErrWalletNotFound, http.StatusNotFound},
	{domain.ErrPurchaseNotFound, http.StatusNotFound},
	{domain.ErrProductNotFound, http.StatusNotFound},
	{domain.ErrCardNotFound, http.StatusNotFound},
	{domain.ErrAccountNotFound, http.StatusNotFound},
	{domain.ErrAccountExists, http.StatusConflict},
	{domain.ErrAccrualNotDue, http.StatusConflict},
	{domain.ErrWalletNotLoaded, http.StatusServiceUnavailable},
	{domain.ErrGatewayUnavailable, http.StatusServiceUnavailable},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, s := range errorStatuses {
		if errors.Is(err, s.err) {
			if s.code >= http.StatusInternalServerError {
				log.Warn().Err(err).Str("path", c.Path()).Msg("dependency unavailable")
			}
			return s.code, s.err.Error()
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
