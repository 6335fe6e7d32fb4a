package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

type HistoryHandler struct {
	history ports.HistoryService
}

func NewHistoryHandler(history ports.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// List returns the caller's purchases, newest first, with their lines.
//
// @Summary      Purchase history
// @Tags         purchases
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   purchaseResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/purchases [get]
func (h *HistoryHandler) List(c echo.Context) error {
	accountID, err := ctxAccount(c)
	if err != nil {
		return err
	}

	purchases, err := h.history.ListHistory(c.Request().Context(), accountID)
	if err != nil {
		return err
	}

	resp := make([]purchaseResponse, len(purchases))
	for i, p := range purchases {
		resp[i] = toPurchaseResponse(p)
	}
	return c.JSON(http.StatusOK, resp)
}
