package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

type CardHandler struct {
	cards ports.CardService
}

func NewCardHandler(cards ports.CardService) *CardHandler {
	return &CardHandler{cards: cards}
}

// List returns the caller's saved cards. Only brand and last four digits are
// ever stored.
//
// @Summary      Saved cards
// @Tags         cards
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Card
// @Router       /v1/cards [get]
func (h *CardHandler) List(c echo.Context) error {
	accountID, err := ctxAccount(c)
	if err != nil {
		return err
	}

	cards, err := h.cards.ListCards(c.Request().Context(), accountID)
	if err != nil {
		return err
	}
	if cards == nil {
		cards = []domain.Card{}
	}
	return c.JSON(http.StatusOK, cards)
}

// Add saves a card.
//
// @Summary      Save card
// @Tags         cards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addCardRequest  true  "Card details"
// @Success      201   {object}  domain.Card
// @Failure      400   {object}  errorResponse
// @Router       /v1/cards [post]
func (h *CardHandler) Add(c echo.Context) error {
	accountID, err := ctxAccount(c)
	if err != nil {
		return err
	}

	var req addCardRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	card, err := h.cards.AddCard(c.Request().Context(), ports.AddCardInput{
		AccountID:  accountID,
		HolderName: req.HolderName,
		Number:     req.Number,
		Expiry:     req.Expiry,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, card)
}

// Remove deletes one of the caller's cards.
//
// @Summary      Delete card
// @Tags         cards
// @Security     BearerAuth
// @Param        id   path  string  true  "Card id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/cards/{id} [delete]
func (h *CardHandler) Remove(c echo.Context) error {
	accountID, err := ctxAccount(c)
	if err != nil {
		return err
	}
	if err := h.cards.RemoveCard(c.Request().Context(), accountID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
