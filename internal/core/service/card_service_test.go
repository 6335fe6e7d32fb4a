package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

func TestCardService_AddCard(t *testing.T) {
	repo := &stubCardRepo{}
	svc := NewCardService(repo, zerolog.Nop())

	card, err := svc.AddCard(context.Background(), ports.AddCardInput{
		AccountID:  "acc-1",
		HolderName: "Ana Souza",
		Number:     "4111 1111 1111 1234",
		Expiry:     "09/29",
	})
	if err != nil {
		t.Fatalf("AddCard: %v", err)
	}
	if card.Brand != domain.BrandVisa || card.Last4 != "1234" {
		t.Fatalf("unexpected card: %+v", card)
	}
	if card.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestCardService_AddCard_Validation(t *testing.T) {
	svc := NewCardService(&stubCardRepo{}, zerolog.Nop())

	tests := []ports.AddCardInput{
		{AccountID: "acc-1", HolderName: "", Number: "4111111111111111", Expiry: "01/30"},
		{AccountID: "acc-1", HolderName: "A", Number: "4111-abcd", Expiry: "01/30"},
		{AccountID: "acc-1", HolderName: "A", Number: "4111111111111111", Expiry: "13/30"},
		{AccountID: "acc-1", HolderName: "A", Number: "41111", Expiry: "01/30"},
	}
	for _, in := range tests {
		if _, err := svc.AddCard(context.Background(), in); !errors.Is(err, domain.ErrInvalidCard) {
			t.Fatalf("%+v: expected ErrInvalidCard, got %v", in, err)
		}
	}
}

func TestCardService_ListAndRemove(t *testing.T) {
	repo := &stubCardRepo{}
	svc := NewCardService(repo, zerolog.Nop())
	ctx := context.Background()

	first, _ := svc.AddCard(ctx, ports.AddCardInput{AccountID: "acc-1", HolderName: "A", Number: "5500000000000004", Expiry: "02/28"})
	second, _ := svc.AddCard(ctx, ports.AddCardInput{AccountID: "acc-1", HolderName: "A", Number: "340000000000009", Expiry: "03/28"})
	_, _ = svc.AddCard(ctx, ports.AddCardInput{AccountID: "acc-2", HolderName: "B", Number: "6011000000000004", Expiry: "04/28"})

	cards, err := svc.ListCards(ctx, "acc-1")
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if len(cards) != 2 || cards[0].ID != second.ID {
		t.Fatalf("expected 2 cards newest first, got %+v", cards)
	}

	if err := svc.RemoveCard(ctx, "acc-2", first.ID); !errors.Is(err, domain.ErrCardNotFound) {
		t.Fatalf("removing another account's card: expected ErrCardNotFound, got %v", err)
	}
	if err := svc.RemoveCard(ctx, "acc-1", first.ID); err != nil {
		t.Fatalf("RemoveCard: %v", err)
	}
	cards, _ = svc.ListCards(ctx, "acc-1")
	if len(cards) != 1 {
		t.Fatalf("expected 1 card left, got %d", len(cards))
	}
}
