package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

func TestHistoryService_NewestFirstWithLines(t *testing.T) {
	repo := newStubPurchaseRepo()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, total := range []string{"3.00", "7.50", "1.25"} {
		id, err := repo.InsertPurchase(ctx, &domain.Purchase{
			AccountID: "acc-1",
			Total:     dec(total),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("InsertPurchase: %v", err)
		}
		_ = repo.InsertPurchaseLines(ctx, []domain.PurchaseLine{{PurchaseID: id, ProductName: "x", Quantity: 1, UnitPrice: dec(total), LineTotal: dec(total)}})
	}
	_, _ = repo.InsertPurchase(ctx, &domain.Purchase{AccountID: "acc-2", Total: dec("9"), CreatedAt: base})

	history, err := NewHistoryService(repo).ListHistory(ctx, "acc-1")
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 purchases, got %d", len(history))
	}
	if !history[0].Total.Equal(dec("1.25")) || !history[2].Total.Equal(dec("3.00")) {
		t.Fatalf("expected newest first, got %s .. %s", history[0].Total, history[2].Total)
	}
	for _, h := range history {
		if len(h.Lines) != 1 || !h.Lines[0].LineTotal.Equal(h.Total) {
			t.Fatalf("purchase %s has wrong lines: %+v", h.ID, h.Lines)
		}
	}
}

func TestHistoryService_Empty(t *testing.T) {
	history, err := NewHistoryService(newStubPurchaseRepo()).ListHistory(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected no purchases, got %d", len(history))
	}
}

func TestHistoryService_Errors(t *testing.T) {
	repo := newStubPurchaseRepo()
	repo.listErr = errStoreDown
	svc := NewHistoryService(repo)

	if _, err := svc.ListHistory(context.Background(), "acc-1"); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := svc.ListHistory(context.Background(), ""); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
