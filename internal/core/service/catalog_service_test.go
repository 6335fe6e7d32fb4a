package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

func TestCatalogService_SeedIfEmpty(t *testing.T) {
	repo := &stubProductRepo{}
	svc := NewCatalogService(repo, zerolog.Nop())
	seed := []domain.Product{
		{ID: "1", Name: "Coxinha", Price: dec("5.00")},
		{ID: "2", Name: "Suco", Price: dec("4.00")},
	}

	seeded, err := svc.SeedIfEmpty(context.Background(), seed)
	if err != nil {
		t.Fatalf("SeedIfEmpty: %v", err)
	}
	if !seeded || repo.inserted != 2 {
		t.Fatalf("expected 2 products seeded, got seeded=%v inserted=%d", seeded, repo.inserted)
	}
	if repo.products[1].Position != 2 {
		t.Fatalf("expected positions assigned in order, got %d", repo.products[1].Position)
	}

	seeded, err = svc.SeedIfEmpty(context.Background(), seed)
	if err != nil {
		t.Fatalf("second SeedIfEmpty: %v", err)
	}
	if seeded || repo.inserted != 2 {
		t.Fatalf("non-empty catalog was seeded again")
	}
}

func TestCatalogService_SeedIfEmpty_CountError(t *testing.T) {
	repo := &stubProductRepo{countErr: errStoreDown}
	svc := NewCatalogService(repo, zerolog.Nop())

	if _, err := svc.SeedIfEmpty(context.Background(), []domain.Product{{ID: "1"}}); err == nil {
		t.Fatal("expected error")
	}
}
