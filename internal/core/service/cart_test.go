package service

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

func product(id, price string) domain.Product {
	return domain.Product{ID: id, Name: "product " + id, Price: dec(price)}
}

func TestCart_AddItem(t *testing.T) {
	c := NewCart()

	first, err := c.AddItem(product("p1", "4.50"), 2)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	second, err := c.AddItem(product("p1", "4.50"), 1)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if first.LineID == "" || first.LineID == second.LineID {
		t.Fatalf("expected distinct line ids, got %q and %q", first.LineID, second.LineID)
	}
	if c.Len() != 2 {
		t.Fatalf("same product added twice should give two lines, got %d", c.Len())
	}
	if got := c.Subtotal(); !got.Equal(dec("13.50")) {
		t.Fatalf("expected subtotal 13.50, got %s", got)
	}
}

func TestCart_AddItem_InvalidQuantity(t *testing.T) {
	c := NewCart()
	for _, q := range []int{0, -1} {
		if _, err := c.AddItem(product("p1", "1"), q); !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Fatalf("quantity %d: expected ErrInvalidQuantity, got %v", q, err)
		}
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cart, got %d lines", c.Len())
	}
}

func TestCart_RemoveItem_UnknownIsNoop(t *testing.T) {
	c := NewCart()
	line, _ := c.AddItem(product("p1", "2"), 1)

	if c.RemoveItem("missing") {
		t.Fatal("removing an unknown id reported success")
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 line, got %d", c.Len())
	}
	if !c.RemoveItem(line.LineID) {
		t.Fatal("expected removal to succeed")
	}
	if c.RemoveItem(line.LineID) {
		t.Fatal("removing twice reported success")
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cart, got %d", c.Len())
	}
}

func TestCart_LineCountTracksAddsAndRemoves(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		c := NewCart()
		var ids []string
		adds, removes := 0, 0

		for op := 0; op < 40; op++ {
			switch rng.Intn(3) {
			case 0, 1:
				l, err := c.AddItem(product("p", "1.25"), 1+rng.Intn(3))
				if err != nil {
					t.Fatalf("AddItem: %v", err)
				}
				ids = append(ids, l.LineID)
				adds++
			default:
				id := "unknown"
				if len(ids) > 0 && rng.Intn(4) > 0 {
					id = ids[rng.Intn(len(ids))]
				}
				if c.RemoveItem(id) {
					removes++
				}
			}
		}
		if c.Len() != adds-removes {
			t.Fatalf("round %d: expected %d lines, got %d", round, adds-removes, c.Len())
		}
	}
}

func TestCart_Clear(t *testing.T) {
	c := NewCart()
	_, _ = c.AddItem(product("p1", "1"), 1)
	_, _ = c.AddItem(product("p2", "2"), 1)

	c.Clear()
	if c.Len() != 0 || !c.Subtotal().IsZero() {
		t.Fatalf("expected empty cart after Clear, got %d lines", c.Len())
	}
}

func TestCart_ComputeTotal(t *testing.T) {
	c := NewCart()
	_, _ = c.AddItem(product("p1", "60.00"), 1)
	_, _ = c.AddItem(product("p2", "20.00"), 2)
	policy := domain.PercentPerTicket(dec("5"))

	tests := []struct {
		tickets int
		want    string
	}{
		{0, "100.00"},
		{2, "90.00"},
		{-3, "100.00"},
		{20, "0"},
		{500, "0"},
	}
	for _, tt := range tests {
		if got := c.ComputeTotal(policy, tt.tickets); !got.Equal(dec(tt.want)) {
			t.Errorf("ComputeTotal(%d) = %s, want %s", tt.tickets, got, tt.want)
		}
	}
}

func TestCart_ComputeTotal_ClampsPolicy(t *testing.T) {
	c := NewCart()
	_, _ = c.AddItem(product("p1", "10.00"), 1)

	negative := func(_ decimal.Decimal, _ int) decimal.Decimal { return dec("-3") }
	if got := c.ComputeTotal(negative, 1); !got.IsZero() {
		t.Fatalf("expected clamp to zero, got %s", got)
	}
	inflating := func(sub decimal.Decimal, _ int) decimal.Decimal { return sub.Mul(dec("2")) }
	if got := c.ComputeTotal(inflating, 1); !got.Equal(dec("10.00")) {
		t.Fatalf("expected clamp to subtotal, got %s", got)
	}
	if got := c.ComputeTotal(nil, 3); !got.Equal(dec("10.00")) {
		t.Fatalf("nil policy should not discount, got %s", got)
	}
}
