package service

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

// CartSnapshot is a consistent view of a cart priced under a discount policy.
type CartSnapshot struct {
	Lines           []domain.CartLine
	Subtotal        decimal.Decimal
	TicketsRedeemed int
	Total           decimal.Decimal
}

// Cart is an in-memory, per-session list of lines. Lines keep insertion
// order and are never persisted; checkout turns them into purchase lines.
type Cart struct {
	mu        sync.Mutex
	lines     []domain.CartLine
	newLineID func() string
}

func NewCart() *Cart {
	return &Cart{newLineID: uuid.NewString}
}

// AddItem appends a line for product. Adding the same product twice yields
// two independent lines.
func (c *Cart) AddItem(p domain.Product, quantity int) (domain.CartLine, error) {
	if quantity < 1 {
		return domain.CartLine{}, domain.ErrInvalidQuantity
	}
	if p.Price.IsNegative() {
		return domain.CartLine{}, domain.ErrInvalidAmount
	}

	line := domain.CartLine{
		LineID:      c.newLineID(),
		ProductID:   p.ID,
		ProductName: p.Name,
		UnitPrice:   p.Price,
		Quantity:    quantity,
	}

	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
	return line, nil
}

// RemoveItem drops the line with lineID. Unknown ids are a no-op; the
// return value reports whether a line was removed.
func (c *Cart) RemoveItem(lineID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, l := range c.lines {
		if l.LineID == lineID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

// Lines returns a copy of the current lines.
func (c *Cart) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return subtotal(c.lines)
}

// ComputeTotal prices the cart under policy for the given number of redeemed
// tickets. The result is clamped to [0, subtotal].
func (c *Cart) ComputeTotal(policy domain.DiscountPolicy, ticketsRedeemed int) decimal.Decimal {
	return c.Snapshot(policy, ticketsRedeemed).Total
}

// Snapshot prices the cart and copies its lines under one lock, so lines and
// totals always describe the same cart.
func (c *Cart) Snapshot(policy domain.DiscountPolicy, ticketsRedeemed int) CartSnapshot {
	if policy == nil {
		policy = domain.NoDiscount
	}

	c.mu.Lock()
	lines := make([]domain.CartLine, len(c.lines))
	copy(lines, c.lines)
	c.mu.Unlock()

	sub := subtotal(lines)
	total := policy(sub, ticketsRedeemed)
	if total.IsNegative() {
		total = decimal.Zero
	}
	if total.GreaterThan(sub) {
		total = sub
	}
	return CartSnapshot{
		Lines:           lines,
		Subtotal:        sub,
		TicketsRedeemed: ticketsRedeemed,
		Total:           total,
	}
}

func subtotal(lines []domain.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Gross())
	}
	return sum
}
