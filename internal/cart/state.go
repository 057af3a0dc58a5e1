package cart

import (
	"github.com/shopspring/decimal"
)

// LineItem is one product in the cart. Quantity is always at least 1.
type LineItem struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Image    string
	Quantity int
}

// Subtotal is Price × Quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ItemInput describes a product being added; the store assigns the quantity.
type ItemInput struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Image string
}

// State is an immutable snapshot of a cart.
type State struct {
	Items []LineItem
	Open  bool
}

func (s State) TotalQuantity() int {
	return totalQuantity(s.Items)
}

func (s State) TotalPrice() decimal.Decimal {
	return totalPrice(s.Items)
}

func (s State) QuantityOf(id string) int {
	if i := indexOf(s.Items, id); i >= 0 {
		return s.Items[i].Quantity
	}
	return 0
}

func totalQuantity(items []LineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

func totalPrice(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func indexOf(items []LineItem, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
