package dto

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/cart"
)

// CartView is the public shape of a cart snapshot.
type CartView struct {
	Items         []LineItemView  `json:"items"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Open          bool            `json:"open"`
}

type LineItemView struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type QuantityView struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddItemRequest adds a catalog product. Quantity defaults to 1.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,gte=1,lte=99"`
}

func FromState(state cart.State) CartView {
	items := make([]LineItemView, 0, len(state.Items))
	for _, item := range state.Items {
		items = append(items, LineItemView{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Image:    item.Image,
			Quantity: item.Quantity,
			Subtotal: item.Subtotal(),
		})
	}
	return CartView{
		Items:         items,
		TotalQuantity: state.TotalQuantity(),
		TotalPrice:    state.TotalPrice(),
		Open:          state.Open,
	}
}
