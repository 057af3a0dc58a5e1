package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// StorageName is the key the cart is persisted under within a browser session.
const StorageName = "cart"

// ErrPersistenceRead marks stored cart data that cannot be used. Hydration
// recovers from it by starting with an empty cart.
var ErrPersistenceRead = errors.New("cart: stored state unreadable")

type record struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Image    string      `json:"image"`
	Quantity int         `json:"quantity"`
}

// Encode writes items as a JSON array in cart order. Prices are JSON numbers.
func Encode(items []LineItem) ([]byte, error) {
	records := make([]record, 0, len(items))
	for _, item := range items {
		records = append(records, record{
			ID:       item.ID,
			Name:     item.Name,
			Price:    json.Number(item.Price.String()),
			Image:    item.Image,
			Quantity: item.Quantity,
		})
	}
	return json.Marshal(records)
}

// Decode parses stored cart data. Any malformed input or record breaking the
// cart rules yields an error wrapping ErrPersistenceRead.
func Decode(data []byte) ([]LineItem, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceRead, err)
	}

	items := make([]LineItem, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		if rec.ID == "" {
			return nil, fmt.Errorf("%w: record %d has no id", ErrPersistenceRead, i)
		}
		if _, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrPersistenceRead, rec.ID)
		}
		seen[rec.ID] = struct{}{}

		if rec.Quantity < 1 {
			return nil, fmt.Errorf("%w: id %q has quantity %d", ErrPersistenceRead, rec.ID, rec.Quantity)
		}
		price, err := decimal.NewFromString(rec.Price.String())
		if err != nil {
			return nil, fmt.Errorf("%w: id %q price: %v", ErrPersistenceRead, rec.ID, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("%w: id %q has negative price", ErrPersistenceRead, rec.ID)
		}

		items = append(items, LineItem{
			ID:       rec.ID,
			Name:     rec.Name,
			Price:    price,
			Image:    rec.Image,
			Quantity: rec.Quantity,
		})
	}
	return items, nil
}
