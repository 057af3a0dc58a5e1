package cart

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func TestEncodeKeepsNumericPrices(t *testing.T) {
	in := []LineItem{
		{ID: "5", Name: "T-Shirt", Price: decimal.RequireFromString("34.99"), Image: "i", Quantity: 1},
		{ID: "8", Name: "Card Holder", Price: decimal.RequireFromString("29.90"), Image: "j", Quantity: 4},
		{ID: "1", Name: "Watch", Price: decimal.RequireFromString("249.99"), Image: "k", Quantity: 2},
	}
	raw, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `[{"id":"5","name":"T-Shirt","price":34.99,"image":"i","quantity":1},{"id":"8","name":"Card Holder","price":29.9,"image":"j","quantity":4},{"id":"1","name":"Watch","price":249.99,"image":"k","quantity":2}]`
	if string(raw) != want {
		t.Fatalf("unexpected payload\nwant %s\ngot  %s", want, raw)
	}

	items, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(in, items, cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	if total := totalPrice(items); !total.Equal(decimal.RequireFromString("654.57")) {
		t.Fatalf("unexpected total %s", total)
	}
}

func TestEncodeEmpty(t *testing.T) {
	raw, err := Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("expected [], got %s", raw)
	}
}

func TestDecodeErrorsWrapPersistenceRead(t *testing.T) {
	_, err := Decode([]byte(`{`))
	if !errors.Is(err, ErrPersistenceRead) {
		t.Fatalf("expected ErrPersistenceRead, got %v", err)
	}
}
