package catalog

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultMaxPrice is the upper bound of the price slider.
const DefaultMaxPrice = 500

type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Contains reports whether Min <= price <= Max.
func (r PriceRange) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(r.Min) && price.LessThanOrEqual(r.Max)
}

type Criteria struct {
	SearchTerm string
	PriceRange PriceRange
	Categories []string
}

func DefaultCriteria() Criteria {
	return Criteria{
		PriceRange: PriceRange{Min: decimal.Zero, Max: decimal.NewFromInt(DefaultMaxPrice)},
		Categories: []string{CategoryAll},
	}
}

// Filter returns the products matching every criterion, in input order.
// The search term matches name or description case-insensitively; an empty
// term matches everything. A product matches the category criterion when
// "all" is selected or one of its tags is selected.
func Filter(products []Product, criteria Criteria) []Product {
	term := strings.ToLower(criteria.SearchTerm)
	selected := make(map[string]struct{}, len(criteria.Categories))
	for _, c := range criteria.Categories {
		selected[c] = struct{}{}
	}
	_, all := selected[CategoryAll]

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if !matchesSearch(p, term) {
			continue
		}
		if !criteria.PriceRange.Contains(p.Price) {
			continue
		}
		if !all && !matchesCategory(p, selected) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesSearch(p Product, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}

func matchesCategory(p Product, selected map[string]struct{}) bool {
	for _, tag := range p.Tags() {
		if _, ok := selected[tag]; ok {
			return true
		}
	}
	return false
}

// ToggleCategory applies a checkbox click on id to the current selection.
// Choosing "all" resets the selection. Choosing a category while "all" is
// selected replaces it. Choosing an already selected category deselects it.
func ToggleCategory(selected []string, id string) []string {
	if id == CategoryAll {
		return []string{CategoryAll}
	}

	if slices.Contains(selected, CategoryAll) {
		return []string{id}
	}

	if slices.Contains(selected, id) {
		out := make([]string, 0, len(selected))
		for _, c := range selected {
			if c != id {
				out = append(out, c)
			}
		}
		return out
	}

	out := make([]string, 0, len(selected)+1)
	for _, c := range selected {
		if c != CategoryAll {
			out = append(out, c)
		}
	}
	return append(out, id)
}
