// Package catalog serves the fixed product catalog and the filter engine
// behind the product listing.
package catalog

import (
	_ "embed"
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var plainTextPolicy = bluemonday.StrictPolicy()

// plainText strips markup from catalog copy. Escaped entities are restored
// since clients render the values as text.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainTextPolicy.Sanitize(s)))
}

const (
	CategoryAll  = "all"
	CategoryNew  = "new"
	CategorySale = "sale"

	featuredCount = 4
	// RelatedLimit caps the related products shown on a product page.
	RelatedLimit = 4
	newArrivals  = 3
	saleItems    = 2
)

//go:embed products.yaml
var embeddedCatalog []byte

// Product is immutable once loaded. Category holds comma-joined tags, the
// first of which is the primary category.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Image       string
	Category    string
	Description string
	Details     string
}

// Tags splits Category into its individual tags.
func (p Product) Tags() []string {
	if p.Category == "" {
		return nil
	}
	return strings.Split(p.Category, ",")
}

// PrimaryCategory returns the first tag.
func (p Product) PrimaryCategory() string {
	tags := p.Tags()
	if len(tags) == 0 {
		return ""
	}
	return tags[0]
}

func (p Product) HasTag(tag string) bool {
	return slices.Contains(p.Tags(), tag)
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Catalog struct {
	products   []Product
	categories []Category
	byID       map[string]int
}

type fileFormat struct {
	Categories []Category `yaml:"categories"`
	Products   []struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Price       string `yaml:"price"`
		Image       string `yaml:"image"`
		Category    string `yaml:"category"`
		Description string `yaml:"description"`
		Details     string `yaml:"details"`
	} `yaml:"products"`
}

// Load parses the catalog compiled into the binary.
func Load() (*Catalog, error) {
	return Parse(embeddedCatalog)
}

// MustLoad is Load for callers that cannot proceed without a catalog.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from YAML. Product text is reduced to plain text.
// The first three products are tagged as new arrivals and the following two
// as sale items.
func Parse(data []byte) (*Catalog, error) {
	var raw fileFormat
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		categories: raw.Categories,
		products:   make([]Product, 0, len(raw.Products)),
		byID:       make(map[string]int, len(raw.Products)),
	}

	for i, rp := range raw.Products {
		if rp.ID == "" {
			return nil, fmt.Errorf("product at index %d has no id", i)
		}
		if _, dup := c.byID[rp.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", rp.ID)
		}
		price, err := decimal.NewFromString(rp.Price)
		if err != nil {
			return nil, fmt.Errorf("product %q price: %w", rp.ID, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("product %q has negative price", rp.ID)
		}

		category := rp.Category
		switch {
		case i < newArrivals:
			category += "," + CategoryNew
		case i < newArrivals+saleItems:
			category += "," + CategorySale
		}

		c.byID[rp.ID] = len(c.products)
		c.products = append(c.products, Product{
			ID:          rp.ID,
			Name:        plainText(rp.Name),
			Price:       price,
			Image:       rp.Image,
			Category:    category,
			Description: plainText(rp.Description),
			Details:     plainText(rp.Details),
		})
	}

	return c, nil
}

// Products returns every product in catalog order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// CategoryName returns the display name for id, or "" when unknown.
func (c *Catalog) CategoryName(id string) string {
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat.Name
		}
	}
	return ""
}

// Find looks a product up by id. A missing product is not an error.
func (c *Catalog) Find(id string) (Product, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[idx], true
}

// Featured returns the first four products.
func (c *Catalog) Featured() []Product {
	n := featuredCount
	if n > len(c.products) {
		n = len(c.products)
	}
	out := make([]Product, n)
	copy(out, c.products[:n])
	return out
}

// Related returns up to limit other products sharing p's primary category.
func (c *Catalog) Related(p Product, limit int) []Product {
	primary := p.PrimaryCategory()
	if primary == "" || limit <= 0 {
		return []Product{}
	}
	out := make([]Product, 0, limit)
	for _, candidate := range c.products {
		if candidate.ID == p.ID || !candidate.HasTag(primary) {
			continue
		}
		out = append(out, candidate)
		if len(out) == limit {
			break
		}
	}
	return out
}
