package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// ProductView is the public shape of a catalog product.
type ProductView struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Category     string          `json:"category"`
	CategoryName string          `json:"category_name"`
	Tags         []string        `json:"tags"`
	Description  string          `json:"description"`
}

// ProductDetailView adds the long description and related products.
type ProductDetailView struct {
	ProductView
	Details string        `json:"details"`
	Related []ProductView `json:"related"`
}

type productListView struct {
	Products []ProductView `json:"products"`
	Count    int           `json:"count"`
	Filters  filtersView   `json:"filters"`
}

type filtersView struct {
	Search     string          `json:"search"`
	MinPrice   decimal.Decimal `json:"min_price"`
	MaxPrice   decimal.Decimal `json:"max_price"`
	Categories []string        `json:"categories"`
}

func CatalogCategories(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(r.Context(), w, cat.Categories())
	}
}

func CatalogFeatured(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(r.Context(), w, newProductViews(cat, cat.Featured()))
	}
}

// CatalogProducts filters the catalog by q, min, max and category. With no
// parameters it returns every product.
func CatalogProducts(cat *catalog.Catalog, maxPrice int, logg *logger.Logger) http.HandlerFunc {
	if maxPrice <= 0 {
		maxPrice = catalog.DefaultMaxPrice
	}
	return func(w http.ResponseWriter, r *http.Request) {
		criteria, err := parseCriteria(r, maxPrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		matched := catalog.Filter(cat.Products(), criteria)
		responses.WriteSuccess(r.Context(), w, productListView{
			Products: newProductViews(cat, matched),
			Count:    len(matched),
			Filters: filtersView{
				Search:     criteria.SearchTerm,
				MinPrice:   criteria.PriceRange.Min,
				MaxPrice:   criteria.PriceRange.Max,
				Categories: criteria.Categories,
			},
		})
	}
}

// CatalogProduct returns one product with its related products, or a
// NOT_FOUND envelope.
func CatalogProduct(cat *catalog.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "productId")
		product, ok := cat.Find(id)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found"))
			return
		}

		responses.WriteSuccess(r.Context(), w, ProductDetailView{
			ProductView: newProductView(cat, product),
			Details:     product.Details,
			Related:     newProductViews(cat, cat.Related(product, catalog.RelatedLimit)),
		})
	}
}

func parseCriteria(r *http.Request, maxPrice int) (catalog.Criteria, error) {
	criteria := catalog.DefaultCriteria()
	criteria.PriceRange.Max = decimal.NewFromInt(int64(maxPrice))
	criteria.SearchTerm = validators.SearchTerm(r.URL.Query().Get("q"), validators.MaxSearchTermLength)

	min, err := validators.ParseQueryDecimal(r, "min", criteria.PriceRange.Min)
	if err != nil {
		return catalog.Criteria{}, err
	}
	max, err := validators.ParseQueryDecimal(r, "max", criteria.PriceRange.Max)
	if err != nil {
		return catalog.Criteria{}, err
	}
	if min.GreaterThan(max) {
		return catalog.Criteria{}, pkgerrors.New(pkgerrors.CodeValidation, "min must not exceed max").
			WithDetails(map[string]any{"min": min.String(), "max": max.String()})
	}
	criteria.PriceRange = catalog.PriceRange{Min: min, Max: max}

	if categories := validators.ParseQueryList(r, "category"); len(categories) > 0 {
		criteria.Categories = categories
	}
	return criteria, nil
}

func newProductView(cat *catalog.Catalog, p catalog.Product) ProductView {
	return ProductView{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		Image:        p.Image,
		Category:     p.PrimaryCategory(),
		CategoryName: cat.CategoryName(p.PrimaryCategory()),
		Tags:         p.Tags(),
		Description:  p.Description,
	}
}

func newProductViews(cat *catalog.Catalog, products []catalog.Product) []ProductView {
	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		out = append(out, newProductView(cat, p))
	}
	return out
}
