// Package state holds the per-visitor storefront state and the pure reducers mutating it.
package state

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// PlaceholderImage is served in place of missing or unusable product images.
const PlaceholderImage = "/placeholder.svg"

// Category is a product category. All is a filter sentinel, never a product's category.
type Category string

const (
	All         Category = "All"
	Men         Category = "Men"
	Women       Category = "Women"
	Kids        Category = "Kids"
	Accessories Category = "Accessories"
	Sale        Category = "Sale"
)

// Categories lists the filter choices in display order.
var Categories = []Category{All, Men, Women, Kids, Accessories, Sale}

// Valid reports whether c is a real product category.
func (c Category) Valid() bool {
	switch c {
	case Men, Women, Kids, Accessories, Sale:
		return true
	}
	return false
}

// Product is one catalog entry as served by the catalog service. Price is the current price.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Discount    int             `json:"discount"`
	Category    Category        `json:"category"`
	Image       string          `json:"image,omitempty"`
	Description string          `json:"description,omitempty"`
	Sizes       []string        `json:"sizes,omitempty"`
	Colors      []string        `json:"colors,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// HasDiscount reports whether a struck-through original price is shown.
func (p Product) HasDiscount() bool {
	return p.Discount > 0
}

// OriginalPrice is the pre-discount price shown struck through: price * (1 + discount/100),
// rounded to cents.
func (p Product) OriginalPrice() decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromInt(int64(p.Discount)).Div(hundred))
	return p.Price.Mul(factor).Round(2)
}

// ImageURL returns the product image, or PlaceholderImage when it is empty or not a usable URL.
func (p Product) ImageURL() string {
	return ResolveImage(p.Image)
}

// ResolveImage maps a raw asset reference to something renderable.
func ResolveImage(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PlaceholderImage
	}
	u, err := url.Parse(raw)
	if err != nil {
		return PlaceholderImage
	}
	switch {
	case u.Scheme == "http" || u.Scheme == "https":
		if u.Host == "" {
			return PlaceholderImage
		}
		return u.String()
	case u.Scheme == "" && strings.HasPrefix(u.Path, "/"):
		return u.String()
	default:
		return PlaceholderImage
	}
}
