package catalog

import (
	"github.com/angelmondragon/quotecart/internal/quotecart"
	"github.com/shopspring/decimal"
)

// ProductDTO is the public product shape. Purchase prices stay internal.
type ProductDTO struct {
	Slug        string      `json:"slug"`
	Name        string      `json:"name"`
	Brand       string      `json:"brand"`
	Vendor      string      `json:"vendor,omitempty"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	ImageURL    string      `json:"image_url,omitempty"`
	Options     []OptionDTO `json:"options"`
}

type OptionDTO struct {
	Label        string           `json:"label"`
	Weight       string           `json:"weight,omitempty"`
	SKU          string           `json:"sku,omitempty"`
	MinQty       int              `json:"min_qty"`
	Available    bool             `json:"available"`
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty"`
	MarketPrice  *decimal.Decimal `json:"market_price,omitempty"`
}

// SuggestionDTO is the compact shape returned by search-as-you-type.
type SuggestionDTO struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	Category string `json:"category"`
	ImageURL string `json:"image_url,omitempty"`
}

type ProductPageDTO struct {
	Items      []ProductDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type FacetsDTO struct {
	Brands     []string `json:"brands"`
	Categories []string `json:"categories"`
}

// OptionPrice carries the pricing attached to a cart line at submission time.
type OptionPrice struct {
	SKU          string
	SellingPrice decimal.NullDecimal
	MarketPrice  decimal.NullDecimal
}

// PriceKey identifies an option across products.
func PriceKey(slug, option string) string {
	return slug + "__" + option
}

func toProductDTO(p Product) ProductDTO {
	dto := ProductDTO{
		Slug:        p.Slug,
		Name:        p.Name,
		Brand:       p.Brand,
		Vendor:      p.Vendor,
		Category:    p.Category,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Options:     make([]OptionDTO, 0, len(p.Options)),
	}
	for _, opt := range p.Options {
		dto.Options = append(dto.Options, OptionDTO{
			Label:        opt.Label,
			Weight:       opt.Weight,
			SKU:          opt.SKU,
			MinQty:       minQtyOf(opt),
			Available:    opt.Available,
			SellingPrice: decimalPtr(opt.SellingPrice),
			MarketPrice:  decimalPtr(opt.MarketPrice),
		})
	}
	return dto
}

func toSuggestionDTO(p Product) SuggestionDTO {
	return SuggestionDTO{Slug: p.Slug, Name: p.Name, Brand: p.Brand, Category: p.Category, ImageURL: p.ImageURL}
}

func toCartProduct(p Product) quotecart.Product {
	out := quotecart.Product{Slug: p.Slug, Name: p.Name, Options: make([]quotecart.Option, 0, len(p.Options))}
	for _, opt := range p.Options {
		out.Options = append(out.Options, quotecart.Option{
			Label:     opt.Label,
			MinQty:    minQtyOf(opt),
			Available: opt.Available,
		})
	}
	return out
}

func minQtyOf(opt ProductOption) int {
	if opt.MinQty == nil || *opt.MinQty < 1 {
		return 1
	}
	return *opt.MinQty
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
