package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/quotecart/internal/quotecart"
	pkgerrors "github.com/angelmondragon/quotecart/pkg/errors"
	"github.com/angelmondragon/quotecart/pkg/pagination"
	"gorm.io/gorm"
)

const (
	DefaultSuggestLimit = 8
	MaxSuggestLimit     = 25
)

// ProductReader is the persistence surface the service needs; *Repository implements it.
type ProductReader interface {
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]Product, string, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	FindBySlugs(ctx context.Context, slugs []string) ([]Product, error)
	Suggest(ctx context.Context, term string, limit int) ([]Product, error)
	Brands(ctx context.Context) ([]string, error)
	Categories(ctx context.Context) ([]string, error)
}

// Service exposes catalog reads to the HTTP layer and the cart.
type Service interface {
	List(ctx context.Context, filter ListFilter, params pagination.Params) (ProductPageDTO, error)
	GetBySlug(ctx context.Context, slug string) (ProductDTO, error)
	Suggest(ctx context.Context, term string, limit int) ([]SuggestionDTO, error)
	Facets(ctx context.Context) (FacetsDTO, error)
	Lookup(ctx context.Context, slug string) (quotecart.Product, error)
	OptionPrices(ctx context.Context, slugs []string) (map[string]OptionPrice, error)
}

type service struct {
	repo ProductReader
}

// NewService builds a catalog service over the repository.
func NewService(repo ProductReader) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (ProductPageDTO, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return ProductPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return ProductPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	page := ProductPageDTO{Items: make([]ProductDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		page.Items = append(page.Items, toProductDTO(row))
	}
	return page, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (ProductDTO, error) {
	product, err := s.findBySlug(ctx, slug)
	if err != nil {
		return ProductDTO{}, err
	}
	return toProductDTO(*product), nil
}

// Suggest powers search-as-you-type. Blank terms return nothing.
func (s *service) Suggest(ctx context.Context, term string, limit int) ([]SuggestionDTO, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []SuggestionDTO{}, nil
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}
	if limit > MaxSuggestLimit {
		limit = MaxSuggestLimit
	}
	rows, err := s.repo.Suggest(ctx, term, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "suggest products")
	}
	out := make([]SuggestionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSuggestionDTO(row))
	}
	return out, nil
}

func (s *service) Facets(ctx context.Context) (FacetsDTO, error) {
	brands, err := s.repo.Brands(ctx)
	if err != nil {
		return FacetsDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list brands")
	}
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return FacetsDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return FacetsDTO{Brands: brands, Categories: categories}, nil
}

// Lookup returns the cart read model for a product.
func (s *service) Lookup(ctx context.Context, slug string) (quotecart.Product, error) {
	product, err := s.findBySlug(ctx, slug)
	if err != nil {
		return quotecart.Product{}, err
	}
	return toCartProduct(*product), nil
}

// OptionPrices returns pricing for every option of the given products, keyed by PriceKey.
func (s *service) OptionPrices(ctx context.Context, slugs []string) (map[string]OptionPrice, error) {
	rows, err := s.repo.FindBySlugs(ctx, dedupe(slugs))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load option prices")
	}
	prices := make(map[string]OptionPrice)
	for _, row := range rows {
		for _, opt := range row.Options {
			prices[PriceKey(row.Slug, opt.Label)] = OptionPrice{
				SKU:          opt.SKU,
				SellingPrice: opt.SellingPrice,
				MarketPrice:  opt.MarketPrice,
			}
		}
	}
	return prices, nil
}

func (s *service) findBySlug(ctx context.Context, slug string) (*Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
