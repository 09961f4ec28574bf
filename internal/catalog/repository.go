package catalog

import (
	"context"
	"strings"

	"github.com/angelmondragon/quotecart/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilter narrows catalog listings. Empty fields do not filter.
type ListFilter struct {
	Search   string
	Brand    string
	Category string
}

// Repository encapsulates catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a product with its options.
func (r *Repository) Create(ctx context.Context, product *Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// List returns one page of active products ordered by name, plus the cursor of
// the last row when more rows follow.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]Product, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.activeProducts(ctx)
	query = applyFilter(query, filter)
	if cursor != nil {
		query = query.Where("(products.name > ?) OR (products.name = ? AND products.id > ?)", cursor.Name, cursor.Name, cursor.ID.String())
	}

	var rows []Product
	if err := query.
		Order("products.name ASC").
		Order("products.id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{Name: last.Name, ID: last.ID})
	}
	return rows, next, nil
}

// FindBySlug loads an active product. Missing products surface gorm.ErrRecordNotFound.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*Product, error) {
	var product Product
	if err := r.activeProducts(ctx).Where("products.slug = ?", slug).Take(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlugs loads the active products matching any of the slugs.
func (r *Repository) FindBySlugs(ctx context.Context, slugs []string) ([]Product, error) {
	if len(slugs) == 0 {
		return []Product{}, nil
	}
	var rows []Product
	err := r.activeProducts(ctx).Where("products.slug IN ?", slugs).Find(&rows).Error
	return rows, err
}

// Suggest returns products whose name, brand or slug contains term, names
// starting with term first.
func (r *Repository) Suggest(ctx context.Context, term string, limit int) ([]Product, error) {
	like := "%" + escapeLike(strings.ToLower(term)) + "%"
	prefix := escapeLike(strings.ToLower(term)) + "%"

	var rows []Product
	err := r.db.WithContext(ctx).
		Model(&Product{}).
		Where("products.is_active = ?", true).
		Where("LOWER(products.name) LIKE ? ESCAPE '\\' OR LOWER(products.brand) LIKE ? ESCAPE '\\' OR LOWER(products.slug) LIKE ? ESCAPE '\\'", like, like, like).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN LOWER(products.name) LIKE ? ESCAPE '\\' THEN 0 ELSE 1 END, products.name ASC",
			Vars:               []any{prefix},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Brands lists the distinct non-empty brands of active products.
func (r *Repository) Brands(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "brand")
}

// Categories lists the distinct non-empty categories of active products.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "category")
}

func (r *Repository) distinct(ctx context.Context, column string) ([]string, error) {
	values := []string{}
	err := r.db.WithContext(ctx).
		Model(&Product{}).
		Where("is_active = ?", true).
		Where(column+" <> ''").
		Distinct(column).
		Order(column+" ASC").
		Pluck(column, &values).Error
	return values, err
}

func (r *Repository) activeProducts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&Product{}).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_options.position ASC").Order("product_options.label ASC")
		}).
		Where("products.is_active = ?", true)
}

func applyFilter(query *gorm.DB, filter ListFilter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where(
			"LOWER(products.name) LIKE ? ESCAPE '\\' OR LOWER(products.brand) LIKE ? ESCAPE '\\' OR LOWER(products.description) LIKE ? ESCAPE '\\'",
			like, like, like,
		)
	}
	if brand := strings.TrimSpace(filter.Brand); brand != "" {
		query = query.Where("products.brand = ?", brand)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("products.category = ?", category)
	}
	return query
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
