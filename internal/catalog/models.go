package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product maps the products table.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:text;primaryKey"`
	Slug        string          `gorm:"column:slug;not null;uniqueIndex:idx_products_slug"`
	Name        string          `gorm:"column:name;not null"`
	Brand       string          `gorm:"column:brand;not null"`
	Vendor      string          `gorm:"column:vendor;not null"`
	Category    string          `gorm:"column:category;not null"`
	Description string          `gorm:"column:description;not null"`
	ImageURL    string          `gorm:"column:image_url;not null"`
	IsActive    bool            `gorm:"column:is_active;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
	Options     []ProductOption `gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string { return "products" }

// ProductOption maps the product_options table. A nil MinQty means no minimum.
type ProductOption struct {
	ID            uuid.UUID           `gorm:"column:id;type:text;primaryKey"`
	ProductID     uuid.UUID           `gorm:"column:product_id;type:text;not null"`
	Label         string              `gorm:"column:label;not null"`
	Position      int                 `gorm:"column:position;not null"`
	Weight        string              `gorm:"column:weight;not null"`
	SKU           string              `gorm:"column:sku;not null"`
	MinQty        *int                `gorm:"column:min_qty"`
	Available     bool                `gorm:"column:available;not null"`
	PurchasePrice decimal.NullDecimal `gorm:"column:purchase_price;type:numeric(12,2)"`
	SellingPrice  decimal.NullDecimal `gorm:"column:selling_price;type:numeric(12,2)"`
	MarketPrice   decimal.NullDecimal `gorm:"column:market_price;type:numeric(12,2)"`
	CreatedAt     time.Time           `gorm:"column:created_at"`
	UpdatedAt     time.Time           `gorm:"column:updated_at"`
}

func (ProductOption) TableName() string { return "product_options" }
