package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/quotecart/pkg/migrate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const migrationsDir = "../../pkg/migrate/migrations"

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "catalog.db")), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migrate.Run(context.Background(), sqlDB, "sqlite3", migrationsDir, "up"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

type optionSeed struct {
	label     string
	minQty    int
	available bool
	sku       string
	selling   string
	market    string
}

func mustCreateProduct(t *testing.T, repo *Repository, slug, name, brand, category string, opts ...optionSeed) *Product {
	t.Helper()
	product := &Product{
		ID:          uuid.New(),
		Slug:        slug,
		Name:        name,
		Brand:       brand,
		Category:    category,
		Description: name + " for industrial use",
		IsActive:    true,
	}
	for i, o := range opts {
		opt := ProductOption{
			ID:        uuid.New(),
			Label:     o.label,
			Position:  i,
			SKU:       o.sku,
			Available: o.available,
		}
		if o.minQty > 0 {
			minQty := o.minQty
			opt.MinQty = &minQty
		}
		if o.selling != "" {
			opt.SellingPrice = decimal.NewNullDecimal(decimal.RequireFromString(o.selling))
		}
		if o.market != "" {
			opt.MarketPrice = decimal.NewNullDecimal(decimal.RequireFromString(o.market))
		}
		product.Options = append(product.Options, opt)
	}
	if err := repo.Create(context.Background(), product); err != nil {
		t.Fatalf("create product %s: %v", slug, err)
	}
	return product
}

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewRandom()
	if err != nil {
		t.Fatalf("uuid: %v", err)
	}
	return id
}
