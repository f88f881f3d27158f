package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"

	"arbscan/internal/domain"
	"arbscan/internal/domain/entity"
	"arbscan/pkg/errcodes"
)

// ProductRepository is the catalog side of the store. Category scans read
// their product lists from here, and batch refreshes write snapshots back.
type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ListIDsByCategory returns the product identifiers tracked under a category.
func (r *ProductRepository) ListIDsByCategory(ctx context.Context, category string) ([]string, error) {
	query := `
		SELECT DISTINCT product_id
		FROM products
		WHERE category = $1
		ORDER BY product_id`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, category); err != nil {
		return nil, domain.WrapError(err, errcodes.StoreUnavailable, "failed to list category products")
	}

	return ids, nil
}

// UpsertSnapshot stores the latest snapshot of a product in one market,
// keeping the category assignment of an existing row.
func (r *ProductRepository) UpsertSnapshot(ctx context.Context, snapshot *entity.ProductSnapshot, category string) error {
	query := `
		INSERT INTO products (
			product_id, market, external_ref, category, title, brand,
			price, rank, weight_kg, hazmat, brand_gated, time_series, fetched_at
		) VALUES (
			:product_id, :market, :external_ref, :category, :title, :brand,
			:price, :rank, :weight_kg, :hazmat, :brand_gated, :time_series, :fetched_at
		)
		ON CONFLICT (product_id, market) DO UPDATE SET
			external_ref = EXCLUDED.external_ref,
			category = COALESCE(NULLIF(EXCLUDED.category, ''), products.category),
			title = EXCLUDED.title,
			brand = EXCLUDED.brand,
			price = EXCLUDED.price,
			rank = EXCLUDED.rank,
			weight_kg = EXCLUDED.weight_kg,
			hazmat = EXCLUDED.hazmat,
			brand_gated = EXCLUDED.brand_gated,
			time_series = EXCLUDED.time_series,
			fetched_at = EXCLUDED.fetched_at`

	schema := &productSchema{
		ProductID:   snapshot.ProductID,
		Market:      string(snapshot.Market),
		ExternalRef: snapshot.ExternalRef,
		Category:    category,
		Title:       snapshot.Title,
		Brand:       snapshot.Brand,
		Price:       snapshot.Price,
		Rank:        snapshot.Rank,
		WeightKg:    snapshot.WeightKg,
		Hazmat:      snapshot.Hazmat,
		BrandGated:  snapshot.BrandGated,
		TimeSeries:  snapshot.TimeSeries,
		FetchedAt:   snapshot.FetchedAt,
	}

	if _, err := r.db.NamedExecContext(ctx, query, schema); err != nil {
		return domain.WrapError(err, errcodes.StoreUnavailable, "failed to upsert product snapshot")
	}

	return nil
}

// GetSnapshot returns the stored snapshot for a product in one market.
func (r *ProductRepository) GetSnapshot(ctx context.Context, productID string, market entity.Market) (*entity.ProductSnapshot, error) {
	query := `
		SELECT product_id, market, external_ref, category, title, brand,
		       price, rank, weight_kg, hazmat, brand_gated, time_series, fetched_at
		FROM products
		WHERE product_id = $1 AND market = $2`

	var schema productSchema
	if err := r.db.GetContext(ctx, &schema, query, productID, string(market)); err != nil {
		return nil, domain.WrapError(err, errcodes.StoreUnavailable, "failed to get product snapshot")
	}

	return schema.toDomain(), nil
}
