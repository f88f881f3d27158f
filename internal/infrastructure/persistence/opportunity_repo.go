package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"arbscan/internal/domain"
	"arbscan/internal/domain/entity"
	"arbscan/pkg/errcodes"
)

type OpportunityRepository struct {
	db *sqlx.DB
}

func NewOpportunityRepository(db *sqlx.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

// FindShown returns the live shown record for the composite key, or nil when
// none exists. Filtered records do not count as shown.
func (r *OpportunityRepository) FindShown(ctx context.Context, productID string, market entity.Market, mode entity.ScanMode) (*entity.Opportunity, error) {
	query := `
		SELECT product_id, market, mode, status, external_ref, title, brand,
		       source_price, target_price, fees, shipping_estimate, risk_multiplier, score, last_seen
		FROM opportunities
		WHERE product_id = $1 AND market = $2 AND mode = $3 AND status = $4`

	var schema opportunitySchema
	err := r.db.GetContext(ctx, &schema, query, productID, string(market), string(mode), string(entity.StatusShown))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.WrapError(err, errcodes.StoreUnavailable, "failed to query opportunity")
	}

	return schema.toDomain(), nil
}

// Upsert writes the opportunity under its (product_id, market, mode) key,
// replacing any previous record. Re-running a scan never duplicates rows.
func (r *OpportunityRepository) Upsert(ctx context.Context, opportunity *entity.Opportunity) error {
	schema := fromOpportunity(opportunity)
	if schema.LastSeen.IsZero() {
		schema.LastSeen = time.Now().UTC()
	}

	query := `
		INSERT INTO opportunities (
			product_id, market, mode, status, external_ref, title, brand,
			source_price, target_price, fees, shipping_estimate, risk_multiplier, score, last_seen
		) VALUES (
			:product_id, :market, :mode, :status, :external_ref, :title, :brand,
			:source_price, :target_price, :fees, :shipping_estimate, :risk_multiplier, :score, :last_seen
		)
		ON CONFLICT (product_id, market, mode) DO UPDATE SET
			status = EXCLUDED.status,
			external_ref = EXCLUDED.external_ref,
			title = EXCLUDED.title,
			brand = EXCLUDED.brand,
			source_price = EXCLUDED.source_price,
			target_price = EXCLUDED.target_price,
			fees = EXCLUDED.fees,
			shipping_estimate = EXCLUDED.shipping_estimate,
			risk_multiplier = EXCLUDED.risk_multiplier,
			score = EXCLUDED.score,
			last_seen = EXCLUDED.last_seen`

	if _, err := r.db.NamedExecContext(ctx, query, schema); err != nil {
		return domain.WrapError(err, errcodes.StoreUnavailable, "failed to upsert opportunity")
	}

	return nil
}

// ListShown returns shown opportunities for a target market ordered by score,
// best first.
func (r *OpportunityRepository) ListShown(ctx context.Context, market entity.Market, limit int) ([]*entity.Opportunity, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT product_id, market, mode, status, external_ref, title, brand,
		       source_price, target_price, fees, shipping_estimate, risk_multiplier, score, last_seen
		FROM opportunities
		WHERE market = $1 AND status = $2
		ORDER BY score DESC
		LIMIT $3`

	var schemas []opportunitySchema
	if err := r.db.SelectContext(ctx, &schemas, query, string(market), string(entity.StatusShown), limit); err != nil {
		return nil, domain.WrapError(err, errcodes.StoreUnavailable, "failed to list opportunities")
	}

	opportunities := make([]*entity.Opportunity, 0, len(schemas))
	for i := range schemas {
		opportunities = append(opportunities, schemas[i].toDomain())
	}

	return opportunities, nil
}
