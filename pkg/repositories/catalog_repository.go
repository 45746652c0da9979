package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/winecollections/winecollections/pkg/database"
	"github.com/winecollections/winecollections/pkg/models"
)

// CatalogRepository provides data access for crawled catalog wines.
type CatalogRepository interface {
	// DeleteAll removes every catalog row and returns how many were deleted.
	DeleteAll(ctx context.Context) (int64, error)
	Insert(ctx context.Context, wine *models.CatalogWine) error
	Count(ctx context.Context) (int64, error)
}

type catalogRepository struct {
	db database.Querier
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(db database.Querier) CatalogRepository {
	return &catalogRepository{db: db}
}

var _ CatalogRepository = (*catalogRepository)(nil)

func (r *catalogRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM catalog_wines`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete catalog: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *catalogRepository) Insert(ctx context.Context, wine *models.CatalogWine) error {
	if wine.CrawledAt.IsZero() {
		wine.CrawledAt = time.Now()
	}
	varieties := wine.GrapeVarieties
	if varieties == nil {
		varieties = []string{}
	}

	sql := `
		INSERT INTO catalog_wines (
			name, country, region, designation_of_origin, producer,
			volume_ml, price, alcohol_percent, color, grape_varieties,
			available_online, product_url, crawled_at
		) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9::wine_color, $10, $11, $12, $13)
		RETURNING id`

	err := r.db.QueryRow(ctx, sql,
		wine.Name, wine.Country, wine.Region, wine.DesignationOfOrigin, wine.Producer,
		wine.VolumeML.String(), wine.Price.String(), wine.AlcoholPercent.String(), string(wine.Color), varieties,
		wine.AvailableOnline, wine.ProductURL, wine.CrawledAt,
	).Scan(&wine.ID)
	if err != nil {
		return fmt.Errorf("failed to insert catalog wine: %w", err)
	}
	return nil
}

func (r *catalogRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM catalog_wines`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count catalog wines: %w", err)
	}
	return n, nil
}
