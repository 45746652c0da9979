package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/winecollections/winecollections/pkg/database"
	"github.com/winecollections/winecollections/pkg/models"
)

// WineMatchRepository joins the catalog against stored recommendations.
type WineMatchRepository interface {
	// Match returns one row per (catalog wine, recommendation) pair that
	// satisfies the join and the criteria, cheapest per millilitre first.
	// The same catalog wine may appear more than once.
	Match(ctx context.Context, criteria models.WineCriteria) ([]models.WineMatch, error)
}

type wineMatchRepository struct {
	db database.Querier
}

// NewWineMatchRepository creates a new WineMatchRepository.
func NewWineMatchRepository(db database.Querier) WineMatchRepository {
	return &wineMatchRepository{db: db}
}

var _ WineMatchRepository = (*wineMatchRepository)(nil)

func (r *wineMatchRepository) Match(ctx context.Context, criteria models.WineCriteria) ([]models.WineMatch, error) {
	sql, args := buildMatchQuery(criteria)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to match wines: %w", err)
	}
	defer rows.Close()

	matches := make([]models.WineMatch, 0)
	for rows.Next() {
		m, err := scanWineMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wine match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wine matches: %w", err)
	}
	return matches, nil
}

func scanWineMatch(row pgx.Row) (models.WineMatch, error) {
	var (
		m                    models.WineMatch
		color, volume, price string
	)
	err := row.Scan(
		&m.CatalogID, &m.Name, &m.AvailableOnline, &m.Country, &m.Region,
		&m.DesignationOfOrigin, &m.Producer, &color,
		&volume, &price, &m.Rating, &m.RecommendationID,
	)
	if err != nil {
		return m, err
	}
	m.Color = models.WineColor(color)
	if m.VolumeML, err = decimal.NewFromString(volume); err != nil {
		return m, fmt.Errorf("invalid volume %q: %w", volume, err)
	}
	if m.Price, err = decimal.NewFromString(price); err != nil {
		return m, fmt.Errorf("invalid price %q: %w", price, err)
	}
	return m, nil
}
