package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/winecollections/winecollections/pkg/apperrors"
	"github.com/winecollections/winecollections/pkg/database"
	"github.com/winecollections/winecollections/pkg/models"
)

// RecommendationRepository provides data access for wine recommendations.
type RecommendationRepository interface {
	Create(ctx context.Context, rec *models.WineRecommendation) error
	// CreateBatch inserts all recommendations in one transaction.
	CreateBatch(ctx context.Context, recs []*models.WineRecommendation) error

	// ListVisible returns the user's recommendations, or the global ones
	// (no owner) when userID is nil.
	ListVisible(ctx context.Context, userID *int64) ([]*models.WineRecommendation, error)

	// Update and Delete only touch rows owned by userID.
	// They return apperrors.ErrNotFound when no such row exists.
	Update(ctx context.Context, rec *models.WineRecommendation, userID int64) error
	Delete(ctx context.Context, id, userID int64) error
}

type recommendationRepository struct {
	db *database.DB
}

// NewRecommendationRepository creates a new RecommendationRepository.
func NewRecommendationRepository(db *database.DB) RecommendationRepository {
	return &recommendationRepository{db: db}
}

var _ RecommendationRepository = (*recommendationRepository)(nil)

const recommendationColumns = `
	id, country, region, designation_of_origin, producer, grape_variety,
	wine_name, color::text, rating, user_id, created_at, updated_at`

func (r *recommendationRepository) Create(ctx context.Context, rec *models.WineRecommendation) error {
	if err := insertRecommendation(ctx, r.db, rec); err != nil {
		return fmt.Errorf("failed to create recommendation: %w", err)
	}
	return nil
}

func (r *recommendationRepository) CreateBatch(ctx context.Context, recs []*models.WineRecommendation) error {
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		for i, rec := range recs {
			if err := insertRecommendation(ctx, tx, rec); err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create recommendations: %w", err)
	}
	return nil
}

func insertRecommendation(ctx context.Context, q database.Querier, rec *models.WineRecommendation) error {
	sql := `
		INSERT INTO wine_recommendations (
			country, region, designation_of_origin, producer, grape_variety,
			wine_name, color, rating, user_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7::wine_color, $8, $9)
		RETURNING id, created_at, updated_at`

	return q.QueryRow(ctx, sql,
		rec.Country, rec.Region, rec.DesignationOfOrigin, rec.Producer, rec.GrapeVariety,
		rec.WineName, string(rec.Color), rec.Rating, rec.UserID,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}

func (r *recommendationRepository) ListVisible(ctx context.Context, userID *int64) ([]*models.WineRecommendation, error) {
	sql := `SELECT` + recommendationColumns + `
		FROM wine_recommendations
		WHERE user_id IS NULL
		ORDER BY id`
	args := []any{}
	if userID != nil {
		sql = `SELECT` + recommendationColumns + `
			FROM wine_recommendations
			WHERE user_id = $1
			ORDER BY id`
		args = append(args, *userID)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	recs := make([]*models.WineRecommendation, 0)
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendations: %w", err)
	}
	return recs, nil
}

func (r *recommendationRepository) Update(ctx context.Context, rec *models.WineRecommendation, userID int64) error {
	sql := `
		UPDATE wine_recommendations
		SET country = $1, region = $2, designation_of_origin = $3, producer = $4,
		    grape_variety = $5, wine_name = $6, color = $7::wine_color, rating = $8,
		    updated_at = NOW()
		WHERE id = $9 AND user_id = $10
		RETURNING user_id, created_at, updated_at`

	err := r.db.QueryRow(ctx, sql,
		rec.Country, rec.Region, rec.DesignationOfOrigin, rec.Producer,
		rec.GrapeVariety, rec.WineName, string(rec.Color), rec.Rating,
		rec.ID, userID,
	).Scan(&rec.UserID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update recommendation: %w", err)
	}
	return nil
}

func (r *recommendationRepository) Delete(ctx context.Context, id, userID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM wine_recommendations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete recommendation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanRecommendation(row pgx.Row) (*models.WineRecommendation, error) {
	var rec models.WineRecommendation
	var color string
	err := row.Scan(
		&rec.ID, &rec.Country, &rec.Region, &rec.DesignationOfOrigin, &rec.Producer, &rec.GrapeVariety,
		&rec.WineName, &color, &rec.Rating, &rec.UserID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Color = models.WineColor(color)
	return &rec, nil
}
