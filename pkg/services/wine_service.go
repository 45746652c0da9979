package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/models"
	"github.com/winecollections/winecollections/pkg/repositories"
)

// WineService answers catalog searches driven by stored recommendations.
type WineService interface {
	// Search returns one result per catalog wine that matches a visible
	// recommendation, cheapest per millilitre first.
	Search(ctx context.Context, criteria models.WineCriteria) ([]models.WineResult, error)
}

type wineService struct {
	matchRepo repositories.WineMatchRepository
	logger    *zap.Logger
}

// NewWineService creates a new wine service with dependencies.
func NewWineService(matchRepo repositories.WineMatchRepository, logger *zap.Logger) WineService {
	return &wineService{
		matchRepo: matchRepo,
		logger:    logger.Named("wines"),
	}
}

var _ WineService = (*wineService)(nil)

func (s *wineService) Search(ctx context.Context, criteria models.WineCriteria) ([]models.WineResult, error) {
	matches, err := s.matchRepo.Match(ctx, criteria)
	if err != nil {
		return nil, err
	}

	unique := DedupMatches(matches)
	s.logger.Debug("Matched wines",
		zap.Int("rows", len(matches)),
		zap.Int("unique", len(unique)))

	results := make([]models.WineResult, len(unique))
	for i, m := range unique {
		results[i] = models.NewWineResult(m)
	}
	return results, nil
}

// DedupMatches keeps exactly one row per catalog wine: the one with the
// highest rating, ties going to the lowest recommendation id. The kept row
// takes the position of the wine's first occurrence, so input order is
// otherwise preserved. Applying it twice gives the same result as once.
func DedupMatches(matches []models.WineMatch) []models.WineMatch {
	index := make(map[int64]int, len(matches))
	out := make([]models.WineMatch, 0, len(matches))

	for _, m := range matches {
		i, seen := index[m.CatalogID]
		if !seen {
			index[m.CatalogID] = len(out)
			out = append(out, m)
			continue
		}
		if outranks(m, out[i]) {
			out[i] = m
		}
	}
	return out
}

func outranks(a, b models.WineMatch) bool {
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	return a.RecommendationID < b.RecommendationID
}
