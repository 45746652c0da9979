package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/apperrors"
	"github.com/winecollections/winecollections/pkg/models"
	"github.com/winecollections/winecollections/pkg/repositories"
)

// csvColumns are the recognized CSV header names. Column order in the file
// is taken from its header row.
var csvColumns = []string{
	"country", "region", "designation_of_origin", "producer",
	"rating", "color", "grape_variety", "wine_name",
}

// RecommendationService defines the interface for recommendation operations.
// A nil userID means the anonymous caller, who works with global
// recommendations only.
type RecommendationService interface {
	List(ctx context.Context, userID *int64) ([]*models.WineRecommendation, error)
	Create(ctx context.Context, rec *models.WineRecommendation, userID *int64) error
	Update(ctx context.Context, rec *models.WineRecommendation, userID int64) error
	Delete(ctx context.Context, id, userID int64) error

	// ImportCSV parses recommendations from r and stores them all or none.
	// It returns the number created.
	ImportCSV(ctx context.Context, r io.Reader, userID *int64) (int, error)
}

type recommendationService struct {
	recRepo repositories.RecommendationRepository
	logger  *zap.Logger
}

// NewRecommendationService creates a new recommendation service with dependencies.
func NewRecommendationService(recRepo repositories.RecommendationRepository, logger *zap.Logger) RecommendationService {
	return &recommendationService{
		recRepo: recRepo,
		logger:  logger.Named("recommendations"),
	}
}

var _ RecommendationService = (*recommendationService)(nil)

func (s *recommendationService) List(ctx context.Context, userID *int64) ([]*models.WineRecommendation, error) {
	return s.recRepo.ListVisible(ctx, userID)
}

func (s *recommendationService) Create(ctx context.Context, rec *models.WineRecommendation, userID *int64) error {
	if err := prepareRecommendation(rec); err != nil {
		return err
	}
	rec.UserID = userID
	return s.recRepo.Create(ctx, rec)
}

func (s *recommendationService) Update(ctx context.Context, rec *models.WineRecommendation, userID int64) error {
	if err := prepareRecommendation(rec); err != nil {
		return err
	}
	return s.recRepo.Update(ctx, rec, userID)
}

func (s *recommendationService) Delete(ctx context.Context, id, userID int64) error {
	return s.recRepo.Delete(ctx, id, userID)
}

func (s *recommendationService) ImportCSV(ctx context.Context, r io.Reader, userID *int64) (int, error) {
	recs, err := parseRecommendationCSV(r)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, fmt.Errorf("%w: file has no data rows", apperrors.ErrInvalidInput)
	}
	for _, rec := range recs {
		rec.UserID = userID
	}

	if err := s.recRepo.CreateBatch(ctx, recs); err != nil {
		return 0, err
	}

	s.logger.Info("Imported recommendations",
		zap.Int("count", len(recs)),
		zap.Bool("global", userID == nil))
	return len(recs), nil
}

func prepareRecommendation(rec *models.WineRecommendation) error {
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, err.Error())
	}
	return nil
}

// parseRecommendationCSV reads a header row naming some or all of
// csvColumns, followed by one recommendation per row. Any bad row rejects
// the whole file.
func parseRecommendationCSV(r io.Reader) ([]*models.WineRecommendation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", apperrors.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, err.Error())
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if !slices.Contains(csvColumns, name) {
			return nil, fmt.Errorf("%w: unknown column %q", apperrors.ErrInvalidInput, name)
		}
		if _, dup := pos[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", apperrors.ErrInvalidInput, name)
		}
		pos[name] = i
	}
	for _, required := range []string{"color", "rating"} {
		if _, ok := pos[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", apperrors.ErrInvalidInput, required)
		}
	}

	var recs []*models.WineRecommendation
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, err.Error())
		}

		field := func(name string) string {
			if i, ok := pos[name]; ok {
				return record[i]
			}
			return ""
		}

		rating, err := strconv.Atoi(strings.TrimSpace(field("rating")))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: rating %q is not an integer", apperrors.ErrInvalidInput, line, field("rating"))
		}
		color, err := models.ParseWineColor(field("color"))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s", apperrors.ErrInvalidInput, line, err.Error())
		}

		rec := &models.WineRecommendation{
			Country:             field("country"),
			Region:              field("region"),
			DesignationOfOrigin: field("designation_of_origin"),
			Producer:            field("producer"),
			GrapeVariety:        field("grape_variety"),
			WineName:            field("wine_name"),
			Color:               color,
			Rating:              rating,
		}
		rec.Normalize()
		recs = append(recs, rec)
	}
	return recs, nil
}
