package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/models"
)

// ParseRecommendationID extracts and validates the recommendation ID from the request path.
// Returns the parsed ID and true on success, or 0 and false on error
// (after writing an error response).
// Expects path parameter: id
func ParseRecommendationID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseID(w, r, "id", "invalid_recommendation_id", "Invalid recommendation ID", logger)
}

// parseID is the internal helper that does the actual parsing work.
func parseID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(pathParam), 10, 64)
	if err != nil || id <= 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return id, true
}

// ParseWineCriteria reads the optional wine search filters from the query
// string. Absent or empty parameters are not filtered on.
func ParseWineCriteria(r *http.Request) (models.WineCriteria, error) {
	var criteria models.WineCriteria
	q := r.URL.Query()

	if v := strings.TrimSpace(q.Get("min_rating")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return criteria, fmt.Errorf("min_rating must be an integer, got %q", v)
		}
		criteria.MinRating = &n
	}

	if v := strings.TrimSpace(q.Get("max_price")); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return criteria, fmt.Errorf("max_price must be a decimal number, got %q", v)
		}
		if d.IsNegative() {
			return criteria, fmt.Errorf("max_price must not be negative")
		}
		criteria.MaxPrice = &d
	}

	if v := strings.TrimSpace(q.Get("color")); v != "" {
		c, err := models.ParseWineColor(v)
		if err != nil {
			return criteria, fmt.Errorf("color must be one of red, white, pink, got %q", v)
		}
		criteria.Color = &c
	}

	if v := strings.TrimSpace(q.Get("available_online")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return criteria, fmt.Errorf("available_online must be a boolean, got %q", v)
		}
		criteria.AvailableOnline = &b
	}

	return criteria, nil
}
