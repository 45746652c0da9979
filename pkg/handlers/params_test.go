package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/models"
)

func TestParseRecommendationID(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		wantID int64
		wantOK bool
	}{
		{"valid", "12", 12, true},
		{"zero", "0", 0, false},
		{"negative", "-3", 0, false},
		{"not a number", "abc", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/winerecommendations/x/", nil)
			req.SetPathValue("id", tt.value)
			rec := httptest.NewRecorder()

			id, ok := ParseRecommendationID(rec, req, zap.NewNop())
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
			if !ok {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Contains(t, rec.Body.String(), "invalid_recommendation_id")
			}
		})
	}
}

func TestParseWineCriteria_Empty(t *testing.T) {
	criteria, err := ParseWineCriteria(httptest.NewRequest(http.MethodGet, "/wines/", nil))
	require.NoError(t, err)
	assert.Equal(t, models.WineCriteria{}, criteria)
}

func TestParseWineCriteria_All(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/wines/?min_rating=4&max_price=14.99&color=Red&available_online=true", nil)

	criteria, err := ParseWineCriteria(req)
	require.NoError(t, err)

	require.NotNil(t, criteria.MinRating)
	assert.Equal(t, 4, *criteria.MinRating)
	require.NotNil(t, criteria.MaxPrice)
	assert.Equal(t, "14.99", criteria.MaxPrice.String())
	require.NotNil(t, criteria.Color)
	assert.Equal(t, models.WineColorRed, *criteria.Color)
	require.NotNil(t, criteria.AvailableOnline)
	assert.True(t, *criteria.AvailableOnline)
	assert.Nil(t, criteria.UserID)
}

func TestParseWineCriteria_Malformed(t *testing.T) {
	for _, query := range []string{
		"min_rating=high",
		"min_rating=4.5",
		"max_price=cheap",
		"max_price=-1",
		"color=orange",
		"available_online=maybe",
	} {
		t.Run(query, func(t *testing.T) {
			_, err := ParseWineCriteria(httptest.NewRequest(http.MethodGet, "/wines/?"+query, nil))
			assert.Error(t, err)
		})
	}
}
