package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// WineCriteria holds the optional filters applied on top of the
// recommendation join. Nil fields are not filtered on.
type WineCriteria struct {
	MinRating       *int
	MaxPrice        *decimal.Decimal // bottle price ceiling
	Color           *WineColor
	AvailableOnline *bool

	// UserID restricts matching to the user's own recommendations.
	// Nil restricts matching to global recommendations.
	UserID *int64
}

// WineMatch is one row of the catalog/recommendation join.
type WineMatch struct {
	CatalogID           int64
	Name                string
	AvailableOnline     bool
	Country             string
	Region              string
	DesignationOfOrigin string
	Producer            string
	Color               WineColor
	VolumeML            decimal.Decimal
	Price               decimal.Decimal
	Rating              int
	RecommendationID    int64
}

// WineResult is a match rendered for display.
// It serializes as a fixed-order JSON array:
// [id, name, available_online, country, region, designation_of_origin,
// producer, color, "<volume> ml", "$<price>", rating].
type WineResult struct {
	ID                  int64
	Name                string
	AvailableOnline     bool
	Country             string
	Region              string
	DesignationOfOrigin string
	Producer            string
	Color               WineColor
	Volume              string
	Price               string
	Rating              int
}

// NewWineResult formats a match for display.
func NewWineResult(m WineMatch) WineResult {
	return WineResult{
		ID:                  m.CatalogID,
		Name:                m.Name,
		AvailableOnline:     m.AvailableOnline,
		Country:             m.Country,
		Region:              m.Region,
		DesignationOfOrigin: m.DesignationOfOrigin,
		Producer:            m.Producer,
		Color:               m.Color,
		Volume:              m.VolumeML.String() + " ml",
		Price:               "$" + m.Price.StringFixed(2),
		Rating:              m.Rating,
	}
}

// MarshalJSON encodes the result as a positional tuple.
func (r WineResult) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{
		r.ID,
		r.Name,
		r.AvailableOnline,
		r.Country,
		r.Region,
		r.DesignationOfOrigin,
		r.Producer,
		r.Color,
		r.Volume,
		r.Price,
		r.Rating,
	})
}
