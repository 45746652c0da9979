// Package models contains domain types for the wine service.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WineColor is the color of a wine, stored as the wine_color enum.
type WineColor string

const (
	WineColorRed   WineColor = "red"
	WineColorWhite WineColor = "white"
	WineColorPink  WineColor = "pink"
)

// String returns the string representation of a WineColor.
func (c WineColor) String() string {
	return string(c)
}

// IsValid returns true if c is one of the known colors.
func (c WineColor) IsValid() bool {
	switch c {
	case WineColorRed, WineColorWhite, WineColorPink:
		return true
	default:
		return false
	}
}

// ParseWineColor parses a color name case-insensitively.
func ParseWineColor(s string) (WineColor, error) {
	c := WineColor(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("unknown wine color %q", s)
	}
	return c, nil
}

// UnmarshalJSON accepts any casing of a known color.
func (c *WineColor) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseWineColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// CatalogWine is one wine scraped from the retailer catalog.
// The catalog is fully replaced on every crawl.
type CatalogWine struct {
	ID                  int64           `json:"id"`
	Name                string          `json:"name"`
	Country             string          `json:"country"`
	Region              string          `json:"region"`
	DesignationOfOrigin string          `json:"designation_of_origin"` // empty unless regulated
	Producer            string          `json:"producer"`
	VolumeML            decimal.Decimal `json:"volume_ml"`
	Price               decimal.Decimal `json:"price"`
	AlcoholPercent      decimal.Decimal `json:"alcohol_percent"`
	Color               WineColor       `json:"color"`
	GrapeVarieties      []string        `json:"grape_varieties"`
	AvailableOnline     bool            `json:"available_online"`
	ProductURL          string          `json:"product_url"`
	CrawledAt           time.Time       `json:"crawled_at"`
}

// WineRecommendation is a user-authored template matched against the catalog.
// Empty text fields act as wildcards. A nil UserID marks a global recommendation.
type WineRecommendation struct {
	ID                  int64     `json:"id"`
	Country             string    `json:"country"`
	Region              string    `json:"region"`
	DesignationOfOrigin string    `json:"designation_of_origin"`
	Producer            string    `json:"producer"`
	GrapeVariety        string    `json:"grape_variety"`
	WineName            string    `json:"wine_name"`
	Color               WineColor `json:"color"`
	Rating              int       `json:"rating"`
	UserID              *int64    `json:"user_id,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Normalize trims surrounding whitespace from the text fields.
func (r *WineRecommendation) Normalize() {
	r.Country = strings.TrimSpace(r.Country)
	r.Region = strings.TrimSpace(r.Region)
	r.DesignationOfOrigin = strings.TrimSpace(r.DesignationOfOrigin)
	r.Producer = strings.TrimSpace(r.Producer)
	r.GrapeVariety = strings.TrimSpace(r.GrapeVariety)
	r.WineName = strings.TrimSpace(r.WineName)
}

// Validate checks the fields that have no wildcard form.
func (r *WineRecommendation) Validate() error {
	if !r.Color.IsValid() {
		return fmt.Errorf("color must be one of red, white, pink")
	}
	return nil
}
