package crawler

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winecollections/winecollections/pkg/models"
)

func validRaw() RawWine {
	return RawWine{
		URL:                  "https://www.example.com/en/p1",
		Name:                 "Château Test 2019",
		Price:                "24.95",
		Country:              "France",
		Region:               "Bordeaux",
		Designation:          "Saint-Émilion",
		RegulatedDesignation: "Appellation d'origine contrôlée (AOC)",
		Producer:             "Château Test",
		Size:                 "750 ml",
		Alcohol:              "13.5 %",
		Color:                "Red",
		GrapeVarieties:       []string{"Merlot", "Cabernet franc"},
	}
}

func TestNormalizeVolume(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  int64
	}{
		{"750 ml", 750},
		{"1.5 L", 1500},
		{"0.75L", 750},
		{"375 mL", 375},
		{"1,5 L", 1500},
		{"3 L", 3000},
	}
	for _, tt := range tests {
		got, err := NormalizeVolume(tt.input)
		require.NoError(t, err, tt.input)
		assert.True(t, decimal.NewFromInt(tt.want).Equal(got), "%s: got %s", tt.input, got)
	}
}

func TestNormalizeVolume_Invalid(t *testing.T) {
	t.Parallel()
	for _, input := range []string{"", "magnum", "0 ml", "0.0001 L"} {
		_, err := NormalizeVolume(input)
		var ne *NormalizationError
		assert.True(t, errors.As(err, &ne), "input %q", input)
	}
}

func TestNormalizeAlcohol(t *testing.T) {
	t.Parallel()
	got, err := NormalizeAlcohol("13.5 %")
	require.NoError(t, err)
	assert.Equal(t, "13.5", got.String())

	got, err = NormalizeAlcohol("12,5%")
	require.NoError(t, err)
	assert.Equal(t, "12.5", got.String())

	got, err = NormalizeAlcohol("")
	require.NoError(t, err)
	assert.True(t, got.IsZero(), "absent alcohol defaults to zero")

	_, err = NormalizeAlcohol("n/a %")
	assert.Error(t, err)
}

func TestNormalizeDesignation(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", NormalizeDesignation("AOC Bordeaux", "Table wine"))
	assert.Equal(t, "AOC Bordeaux", NormalizeDesignation("AOC Bordeaux", "Appellation"))
	assert.Equal(t, "", NormalizeDesignation("AOC Bordeaux", ""), "label must be present")
	assert.Equal(t, "", NormalizeDesignation("", "Appellation"))
}

func TestNormalizeColor(t *testing.T) {
	t.Parallel()
	tests := map[string]models.WineColor{
		"Red":   models.WineColorRed,
		"WHITE": models.WineColorWhite,
		" pink": models.WineColorPink,
		"Rosé":  models.WineColorPink,
	}
	for input, want := range tests {
		got, err := NormalizeColor(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	for _, input := range []string{"Orange", "rouge", "blanc", "rose", ""} {
		_, err := NormalizeColor(input)
		assert.ErrorIs(t, err, ErrUnrecognizedColor, input)
	}
}

func TestNormalize_Valid(t *testing.T) {
	t.Parallel()
	wine, err := Normalize(validRaw())
	require.NoError(t, err)

	assert.Equal(t, "Château Test 2019", wine.Name)
	assert.Equal(t, "Saint-Émilion", wine.DesignationOfOrigin)
	assert.Equal(t, models.WineColorRed, wine.Color)
	assert.Equal(t, "750", wine.VolumeML.String())
	assert.Equal(t, "24.95", wine.Price.String())
	assert.Equal(t, "13.5", wine.AlcoholPercent.String())
	assert.Equal(t, []string{"Merlot", "Cabernet franc"}, wine.GrapeVarieties)
	assert.True(t, wine.AvailableOnline, "absence of the out-of-stock marker means available")
	assert.Equal(t, "https://www.example.com/en/p1", wine.ProductURL)
}

func TestNormalize_OptionalFieldsAbsent(t *testing.T) {
	t.Parallel()
	raw := validRaw()
	raw.Region = ""
	raw.Designation = ""
	raw.RegulatedDesignation = ""
	raw.Alcohol = ""
	raw.GrapeVarieties = nil
	raw.OutOfStock = true

	wine, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "", wine.Region)
	assert.Equal(t, "", wine.DesignationOfOrigin)
	assert.True(t, wine.AlcoholPercent.IsZero())
	assert.Equal(t, []string{}, wine.GrapeVarieties)
	assert.False(t, wine.AvailableOnline)
}

func TestNormalize_TableWineClearsDesignation(t *testing.T) {
	t.Parallel()
	raw := validRaw()
	raw.RegulatedDesignation = "Table wine"

	wine, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "", wine.DesignationOfOrigin)
}

func TestNormalize_RequiredFieldsMissing(t *testing.T) {
	t.Parallel()
	clearField := map[string]func(*RawWine){
		"name":     func(r *RawWine) { r.Name = "" },
		"country":  func(r *RawWine) { r.Country = "" },
		"producer": func(r *RawWine) { r.Producer = " " },
		"color":    func(r *RawWine) { r.Color = "" },
		"price":    func(r *RawWine) { r.Price = "" },
		"size":     func(r *RawWine) { r.Size = "" },
	}
	for field, apply := range clearField {
		raw := validRaw()
		apply(&raw)

		_, err := Normalize(raw)
		var ee *ExtractionError
		require.True(t, errors.As(err, &ee), "field %s", field)
		assert.Equal(t, field, ee.Field)
	}
}

func TestNormalize_MalformedValues(t *testing.T) {
	t.Parallel()
	tests := map[string]func(*RawWine){
		"price":   func(r *RawWine) { r.Price = "12.99.1" },
		"size":    func(r *RawWine) { r.Size = "large" },
		"alcohol": func(r *RawWine) { r.Alcohol = "strong %" },
		"color":   func(r *RawWine) { r.Color = "Amber" },
	}
	for field, apply := range tests {
		raw := validRaw()
		apply(&raw)

		_, err := Normalize(raw)
		var ne *NormalizationError
		require.True(t, errors.As(err, &ne), "field %s", field)
		assert.Equal(t, field, ne.Field)
	}
}
