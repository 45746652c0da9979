package crawler

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/winecollections/winecollections/pkg/models"
)

// TableWineLabel is the regulated-designation value of unregulated wines.
const TableWineLabel = "Table wine"

// RawWine holds the strings extracted from one product page.
// An empty string means the field was absent.
type RawWine struct {
	URL                  string
	Name                 string
	Price                string
	Country              string
	Region               string
	Designation          string
	RegulatedDesignation string
	Producer             string
	Size                 string
	Alcohol              string
	Color                string
	GrapeVarieties       []string
	OutOfStock           bool
}

var reNumericPrefix = regexp.MustCompile(`^\s*([0-9]+(?:[.,][0-9]+)?)`)

// The retailer labels pink wines "Rosé".
var colorSynonyms = map[string]models.WineColor{
	"red":   models.WineColorRed,
	"white": models.WineColorWhite,
	"pink":  models.WineColorPink,
	"rosé":  models.WineColorPink,
}

// Normalize converts raw page strings into a catalog wine. It either returns
// a fully valid record or an *ExtractionError / *NormalizationError.
func Normalize(raw RawWine) (*models.CatalogWine, error) {
	required := []struct {
		field string
		value string
	}{
		{"name", raw.Name},
		{"country", raw.Country},
		{"producer", raw.Producer},
		{"color", raw.Color},
		{"price", raw.Price},
		{"size", raw.Size},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, &ExtractionError{Field: r.field}
		}
	}

	price, err := decimal.NewFromString(strings.TrimSpace(raw.Price))
	if err != nil {
		return nil, &NormalizationError{Field: "price", Value: raw.Price, Err: err}
	}
	if price.IsNegative() {
		return nil, &NormalizationError{Field: "price", Value: raw.Price, Err: errors.New("negative price")}
	}

	volume, err := NormalizeVolume(raw.Size)
	if err != nil {
		return nil, err
	}

	alcohol, err := NormalizeAlcohol(raw.Alcohol)
	if err != nil {
		return nil, err
	}

	color, err := NormalizeColor(raw.Color)
	if err != nil {
		return nil, err
	}

	varieties := raw.GrapeVarieties
	if varieties == nil {
		varieties = []string{}
	}

	return &models.CatalogWine{
		Name:                strings.TrimSpace(raw.Name),
		Country:             strings.TrimSpace(raw.Country),
		Region:              strings.TrimSpace(raw.Region),
		DesignationOfOrigin: NormalizeDesignation(raw.Designation, raw.RegulatedDesignation),
		Producer:            strings.TrimSpace(raw.Producer),
		VolumeML:            volume,
		Price:               price,
		AlcoholPercent:      alcohol,
		Color:               color,
		GrapeVarieties:      varieties,
		AvailableOnline:     !raw.OutOfStock,
		ProductURL:          raw.URL,
	}, nil
}

// NormalizeVolume converts a size label to millilitres. A label containing
// "ml" is already in millilitres; anything else is litres.
// "750 ml" -> 750, "1.5 L" -> 1500, "0.75L" -> 750.
func NormalizeVolume(text string) (decimal.Decimal, error) {
	n, err := numericPrefix(text)
	if err != nil {
		return decimal.Zero, &NormalizationError{Field: "size", Value: text, Err: err}
	}

	volume := n
	if !strings.Contains(strings.ToLower(text), "ml") {
		volume = n.Mul(decimal.NewFromInt(1000)).Round(0)
	}
	if !volume.IsPositive() {
		return decimal.Zero, &NormalizationError{Field: "size", Value: text, Err: errors.New("volume must be positive")}
	}
	return volume, nil
}

// NormalizeAlcohol parses "13.5 %" into 13.5. An absent field is zero.
func NormalizeAlcohol(text string) (decimal.Decimal, error) {
	if strings.TrimSpace(text) == "" {
		return decimal.Zero, nil
	}
	before, _, _ := strings.Cut(text, "%")
	n, err := numericPrefix(before)
	if err != nil {
		return decimal.Zero, &NormalizationError{Field: "alcohol", Value: text, Err: err}
	}
	return n, nil
}

// NormalizeColor maps retailer color text to a WineColor.
func NormalizeColor(text string) (models.WineColor, error) {
	if c, ok := colorSynonyms[strings.ToLower(strings.TrimSpace(text))]; ok {
		return c, nil
	}
	return "", &NormalizationError{Field: "color", Value: text, Err: ErrUnrecognizedColor}
}

// NormalizeDesignation keeps the designation only when the regulated label
// is present and is not "Table wine".
func NormalizeDesignation(designation, regulatedLabel string) string {
	designation = strings.TrimSpace(designation)
	regulatedLabel = strings.TrimSpace(regulatedLabel)
	if designation == "" || regulatedLabel == "" || regulatedLabel == TableWineLabel {
		return ""
	}
	return designation
}

func numericPrefix(text string) (decimal.Decimal, error) {
	m := reNumericPrefix.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, errors.New("no numeric value")
	}
	return decimal.NewFromString(strings.Replace(m[1], ",", ".", 1))
}
