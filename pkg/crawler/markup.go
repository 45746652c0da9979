package crawler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Markup describes where wine attributes live in the retailer's HTML.
// Selectors are CSS selectors understood by goquery.
type Markup struct {
	// Listing pages
	ProductLink string `yaml:"product_link"`
	NextPage    string `yaml:"next_page"`

	// Detail pages
	Name       string `yaml:"name"`
	Price      string `yaml:"price"`
	PriceAttr  string `yaml:"price_attr"` // preferred over the node text when present
	OutOfStock string `yaml:"out_of_stock"`

	// Label/value rows: each DetailRow holds one DetailLabel and one DetailValue.
	DetailRow   string `yaml:"detail_row"`
	DetailLabel string `yaml:"detail_label"`
	DetailValue string `yaml:"detail_value"`

	// LabelAttr names an attribute carrying the label on the value node itself
	// (e.g. <span data-th="Country">France</span>). Checked after DetailRow.
	LabelAttr string `yaml:"label_attr"`

	Labels Labels `yaml:"labels"`
}

// Labels are the exact label texts of the detail rows.
type Labels struct {
	Country              string `yaml:"country"`
	Region               string `yaml:"region"`
	Designation          string `yaml:"designation"`
	RegulatedDesignation string `yaml:"regulated_designation"`
	Producer             string `yaml:"producer"`
	Size                 string `yaml:"size"`
	Alcohol              string `yaml:"alcohol"`
	Color                string `yaml:"color"`
	GrapeVarieties       string `yaml:"grape_varieties"`

	// ProducerSuffix is marketing text appended after the producer name.
	ProducerSuffix string `yaml:"producer_suffix"`
}

// DefaultMarkup returns the selectors for the current retailer markup.
func DefaultMarkup() Markup {
	return Markup{
		ProductLink: "div.product-item-info a.product-item-photo[href], div.product-item-info a.product-item-link[href]",
		NextPage:    "a.action.next, a.next, li.pages-item-next a",

		Name:       "h1.page-title",
		Price:      "[data-price-type=finalPrice]",
		PriceAttr:  "data-price-amount",
		OutOfStock: ".out-of-stock-online",

		DetailRow:   "ul.list-attributs li",
		DetailLabel: "strong",
		DetailValue: "span",
		LabelAttr:   "data-th",

		Labels: Labels{
			Country:              "Country",
			Region:               "Region",
			Designation:          "Designation of origin",
			RegulatedDesignation: "Regulated Designation",
			Producer:             "Producer",
			Size:                 "Size",
			Alcohol:              "Degree of alcohol",
			Color:                "Color",
			GrapeVarieties:       "Grape variety",
			ProducerSuffix:       "All products from this producer",
		},
	}
}

// LoadMarkup reads a YAML markup file. Keys absent from the file keep their
// default values.
func LoadMarkup(path string) (Markup, error) {
	m := DefaultMarkup()

	b, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("read markup file: %w", err)
	}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("parse markup yaml: %w", err)
	}
	if m.ProductLink == "" || m.Name == "" || m.Price == "" {
		return m, fmt.Errorf("markup file must not clear product_link, name or price")
	}
	return m, nil
}
