package crawler

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Transform turns a value node into the final field text.
type Transform func(sel *goquery.Selection) string

// Extractor pulls wine attributes out of retailer pages.
type Extractor interface {
	// ExtractField returns the transformed value of the detail row whose label
	// equals label exactly, or ok=false when no such row exists.
	ExtractField(doc *goquery.Document, label string, transform Transform) (string, bool)
	// ExtractPrice returns the bare numeric price text, e.g. "12.99".
	ExtractPrice(doc *goquery.Document) (string, bool)
	// ExtractGrapeVarieties returns the varieties with blend percentages removed.
	ExtractGrapeVarieties(doc *goquery.Document) []string

	Name(doc *goquery.Document) (string, bool)
	OutOfStock(doc *goquery.Document) bool
	ProductLinks(doc *goquery.Document, base *url.URL) []string
	NextPage(doc *goquery.Document, base *url.URL) (string, bool)
}

var (
	rePercent       = regexp.MustCompile(`\s*[0-9]+(?:[.,][0-9]+)?\s*%`)
	reVarietySplit  = regexp.MustCompile(`\s*,\s*`)
	reOnclickURL    = regexp.MustCompile(`['"]((?:https?://|/|\?)[^'"]+)['"]`)
	reDecimalComma  = regexp.MustCompile(`^[0-9]*,[0-9]{1,2}$`)
	priceSpaceChars = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "\t", "", "\n", "")
)

// TrimText is the default transform: the node text with whitespace collapsed.
func TrimText(sel *goquery.Selection) string {
	return collapseSpace(sel.Text())
}

// StripSuffix returns a transform that drops marker and anything after it.
func StripSuffix(marker string) Transform {
	return func(sel *goquery.Selection) string {
		text := collapseSpace(sel.Text())
		if marker != "" {
			if i := strings.Index(text, marker); i >= 0 {
				text = strings.TrimSpace(text[:i])
			}
		}
		return text
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// MarkupExtractor implements Extractor with goquery selectors from a Markup.
type MarkupExtractor struct {
	markup Markup
}

var _ Extractor = (*MarkupExtractor)(nil)

func NewMarkupExtractor(markup Markup) *MarkupExtractor {
	return &MarkupExtractor{markup: markup}
}

// valueNode finds the value node for label. Label/value rows are scanned
// first, then nodes carrying the label in LabelAttr.
func (e *MarkupExtractor) valueNode(doc *goquery.Document, label string) *goquery.Selection {
	var found *goquery.Selection

	if e.markup.DetailRow != "" {
		doc.Find(e.markup.DetailRow).EachWithBreak(func(_ int, row *goquery.Selection) bool {
			if collapseSpace(row.Find(e.markup.DetailLabel).First().Text()) != label {
				return true
			}
			value := row.Find(e.markup.DetailValue).First()
			if value.Length() == 0 {
				return true
			}
			found = value
			return false
		})
	}
	if found != nil {
		return found
	}

	if e.markup.LabelAttr != "" {
		doc.Find("[" + e.markup.LabelAttr + "]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if v, _ := sel.Attr(e.markup.LabelAttr); strings.TrimSpace(v) == label {
				found = sel
				return false
			}
			return true
		})
	}
	return found
}

func (e *MarkupExtractor) ExtractField(doc *goquery.Document, label string, transform Transform) (string, bool) {
	if label == "" {
		return "", false
	}
	value := e.valueNode(doc, label)
	if value == nil {
		return "", false
	}
	if transform == nil {
		transform = TrimText
	}
	return transform(value), true
}

func (e *MarkupExtractor) ExtractGrapeVarieties(doc *goquery.Document) []string {
	value := e.valueNode(doc, e.markup.Labels.GrapeVarieties)
	if value == nil {
		return nil
	}

	var texts []string
	if items := value.Find("li"); items.Length() > 0 {
		items.Each(func(_ int, li *goquery.Selection) {
			texts = append(texts, li.Text())
		})
	} else {
		texts = append(texts, value.Text())
	}

	varieties := make([]string, 0, len(texts))
	for _, text := range texts {
		varieties = append(varieties, ParseGrapeVarieties(text)...)
	}
	return varieties
}

// ParseGrapeVarieties strips blend percentages and splits a comma separated
// list: "Cabernet Sauvignon 60 %, Merlot 40 %" -> [Cabernet Sauvignon, Merlot].
func ParseGrapeVarieties(text string) []string {
	text = rePercent.ReplaceAllString(collapseSpace(text), "")
	var out []string
	for _, part := range reVarietySplit.Split(text, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (e *MarkupExtractor) ExtractPrice(doc *goquery.Document) (string, bool) {
	sel := doc.Find(e.markup.Price).First()
	if sel.Length() == 0 {
		return "", false
	}
	if e.markup.PriceAttr != "" {
		if v, ok := sel.Attr(e.markup.PriceAttr); ok && strings.TrimSpace(v) != "" {
			return ParsePriceText(v)
		}
	}
	return ParsePriceText(sel.Text())
}

// ParsePriceText extracts the numeric part of a displayed price.
// The text after the currency symbol is kept up to a "*" promotional marker.
// A lone comma followed by one or two digits is a decimal separator, any
// other comma is a thousands separator: "$12,99*" -> "12.99",
// "$1,299.00" -> "1299.00".
func ParsePriceText(raw string) (string, bool) {
	s := priceSpaceChars.Replace(raw)

	if i := strings.Index(s, "$"); i >= 0 {
		if after := s[i+1:]; after != "" {
			s = after
		} else {
			s = s[:i] // trailing currency symbol, as in "12,99$"
		}
	}
	if i := strings.Index(s, "*"); i >= 0 {
		s = s[:i]
	}

	if reDecimalComma.MatchString(s) {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	if s == "" {
		return "", false
	}
	return s, true
}

func (e *MarkupExtractor) Name(doc *goquery.Document) (string, bool) {
	name := collapseSpace(doc.Find(e.markup.Name).First().Text())
	return name, name != ""
}

func (e *MarkupExtractor) OutOfStock(doc *goquery.Document) bool {
	if e.markup.OutOfStock == "" {
		return false
	}
	return doc.Find(e.markup.OutOfStock).Length() > 0
}

// ProductLinks returns the absolute product URLs on a listing page, in page
// order and without duplicates.
func (e *MarkupExtractor) ProductLinks(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]bool)
	var links []string
	doc.Find(e.markup.ProductLink).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		abs := ResolveHref(base, href)
		if seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, abs)
	})
	return links
}

// NextPage resolves the target of the next-page control. The URL may sit in
// href or inside a client-side navigation attribute (data-url, data-href,
// onclick).
func (e *MarkupExtractor) NextPage(doc *goquery.Document, base *url.URL) (string, bool) {
	if e.markup.NextPage == "" {
		return "", false
	}
	sel := doc.Find(e.markup.NextPage).First()
	if sel.Length() == 0 {
		return "", false
	}

	candidates := []string{attr(sel, "href"), attr(sel, "data-url"), attr(sel, "data-href")}
	if m := reOnclickURL.FindStringSubmatch(attr(sel, "onclick")); m != nil {
		candidates = append(candidates, m[1])
	}

	for _, c := range candidates {
		if c == "" || c == "#" || strings.HasPrefix(strings.ToLower(c), "javascript:") {
			continue
		}
		return ResolveHref(base, c), true
	}
	return "", false
}

func attr(sel *goquery.Selection, name string) string {
	v, _ := sel.Attr(name)
	return strings.TrimSpace(v)
}

// ResolveHref resolves href against base, returning an absolute URL string.
func ResolveHref(base *url.URL, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}
