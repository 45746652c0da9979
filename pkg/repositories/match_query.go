package repositories

import (
	"fmt"
	"strings"

	"github.com/winecollections/winecollections/pkg/models"
)

// matchJoin is the fuzzy join between catalog rows and recommendations.
// An empty recommendation field matches any catalog value.
const matchJoin = `
	SELECT c.id, c.name, c.available_online, c.country, c.region,
	       c.designation_of_origin, c.producer, c.color::text,
	       c.volume_ml::text, c.price::text, r.rating, r.id
	FROM catalog_wines c
	JOIN wine_recommendations r ON
	        (r.country = '' OR c.country ILIKE r.country)
	    AND (r.region = '' OR c.region ILIKE r.region)
	    AND (r.designation_of_origin = '' OR c.designation_of_origin ILIKE r.designation_of_origin || '%')
	    AND (r.wine_name = '' OR c.name ILIKE r.wine_name || '%')
	    AND (r.producer = '' OR c.producer ILIKE r.producer)
	    AND (r.grape_variety = '' OR r.grape_variety ILIKE ANY(c.grape_varieties))
	    AND c.color = r.color`

// matchOrder puts the cheapest wine per millilitre first. The trailing keys
// only make the order deterministic.
const matchOrder = `
	ORDER BY c.price / c.volume_ml ASC, c.id ASC, r.rating DESC, r.id ASC`

// buildMatchQuery renders the match SQL with one positional argument per
// criterion that is set.
func buildMatchQuery(criteria models.WineCriteria) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(format string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	if criteria.MinRating != nil {
		add("r.rating >= $%d", *criteria.MinRating)
	}
	if criteria.MaxPrice != nil {
		// Cross-multiplied so the 750 ml normalization never rounds.
		add("c.price * 750 <= $%d::numeric * c.volume_ml", criteria.MaxPrice.String())
	}
	if criteria.Color != nil {
		add("c.color = $%d::wine_color", string(*criteria.Color))
	}
	if criteria.AvailableOnline != nil {
		add("c.available_online = $%d", *criteria.AvailableOnline)
	}
	if criteria.UserID != nil {
		add("r.user_id = $%d", *criteria.UserID)
	} else {
		conds = append(conds, "r.user_id IS NULL")
	}

	var b strings.Builder
	b.WriteString(matchJoin)
	b.WriteString("\n\tWHERE ")
	b.WriteString(strings.Join(conds, "\n\t  AND "))
	b.WriteString(matchOrder)
	return b.String(), args
}
