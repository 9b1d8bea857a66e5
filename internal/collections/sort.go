package collections

import (
	"sort"
	"strings"

	"git.home.luguber.info/inful/pagebuilder/internal/foundation/normalization"
)

// SortType selects how the sort field is compared.
type SortType string

const (
	SortDate         SortType = "date"
	SortAlphabetical SortType = "alphabetical"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// DefaultSortField is used when a sort spec names no field.
const DefaultSortField = "date"

var orderNormalizer = normalization.NewNormalizer(map[string]SortOrder{
	"asc":        OrderAsc,
	"ascending":  OrderAsc,
	"desc":       OrderDesc,
	"descending": OrderDesc,
}, "")

// SortSpec describes the ordering of a collection's items.
type SortSpec struct {
	By    string    `yaml:"by" json:"by"`
	Type  SortType  `yaml:"type" json:"type"`
	Order SortOrder `yaml:"order" json:"order"`
}

// NormalizeSort turns a loosely written sort spec into a complete SortSpec.
//
// A bare string becomes {by: thatString}. The field defaults to date; the type
// is date iff the field is date; the order defaults to descending for dates
// and ascending otherwise.
func NormalizeSort(raw any) SortSpec {
	var spec SortSpec
	switch v := raw.(type) {
	case SortSpec:
		spec = v
	case *SortSpec:
		if v != nil {
			spec = *v
		}
	case string:
		spec.By = v
	case map[string]any:
		if by, ok := v["by"].(string); ok {
			spec.By = by
		}
		if order, ok := v["order"].(string); ok {
			spec.Order = orderNormalizer.Normalize(order)
		}
	}

	spec.By = strings.TrimSpace(spec.By)
	if spec.By == "" {
		spec.By = DefaultSortField
	}
	if spec.By == DefaultSortField {
		spec.Type = SortDate
	} else {
		spec.Type = SortAlphabetical
	}

	spec.Order = orderNormalizer.Normalize(string(spec.Order))
	if spec.Order == "" {
		if spec.Type == SortDate {
			spec.Order = OrderDesc
		} else {
			spec.Order = OrderAsc
		}
	}
	return spec
}

// Sort orders items in place. The sort is stable, so equal keys keep
// discovery order. Unparseable dates compare as the zero time.
func Sort(items []Item, spec SortSpec) {
	spec = NormalizeSort(spec)
	compare := func(a, b Item) int {
		if spec.Type == SortDate {
			return a.dateOf(spec.By).Compare(b.dateOf(spec.By))
		}
		return strings.Compare(a.String(spec.By), b.String(spec.By))
	}

	sort.SliceStable(items, func(i, j int) bool {
		c := compare(items[i], items[j])
		if spec.Order == OrderDesc {
			return c > 0
		}
		return c < 0
	})
}
