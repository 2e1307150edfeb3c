package view

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/JJCAR01/UX/internal/inventory"
)

// Criteria are the inclusion rules applied to the product cache.
type Criteria struct {
	Search   string
	Category string
	Stock    StockLevel
}

// Match reports whether p passes every rule in c.
func (c Criteria) Match(p inventory.Product) bool {
	if term := strings.ToLower(c.Search); term != "" {
		if !strings.Contains(strings.ToLower(p.Code), term) &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			return false
		}
	}
	if c.Category != "" && p.Category != c.Category {
		return false
	}
	return c.Stock.Matches(p.Quantity)
}

// Filter returns the products matching c in their original order.
func Filter(products []inventory.Product, c Criteria) []inventory.Product {
	out := make([]inventory.Product, 0, len(products))
	for _, p := range products {
		if c.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// SortKey selects the ordering of the filtered list.
type SortKey string

const (
	SortName         SortKey = "name"
	SortNameDesc     SortKey = "name-desc"
	SortCode         SortKey = "code"
	SortQuantity     SortKey = "quantity"
	SortQuantityDesc SortKey = "quantity-desc"
	SortRecent       SortKey = "recent"
	SortOldest       SortKey = "oldest"
)

// SortKeys lists the supported orderings in menu order.
var SortKeys = []SortKey{SortName, SortNameDesc, SortCode, SortQuantity, SortQuantityDesc, SortRecent, SortOldest}

// Label returns a short description of the ordering.
func (k SortKey) Label() string {
	switch k {
	case SortName:
		return "Name A-Z"
	case SortNameDesc:
		return "Name Z-A"
	case SortCode:
		return "Code"
	case SortQuantity:
		return "Stock ↑"
	case SortQuantityDesc:
		return "Stock ↓"
	case SortRecent:
		return "Most recent"
	case SortOldest:
		return "Oldest"
	default:
		return string(k)
	}
}

// newCollator mirrors the browser's localeCompare for Spanish names.
// Collators are not safe for concurrent use, so callers build their own.
func newCollator() *collate.Collator {
	return collate.New(language.Spanish)
}

// Sort orders products in place with a stable comparator.
// An unknown key leaves the order untouched.
func Sort(products []inventory.Product, key SortKey) {
	var order func(a, b inventory.Product) int

	switch key {
	case SortName:
		col := newCollator()
		order = func(a, b inventory.Product) int { return col.CompareString(a.Name, b.Name) }
	case SortNameDesc:
		col := newCollator()
		order = func(a, b inventory.Product) int { return col.CompareString(b.Name, a.Name) }
	case SortCode:
		col := newCollator()
		order = func(a, b inventory.Product) int { return col.CompareString(a.Code, b.Code) }
	case SortQuantity:
		order = func(a, b inventory.Product) int { return cmp.Compare(a.Quantity, b.Quantity) }
	case SortQuantityDesc:
		order = func(a, b inventory.Product) int { return cmp.Compare(b.Quantity, a.Quantity) }
	case SortRecent:
		order = func(a, b inventory.Product) int { return b.LastUpdated.Compare(a.LastUpdated.Time) }
	case SortOldest:
		order = func(a, b inventory.Product) int { return a.LastUpdated.Compare(b.LastUpdated.Time) }
	default:
		return
	}

	slices.SortStableFunc(products, order)
}

// Categories returns the distinct non-empty categories, collated.
func Categories(products []inventory.Product) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	col := newCollator()
	col.SortStrings(out)
	return out
}
