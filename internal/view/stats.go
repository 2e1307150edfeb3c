package view

import (
	"slices"
	"time"

	"github.com/JJCAR01/UX/internal/inventory"
)

// recentCount is how many products the dashboard lists as recent.
const recentCount = 3

// defaultUnitPrice is used for categories without an estimate.
const defaultUnitPrice = 10.00

// unitPriceEstimates are rough per-unit prices by category. The API has
// no prices, so inventory value is an estimate.
var unitPriceEstimates = map[string]float64{
	"Ferretería":  2.50,
	"Electrónica": 15.75,
	"Oficina":     8.20,
	"Limpieza":    5.30,
}

// EstimatedUnitPrice returns the price estimate for a category.
func EstimatedUnitPrice(category string) float64 {
	if p, ok := unitPriceEstimates[category]; ok {
		return p
	}
	return defaultUnitPrice
}

// InventoryStats are the headline numbers of the inventory screen.
type InventoryStats struct {
	Total    int
	Critical int
	Value    float64
}

// ComputeInventoryStats summarises the whole product list.
func ComputeInventoryStats(products []inventory.Product) InventoryStats {
	s := InventoryStats{Total: len(products)}
	for _, p := range products {
		if StockLevelOf(p.Quantity) == StockCritical {
			s.Critical++
		}
		s.Value += float64(p.Quantity) * EstimatedUnitPrice(p.Category)
	}
	return s
}

// Dashboard holds the metrics shown after login.
type Dashboard struct {
	Total        int
	UpdatedToday int
	LowStock     int
	Recent       []inventory.Product
}

// ComputeDashboard summarises products relative to now. Low stock uses
// the low filter, so critical products are counted too.
func ComputeDashboard(products []inventory.Product, now time.Time) Dashboard {
	d := Dashboard{Total: len(products)}

	y, m, day := now.Date()
	for _, p := range products {
		if !p.LastUpdated.IsZero() {
			py, pm, pd := p.LastUpdated.In(now.Location()).Date()
			if py == y && pm == m && pd == day {
				d.UpdatedToday++
			}
		}
		if StockLow.Matches(p.Quantity) {
			d.LowStock++
		}
	}

	recent := make([]inventory.Product, len(products))
	copy(recent, products)
	Sort(recent, SortRecent)
	if len(recent) > recentCount {
		recent = recent[:recentCount]
	}
	d.Recent = recent

	return d
}

// CategoryCount is the number of products and units in a category.
type CategoryCount struct {
	Category string
	Products int
	Units    int
	Value    float64
}

// Breakdown is the report of stock bands and categories.
type Breakdown struct {
	ByLevel    map[StockLevel]int
	ByCategory []CategoryCount
	Value      float64
}

// ComputeBreakdown groups products by stock band and category.
// Categories are ordered by product count, then name.
func ComputeBreakdown(products []inventory.Product) Breakdown {
	b := Breakdown{ByLevel: make(map[StockLevel]int, len(StockLevels))}

	idx := make(map[string]int)
	for _, p := range products {
		b.ByLevel[StockLevelOf(p.Quantity)]++

		value := float64(p.Quantity) * EstimatedUnitPrice(p.Category)
		b.Value += value

		i, ok := idx[p.Category]
		if !ok {
			i = len(b.ByCategory)
			idx[p.Category] = i
			b.ByCategory = append(b.ByCategory, CategoryCount{Category: p.Category})
		}
		b.ByCategory[i].Products++
		b.ByCategory[i].Units += p.Quantity
		b.ByCategory[i].Value += value
	}

	col := newCollator()
	slices.SortStableFunc(b.ByCategory, func(a, c CategoryCount) int {
		if a.Products != c.Products {
			return c.Products - a.Products
		}
		return col.CompareString(a.Category, c.Category)
	})

	return b
}
