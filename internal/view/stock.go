// Package view derives the filtered, sorted, paginated and selected
// projection of the product cache that the UI renders.
package view

// Stock thresholds shared by classification and filtering.
const (
	criticalBelow = 5
	lowBelow      = 10
	normalMax     = 50
)

// StockLevel classifies a quantity into a band. The empty level is
// used as "no stock filter".
type StockLevel string

const (
	StockAny      StockLevel = ""
	StockCritical StockLevel = "critical"
	StockLow      StockLevel = "low"
	StockNormal   StockLevel = "normal"
	StockHigh     StockLevel = "high"
)

// StockLevels lists the bands from lowest to highest.
var StockLevels = []StockLevel{StockCritical, StockLow, StockNormal, StockHigh}

// StockLevelOf classifies a quantity.
func StockLevelOf(quantity int) StockLevel {
	switch {
	case quantity < criticalBelow:
		return StockCritical
	case quantity < lowBelow:
		return StockLow
	case quantity <= normalMax:
		return StockNormal
	default:
		return StockHigh
	}
}

// Matches reports whether quantity passes the level used as a filter.
// The low filter includes critical quantities.
func (l StockLevel) Matches(quantity int) bool {
	switch l {
	case StockCritical:
		return quantity < criticalBelow
	case StockLow:
		return quantity < lowBelow
	case StockNormal:
		return quantity >= lowBelow && quantity <= normalMax
	case StockHigh:
		return quantity > normalMax
	default:
		return true
	}
}

// Label returns the human readable name of the level.
func (l StockLevel) Label() string {
	switch l {
	case StockCritical:
		return "Critical"
	case StockLow:
		return "Low"
	case StockNormal:
		return "Normal"
	case StockHigh:
		return "High"
	default:
		return "All stock"
	}
}

// Icon returns a one-glyph badge for the level.
func (l StockLevel) Icon() string {
	switch l {
	case StockCritical:
		return "▲"
	case StockLow:
		return "!"
	case StockNormal:
		return "✓"
	case StockHigh:
		return "↑"
	default:
		return " "
	}
}

// ParseStockLevel converts a filter value into a level.
func ParseStockLevel(s string) (StockLevel, bool) {
	switch l := StockLevel(s); l {
	case StockAny, StockCritical, StockLow, StockNormal, StockHigh:
		return l, true
	}
	return StockAny, false
}
