package contracts

// Category is a trading-horizon classification. Each category carries its
// own scoring weights and heuristics.
type Category string

const (
	CategoryDayTrade      Category = "day_trade"
	CategorySwingTrade    Category = "swing_trade"
	CategoryShortTermHold Category = "short_term_hold"
	CategoryLongTermHold  Category = "long_term_hold"
)

// AllCategories lists every supported category in scan order
var AllCategories = []Category{
	CategoryDayTrade,
	CategorySwingTrade,
	CategoryShortTermHold,
	CategoryLongTermHold,
}

// Valid reports whether the category is one of the supported values
func (c Category) Valid() bool {
	switch c {
	case CategoryDayTrade, CategorySwingTrade, CategoryShortTermHold, CategoryLongTermHold:
		return true
	}
	return false
}
