package coffee

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// GRAMS - Bean weight with decimal precision
// =============================================================================

// Grams is a weight of coffee beans. All stock arithmetic goes through this
// type so quantities never touch floating point.
type Grams struct {
	Value decimal.Decimal
}

func NewGrams(value float64) Grams {
	return Grams{Value: decimal.NewFromFloat(value)}
}

func NewGramsFromInt(value int) Grams {
	return Grams{Value: decimal.NewFromInt(int64(value))}
}

// ParseGrams parses a decimal string ("18.5"). Malformed input yields zero.
func ParseGrams(s string) Grams {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Grams{Value: decimal.Zero}
	}
	return Grams{Value: d}
}

func ZeroGrams() Grams { return Grams{Value: decimal.Zero} }

func (g Grams) Add(o Grams) Grams        { return Grams{Value: g.Value.Add(o.Value)} }
func (g Grams) Sub(o Grams) Grams        { return Grams{Value: g.Value.Sub(o.Value)} }
func (g Grams) Neg() Grams               { return Grams{Value: g.Value.Neg()} }
func (g Grams) IsZero() bool             { return g.Value.IsZero() }
func (g Grams) IsNegative() bool         { return g.Value.IsNegative() }
func (g Grams) IsPositive() bool         { return g.Value.IsPositive() }
func (g Grams) Equal(o Grams) bool       { return g.Value.Equal(o.Value) }
func (g Grams) GreaterThan(o Grams) bool { return g.Value.GreaterThan(o.Value) }
func (g Grams) LessThan(o Grams) bool    { return g.Value.LessThan(o.Value) }

// FloorZero clamps a negative weight to zero. Over-draw on a lot silently
// discards the excess rather than failing; see Inventory.Decrement.
func (g Grams) FloorZero() Grams {
	if g.Value.IsNegative() {
		return ZeroGrams()
	}
	return g
}

func (g Grams) Float64() float64 {
	f, _ := g.Value.Float64()
	return f
}

func (g Grams) String() string { return g.Value.String() + "g" }
