package consumption

import "snaptrack/internal/units"

// inUnit converts a base quantity back into unit using that unit's own
// factor, so every synonym of a unit ("kilograms", "liter") round-trips.
// units.FromBase only inverts the short "kg" and "l" forms.
func inUnit(baseQuantity float64, unit string) float64 {
	factor, _ := units.ToBase(1, unit)
	return baseQuantity / factor
}

// convert expresses quantity, given in from, in the unit to. It reports false
// when the two units cannot be combined.
func convert(quantity float64, from, to string) (float64, bool) {
	if !units.Compatible(from, to) {
		return 0, false
	}
	if units.Normalize(from) == units.Normalize(to) {
		return quantity, true
	}
	base, _ := units.ToBase(quantity, from)
	return inUnit(base, to), true
}

// subtract removes amount, given in amountUnit, from stock held in
// stockUnit and returns the result in stockUnit.
func subtract(stock float64, stockUnit string, amount float64, amountUnit string) (float64, bool) {
	delta, ok := convert(amount, amountUnit, stockUnit)
	if !ok {
		return 0, false
	}
	return stock - delta, true
}
