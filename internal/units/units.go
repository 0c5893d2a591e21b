// Package units converts ingredient and stock quantities to a common base unit.
//
// Three families are supported: mass (base "g"), volume (base "ml") and count
// (base "units"). Anything else passes through unchanged with its normalised
// name as the base unit, so callers must compare the returned base units
// before combining quantities.
package units

import "strings"

// Base unit tags returned by ToBase.
const (
	Gram       = "g"
	Millilitre = "ml"
	Unit       = "units"
)

// Family groups units that can be converted into each other.
type Family string

const (
	Mass    Family = "mass"
	Volume  Family = "volume"
	Count   Family = "count"
	Unknown Family = "unknown"
)

type conversion struct {
	base   string
	factor float64
}

var conversions = map[string]conversion{
	"kg":          {Gram, 1000},
	"kilogram":    {Gram, 1000},
	"kilograms":   {Gram, 1000},
	"g":           {Gram, 1},
	"gram":        {Gram, 1},
	"grams":       {Gram, 1},
	"l":           {Millilitre, 1000},
	"liter":       {Millilitre, 1000},
	"liters":      {Millilitre, 1000},
	"ml":          {Millilitre, 1},
	"milliliter":  {Millilitre, 1},
	"milliliters": {Millilitre, 1},
	"pcs":         {Unit, 1},
	"piece":       {Unit, 1},
	"pieces":      {Unit, 1},
	"unit":        {Unit, 1},
	"units":       {Unit, 1},
}

// Normalize trims and lower-cases a unit name.
func Normalize(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}

// ToBase converts quantity expressed in unit to its base unit. Unknown units
// are returned unchanged, tagged with their normalised name.
func ToBase(quantity float64, unit string) (float64, string) {
	name := Normalize(unit)
	if c, ok := conversions[name]; ok {
		return quantity * c.factor, c.base
	}
	return quantity, name
}

// FromBase converts a base quantity back into targetUnit. Only "kg" and "l"
// have a real inverse; every other unit returns the base quantity as is.
func FromBase(quantity float64, targetUnit string) float64 {
	switch Normalize(targetUnit) {
	case "kg", "l":
		return quantity / 1000
	default:
		return quantity
	}
}

// FamilyOf reports the family a unit belongs to.
func FamilyOf(unit string) Family {
	_, base := ToBase(0, unit)
	switch base {
	case Gram:
		return Mass
	case Millilitre:
		return Volume
	case Unit:
		return Count
	default:
		return Unknown
	}
}

// Compatible reports whether quantities in a and b can be combined, i.e.
// whether they share a base unit tag.
func Compatible(a, b string) bool {
	_, baseA := ToBase(0, a)
	_, baseB := ToBase(0, b)
	return baseA == baseB
}

// Option is a selectable product unit.
type Option struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Family Family `json:"family"`
}

var catalogue = []Option{
	{Label: "Kilograms (kg)", Value: "kg"},
	{Label: "Grams (g)", Value: "g"},
	{Label: "Liters (l)", Value: "l"},
	{Label: "Milliliters (ml)", Value: "ml"},
	{Label: "Units (pcs)", Value: "units"},
	{Label: "Packs", Value: "packs"},
	{Label: "Crates", Value: "crates"},
}

// Catalogue returns the units offered when creating products, each tagged
// with its family so clients can tell which units convert into each other.
func Catalogue() []Option {
	result := make([]Option, len(catalogue))
	for i, option := range catalogue {
		option.Family = FamilyOf(option.Value)
		result[i] = option
	}
	return result
}
