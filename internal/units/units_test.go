package units

import (
	"math"
	"testing"
)

func TestToBase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		unit     string
		quantity float64
		want     float64
		wantUnit string
	}{
		{"kg", 1.5, 1500, Gram},
		{"Kilograms", 2, 2000, Gram},
		{"G", 250, 250, Gram},
		{"grams", 1, 1, Gram},
		{"L", 0.75, 750, Millilitre},
		{"liters", 2, 2000, Millilitre},
		{"milliliter", 30, 30, Millilitre},
		{"pcs", 12, 12, Unit},
		{"Piece", 1, 1, Unit},
		{"units", 3, 3, Unit},
		{"Crates", 4, 4, "crates"},
		{" ml ", 5, 5, Millilitre},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.unit, func(t *testing.T) {
			t.Parallel()
			got, gotUnit := ToBase(tt.quantity, tt.unit)
			if math.Abs(got-tt.want) > 1e-9 || gotUnit != tt.wantUnit {
				t.Fatalf("ToBase(%v, %q) = (%v, %q), want (%v, %q)", tt.quantity, tt.unit, got, gotUnit, tt.want, tt.wantUnit)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, unit := range []string{"kg", "g", "l", "ml", "pcs"} {
		for _, quantity := range []float64{0, 1, 0.001, 1000} {
			base, _ := ToBase(quantity, unit)
			if got := FromBase(base, unit); math.Abs(got-quantity) > 1e-9 {
				t.Fatalf("FromBase(ToBase(%v, %q)) = %v", quantity, unit, got)
			}
		}
	}
}

func TestFromBaseOnlyInvertsKilogramsAndLitres(t *testing.T) {
	t.Parallel()

	if got := FromBase(2000, "KG"); got != 2 {
		t.Fatalf("FromBase(2000, KG) = %v, want 2", got)
	}
	if got := FromBase(2000, "l"); got != 2 {
		t.Fatalf("FromBase(2000, l) = %v, want 2", got)
	}
	if got := FromBase(2000, "kilograms"); got != 2000 {
		t.Fatalf("FromBase(2000, kilograms) = %v, want the base quantity unchanged", got)
	}
}

func TestCrossFamilyIsDetectable(t *testing.T) {
	t.Parallel()

	_, mass := ToBase(1, "kg")
	_, volume := ToBase(1, "l")
	if mass == volume {
		t.Fatalf("expected kg and l to have different base units, both were %q", mass)
	}
	if Compatible("kg", "l") {
		t.Fatal("kg and l must not be compatible")
	}
	if !Compatible("kg", "grams") {
		t.Fatal("kg and grams must be compatible")
	}
	if Compatible("kg", "crates") {
		t.Fatal("unknown units must not be compatible with known families")
	}
}

func TestFamilyOf(t *testing.T) {
	t.Parallel()

	cases := map[string]Family{
		"kg":     Mass,
		"ml":     Volume,
		"pieces": Count,
		"packs":  Unknown,
	}
	for unit, want := range cases {
		if got := FamilyOf(unit); got != want {
			t.Fatalf("FamilyOf(%q) = %s, want %s", unit, got, want)
		}
	}
}

func TestCatalogueReturnsCopy(t *testing.T) {
	t.Parallel()

	first := Catalogue()
	first[0].Value = "changed"
	if Catalogue()[0].Value != "kg" {
		t.Fatal("expected catalogue to be immutable from callers")
	}
}

func TestCatalogueTagsFamilies(t *testing.T) {
	t.Parallel()

	want := map[string]Family{
		"kg":     Mass,
		"g":      Mass,
		"l":      Volume,
		"ml":     Volume,
		"units":  Count,
		"packs":  Unknown,
		"crates": Unknown,
	}
	for _, option := range Catalogue() {
		if got := option.Family; got != want[option.Value] {
			t.Fatalf("Catalogue() family for %q = %s, want %s", option.Value, got, want[option.Value])
		}
	}
}
