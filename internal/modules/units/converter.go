package units

import (
	"fmt"
	"sort"
	"strings"

	"agri-supply/internal/models"

	"golang.org/x/text/cases"
)

// Canonical is the unit every stock quantity is stored in.
const Canonical = "kg"

// Table maps a unit name to the number of kilograms in one such unit.
type Table map[string]float64

// DefaultTable applies to every crop; crop tables take precedence over it.
var DefaultTable = Table{
	"kg":        1,
	"kgs":       1,
	"kilo":      1,
	"kilos":     1,
	"kilogram":  1,
	"kilograms": 1,
	"g":         0.001,
	"gram":      0.001,
	"grams":     0.001,
	"t":         1000,
	"ton":       1000,
	"tons":      1000,
	"tonne":     1000,
	"tonnes":    1000,
	"lb":        0.45359237,
	"lbs":       0.45359237,
	"pound":     0.45359237,
	"pounds":    0.45359237,
}

// CropTables holds the packaging units used by the cooperative's buyers.
var CropTables = map[string]Table{
	"maize":     {"bag": 90, "bags": 90, "sack": 50, "sacks": 50},
	"beans":     {"bag": 90, "bags": 90, "tin": 2, "tins": 2},
	"rice":      {"bag": 50, "bags": 50},
	"wheat":     {"bag": 90, "bags": 90},
	"potatoes":  {"bag": 50, "bags": 50, "sack": 110, "sacks": 110},
	"tomatoes":  {"crate": 64, "crates": 64, "box": 20, "boxes": 20},
	"onions":    {"net": 13, "nets": 13, "bag": 50, "bags": 50},
	"cabbages":  {"head": 1.5, "heads": 1.5, "crate": 40, "crates": 40},
	"bananas":   {"bunch": 18, "bunches": 18},
	"avocados":  {"crate": 25, "crates": 25, "box": 4, "boxes": 4},
	"mangoes":   {"crate": 20, "crates": 20},
	"coffee":    {"bag": 60, "bags": 60},
	"milk":      {"litre": 1.03, "litres": 1.03, "liter": 1.03, "liters": 1.03, "l": 1.03},
	"eggs":      {"tray": 1.8, "trays": 1.8},
	"sorghum":   {"bag": 90, "bags": 90},
	"groundnut": {"bag": 80, "bags": 80},
}

// Converter converts crop quantities between display units and kilograms.
// It is immutable after construction and safe for concurrent use.
type Converter struct {
	defaults Table
	crops    map[string]Table
}

// NewConverter builds a converter over normalised copies of the given tables.
func NewConverter(defaults Table, crops map[string]Table) *Converter {
	c := &Converter{
		defaults: make(Table, len(defaults)),
		crops:    make(map[string]Table, len(crops)),
	}
	for u, f := range defaults {
		c.defaults[c.normalize(u)] = f
	}
	for crop, t := range crops {
		nt := make(Table, len(t))
		for u, f := range t {
			nt[c.normalize(u)] = f
		}
		c.crops[c.normalize(crop)] = nt
	}
	return c
}

// NewDefaultConverter uses DefaultTable and CropTables.
func NewDefaultConverter() *Converter {
	return NewConverter(DefaultTable, CropTables)
}

// normalize folds case and collapses whitespace. Casers keep state, so each call gets its own.
func (c *Converter) normalize(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

// NormalizeUnit returns the lookup key for a unit; an empty unit means kilograms.
func (c *Converter) NormalizeUnit(unit string) string {
	u := c.normalize(unit)
	if u == "" {
		return Canonical
	}
	return u
}

func (c *Converter) factor(unit, crop string) (float64, error) {
	u := c.NormalizeUnit(unit)
	if t, ok := c.crops[c.normalize(crop)]; ok {
		if f, ok := t[u]; ok {
			return f, nil
		}
	}
	if f, ok := c.defaults[u]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q for crop %q", models.ErrInvalidUnit, unit, crop)
}

// ToCanonical converts quantity expressed in unit into kilograms of crop.
func (c *Converter) ToCanonical(quantity float64, unit, crop string) (float64, error) {
	f, err := c.factor(unit, crop)
	if err != nil {
		return 0, err
	}
	return quantity * f, nil
}

// FromCanonical converts kilograms of crop into unit.
func (c *Converter) FromCanonical(kg float64, unit, crop string) (float64, error) {
	f, err := c.factor(unit, crop)
	if err != nil {
		return 0, err
	}
	return kg / f, nil
}

// SupportedUnits lists every unit accepted for crop, sorted.
func (c *Converter) SupportedUnits(crop string) []string {
	seen := make(map[string]struct{})
	for u := range c.defaults {
		seen[u] = struct{}{}
	}
	for u := range c.crops[c.normalize(crop)] {
		seen[u] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
