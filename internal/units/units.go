// Package units converts distances between the measures a user can record
// progress in. All conversions pivot through metres.
package units

import (
	"fmt"
	"sync"
)

// Unit identifies a measure of distance. The integer values are stable
// because rows persist the unit as a small integer ordinal.
type Unit int

const (
	Steps Unit = iota
	Metres
	Kilometres
	Yards
	Miles
)

// Metres per unit for the fixed units. Steps is excluded: its ratio is user
// configured and lives on the Converter.
const (
	metresPerMetre     = 1
	metresPerKilometre = 1000
	metresPerYard      = 0.9144
	metresPerMile      = 1609.34
)

// All lists every available unit in ordinal order.
var All = []Unit{Steps, Metres, Kilometres, Yards, Miles}

var names = map[Unit]string{
	Steps:      "steps",
	Metres:     "m",
	Kilometres: "km",
	Yards:      "yd",
	Miles:      "mi",
}

// String returns the abbreviated name of the unit.
func (u Unit) String() string {
	if name, ok := names[u]; ok {
		return name
	}
	return fmt.Sprintf("unit(%d)", int(u))
}

// Valid reports whether u is one of the declared units.
func (u Unit) Valid() bool {
	_, ok := names[u]
	return ok
}

// Parse maps an abbreviated unit name back to its Unit.
func Parse(name string) (Unit, error) {
	for unit, n := range names {
		if n == name {
			return unit, nil
		}
	}
	return 0, fmt.Errorf("unknown unit %q", name)
}

// Converter performs unit conversions. The steps ratio is user configured
// and may change at runtime through a preference-change listener, so it is
// guarded rather than being a package-level constant.
type Converter struct {
	mu            sync.RWMutex
	metresPerStep float64
}

// NewConverter constructs a Converter from the configured steps-per-metre
// ratio. A ratio of zero leaves the steps unit unconfigured; converting
// to or from Steps will then return an error.
func NewConverter(stepsPerMetre float64) *Converter {
	c := &Converter{}
	if stepsPerMetre != 0 {
		c.SetStepsPerMetre(stepsPerMetre)
	}
	return c
}

// SetStepsPerMetre changes the mapping of steps to metres. The user defines
// steps per metre while the conversion table is metres per unit, hence the
// inversion.
func (c *Converter) SetStepsPerMetre(stepsPerMetre float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stepsPerMetre == 0 {
		c.metresPerStep = 0
		return
	}
	c.metresPerStep = 1 / stepsPerMetre
}

// Convert maps amount from one unit to another. It is pure with respect to
// the current steps ratio: amount * metresPerUnit(from) / metresPerUnit(to).
func (c *Converter) Convert(to, from Unit, amount float64) (float64, error) {
	fromRatio, err := c.metresPerUnit(from)
	if err != nil {
		return 0, err
	}
	toRatio, err := c.metresPerUnit(to)
	if err != nil {
		return 0, err
	}
	return amount * fromRatio / toRatio, nil
}

func (c *Converter) metresPerUnit(u Unit) (float64, error) {
	switch u {
	case Metres:
		return metresPerMetre, nil
	case Kilometres:
		return metresPerKilometre, nil
	case Yards:
		return metresPerYard, nil
	case Miles:
		return metresPerMile, nil
	case Steps:
		c.mu.RLock()
		ratio := c.metresPerStep
		c.mu.RUnlock()
		if ratio == 0 {
			return 0, fmt.Errorf("steps-per-metre ratio is not configured")
		}
		return ratio, nil
	default:
		return 0, fmt.Errorf("unknown unit %d", int(u))
	}
}
