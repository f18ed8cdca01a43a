package pil

import (
	"strings"

	"github.com/2x3systems/peppercorn/pepper"
	"github.com/pkg/errors"
)

// Units selects the concentration and time units of written rate constants and concentrations.
//
// Rates are computed per molar per second; the zero Units writes them unchanged.
type Units struct {
	Molarity string // M, mM, uM, nM or pM
	Time     string // s, min or h
}

var (
	molarUnits = map[string]float64{"M": 1, "mM": 1e-3, "uM": 1e-6, "nM": 1e-9, "pM": 1e-12}
	timeUnits  = map[string]float64{"s": 1, "min": 60, "h": 3600}
)

func (u Units) molarity() string {
	if u.Molarity == "" {
		return "M"
	}
	return u.Molarity
}

func (u Units) time() string {
	if u.Time == "" {
		return "s"
	}
	return u.Time
}

// Validate returns pepper.ErrBadOpts for unknown unit names.
func (u Units) Validate() error {
	if _, ok := molarUnits[u.molarity()]; !ok {
		return errors.Wrapf(pepper.ErrBadOpts, "unknown molarity unit %q", u.Molarity)
	}
	if _, ok := timeUnits[u.time()]; !ok {
		return errors.Wrapf(pepper.ErrBadOpts, "unknown time unit %q", u.Time)
	}
	return nil
}

// Rate converts k, given in /M^(arity-1)/s, to these units.
func (u Units) Rate(k float64, arity int) float64 {
	for i := 1; i < arity; i++ {
		k *= molarUnits[u.molarity()]
	}
	return k * timeUnits[u.time()]
}

// RateUnit names the unit of a rate constant of the given arity, e.g. "/nM/s".
func (u Units) RateUnit(arity int) string {
	return strings.Repeat("/"+u.molarity(), arity-1) + "/" + u.time()
}

// Concentration converts conc to these units.
func (u Units) Concentration(conc *Concentration) (float64, error) {
	from, ok := molarUnits[conc.Unit]
	if !ok {
		return 0, errors.Wrapf(pepper.ErrBadOpts, "unknown concentration unit %q", conc.Unit)
	}
	return conc.Value * from / molarUnits[u.molarity()], nil
}
