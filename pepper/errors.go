package pepper

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors
var (
	ErrBadDomain         = errors.New("bad domain")
	ErrUnknownDomain     = errors.New("unknown domain")
	ErrDomainRedefined   = errors.New("domain redefined with a different length")
	ErrBadPairTable      = errors.New("bad or inconsistent pair table")
	ErrNotComplementary  = errors.New("paired domains are not complementary")
	ErrPseudoknot        = errors.New("pairs cross (pseudoknot)")
	ErrHairpin           = errors.New("zero-length hairpin")
	ErrDisconnected      = errors.New("strands do not form one connected complex")
	ErrEmptyComplex      = errors.New("complex has no strands")
	ErrBadRate           = errors.New("rate model returned a non-positive or non-finite rate")
	ErrNoRateModel       = errors.New("no rate model given")
	ErrBadOpts           = errors.New("bad enumeration options")
	ErrSingularGenerator = errors.New("generator has no unique stationary distribution")
	ErrBadCatalogParam   = errors.New("bad catalog param")
	ErrCatalogVersion    = errors.New("catalog version is incompatible")
	ErrCatalogClosed     = errors.New("catalog is closed")
)

// StructuralError reports a complex that cannot be represented: crossing pairs, a
// non-complementary pair, a zero-length hairpin, or disconnected strands.
type StructuralError struct {
	Complex string // kernel string or name of the offending complex
	Err     error  // one of the structural sentinels above
}

func (err *StructuralError) Error() string {
	if err.Complex == "" {
		return err.Err.Error()
	}
	return fmt.Sprintf("%v: %s", err.Err, err.Complex)
}

func (err *StructuralError) Cause() error  { return err.Err }
func (err *StructuralError) Unwrap() error { return err.Err }

// ConsistencyError reports a macrostate without a well-defined steady state.
type ConsistencyError struct {
	Macrostate string
	Detail     string
}

func (err *ConsistencyError) Error() string {
	return fmt.Sprintf("macrostate %s: %v (%s)", err.Macrostate, ErrSingularGenerator, err.Detail)
}

func (err *ConsistencyError) Cause() error  { return ErrSingularGenerator }
func (err *ConsistencyError) Unwrap() error { return ErrSingularGenerator }

// RateModelError reports a rate model failure for a single move.
type RateModelError struct {
	Move *Move
	Err  error
}

func (err *RateModelError) Error() string {
	return fmt.Sprintf("rate model failed for %v move %v: %v", err.Move.Kind, err.Move.Lengths, err.Err)
}

func (err *RateModelError) Cause() error  { return err.Err }
func (err *RateModelError) Unwrap() error { return err.Err }

// IsStructural returns true if err (or its cause) is a *StructuralError.
func IsStructural(err error) bool {
	var serr *StructuralError
	return errors.As(err, &serr)
}
