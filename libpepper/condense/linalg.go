package condense

import (
	"math"

	"github.com/2x3systems/peppercorn/pepper"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	maxCondition = 1e14  // largest condition number of a solvable generator
	probEpsilon  = 1e-12 // solved probabilities this far below zero are rounding noise
)

// solve returns X with A X = B, or pepper.ErrSingularGenerator if A is singular or ill-conditioned.
func solve(A, B *mat.Dense) (*mat.Dense, error) {
	var lu mat.LU
	lu.Factorize(A)
	if cond := lu.Cond(); math.IsInf(cond, 1) || math.IsNaN(cond) || cond > maxCondition {
		return nil, errors.Wrapf(pepper.ErrSingularGenerator, "condition number %g", cond)
	}

	X := &mat.Dense{}
	if err := lu.SolveTo(X, false, B); err != nil {
		return nil, errors.Wrap(pepper.ErrSingularGenerator, err.Error())
	}
	return X, nil
}
