package pepper_test

import (
	"math"
	"testing"

	"github.com/2x3systems/peppercorn/pepper"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRates(t *testing.T) {
	rate := func(m pepper.Move) float64 {
		k, err := pepper.CheckedRate(pepper.DefaultRates, &m)
		require.NoError(t, err)
		return k
	}

	assert.InEpsilon(t, 1.5e6, rate(pepper.Move{Kind: pepper.Bind, Arity: 2, Lengths: []int{5}}), 1e-9)
	assert.InEpsilon(t, 307.219, rate(pepper.Move{Kind: pepper.Unbind, Arity: 1, Lengths: []int{4}}), 1e-4)
	assert.InEpsilon(t, 1/(3e-3*10), rate(pepper.Move{Kind: pepper.ThreeWay, Arity: 1, Lengths: []int{10}}), 1e-9)
	assert.InEpsilon(t, 1/(107.0*6), rate(pepper.Move{Kind: pepper.FourWay, Arity: 1, Lengths: []int{6}}), 1e-9)

	// a 4 nt spacer costs a factor of 2^1.5
	remote := rate(pepper.Move{Kind: pepper.RemoteToehold, Arity: 1, Lengths: []int{10}, Spacer: 4})
	assert.InEpsilon(t, (1/(3e-3*10))/math.Pow(2, 1.5), remote, 1e-9)

	// smaller loops close faster
	hairpin := func(bases int) float64 {
		return rate(pepper.Move{Kind: pepper.Bind, Arity: 1, Lengths: []int{8}, Before: pepper.LoopInfo{Bases: bases}})
	}
	assert.InEpsilon(t, 73942.545, hairpin(4), 1e-6)
	assert.Greater(t, hairpin(4), hairpin(40))
	assert.Equal(t, hairpin(0), hairpin(3))
}

func TestCheckedRate(t *testing.T) {
	bad := []pepper.RateModel{
		pepper.ConstantRates(0, 1),
		pepper.ConstantRates(math.NaN(), 1),
		pepper.ConstantRates(math.Inf(1), 1),
		pepper.RateFunc(func(kind pepper.Kind, lengths []int) (float64, error) {
			return 0, errors.New("no rate")
		}),
	}
	for _, model := range bad {
		m := pepper.Move{Kind: pepper.ThreeWay, Arity: 1, Lengths: []int{3}}
		_, err := pepper.CheckedRate(model, &m)
		var rerr *pepper.RateModelError
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, pepper.ThreeWay, rerr.Move.Kind)
	}

	m := pepper.Move{Kind: pepper.Bind, Arity: 2, Lengths: []int{3}}
	_, err := pepper.CheckedRate(pepper.ConstantRates(1, -1), &m)
	assert.True(t, errors.Is(err, pepper.ErrBadRate))

	k, err := pepper.CheckedRate(pepper.ConstantRates(1, 2), &m)
	require.NoError(t, err)
	assert.Equal(t, 2.0, k)
}

func TestKinds(t *testing.T) {
	assert.Equal(t, "bind21", pepper.Bind.Label(2))
	assert.Equal(t, "bind11", pepper.Bind.Label(1))
	for i := 0; i < pepper.NumKinds; i++ {
		kind := pepper.Kind(i)
		parsed, err := pepper.ParseKind(kind.Label(1))
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}
	_, err := pepper.ParseKind("teleport")
	assert.Error(t, err)
}

func TestEnumOpts(t *testing.T) {
	opts := pepper.DefaultEnumOpts()
	require.NoError(t, opts.Validate())

	opts.SetReleaseCutoff(9)
	assert.Equal(t, 9, opts.ReleaseCutoff11)
	assert.Equal(t, 9, opts.ReleaseCutoff1N)

	opts.KFast, opts.KSlow = 1, 2
	assert.True(t, errors.Is(opts.Validate(), pepper.ErrBadOpts))

	opts = pepper.DefaultEnumOpts()
	opts.MaxComplexSize = 0
	assert.True(t, errors.Is(opts.Validate(), pepper.ErrBadOpts))

	opts = pepper.DefaultEnumOpts()
	opts.Rates = nil
	assert.Equal(t, pepper.ErrNoRateModel, opts.Validate())
}
