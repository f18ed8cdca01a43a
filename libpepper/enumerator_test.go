package libpepper_test

import (
	"context"
	"sort"
	"testing"

	"github.com/2x3systems/peppercorn/libpepper"
	"github.com/2x3systems/peppercorn/libpepper/condense"
	"github.com/2x3systems/peppercorn/pepper"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seedDef struct {
	name, kernel string
}

func enumerate(t *testing.T, dt *libpepper.DomainTable, opts pepper.EnumOpts, seeds ...seedDef) *libpepper.Network {
	en, err := libpepper.NewEnumerator(nil, opts, nil)
	require.NoError(t, err)
	en.SetDomains(dt)
	for _, seed := range seeds {
		en.AddSeed(kernel(t, dt, seed.kernel), seed.name)
	}
	net, err := en.Enumerate(context.Background())
	require.NoError(t, err)
	return net
}

func namesOf(cs []*libpepper.Complex) []string {
	names := make([]string, len(cs))
	for i, X := range cs {
		names[i] = X.Name()
	}
	return names
}

func TestEnumerateBinding(t *testing.T) {
	dt := domains(t, "x=10")
	net := enumerate(t, dt, pepper.DefaultEnumOpts(), seedDef{"A", "x"}, seedDef{"B", "x*"})

	assert.True(t, net.Complete)
	assert.Empty(t, net.Cutoffs)
	assert.Equal(t, []string{"A", "B"}, namesOf(net.Seeds))
	assert.ElementsMatch(t, []string{"A", "B", "e0"}, namesOf(net.Complexes))
	assert.ElementsMatch(t, []string{"A", "B", "e0"}, namesOf(net.Resting))
	assert.Empty(t, net.Transient)
	require.Len(t, net.Reactions, 1)

	rxn := net.Reactions[0]
	assert.Equal(t, "bind21", rxn.Label())
	assert.ElementsMatch(t, []string{"A", "B"}, namesOf(rxn.Reactants))
	assert.Equal(t, []string{"e0"}, namesOf(rxn.Products))

	AB, ok := net.Lookup("e0")
	require.True(t, ok)
	assert.Equal(t, "x( + )", AB.Key())
	assert.Len(t, net.ReactionsOf(AB), 0)
}

func TestEnumerateHairpin(t *testing.T) {
	dt := domains(t, "a=8 b=4")
	net := enumerate(t, dt, pepper.DefaultEnumOpts(), seedDef{"S", "a b a*"})

	assert.Len(t, net.Complexes, 2)
	assert.Len(t, net.Reactions, 1)
	assert.Equal(t, []string{"S"}, namesOf(net.Transient))
	require.Len(t, net.Resting, 1)
	assert.Equal(t, "a( b )", net.Resting[0].Key())

	res, err := condense.Condense(context.Background(), net, condense.Opts{})
	require.NoError(t, err)
	assert.Len(t, res.Resting, 1)
	assert.Empty(t, res.Reactions)
}

func TestEnumerateReversible(t *testing.T) {
	dt := domains(t, "x=4")
	net := enumerate(t, dt, pepper.DefaultEnumOpts(), seedDef{"A", "x"}, seedDef{"B", "x*"})

	assert.ElementsMatch(t, []string{"A", "B"}, namesOf(net.Resting))
	assert.Equal(t, []string{"e0"}, namesOf(net.Transient))
	assert.Len(t, net.Reactions, 2)

	// binding and falling apart again leaves nothing to condense
	res, err := condense.Condense(context.Background(), net, condense.Opts{})
	require.NoError(t, err)
	assert.Len(t, res.Resting, 2)
	assert.Empty(t, res.Reactions)
}

func TestEnumerateDisplacement(t *testing.T) {
	dt := domains(t, "t=5 a=10")
	net := enumerate(t, dt, pepper.DefaultEnumOpts(),
		seedDef{"I", "t a"},
		seedDef{"S", "a( + ) t*"},
	)
	assert.True(t, net.Complete)
	assert.Len(t, net.Complexes, 5)
	assert.Len(t, net.Reactions, 3)
	assert.Len(t, net.Resting, 4)
	require.Len(t, net.Transient, 1)
	assert.Equal(t, "a( + ) t*( + ) a", net.Transient[0].Key())

	labels := make([]string, 0, len(net.Reactions))
	for _, rxn := range net.Reactions {
		labels = append(labels, rxn.Label())
	}
	assert.ElementsMatch(t, []string{"bind21", "open", "branch-3way"}, labels)

	res, err := condense.Condense(context.Background(), net, condense.Opts{})
	require.NoError(t, err)
	assert.Len(t, res.Resting, 4)
	require.Len(t, res.Reactions, 1)

	rxn := res.Reactions[0]
	assert.Equal(t, "rI + rS", macrostateList(rxn.Reactants))
	assert.InEpsilon(t, 907065.085, rxn.Rate, 1e-6)

	waste := kernel(t, dt, "t( a( + ) )")
	var products []string
	for _, m := range rxn.Products {
		products = append(products, m.Representative().Key())
	}
	assert.ElementsMatch(t, []string{"a", waste.Key()}, products)
}

func macrostateList(ms []*condense.Macrostate) string {
	s := ""
	for i, m := range ms {
		if i > 0 {
			s += " + "
		}
		s += m.Name
	}
	return s
}

func TestEnumerateCutoffs(t *testing.T) {
	dt := domains(t, "x=10")
	seeds := []seedDef{{"A", "x"}, {"B", "x*"}}

	opts := pepper.DefaultEnumOpts()
	opts.MaxComplexCount = 2
	net := enumerate(t, dt, opts, seeds...)
	assert.False(t, net.Complete)
	require.Len(t, net.Cutoffs, 1)
	assert.Equal(t, pepper.CutoffComplexCount, net.Cutoffs[0].Cutoff)
	assert.Len(t, net.Complexes, 3)
	AB, ok := net.Lookup("e0")
	require.True(t, ok)
	assert.True(t, net.IsFrozen(AB))
	assert.Contains(t, net.Resting, AB)

	opts = pepper.DefaultEnumOpts()
	opts.MaxComplexSize = 1
	small := enumerate(t, dt, opts, seeds...)
	assert.False(t, small.Complete)
	require.Len(t, small.Cutoffs, 1)
	assert.Equal(t, pepper.CutoffComplexSize, small.Cutoffs[0].Cutoff)
	assert.Equal(t, "e0", small.Cutoffs[0].Complex)
	assert.Equal(t, []string{"e0"}, namesOf(small.Frozen))

	// tighter limits only ever find a subset
	full := enumerate(t, dt, pepper.DefaultEnumOpts(), seeds...)
	assert.Subset(t, keysOf(full.Complexes), keysOf(small.Complexes))
	assert.Subset(t, keysOf(full.Complexes), keysOf(net.Complexes))
}

func TestEnumerateStepLimit(t *testing.T) {
	dt := domains(t, "a=8 b=4")
	opts := pepper.DefaultEnumOpts()
	opts.MaxUnimolecularSteps = 1
	net := enumerate(t, dt, opts, seedDef{"S", "a b a*"})

	require.Len(t, net.Cutoffs, 1)
	assert.Equal(t, pepper.CutoffUnimolecularSteps, net.Cutoffs[0].Cutoff)
	assert.Equal(t, []string{"e0"}, namesOf(net.Frozen))
	assert.Len(t, net.Reactions, 1)
}

func TestEnumeratorUsage(t *testing.T) {
	dt := domains(t, "x=10")

	opts := pepper.DefaultEnumOpts()
	opts.MaxComplexSize = 0
	_, err := libpepper.NewEnumerator(nil, opts, nil)
	assert.True(t, errors.Is(err, pepper.ErrBadOpts))

	en, err := libpepper.NewEnumerator(nil, pepper.DefaultEnumOpts(), libpepper.NewMetrics(nil))
	require.NoError(t, err)
	A := en.AddSeed(kernel(t, dt, "x"), "A")
	again := en.AddSeed(kernel(t, dt, "x"), "other")
	assert.Same(t, A, again)
	assert.Equal(t, "A", again.Name())

	net, err := en.Enumerate(context.Background())
	require.NoError(t, err)
	assert.Len(t, net.Seeds, 1)
	assert.Equal(t, 1, en.Store().Len())

	_, err = en.Enumerate(context.Background())
	assert.Error(t, err)
}

func TestEnumerateCancelled(t *testing.T) {
	dt := domains(t, "x=10")
	en, err := libpepper.NewEnumerator(nil, pepper.DefaultEnumOpts(), nil)
	require.NoError(t, err)
	en.AddSeed(kernel(t, dt, "x"), "A")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = en.Enumerate(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEnumerateFunc(t *testing.T) {
	dt := domains(t, "x=10")
	net, err := libpepper.Enumerate(context.Background(), []*libpepper.Complex{
		kernel(t, dt, "x"),
		kernel(t, dt, "x*"),
	}, pepper.DefaultEnumOpts())
	require.NoError(t, err)
	assert.Len(t, net.Complexes, 3)
	assert.ElementsMatch(t, []string{"e0", "e1", "e2"}, namesOf(net.Complexes))
}

func reactionKeys(net *libpepper.Network) []string {
	keys := make([]string, len(net.Reactions))
	for i, rxn := range net.Reactions {
		keys[i] = rxn.Key()
	}
	sort.Strings(keys)
	return keys
}

func domainTotals(cs []*libpepper.Complex) map[string]int {
	totals := make(map[string]int)
	for _, X := range cs {
		for name, n := range X.DomainCounts() {
			totals[name] += n
		}
	}
	return totals
}

func TestEnumerateConservesDomains(t *testing.T) {
	dt := domains(t, "t=5 a=10 b=4")
	for _, seeds := range [][]seedDef{
		{{"I", "t a"}, {"S", "a( + ) t*"}, {"T", "t*"}},
		{{"H", "t b t*"}, {"B", "b*"}},
	} {
		net := enumerate(t, dt, pepper.DefaultEnumOpts(), seeds...)
		require.NotEmpty(t, net.Reactions)
		for _, rxn := range net.Reactions {
			assert.Equal(t, domainTotals(rxn.Reactants), domainTotals(rxn.Products), rxn.String())
		}
	}
}

func TestEnumerateReversiblePairs(t *testing.T) {
	dt := domains(t, "t=5 a=10 b=4")
	for _, seeds := range [][]seedDef{
		{{"A", "b"}, {"B", "b*"}},
		{{"I", "t a"}, {"S", "a( + ) t*"}},
		{{"H", "b a b*"}},
	} {
		net := enumerate(t, dt, pepper.DefaultEnumOpts(), seeds...)
		opens := 0
		for _, rxn := range net.Reactions {
			if rxn.Kind != pepper.Unbind {
				continue
			}
			opens++
			found := false
			for _, rev := range net.Reactions {
				if rev.Kind == pepper.Bind && assert.ObjectsAreEqual(keysOf(rxn.Reactants), keysOf(rev.Products)) &&
					assert.ObjectsAreEqual(sortedKeys(rxn.Products), sortedKeys(rev.Reactants)) {
					found = true
				}
			}
			assert.True(t, found, "no bind reverses %v", rxn)
		}
		assert.NotZero(t, opens)
	}
}

func sortedKeys(cs []*libpepper.Complex) []string {
	keys := keysOf(cs)
	sort.Strings(keys)
	return keys
}

func TestEnumerateSeedOrder(t *testing.T) {
	dt := domains(t, "t=5 a=10")
	seeds := []seedDef{{"I", "t a"}, {"S", "a( + ) t*"}, {"T", "t*"}}
	want := enumerate(t, dt, pepper.DefaultEnumOpts(), seeds...)

	for _, order := range [][3]int{{0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}} {
		reordered := []seedDef{seeds[order[0]], seeds[order[1]], seeds[order[2]]}
		net := enumerate(t, dt, pepper.DefaultEnumOpts(), reordered...)
		assert.Equal(t, want.Complete, net.Complete)
		assert.ElementsMatch(t, keysOf(want.Complexes), keysOf(net.Complexes))
		assert.ElementsMatch(t, keysOf(want.Resting), keysOf(net.Resting))
		assert.Equal(t, reactionKeys(want), reactionKeys(net))
	}
}

func TestEnumerateConstantRates(t *testing.T) {
	dt := domains(t, "x=10")
	opts := pepper.DefaultEnumOpts()
	opts.Rates = pepper.ConstantRates(1, 7.5e5)
	net := enumerate(t, dt, opts, seedDef{"A", "x"}, seedDef{"B", "x*"})
	assert.True(t, net.Complete)

	res, err := condense.Condense(context.Background(), net, condense.Opts{})
	require.NoError(t, err)
	require.Len(t, res.Resting, 3)
	for _, ms := range res.Resting {
		assert.Len(t, ms.Complexes, 1)
	}
	require.Len(t, res.Reactions, 1)
	assert.Equal(t, "rA + rB -> re0", res.Reactions[0].String())
	assert.Equal(t, 7.5e5, res.Reactions[0].Rate)
}
