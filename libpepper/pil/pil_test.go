package pil_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/2x3systems/peppercorn/libpepper"
	"github.com/2x3systems/peppercorn/libpepper/condense"
	"github.com/2x3systems/peppercorn/libpepper/pil"
	"github.com/2x3systems/peppercorn/pepper"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const hairpinPIL = `# a hairpin closing on itself
length a = 8
length b = 4

S = a b a* @initial 100 nM   # seed
`

func TestParse(t *testing.T) {
	file, err := pil.ParseString(hairpinPIL)
	require.NoError(t, err)

	doms := file.Domains.Domains()
	require.Len(t, doms, 2)
	assert.Equal(t, "a", doms[0].Name())
	assert.Equal(t, 8, doms[0].Len())

	require.Len(t, file.Seeds, 1)
	seed := file.Seeds[0]
	assert.Equal(t, "S", seed.Name)
	assert.Equal(t, 5, seed.Line)
	assert.Equal(t, "a b a*", seed.Complex.Key())
	require.NotNil(t, seed.Conc)
	assert.Equal(t, pil.Concentration{Mode: "initial", Value: 100, Unit: "nM"}, *seed.Conc)

	// no trailing newline, multiple strands
	file, err = pil.ParseString("length x = 10\nD = x( + )")
	require.NoError(t, err)
	require.Len(t, file.Seeds, 1)
	assert.Equal(t, 2, file.Seeds[0].Complex.Size())
	assert.Nil(t, file.Seeds[0].Conc)
}

func TestParseErrors(t *testing.T) {
	_, err := pil.ParseString("length a = 8\n\nS = a b\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.True(t, errors.Is(err, pepper.ErrUnknownDomain))

	_, err = pil.ParseString("length a = 8\nS = a\nS = a*\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already declared on line 2")

	_, err = pil.ParseString("length a = 8\nlength a = 9\n")
	assert.True(t, errors.Is(err, pepper.ErrDomainRedefined))

	_, err = pil.ParseString("length a = 8\nH = a( )\n")
	assert.True(t, pepper.IsStructural(err))

	_, err = pil.ParseString("length a = 8\nS = a )\n")
	assert.Error(t, err)

	_, err = pil.ParseString("length a = 8\nS = a(\n")
	assert.Error(t, err)

	_, err = pil.ParseString("length = 8\n")
	assert.Error(t, err)
}

func TestParseKernel(t *testing.T) {
	dt := libpepper.NewDomainTable()
	for _, name := range []string{"a", "b", "c"} {
		_, err := dt.Define(name, 6)
		require.NoError(t, err)
	}
	for _, kernel := range []string{
		"a",
		"a( b + c* ) a*",
		"a( b( + ) c )",
		"b*( c + a )",
	} {
		X, err := pil.ParseKernel(dt, kernel)
		require.NoError(t, err, kernel)

		// kernel strings are canonical, so they read back to themselves
		Y, err := pil.ParseKernel(dt, X.KernelString())
		require.NoError(t, err)
		assert.Equal(t, X.KernelString(), Y.KernelString())
	}

	_, err := pil.ParseKernel(dt, "a + + b")
	assert.Error(t, err)
}

func enumerateHairpin(t *testing.T) (*pil.File, *libpepper.Network, *condense.Result) {
	file, err := pil.ParseString(hairpinPIL)
	require.NoError(t, err)

	en, err := libpepper.NewEnumerator(nil, pepper.DefaultEnumOpts(), nil)
	require.NoError(t, err)
	en.SetDomains(file.Domains)
	for _, seed := range file.Seeds {
		en.AddSeed(seed.Complex, seed.Name)
	}
	net, err := en.Enumerate(context.Background())
	require.NoError(t, err)
	res, err := condense.Condense(context.Background(), net, condense.Opts{})
	require.NoError(t, err)
	return file, net, res
}

func TestWritePIL(t *testing.T) {
	file, net, res := enumerateHairpin(t)

	buf := bytes.Buffer{}
	err := pil.WritePIL(&buf, net, res, pil.PrintOpts{
		Detailed:       true,
		Condensed:      true,
		Generator:      "pepper test",
		Concentrations: map[string]*pil.Concentration{"S": file.Seeds[0].Conc},
	})
	require.NoError(t, err)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# File generated by pepper test"))
	for _, line := range []string{
		"# Domains (2)",
		"length a = 8",
		"length b = 4",
		"# Resting complexes (1)",
		"e0 = a( b )",
		"# Resting macrostates (1)",
		"macrostate re0 = [e0]",
		"# Condensed reactions (0)",
		"# Transient complexes (1)",
		"S = a b a* @initial 100 nM",
		"# Detailed reactions (1)",
	} {
		assert.Contains(t, out, line+"\n")
	}
	assert.Regexp(t, `reaction \[bind11 +=  +73942\.5 /s +\] S -> e0`, out)
	assert.NotContains(t, out, "WARNING")

	// resting complex lines parse back as complex declarations
	var decls []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "length ") || strings.HasPrefix(line, "e0 = ") {
			decls = append(decls, line)
		}
	}
	again, err := pil.ParseString(strings.Join(decls, "\n"))
	require.NoError(t, err)
	require.Len(t, again.Seeds, 1)
	assert.Equal(t, "a( b )", again.Seeds[0].Complex.Key())

	buf.Reset()
	require.NoError(t, pil.WritePIL(&buf, net, nil, pil.PrintOpts{}))
	assert.NotContains(t, buf.String(), "# Detailed reactions")
	assert.NotContains(t, buf.String(), "# Resting macrostates")
}

func enumerateDuplex(t *testing.T) (*libpepper.Network, *condense.Result) {
	dt := libpepper.NewDomainTable()
	_, err := dt.Define("x", 10)
	require.NoError(t, err)
	A, err := pil.ParseKernel(dt, "x")
	require.NoError(t, err)
	B, err := pil.ParseKernel(dt, "x*")
	require.NoError(t, err)

	en, err := libpepper.NewEnumerator(nil, pepper.DefaultEnumOpts(), nil)
	require.NoError(t, err)
	en.AddSeed(A, "A")
	en.AddSeed(B, "B")
	net, err := en.Enumerate(context.Background())
	require.NoError(t, err)
	res, err := condense.Condense(context.Background(), net, condense.Opts{})
	require.NoError(t, err)
	return net, res
}

func TestWriteCRN(t *testing.T) {
	net, res := enumerateDuplex(t)

	buf := bytes.Buffer{}
	require.NoError(t, pil.WriteCRN(&buf, net, res, pil.Units{}))
	assert.Equal(t, "# Condensed reactions: concentration = M, time = s\nrA + rB -> re0 [k = 3e+06]\n", buf.String())

	buf.Reset()
	require.NoError(t, pil.WriteCRN(&buf, net, nil, pil.Units{}))
	assert.Equal(t, "# Detailed reactions: concentration = M, time = s\nA + B -> e0 [k = 3e+06]\n", buf.String())

	buf.Reset()
	require.NoError(t, pil.WriteCRN(&buf, net, nil, pil.Units{Molarity: "nM", Time: "min"}))
	assert.Equal(t, "# Detailed reactions: concentration = nM, time = min\nA + B -> e0 [k = 0.18]\n", buf.String())

	err := pil.WriteCRN(&buf, net, nil, pil.Units{Molarity: "mol"})
	assert.True(t, errors.Is(err, pepper.ErrBadOpts))
}

func TestUnits(t *testing.T) {
	nM := pil.Units{Molarity: "nM"}
	assert.Equal(t, 0.003, nM.Rate(3e6, 2))
	assert.Equal(t, 5.0, nM.Rate(5, 1))
	assert.Equal(t, "/nM/s", nM.RateUnit(2))
	assert.Equal(t, "/M/M/s", pil.Units{}.RateUnit(3))
	assert.Equal(t, "/h", pil.Units{Time: "h"}.RateUnit(1))
	assert.Equal(t, 7200.0, pil.Units{Time: "h"}.Rate(2, 1))

	conc, err := nM.Concentration(&pil.Concentration{Value: 3, Unit: "uM"})
	require.NoError(t, err)
	assert.InEpsilon(t, 3000, conc, 1e-12)
	_, err = nM.Concentration(&pil.Concentration{Value: 3, Unit: "ppm"})
	assert.True(t, errors.Is(err, pepper.ErrBadOpts))
	assert.True(t, errors.Is(pil.Units{Time: "day"}.Validate(), pepper.ErrBadOpts))
}

func TestWriteVDSD(t *testing.T) {
	net, res := enumerateDuplex(t)

	buf := bytes.Buffer{}
	require.NoError(t, pil.WriteVDSD(&buf, net, res, pil.VDSDOpts{
		Concentrations: map[string]*pil.Concentration{"A": {Mode: "initial", Value: 0.1, Unit: "uM"}},
	}))
	assert.Equal(t, `(* File autogenerated by pepper *)

directive simulation {
   plots=[A; B; e0];
}

(* LogicDSD species:
A = < x >
B = < x* >
e0 = < x!1 > | < x*!1 >
*)

(* Initial concentrations (3) *)
| 100 A
| 1 B
| 1 e0

(* Detailed reactions (1) *)
| A + B -> {0.003} e0
`, buf.String())

	buf.Reset()
	require.NoError(t, pil.WriteVDSD(&buf, net, res, pil.VDSDOpts{Condensed: true, Toehold: 10}))
	out := buf.String()
	assert.Contains(t, out, "plots=[rA; rB; re0];")
	assert.Contains(t, out, "re0 = < x^!1 > | < x^*!1 >\n")
	assert.Contains(t, out, "| rA + rB -> {0.003} re0\n")

	err := pil.WriteVDSD(&buf, net, nil, pil.VDSDOpts{Condensed: true})
	assert.True(t, errors.Is(err, pepper.ErrBadOpts))
}

func TestWriteYAML(t *testing.T) {
	_, net, res := enumerateHairpin(t)

	buf := bytes.Buffer{}
	require.NoError(t, pil.WriteYAML(&buf, net, res))

	var doc struct {
		Run       string `yaml:"run"`
		Complete  bool   `yaml:"complete"`
		Complexes []struct {
			Name    string `yaml:"name"`
			Kernel  string `yaml:"kernel"`
			Resting bool   `yaml:"resting"`
		} `yaml:"complexes"`
		Reactions []struct {
			Kind string  `yaml:"kind"`
			Rate float64 `yaml:"rate"`
		} `yaml:"reactions"`
		Macrostates []struct {
			Name string `yaml:"name"`
		} `yaml:"macrostates"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, net.RunID.String(), doc.Run)
	assert.True(t, doc.Complete)
	require.Len(t, doc.Complexes, 2)
	assert.Equal(t, "S", doc.Complexes[0].Name)
	assert.False(t, doc.Complexes[0].Resting)
	assert.Equal(t, "a( b )", doc.Complexes[1].Kernel)
	require.Len(t, doc.Reactions, 1)
	assert.Equal(t, "bind11", doc.Reactions[0].Kind)
	assert.Len(t, doc.Macrostates, 2)
}
