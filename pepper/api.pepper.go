package pepper

import (
	"fmt"
	"math"
)

// Kind is the closed set of elementary domain-level reaction kinds.
type Kind byte

const (
	Bind Kind = iota
	Unbind
	ThreeWay
	FourWay
	RemoteToehold

	NumKinds = int(RemoteToehold) + 1
)

var kindNames = [NumKinds]string{
	Bind:          "bind",
	Unbind:        "open",
	ThreeWay:      "branch-3way",
	FourWay:       "branch-4way",
	RemoteToehold: "branch-remote",
}

func (kind Kind) String() string {
	if int(kind) < NumKinds {
		return kindNames[kind]
	}
	return fmt.Sprintf("Kind(%d)", kind)
}

// Label returns the reaction label for a move of this kind with the given reactant count,
// distinguishing intramolecular (bind11) from intermolecular (bind21) binding.
func (kind Kind) Label(arity int) string {
	if kind != Bind {
		return kind.String()
	}
	if arity == 2 {
		return "bind21"
	}
	return "bind11"
}

// ParseKind is the inverse of Kind.Label and Kind.String.
func ParseKind(label string) (Kind, error) {
	switch label {
	case "bind", "bind11", "bind21":
		return Bind, nil
	}
	for i, name := range kindNames {
		if name == label {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown reaction kind %q", label)
}

// LoopInfo summarizes a segment of a loop: unpaired nucleotides, stems and strand breaks it contains.
type LoopInfo struct {
	Bases  int // unpaired nucleotides
	Stems  int // helices touching the segment
	Breaks int // strand breaks (nicks)
}

// Open returns true if the segment contains a strand break.
func (li LoopInfo) Open() bool {
	return li.Breaks > 0
}

// Move is the geometry of one elementary move, as handed to a RateModel.
type Move struct {
	Kind    Kind
	Arity   int      // number of reactant complexes (1 or 2)
	Lengths []int    // lengths of the domains that pair, open, or migrate
	Helix   int      // total length of the helix being opened (Unbind only)
	Spacer  int      // unpaired nt between invader and target (RemoteToehold only)
	Before  LoopInfo // loop segment the move closes (bind11) or crosses (branch migration)
	After   LoopInfo // rest of the loop
}

// TotalLength returns the sum of the move's domain lengths.
func (m *Move) TotalLength() int {
	L := 0
	for _, Li := range m.Lengths {
		L += Li
	}
	return L
}

// RateModel assigns a rate constant to an elementary move (/s for unimolecular, /M/s for bimolecular).
type RateModel interface {
	Rate(m *Move) (float64, error)
}

// RateFunc adapts a (kind, domain lengths) function to a RateModel.
type RateFunc func(kind Kind, lengths []int) (float64, error)

func (fn RateFunc) Rate(m *Move) (float64, error) {
	return fn(m.Kind, m.Lengths)
}

// ConstantRates returns a RateModel giving every unimolecular move k1 and every bimolecular move k2.
func ConstantRates(k1, k2 float64) RateModel {
	return constantRates{k1, k2}
}

type constantRates struct {
	k1, k2 float64
}

func (cr constantRates) Rate(m *Move) (float64, error) {
	if m.Arity == 2 {
		return cr.k2, nil
	}
	return cr.k1, nil
}

// CheckedRate evaluates the model and enforces a positive, finite result.
func CheckedRate(model RateModel, m *Move) (float64, error) {
	k, err := model.Rate(m)
	if err == nil && (k <= 0 || math.IsNaN(k) || math.IsInf(k, 0)) {
		err = ErrBadRate
	}
	if err != nil {
		return 0, &RateModelError{Move: m, Err: err}
	}
	return k, nil
}

// Cutoff names a limit that stopped or narrowed enumeration.
type Cutoff byte

const (
	CutoffComplexSize Cutoff = iota + 1
	CutoffUnimolecularSteps
	CutoffComplexCount
	CutoffReactionCount
)

func (c Cutoff) String() string {
	switch c {
	case CutoffComplexSize:
		return "max-complex-size"
	case CutoffUnimolecularSteps:
		return "max-unimolecular-steps"
	case CutoffComplexCount:
		return "max-complex-count"
	case CutoffReactionCount:
		return "max-reaction-count"
	}
	return fmt.Sprintf("Cutoff(%d)", c)
}

// CutoffReport is a completeness warning attached to an enumeration result.
type CutoffReport struct {
	Cutoff  Cutoff
	Complex string // name of the complex that was frozen (if any)
	Detail  string
}

func (rep CutoffReport) String() string {
	if rep.Complex != "" {
		return fmt.Sprintf("%v: %s (%s)", rep.Cutoff, rep.Complex, rep.Detail)
	}
	return fmt.Sprintf("%v: %s", rep.Cutoff, rep.Detail)
}
