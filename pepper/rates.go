package pepper

import (
	"math"

	"github.com/pkg/errors"
)

// Constants of the default rate model.
const (
	BindRatePerNT     = 3.0e5     // bimolecular association, /M/s per nt of toehold
	GasConstant       = 0.0019872 // kcal / mol / K
	Temperature       = 298.15    // K
	DGBasePair        = -1.7      // kcal / mol per nt of helix
	DGAssoc           = 1.9       // kcal / mol initiation penalty
	BranchStepTime    = 3.0e-3    // s per nt of 3-way branch migration
	FourWayStepTime   = 107.0     // s per nt of 4-way branch migration
	RemoteSpacerScale = 4.0       // nt at which the remote toehold penalty is 2^-1.5
	LinkConc30        = 1.5e-3    // M, effective concentration of a 30 nt polymer link
	MinLoopLength     = 3         // nt
)

// DefaultRates is an abstract, length-based rate model.
var DefaultRates RateModel = defaultRates{}

type defaultRates struct{}

func (defaultRates) Rate(m *Move) (float64, error) {
	L := float64(m.TotalLength())
	if L <= 0 {
		return 0, errors.Wrapf(ErrBadRate, "%v move has no domain length", m.Kind)
	}

	switch m.Kind {
	case Bind:
		k := BindRatePerNT * L
		if m.Arity == 1 {
			k *= linkConcentration(m.Before)
		}
		return k, nil
	case Unbind:
		RT := GasConstant * Temperature
		dG := L*DGBasePair + DGAssoc
		return BindRatePerNT * L * math.Exp(dG/RT), nil
	case ThreeWay:
		return 1 / (BranchStepTime * L), nil
	case RemoteToehold:
		penalty := math.Pow(1+float64(m.Spacer)/RemoteSpacerScale, -1.5)
		return penalty / (BranchStepTime * L), nil
	case FourWay:
		return 1 / (FourWayStepTime * L), nil
	}
	return 0, errors.Errorf("no default rate for %v", m.Kind)
}

// linkConcentration is the effective molarity of the loop closed by an intramolecular bind.
func linkConcentration(loop LoopInfo) float64 {
	n := loop.Bases + 3*loop.Stems
	if n < MinLoopLength {
		n = MinLoopLength
	}
	return LinkConc30 * math.Pow(float64(n)/30, -1.5)
}
