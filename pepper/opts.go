package pepper

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Defaults
const (
	DefaultMaxComplexSize       = 6
	DefaultMaxUnimolecularSteps = 1000
	DefaultMaxComplexCount      = 10000
	DefaultMaxReactionCount     = 100000
	DefaultReleaseCutoff        = 6
)

// EnumOpts configures an enumeration run.
type EnumOpts struct {
	MaxComplexSize       int       `mapstructure:"max_complex_size" validate:"gte=1"`       // complexes with more strands are recorded but not expanded
	MaxUnimolecularSteps int       `mapstructure:"max_unimolecular_steps" validate:"gte=1"` // unimolecular steps per discovery chain before a complex is frozen
	MaxComplexCount      int       `mapstructure:"max_complex_count" validate:"gte=1"`      // enumeration halts after this many complexes
	MaxReactionCount     int       `mapstructure:"max_reaction_count" validate:"gte=1"`     // enumeration halts after this many reactions
	ReleaseCutoff11      int       `mapstructure:"release_cutoff_1_1" validate:"gte=0"`     // longest helix (nt) that may open without splitting the complex
	ReleaseCutoff1N      int       `mapstructure:"release_cutoff_1_n" validate:"gte=0"`     // longest helix (nt) that may open and split the complex
	RejectRemote         bool      `mapstructure:"reject_remote"`                           // if set, remote toehold branch migration is not enumerated
	MaxHelix             bool      `mapstructure:"max_helix"`                               // binds and branch migrations zip to the end of the helix, opens release whole helices
	KFast                float64   `mapstructure:"k_fast" validate:"gte=0"`                 // unimolecular reactions faster than this are fast (/s)
	KSlow                float64   `mapstructure:"k_slow" validate:"gte=0,ltefield=KFast"`  // reactions at or below this are discarded (/s)
	Rates                RateModel `mapstructure:"-" validate:"required"`                   // assigns rate constants to moves
}

// DefaultEnumOpts returns the default enumeration options using DefaultRates.
func DefaultEnumOpts() EnumOpts {
	return EnumOpts{
		MaxComplexSize:       DefaultMaxComplexSize,
		MaxUnimolecularSteps: DefaultMaxUnimolecularSteps,
		MaxComplexCount:      DefaultMaxComplexCount,
		MaxReactionCount:     DefaultMaxReactionCount,
		ReleaseCutoff11:      DefaultReleaseCutoff,
		ReleaseCutoff1N:      DefaultReleaseCutoff,
		Rates:                DefaultRates,
	}
}

// SetReleaseCutoff sets both release cutoffs.
func (opts *EnumOpts) SetReleaseCutoff(nt int) {
	opts.ReleaseCutoff11 = nt
	opts.ReleaseCutoff1N = nt
}

var validate = validator.New()

// Validate checks option ranges.
func (opts *EnumOpts) Validate() error {
	if opts.Rates == nil {
		return ErrNoRateModel
	}
	if err := validate.Struct(opts); err != nil {
		return errors.Wrap(ErrBadOpts, err.Error())
	}
	return nil
}
