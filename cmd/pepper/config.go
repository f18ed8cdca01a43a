package main

import (
	"strings"

	"github.com/2x3systems/peppercorn/pepper"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the enumerate command configuration, read from (in increasing precedence)
// defaults, a YAML config file, PEPPER_* environment variables, and flags.
type Config struct {
	pepper.EnumOpts `mapstructure:",squash"`

	Format     string `mapstructure:"format" validate:"oneof=pil crn yaml vdsd"`
	Molarity   string `mapstructure:"molarity" validate:"oneof=M mM uM nM pM"`
	Time       string `mapstructure:"time" validate:"oneof=s min h"`
	Condensed  bool   `mapstructure:"condensed"`
	Detailed   bool   `mapstructure:"detailed"`
	Catalog    string `mapstructure:"catalog"`
	Output     string `mapstructure:"output"`
	MetricsOut string `mapstructure:"metrics_out"`
	Workers    int    `mapstructure:"workers" validate:"gte=0"`
}

// configFlags maps flag names to config keys.
var configFlags = []struct {
	flag, key string
}{
	{"max-complex-size", "max_complex_size"},
	{"max-unimolecular-steps", "max_unimolecular_steps"},
	{"max-complex-count", "max_complex_count"},
	{"max-reaction-count", "max_reaction_count"},
	{"release-cutoff-1-1", "release_cutoff_1_1"},
	{"release-cutoff-1-n", "release_cutoff_1_n"},
	{"reject-remote", "reject_remote"},
	{"max-helix", "max_helix"},
	{"k-fast", "k_fast"},
	{"k-slow", "k_slow"},
	{"format", "format"},
	{"molarity", "molarity"},
	{"time", "time"},
	{"condensed", "condensed"},
	{"detailed", "detailed"},
	{"catalog", "catalog"},
	{"output", "output"},
	{"metrics-out", "metrics_out"},
	{"workers", "workers"},
}

func addConfigFlags(fs *pflag.FlagSet) {
	def := pepper.DefaultEnumOpts()
	fs.String("config", "", "YAML config file")
	fs.Int("max-complex-size", def.MaxComplexSize, "complexes with more strands are recorded but not expanded")
	fs.Int("max-unimolecular-steps", def.MaxUnimolecularSteps, "unimolecular steps before a complex is frozen")
	fs.Int("max-complex-count", def.MaxComplexCount, "halt after this many complexes")
	fs.Int("max-reaction-count", def.MaxReactionCount, "halt after this many reactions")
	fs.Int("release-cutoff", def.ReleaseCutoff11, "sets both release cutoffs (nt)")
	fs.Int("release-cutoff-1-1", def.ReleaseCutoff11, "longest helix (nt) opened without splitting the complex")
	fs.Int("release-cutoff-1-n", def.ReleaseCutoff1N, "longest helix (nt) opened when splitting the complex")
	fs.Bool("reject-remote", false, "do not enumerate remote toehold branch migration")
	fs.Bool("max-helix", false, "zip binds and branch migrations to the end of the helix and open whole helices")
	fs.Float64("k-fast", def.KFast, "unimolecular reactions faster than this are fast (/s)")
	fs.Float64("k-slow", def.KSlow, "reactions at or below this rate are discarded (/s)")
	fs.String("format", "pil", "output format: pil, crn, yaml, or vdsd")
	fs.String("molarity", "M", "concentration unit of written rate constants: M, mM, uM, nM, or pM")
	fs.String("time", "s", "time unit of written rate constants: s, min, or h")
	fs.Bool("condensed", true, "write resting macrostates and condensed reactions")
	fs.Bool("detailed", true, "write transient complexes and detailed reactions")
	fs.String("catalog", "", "catalog directory keeping complex names stable across runs")
	fs.StringP("output", "o", "", "output file (default stdout)")
	fs.String("metrics-out", "", "write Prometheus metrics to this file")
	fs.Int("workers", 0, "concurrent condensation workers (0 for GOMAXPROCS)")
}

var validate = validator.New()

func loadConfig(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PEPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for _, cf := range configFlags {
		if err := v.BindPFlag(cf.key, fs.Lookup(cf.flag)); err != nil {
			return nil, errors.Wrapf(err, "binding flag %q", cf.flag)
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config %q", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}

	// --release-cutoff overrides both cutoffs when given explicitly
	if fs.Changed("release-cutoff") {
		nt, _ := fs.GetInt("release-cutoff")
		cfg.SetReleaseCutoff(nt)
	}
	cfg.Rates = pepper.DefaultRates

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if err := cfg.EnumOpts.Validate(); err != nil {
		return err
	}
	if err := validate.Struct(cfg); err != nil {
		return errors.Wrap(pepper.ErrBadOpts, err.Error())
	}
	return nil
}
