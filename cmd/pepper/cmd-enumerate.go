package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/2x3systems/peppercorn/libpepper"
	"github.com/2x3systems/peppercorn/libpepper/catalog"
	"github.com/2x3systems/peppercorn/libpepper/condense"
	"github.com/2x3systems/peppercorn/libpepper/pil"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newEnumerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enumerate <file.pil>",
		Short: "Enumerate the reaction network of the complexes declared in a PIL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runEnumerate(ctx, args[0], cfg)
		},
	}
	addConfigFlags(cmd.Flags())
	return cmd
}

func runEnumerate(ctx context.Context, pathname string, cfg *Config) error {
	src, err := os.ReadFile(pathname)
	if err != nil {
		return err
	}
	file, err := pil.ParseString(string(src))
	if err != nil {
		return errors.Wrapf(err, "%s", pathname)
	}

	var store libpepper.ComplexStore
	var cat *catalog.Catalog
	if cfg.Catalog != "" {
		catCtx := catalog.NewContext()
		defer func() {
			catCtx.Close()
			<-catCtx.Done()
		}()
		cat, err = catalog.Open(catCtx, catalog.Opts{DbPathName: cfg.Catalog})
		if err != nil {
			return err
		}
		store = cat
	} else {
		store = libpepper.NewMemStore()
	}

	reg := prometheus.NewRegistry()
	metrics := libpepper.NewMetrics(reg)

	en, err := libpepper.NewEnumerator(store, cfg.EnumOpts, metrics)
	if err != nil {
		return err
	}
	en.SetDomains(file.Domains)
	concs := make(map[string]*pil.Concentration)
	for _, seed := range file.Seeds {
		X := en.AddSeed(seed.Complex, seed.Name)
		if seed.Conc != nil {
			concs[X.Name()] = seed.Conc
		}
	}

	net, err := en.Enumerate(ctx)
	if err != nil {
		return err
	}
	if !net.Complete {
		klog.Warningf("enumeration incomplete: %d cutoff(s); see the output header", len(net.Cutoffs))
	}
	if cat != nil {
		cat.SetLastRun(net.RunID)
	}

	var res *condense.Result
	if cfg.Condensed {
		res, err = condense.Condense(ctx, net, condense.Opts{Workers: cfg.Workers})
		if err != nil {
			return err
		}
	}

	var out io.Writer = os.Stdout
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	units := pil.Units{Molarity: cfg.Molarity, Time: cfg.Time}
	switch cfg.Format {
	case "crn":
		err = pil.WriteCRN(out, net, res, units)
	case "vdsd":
		err = pil.WriteVDSD(out, net, res, pil.VDSDOpts{
			Condensed:      cfg.Condensed,
			Generator:      "pepper " + Version,
			Concentrations: concs,
		})
	case "yaml":
		err = pil.WriteYAML(out, net, res)
	default:
		err = pil.WritePIL(out, net, res, pil.PrintOpts{
			Detailed:       cfg.Detailed,
			Condensed:      cfg.Condensed,
			Generator:      "pepper " + Version,
			Units:          units,
			Concentrations: concs,
		})
	}
	if err != nil {
		return errors.Wrap(err, "writing output")
	}

	if cfg.MetricsOut != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsOut, reg); err != nil {
			return errors.Wrap(err, "writing metrics")
		}
	}
	return nil
}
