package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/plan-systems/klog"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

func main() {
	err := newRootCommand().Execute()
	klog.Flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, "pepper:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "pepper",
		Short:         "Domain-level DNA strand displacement reaction enumerator",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "0")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          isatty.IsTerminal(os.Stderr.Fd()),
	})
	root.PersistentFlags().AddGoFlagSet(fset)

	root.AddCommand(
		newEnumerateCommand(),
		newCatalogCommand(),
	)
	return root
}
