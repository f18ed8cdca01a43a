package main

import (
	"fmt"

	"github.com/2x3systems/peppercorn/libpepper/catalog"
	"github.com/spf13/cobra"
)

func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect a complex catalog",
	}

	var lo, hi int
	list := &cobra.Command{
		Use:   "list <dir>",
		Short: "List cataloged complexes by strand count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catCtx := catalog.NewContext()
			defer func() {
				catCtx.Close()
				<-catCtx.Done()
			}()

			cat, err := catalog.Open(catCtx, catalog.Opts{
				DbPathName: args[0],
				ReadOnly:   true,
			})
			if err != nil {
				return err
			}
			defer cat.Close()

			onHit := make(chan catalog.Entry, 8)
			errc := make(chan error, 1)
			go func() {
				errc <- cat.Select(lo, hi, onHit)
				close(onHit)
			}()

			out := cmd.OutOrStdout()
			total := 0
			for entry := range onHit {
				fmt.Fprintf(out, "%d\t%s\t%s\n", entry.Strands, entry.Name, entry.Key)
				total++
			}
			if err := <-errc; err != nil {
				return err
			}
			state := cat.State()
			fmt.Fprintf(out, "# %d complexes listed, %d cataloged (last run %s)\n", total, state.Complexes, state.LastRun)
			return nil
		},
	}
	list.Flags().IntVar(&lo, "min", 1, "smallest strand count listed")
	list.Flags().IntVar(&hi, "max", 255, "largest strand count listed")

	cmd.AddCommand(list)
	return cmd
}
