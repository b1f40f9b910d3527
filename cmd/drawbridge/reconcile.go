package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var reconcileRepair bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Report tables whose physical storage is missing",
	Long: `Check every table definition against the physical store. With --repair,
create the physical table for each definition that lacks one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.tables.Reconcile(cmd.Context(), reconcileRepair)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPHYSICAL\tREPAIRED\tERROR")
		missing := 0
		for _, st := range report {
			if !st.PhysicalExists {
				missing++
			}
			fmt.Fprintf(w, "%d\t%s\t%t\t%t\t%s\n", st.TableID, st.Name, st.PhysicalExists, st.Repaired, st.Error)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if missing > 0 {
			return fmt.Errorf("%d table(s) lack physical storage", missing)
		}
		return nil
	},
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileRepair, "repair", false, "create missing physical tables")
}
