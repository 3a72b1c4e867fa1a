package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ecotrace/ecotrace/internal/emission"
)

func factorsCmd(factorsFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "factors",
		Short: "Print the emission factor table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			factors, err := loadFactors(*factorsFile)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tCATEGORY\tKG CO2E PER UNIT")
			for _, e := range factors.Entries() {
				fmt.Fprintf(tw, "%s\t%s\t%g\n", e.Key, e.Category, e.Factor)
			}
			return tw.Flush()
		},
	}
}

func loadFactors(path string) (emission.Factors, error) {
	if path == "" {
		return emission.DefaultFactors(), nil
	}
	return emission.LoadFactorsFile(path)
}
