// Package main provides footprint, an offline carbon footprint calculator
// sharing the API's emission model.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at compile time via ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var factorsFile string

	root := &cobra.Command{
		Use:          "footprint",
		Short:        "Estimate a carbon footprint from activity quantities",
		Version:      Version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&factorsFile, "factors", "", "YAML factor set replacing the built-in table")

	root.AddCommand(computeCmd(&factorsFile))
	root.AddCommand(factorsCmd(&factorsFile))
	return root
}
