package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecotrace/ecotrace/internal/emission"
)

const dateLayout = "2006-01-02"

// quantityFlags maps each activity key to its command line flag.
var quantityFlags = []struct {
	key   emission.Key
	flag  string
	usage string
}{
	{emission.KeyElectricity, "electricity", "electricity use in kWh"},
	{emission.KeyNaturalGas, "natural-gas", "natural gas in m³"},
	{emission.KeyGasoline, "gasoline", "gasoline in litres"},
	{emission.KeyDiesel, "diesel", "diesel in litres"},
	{emission.KeyCar, "car", "car distance in km"},
	{emission.KeyFlight, "flight", "flight distance in km"},
	{emission.KeyBus, "bus", "bus distance in km"},
	{emission.KeyTrain, "train", "train distance in km"},
	{emission.KeyLandfill, "landfill", "landfill waste in kg"},
	{emission.KeyRecycling, "recycling", "recycled waste in kg"},
	{emission.KeyWater, "water", "water consumption in m³"},
	{emission.KeyMeat, "meat", "meat in kg"},
	{emission.KeyDairy, "dairy", "dairy in kg"},
}

type computeOptions struct {
	quantities    map[emission.Key]*float64
	from, to      string
	userType      string
	householdSize int
	asJSON        bool
}

type computeOutput struct {
	Period      emission.Period  `json:"period"`
	Subject     emission.Subject `json:"subject"`
	Results     emission.Result  `json:"results"`
	Suggestions []string         `json:"suggestions"`
}

func computeCmd(factorsFile *string) *cobra.Command {
	opts := computeOptions{quantities: make(map[emission.Key]*float64, len(quantityFlags))}

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute the footprint for a period",
		Example: "  footprint compute --electricity 100 --car 50 --from 2024-01-01 --to 2024-01-30\n" +
			"  footprint compute --meat 40 --user-type family --household-size 4 --json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			factors, err := loadFactors(*factorsFile)
			if err != nil {
				return err
			}
			out, err := opts.run(factors, time.Now())
			if err != nil {
				return err
			}
			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			return printResult(cmd.OutOrStdout(), out)
		},
	}

	for _, q := range quantityFlags {
		opts.quantities[q.key] = cmd.Flags().Float64(q.flag, 0, q.usage)
	}
	cmd.Flags().StringVar(&opts.from, "from", "", "first day of the period (YYYY-MM-DD, default 29 days before --to)")
	cmd.Flags().StringVar(&opts.to, "to", "", "last day of the period (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&opts.userType, "user-type", string(emission.SubjectIndividual), "individual or family")
	cmd.Flags().IntVar(&opts.householdSize, "household-size", 1, "people sharing a family footprint")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	return cmd
}

func (o computeOptions) run(factors emission.Factors, now time.Time) (*computeOutput, error) {
	var activity emission.Activity
	for key, v := range o.quantities {
		if err := activity.SetQuantity(key, *v); err != nil {
			return nil, err
		}
	}
	if activity.IsZero() {
		return nil, errors.New("at least one activity quantity must be greater than zero")
	}

	period, err := o.period(now)
	if err != nil {
		return nil, err
	}
	if period.Days() == 0 {
		return nil, fmt.Errorf("--to %s is before --from %s", o.to, o.from)
	}

	subject := emission.Subject{
		Type:          emission.ParseSubjectType(o.userType),
		HouseholdSize: o.householdSize,
	}.Normalize()

	result := factors.Compute(activity, period, subject)
	return &computeOutput{
		Period:      period,
		Subject:     subject,
		Results:     result,
		Suggestions: emission.Suggestions(result),
	}, nil
}

func (o computeOptions) period(now time.Time) (emission.Period, error) {
	y, m, d := now.Date()
	to := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if o.to != "" {
		t, err := time.Parse(dateLayout, o.to)
		if err != nil {
			return emission.Period{}, fmt.Errorf("invalid --to %q: expected YYYY-MM-DD", o.to)
		}
		to = t
	}

	from := to.AddDate(0, 0, -29)
	if o.from != "" {
		t, err := time.Parse(dateLayout, o.from)
		if err != nil {
			return emission.Period{}, fmt.Errorf("invalid --from %q: expected YYYY-MM-DD", o.from)
		}
		from = t
	}
	return emission.Period{From: from, To: to}, nil
}

func printResult(w io.Writer, out *computeOutput) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Period\t%s to %s (%d days)\n",
		out.Period.From.Format(dateLayout), out.Period.To.Format(dateLayout), out.Period.Days())
	fmt.Fprintf(tw, "Subject\t%s (%d)\n", out.Subject.Type, out.Subject.HouseholdSize)
	fmt.Fprintln(tw, "\t")
	for _, c := range emission.Categories {
		fmt.Fprintf(tw, "%s\t%.2f kg\n", c, out.Results.ByCategory(c))
	}
	fmt.Fprintf(tw, "total\t%.2f kg\n", out.Results.Total)
	fmt.Fprintf(tw, "per person\t%.2f kg\n", out.Results.PerPerson)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	for _, s := range out.Suggestions {
		fmt.Fprintf(w, "- %s\n", s)
	}
	return nil
}
