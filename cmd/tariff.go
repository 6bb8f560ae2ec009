package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/tariff-impact/internal/config"
	"github.com/sells-group/tariff-impact/internal/tariff"
)

var tariffCmd = &cobra.Command{
	Use:   "tariff",
	Short: "Tariff impact estimation",
}

var tariffCalcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Estimate per-product tariff cost for the imported products",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		base, err := baseRates(cfg.Tariff)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := tariff.Apply(ctx, env.Profile, base)
		if err != nil {
			return err
		}
		formatImpacts(cmd.OutOrStdout(), report)
		return nil
	},
}

// baseRates layers the config's default rate and HTS overrides over the
// optional rates file. Country rates come from the profile at calc time.
func baseRates(tc config.TariffConfig) (tariff.Rates, error) {
	var file tariff.Rates
	if tc.RatesFile != "" {
		r, err := tariff.LoadRates(tc.RatesFile)
		if err != nil {
			return tariff.Rates{}, err
		}
		file = r
	}
	return file.Merge(tariff.Rates{Default: tc.DefaultRate, HTS: tc.HTSOverrides}), nil
}

func formatImpacts(w io.Writer, r *tariff.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SKU\tORIGIN\tHTS\tVALUE\tRATE\tCOST\tFROM")
	for _, imp := range r.Impacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.1f%%\t%.2f\t%s\n",
			imp.SKU, imp.OriginCountry, imp.HTSCode, imp.ImportValue, imp.TariffRate*100, imp.TariffCost, imp.RateSource)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\ntotal tariff cost: $%.2f\n", r.TotalCost)
}

func init() {
	tariffCmd.AddCommand(tariffCalcCmd)
	rootCmd.AddCommand(tariffCmd)
}
