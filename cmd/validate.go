package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/tariff-impact/internal/profile"
	"github.com/sells-group/tariff-impact/internal/validate"
)

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate [step...]",
	Short: "Validate the profile against one or more workflow steps",
	Long:  "Runs the step validator. With no arguments every configured step is checked. Exits non-zero when a step cannot proceed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "store")
		if err != nil {
			return err
		}
		defer env.Close()

		steps := args
		if len(steps) == 0 {
			steps = env.Profile.Validator().Config().StepNames()
		}

		results := make([]*validate.Result, 0, len(steps))
		blocked := 0
		for _, step := range steps {
			res := env.Profile.ValidateStep(step)
			if !res.CanProceed {
				blocked++
			}
			results = append(results, res)
		}

		out := cmd.OutOrStdout()
		if validateJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(results); err != nil {
				return eris.Wrap(err, "encode results")
			}
		} else {
			for _, res := range results {
				formatValidation(out, res)
			}
		}

		if blocked > 0 {
			return eris.Errorf("%d of %d steps cannot proceed", blocked, len(results))
		}
		return nil
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress [step...]",
	Short: "Show confirmed required fields per step",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "store")
		if err != nil {
			return err
		}
		defer env.Close()

		steps := args
		if len(steps) == 0 {
			steps = env.Profile.Validator().Config().StepNames()
		}
		progress := make(map[string]profile.Progress, len(steps))
		for _, step := range steps {
			progress[step] = env.Profile.GetStepProgress(step)
		}
		formatProgress(cmd.OutOrStdout(), steps, progress)
		return nil
	},
}

func formatValidation(w io.Writer, res *validate.Result) {
	status := "OK"
	if !res.CanProceed {
		status = "BLOCKED"
	}
	fmt.Fprintf(w, "%s: %s (completeness %.0f%%, quality %d, user %d, template %d)\n",
		res.Step, status, res.Completeness, res.DataQualityScore, res.UserDataCount, res.TemplateDataCount)

	if len(res.Errors)+len(res.Warnings) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, is := range res.Errors {
			fmt.Fprintf(tw, "  ERROR\t%s\t%s\n", is.Field, is.Message)
		}
		for _, is := range res.Warnings {
			fmt.Fprintf(tw, "  WARN %s\t%s\t%s\n", is.Severity, is.Field, is.Message)
		}
		_ = tw.Flush()
	}
	for _, a := range res.RecommendedActions {
		fmt.Fprintf(w, "  -> %s\n", a)
	}
}

func formatProgress(w io.Writer, steps []string, progress map[string]profile.Progress) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tCONFIRMED\tPERCENT")
	for _, step := range steps {
		p := progress[step]
		fmt.Fprintf(tw, "%s\t%d/%d\t%d%%\n", step, p.Completed, p.Total, p.Percentage)
	}
	_ = tw.Flush()
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(progressCmd)
}
